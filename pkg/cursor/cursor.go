// Package cursor walks syntax trees with a stateful, repositionable cursor.
//
// A TreeCursor is anchored to the tree of the node it was created from. Depth
// and descendant index are measured from that tree's root, whatever node the
// cursor started on. A cursor is owned by one goroutine; Copy makes an
// independent cursor at the same position.
package cursor

import (
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/position"
	"github.com/walteh/syntaxwalk/pkg/syntax"
	"gitlab.com/tozd/go/errors"
)

var ErrInvalidNode = errors.Base("invalid node")

// NoChild is returned by the GotoFirstChildFor methods when no child qualifies
const NoChild = -1

// TreeCursor is a position in a syntax tree together with the path from the root to it
type TreeCursor struct {
	tree   *syntax.Tree
	path   []syntax.Node
	closed bool
}

// New creates a cursor positioned on node
func New(node syntax.Node) (*TreeCursor, error) {
	if !node.IsValid() {
		return nil, errors.WithStack(ErrInvalidNode)
	}
	c := &TreeCursor{}
	c.moveTo(node)
	return c, nil
}

func (c *TreeCursor) moveTo(node syntax.Node) {
	depth := 0
	for n, ok := node.Parent(); ok; n, ok = n.Parent() {
		depth++
	}

	path := make([]syntax.Node, depth+1, depth+8)
	for n, i := node, depth; i >= 0; i-- {
		path[i] = n
		n, _ = n.Parent()
	}

	c.tree = node.Tree()
	c.path = path
}

func (c *TreeCursor) valid() bool {
	return !c.closed && c.tree != nil && !c.tree.Closed()
}

func (c *TreeCursor) top() syntax.Node {
	return c.path[len(c.path)-1]
}

// Copy returns an independent cursor at the same position
func (c *TreeCursor) Copy() *TreeCursor {
	return &TreeCursor{
		tree:   c.tree,
		path:   append(make([]syntax.Node, 0, cap(c.path)), c.path...),
		closed: c.closed,
	}
}

// Close releases the cursor. Every later operation reports failure.
func (c *TreeCursor) Close() {
	c.closed = true
	c.path = nil
}

// Node returns the current node, invalid if the cursor or its tree is closed
func (c *TreeCursor) Node() syntax.Node {
	if !c.valid() {
		return syntax.Node{}
	}
	return c.top()
}

// Depth returns the number of ancestors of the current node, 0 at the root
func (c *TreeCursor) Depth() uint32 {
	if !c.valid() {
		return 0
	}
	return uint32(len(c.path) - 1)
}

// DescendantIndex returns the pre-order index of the current node in its tree
func (c *TreeCursor) DescendantIndex() uint32 {
	if !c.valid() {
		return 0
	}
	return c.top().Index()
}

// FieldID returns the field of the current node within its parent
func (c *TreeCursor) FieldID() (grammar.FieldID, bool) {
	if !c.valid() {
		return grammar.NoField, false
	}
	f := c.top().FieldID()
	return f, f != grammar.NoField
}

func (c *TreeCursor) FieldName() (string, bool) {
	if !c.valid() {
		return "", false
	}
	return c.top().FieldName()
}

// Reset moves the cursor to node, which may belong to another tree.
// It returns false and leaves the cursor unchanged if node is invalid.
func (c *TreeCursor) Reset(node syntax.Node) bool {
	if c.closed || !node.IsValid() {
		return false
	}
	c.moveTo(node)
	return true
}

// ResetTo makes c a copy of other, including other's tree
func (c *TreeCursor) ResetTo(other *TreeCursor) bool {
	if c.closed || other == nil || !other.valid() {
		return false
	}
	c.tree = other.tree
	c.path = append(c.path[:0], other.path...)
	return true
}

func (c *TreeCursor) push(node syntax.Node) {
	c.path = append(c.path, node)
}

func (c *TreeCursor) GotoFirstChild() bool {
	if !c.valid() {
		return false
	}
	child, ok := c.top().FirstChild()
	if !ok {
		return false
	}
	c.push(child)
	return true
}

func (c *TreeCursor) GotoLastChild() bool {
	if !c.valid() {
		return false
	}
	child, ok := c.top().LastChild()
	if !ok {
		return false
	}
	c.push(child)
	return true
}

// GotoParent moves to the parent of the current node. It fails at the root
// of the tree, not at the node the cursor was created on.
func (c *TreeCursor) GotoParent() bool {
	if !c.valid() || len(c.path) == 1 {
		return false
	}
	c.path = c.path[:len(c.path)-1]
	return true
}

func (c *TreeCursor) GotoNextSibling() bool {
	if !c.valid() {
		return false
	}
	next, ok := c.top().NextSibling()
	if !ok {
		return false
	}
	c.path[len(c.path)-1] = next
	return true
}

func (c *TreeCursor) GotoPreviousSibling() bool {
	if !c.valid() {
		return false
	}
	prev, ok := c.top().PrevSibling()
	if !ok {
		return false
	}
	c.path[len(c.path)-1] = prev
	return true
}

// GotoDescendant moves to the node with the given pre-order index in the tree
func (c *TreeCursor) GotoDescendant(index uint32) bool {
	if !c.valid() || int(index) >= c.tree.NodeCount() {
		return false
	}

	c.path = c.path[:1]
	for {
		n := c.top()
		if n.Index() == index {
			return true
		}
		child, _ := n.FirstChild()
		for index > child.Index()+uint32(child.DescendantCount())-1 {
			child, _ = child.NextSibling()
		}
		c.push(child)
	}
}

// GotoFirstChildForByte moves to the first child that ends after offset and
// returns its index, or NoChild without moving
func (c *TreeCursor) GotoFirstChildForByte(offset uint32) int {
	return c.gotoFirstChildWhere(func(r position.Range) bool {
		return r.EndByte > offset
	})
}

// GotoFirstChildForPoint moves to the first child that ends after p and
// returns its index, or NoChild without moving
func (c *TreeCursor) GotoFirstChildForPoint(p position.Point) int {
	return c.gotoFirstChildWhere(func(r position.Range) bool {
		return p.Less(r.EndPoint)
	})
}

func (c *TreeCursor) gotoFirstChildWhere(match func(position.Range) bool) int {
	if !c.valid() {
		return NoChild
	}
	child, ok := c.top().FirstChild()
	for i := 0; ok; i++ {
		if match(child.Range()) {
			c.push(child)
			return i
		}
		child, ok = child.NextSibling()
	}
	return NoChild
}
