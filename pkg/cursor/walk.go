package cursor

import (
	"github.com/walteh/syntaxwalk/pkg/position"
	"github.com/walteh/syntaxwalk/pkg/syntax"
)

// NodeForByte returns the deepest node below root whose range contains offset.
// Root itself is returned when no child contains the offset.
func NodeForByte(root syntax.Node, offset uint32) syntax.Node {
	return descend(root, func(c *TreeCursor) bool {
		return c.GotoFirstChildForByte(offset) != NoChild && c.Node().StartByte() <= offset
	})
}

// NodeForPoint is NodeForByte for a row and column
func NodeForPoint(root syntax.Node, p position.Point) syntax.Node {
	return descend(root, func(c *TreeCursor) bool {
		return c.GotoFirstChildForPoint(p) != NoChild && c.Node().StartPoint().Compare(p) <= 0
	})
}

func descend(root syntax.Node, step func(*TreeCursor) bool) syntax.Node {
	c, err := New(root)
	if err != nil {
		return syntax.Node{}
	}
	defer c.Close()

	for {
		depth := c.Depth()
		if !step(c) {
			if c.Depth() > depth {
				// landed on a child that starts after the target
				c.GotoParent()
			}
			return c.Node()
		}
	}
}

// Walk visits node and its descendants in pre-order. Returning false from
// visit skips the children of the current node. The cursor passed to visit
// must not be moved or retained.
func Walk(node syntax.Node, visit func(c *TreeCursor) bool) error {
	c, err := New(node)
	if err != nil {
		return err
	}
	defer c.Close()

	start := c.Depth()
	for {
		if visit(c) && c.GotoFirstChild() {
			continue
		}
		for {
			if c.Depth() == start {
				return nil
			}
			if c.GotoNextSibling() {
				break
			}
			c.GotoParent()
		}
	}
}
