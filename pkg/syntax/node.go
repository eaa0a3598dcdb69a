package syntax

import (
	"strconv"
	"strings"

	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/position"
)

// Node is a position in a Tree. The zero Node is invalid, as is every node of a closed tree.
// Two nodes are the same node exactly when they compare equal with ==.
type Node struct {
	tree  *Tree
	index uint32
}

func (n Node) IsValid() bool {
	return n.tree != nil && !n.tree.Closed() && int(n.index) < len(n.tree.nodes)
}

func (n Node) data() *nodeData {
	return &n.tree.nodes[n.index]
}

func (n Node) at(index uint32) Node {
	return Node{tree: n.tree, index: index}
}

// Tree returns the owning tree, nil for the zero Node
func (n Node) Tree() *Tree {
	return n.tree
}

// Index returns the pre-order position of the node in its tree, the root is 0
func (n Node) Index() uint32 {
	return n.index
}

func (n Node) Symbol() grammar.Symbol {
	if !n.IsValid() {
		return grammar.ErrorSymbol
	}
	return n.data().symbol
}

// Kind returns the grammar name of the node's symbol
func (n Node) Kind() string {
	if !n.IsValid() {
		return ""
	}
	return n.tree.grammar.SymbolName(n.data().symbol)
}

// IsNamed reports whether the node's symbol is a named rule rather than a literal token
func (n Node) IsNamed() bool {
	if !n.IsValid() {
		return false
	}
	info, _ := n.tree.grammar.SymbolInfo(n.data().symbol)
	return info.Named
}

func (n Node) isVisible() bool {
	info, _ := n.tree.grammar.SymbolInfo(n.data().symbol)
	return info.Visible
}

func (n Node) IsError() bool {
	return n.IsValid() && n.data().flags&flagError != 0
}

// IsMissing reports whether the parser inserted the node to recover from an error
func (n Node) IsMissing() bool {
	return n.IsValid() && n.data().flags&flagMissing != 0
}

// HasError reports whether the node or any of its descendants is an error or missing node
func (n Node) HasError() bool {
	return n.IsValid() && n.data().flags&flagHasError != 0
}

// FieldID returns the field under which the node is attached to its parent
func (n Node) FieldID() grammar.FieldID {
	if !n.IsValid() {
		return grammar.NoField
	}
	return n.data().field
}

func (n Node) FieldName() (string, bool) {
	if !n.IsValid() {
		return "", false
	}
	return n.tree.grammar.FieldName(n.data().field)
}

// ParseState returns the parse state recorded for the node by the parser
func (n Node) ParseState() grammar.StateID {
	if !n.IsValid() {
		return 0
	}
	return n.data().state
}

// NextParseState returns the state the parser moves to after consuming the node,
// false if the grammar has no such transition
func (n Node) NextParseState() (grammar.StateID, bool) {
	if !n.IsValid() || n.data().flags&flagError != 0 {
		return 0, false
	}
	return n.tree.grammar.NextState(n.data().state, n.data().symbol)
}

func (n Node) Range() position.Range {
	if !n.IsValid() {
		return position.Range{}
	}
	return n.data().rng
}

func (n Node) StartByte() uint32 {
	return n.Range().StartByte
}

func (n Node) EndByte() uint32 {
	return n.Range().EndByte
}

func (n Node) StartPoint() position.Point {
	return n.Range().StartPoint
}

func (n Node) EndPoint() position.Point {
	return n.Range().EndPoint
}

// Content returns the source text covered by the node
func (n Node) Content() string {
	if !n.IsValid() {
		return ""
	}
	r := n.data().rng
	return string(n.tree.source[r.StartByte:r.EndByte])
}

func (n Node) ChildCount() int {
	if !n.IsValid() {
		return 0
	}
	return int(n.data().childCount)
}

// DescendantCount returns the number of nodes in the subtree, including n itself
func (n Node) DescendantCount() int {
	if !n.IsValid() {
		return 0
	}
	return int(n.data().descendants) + 1
}

// Child returns the i-th child in source order
func (n Node) Child(i int) (Node, bool) {
	if !n.IsValid() || i < 0 || i >= int(n.data().childCount) {
		return Node{}, false
	}
	c := n.index + 1
	for ; i > 0; i-- {
		c += n.tree.nodes[c].descendants + 1
	}
	return n.at(c), true
}

func (n Node) FirstChild() (Node, bool) {
	return n.Child(0)
}

func (n Node) LastChild() (Node, bool) {
	return n.Child(n.ChildCount() - 1)
}

func (n Node) Parent() (Node, bool) {
	if !n.IsValid() || n.data().parent < 0 {
		return Node{}, false
	}
	return n.at(uint32(n.data().parent)), true
}

func (n Node) NextSibling() (Node, bool) {
	parent, ok := n.Parent()
	if !ok {
		return Node{}, false
	}
	next := n.index + n.data().descendants + 1
	if next > parent.index+parent.data().descendants {
		return Node{}, false
	}
	return n.at(next), true
}

func (n Node) PrevSibling() (Node, bool) {
	parent, ok := n.Parent()
	if !ok || n.index == parent.index+1 {
		return Node{}, false
	}
	c := parent.index + 1
	for {
		next := c + n.tree.nodes[c].descendants + 1
		if next == n.index {
			return n.at(c), true
		}
		c = next
	}
}

// ChildIndex returns the position of n among its parent's children, -1 for the root
func (n Node) ChildIndex() int {
	parent, ok := n.Parent()
	if !ok {
		return -1
	}
	i := 0
	for c := parent.index + 1; c != n.index; c += n.tree.nodes[c].descendants + 1 {
		i++
	}
	return i
}

// String renders the subtree as an S-expression of its named nodes
func (n Node) String() string {
	if !n.IsValid() {
		return "(invalid)"
	}
	var sb strings.Builder
	n.writeSExpr(&sb, "")
	return strings.TrimSpace(sb.String())
}

func (n Node) writeSExpr(sb *strings.Builder, field string) {
	d := n.data()
	visible := d.flags&(flagError|flagMissing) != 0 || (n.IsNamed() && n.isVisible())

	if visible {
		sb.WriteString(" ")
		if field != "" {
			sb.WriteString(field)
			sb.WriteString(": ")
		}
		sb.WriteString("(")
		switch {
		case d.flags&flagMissing != 0 && !n.IsNamed():
			sb.WriteString("MISSING ")
			sb.WriteString(strconv.Quote(n.Kind()))
		case d.flags&flagMissing != 0:
			sb.WriteString("MISSING ")
			sb.WriteString(n.Kind())
		default:
			sb.WriteString(n.Kind())
		}
	}

	for c := n.index + 1; c <= n.index+d.descendants; c += n.tree.nodes[c].descendants + 1 {
		child := n.at(c)
		name, _ := child.FieldName()
		child.writeSExpr(sb, name)
	}

	if visible {
		sb.WriteString(")")
	}
}
