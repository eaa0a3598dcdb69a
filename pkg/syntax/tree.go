/*
Package syntax holds immutable syntax trees produced by an external parser.

Storage
-------

A Tree keeps its nodes in one slice, in pre-order. Every node records how many
descendants follow it, so the usual relations are index arithmetic:

	index:        0      1     2   3     4
	node:      program  expr   a   +    b ...
	            |<------------ 0 + descendants(0) ------>|

	first child   = index + 1            (if it has children)
	next sibling  = index + 1 + descendants(index)
	parent        = stored parent index

A node's index is therefore also its pre-order descendant index, which is what
cursors report and jump to.

Lifetime
--------

Nodes are small values ({tree, index}) and keep the tree reachable for the
garbage collector. Close marks a tree as released: nodes and cursors built on
it report themselves invalid from then on instead of reading released state.
*/
package syntax

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/position"
)

type nodeFlags uint8

const (
	flagError nodeFlags = 1 << iota
	flagMissing
	flagHasError
)

type nodeData struct {
	symbol      grammar.Symbol
	field       grammar.FieldID
	state       grammar.StateID
	flags       nodeFlags
	parent      int32
	childCount  uint32
	descendants uint32
	rng         position.Range
}

// Tree is an immutable syntax tree over one source text
type Tree struct {
	id      uuid.UUID
	grammar *grammar.Grammar
	source  []byte
	index   *position.Index
	nodes   []nodeData
	closed  atomic.Bool
}

// ID identifies the tree. Nodes compare equal only within the same tree.
func (t *Tree) ID() uuid.UUID {
	return t.id
}

// Grammar returns the language the tree was parsed with
func (t *Tree) Grammar() *grammar.Grammar {
	return t.grammar
}

// Source returns the parsed text. The slice must not be modified.
func (t *Tree) Source() []byte {
	return t.source
}

// PositionIndex converts offsets of the source text to points
func (t *Tree) PositionIndex() *position.Index {
	return t.index
}

// NodeCount returns the number of nodes, which is also the descendant count of the root
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// RootNode returns the root, an invalid Node once the tree is closed
func (t *Tree) RootNode() Node {
	if t.Closed() {
		return Node{}
	}
	return Node{tree: t, index: 0}
}

// NodeAt returns the node with the given pre-order index
func (t *Tree) NodeAt(index uint32) (Node, bool) {
	if t.Closed() || int(index) >= len(t.nodes) {
		return Node{}, false
	}
	return Node{tree: t, index: index}, true
}

// Close releases the tree. It is safe to call more than once.
func (t *Tree) Close() {
	t.closed.Store(true)
}

func (t *Tree) Closed() bool {
	return t.closed.Load()
}

func (t *Tree) String() string {
	if t.Closed() {
		return "(closed)"
	}
	return t.RootNode().String()
}
