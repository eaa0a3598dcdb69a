package syntax

import (
	"bytes"
	"math"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/position"
	"gitlab.com/tozd/go/errors"
)

var ErrBuild = errors.Base("invalid syntax tree")

// Builder assembles a Tree in source order. A parser opens a node, adds its
// children, and closes it again:
//
//	b := syntax.NewBuilder(g, src)
//	b.Open(program, grammar.NoField)
//	b.Leaf(identifier, grammar.NoField, 0, 3)
//	b.Close()
//	tree, err := b.Build()
//
// Mistakes are collected and reported together by Build.
type Builder struct {
	grammar *grammar.Grammar
	source  []byte
	nodes   []nodeData
	open    []uint32
	offset  uint32
	errs    *multierror.Error
}

func NewBuilder(g *grammar.Grammar, source []byte) *Builder {
	return &Builder{
		grammar: g,
		source:  bytes.Clone(source),
		nodes:   make([]nodeData, 0, 64),
	}
}

func (b *Builder) fail(format string, args ...any) {
	b.errs = multierror.Append(b.errs, errors.Errorf(format, args...))
}

// Offset returns the end of the last leaf added so far
func (b *Builder) Offset() uint32 {
	return b.offset
}

// Open starts a nonterminal node. Its range is derived from its children when it is closed.
func (b *Builder) Open(symbol grammar.Symbol, field grammar.FieldID) {
	if !b.checkSymbol(symbol) {
		return
	}
	b.push(symbol, field, 0, b.offset, b.offset)
}

// Error starts an ERROR node wrapping the tokens the parser could not place
func (b *Builder) Error() {
	b.push(grammar.ErrorSymbol, grammar.NoField, flagError, b.offset, b.offset)
}

// Leaf adds a token spanning [start, end) of the source
func (b *Builder) Leaf(symbol grammar.Symbol, field grammar.FieldID, start, end uint32) {
	if !b.checkSymbol(symbol) || !b.checkSpan(start, end) {
		return
	}
	b.add(symbol, field, 0, start, end)
}

// ErrorLeaf adds an ERROR node without children covering [start, end) of the source
func (b *Builder) ErrorLeaf(start, end uint32) {
	if !b.checkSpan(start, end) {
		return
	}
	b.add(grammar.ErrorSymbol, grammar.NoField, flagError, start, end)
}

// Missing adds a zero-width token the parser inserted at the current offset
func (b *Builder) Missing(symbol grammar.Symbol, field grammar.FieldID) {
	if !b.checkSymbol(symbol) {
		return
	}
	b.add(symbol, field, flagMissing, b.offset, b.offset)
}

// SetState records the parse state of the most recently added node
func (b *Builder) SetState(state grammar.StateID) {
	if len(b.nodes) == 0 {
		b.fail("parse state %d set before any node", state)
		return
	}
	if !b.grammar.ValidState(state) {
		b.fail("parse state %d out of range (%d states)", state, b.grammar.StateCount())
		return
	}
	b.nodes[len(b.nodes)-1].state = state
}

// Close ends the innermost open node
func (b *Builder) Close() {
	if len(b.open) == 0 {
		b.fail("close without an open node")
		return
	}
	idx := b.open[len(b.open)-1]
	b.open = b.open[:len(b.open)-1]

	n := &b.nodes[idx]
	n.descendants = uint32(len(b.nodes)) - idx - 1
	if n.childCount > 0 {
		n.rng.StartByte = b.nodes[idx+1].rng.StartByte
		n.rng.EndByte = b.offset
	}
}

// Build validates the collected nodes and returns the finished tree.
// The builder must not be used afterwards.
func (b *Builder) Build() (*Tree, error) {
	if len(b.open) > 0 {
		b.fail("%d nodes left open", len(b.open))
	}
	if len(b.nodes) == 0 {
		b.fail("tree has no nodes")
	}
	if err := b.errs.ErrorOrNil(); err != nil {
		return nil, errors.Errorf("%w: %s", ErrBuild, err)
	}

	ix := position.NewIndex(b.source)
	for i := len(b.nodes) - 1; i >= 0; i-- {
		n := &b.nodes[i]
		n.rng.StartPoint = ix.PointAt(n.rng.StartByte)
		n.rng.EndPoint = ix.PointAt(n.rng.EndByte)
		if n.flags&(flagError|flagMissing) != 0 {
			n.flags |= flagHasError
		}
		if n.flags&flagHasError != 0 && n.parent >= 0 {
			b.nodes[n.parent].flags |= flagHasError
		}
	}

	t := &Tree{
		id:      uuid.New(),
		grammar: b.grammar,
		source:  b.source,
		index:   ix,
		nodes:   b.nodes,
	}
	b.nodes = nil
	return t, nil
}

func (b *Builder) checkSymbol(symbol grammar.Symbol) bool {
	if symbol == grammar.ErrorSymbol {
		b.fail("ERROR nodes are added with Error or ErrorLeaf")
		return false
	}
	if _, ok := b.grammar.SymbolInfo(symbol); !ok {
		b.fail("unknown symbol %d", symbol)
		return false
	}
	return true
}

func (b *Builder) checkSpan(start, end uint32) bool {
	switch {
	case end < start:
		b.fail("leaf ends at %d before it starts at %d", end, start)
	case int(end) > len(b.source):
		b.fail("leaf [%d, %d) extends past the end of the source (%d bytes)", start, end, len(b.source))
	case start < b.offset:
		b.fail("leaf [%d, %d) overlaps the previous leaf ending at %d", start, end, b.offset)
	default:
		return true
	}
	return false
}

func (b *Builder) add(symbol grammar.Symbol, field grammar.FieldID, flags nodeFlags, start, end uint32) bool {
	if field != grammar.NoField {
		if _, ok := b.grammar.FieldName(field); !ok {
			b.fail("unknown field %d", field)
			return false
		}
	}
	if len(b.nodes) >= math.MaxInt32 {
		b.fail("too many nodes")
		return false
	}

	parent := int32(-1)
	if len(b.open) > 0 {
		parent = int32(b.open[len(b.open)-1])
		b.nodes[parent].childCount++
	} else if len(b.nodes) > 0 {
		b.fail("%s node added after the root was closed", b.grammar.SymbolName(symbol))
		return false
	}

	b.nodes = append(b.nodes, nodeData{
		symbol: symbol,
		field:  field,
		flags:  flags,
		parent: parent,
		rng:    position.Range{StartByte: start, EndByte: end},
	})
	b.offset = end
	return true
}

func (b *Builder) push(symbol grammar.Symbol, field grammar.FieldID, flags nodeFlags, start, end uint32) {
	if b.add(symbol, field, flags, start, end) {
		b.open = append(b.open, uint32(len(b.nodes)-1))
	}
}
