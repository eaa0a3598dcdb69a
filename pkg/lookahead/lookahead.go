// Package lookahead enumerates the symbols a grammar accepts in a parse state.
//
// An Iterator starts before its first symbol. Next advances it and reports
// whether it is on a symbol; before the first call and after the last symbol
// it reports grammar.ErrorSymbol, named "ERROR".
//
//	it, err := lookahead.New(g, state)
//	for it.Next() {
//		fmt.Println(it.Symbol(), it.SymbolName())
//	}
//
// Symbols come out in ascending symbol id order, so the same state always
// yields the same sequence.
package lookahead

import (
	"iter"

	"github.com/walteh/syntaxwalk/pkg/grammar"
	"gitlab.com/tozd/go/errors"
)

var ErrInvalidState = errors.Base("invalid parse state")

// Iterator walks the lookahead set of one parse state. It is owned by one
// goroutine; the grammar it reads may be shared.
type Iterator struct {
	grammar *grammar.Grammar
	state   grammar.StateID
	pos     int
	closed  bool
}

// New creates an iterator over the lookahead set of state
func New(g *grammar.Grammar, state grammar.StateID) (*Iterator, error) {
	if g == nil {
		return nil, errors.Errorf("%w: no grammar", ErrInvalidState)
	}
	if !g.ValidState(state) {
		return nil, errors.Errorf("%w: %d not in %s (%d states)", ErrInvalidState, state, g.Name(), g.StateCount())
	}
	return &Iterator{grammar: g, state: state, pos: -1}, nil
}

// Language returns the grammar the iterator is bound to
func (it *Iterator) Language() *grammar.Grammar {
	return it.grammar
}

func (it *Iterator) State() grammar.StateID {
	return it.state
}

func (it *Iterator) onSymbol() bool {
	return !it.closed && it.pos >= 0 && it.pos < it.grammar.SuccessorCount(it.state)
}

// Symbol returns the current symbol, grammar.ErrorSymbol when not on one
func (it *Iterator) Symbol() grammar.Symbol {
	if !it.onSymbol() {
		return grammar.ErrorSymbol
	}
	s, _ := it.grammar.Successor(it.state, it.pos)
	return s
}

func (it *Iterator) SymbolName() string {
	return it.grammar.SymbolName(it.Symbol())
}

// Next advances to the next symbol. It returns false once the set is exhausted,
// and keeps returning false until the iterator is reset.
func (it *Iterator) Next() bool {
	if it.closed {
		return false
	}
	if n := it.grammar.SuccessorCount(it.state); it.pos < n {
		it.pos++
	}
	return it.onSymbol()
}

// Reset rewinds the iterator onto state of the same grammar. An invalid state
// leaves the iterator unchanged and returns false.
func (it *Iterator) Reset(state grammar.StateID) bool {
	return it.ResetWithLanguage(it.grammar, state)
}

// ResetWithLanguage rebinds the iterator to another grammar and state. An
// invalid pair leaves the iterator unchanged and returns false.
func (it *Iterator) ResetWithLanguage(g *grammar.Grammar, state grammar.StateID) bool {
	if it.closed || g == nil || !g.ValidState(state) {
		return false
	}
	it.grammar = g
	it.state = state
	it.pos = -1
	return true
}

// Close releases the iterator. Later calls report no symbols and fail to reset.
func (it *Iterator) Close() {
	it.closed = true
}

func (it *Iterator) rewind() {
	if !it.closed {
		it.pos = -1
	}
}

// Symbols rewinds the iterator and yields every symbol of the lookahead set
func (it *Iterator) Symbols() iter.Seq[grammar.Symbol] {
	return func(yield func(grammar.Symbol) bool) {
		it.rewind()
		for it.Next() {
			if !yield(it.Symbol()) {
				return
			}
		}
	}
}

// SymbolNames rewinds the iterator and yields the name of every symbol of the lookahead set
func (it *Iterator) SymbolNames() iter.Seq[string] {
	return func(yield func(string) bool) {
		it.rewind()
		for it.Next() {
			if !yield(it.SymbolName()) {
				return
			}
		}
	}
}

// All rewinds the iterator and yields every symbol with its name
func (it *Iterator) All() iter.Seq2[grammar.Symbol, string] {
	return func(yield func(grammar.Symbol, string) bool) {
		it.rewind()
		for it.Next() {
			if !yield(it.Symbol(), it.SymbolName()) {
				return
			}
		}
	}
}
