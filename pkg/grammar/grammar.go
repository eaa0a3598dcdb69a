/*
Package grammar holds compiled language definitions: a symbol table, a field
table and the parse-state graph of the language.

	          Grammar
	             |
	  +----------+-----------+
	  |          |           |
	symbols    fields      states
	(id->name) (id->name)  (id -> sorted transitions)
	                             |
	                     {symbol, next state}

A Grammar is immutable once built, so it can be shared between goroutines,
trees and lookahead iterators without locking. Grammars are produced by a
Builder, decoded from a Definition document, or loaded through a Store.
*/
package grammar

import (
	"math"
	"sort"
)

// Symbol identifies a terminal or nonterminal of a grammar
type Symbol uint16

// FieldID identifies the name under which a child is attached to its parent.
// Zero means the child has no field.
type FieldID uint16

// StateID identifies a parse state
type StateID uint16

const (
	// EndSymbol is the builtin terminal marking the end of input
	EndSymbol Symbol = 0

	// ErrorSymbol is reported for error nodes and by lookahead iterators that
	// are not positioned on a symbol. It is never part of a symbol table.
	ErrorSymbol Symbol = math.MaxUint16

	NoField FieldID = 0

	EndSymbolName   = "end"
	ErrorSymbolName = "ERROR"
)

// SymbolInfo describes one entry of the symbol table
type SymbolInfo struct {
	Name     string
	Named    bool
	Visible  bool
	Terminal bool
}

// Transition is an edge of the parse-state graph
type Transition struct {
	Symbol Symbol
	Next   StateID
}

// Grammar is an immutable compiled language definition
type Grammar struct {
	name        string
	symbols     []SymbolInfo
	fields      []string
	states      [][]Transition
	symbolIndex map[symbolKey]Symbol
	fieldIndex  map[string]FieldID
}

type symbolKey struct {
	name  string
	named bool
}

// Name returns the language name
func (g *Grammar) Name() string {
	return g.name
}

func (g *Grammar) SymbolCount() int {
	return len(g.symbols)
}

// FieldCount returns the number of fields, not counting NoField
func (g *Grammar) FieldCount() int {
	return len(g.fields) - 1
}

func (g *Grammar) StateCount() int {
	return len(g.states)
}

// SymbolInfo returns the table entry of a symbol.
// ErrorSymbol is described even though it is not stored.
func (g *Grammar) SymbolInfo(s Symbol) (SymbolInfo, bool) {
	if s == ErrorSymbol {
		return SymbolInfo{Name: ErrorSymbolName, Named: true, Visible: true}, true
	}
	if int(s) >= len(g.symbols) {
		return SymbolInfo{}, false
	}
	return g.symbols[s], true
}

// SymbolName returns the name of a symbol, or an empty string for unknown ids
func (g *Grammar) SymbolName(s Symbol) string {
	info, _ := g.SymbolInfo(s)
	return info.Name
}

// SymbolForName looks a symbol up by name. Named and anonymous symbols live in
// separate namespaces, so "if" the keyword and "if" a rule may coexist.
func (g *Grammar) SymbolForName(name string, named bool) (Symbol, bool) {
	if named && name == ErrorSymbolName {
		return ErrorSymbol, true
	}
	s, ok := g.symbolIndex[symbolKey{name, named}]
	return s, ok
}

// FieldName returns the name of a field id, false for NoField and unknown ids
func (g *Grammar) FieldName(f FieldID) (string, bool) {
	if f == NoField || int(f) >= len(g.fields) {
		return "", false
	}
	return g.fields[f], true
}

func (g *Grammar) FieldIDForName(name string) (FieldID, bool) {
	f, ok := g.fieldIndex[name]
	return f, ok
}

// ValidState reports whether state exists in the parse-state graph
func (g *Grammar) ValidState(state StateID) bool {
	return int(state) < len(g.states)
}

// SuccessorCount returns the size of the lookahead set of state, 0 for unknown states
func (g *Grammar) SuccessorCount(state StateID) int {
	if !g.ValidState(state) {
		return 0
	}
	return len(g.states[state])
}

// Successor returns the i-th symbol of the lookahead set of state, in
// ascending symbol order
func (g *Grammar) Successor(state StateID, i int) (Symbol, bool) {
	if !g.ValidState(state) || i < 0 || i >= len(g.states[state]) {
		return ErrorSymbol, false
	}
	return g.states[state][i].Symbol, true
}

// NextState returns the state reached from state on symbol
func (g *Grammar) NextState(state StateID, symbol Symbol) (StateID, bool) {
	if !g.ValidState(state) {
		return 0, false
	}
	ts := g.states[state]
	i := sort.Search(len(ts), func(i int) bool {
		return ts[i].Symbol >= symbol
	})
	if i == len(ts) || ts[i].Symbol != symbol {
		return 0, false
	}
	return ts[i].Next, true
}

func (g *Grammar) String() string {
	return g.name
}
