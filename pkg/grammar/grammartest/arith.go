// Package grammartest provides a small arithmetic grammar and tree fixtures for tests.
package grammartest

import (
	"sync"

	"github.com/walteh/syntaxwalk/pkg/grammar"
)

// Symbols of the arithmetic grammar, in table order
const (
	Identifier grammar.Symbol = iota + 1
	Number
	Plus
	Star
	LParen
	RParen
	Let
	Equals
	Program
	BinaryExpression
	ParenthesizedExpression
	Assignment
	Expression
)

// Fields of the arithmetic grammar
const (
	Left grammar.FieldID = iota + 1
	Operator
	Right
	Name
	Value
)

// AfterEquals is the state reached after "let x =". Its lookahead set is
// {identifier, number, "+"}.
const AfterEquals grammar.StateID = 7

// YAML is the arithmetic grammar as a definition document
const YAML = `name: arith
symbols:
  - {name: identifier, named: true, terminal: true}
  - {name: number, named: true, terminal: true}
  - {name: "+", terminal: true}
  - {name: "*", terminal: true}
  - {name: "(", terminal: true}
  - {name: ")", terminal: true}
  - {name: let, terminal: true}
  - {name: "=", terminal: true}
  - {name: program, named: true}
  - {name: binary_expression, named: true}
  - {name: parenthesized_expression, named: true}
  - {name: assignment, named: true}
  - {name: _expression, named: true, hidden: true}
fields: [left, operator, right, name, value]
states:
  - transitions:
      - {symbol: identifier, next: 1}
      - {symbol: number, next: 1}
      - {symbol: "(", anonymous: true, next: 2}
      - {symbol: let, anonymous: true, next: 3}
  - transitions:
      - {symbol: "+", anonymous: true, next: 4}
      - {symbol: "*", anonymous: true, next: 4}
      - {symbol: ")", anonymous: true, next: 5}
      - {symbol: end, anonymous: true, next: 8}
  - transitions:
      - {symbol: identifier, next: 1}
      - {symbol: number, next: 1}
      - {symbol: "(", anonymous: true, next: 2}
  - transitions:
      - {symbol: identifier, next: 6}
  - transitions:
      - {symbol: number, next: 1}
      - {symbol: identifier, next: 1}
      - {symbol: "(", anonymous: true, next: 2}
  - transitions:
      - {symbol: "+", anonymous: true, next: 4}
      - {symbol: "*", anonymous: true, next: 4}
      - {symbol: end, anonymous: true, next: 8}
  - transitions:
      - {symbol: "=", anonymous: true, next: 7}
  - transitions:
      - {symbol: "+", anonymous: true, next: 7}
      - {symbol: identifier, next: 1}
      - {symbol: number, next: 1}
  - transitions: []
`

var (
	once  sync.Once
	arith *grammar.Grammar
)

// Arith returns the shared arithmetic grammar
func Arith() *grammar.Grammar {
	once.Do(func() {
		g, err := grammar.ParseDefinition([]byte(YAML), grammar.FormatYAML)
		if err != nil {
			panic(err)
		}
		arith = g
	})
	return arith
}
