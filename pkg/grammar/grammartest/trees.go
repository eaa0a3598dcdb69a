package grammartest

import (
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/syntax"
)

// SumSource parses to SumTree
const SumSource = "a + (b *\n 2)"

// SumTree returns a fresh tree for SumSource:
//
//	0  program                     [0, 12)
//	1    binary_expression         [0, 12)
//	2      left: identifier        [0, 1)
//	3      operator: "+"           [2, 3)
//	4      right: parenthesized    [4, 12)
//	5        "("                   [4, 5)
//	6        binary_expression     [5, 11)
//	7          left: identifier    [5, 6)
//	8          operator: "*"       [7, 8)
//	9          right: number       [10, 11)
//	10       ")"                   [11, 12)
func SumTree() *syntax.Tree {
	b := syntax.NewBuilder(Arith(), []byte(SumSource))
	b.Open(Program, grammar.NoField)
	b.Open(BinaryExpression, grammar.NoField)
	b.Leaf(Identifier, Left, 0, 1)
	b.Leaf(Plus, Operator, 2, 3)
	b.SetState(1)
	b.Open(ParenthesizedExpression, Right)
	b.SetState(4)
	b.Leaf(LParen, grammar.NoField, 4, 5)
	b.SetState(4)
	b.Open(BinaryExpression, grammar.NoField)
	b.SetState(2)
	b.Leaf(Identifier, Left, 5, 6)
	b.SetState(2)
	b.Leaf(Star, Operator, 7, 8)
	b.SetState(1)
	b.Leaf(Number, Right, 10, 11)
	b.SetState(4)
	b.Close()
	b.Leaf(RParen, grammar.NoField, 11, 12)
	b.SetState(1)
	b.Close()
	b.Close()
	b.Close()
	return mustBuild(b)
}

// IncompleteLetSource parses to IncompleteLetTree
const IncompleteLetSource = "let x = )"

// IncompleteLetTree returns a fresh tree for IncompleteLetSource, where the
// parser skipped the ")" and inserted the missing value:
//
//	0  program                       [0, 9)
//	1    assignment                  [0, 9)
//	2      "let"                     [0, 3)  state 0
//	3      name: identifier          [4, 5)  state 3
//	4      "="                       [6, 7)  state 6
//	5      ERROR                     [8, 9)
//	6        ")"                     [8, 9)
//	7      value: MISSING identifier [9, 9)  state 7
func IncompleteLetTree() *syntax.Tree {
	b := syntax.NewBuilder(Arith(), []byte(IncompleteLetSource))
	b.Open(Program, grammar.NoField)
	b.Open(Assignment, grammar.NoField)
	b.Leaf(Let, grammar.NoField, 0, 3)
	b.Leaf(Identifier, Name, 4, 5)
	b.SetState(3)
	b.Leaf(Equals, grammar.NoField, 6, 7)
	b.SetState(6)
	b.Error()
	b.Leaf(RParen, grammar.NoField, 8, 9)
	b.Close()
	b.Missing(Identifier, Value)
	b.SetState(AfterEquals)
	b.Close()
	b.Close()
	return mustBuild(b)
}

func mustBuild(b *syntax.Builder) *syntax.Tree {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
