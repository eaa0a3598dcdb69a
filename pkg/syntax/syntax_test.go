package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/grammar/grammartest"
	"github.com/walteh/syntaxwalk/pkg/position"
	"github.com/walteh/syntaxwalk/pkg/syntax"
)

func TestTree(t *testing.T) {
	tree := grammartest.SumTree()

	t.Run("test_shape", func(t *testing.T) {
		assert.Equal(t, 11, tree.NodeCount())
		root := tree.RootNode()
		require.True(t, root.IsValid())
		assert.Equal(t, "program", root.Kind())
		assert.Equal(t, 11, root.DescendantCount())
		assert.Equal(t, grammartest.SumSource, root.Content())
		assert.Equal(t,
			"(program (binary_expression left: (identifier) right: (parenthesized_expression (binary_expression left: (identifier) right: (number)))))",
			root.String())
	})

	t.Run("test_ranges", func(t *testing.T) {
		num, ok := tree.NodeAt(9)
		require.True(t, ok)
		assert.Equal(t, "number", num.Kind())
		assert.Equal(t, "2", num.Content())
		assert.Equal(t, position.Range{
			StartByte:  10,
			EndByte:    11,
			StartPoint: position.Point{Row: 1, Column: 1},
			EndPoint:   position.Point{Row: 1, Column: 2},
		}, num.Range())

		inner, _ := tree.NodeAt(6)
		assert.Equal(t, uint32(5), inner.StartByte())
		assert.Equal(t, uint32(11), inner.EndByte())
		assert.Equal(t, "b *\n 2", inner.Content())
	})

	t.Run("test_navigation", func(t *testing.T) {
		root := tree.RootNode()
		sum, ok := root.FirstChild()
		require.True(t, ok)
		assert.Equal(t, 3, sum.ChildCount())

		tests := []struct {
			name string
			got  func() (syntax.Node, bool)
			want int
		}{
			{"test_child_1", func() (syntax.Node, bool) { return sum.Child(1) }, 3},
			{"test_child_2", func() (syntax.Node, bool) { return sum.Child(2) }, 4},
			{"test_child_out_of_range", func() (syntax.Node, bool) { return sum.Child(3) }, -1},
			{"test_last_child", func() (syntax.Node, bool) { return sum.LastChild() }, 4},
			{"test_next_sibling_skips_subtree", func() (syntax.Node, bool) { n, _ := tree.NodeAt(5); return n.NextSibling() }, 6},
			{"test_next_sibling_of_last", func() (syntax.Node, bool) { n, _ := tree.NodeAt(10); return n.NextSibling() }, -1},
			{"test_prev_sibling", func() (syntax.Node, bool) { n, _ := tree.NodeAt(10); return n.PrevSibling() }, 6},
			{"test_prev_sibling_of_first", func() (syntax.Node, bool) { n, _ := tree.NodeAt(7); return n.PrevSibling() }, -1},
			{"test_parent", func() (syntax.Node, bool) { n, _ := tree.NodeAt(8); return n.Parent() }, 6},
			{"test_root_parent", func() (syntax.Node, bool) { return root.Parent() }, -1},
			{"test_root_next_sibling", func() (syntax.Node, bool) { return root.NextSibling() }, -1},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				n, ok := tt.got()
				if tt.want < 0 {
					assert.False(t, ok)
					assert.False(t, n.IsValid())
					return
				}
				require.True(t, ok)
				assert.Equal(t, uint32(tt.want), n.Index())
			})
		}
	})

	t.Run("test_fields", func(t *testing.T) {
		op, _ := tree.NodeAt(8)
		assert.Equal(t, grammartest.Operator, op.FieldID())
		name, ok := op.FieldName()
		require.True(t, ok)
		assert.Equal(t, "operator", name)
		assert.False(t, op.IsNamed())

		lparen, _ := tree.NodeAt(5)
		_, ok = lparen.FieldName()
		assert.False(t, ok)
		assert.Equal(t, 0, lparen.ChildIndex())
		assert.Equal(t, 2, op.ChildIndex())
		assert.Equal(t, -1, tree.RootNode().ChildIndex())
	})

	t.Run("test_parse_states", func(t *testing.T) {
		star, _ := tree.NodeAt(8)
		assert.Equal(t, grammar.StateID(1), star.ParseState())
		next, ok := star.NextParseState()
		require.True(t, ok)
		assert.Equal(t, grammar.StateID(4), next)
	})

	t.Run("test_equality", func(t *testing.T) {
		a, _ := tree.NodeAt(4)
		b, _ := tree.RootNode().FirstChild()
		c, _ := b.LastChild()
		assert.True(t, a == c)

		other := grammartest.SumTree()
		d, _ := other.NodeAt(4)
		assert.False(t, a == d)
		assert.NotEqual(t, tree.ID(), other.ID())
	})
}

func TestErrors(t *testing.T) {
	tree := grammartest.IncompleteLetTree()
	root := tree.RootNode()

	assert.True(t, root.HasError())
	assert.False(t, root.IsError())

	errNode, _ := tree.NodeAt(5)
	assert.True(t, errNode.IsError())
	assert.Equal(t, "ERROR", errNode.Kind())
	assert.Equal(t, grammar.ErrorSymbol, errNode.Symbol())
	_, ok := errNode.NextParseState()
	assert.False(t, ok)

	missing, _ := tree.NodeAt(7)
	assert.True(t, missing.IsMissing())
	assert.True(t, missing.HasError())
	assert.Equal(t, uint32(9), missing.StartByte())
	assert.Equal(t, uint32(9), missing.EndByte())

	let, _ := tree.NodeAt(2)
	assert.False(t, let.HasError())

	assert.Equal(t, `(program (assignment name: (identifier) (ERROR) value: (MISSING identifier)))`, root.String())
}

func TestClose(t *testing.T) {
	tree := grammartest.SumTree()
	n, ok := tree.NodeAt(3)
	require.True(t, ok)

	tree.Close()
	tree.Close()

	assert.True(t, tree.Closed())
	assert.False(t, n.IsValid())
	assert.Equal(t, "", n.Kind())
	assert.False(t, tree.RootNode().IsValid())
	_, ok = tree.NodeAt(0)
	assert.False(t, ok)
	_, ok = n.Parent()
	assert.False(t, ok)
}

func TestZeroNode(t *testing.T) {
	var n syntax.Node
	assert.False(t, n.IsValid())
	assert.Nil(t, n.Tree())
	assert.Equal(t, 0, n.ChildCount())
	assert.Equal(t, grammar.ErrorSymbol, n.Symbol())
	assert.Equal(t, "(invalid)", n.String())
	_, ok := n.FirstChild()
	assert.False(t, ok)
}

func TestBuilder(t *testing.T) {
	g := grammartest.Arith()

	t.Run("test_empty_nonterminal", func(t *testing.T) {
		b := syntax.NewBuilder(g, []byte("  "))
		b.Open(grammartest.Program, grammar.NoField)
		b.Close()
		tree, err := b.Build()
		require.NoError(t, err)
		root := tree.RootNode()
		assert.Equal(t, uint32(0), root.StartByte())
		assert.Equal(t, uint32(0), root.EndByte())
		assert.Equal(t, 0, root.ChildCount())
	})

	t.Run("test_nonterminal_starts_at_first_child", func(t *testing.T) {
		b := syntax.NewBuilder(g, []byte("  x  "))
		b.Open(grammartest.Program, grammar.NoField)
		b.Leaf(grammartest.Identifier, grammar.NoField, 2, 3)
		b.Close()
		tree, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, uint32(2), tree.RootNode().StartByte())
		assert.Equal(t, uint32(3), tree.RootNode().EndByte())
	})

	t.Run("test_source_is_copied", func(t *testing.T) {
		src := []byte("x")
		b := syntax.NewBuilder(g, src)
		b.Leaf(grammartest.Identifier, grammar.NoField, 0, 1)
		src[0] = 'y'
		tree, err := b.Build()
		require.NoError(t, err)
		assert.Equal(t, "x", tree.RootNode().Content())
	})

	t.Run("test_problems_reported", func(t *testing.T) {
		b := syntax.NewBuilder(g, []byte("abc"))
		b.Open(grammartest.Program, 99)
		b.Open(grammartest.Program, grammar.NoField)
		b.Leaf(grammartest.Identifier, grammar.NoField, 2, 3)
		b.Leaf(grammartest.Identifier, grammar.NoField, 1, 2)
		b.Leaf(grammartest.Identifier, grammar.NoField, 3, 9)
		b.Leaf(500, grammar.NoField, 3, 3)
		b.Leaf(grammar.ErrorSymbol, grammar.NoField, 3, 3)
		b.SetState(42)

		_, err := b.Build()
		require.Error(t, err)
		assert.ErrorIs(t, err, syntax.ErrBuild)
		for _, want := range []string{
			"unknown field 99",
			"overlaps the previous leaf",
			"extends past the end of the source",
			"unknown symbol 500",
			"ERROR nodes are added with Error or ErrorLeaf",
			"parse state 42 out of range",
			"1 nodes left open",
		} {
			assert.Contains(t, err.Error(), want)
		}
	})

	t.Run("test_second_root", func(t *testing.T) {
		b := syntax.NewBuilder(g, []byte("ab"))
		b.Leaf(grammartest.Identifier, grammar.NoField, 0, 1)
		b.Leaf(grammartest.Identifier, grammar.NoField, 1, 2)
		_, err := b.Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after the root was closed")
	})

	t.Run("test_no_nodes", func(t *testing.T) {
		_, err := syntax.NewBuilder(g, nil).Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tree has no nodes")
	})

	t.Run("test_unbalanced_close", func(t *testing.T) {
		b := syntax.NewBuilder(g, nil)
		b.Close()
		_, err := b.Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "close without an open node")
	})
}
