package diagnostic_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/syntaxwalk/pkg/diagnostic"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/grammar/grammartest"
	"github.com/walteh/syntaxwalk/pkg/position"
	"github.com/walteh/syntaxwalk/pkg/syntax"
)

func build(t *testing.T, source string, fn func(b *syntax.Builder)) *syntax.Tree {
	t.Helper()
	b := syntax.NewBuilder(grammartest.Arith(), []byte(source))
	fn(b)
	tree, err := b.Build()
	require.NoError(t, err)
	return tree
}

func TestGetDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		tree func(t *testing.T) *syntax.Tree
		want []*diagnostic.Diagnostic
	}{
		{
			name: "test_clean_tree",
			tree: func(t *testing.T) *syntax.Tree { return grammartest.SumTree() },
			want: nil,
		},
		{
			name: "test_incomplete_let",
			tree: func(t *testing.T) *syntax.Tree { return grammartest.IncompleteLetTree() },
			want: []*diagnostic.Diagnostic{
				{
					Message: `unexpected ")", expected identifier, number or "+"`,
					Location: diagnostic.Location{
						Range: position.Range{StartByte: 8, EndByte: 9, StartPoint: position.Point{Column: 8}, EndPoint: position.Point{Column: 9}},
						Line:  1, Column: 9, EndLine: 1, EndColumn: 10,
					},
					Severity: diagnostic.SeverityError,
					Expected: []string{"identifier", "number", `"+"`},
				},
				{
					Message: "missing identifier",
					Location: diagnostic.Location{
						Range: position.Range{StartByte: 9, EndByte: 9, StartPoint: position.Point{Column: 9}, EndPoint: position.Point{Column: 9}},
						Line:  1, Column: 10, EndLine: 1, EndColumn: 10,
					},
					Severity: diagnostic.SeverityError,
					Expected: []string{"identifier", "number", `"+"`},
				},
			},
		},
		{
			name: "test_error_at_start_uses_initial_state",
			tree: func(t *testing.T) *syntax.Tree {
				return build(t, "* a", func(b *syntax.Builder) {
					b.Open(grammartest.Program, grammar.NoField)
					b.ErrorLeaf(0, 1)
					b.Leaf(grammartest.Identifier, grammar.NoField, 2, 3)
					b.Close()
				})
			},
			want: []*diagnostic.Diagnostic{
				{
					Message: `unexpected "*", expected identifier, number, "(" or "let"`,
					Location: diagnostic.Location{
						Range: position.Range{StartByte: 0, EndByte: 1, EndPoint: position.Point{Column: 1}},
						Line:  1, Column: 1, EndLine: 1, EndColumn: 2,
					},
					Severity: diagnostic.SeverityError,
					Expected: []string{"identifier", "number", `"("`, `"let"`},
				},
			},
		},
		{
			name: "test_error_prefers_first_leaf_state",
			tree: func(t *testing.T) *syntax.Tree {
				return build(t, "a (", func(b *syntax.Builder) {
					b.Open(grammartest.Program, grammar.NoField)
					b.Leaf(grammartest.Identifier, grammar.NoField, 0, 1)
					b.Error()
					b.Leaf(grammartest.LParen, grammar.NoField, 2, 3)
					b.SetState(4)
					b.Close()
					b.Close()
				})
			},
			want: []*diagnostic.Diagnostic{
				{
					Message: `unexpected "(", expected identifier, number or "("`,
					Location: diagnostic.Location{
						Range: position.Range{StartByte: 2, EndByte: 3, StartPoint: position.Point{Column: 2}, EndPoint: position.Point{Column: 3}},
						Line:  1, Column: 3, EndLine: 1, EndColumn: 4,
					},
					Severity: diagnostic.SeverityError,
					Expected: []string{"identifier", "number", `"("`},
				},
			},
		},
		{
			name: "test_long_text_cut_on_grapheme",
			tree: func(t *testing.T) *syntax.Tree {
				src := strings.Repeat("a", 23) + "€€€"
				return build(t, src, func(b *syntax.Builder) {
					b.Open(grammartest.Program, grammar.NoField)
					b.ErrorLeaf(0, uint32(len(src)))
					b.Close()
				})
			},
			want: []*diagnostic.Diagnostic{
				{
					Message: `unexpected "` + strings.Repeat("a", 23) + `...", expected identifier, number, "(" or "let"`,
					Location: diagnostic.Location{
						Range: position.Range{StartByte: 0, EndByte: 32, EndPoint: position.Point{Column: 32}},
						Line:  1, Column: 1, EndLine: 1, EndColumn: 27,
					},
					Severity: diagnostic.SeverityError,
					Expected: []string{"identifier", "number", `"("`, `"let"`},
				},
			},
		},
		{
			name: "test_grapheme_columns",
			tree: func(t *testing.T) *syntax.Tree {
				return build(t, "let x =\n  🙂)", func(b *syntax.Builder) {
					b.Open(grammartest.Program, grammar.NoField)
					b.Open(grammartest.Assignment, grammar.NoField)
					b.Leaf(grammartest.Let, grammar.NoField, 0, 3)
					b.Leaf(grammartest.Identifier, grammartest.Name, 4, 5)
					b.SetState(3)
					b.Leaf(grammartest.Equals, grammar.NoField, 6, 7)
					b.SetState(6)
					b.ErrorLeaf(10, 15)
					b.Close()
					b.Close()
				})
			},
			want: []*diagnostic.Diagnostic{
				{
					Message: `unexpected "🙂)", expected identifier, number or "+"`,
					Location: diagnostic.Location{
						Range: position.Range{
							StartByte: 10, EndByte: 15,
							StartPoint: position.Point{Row: 1, Column: 2},
							EndPoint:   position.Point{Row: 1, Column: 7},
						},
						Line: 2, Column: 3, EndLine: 2, EndColumn: 5,
					},
					Severity: diagnostic.SeverityError,
					Expected: []string{"identifier", "number", `"+"`},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := diagnostic.GetDiagnostics(context.Background(), tt.tree(t))
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			require.Equal(t, len(tt.want), len(got), "diagnostics count mismatch")
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("test_closed_tree", func(t *testing.T) {
		tree := grammartest.SumTree()
		tree.Close()
		_, err := diagnostic.GetDiagnostics(context.Background(), tree)
		require.Error(t, err)
	})
}

func TestFormatters(t *testing.T) {
	diags, err := diagnostic.GetDiagnostics(context.Background(), grammartest.IncompleteLetTree())
	require.NoError(t, err)

	t.Run("test_text", func(t *testing.T) {
		out, err := (&diagnostic.TextFormatter{Filename: "let.tree.yaml"}).Format(diags)
		require.NoError(t, err)
		assert.Equal(t,
			"let.tree.yaml:1:9: error: unexpected \")\", expected identifier, number or \"+\"\n"+
				"let.tree.yaml:1:10: error: missing identifier\n",
			string(out))
	})

	t.Run("test_vscode", func(t *testing.T) {
		out, err := diagnostic.NewVSCodeFormatter().Format(diags)
		require.NoError(t, err)

		var got []map[string]any
		require.NoError(t, json.Unmarshal(out, &got))
		require.Len(t, got, 2)
		assert.Equal(t, float64(1), got[0]["severity"])
		assert.Equal(t, map[string]any{
			"start": map[string]any{"line": float64(0), "character": float64(8)},
			"end":   map[string]any{"line": float64(0), "character": float64(9)},
		}, got[0]["range"])
	})

	t.Run("test_vscode_empty", func(t *testing.T) {
		out, err := diagnostic.NewVSCodeFormatter().Format(nil)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(out))
	})
}
