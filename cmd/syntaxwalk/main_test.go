package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	node_at "github.com/walteh/syntaxwalk/cmd/syntaxwalk/node-at"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/tokens"
	"github.com/walteh/syntaxwalk/pkg/completion"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/grammar/grammartest"
	"github.com/walteh/syntaxwalk/pkg/hover"
	"github.com/walteh/syntaxwalk/pkg/lookahead"
	"github.com/walteh/syntaxwalk/pkg/syntax"
	"github.com/walteh/syntaxwalk/pkg/targz"
	"github.com/walteh/syntaxwalk/pkg/treeio"
)

const wordsHCL = `
name = "words"

symbol "word" {
  named    = true
  terminal = true
}

state {
  transition "word" {
    next = 0
  }
  transition "end" {
    anonymous = true
    next      = 0
  }
}
`

func setupFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/grammars/arith.grammar.yaml", []byte(grammartest.YAML), 0644))
	require.NoError(t, afero.WriteFile(fs, "/work/grammars/words.grammar.hcl", []byte(wordsHCL), 0644))

	for name, tree := range map[string]*syntax.Tree{
		"/work/sum.tree.yaml": grammartest.SumTree(),
		"/work/let.tree.json": grammartest.IncompleteLetTree(),
	} {
		doc, err := treeio.Encode(tree)
		require.NoError(t, err)
		data, err := grammar.Marshal(doc, grammar.FormatForPath(name))
		require.NoError(t, err)
		require.NoError(t, afero.WriteFile(fs, name, data, 0644))
	}
	return fs
}

func execute(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(fs, io.Discard)
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{"--grammar-dir", "/work"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestWalk(t *testing.T) {
	fs := setupFs(t)

	out, err := execute(t, fs, "walk", "--named-only", "/work/let.tree.json")
	require.NoError(t, err)
	assert.Equal(t, "program [0:0 - 0:9]\n"+
		"  assignment [0:0 - 0:9]\n"+
		"    name: identifier [0:4 - 0:5] \"x\"\n"+
		"    ERROR [0:8 - 0:9]\n"+
		"    value: MISSING identifier [0:9 - 0:9]\n", out)

	out, err = execute(t, fs, "walk", "/work/let.tree.json")
	require.NoError(t, err)
	assert.Contains(t, out, "    \"let\" [0:0 - 0:3] \"let\"\n")
	assert.Contains(t, out, "      \")\" [0:8 - 0:9] \")\"\n")
}

func TestNodeAt(t *testing.T) {
	fs := setupFs(t)

	for _, loc := range []string{"10", "1:1"} {
		t.Run("test_"+loc, func(t *testing.T) {
			out, err := execute(t, fs, "node-at", "/work/sum.tree.yaml", loc)
			require.NoError(t, err)

			var res node_at.Result
			require.NoError(t, json.Unmarshal([]byte(out), &res))
			assert.Equal(t, "number", res.Kind)
			assert.Equal(t, "right", res.Field)
			assert.Equal(t, "2", res.Content)
			assert.Equal(t, uint32(4), res.Depth)
			assert.Equal(t, uint32(9), res.DescendantIndex)
			assert.Equal(t, []string{"program", "binary_expression", "parenthesized_expression", "binary_expression", "number"}, res.Path)
		})
	}

	_, err := execute(t, fs, "node-at", "/work/sum.tree.yaml", "7:0")
	require.Error(t, err)
}

func TestLookahead(t *testing.T) {
	fs := setupFs(t)

	out, err := execute(t, fs, "lookahead", "arith", "7")
	require.NoError(t, err)
	assert.Equal(t, "1\tidentifier\n2\tnumber\n3\t+\n", out)

	out, err = execute(t, fs, "lookahead", "words", "0")
	require.NoError(t, err)
	assert.Equal(t, "0\tend\n1\tword\n", out)

	_, err = execute(t, fs, "lookahead", "arith", "99")
	require.Error(t, err)
	assert.ErrorIs(t, err, lookahead.ErrInvalidState)

	_, err = execute(t, fs, "lookahead", "python", "0")
	require.Error(t, err)
	assert.ErrorIs(t, err, grammar.ErrGrammarNotFound)
}

func TestDiagnose(t *testing.T) {
	fs := setupFs(t)

	out, err := execute(t, fs, "diagnose", "/work/let.tree.json")
	require.NoError(t, err)
	assert.Equal(t,
		"/work/let.tree.json:1:9: error: unexpected \")\", expected identifier, number or \"+\"\n"+
			"/work/let.tree.json:1:10: error: missing identifier\n",
		out)

	out, err = execute(t, fs, "diagnose", "--format", "vscode", "/work/let.tree.json")
	require.NoError(t, err)
	var vscode []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &vscode))
	assert.Len(t, vscode, 2)

	out, err = execute(t, fs, "diagnose", "--format", "json", "/work/sum.tree.yaml")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	_, err = execute(t, fs, "diagnose", "--format", "xml", "/work/sum.tree.yaml")
	require.Error(t, err)
}

func TestComplete(t *testing.T) {
	fs := setupFs(t)

	out, err := execute(t, fs, "complete", "/work/let.tree.json", "7")
	require.NoError(t, err)

	var items []completion.Item
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 3)
	assert.Equal(t, "identifier", items[0].Label)
	assert.Equal(t, "+", items[2].Label)
	assert.Equal(t, "operator", items[2].Kind)
}

func TestHover(t *testing.T) {
	fs := setupFs(t)

	out, err := execute(t, fs, "hover", "/work/sum.tree.yaml", "1:1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "### Node\n\n`number` as `right`\n"))
	assert.True(t, strings.HasSuffix(out, "or end of input\n"))

	out, err = execute(t, fs, "hover", "--lsp", "/work/sum.tree.yaml", "4")
	require.NoError(t, err)
	var lsp hover.LSPHover
	require.NoError(t, json.Unmarshal([]byte(out), &lsp))
	assert.Equal(t, "markdown", lsp.Contents.Kind)
	assert.Contains(t, lsp.Contents.Value, "`\"(\"`")
	require.NotNil(t, lsp.Range)
	assert.Equal(t, uint32(4), lsp.Range.Start.Character)
}

func TestTokens(t *testing.T) {
	fs := setupFs(t)

	out, err := execute(t, fs, "tokens", "/work/let.tree.json")
	require.NoError(t, err)
	assert.Equal(t, "0:0\tkeyword\t\"let\"\n"+
		"0:4\tvariable.declaration\t\"x\"\n"+
		"0:6\toperator\t\"=\"\n"+
		"0:8\toperator\t\")\"\n", out)

	out, err = execute(t, fs, "tokens", "--encoded", "/work/let.tree.json")
	require.NoError(t, err)
	var enc tokens.Encoded
	require.NoError(t, json.Unmarshal([]byte(out), &enc))
	assert.Equal(t, []uint32{0, 0, 3, 1, 0, 0, 4, 1, 0, 1, 0, 2, 1, 2, 0, 0, 2, 1, 2, 0}, enc.Data)
	assert.Equal(t, "keyword", enc.TokenTypes[1])
}

func TestQuery(t *testing.T) {
	fs := setupFs(t)
	require.NoError(t, afero.WriteFile(fs, "/work/ids.scm", []byte(`((identifier) @id (#not-eq? @id "a"))`), 0644))

	out, err := execute(t, fs, "query", "/work/sum.tree.yaml", "/work/ids.scm")
	require.NoError(t, err)
	assert.Equal(t, "0\tid\t0:5\t\"b\"\n", out)

	out, err = execute(t, fs, "query", "-e", `(binary_expression operator: _ @op)`, "/work/sum.tree.yaml")
	require.NoError(t, err)
	assert.Equal(t, "0\top\t0:2\t\"+\"\n"+
		"0\top\t0:7\t\"*\"\n", out)

	_, err = execute(t, fs, "query", "-e", `(statement)`, "/work/sum.tree.yaml")
	require.Error(t, err)

	_, err = execute(t, fs, "query", "/work/sum.tree.yaml")
	require.Error(t, err)
}

func TestExtractBundles(t *testing.T) {
	fs := setupFs(t)

	bundle, err := targz.Create(map[string][]byte{
		"nested/tiny.grammar.json": []byte(`{"name": "tiny", "symbols": [{"name": "word", "named": true, "terminal": true}], "states": [{"transitions": [{"symbol": "word", "next": 0}]}]}`),
		"README.md":                []byte("# grammars"),
	})
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/bundles/tiny.tar.gz", bundle, 0644))

	out, err := execute(t, fs, "--grammar-bundle", "/bundles/tiny.tar.gz", "--extract-bundles", "lookahead", "tiny", "0")
	require.NoError(t, err)
	assert.Equal(t, "1\tword\n", out)

	ok, err := afero.Exists(fs, "/work/nested/tiny.grammar.json")
	require.NoError(t, err)
	assert.True(t, ok, "grammar file unpacked into the grammar dir")

	ok, err = afero.Exists(fs, "/work/README.md")
	require.NoError(t, err)
	assert.False(t, ok, "non grammar entries are skipped")

	_, err = execute(t, fs, "--grammar-bundle", "/bundles/missing.tar.gz", "--extract-bundles", "lookahead", "tiny", "0")
	require.Error(t, err)
}

func TestMissingTree(t *testing.T) {
	_, err := execute(t, setupFs(t), "walk", "/work/nope.tree.yaml")
	require.Error(t, err)
}
