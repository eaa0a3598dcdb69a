package grammar_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/grammar/grammartest"
	"github.com/walteh/syntaxwalk/pkg/targz"
)

const tinyJSON = `{
	"name": "tiny",
	"symbols": [{"name": "word", "named": true, "terminal": true}],
	"states": [{"transitions": [{"symbol": "word", "next": 0}]}]
}`

func TestStore(t *testing.T) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	t.Run("test_register_and_get", func(t *testing.T) {
		store := grammar.NewStore(ctx)
		store.Register(grammartest.Arith())

		g, err := store.Get("arith")
		require.NoError(t, err)
		assert.Same(t, grammartest.Arith(), g)

		_, err = store.Get("nonexistent")
		require.Error(t, err)
		assert.ErrorIs(t, err, grammar.ErrGrammarNotFound)
	})

	t.Run("test_load_dir", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/grammars/arith.grammar.yaml", []byte(grammartest.YAML), 0644))
		require.NoError(t, afero.WriteFile(fs, "/grammars/nested/tiny.grammar.json", []byte(tinyJSON), 0644))
		require.NoError(t, afero.WriteFile(fs, "/grammars/readme.md", []byte("# not a grammar"), 0644))

		store := grammar.NewStore(ctx)
		loaded, err := store.LoadDir(ctx, fs, "/grammars", "")
		require.NoError(t, err)
		assert.Len(t, loaded, 2)
		assert.Equal(t, []string{"arith", "tiny"}, store.Names())
	})

	t.Run("test_load_dir_keeps_good_files", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/g/tiny.grammar.json", []byte(tinyJSON), 0644))
		require.NoError(t, afero.WriteFile(fs, "/g/bad.grammar.json", []byte(`{"name": "bad", "states": [{"transitions": [{"symbol": "nope", "next": 0}]}]}`), 0644))

		store := grammar.NewStore(ctx)
		loaded, err := store.LoadDir(ctx, fs, "/g", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad.grammar.json")
		assert.Len(t, loaded, 1)
		assert.Equal(t, []string{"tiny"}, store.Names())
	})

	t.Run("test_load_file_missing", func(t *testing.T) {
		store := grammar.NewStore(ctx)
		_, err := store.LoadFile(ctx, afero.NewMemMapFs(), "/missing.grammar.json")
		require.Error(t, err)
	})

	t.Run("test_load_bundle", func(t *testing.T) {
		arithJSON, err := json.Marshal(grammartest.Arith().Definition())
		require.NoError(t, err)

		data, err := targz.Create(map[string][]byte{
			"grammars/arith.grammar.json": arithJSON,
			"grammars/tiny.grammar.yaml":  []byte("name: tiny\nsymbols: []\nstates: []\n"),
			"LICENSE":                     []byte("MIT"),
		})
		require.NoError(t, err)

		store := grammar.NewStore(ctx)
		loaded, err := store.LoadBundle(ctx, data)
		require.NoError(t, err)
		assert.Len(t, loaded, 2)

		g, err := store.Get("arith")
		require.NoError(t, err)
		assert.Equal(t, grammartest.Arith().Definition(), g.Definition())
	})
}
