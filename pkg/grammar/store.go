package grammar

import (
	"archive/tar"
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/syntaxwalk/pkg/targz"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
)

var ErrGrammarNotFound = errors.Base("grammar not found")

// DefaultPattern matches the grammar files a Store loads from a directory
const DefaultPattern = "**/*.grammar.{json,yaml,yml,hcl}"

// Store manages a collection of compiled grammars by name
type Store struct {
	mu       sync.RWMutex
	grammars map[string]*Grammar
}

// NewStore creates an empty grammar store
func NewStore(ctx context.Context) *Store {
	zerolog.Ctx(ctx).Debug().Msg("creating new grammar store")

	return &Store{
		grammars: make(map[string]*Grammar),
	}
}

// Register adds g under its name, replacing any grammar of the same name
func (s *Store) Register(g *Grammar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grammars[g.Name()] = g
}

// Get retrieves a grammar by name
func (s *Store) Get(name string) (*Grammar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.grammars[name]
	if !ok {
		return nil, errors.Errorf("%w: %s", ErrGrammarNotFound, name)
	}
	return g, nil
}

// Names returns the registered grammar names in lexical order
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.grammars))
	for name := range s.grammars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFile compiles a single definition file and registers it
func (s *Store) LoadFile(ctx context.Context, fs afero.Fs, filename string) (*Grammar, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, errors.Errorf("reading grammar %s: %w", filename, err)
	}

	return s.load(ctx, filename, data)
}

// LoadDir loads every file below dir matching pattern (doublestar syntax,
// DefaultPattern when empty). Files that fail to compile do not stop the
// others from loading; their errors are combined.
func (s *Store) LoadDir(ctx context.Context, fs afero.Fs, dir, pattern string) ([]*Grammar, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}

	root := fs
	if dir != "" && dir != "." {
		root = afero.NewBasePathFs(fs, dir)
	}

	matches, err := doublestar.Glob(afero.NewIOFS(root), pattern)
	if err != nil {
		return nil, errors.Errorf("globbing %s in %s: %w", pattern, dir, err)
	}

	zerolog.Ctx(ctx).Debug().Str("dir", dir).Str("pattern", pattern).Int("matches", len(matches)).Msg("loading grammar directory")

	var loaded []*Grammar
	var errs error
	for _, m := range matches {
		g, err := s.LoadFile(ctx, fs, filepath.Join(dir, filepath.FromSlash(m)))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		loaded = append(loaded, g)
	}

	return loaded, errs
}

// IsDefinitionEntry reports whether an archive entry is a grammar file per DefaultPattern
func IsDefinitionEntry(header *tar.Header) bool {
	ok, _ := doublestar.Match(DefaultPattern, strings.TrimPrefix(header.Name, "./"))
	return ok
}

// LoadBundle loads every grammar file of a tar.gz bundle
func (s *Store) LoadBundle(ctx context.Context, data []byte) ([]*Grammar, error) {
	bundle, err := targz.LoadWithOptions(data, targz.LoadOptions{Filter: IsDefinitionEntry})
	if err != nil {
		return nil, errors.Errorf("loading grammar bundle: %w", err)
	}

	var loaded []*Grammar
	var errs error
	for _, name := range bundle.Names() {
		g, err := s.load(ctx, name, bundle.Files[name])
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		loaded = append(loaded, g)
	}

	return loaded, errs
}

func (s *Store) load(ctx context.Context, filename string, data []byte) (*Grammar, error) {
	g, err := ParseDefinition(data, FormatForPath(filename))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("file", filename).Msg("compiling grammar")
		return nil, errors.Errorf("compiling grammar %s: %w", filename, err)
	}

	s.Register(g)

	zerolog.Ctx(ctx).Debug().
		Str("file", filename).
		Str("grammar", g.Name()).
		Int("symbols", g.SymbolCount()).
		Int("states", g.StateCount()).
		Msg("loaded grammar")

	return g, nil
}
