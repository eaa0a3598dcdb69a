package options

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/position"
	"github.com/walteh/syntaxwalk/pkg/syntax"
	"github.com/walteh/syntaxwalk/pkg/targz"
	"github.com/walteh/syntaxwalk/pkg/treeio"
	"gitlab.com/tozd/go/errors"
)

// Options are the settings shared by every subcommand
type Options struct {
	Fs          afero.Fs
	GrammarDir  string
	GrammarGlob string
	Bundles     []string

	// ExtractBundles unpacks bundles below GrammarDir instead of loading them in memory
	ExtractBundles bool
}

func New(fs afero.Fs) *Options {
	return &Options{Fs: fs}
}

// Register adds the shared flags to the root command
func (o *Options) Register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.GrammarDir, "grammar-dir", ".", "directory searched for compiled grammar files")
	cmd.PersistentFlags().StringVar(&o.GrammarGlob, "grammar-glob", grammar.DefaultPattern, "doublestar pattern of grammar files below --grammar-dir")
	cmd.PersistentFlags().StringSliceVar(&o.Bundles, "grammar-bundle", nil, "tar.gz bundles of grammar files to load")
	cmd.PersistentFlags().BoolVar(&o.ExtractBundles, "extract-bundles", false, "unpack the grammar files of --grammar-bundle into --grammar-dir before loading")
}

// Store loads every grammar found by the grammar flags. Grammars that fail to
// compile are logged and skipped.
func (o *Options) Store(ctx context.Context) (*grammar.Store, error) {
	store := grammar.NewStore(ctx)

	if o.ExtractBundles {
		if err := o.extractBundles(ctx); err != nil {
			return nil, err
		}
	}

	if _, err := store.LoadDir(ctx, o.Fs, o.GrammarDir, o.GrammarGlob); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("dir", o.GrammarDir).Msg("some grammars failed to load")
	}

	if !o.ExtractBundles {
		for _, bundle := range o.Bundles {
			data, err := afero.ReadFile(o.Fs, bundle)
			if err != nil {
				return nil, errors.Errorf("reading grammar bundle %s: %w", bundle, err)
			}
			if _, err := store.LoadBundle(ctx, data); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("bundle", bundle).Msg("some grammars failed to load")
			}
		}
	}

	return store, nil
}

func (o *Options) extractBundles(ctx context.Context) error {
	for _, bundle := range o.Bundles {
		data, err := afero.ReadFile(o.Fs, bundle)
		if err != nil {
			return errors.Errorf("reading grammar bundle %s: %w", bundle, err)
		}
		if err := targz.Extract(o.Fs, data, o.GrammarDir, targz.ExtractOptions{Filter: grammar.IsDefinitionEntry}); err != nil {
			return errors.Errorf("extracting grammar bundle %s: %w", bundle, err)
		}
		zerolog.Ctx(ctx).Debug().Str("bundle", bundle).Str("dir", o.GrammarDir).Msg("extracted grammar bundle")
	}
	return nil
}

// LoadTree reads a tree document, resolving its grammar through the store
func (o *Options) LoadTree(ctx context.Context, filename string) (*syntax.Tree, error) {
	store, err := o.Store(ctx)
	if err != nil {
		return nil, err
	}
	return treeio.Load(ctx, o.Fs, filename, store)
}

// ParseLocation reads either a byte offset ("42") or a zero-based row and
// column ("3:7") and returns the byte offset in tree
func ParseLocation(tree *syntax.Tree, arg string) (uint32, error) {
	if row, col, ok := strings.Cut(arg, ":"); ok {
		r, err := strconv.ParseUint(row, 10, 32)
		if err != nil {
			return 0, errors.Errorf("invalid row %q: %w", row, err)
		}
		c, err := strconv.ParseUint(col, 10, 32)
		if err != nil {
			return 0, errors.Errorf("invalid column %q: %w", col, err)
		}
		offset, ok := tree.PositionIndex().OffsetAt(position.Point{Row: uint32(r), Column: uint32(c)})
		if !ok {
			return 0, errors.Errorf("position %s is outside the source", arg)
		}
		return offset, nil
	}

	offset, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, errors.Errorf("invalid byte offset %q: %w", arg, err)
	}
	return uint32(offset), nil
}
