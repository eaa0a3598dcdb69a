package query

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/options"
	"github.com/walteh/syntaxwalk/pkg/query"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	opts      *options.Options
	treeFile  string
	queryFile string
	inline    string
	out       io.Writer
}

func NewQueryCommand(opts *options.Options) *cobra.Command {
	me := &Handler{opts: opts}

	cmd := &cobra.Command{
		Use:   "query [tree-file] [query-file]",
		Short: "print the captures of a query run over a syntax tree",
	}

	cmd.Flags().StringVarP(&me.inline, "expr", "e", "", "query source given inline instead of a query file")
	cmd.Args = cobra.RangeArgs(1, 2)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.treeFile = args[0]
		if len(args) == 2 {
			me.queryFile = args[1]
		}
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) source() (string, error) {
	switch {
	case me.inline != "" && me.queryFile != "":
		return "", errors.New("give either a query file or --expr, not both")
	case me.inline != "":
		return me.inline, nil
	case me.queryFile == "":
		return "", errors.New("no query given")
	}

	data, err := afero.ReadFile(me.opts.Fs, me.queryFile)
	if err != nil {
		return "", errors.Errorf("reading query: %w", err)
	}
	return string(data), nil
}

func (me *Handler) Run(ctx context.Context) error {
	src, err := me.source()
	if err != nil {
		return err
	}

	tree, err := me.opts.LoadTree(ctx, me.treeFile)
	if err != nil {
		return errors.Errorf("loading tree: %w", err)
	}
	defer tree.Close()

	q, err := query.New(tree.Grammar(), src)
	if err != nil {
		return errors.Errorf("compiling query: %w", err)
	}

	matches, err := q.Matches(ctx, tree.RootNode())
	if err != nil {
		return err
	}

	for _, m := range matches {
		for _, c := range m.Captures {
			if _, err := fmt.Fprintf(me.out, "%d\t%s\t%s\t%q\n", m.Pattern, c.Name, c.Node.StartPoint(), c.Node.Content()); err != nil {
				return err
			}
		}
	}
	return nil
}
