package complete

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/options"
	"github.com/walteh/syntaxwalk/pkg/completion"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	opts     *options.Options
	treeFile string
	location string
	out      io.Writer
}

func NewCompleteCommand(opts *options.Options) *cobra.Command {
	me := &Handler{opts: opts}

	cmd := &cobra.Command{
		Use:   "complete [tree-file] [byte-offset|row:column]",
		Short: "get completions for a location in a syntax tree",
	}

	cmd.Args = cobra.ExactArgs(2)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.treeFile = args[0]
		me.location = args[1]
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context) error {
	tree, err := me.opts.LoadTree(ctx, me.treeFile)
	if err != nil {
		return errors.Errorf("loading tree: %w", err)
	}
	defer tree.Close()

	offset, err := options.ParseLocation(tree, me.location)
	if err != nil {
		return err
	}

	items, err := completion.NewProvider(tree).GetCompletions(ctx, offset)
	if err != nil {
		return errors.Errorf("getting completions: %w", err)
	}
	if items == nil {
		items = []completion.Item{}
	}

	enc := json.NewEncoder(me.out)
	enc.SetIndent("", "\t")
	if err := enc.Encode(items); err != nil {
		return errors.Errorf("encoding completions: %w", err)
	}
	return nil
}
