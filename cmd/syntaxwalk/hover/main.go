package hover

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/options"
	"github.com/walteh/syntaxwalk/pkg/hover"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	opts     *options.Options
	treeFile string
	location string
	lsp      bool
	out      io.Writer
}

func NewHoverCommand(opts *options.Options) *cobra.Command {
	me := &Handler{opts: opts}

	cmd := &cobra.Command{
		Use:   "hover [tree-file] [byte-offset|row:column]",
		Short: "describe the node at a location as markdown",
	}

	cmd.Flags().BoolVar(&me.lsp, "lsp", false, "print an lsp hover response as json")
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

	info, err := hover.BuildHoverResponse(ctx, tree, offset)
	if err != nil {
		return errors.Errorf("building hover response: %w", err)
	}

	if me.lsp {
		enc := json.NewEncoder(me.out)
		enc.SetIndent("", "\t")
		return enc.Encode(info.ToLSPHover())
	}

	for _, content := range info.Content {
		if _, err := fmt.Fprintln(me.out, content); err != nil {
			return err
		}
	}
	return nil
}
