package node_at

import (
	"context"
	"encoding/json"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/options"
	"github.com/walteh/syntaxwalk/pkg/cursor"
	"github.com/walteh/syntaxwalk/pkg/position"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	opts     *options.Options
	treeFile string
	location string
	out      io.Writer
}

// Result describes the deepest node at a location
type Result struct {
	Kind            string         `json:"kind"`
	Field           string         `json:"field,omitempty"`
	Content         string         `json:"content"`
	Range           position.Range `json:"range"`
	Depth           uint32         `json:"depth"`
	DescendantIndex uint32         `json:"descendant_index"`
	ParseState      uint16         `json:"parse_state"`
	Path            []string       `json:"path"`
}

func NewNodeAtCommand(opts *options.Options) *cobra.Command {
	me := &Handler{opts: opts}

	cmd := &cobra.Command{
		Use:   "node-at [tree-file] [byte-offset|row:column]",
		Short: "show the deepest node at a location and its path from the root",
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

	n := cursor.NodeForByte(tree.RootNode(), offset)
	c, err := cursor.New(n)
	if err != nil {
		return errors.Errorf("creating cursor: %w", err)
	}
	defer c.Close()

	res := Result{
		Kind:            n.Kind(),
		Content:         n.Content(),
		Range:           n.Range(),
		Depth:           c.Depth(),
		DescendantIndex: c.DescendantIndex(),
		ParseState:      uint16(n.ParseState()),
	}
	if name, ok := c.FieldName(); ok {
		res.Field = name
	}

	for {
		res.Path = append(res.Path, c.Node().Kind())
		if !c.GotoParent() {
			break
		}
	}
	slices.Reverse(res.Path)

	enc := json.NewEncoder(me.out)
	enc.SetIndent("", "\t")
	if err := enc.Encode(res); err != nil {
		return errors.Errorf("encoding result: %w", err)
	}
	return nil
}
