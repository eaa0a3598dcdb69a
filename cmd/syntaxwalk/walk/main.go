package walk

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/options"
	"github.com/walteh/syntaxwalk/pkg/cursor"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	opts      *options.Options
	treeFile  string
	namedOnly bool
	colorize  bool
	out       io.Writer
}

func NewWalkCommand(opts *options.Options) *cobra.Command {
	me := &Handler{opts: opts}

	cmd := &cobra.Command{
		Use:   "walk [tree-file]",
		Short: "print a syntax tree by walking it with a cursor",
	}

	cmd.Flags().BoolVar(&me.namedOnly, "named-only", false, "skip anonymous tokens")
	cmd.Flags().BoolVar(&me.colorize, "color", false, "colorize kinds and fields")
	cmd.Args = cobra.ExactArgs(1)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.treeFile = args[0]
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

	fieldColor := color.New(color.FgCyan)
	kindColor := color.New(color.Bold)
	errorColor := color.New(color.FgHiRed, color.Bold)
	for _, c := range []*color.Color{fieldColor, kindColor, errorColor} {
		if me.colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var sb strings.Builder
	err = cursor.Walk(tree.RootNode(), func(c *cursor.TreeCursor) bool {
		n := c.Node()
		if me.namedOnly && !n.IsNamed() && !n.IsError() && !n.IsMissing() {
			return true
		}

		sb.WriteString(strings.Repeat("  ", int(c.Depth())))
		if name, ok := c.FieldName(); ok {
			sb.WriteString(fieldColor.Sprint(name))
			sb.WriteString(": ")
		}

		kind := n.Kind()
		if !n.IsNamed() {
			kind = fmt.Sprintf("%q", kind)
		}
		switch {
		case n.IsError():
			sb.WriteString(errorColor.Sprint("ERROR"))
		case n.IsMissing():
			sb.WriteString(errorColor.Sprint("MISSING " + kind))
		default:
			sb.WriteString(kindColor.Sprint(kind))
		}

		fmt.Fprintf(&sb, " %s", n.Range())
		if n.ChildCount() == 0 && !n.IsMissing() {
			fmt.Fprintf(&sb, " %q", n.Content())
		}
		sb.WriteString("\n")
		return true
	})
	if err != nil {
		return errors.Errorf("walking tree: %w", err)
	}

	_, err = io.WriteString(me.out, sb.String())
	return err
}
