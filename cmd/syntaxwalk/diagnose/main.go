package diagnose

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/options"
	"github.com/walteh/syntaxwalk/pkg/diagnostic"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	opts     *options.Options
	treeFile string
	format   string // text, json, vscode
	out      io.Writer
}

type jsonFormatter struct{}

func (jsonFormatter) Format(diags []*diagnostic.Diagnostic) ([]byte, error) {
	if diags == nil {
		diags = []*diagnostic.Diagnostic{}
	}
	return json.MarshalIndent(diags, "", "\t")
}

func NewDiagnoseCommand(opts *options.Options) *cobra.Command {
	me := &Handler{opts: opts}

	cmd := &cobra.Command{
		Use:   "diagnose [tree-file]",
		Short: "report ERROR and MISSING nodes of a syntax tree",
	}

	cmd.Flags().StringVar(&me.format, "format", "text", "the format of the diagnostics (text, json, vscode)")
	cmd.Args = cobra.ExactArgs(1)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.treeFile = args[0]
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) formatter() (diagnostic.Formatter, error) {
	switch me.format {
	case "text":
		return &diagnostic.TextFormatter{Filename: me.treeFile}, nil
	case "json":
		return jsonFormatter{}, nil
	case "vscode":
		return diagnostic.NewVSCodeFormatter(), nil
	default:
		return nil, errors.Errorf("unknown format %q", me.format)
	}
}

func (me *Handler) Run(ctx context.Context) error {
	f, err := me.formatter()
	if err != nil {
		return err
	}

	tree, err := me.opts.LoadTree(ctx, me.treeFile)
	if err != nil {
		return errors.Errorf("loading tree: %w", err)
	}
	defer tree.Close()

	diags, err := diagnostic.GetDiagnostics(ctx, tree)
	if err != nil {
		return errors.Errorf("getting diagnostics: %w", err)
	}

	out, err := f.Format(diags)
	if err != nil {
		return errors.Errorf("formatting diagnostics: %w", err)
	}

	_, err = me.out.Write(out)
	return err
}
