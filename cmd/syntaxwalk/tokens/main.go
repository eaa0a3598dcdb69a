package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/options"
	"github.com/walteh/syntaxwalk/pkg/semtok"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	opts     *options.Options
	treeFile string
	encoded  bool
	out      io.Writer
}

// Encoded is the output of --encoded
type Encoded struct {
	TokenTypes     []string `json:"tokenTypes"`
	TokenModifiers []string `json:"tokenModifiers"`
	Data           []uint32 `json:"data"`
}

func NewTokensCommand(opts *options.Options) *cobra.Command {
	me := &Handler{opts: opts}

	cmd := &cobra.Command{
		Use:   "tokens [tree-file]",
		Short: "list the semantic tokens of a syntax tree",
	}

	cmd.Flags().BoolVar(&me.encoded, "encoded", false, "print the relative integer encoding with its legend as json")
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

	toks, err := semtok.GetTokensForTree(ctx, tree)
	if err != nil {
		return errors.Errorf("getting tokens: %w", err)
	}

	if me.encoded {
		enc := json.NewEncoder(me.out)
		enc.SetIndent("", "\t")
		return enc.Encode(Encoded{
			TokenTypes:     semtok.TokenTypes(),
			TokenModifiers: semtok.TokenModifiers(),
			Data:           semtok.Encode(tree.Source(), toks),
		})
	}

	for _, tok := range toks {
		kind := tok.Type.String()
		if tok.Modifier != semtok.ModifierNone {
			kind += "." + tok.Modifier.String()
		}
		text := tree.Source()[tok.Range.StartByte:tok.Range.EndByte]
		if _, err := fmt.Fprintf(me.out, "%s\t%s\t%q\n", tok.Range.StartPoint, kind, text); err != nil {
			return err
		}
	}
	return nil
}
