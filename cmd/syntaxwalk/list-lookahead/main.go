package list_lookahead

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/options"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/lookahead"
	"gitlab.com/tozd/go/errors"
)

type Handler struct {
	opts    *options.Options
	grammar string
	state   grammar.StateID
	out     io.Writer
}

func NewListLookaheadCommand(opts *options.Options) *cobra.Command {
	me := &Handler{opts: opts}

	cmd := &cobra.Command{
		Use:   "lookahead [grammar] [state]",
		Short: "list the symbols a grammar accepts in a parse state",
	}

	cmd.Args = cobra.ExactArgs(2)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.grammar = args[0]
		state, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			return errors.Errorf("invalid parse state: %w", err)
		}
		me.state = grammar.StateID(state)
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context) error {
	store, err := me.opts.Store(ctx)
	if err != nil {
		return err
	}

	g, err := store.Get(me.grammar)
	if err != nil {
		return errors.Errorf("available grammars %v: %w", store.Names(), err)
	}

	it, err := lookahead.New(g, me.state)
	if err != nil {
		return errors.Errorf("creating lookahead iterator: %w", err)
	}
	defer it.Close()

	for sym, name := range it.All() {
		if _, err := fmt.Fprintf(me.out, "%d\t%s\n", sym, name); err != nil {
			return err
		}
	}
	return nil
}
