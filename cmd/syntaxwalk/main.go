package main

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/complete"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/diagnose"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/hover"
	list_lookahead "github.com/walteh/syntaxwalk/cmd/syntaxwalk/list-lookahead"
	node_at "github.com/walteh/syntaxwalk/cmd/syntaxwalk/node-at"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/options"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/query"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/tokens"
	"github.com/walteh/syntaxwalk/cmd/syntaxwalk/walk"
	swdebug "github.com/walteh/syntaxwalk/pkg/debug"
	"gitlab.com/tozd/go/errors"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	rootCmd := newRootCommand(afero.NewOsFs(), os.Stderr)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}

func newRootCommand(fs afero.Fs, logOut io.Writer) *cobra.Command {
	opts := options.New(fs)

	var (
		debugLogs  bool
		noColor    bool
		profMode   string
		profDir    string
		profHandle interface{ Stop() }
	)

	rootCmd := &cobra.Command{
		Use:   "syntaxwalk",
		Short: "inspect syntax trees and grammar lookahead sets",
	}

	opts.Register(rootCmd)
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored logs")
	rootCmd.PersistentFlags().StringVar(&profMode, "profile", "", "profile the command (one of "+strings.Join(swdebug.ProfileModes(), ", ")+")")
	rootCmd.PersistentFlags().StringVar(&profDir, "profile-dir", "", "directory for profile output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := zerolog.WarnLevel
		if debugLogs {
			level = zerolog.DebugLevel
		}
		logger := swdebug.NewLogger(logOut, swdebug.LoggerOptions{Level: level, NoColor: noColor, Caller: debugLogs})
		cmd.SetContext(logger.WithContext(cmd.Context()))

		p, err := swdebug.StartProfile(profMode, profDir)
		if err != nil {
			return err
		}
		profHandle = p
		return nil
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if profHandle != nil {
			profHandle.Stop()
		}
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	rootCmd.AddCommand(walk.NewWalkCommand(opts))
	rootCmd.AddCommand(node_at.NewNodeAtCommand(opts))
	rootCmd.AddCommand(list_lookahead.NewListLookaheadCommand(opts))
	rootCmd.AddCommand(diagnose.NewDiagnoseCommand(opts))
	rootCmd.AddCommand(complete.NewCompleteCommand(opts))
	rootCmd.AddCommand(hover.NewHoverCommand(opts))
	rootCmd.AddCommand(tokens.NewTokensCommand(opts))
	rootCmd.AddCommand(query.NewQueryCommand(opts))

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	return rootCmd
}
