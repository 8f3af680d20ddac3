package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/mccolljr/temple/cmd/temple/check"
	"github.com/mccolljr/temple/cmd/temple/gen"
	"github.com/mccolljr/temple/cmd/temple/lex"
	"github.com/mccolljr/temple/cmd/temple/parse"
	templedebug "github.com/mccolljr/temple/pkg/debug"
	"github.com/mccolljr/temple/pkg/output"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		logLevel  string
		debugMode bool
	)

	rootCmd := &cobra.Command{
		Use:           "temple",
		Short:         "A tool for checking templates and compiling them to Go",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging with callers")
	rootCmd.PersistentFlags().String("config", "", "config file (default: .temple.hcl, .temple.yaml, .temple.yml or .temple.toml in the target dir)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto, always, never)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("color")
		colorize, err := output.Colorize(mode, os.Stderr)
		if err != nil {
			return err
		}

		logger, err := templedebug.NewLogger(os.Stderr, templedebug.Options{
			Level: logLevel,
			Debug: debugMode,
			Color: colorize,
		})
		if err != nil {
			return err
		}

		cmd.SetContext(logger.WithContext(cmd.Context()))
		return nil
	}

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	rootCmd.AddCommand(cmdVersion)
	rootCmd.AddCommand(lex.NewLexCommand())
	rootCmd.AddCommand(parse.NewParseCommand())
	rootCmd.AddCommand(check.NewCheckCommand())
	rootCmd.AddCommand(gen.NewGenCommand())

	return rootCmd
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}
