package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsDigest/internal/app"
	"NewsDigest/internal/config"
	"NewsDigest/internal/logging"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "newsdigest",
		Short:         "Collects AI news, ranks it and assembles a daily digest.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (overrides $NEWSDIGEST_CONFIG)")

	rootCmd.AddCommand(
		newDigestCmd(),
		newDedupeCmd(),
		newArticlesCmd(),
		newSubscribersCmd(),
		newIssuesCmd(),
		newSendCmd(),
		newNewsletterCmd(),
		newScheduleCmd(),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// openApp loads configuration and wires the application for one command.
func openApp(cmd *cobra.Command) (*app.Application, error) {
	if cfgFile != "" {
		if err := os.Setenv("NEWSDIGEST_CONFIG", cfgFile); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	return app.New(cmd.Context(), cfg, logger)
}
