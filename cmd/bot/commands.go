package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jacobbrewer1/triage/pkg/bot"
	"github.com/Jacobbrewer1/triage/pkg/logging"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           AppName,
		Short:         "Telegram bot for reporting and triaging support tickets",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBot,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the bot and the monitoring server",
			RunE:  runBot,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the store constraints and indexes, then exit",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Print the ticket statistics, then exit",
			RunE:  runStats,
		},
	)

	return root
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runBot(cmd *cobra.Command, _ []string) error {
	a, err := InitializeApp()
	if err != nil {
		return fmt.Errorf("error initializing app: %w", err)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	a.Info("Starting application")
	if err := a.Run(ctx); err != nil {
		a.Error("Error running application", slog.String(logging.KeyError, err.Error()))
		return err
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	a, err := InitializeApp()
	if err != nil {
		return fmt.Errorf("error initializing app: %w", err)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if err := a.Migrate(ctx); err != nil {
		a.Error("Error migrating store", slog.String(logging.KeyError, err.Error()))
		return err
	}
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := InitializeApp()
	if err != nil {
		return fmt.Errorf("error initializing app: %w", err)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer a.closeStore(store)

	text, err := bot.ReadStats(ctx, store)
	if err != nil {
		return fmt.Errorf("error reading statistics: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
