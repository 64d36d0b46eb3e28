package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/reeflective/console"
	"github.com/spf13/cobra"
)

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive godash7ctl shell",
		Long:  "Launches a reeflective/console REPL over status/health/version, against the same daemon --addr.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runShell()
		},
	}
}

// runShell wires a reeflective/console application around the same
// cobra command tree the one-shot CLI uses, one console.Commands
// closure returning a fresh *cobra.Command per line so repeated
// invocations don't accumulate parsed-flag state.
func runShell() error {
	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	}))

	app := console.New("godash7ctl")

	menu := app.CurrentMenu()
	menu.Short = "godash7ctl interactive shell"
	menu.SetCommands(func() *cobra.Command {
		return newRootCmd()
	})

	logger.Info("starting interactive shell", slog.String("addr", serverAddr))

	if err := app.Start(); err != nil {
		return fmt.Errorf("console shell: %w", err)
	}
	return nil
}
