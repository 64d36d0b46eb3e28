// Package commands implements the godash7ctl CLI commands.
package commands

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// httpClient is the plain HTTP client used against the daemon's
	// introspection endpoint, set up in PersistentPreRunE.
	httpClient *http.Client

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string

	// serverAddr is the daemon's introspection HTTP address (host:port).
	serverAddr string
)

// rootCmd is the top-level cobra command for godash7ctl.
var rootCmd = &cobra.Command{
	Use:   "godash7ctl",
	Short: "CLI client for the godash7 daemon",
	Long:  "godash7ctl polls the godash7 daemon's introspection HTTP endpoint to report dispatcher state.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		httpClient = &http.Client{Timeout: 5 * time.Second}
		return nil
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:8080",
		"godash7 daemon introspection address (host:port)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(shellCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd returns a fresh root command tree, used by the shell REPL
// to dispatch each typed line through cobra without mutating the
// process-level rootCmd's parsed-flag state between lines.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "godash7ctl",
		Short:         rootCmd.Short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&serverAddr, "addr", serverAddr, "godash7 daemon introspection address")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", outputFormat, "output format: table, json")
	cmd.PersistentPreRunE = rootCmd.PersistentPreRunE

	cmd.AddCommand(statusCmd())
	cmd.AddCommand(healthCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}
