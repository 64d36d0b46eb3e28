package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the dispatcher's current snapshot (role, sessions, idle scans)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			snap, err := fetchSnapshot()
			if err != nil {
				return fmt.Errorf("fetch snapshot: %w", err)
			}

			out, err := formatSnapshot(snap, outputFormat)
			if err != nil {
				return fmt.Errorf("format snapshot: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}
