package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the daemon's /healthz endpoint",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			h, err := fetchHealth()
			if err != nil {
				return fmt.Errorf("fetch health: %w", err)
			}

			fmt.Printf("status: %s\n", h.Status)
			fmt.Printf("uptime: %s\n", time.Duration(h.Uptime))
			return nil
		},
	}
}
