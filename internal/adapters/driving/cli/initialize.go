package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialise the local stores",
	Long: `Opens both stores, provisioning their schemas if needed, and loads
the configured seed batch when the primary store is empty. Safe to run
repeatedly.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	if err := wire(); err != nil {
		return err
	}

	if err := compoundService.Initialize(context.Background()); err != nil {
		return fmt.Errorf("initialise failed: %w", err)
	}
	cmd.Println("Stores initialised.")
	return nil
}
