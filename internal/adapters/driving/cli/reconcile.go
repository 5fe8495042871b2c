package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Re-index compounds whose vector write failed",
	Long: `Finds compounds that were written to the primary store but never
made it into the vector store (for example because the embedding
provider was down during a load) and re-indexes them.`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	if err := wire(); err != nil {
		return err
	}

	fixed, err := ingestService.Reconcile(context.Background())
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}
	if fixed == 0 {
		cmd.Println("Nothing to reconcile.")
		return nil
	}
	cmd.Printf("Reconciled %d compounds\n", fixed)
	return nil
}
