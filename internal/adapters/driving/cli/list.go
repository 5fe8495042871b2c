package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listLimit  int
	listOffset int
	listJSON   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored compounds",
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "maximum number of compounds")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "number of compounds to skip")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output compounds as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if err := wire(); err != nil {
		return err
	}

	compounds, err := compoundService.List(context.Background(), listLimit, listOffset)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	if listJSON {
		return outputJSON(cmd, compounds)
	}

	if len(compounds) == 0 {
		cmd.Println("No compounds stored.")
		return nil
	}
	for i := range compounds {
		c := &compounds[i]
		line := fmt.Sprintf("  %8d  %s", c.CID, c.Name)
		if c.Formula != "" {
			line += fmt.Sprintf("  (%s)", c.Formula)
		}
		cmd.Println(line)
	}
	return nil
}
