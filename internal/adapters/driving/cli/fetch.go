package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
)

var fetchJSON bool

var fetchCmd = &cobra.Command{
	Use:   "fetch [cid]",
	Short: "Fetch a compound from PubChem and ingest it",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "output the ingested compound as JSON")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if err := wire(); err != nil {
		return err
	}

	cid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || cid <= 0 {
		return fmt.Errorf("invalid CID %q: %w", args[0], domain.ErrInvalidInput)
	}

	compound, err := ingestService.FetchOne(context.Background(), cid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("PubChem has no compound with CID %d", cid)
		}
		return fmt.Errorf("fetch failed: %w", err)
	}

	if fetchJSON {
		return outputJSON(cmd, compound)
	}
	printCompound(cmd, compound)
	return nil
}
