package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	loadLimit int
	loadWatch bool
)

var loadCmd = &cobra.Command{
	Use:   "load [path]",
	Short: "Bulk-load compound JSON files",
	Long: `Loads compound records from a JSON file or a directory of .json
files into both stores. Each file may hold a single record or an array
of records, in PubChem PUG REST, PUG View or flat custom format.

With --watch the directory is watched after the initial load and newly
created .json files are ingested as they appear, until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().IntVarP(&loadLimit, "limit", "n", 0, "maximum records to load (0 = no limit)")
	loadCmd.Flags().BoolVar(&loadWatch, "watch", false, "keep watching the directory for new files")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	if err := wire(); err != nil {
		return err
	}

	path := args[0]
	ctx := context.Background()

	ingested, err := ingestService.LoadPath(ctx, path, loadLimit)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	cmd.Printf("Ingested %d compounds from %s\n", ingested, path)

	if !loadWatch {
		return nil
	}

	watchCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s for new .json files (Ctrl-C to stop)\n", path)
	if err := ingestService.Watch(watchCtx, path); err != nil && watchCtx.Err() == nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
