// Package cli provides the cobra command tree for chemsearch.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chembase-labs/chemsearch/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagVerbose   bool
	flagConfigDir string
)

var rootCmd = &cobra.Command{
	Use:   "chemsearch",
	Short: "Ingest and search chemical compounds",
	Long: `chemsearch ingests chemical-compound records (PubChem or custom JSON),
normalises them into a canonical shape, and makes them searchable by
keyword or semantic similarity across a relational store and a vector
store.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default ~/.chemsearch)")
}

// Execute runs the CLI.
func Execute() {
	err := rootCmd.Execute()
	closeBackends()
	if err != nil {
		os.Exit(1)
	}
}
