package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var jobsJSON bool

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Show ingestion job progress",
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().BoolVar(&jobsJSON, "json", false, "output jobs as JSON")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, _ []string) error {
	if err := wire(); err != nil {
		return err
	}

	jobs := ingestService.Jobs()

	if jobsJSON {
		return outputJSON(cmd, jobs)
	}

	if len(jobs) == 0 {
		cmd.Println("No ingestion jobs in this session.")
		return nil
	}
	for i := range jobs {
		j := &jobs[i]
		line := fmt.Sprintf("  %s  %-9s  %s", j.ID, j.Status, j.Path)
		line += fmt.Sprintf("  processed=%d ingested=%d skipped=%d failed=%d",
			j.Processed, j.Ingested, j.Skipped, j.Failed)
		cmd.Println(line)
	}
	return nil
}
