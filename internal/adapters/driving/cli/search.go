package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
)

var (
	searchType   string
	searchWeight string
	searchClass  string
	searchSort   string
	searchPage   int
	searchLimit  int
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search compounds",
	Long: `Searches the compound database.

Keyword search matches the query against name, description and formula.
Semantic search ranks compounds by vector similarity to the query; when
the vector store is unavailable the request falls back to keyword
search and the output reports the effective mode.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchType, "type", "t", string(domain.SearchTypeKeyword), "search type (keyword|semantic)")
	searchCmd.Flags().StringVarP(&searchWeight, "weight", "w", "", "molecular weight bucket (lt_100|100-200|200-500|gt_500)")
	searchCmd.Flags().StringVarP(&searchClass, "class", "c", domain.ChemicalClassAll, "chemical class filter")
	searchCmd.Flags().StringVarP(&searchSort, "sort", "s", string(domain.SortRelevance), "sort key (relevance|molecular_weight|name)")
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", domain.DefaultPage, "result page (1-based)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultLimit, "results per page")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := wire(); err != nil {
		return err
	}

	queryText := ""
	if len(args) > 0 {
		queryText = args[0]
	}

	query, err := domain.ParseSearchQuery(
		queryText, searchType, searchWeight, searchClass, searchSort, searchPage, searchLimit)
	if err != nil {
		return err
	}

	response, err := compoundService.Search(context.Background(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, response)
	}
	return outputSearchTable(cmd, response)
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, response *domain.SearchResponse) error {
	if len(response.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%s search, page %d/%d, %d total):\n",
		response.SearchType, response.Page, response.TotalPages, response.TotalResults)
	cmd.Println()
	for i := range response.Results {
		r := &response.Results[i]

		cmd.Printf("  [%d] %s (CID %d)\n", i+1, r.Name, r.CID)
		if r.Formula != "" {
			cmd.Printf("      Formula: %s", r.Formula)
			if r.MolecularWeight != nil {
				cmd.Printf("  MW: %.2f", *r.MolecularWeight)
			}
			cmd.Println()
		}
		if len(r.ChemicalClass) > 0 {
			cmd.Printf("      Class: %v\n", r.ChemicalClass)
		}
		if r.Similarity != nil {
			cmd.Printf("      Similarity: %.3f\n", *r.Similarity)
		}
		cmd.Println()
	}
	return nil
}
