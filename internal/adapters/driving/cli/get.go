package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
)

var (
	getByID bool
	getJSON bool
)

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a single compound",
	Long: `Shows the full canonical record for one compound, looked up by its
PubChem CID (default) or by internal database id with --by-id.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getByID, "by-id", false, "look up by internal id instead of CID")
	getCmd.Flags().BoolVar(&getJSON, "json", false, "output the compound as JSON")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	if err := wire(); err != nil {
		return err
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid identifier %q: %w", args[0], domain.ErrInvalidInput)
	}

	ctx := context.Background()
	var compound *domain.Compound
	if getByID {
		compound, err = compoundService.GetByID(ctx, id)
	} else {
		compound, err = compoundService.Get(ctx, id)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("compound %d not found", id)
		}
		return fmt.Errorf("get failed: %w", err)
	}

	if getJSON {
		return outputJSON(cmd, compound)
	}
	printCompound(cmd, compound)
	return nil
}

func printCompound(cmd *cobra.Command, c *domain.Compound) {
	cmd.Printf("%s (CID %d)\n", c.Name, c.CID)
	if c.IUPACName != "" {
		cmd.Printf("  IUPAC name:   %s\n", c.IUPACName)
	}
	if c.Formula != "" {
		cmd.Printf("  Formula:      %s\n", c.Formula)
	}
	if c.MolecularWeight != nil {
		cmd.Printf("  Mol. weight:  %.2f\n", *c.MolecularWeight)
	}
	if c.InChIKey != "" {
		cmd.Printf("  InChIKey:     %s\n", c.InChIKey)
	}
	if c.SMILES != "" {
		cmd.Printf("  SMILES:       %s\n", c.SMILES)
	}
	if len(c.ChemicalClass) > 0 {
		cmd.Printf("  Class:        %v\n", c.ChemicalClass)
	}
	if len(c.Synonyms) > 0 {
		n := len(c.Synonyms)
		if n > 5 {
			n = 5
		}
		cmd.Printf("  Synonyms:     %v", c.Synonyms[:n])
		if len(c.Synonyms) > n {
			cmd.Printf(" (+%d more)", len(c.Synonyms)-n)
		}
		cmd.Println()
	}
	if c.Description != "" {
		cmd.Printf("  Description:  %s\n", c.Description)
	}
	cmd.Printf("  Image:        %s\n", c.ImageURL)
	cmd.Printf("  Processed:    %t\n", c.IsProcessed)
}
