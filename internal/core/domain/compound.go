package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultImageURLTemplate renders the PubChem image service URL for a CID.
// Used whenever upstream data carries no explicit image URL.
const DefaultImageURLTemplate = "https://pubchem.ncbi.nlm.nih.gov/image/imagefly.cgi?cid=%d&width=300&height=300"

// Compound is the canonical compound record after normalisation.
// It is backend-agnostic: the primary store persists it as the system of
// record, the vector store holds a denormalised copy for semantic search.
type Compound struct {
	// ID is the surrogate key assigned by the primary store.
	// Zero when the record has not been persisted there.
	ID int64

	// CID is the external stable PubChem compound identifier.
	// It is the natural key across both stores and is always present.
	CID int64

	// Name is the display name. Never empty after normalisation;
	// defaults to "Compound <cid>" when upstream data omits it.
	Name string

	// IUPACName is the preferred IUPAC name, when known.
	IUPACName string

	// Formula is the molecular formula (e.g. "C9H8O4").
	Formula string

	// MolecularWeight in g/mol. Nil when unknown.
	MolecularWeight *float64

	// InChI, InChIKey and SMILES are structure identifiers, when known.
	// No validation or canonicalisation is performed on them.
	InChI    string
	InChIKey string
	SMILES   string

	// Description is free-form descriptive text.
	Description string

	// ImageURL always resolves; it falls back to the PubChem image
	// service templated from CID.
	ImageURL string

	// Synonyms is an ordered list of alternative names. Empty means none.
	Synonyms []string

	// ChemicalClass holds classification labels. When upstream data has
	// no explicit classification the normaliser derives coarse labels
	// from the formula.
	ChemicalClass []string

	// Properties holds fields with no canonical slot
	// (complexity, xlogp, bond counts, ...).
	Properties map[string]any

	// IsProcessed is true once the record has been written to the
	// vector store. Rows with IsProcessed=false are picked up by the
	// reconciliation pass.
	IsProcessed bool

	// CreatedAt is when the row was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the row was last modified.
	UpdatedAt time.Time
}

// DefaultImageURL returns the templated PubChem image URL for a CID.
func DefaultImageURL(cid int64) string {
	return fmt.Sprintf(DefaultImageURLTemplate, cid)
}

// DefaultName returns the fallback display name for a CID.
func DefaultName(cid int64) string {
	return fmt.Sprintf("Compound %d", cid)
}

// ApplyDefaults fills the defaulted fields on a normalised compound.
// It is idempotent and safe to call on already-complete records.
func (c *Compound) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName(c.CID)
	}
	if c.ImageURL == "" {
		c.ImageURL = DefaultImageURL(c.CID)
	}
}

// EmbeddingText builds the text handed to the embedding provider for
// this compound's denormalised vector-store copy.
func (c *Compound) EmbeddingText() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{c.Name, c.IUPACName, c.Formula, c.Description} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, c.ChemicalClass...)
	return strings.Join(parts, " ")
}

// CompoundSearchResult is the lighter projection of a Compound returned
// from search, plus an optional similarity score.
type CompoundSearchResult struct {
	ID              int64    `json:"id,omitempty"`
	CID             int64    `json:"cid"`
	Name            string   `json:"name"`
	IUPACName       string   `json:"iupacName,omitempty"`
	Formula         string   `json:"formula,omitempty"`
	MolecularWeight *float64 `json:"molecularWeight,omitempty"`
	InChIKey        string   `json:"inchiKey,omitempty"`
	Description     string   `json:"description,omitempty"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	ChemicalClass   []string `json:"chemicalClass,omitempty"`

	// Similarity is the cosine similarity on a 0-1 scale. Only set when
	// a genuine nearest-neighbour query produced the result.
	Similarity *float64 `json:"similarity,omitempty"`
}

// ToSearchResult projects a Compound into its search representation.
func (c *Compound) ToSearchResult() CompoundSearchResult {
	return CompoundSearchResult{
		ID:              c.ID,
		CID:             c.CID,
		Name:            c.Name,
		IUPACName:       c.IUPACName,
		Formula:         c.Formula,
		MolecularWeight: c.MolecularWeight,
		InChIKey:        c.InChIKey,
		Description:     c.Description,
		ImageURL:        c.ImageURL,
		ChemicalClass:   c.ChemicalClass,
	}
}
