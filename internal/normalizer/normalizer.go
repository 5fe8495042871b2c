package normalizer

import (
	"encoding/json"
	"fmt"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
)

// probe sniffs the discriminating keys of the known upstream shapes.
type probe struct {
	PCCompounds json.RawMessage `json:"PC_Compounds"`
	Record      json.RawMessage `json:"Record"`
	CID         json.RawMessage `json:"cid"`
	CIDUpper    json.RawMessage `json:"CID"`
}

// Normalize maps one parsed JSON compound record of unknown shape into
// exactly one canonical Compound in pre-insert form (no surrogate ID),
// or fails. It never produces a partial record from an unrecognised
// shape.
func Normalize(raw json.RawMessage) (*domain.Compound, error) {
	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnrecognizedFormat, err)
	}

	var (
		compound *domain.Compound
		err      error
	)
	switch {
	case len(p.PCCompounds) > 0:
		compound, err = normalizePUGREST(raw)
	case len(p.Record) > 0:
		compound, err = normalizePUGView(raw)
	case len(p.CID) > 0 || len(p.CIDUpper) > 0:
		compound, err = normalizeFlat(raw)
	default:
		return nil, domain.ErrUnrecognizedFormat
	}
	if err != nil {
		return nil, err
	}

	finalize(compound)
	return compound, nil
}

// finalize applies the post-processing shared by all formats: image URL
// and name defaults, and formula-derived classification when the source
// carried no explicit classes.
func finalize(c *domain.Compound) {
	c.ApplyDefaults()
	if len(c.ChemicalClass) == 0 {
		c.ChemicalClass = DeriveChemicalClass(c.Formula)
	}
	if len(c.Synonyms) == 0 {
		c.Synonyms = nil
	}
	if len(c.ChemicalClass) == 0 {
		c.ChemicalClass = nil
	}
}
