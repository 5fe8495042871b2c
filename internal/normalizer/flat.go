package normalizer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
)

// Flat/direct format: the object already exposes cid and name directly.
// Both camelCase and snake_case key variants are accepted; everything
// downstream of the normaliser sees only the canonical field set.

func normalizeFlat(raw json.RawMessage) (*domain.Compound, error) {
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("%w: flat record: %v", domain.ErrUnrecognizedFormat, err)
	}

	cid, ok := pickInt(record, "cid", "CID")
	if !ok || cid == 0 {
		return nil, domain.ErrMissingCID
	}

	compound := &domain.Compound{
		CID:         cid,
		Name:        pickString(record, "name", "Name"),
		IUPACName:   pickString(record, "iupacName", "iupac_name"),
		Formula:     pickString(record, "formula", "molecularFormula", "molecular_formula"),
		InChI:       pickString(record, "inchi", "InChI"),
		InChIKey:    pickString(record, "inchiKey", "inchi_key"),
		SMILES:      pickString(record, "smiles", "SMILES"),
		Description: pickString(record, "description"),
		ImageURL:    pickString(record, "imageUrl", "image_url"),
	}

	if w, ok := pickFloat(record, "molecularWeight", "molecular_weight"); ok {
		compound.MolecularWeight = &w
	}
	compound.Synonyms = pickStringSlice(record, "synonyms")
	compound.ChemicalClass = pickStringSlice(record, "chemicalClass", "chemical_class")
	if props, ok := record["properties"].(map[string]any); ok && len(props) > 0 {
		compound.Properties = props
	}

	return compound, nil
}

// pickString returns the first present string value among the keys.
func pickString(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := record[key].(string); ok {
			return s
		}
	}
	return ""
}

// pickInt returns the first present integer among the keys, coercing
// JSON numbers and numeric strings.
func pickInt(record map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		switch v := record[key].(type) {
		case float64:
			return int64(v), true
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// pickFloat returns the first present float among the keys, coercing
// numeric strings.
func pickFloat(record map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := record[key].(type) {
		case float64:
			return v, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// pickStringSlice returns the first present string list among the keys.
func pickStringSlice(record map[string]any, keys ...string) []string {
	for _, key := range keys {
		list, ok := record[key].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
