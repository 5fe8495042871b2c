package normalizer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
)

// PUG REST full-record payload: a PC_Compounds collection of records
// with structured identifiers and typed property lists, optionally
// accompanied by a synonym information list.

type pugRESTPayload struct {
	Compounds       []pugRESTCompound `json:"PC_Compounds"`
	InformationList *pugRESTInfoList  `json:"InformationList"`
}

type pugRESTCompound struct {
	ID    pugRESTID     `json:"id"`
	Props []pugRESTProp `json:"props"`
}

type pugRESTID struct {
	ID struct {
		CID int64 `json:"cid"`
	} `json:"id"`
}

// pugRESTProp is one typed property. The URN label (plus name, for
// multi-variant labels like IUPAC Name) identifies the field; the value
// carries exactly one populated typed slot.
type pugRESTProp struct {
	URN struct {
		Label string `json:"label"`
		Name  string `json:"name"`
	} `json:"urn"`
	Value struct {
		SVal *string  `json:"sval"`
		FVal *float64 `json:"fval"`
		IVal *int64   `json:"ival"`
	} `json:"value"`
}

type pugRESTInfoList struct {
	Information []struct {
		CID     int64    `json:"CID"`
		Synonym []string `json:"Synonym"`
	} `json:"Information"`
}

// normalizePUGREST extracts the first record of the collection.
func normalizePUGREST(raw json.RawMessage) (*domain.Compound, error) {
	var payload pugRESTPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: PC_Compounds: %v", domain.ErrUnrecognizedFormat, err)
	}
	if len(payload.Compounds) == 0 {
		return nil, fmt.Errorf("%w: empty PC_Compounds collection", domain.ErrUnrecognizedFormat)
	}

	record := payload.Compounds[0]
	cid := record.ID.ID.CID
	if cid == 0 {
		return nil, domain.ErrMissingCID
	}

	compound := &domain.Compound{CID: cid}
	for _, prop := range record.Props {
		applyProp(compound, prop)
	}

	// The first synonym of the first synonym group names the compound;
	// the full group becomes Synonyms.
	if payload.InformationList != nil && len(payload.InformationList.Information) > 0 {
		synonyms := payload.InformationList.Information[0].Synonym
		if len(synonyms) > 0 {
			compound.Name = synonyms[0]
			compound.Synonyms = synonyms
		}
	}

	return compound, nil
}

// applyProp maps one typed property onto the canonical record. String
// fields read sval and numeric fields read fval/ival; a value in the
// wrong slot is ignored rather than coerced, except molecular weight,
// which upstream serves as a numeric string in newer payloads.
func applyProp(c *domain.Compound, prop pugRESTProp) {
	label := prop.URN.Label
	switch label {
	case "IUPAC Name":
		// Several IUPAC name variants appear; the preferred one wins,
		// otherwise the first seen is kept.
		if s := prop.Value.SVal; s != nil {
			if prop.URN.Name == "Preferred" || c.IUPACName == "" {
				c.IUPACName = *s
			}
		}
	case "Molecular Formula":
		if s := prop.Value.SVal; s != nil {
			c.Formula = *s
		}
	case "Molecular Weight":
		if f := prop.Value.FVal; f != nil {
			c.MolecularWeight = f
		} else if s := prop.Value.SVal; s != nil {
			if w, err := strconv.ParseFloat(strings.TrimSpace(*s), 64); err == nil {
				c.MolecularWeight = &w
			}
		}
	case "InChI":
		if s := prop.Value.SVal; s != nil && c.InChI == "" {
			c.InChI = *s
		}
	case "InChIKey":
		if s := prop.Value.SVal; s != nil && c.InChIKey == "" {
			c.InChIKey = *s
		}
	case "SMILES":
		// Canonical/Absolute/Isomeric variants; first seen wins.
		if s := prop.Value.SVal; s != nil && c.SMILES == "" {
			c.SMILES = *s
		}
	default:
		applyExtraProp(c, prop)
	}
}

// applyExtraProp files numeric properties with no canonical slot
// (complexity, xlogp, bond counts, ...) under Properties.
func applyExtraProp(c *domain.Compound, prop pugRESTProp) {
	key := propertyKey(prop.URN.Label, prop.URN.Name)
	if key == "" {
		return
	}
	var value any
	switch {
	case prop.Value.FVal != nil:
		value = *prop.Value.FVal
	case prop.Value.IVal != nil:
		value = *prop.Value.IVal
	default:
		return
	}
	if c.Properties == nil {
		c.Properties = make(map[string]any)
	}
	c.Properties[key] = value
}

// propertyKey derives a snake_case Properties key from a URN label and
// name, e.g. ("Count", "Hydrogen Bond Acceptor") -> "count_hydrogen_bond_acceptor".
func propertyKey(label, name string) string {
	joined := strings.TrimSpace(label + " " + name)
	if joined == "" {
		return ""
	}
	return strings.ToLower(strings.Join(strings.Fields(joined), "_"))
}
