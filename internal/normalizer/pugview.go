package normalizer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/chembase-labs/chemsearch/internal/core/domain"
)

// PUG View hierarchical report: a numeric record identifier plus a
// nested tree of titled sections. Fields are located by section title
// anywhere in the tree, always reading the first informational value
// under a matching section.

type pugViewPayload struct {
	Record pugViewRecord `json:"Record"`
}

type pugViewRecord struct {
	RecordNumber int64            `json:"RecordNumber"`
	RecordTitle  string           `json:"RecordTitle"`
	Section      []pugViewSection `json:"Section"`
}

type pugViewSection struct {
	TOCHeading  string           `json:"TOCHeading"`
	Section     []pugViewSection `json:"Section"`
	Information []pugViewInfo    `json:"Information"`
}

type pugViewInfo struct {
	Name  string       `json:"Name"`
	Value pugViewValue `json:"Value"`
}

type pugViewValue struct {
	StringWithMarkup []struct {
		String string `json:"String"`
	} `json:"StringWithMarkup"`
	Number []float64 `json:"Number"`
}

func normalizePUGView(raw json.RawMessage) (*domain.Compound, error) {
	var payload pugViewPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: Record: %v", domain.ErrUnrecognizedFormat, err)
	}

	record := payload.Record
	if record.RecordNumber == 0 {
		return nil, domain.ErrMissingCID
	}

	compound := &domain.Compound{
		CID:  record.RecordNumber,
		Name: record.RecordTitle,
	}

	compound.Description = firstSectionValue(record.Section, "Record Description")
	compound.IUPACName = firstSectionValue(record.Section, "IUPAC Name")
	compound.InChI = firstSectionValue(record.Section, "InChI")
	compound.InChIKey = firstSectionValue(record.Section, "InChIKey")
	compound.Formula = firstSectionValue(record.Section, "Molecular Formula")

	if smiles := firstSectionValue(record.Section, "SMILES"); smiles != "" {
		compound.SMILES = smiles
	} else {
		compound.SMILES = firstSectionValue(record.Section, "Canonical SMILES")
	}

	// Weight is only assigned when the value parses as a number.
	if raw := firstSectionValue(record.Section, "Molecular Weight"); raw != "" {
		if w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			compound.MolecularWeight = &w
		}
	}

	return compound, nil
}

// firstSectionValue locates the first section titled heading anywhere in
// the tree (depth-first, document order) and returns its first
// informational value, or "".
func firstSectionValue(sections []pugViewSection, heading string) string {
	section := findSection(sections, heading)
	if section == nil {
		return ""
	}
	return firstInfoValue(section.Information)
}

func findSection(sections []pugViewSection, heading string) *pugViewSection {
	for i := range sections {
		if sections[i].TOCHeading == heading {
			return &sections[i]
		}
		if found := findSection(sections[i].Section, heading); found != nil {
			return found
		}
	}
	return nil
}

func firstInfoValue(infos []pugViewInfo) string {
	for _, info := range infos {
		if len(info.Value.StringWithMarkup) > 0 {
			if s := info.Value.StringWithMarkup[0].String; s != "" {
				return s
			}
		}
		if len(info.Value.Number) > 0 {
			return strconv.FormatFloat(info.Value.Number[0], 'f', -1, 64)
		}
	}
	return ""
}
