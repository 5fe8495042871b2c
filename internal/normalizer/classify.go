package normalizer

// Coarse classification labels derived from a molecular formula when
// upstream data carries no explicit classification.
const (
	ClassOrganic   = "Organic compounds"
	ClassOxygen    = "Oxygen-containing compounds"
	ClassNitrogen  = "Nitrogen-containing compounds"
	ClassSulfur    = "Sulfur-containing compounds"
	ClassInorganic = "Inorganic compounds"
)

// DeriveChemicalClass derives coarse classification labels from a
// molecular formula. A formula with both carbon and hydrogen is organic
// and additionally labelled for oxygen, nitrogen and sulfur content;
// anything else is inorganic. An empty formula derives nothing.
//
// Element tests match whole symbols, not raw substrings: the C in
// "NaCl" is chlorine, not carbon.
func DeriveChemicalClass(formula string) []string {
	if formula == "" {
		return nil
	}

	elements := parseElements(formula)

	if elements["C"] && elements["H"] {
		classes := []string{ClassOrganic}
		if elements["O"] {
			classes = append(classes, ClassOxygen)
		}
		if elements["N"] {
			classes = append(classes, ClassNitrogen)
		}
		if elements["S"] {
			classes = append(classes, ClassSulfur)
		}
		return classes
	}

	return []string{ClassInorganic}
}

// parseElements extracts the element symbols present in a formula:
// an uppercase letter followed by any lowercase letters.
func parseElements(formula string) map[string]bool {
	elements := make(map[string]bool)
	var current []rune
	flush := func() {
		if len(current) > 0 {
			elements[string(current)] = true
			current = current[:0]
		}
	}
	for _, r := range formula {
		switch {
		case r >= 'A' && r <= 'Z':
			flush()
			current = append(current, r)
		case r >= 'a' && r <= 'z':
			if len(current) > 0 {
				current = append(current, r)
			}
		default:
			flush()
		}
	}
	flush()
	return elements
}
