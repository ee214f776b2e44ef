package ingest

import (
	"strings"

	"catalog-ingestion-service/internal/models"
)

// SplitValues tokenizes a pipe-delimited attribute value list. Tokens are
// trimmed and empty tokens are dropped.
func SplitValues(raw string) []string {
	var out []string
	for _, tok := range strings.Split(raw, "|") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// ExpandVariations computes the full Cartesian product over the attributes
// flagged for variations, preserving attribute order as the dimension order
// and value order as listed in the manifest.
//
// Attributes whose value list tokenizes to nothing contribute no dimension.
// With zero participating attributes the result is empty; no default
// variation is synthesized.
//
// Each variation's SKU is baseSKU plus the uppercased 3-character prefix of
// every selected value, hyphen-joined in attribute order. Distinct value
// combinations can collide on that suffix; the derivation is deliberately
// kept lossy and no deduplication is applied here.
func ExpandVariations(baseSKU string, attributes []models.VariationAttribute) []models.GeneratedVariation {
	var names []string
	var valueLists [][]string
	for _, attr := range attributes {
		if !attr.ForVariations {
			continue
		}
		values := SplitValues(attr.RawValues)
		if len(values) == 0 {
			continue
		}
		names = append(names, attr.Name)
		valueLists = append(valueLists, values)
	}
	if len(valueLists) == 0 {
		return nil
	}

	combinations := cartesian(valueLists)

	variations := make([]models.GeneratedVariation, 0, len(combinations))
	for _, combo := range combinations {
		selections := make([]models.AttributeSelection, len(combo))
		for i, value := range combo {
			selections[i] = models.AttributeSelection{Attribute: names[i], Value: value}
		}
		variations = append(variations, models.GeneratedVariation{
			SKU:        baseSKU + "-" + variationSuffix(combo),
			Selections: selections,
		})
	}
	return variations
}

// cartesian computes the n-ary Cartesian product of the value lists. The
// first list varies slowest so output order follows manifest order.
func cartesian(lists [][]string) [][]string {
	combos := [][]string{{}}
	for _, list := range lists {
		next := make([][]string, 0, len(combos)*len(list))
		for _, combo := range combos {
			for _, value := range list {
				extended := make([]string, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, value))
			}
		}
		combos = next
	}
	return combos
}

// variationSuffix derives the SKU suffix from the first 3 characters of each
// selected value, upper-cased and hyphen-joined.
func variationSuffix(values []string) string {
	parts := make([]string, len(values))
	for i, value := range values {
		runes := []rune(value)
		if len(runes) > 3 {
			runes = runes[:3]
		}
		parts[i] = strings.ToUpper(string(runes))
	}
	return strings.Join(parts, "-")
}
