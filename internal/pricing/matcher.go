package pricing

import "strings"

const (
	CategoryPetiteCitadine = "petite-citadine"
	CategoryCitadine       = "citadine"
	CategoryBerline        = "berline"
	CategorySUV            = "suv"
)

var Categories = []string{CategoryPetiteCitadine, CategoryCitadine, CategoryBerline, CategorySUV}

// Order matters: "petite citadine" must be recognized before "citadine".
var synonyms = []struct {
	category string
	terms    []string
}{
	{CategoryPetiteCitadine, []string{"petite-citadine", "petite citadine", "petite_citadine"}},
	{CategoryCitadine, []string{"citadine"}},
	{CategoryBerline, []string{"berline"}},
	{CategorySUV, []string{"suv 4x4", "suv_4x4", "suv", "4x4"}},
}

func IsCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}

// CanonicalCategory maps a free-text vehicle type to a category key.
func CanonicalCategory(vehicleType string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(vehicleType))
	if v == "" {
		return "", false
	}
	for _, s := range synonyms {
		for _, term := range s.terms {
			if v == term {
				return s.category, true
			}
		}
	}
	for _, s := range synonyms {
		for _, term := range s.terms {
			if strings.Contains(v, term) {
				return s.category, true
			}
		}
	}
	return "", false
}

func categoryTerms(category string) []string {
	for _, s := range synonyms {
		if s.category == category {
			return s.terms
		}
	}
	return nil
}

// MatchPremiumWashPrice finds the premium wash price that applies to a
// vehicle type. Lookup order: a formula of the same category, a formula
// whose name contains one of the category's synonyms, any formula with a
// premium price, then fallback.
func MatchPremiumWashPrice(vehicleType string, formulas []FormulaPrice, fallback float64) float64 {
	category, ok := CanonicalCategory(vehicleType)
	if ok {
		for _, f := range formulas {
			if f.PremiumPrice != nil && f.Category == category {
				return *f.PremiumPrice
			}
		}
		terms := categoryTerms(category)
		for _, f := range formulas {
			if f.PremiumPrice == nil {
				continue
			}
			name := strings.ToLower(f.Name)
			for _, term := range terms {
				if strings.Contains(name, term) {
					return *f.PremiumPrice
				}
			}
		}
	}
	for _, f := range formulas {
		if f.PremiumPrice != nil {
			return *f.PremiumPrice
		}
	}
	return fallback
}
