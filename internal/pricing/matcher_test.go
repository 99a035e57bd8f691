package pricing

import "testing"

func TestCanonicalCategory(t *testing.T) {
	cases := map[string]string{
		"petite-citadine": CategoryPetiteCitadine,
		"Petite Citadine": CategoryPetiteCitadine,
		"petite_citadine": CategoryPetiteCitadine,
		"citadine":        CategoryCitadine,
		"BERLINE":         CategoryBerline,
		"suv":             CategorySUV,
		"SUV 4x4":         CategorySUV,
		"4x4":             CategorySUV,
		"suv_4x4":         CategorySUV,
	}
	for in, want := range cases {
		got, ok := CanonicalCategory(in)
		if !ok || got != want {
			t.Fatalf("CanonicalCategory(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := CanonicalCategory("utilitaire"); ok {
		t.Fatalf("unexpected match for utilitaire")
	}
	if _, ok := CanonicalCategory("  "); ok {
		t.Fatalf("unexpected match for blank input")
	}
}

func TestMatchPremiumWashPrice(t *testing.T) {
	formulas := []FormulaPrice{
		{Name: "Express", Category: CategoryCitadine},
		{Name: "Premium Berline", Category: CategoryBerline, PremiumPrice: ptr(140)},
		{Name: "Premium SUV", PremiumPrice: ptr(180)},
		{Name: "Confort", Category: CategorySUV, PremiumPrice: ptr(170)},
	}

	if got := MatchPremiumWashPrice("berline", formulas, 120); got != 140 {
		t.Fatalf("berline: got %.2f", got)
	}
	// The category field wins over the name.
	if got := MatchPremiumWashPrice("4x4", formulas, 120); got != 170 {
		t.Fatalf("suv: got %.2f", got)
	}
	// No category and no name match: first formula carrying a premium price.
	if got := MatchPremiumWashPrice("citadine", formulas, 120); got != 140 {
		t.Fatalf("citadine: got %.2f", got)
	}
	if got := MatchPremiumWashPrice("camping-car", nil, 120); got != 120 {
		t.Fatalf("fallback: got %.2f", got)
	}
}

func TestMatchPremiumWashPriceByName(t *testing.T) {
	formulas := []FormulaPrice{
		{Name: "Nettoyage complet", PremiumPrice: ptr(90)},
		{Name: "Complet SUV 4x4", PremiumPrice: ptr(160)},
	}
	if got := MatchPremiumWashPrice("suv", formulas, 120); got != 160 {
		t.Fatalf("got %.2f, want 160", got)
	}
}
