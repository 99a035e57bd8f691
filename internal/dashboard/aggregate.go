package dashboard

import (
	"math"
	"sort"
	"strings"
	"time"

	"ladla-backend/internal/pricing"
	"ladla-backend/internal/reservations"
	"ladla-backend/internal/schedule"
)

const (
	topFormulas     = 5
	topVehicleTypes = 4
	topCombinations = 8

	unknownFormula = "non-specifie"
)

var vehicleLabels = map[string]string{
	pricing.CategoryPetiteCitadine: "Petite citadine",
	pricing.CategoryCitadine:       "Citadine",
	pricing.CategoryBerline:        "Berline",
	pricing.CategorySUV:            "SUV / 4x4",
}

type Count struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Stats struct {
	Year            int                     `json:"year"`
	Month           int                     `json:"month"`
	Total           int                     `json:"total"`
	Revenue         float64                 `json:"revenue"`
	AverageBasket   float64                 `json:"average_basket"`
	ByStatus        map[schedule.Status]int `json:"by_status"`
	TopFormulas     []Count                 `json:"top_formulas"`
	TopVehicleTypes []Count                 `json:"top_vehicle_types"`
	TopCombinations []Count                 `json:"top_combinations"`
}

type MonthSummary struct {
	Month   int     `json:"month"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type YearStats struct {
	Year    int            `json:"year"`
	Total   int            `json:"total"`
	Revenue float64        `json:"revenue"`
	Months  []MonthSummary `json:"months"`
}

// VehicleLabel maps a free-text vehicle type to its display label. Unknown
// types keep their text.
func VehicleLabel(vehicleType string) string {
	if category, ok := pricing.CanonicalCategory(vehicleType); ok {
		return vehicleLabels[category]
	}
	return strings.TrimSpace(vehicleType)
}

// Aggregate computes the statistics of year/month over items. Items dated
// outside that month are ignored. Revenue excludes cancelled reservations.
func Aggregate(items []reservations.Reservation, year, month int) Stats {
	stats := Stats{
		Year:     year,
		Month:    month,
		ByStatus: make(map[schedule.Status]int, 4),
	}
	formulas := make(map[string]int)
	vehicles := make(map[string]int)
	combos := make(map[string]int)
	paid := 0

	for _, r := range items {
		if !schedule.InMonth(r.DateRdv, year, month) {
			continue
		}
		stats.Total++
		stats.ByStatus[r.Status]++
		if r.Status.Blocking() {
			stats.Revenue += r.Prix
			paid++
		}

		formula := strings.TrimSpace(r.Formule)
		if formula == "" {
			formula = unknownFormula
		}
		vehicle := VehicleLabel(r.VehicleType())
		formulas[formula]++
		vehicles[vehicle]++
		combos[formula+" — "+vehicle]++
	}

	stats.Revenue = round(stats.Revenue, 2)
	if paid > 0 {
		stats.AverageBasket = round(stats.Revenue/float64(paid), 2)
	}
	stats.TopFormulas = top(formulas, stats.Total, topFormulas)
	stats.TopVehicleTypes = top(vehicles, stats.Total, topVehicleTypes)
	stats.TopCombinations = top(combos, stats.Total, topCombinations)
	return stats
}

// YearSummary returns count and revenue for each month of year.
func YearSummary(items []reservations.Reservation, year int) YearStats {
	out := YearStats{Year: year, Months: make([]MonthSummary, 12)}
	for i := range out.Months {
		out.Months[i].Month = i + 1
	}
	for _, r := range items {
		d, err := schedule.ParseDate(r.DateRdv, time.UTC)
		if err != nil || d.Year() != year {
			continue
		}
		m := &out.Months[d.Month()-1]
		m.Count++
		out.Total++
		if r.Status.Blocking() {
			m.Revenue += r.Prix
			out.Revenue += r.Prix
		}
	}
	for i := range out.Months {
		out.Months[i].Revenue = round(out.Months[i].Revenue, 2)
	}
	out.Revenue = round(out.Revenue, 2)
	return out
}

// top sorts by count descending then label, and keeps the first n.
func top(counts map[string]int, total, n int) []Count {
	out := make([]Count, 0, len(counts))
	for label, c := range counts {
		out = append(out, Count{Label: label, Count: c, Percentage: percentage(c, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round(float64(count)*100/float64(total), 1)
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
