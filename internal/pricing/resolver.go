package pricing

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultPremiumWashFallback = 120.0
	DefaultOzonePrice          = 30.0
	tierQuantity               = 4
)

// FormulaPrice is the part of a formula the resolver needs.
type FormulaPrice struct {
	Name         string
	Category     string
	Price        float64
	PremiumPrice *float64
}

// Context carries what the option prices depend on besides the options
// themselves: the booked formula name and the formulas it may match.
type Context struct {
	Formula  string
	Formulas []FormulaPrice
}

type Line struct {
	Key      Key     `json:"key"`
	Label    string  `json:"label"`
	Quantity int     `json:"quantity,omitempty"`
	Price    float64 `json:"prix"`
	OnQuote  bool    `json:"sur_devis,omitempty"`
}

type Resolver struct {
	FallbackPremiumPrice float64
	DefaultOzonePrice    float64
}

func NewResolver(fallbackPremium, ozone float64) *Resolver {
	return &Resolver{
		FallbackPremiumPrice: fallbackPremium,
		DefaultOzonePrice:    ozone,
	}
}

// OptionPrice computes the price of a single option independently of every
// other option.
func (r *Resolver) OptionPrice(def Definition, opts Options, ctx Context) float64 {
	switch def.Kind {
	case KindTiered:
		return tieredPrice(opts.quantity(def.Key))
	case KindLinear:
		return linearPrice(opts.quantity(def.Key))
	case KindFlat:
		t := opts.toggle(def.Key)
		if t == nil || !t.Selected {
			return 0
		}
		if t.Price != nil {
			return nonNegative(*t.Price)
		}
		return r.DefaultOzonePrice
	case KindPremiumWash:
		t := opts.toggle(def.Key)
		if t == nil || !t.Selected {
			return 0
		}
		return r.PremiumWashPrice(t, ctx)
	case KindQuote:
		return 0
	}
	return 0
}

// PremiumWashPrice resolves the premium wash price: the price configured on
// the booked formula, then the manual override on the option, then the
// fallback.
func (r *Resolver) PremiumWashPrice(opt *ToggleOption, ctx Context) float64 {
	if price, ok := FormulaPremiumPrice(ctx.Formula, ctx.Formulas); ok {
		return price
	}
	if opt != nil {
		if opt.CustomPrice != nil {
			return nonNegative(*opt.CustomPrice)
		}
		if opt.Price != nil {
			return nonNegative(*opt.Price)
		}
	}
	return r.FallbackPremiumPrice
}

// FindFormula returns the formula named name, compared case- and
// space-insensitively.
func FindFormula(name string, formulas []FormulaPrice) (FormulaPrice, bool) {
	want := normalizeName(name)
	if want == "" {
		return FormulaPrice{}, false
	}
	for _, f := range formulas {
		if normalizeName(f.Name) == want {
			return f, true
		}
	}
	return FormulaPrice{}, false
}

// FormulaCategories returns the distinct categories holding a formula named
// name, in first-seen order.
func FormulaCategories(name string, formulas []FormulaPrice) []string {
	want := normalizeName(name)
	if want == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, f := range formulas {
		if normalizeName(f.Name) != want || seen[f.Category] {
			continue
		}
		seen[f.Category] = true
		out = append(out, f.Category)
	}
	return out
}

// FormulaPremiumPrice returns the premium wash price of the formula named
// name, if it has one.
func FormulaPremiumPrice(name string, formulas []FormulaPrice) (float64, bool) {
	f, ok := FindFormula(name, formulas)
	if !ok || f.PremiumPrice == nil {
		return 0, false
	}
	return *f.PremiumPrice, true
}

func (r *Resolver) Breakdown(opts Options, ctx Context) []Line {
	lines := make([]Line, 0, len(Catalog))
	for _, def := range Catalog {
		if !opts.Active(def) {
			continue
		}
		line := Line{Key: def.Key, Label: def.Label, OnQuote: def.Kind == KindQuote}
		if q := opts.quantity(def.Key); q != nil {
			line.Quantity = q.Quantity
		}
		line.Price = roundCents(r.OptionPrice(def, opts, ctx))
		lines = append(lines, line)
	}
	return lines
}

func (r *Resolver) TotalOptionsPrice(opts Options, ctx Context) float64 {
	total := 0.0
	for _, def := range Catalog {
		total += r.OptionPrice(def, opts, ctx)
	}
	return roundCents(total)
}

// Total is the reservation price: base formula price plus every option.
func (r *Resolver) Total(base float64, opts Options, ctx Context) float64 {
	return roundCents(nonNegative(base) + r.TotalOptionsPrice(opts, ctx))
}

// Summary renders one human readable line per active option.
func (r *Resolver) Summary(opts Options, ctx Context) []string {
	lines := r.Breakdown(opts, ctx)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		label := l.Label
		if l.Quantity > 0 {
			label = fmt.Sprintf("%s x%d", l.Label, l.Quantity)
		}
		if l.OnQuote {
			out = append(out, label+" : sur devis")
			continue
		}
		out = append(out, fmt.Sprintf("%s : %.2f €", label, l.Price))
	}
	return out
}

func tieredPrice(q *QuantityOption) float64 {
	if q == nil || q.Quantity <= 0 {
		return 0
	}
	if q.Quantity >= tierQuantity && q.PriceX4 != nil {
		return nonNegative(*q.PriceX4)
	}
	return float64(q.Quantity) * nonNegative(q.UnitPrice)
}

func linearPrice(q *QuantityOption) float64 {
	if q == nil || q.Quantity <= 0 {
		return 0
	}
	return float64(q.Quantity) * nonNegative(q.UnitPrice)
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
