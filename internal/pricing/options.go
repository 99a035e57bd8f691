package pricing

// Kind decides how an option contributes to the reservation total.
type Kind int

const (
	// KindTiered: quantity * unit price, or the flat x4 price from 4 units up.
	KindTiered Kind = iota
	// KindLinear: quantity * unit price, no tier.
	KindLinear
	// KindFlat: fixed fee when selected.
	KindFlat
	// KindPremiumWash: price resolved from the booked formula.
	KindPremiumWash
	// KindQuote: priced on quote, never added to the total.
	KindQuote
)

type Key string

const (
	BaumeSieges              Key = "baume_sieges"
	PressingSieges           Key = "pressing_sieges"
	PressingTapis            Key = "pressing_tapis"
	PressingPanneauPorte     Key = "pressing_panneau_porte"
	RenovPhare               Key = "renov_phare"
	PressingCoffrePlafonnier Key = "pressing_coffre_plafonnier"
	AssaisonnementOzone      Key = "assaisonnement_ozone"
	LavagePremium            Key = "lavage_premium"
	RenovChrome              Key = "renov_chrome"
	Polissage                Key = "polissage"
	Lustrage                 Key = "lustrage"
)

type Definition struct {
	Key   Key
	Label string
	Kind  Kind
}

// Catalog is the ordered list of options a reservation can carry.
var Catalog = []Definition{
	{Key: BaumeSieges, Label: "Baume sièges", Kind: KindTiered},
	{Key: PressingSieges, Label: "Pressing sièges", Kind: KindTiered},
	{Key: PressingTapis, Label: "Pressing tapis", Kind: KindTiered},
	{Key: PressingPanneauPorte, Label: "Pressing panneaux de porte", Kind: KindTiered},
	{Key: RenovPhare, Label: "Rénovation phares", Kind: KindTiered},
	{Key: PressingCoffrePlafonnier, Label: "Pressing coffre / plafonnier", Kind: KindLinear},
	{Key: AssaisonnementOzone, Label: "Assainissement ozone", Kind: KindFlat},
	{Key: LavagePremium, Label: "Lavage premium", Kind: KindPremiumWash},
	{Key: RenovChrome, Label: "Rénovation chromes", Kind: KindQuote},
	{Key: Polissage, Label: "Polissage", Kind: KindQuote},
	{Key: Lustrage, Label: "Lustrage", Kind: KindQuote},
}

// QuantityOption backs tiered and linear options.
type QuantityOption struct {
	Quantity  int      `json:"quantity" bson:"quantity"`
	UnitPrice float64  `json:"prix_unitaire" bson:"prix_unitaire"`
	PriceX4   *float64 `json:"prix_x4,omitempty" bson:"prix_x4,omitempty"`
}

// ToggleOption backs flat, premium wash and quote-only options.
type ToggleOption struct {
	Selected    bool     `json:"selected" bson:"selected"`
	Price       *float64 `json:"prix,omitempty" bson:"prix,omitempty"`
	CustomPrice *float64 `json:"prix_personnalise,omitempty" bson:"prix_personnalise,omitempty"`
}

// Options is the option bag of a reservation. Each key has exactly one
// shape, so resolution is checked against Catalog rather than guessed from
// the payload.
type Options struct {
	BaumeSieges              *QuantityOption `json:"baume_sieges,omitempty" bson:"baume_sieges,omitempty"`
	PressingSieges           *QuantityOption `json:"pressing_sieges,omitempty" bson:"pressing_sieges,omitempty"`
	PressingTapis            *QuantityOption `json:"pressing_tapis,omitempty" bson:"pressing_tapis,omitempty"`
	PressingPanneauPorte     *QuantityOption `json:"pressing_panneau_porte,omitempty" bson:"pressing_panneau_porte,omitempty"`
	RenovPhare               *QuantityOption `json:"renov_phare,omitempty" bson:"renov_phare,omitempty"`
	PressingCoffrePlafonnier *QuantityOption `json:"pressing_coffre_plafonnier,omitempty" bson:"pressing_coffre_plafonnier,omitempty"`
	AssaisonnementOzone      *ToggleOption   `json:"assaisonnement_ozone,omitempty" bson:"assaisonnement_ozone,omitempty"`
	LavagePremium            *ToggleOption   `json:"lavage_premium,omitempty" bson:"lavage_premium,omitempty"`
	RenovChrome              *ToggleOption   `json:"renov_chrome,omitempty" bson:"renov_chrome,omitempty"`
	Polissage                *ToggleOption   `json:"polissage,omitempty" bson:"polissage,omitempty"`
	Lustrage                 *ToggleOption   `json:"lustrage,omitempty" bson:"lustrage,omitempty"`
}

func (o Options) quantity(key Key) *QuantityOption {
	switch key {
	case BaumeSieges:
		return o.BaumeSieges
	case PressingSieges:
		return o.PressingSieges
	case PressingTapis:
		return o.PressingTapis
	case PressingPanneauPorte:
		return o.PressingPanneauPorte
	case RenovPhare:
		return o.RenovPhare
	case PressingCoffrePlafonnier:
		return o.PressingCoffrePlafonnier
	}
	return nil
}

func (o Options) toggle(key Key) *ToggleOption {
	switch key {
	case AssaisonnementOzone:
		return o.AssaisonnementOzone
	case LavagePremium:
		return o.LavagePremium
	case RenovChrome:
		return o.RenovChrome
	case Polissage:
		return o.Polissage
	case Lustrage:
		return o.Lustrage
	}
	return nil
}

// Active reports whether the option was picked: a positive quantity or a
// selected toggle.
func (o Options) Active(def Definition) bool {
	switch def.Kind {
	case KindTiered, KindLinear:
		q := o.quantity(def.Key)
		return q != nil && q.Quantity > 0
	default:
		t := o.toggle(def.Key)
		return t != nil && t.Selected
	}
}

// Normalize clamps negative quantities and prices to zero.
func (o *Options) Normalize() {
	for _, q := range []*QuantityOption{o.BaumeSieges, o.PressingSieges, o.PressingTapis, o.PressingPanneauPorte, o.RenovPhare, o.PressingCoffrePlafonnier} {
		if q == nil {
			continue
		}
		if q.Quantity < 0 {
			q.Quantity = 0
		}
		if q.UnitPrice < 0 {
			q.UnitPrice = 0
		}
		clampPtr(q.PriceX4)
	}
	for _, t := range []*ToggleOption{o.AssaisonnementOzone, o.LavagePremium, o.RenovChrome, o.Polissage, o.Lustrage} {
		if t == nil {
			continue
		}
		clampPtr(t.Price)
		clampPtr(t.CustomPrice)
	}
}

func clampPtr(v *float64) {
	if v != nil && *v < 0 {
		*v = 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindTiered:
		return "tiered"
	case KindLinear:
		return "linear"
	case KindFlat:
		return "flat"
	case KindPremiumWash:
		return "premium_wash"
	case KindQuote:
		return "quote"
	}
	return "unknown"
}
