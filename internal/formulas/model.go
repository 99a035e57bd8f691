package formulas

import (
	"time"

	"ladla-backend/internal/pricing"
)

// Formula is a service package sold for one vehicle category.
type Formula struct {
	ID                string    `bson:"_id,omitempty" json:"id"`
	Category          string    `bson:"category" json:"category"`
	Nom               string    `bson:"nom" json:"nom"`
	Prix              float64   `bson:"prix" json:"prix"`
	Duree             string    `bson:"duree" json:"duree"`
	Icone             string    `bson:"icone" json:"icone"`
	Services          []string  `bson:"services" json:"services"`
	LavagePremium     bool      `bson:"lavage_premium" json:"lavage_premium"`
	LavagePremiumPrix *float64  `bson:"lavage_premium_prix" json:"lavage_premium_prix"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}

func (f Formula) PriceInfo() pricing.FormulaPrice {
	return pricing.FormulaPrice{
		Name:         f.Nom,
		Category:     f.Category,
		Price:        f.Prix,
		PremiumPrice: f.LavagePremiumPrix,
	}
}

type UpsertRequest struct {
	Nom               string   `json:"nom" validate:"required,max=120"`
	Prix              *float64 `json:"prix" validate:"required,gte=0"`
	Duree             string   `json:"duree" validate:"required,max=40"`
	Icone             string   `json:"icone" validate:"max=80"`
	Services          []string `json:"services" validate:"omitempty,dive,required"`
	LavagePremium     bool     `json:"lavage_premium"`
	LavagePremiumPrix *float64 `json:"lavage_premium_prix" validate:"omitempty,gte=0"`
}

// PremiumPriceRequest is the single-field PUT body. A null price clears it.
type PremiumPriceRequest struct {
	LavagePremiumPrix *float64 `json:"lavage_premium_prix" validate:"omitempty,gte=0"`
}
