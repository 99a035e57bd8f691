package reservations

import (
	"strings"
	"time"

	"ladla-backend/internal/pricing"
	"ladla-backend/internal/schedule"
)

// DefaultVehicleType labels reservations whose vehicle type was never
// recorded.
const DefaultVehicleType = "non-specifie"

type Reservation struct {
	ID             string          `bson:"_id,omitempty" json:"id"`
	Prenom         string          `bson:"prenom" json:"prenom"`
	Nom            string          `bson:"nom" json:"nom"`
	Email          string          `bson:"email" json:"email"`
	Telephone      string          `bson:"telephone" json:"telephone"`
	Adresse        string          `bson:"adresse" json:"adresse"`
	TypeVoiture    string          `bson:"type_voiture" json:"type_voiture"`
	MarqueVoiture  string          `bson:"marque_voiture" json:"marque_voiture"`
	Formule        string          `bson:"formule" json:"formule"`
	PrixBase       float64         `bson:"prix_base" json:"prix_base"`
	PrixOptions    float64         `bson:"prix_options" json:"prix_options"`
	Prix           float64         `bson:"prix" json:"prix"`
	DateRdv        string          `bson:"date_rdv" json:"date_rdv"`
	HeureRdv       string          `bson:"heure_rdv" json:"heure_rdv"`
	Status         schedule.Status `bson:"status" json:"status"`
	Commentaires   string          `bson:"commentaires" json:"commentaires"`
	Options        pricing.Options `bson:"options" json:"options"`
	OptionsSummary []string        `bson:"options_resume" json:"options_resume"`
	CreatedAt      time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `bson:"updated_at" json:"updated_at"`

	// Older documents stored the vehicle type under other keys.
	LegacyTypeVoiture  string `bson:"typeVoiture,omitempty" json:"-"`
	LegacyTypeVehicule string `bson:"type_vehicule,omitempty" json:"-"`
	LegacyVehicule     string `bson:"vehicule,omitempty" json:"-"`
}

// VehicleType returns the first populated vehicle type field, canonical
// key first.
func (r Reservation) VehicleType() string {
	for _, v := range []string{r.TypeVoiture, r.LegacyTypeVoiture, r.LegacyTypeVehicule, r.LegacyVehicule} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return DefaultVehicleType
}

func (r Reservation) Entry() schedule.Entry {
	return schedule.Entry{ID: r.ID, Date: r.DateRdv, Time: r.HeureRdv}
}

type CreateRequest struct {
	Prenom        string          `json:"prenom" validate:"required,max=80"`
	Nom           string          `json:"nom" validate:"required,max=80"`
	Email         string          `json:"email" validate:"required,email,max=254"`
	Telephone     string          `json:"telephone" validate:"required,phone"`
	Adresse       string          `json:"adresse" validate:"max=300"`
	TypeVoiture   string          `json:"type_voiture" validate:"required,max=60"`
	MarqueVoiture string          `json:"marque_voiture" validate:"max=80"`
	Formule       string          `json:"formule" validate:"required,max=120"`
	Prix          *float64        `json:"prix" validate:"omitempty,gte=0"`
	DateRdv       string          `json:"date_rdv" validate:"required,date"`
	HeureRdv      string          `json:"heure_rdv" validate:"required,slot"`
	Commentaires  string          `json:"commentaires" validate:"max=2000"`
	Options       pricing.Options `json:"options"`
}

// QuoteRequest prices a booking without storing it.
type QuoteRequest struct {
	TypeVoiture string          `json:"type_voiture" validate:"max=60"`
	Formule     string          `json:"formule" validate:"max=120"`
	Prix        *float64        `json:"prix" validate:"omitempty,gte=0"`
	Options     pricing.Options `json:"options"`
}

type Quote struct {
	PrixBase    float64        `json:"prix_base"`
	PrixOptions float64        `json:"prix_options"`
	Prix        float64        `json:"prix"`
	Lines       []pricing.Line `json:"lines"`
	Summary     []string       `json:"summary"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

// Calendar is the admin week view: the grid plus the reservations it
// points to.
type Calendar struct {
	Week         schedule.Week `json:"week"`
	Reservations []Reservation `json:"reservations"`
}

// Availability is the public week view. It never carries personal data.
type Availability struct {
	Start string              `json:"start"`
	End   string              `json:"end"`
	Slots []string            `json:"slots"`
	Free  map[string][]string `json:"free"`
}

// Detail is a reservation with the statuses it may move to.
type Detail struct {
	Reservation
	Transitions []schedule.Status `json:"transitions"`
}
