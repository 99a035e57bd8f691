package newsletter

import "time"

type Status string

const (
	StatusActive       Status = "active"
	StatusInactive     Status = "inactive"
	StatusUnsubscribed Status = "unsubscribed"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusActive, StatusInactive, StatusUnsubscribed:
		return Status(s), true
	}
	return "", false
}

type Subscriber struct {
	ID             string     `bson:"_id,omitempty" json:"id"`
	Email          string     `bson:"email" json:"email"`
	Nom            string     `bson:"nom,omitempty" json:"nom,omitempty"`
	Status         Status     `bson:"status" json:"status"`
	SubscribedAt   time.Time  `bson:"subscribed_at" json:"subscribed_at"`
	UnsubscribedAt *time.Time `bson:"unsubscribed_at,omitempty" json:"unsubscribed_at,omitempty"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at" json:"updated_at"`
}

type Stats struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	Inactive     int64 `json:"inactive"`
	Unsubscribed int64 `json:"unsubscribed"`
}

type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Nom   string `json:"nom" validate:"max=120"`
}

type UnsubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive unsubscribed"`
}

type IDsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500,dive,required"`
}
