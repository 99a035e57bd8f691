package contact

import "time"

type Status string

const (
	StatusUnread  Status = "unread"
	StatusRead    Status = "read"
	StatusReplied Status = "replied"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusUnread, StatusRead, StatusReplied:
		return Status(s), true
	}
	return "", false
}

type Message struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Nom       string    `bson:"nom" json:"nom"`
	Email     string    `bson:"email" json:"email"`
	Telephone string    `bson:"telephone" json:"telephone"`
	Sujet     string    `bson:"sujet" json:"sujet"`
	Message   string    `bson:"message" json:"message"`
	Status    Status    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type CreateRequest struct {
	Nom       string `json:"nom" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Telephone string `json:"telephone" validate:"omitempty,phone"`
	Sujet     string `json:"sujet" validate:"max=200"`
	Message   string `json:"message" validate:"required,max=5000"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=unread read replied"`
}

type IDsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500,dive,required"`
}
