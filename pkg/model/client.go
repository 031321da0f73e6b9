package model

import "time"

// Client (adopter) IDs are UUIDs issued at registration, unlike the other
// collections which use Mongo ObjectIDs.
type Client struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	Nome      string    `json:"nome" bson:"nome" validate:"required,min=2,max=100"`
	Email     string    `json:"email" bson:"email" validate:"required,email"`
	Telefone  string    `json:"telefone,omitempty" bson:"telefone" validate:"omitempty,min=10,max=11,numeric"`
	Cidade    string    `json:"cidade,omitempty" bson:"cidade" validate:"omitempty,min=2,max=50"`
	CreatedAt time.Time `json:"createdAt,omitempty" bson:"created_at" validate:"omitempty"`
}

const (
	CurtidaLike    = "LIKE"
	CurtidaDislike = "DISLIKE"
)

// Like (curtida) records a client's reaction to a pet. One record per
// (cliente, pet) pair; repeated reactions update the type in place.
type Like struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClienteID string    `json:"clienteId" bson:"cliente_id" validate:"required,uuid4"`
	PetID     string    `json:"petId" bson:"pet_id" validate:"required,mongodb"`
	Tipo      string    `json:"tipo" bson:"tipo" validate:"omitempty,oneof=LIKE DISLIKE"`
	CreatedAt time.Time `json:"createdAt,omitempty" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" bson:"updated_at" validate:"omitempty"`
}

// Match pairs a client LIKE with a confirmed or completed visit for the same
// pet. It is derived by a read-only join, never persisted.
type Match struct {
	ClienteID string    `json:"clienteId"`
	Pet       Pet       `json:"pet"`
	VisitaID  string    `json:"visitaId"`
	Status    string    `json:"status"`
	Data      time.Time `json:"data"`
}
