package model

import "time"

// Shelter (ONG) owns its schedule rules and exceptions; deleting a shelter
// cascades to both.
type Shelter struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Nome      string    `json:"nome" bson:"nome" validate:"required,min=2,max=100"`
	CNPJ      string    `json:"cnpj" bson:"cnpj" validate:"required,len=14,numeric"`
	Telefone  string    `json:"telefone" bson:"telefone" validate:"required,min=10,max=11,numeric"`
	Email     string    `json:"email" bson:"email" validate:"required,email"`
	Site      string    `json:"site,omitempty" bson:"site" validate:"omitempty,max=100"`
	Endereco  string    `json:"endereco" bson:"endereco" validate:"required,min=2,max=200"`
	Cidade    string    `json:"cidade" bson:"cidade" validate:"required,min=2,max=50"`
	Estado    string    `json:"estado" bson:"estado" validate:"required,len=2"`
	CEP       string    `json:"cep" bson:"cep" validate:"required,len=8,numeric"`
	CreatedAt time.Time `json:"createdAt,omitempty" bson:"created_at" validate:"omitempty"`
}

// ShelterCreate is the POST /ongs payload: the shelter plus its optional
// weekly rules, written all-or-nothing in one transaction.
type ShelterCreate struct {
	Shelter  `bson:",inline"`
	// Rules are validated individually after the shelter ID is assigned.
	Horarios []ScheduleRule `json:"horarios,omitempty" bson:"-" validate:"omitempty,max=7"`
}
