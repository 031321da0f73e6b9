package model

import "time"

const (
	PortePequeno = "PEQUENO"
	PorteMedio   = "MEDIO"
	PorteGrande  = "GRANDE"

	SexoMacho = "MACHO"
	SexoFemea = "FEMEA"
)

type Pet struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Nome        string    `json:"nome" bson:"nome" validate:"required,min=2,max=50"`
	Especie     string    `json:"especie" bson:"especie" validate:"required,min=2,max=20"`
	Idade       string    `json:"idade" bson:"idade" validate:"required,max=20"`
	OngID       string    `json:"ongId" bson:"ong_id" validate:"required,mongodb"`
	Descricao   string    `json:"descricao,omitempty" bson:"descricao" validate:"omitempty,max=500"`
	Cor         string    `json:"cor" bson:"cor" validate:"required,max=30"`
	Raca        string    `json:"raca" bson:"raca" validate:"required,min=2,max=50"`
	Porte       string    `json:"porte" bson:"porte" validate:"required,oneof=PEQUENO MEDIO GRANDE"`
	Sexo        string    `json:"sexo" bson:"sexo" validate:"required,oneof=MACHO FEMEA"`
	Castrado    bool      `json:"castrado" bson:"castrado"`
	Vacinado    bool      `json:"vacinado" bson:"vacinado"`
	Vermifugado bool      `json:"vermifugado" bson:"vermifugado"`
	Adotado     bool      `json:"adotado" bson:"adotado"`
	CreatedAt   time.Time `json:"createdAt,omitempty" bson:"created_at" validate:"omitempty"`
}
