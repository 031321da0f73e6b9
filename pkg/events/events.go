package events

import "time"

const (
	TypeVisitCreated       = "visita.criada"
	TypeVisitStatusChanged = "visita.status_alterado"
)

// VisitEvent is published on visit lifecycle changes so downstream
// consumers (notifications, analytics) can react without polling.
type VisitEvent struct {
	Type       string    `json:"type"`
	VisitaID   string    `json:"visitaId"`
	ClienteID  string    `json:"clienteId"`
	PetID      string    `json:"petId"`
	OngID      string    `json:"ongId,omitempty"`
	Data       string    `json:"data"`
	Horario    string    `json:"horario"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}
