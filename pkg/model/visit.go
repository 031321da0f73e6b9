package model

import "time"

// Visit statuses follow the shelter-facing lifecycle:
// PENDENTE -> CONFIRMADA -> CONCLUIDA, with CANCELADA reachable from
// PENDENTE or CONFIRMADA. CONCLUIDA and CANCELADA are terminal.
const (
	VisitPendente   = "PENDENTE"
	VisitConfirmada = "CONFIRMADA"
	VisitConcluida  = "CONCLUIDA"
	VisitCancelada  = "CANCELADA"
)

// ActiveVisitStatuses are the states that hold a slot's capacity and block a
// duplicate booking for the same (cliente, pet) pair.
var ActiveVisitStatuses = []string{VisitPendente, VisitConfirmada}

// OccupancyStatuses are the states counted by the occupancy report.
var OccupancyStatuses = []string{VisitPendente, VisitConfirmada, VisitConcluida}

// Visit is a scheduled appointment between a client and a pet at a shelter.
// OngID is denormalized from the pet so capacity counts stay a single
// indexed query.
type Visit struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClienteID string    `json:"clienteId" bson:"cliente_id" validate:"required,uuid4"`
	PetID     string    `json:"petId" bson:"pet_id" validate:"required,mongodb"`
	OngID     string    `json:"ongId,omitempty" bson:"ong_id" validate:"omitempty,mongodb"`
	Data      time.Time `json:"data" bson:"data" validate:"required"`
	Horario   string    `json:"horario" bson:"horario" validate:"required,hhmm"`
	Status    string    `json:"status" bson:"status" validate:"omitempty,oneof=PENDENTE CONFIRMADA CONCLUIDA CANCELADA"`
	CreatedAt time.Time `json:"createdAt,omitempty" bson:"created_at" validate:"omitempty"`
}

// VisitWithContext attaches the display names a booking response carries.
type VisitWithContext struct {
	Visit       `bson:",inline"`
	ClienteNome string `json:"clienteNome,omitempty" bson:"-"`
	PetNome     string `json:"petNome,omitempty" bson:"-"`
	OngNome     string `json:"ongNome,omitempty" bson:"-"`
}

// VisitStatusUpdate is the PATCH /visitas/:id/status payload.
type VisitStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=PENDENTE CONFIRMADA CONCLUIDA CANCELADA"`
}

// SlotLock is an advisory lock that serializes booking attempts for a single
// (shelter, date, horario) slot. Its _id is the slot key, so a concurrent
// insert fails with a duplicate key error and the competitor backs off and
// retries. ExpiresAt backs a TTL index so a crashed holder cannot wedge the
// slot.
type SlotLock struct {
	ID        string    `json:"id" bson:"_id"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expires_at"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// ValidVisitTransition reports whether a status change is allowed.
func ValidVisitTransition(from, to string) bool {
	switch from {
	case VisitPendente:
		return to == VisitConfirmada || to == VisitCancelada
	case VisitConfirmada:
		return to == VisitConcluida || to == VisitCancelada
	default:
		return false
	}
}

// OccupancyEntry is one visit row in the occupancy report.
type OccupancyEntry struct {
	Horario     string `json:"horario"`
	Status      string `json:"status"`
	ClienteNome string `json:"clienteNome"`
	PetNome     string `json:"petNome"`
}

// OccupancyReport groups visits by ISO calendar date over an inclusive range.
type OccupancyReport struct {
	Periodo       OccupancyPeriod             `json:"periodo"`
	TotalVisitas  int                         `json:"totalVisitas"`
	VisitasPorDia map[string][]OccupancyEntry `json:"visitasPorData"`
}

type OccupancyPeriod struct {
	Inicio string `json:"inicio"`
	Fim    string `json:"fim"`
}

// OccupancyRow is the shape the visits repository aggregation returns for the
// occupancy report: one visit joined with its client and pet display names.
type OccupancyRow struct {
	Data        time.Time `bson:"data"`
	Horario     string    `bson:"horario"`
	Status      string    `bson:"status"`
	ClienteNome string    `bson:"cliente_nome"`
	PetNome     string    `bson:"pet_nome"`
}
