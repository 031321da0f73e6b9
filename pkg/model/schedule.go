package model

import "time"

// ScheduleRule is one shelter's operating-hours configuration for a single
// weekday (0 = Sunday .. 6 = Saturday). A shelter has at most one active rule
// per weekday; the repository enforces the (ong_id, dia_semana) key with a
// unique index and upsert writes.
type ScheduleRule struct {
	ID                    string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OngID                 string    `json:"ongId" bson:"ong_id" validate:"required,mongodb"`
	DiaSemana             int       `json:"diaSemana" bson:"dia_semana" validate:"min=0,max=6"`
	HoraInicio            string    `json:"horaInicio" bson:"hora_inicio" validate:"required,hhmm"`
	HoraFim               string    `json:"horaFim" bson:"hora_fim" validate:"required,hhmm"`
	IntervaloMinutos      int       `json:"intervaloMinutos" bson:"intervalo_minutos" validate:"omitempty,min=15,max=120"`
	MaxVisitasSimultaneas int       `json:"maxVisitasSimultaneas" bson:"max_visitas_simultaneas" validate:"omitempty,min=1,max=10"`
	Ativo                 *bool     `json:"ativo,omitempty" bson:"ativo"`
	CreatedAt             time.Time `json:"createdAt,omitempty" bson:"created_at" validate:"omitempty"`
	UpdatedAt             time.Time `json:"updatedAt,omitempty" bson:"updated_at" validate:"omitempty"`
}

// ScheduleException is a full-day closure override for one calendar date
// (holiday, special event). Any active exception on a date suppresses every
// slot for that date regardless of the weekly rule.
type ScheduleException struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OngID     string    `json:"ongId" bson:"ong_id" validate:"required,mongodb"`
	Data      time.Time `json:"data" bson:"data" validate:"required"`
	Motivo    string    `json:"motivo" bson:"motivo" validate:"required,min=3,max=200"`
	Ativo     *bool     `json:"ativo,omitempty" bson:"ativo"`
	CreatedAt time.Time `json:"createdAt,omitempty" bson:"created_at" validate:"omitempty"`
}

// Slot is derived on demand, never persisted.
type Slot struct {
	Horario    string `json:"horario"`
	Disponivel bool   `json:"disponivel"`
}

// SlotConfig echoes the rule parameters back to the client alongside the
// generated slots.
type SlotConfig struct {
	HoraInicio     string `json:"horaInicio"`
	HoraFim        string `json:"horaFim"`
	Intervalo      int    `json:"intervalo"`
	MaxSimultaneas int    `json:"maxSimultaneas"`
}

// DayAvailability is the response shape of the available-slots query.
type DayAvailability struct {
	Disponivel   bool        `json:"disponivel"`
	Motivo       string      `json:"motivo,omitempty"`
	Horarios     []Slot      `json:"horarios"`
	Configuracao *SlotConfig `json:"configuracao,omitempty"`
}

// BoolPtr is a convenience for the Ativo flags, whose absence means true.
func BoolPtr(b bool) *bool { return &b }

// ActiveOrDefault interprets a nil Ativo flag as active.
func ActiveOrDefault(b *bool) bool {
	return b == nil || *b
}
