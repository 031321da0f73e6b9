package service

import (
	"context"
	"errors"
	"time"

	scheduleserrors "github.com/KarolineKS/PetMatch-api/internal/schedules/errors"
	"github.com/KarolineKS/PetMatch-api/internal/schedules/slots"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	apperrors "github.com/KarolineKS/PetMatch-api/pkg/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/model"
)

const (
	motivoSemFuncionamento = "ONG não funciona neste dia da semana"
)

// DateClosure reports whether the shelter is closed on the given date, either
// by an active full-day exception or because no active weekly rule covers the
// weekday. The returned motivo is empty when the shelter is open.
func (s *scheduleService) DateClosure(ctx context.Context, ongID string, day time.Time) (bool, string, error) {
	day = startOfDayUTC(day)

	exception, err := s.exceptions.FindActiveOnDate(ctx, ongID, day)
	if err != nil && !errors.Is(err, scheduleserrors.ErrExceptionNotFound) {
		s.cfg.Log.Error("Failed to check schedule exception", "ong_id", ongID, "error", err)
		return false, "", apperrors.Internal("Failed to check schedule exception", err)
	}
	if exception != nil {
		return true, exception.Motivo, nil
	}

	_, err = s.rules.FindActiveForWeekday(ctx, ongID, int(day.Weekday()))
	if err != nil {
		if errors.Is(err, scheduleserrors.ErrNotFound) {
			return true, motivoSemFuncionamento, nil
		}
		s.cfg.Log.Error("Failed to check weekday rule", "ong_id", ongID, "error", err)
		return false, "", apperrors.Internal("Failed to check weekday rule", err)
	}

	return false, "", nil
}

// SlotAvailable reports whether one more visit fits the slot: the date is
// open, the horario lies on the rule's grid, and active visits have not
// reached the rule's capacity.
func (s *scheduleService) SlotAvailable(ctx context.Context, ongID string, day time.Time, horario string) (bool, error) {
	day = startOfDayUTC(day)

	closed, _, err := s.DateClosure(ctx, ongID, day)
	if err != nil {
		return false, err
	}
	if closed {
		return false, nil
	}

	rule, err := s.rules.FindActiveForWeekday(ctx, ongID, int(day.Weekday()))
	if err != nil {
		// DateClosure just confirmed the rule exists; treat a vanishing rule
		// as a closed slot rather than an error.
		if errors.Is(err, scheduleserrors.ErrNotFound) {
			return false, nil
		}
		return false, apperrors.Internal("Failed to load weekday rule", err)
	}

	if !onSlotGrid(rule, horario) {
		return false, nil
	}

	count, err := s.visits.CountAtSlot(ctx, ongID, day, horario, model.ActiveVisitStatuses)
	if err != nil {
		s.cfg.Log.Error("Failed to count visits at slot",
			"ong_id", ongID,
			"horario", horario,
			"error", err,
		)
		return false, apperrors.Internal("Failed to count visits at slot", err)
	}

	return count < int64(rule.MaxVisitasSimultaneas), nil
}

// AvailableSlots generates the day's slot grid from the weekday rule and
// returns only the slots with remaining capacity. A closed date yields
// Disponivel=false with the closure motivo and no slots.
func (s *scheduleService) AvailableSlots(ctx context.Context, ongID string, day time.Time) (*model.DayAvailability, error) {
	if err := s.requireOng(ctx, ongID); err != nil {
		return nil, err
	}
	day = startOfDayUTC(day)

	closed, motivo, err := s.DateClosure(ctx, ongID, day)
	if err != nil {
		return nil, err
	}
	if closed {
		return &model.DayAvailability{
			Disponivel: false,
			Motivo:     motivo,
			Horarios:   []model.Slot{},
		}, nil
	}

	rule, err := s.rules.FindActiveForWeekday(ctx, ongID, int(day.Weekday()))
	if err != nil {
		if errors.Is(err, scheduleserrors.ErrNotFound) {
			return &model.DayAvailability{
				Disponivel: false,
				Motivo:     motivoSemFuncionamento,
				Horarios:   []model.Slot{},
			}, nil
		}
		return nil, apperrors.Internal("Failed to load weekday rule", err)
	}

	grid, err := slots.Between(rule.HoraInicio, rule.HoraFim, rule.IntervaloMinutos)
	if err != nil {
		s.cfg.Log.Error("Stored rule has an invalid time range",
			"rule_id", rule.ID,
			"hora_inicio", rule.HoraInicio,
			"hora_fim", rule.HoraFim,
			"error", err,
		)
		return nil, apperrors.Internal("Stored rule has an invalid time range", err)
	}

	available := []model.Slot{}
	for horario := range grid {
		count, err := s.visits.CountAtSlot(ctx, ongID, day, horario, model.ActiveVisitStatuses)
		if err != nil {
			s.cfg.Log.Error("Failed to count visits at slot",
				"ong_id", ongID,
				"horario", horario,
				"error", err,
			)
			return nil, apperrors.Internal("Failed to count visits at slot", err)
		}
		if count < int64(rule.MaxVisitasSimultaneas) {
			available = append(available, model.Slot{Horario: horario, Disponivel: true})
		}
	}

	return &model.DayAvailability{
		Disponivel: len(available) > 0,
		Horarios:   available,
		Configuracao: &model.SlotConfig{
			HoraInicio:     rule.HoraInicio,
			HoraFim:        rule.HoraFim,
			Intervalo:      rule.IntervaloMinutos,
			MaxSimultaneas: rule.MaxVisitasSimultaneas,
		},
	}, nil
}

// OccupancyReport groups the shelter's visits in the inclusive [start, end]
// date range by calendar date. Cancelled visits are excluded.
func (s *scheduleService) OccupancyReport(ctx context.Context, ongID string, start, end time.Time) (*model.OccupancyReport, error) {
	if err := s.requireOng(ctx, ongID); err != nil {
		return nil, err
	}

	start = startOfDayUTC(start)
	end = startOfDayUTC(end)
	if end.Before(start) {
		return nil, apperrors.InvalidInput("Report end date must not be before start date")
	}

	rows, err := s.visits.OccupancyRows(ctx, ongID, start, end.AddDate(0, 0, 1), model.OccupancyStatuses)
	if err != nil {
		s.cfg.Log.Error("Failed to load occupancy rows", "ong_id", ongID, "error", err)
		return nil, apperrors.Internal("Failed to build occupancy report", err)
	}

	report := &model.OccupancyReport{
		Periodo: model.OccupancyPeriod{
			Inicio: start.Format(config.DateLayout),
			Fim:    end.Format(config.DateLayout),
		},
		TotalVisitas:  len(rows),
		VisitasPorDia: make(map[string][]model.OccupancyEntry),
	}

	for _, row := range rows {
		key := row.Data.UTC().Format(config.DateLayout)
		report.VisitasPorDia[key] = append(report.VisitasPorDia[key], model.OccupancyEntry{
			Horario:     row.Horario,
			Status:      row.Status,
			ClienteNome: row.ClienteNome,
			PetNome:     row.PetNome,
		})
	}

	return report, nil
}

// onSlotGrid reports whether horario is one of the slots the rule generates:
// within [opening, closing) and aligned to the interval.
func onSlotGrid(rule *model.ScheduleRule, horario string) bool {
	m, err := slots.ParseHHMM(horario)
	if err != nil {
		return false
	}
	opening, err := slots.ParseHHMM(rule.HoraInicio)
	if err != nil {
		return false
	}
	closing, err := slots.ParseHHMM(rule.HoraFim)
	if err != nil {
		return false
	}
	return m >= opening && m < closing && (m-opening)%rule.IntervaloMinutos == 0
}
