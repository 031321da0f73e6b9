package service

import (
	"context"
	"time"

	"github.com/KarolineKS/PetMatch-api/internal/schedules/repository"
	"github.com/KarolineKS/PetMatch-api/internal/schedules/validator"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	apperrors "github.com/KarolineKS/PetMatch-api/pkg/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/model"
	"github.com/KarolineKS/PetMatch-api/pkg/sanitizer"
)

// ShelterReader is the slice of the shelters domain the scheduling engine
// needs: existence checks for ownership validation.
type ShelterReader interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// VisitReader is the slice of the visits domain the scheduling engine needs:
// per-slot occupancy counts and joined rows for the occupancy report.
type VisitReader interface {
	CountAtSlot(ctx context.Context, ongID string, day time.Time, horario string, statuses []string) (int64, error)
	OccupancyRows(ctx context.Context, ongID string, start, end time.Time, statuses []string) ([]*model.OccupancyRow, error)
}

type ScheduleService interface {
	UpsertRule(ctx context.Context, rule *model.ScheduleRule) (*model.ScheduleRule, bool, error)
	RulesForOng(ctx context.Context, ongID string) ([]*model.ScheduleRule, error)
	CreateException(ctx context.Context, exception *model.ScheduleException) error
	ExceptionsForOng(ctx context.Context, ongID string) ([]*model.ScheduleException, error)
	DateClosure(ctx context.Context, ongID string, day time.Time) (bool, string, error)
	SlotAvailable(ctx context.Context, ongID string, day time.Time, horario string) (bool, error)
	AvailableSlots(ctx context.Context, ongID string, day time.Time) (*model.DayAvailability, error)
	OccupancyReport(ctx context.Context, ongID string, start, end time.Time) (*model.OccupancyReport, error)
}

type scheduleService struct {
	rules      repository.RuleRepository
	exceptions repository.ExceptionRepository
	validator  *validator.ScheduleValidator
	shelters   ShelterReader
	visits     VisitReader
	cfg        *config.Config
}

func NewScheduleService(
	rules repository.RuleRepository,
	exceptions repository.ExceptionRepository,
	validator *validator.ScheduleValidator,
	shelters ShelterReader,
	visits VisitReader,
	cfg *config.Config,
) ScheduleService {
	return &scheduleService{
		rules:      rules,
		exceptions: exceptions,
		validator:  validator,
		shelters:   shelters,
		visits:     visits,
		cfg:        cfg,
	}
}

// UpsertRule creates or replaces the operating-hours rule for the
// (ong, weekday) pair. Returns the stored rule and whether it was newly
// created.
func (s *scheduleService) UpsertRule(ctx context.Context, rule *model.ScheduleRule) (*model.ScheduleRule, bool, error) {
	s.applyRuleDefaults(rule)

	if err := s.validator.ValidateRule(rule); err != nil {
		s.cfg.Log.Warn("Schedule rule validation failed",
			"ong_id", rule.OngID,
			"dia_semana", rule.DiaSemana,
			"error", err,
		)
		return nil, false, apperrors.Validation("Schedule rule validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.requireOng(ctx, rule.OngID); err != nil {
		return nil, false, err
	}

	stored, created, err := s.rules.Upsert(ctx, rule)
	if err != nil {
		s.cfg.Log.Error("Failed to upsert schedule rule",
			"ong_id", rule.OngID,
			"dia_semana", rule.DiaSemana,
			"error", err,
		)
		return nil, false, apperrors.Internal("Failed to save schedule rule", err)
	}

	s.cfg.Log.Info("Schedule rule saved",
		"id", stored.ID,
		"ong_id", stored.OngID,
		"dia_semana", stored.DiaSemana,
		"created", created,
	)
	return stored, created, nil
}

func (s *scheduleService) RulesForOng(ctx context.Context, ongID string) ([]*model.ScheduleRule, error) {
	if ongID == "" {
		return nil, apperrors.InvalidInput("ONG ID cannot be empty")
	}

	if err := s.requireOng(ctx, ongID); err != nil {
		return nil, err
	}

	rules, err := s.rules.FindByOng(ctx, ongID)
	if err != nil {
		s.cfg.Log.Error("Failed to list schedule rules", "ong_id", ongID, "error", err)
		return nil, apperrors.Internal("Failed to list schedule rules", err)
	}
	return rules, nil
}

func (s *scheduleService) CreateException(ctx context.Context, exception *model.ScheduleException) error {
	exception.Motivo = sanitizer.TrimAndNormalize(exception.Motivo)
	exception.Data = startOfDayUTC(exception.Data)
	if exception.Ativo == nil {
		exception.Ativo = model.BoolPtr(true)
	}

	if err := s.validator.ValidateException(exception); err != nil {
		s.cfg.Log.Warn("Schedule exception validation failed",
			"ong_id", exception.OngID,
			"error", err,
		)
		return apperrors.Validation("Schedule exception validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.requireOng(ctx, exception.OngID); err != nil {
		return err
	}

	if err := s.exceptions.Create(ctx, exception); err != nil {
		s.cfg.Log.Error("Failed to create schedule exception",
			"ong_id", exception.OngID,
			"data", exception.Data,
			"error", err,
		)
		return apperrors.Internal("Failed to create schedule exception", err)
	}

	s.cfg.Log.Info("Schedule exception created",
		"id", exception.ID,
		"ong_id", exception.OngID,
		"data", exception.Data.Format(config.DateLayout),
	)
	return nil
}

func (s *scheduleService) ExceptionsForOng(ctx context.Context, ongID string) ([]*model.ScheduleException, error) {
	if ongID == "" {
		return nil, apperrors.InvalidInput("ONG ID cannot be empty")
	}

	exceptions, err := s.exceptions.FindByOng(ctx, ongID)
	if err != nil {
		s.cfg.Log.Error("Failed to list schedule exceptions", "ong_id", ongID, "error", err)
		return nil, apperrors.Internal("Failed to list schedule exceptions", err)
	}
	return exceptions, nil
}

func (s *scheduleService) applyRuleDefaults(rule *model.ScheduleRule) {
	if rule.IntervaloMinutos == 0 {
		rule.IntervaloMinutos = s.cfg.DefaultSlotMinutes
	}
	if rule.MaxVisitasSimultaneas == 0 {
		rule.MaxVisitasSimultaneas = s.cfg.DefaultMaxConcurrentVisits
	}
	if rule.Ativo == nil {
		rule.Ativo = model.BoolPtr(true)
	}
}

func (s *scheduleService) requireOng(ctx context.Context, ongID string) error {
	exists, err := s.shelters.Exists(ctx, ongID)
	if err != nil {
		s.cfg.Log.Error("Failed to check ONG existence", "ong_id", ongID, "error", err)
		return apperrors.Internal("Failed to check ONG existence", err)
	}
	if !exists {
		return apperrors.NotFoundWithID("ONG", ongID)
	}
	return nil
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
