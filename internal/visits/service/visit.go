package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KarolineKS/PetMatch-api/internal/schedules/slots"
	visitserrors "github.com/KarolineKS/PetMatch-api/internal/visits/errors"
	"github.com/KarolineKS/PetMatch-api/internal/visits/repository"
	"github.com/KarolineKS/PetMatch-api/internal/visits/validator"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	apperrors "github.com/KarolineKS/PetMatch-api/pkg/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/events"
	"github.com/KarolineKS/PetMatch-api/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// maxLockAttempts bounds the busy-wait on a contended slot before giving up
// with a Conflict.
const maxLockAttempts = 50

// PetReader is the slice of the pets domain the booking flow needs.
type PetReader interface {
	Get(ctx context.Context, id string) (*model.Pet, error)
}

// ClientReader is the slice of the clients domain the booking flow needs.
type ClientReader interface {
	Get(ctx context.Context, id string) (*model.Client, error)
}

// AvailabilityChecker is implemented by the scheduling engine: closure checks
// and per-slot capacity checks.
type AvailabilityChecker interface {
	DateClosure(ctx context.Context, ongID string, day time.Time) (bool, string, error)
	SlotAvailable(ctx context.Context, ongID string, day time.Time, horario string) (bool, error)
}

type VisitService interface {
	Create(ctx context.Context, visit *model.Visit) (*model.VisitWithContext, error)
	GetByID(ctx context.Context, id string) (*model.Visit, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Visit, int64, error)
	GetByClient(ctx context.Context, clientID string) ([]*model.Visit, error)
	UpdateStatus(ctx context.Context, id string, update *model.VisitStatusUpdate) (*model.Visit, error)
	Delete(ctx context.Context, id string) error
}

type visitService struct {
	repo         repository.VisitRepository
	locks        repository.SlotLockRepository
	validator    *validator.VisitValidator
	pets         PetReader
	clients      ClientReader
	availability AvailabilityChecker
	publisher    events.Publisher
	cfg          *config.Config
}

func NewVisitService(
	repo repository.VisitRepository,
	locks repository.SlotLockRepository,
	validator *validator.VisitValidator,
	pets PetReader,
	clients ClientReader,
	availability AvailabilityChecker,
	publisher events.Publisher,
	cfg *config.Config,
) VisitService {
	return &visitService{
		repo:         repo,
		locks:        locks,
		validator:    validator,
		pets:         pets,
		clients:      clients,
		availability: availability,
		publisher:    publisher,
		cfg:          cfg,
	}
}

// Create books a visit. Validation order: payload shape, client exists, pet
// exists and is not adopted, no active duplicate for the (cliente, pet)
// pair, date and horario are strictly future, the date is open, then under
// the slot's advisory lock the duplicate and capacity checks are repeated
// before the insert. The lock serializes concurrent bookings for the same
// slot so the capacity check cannot race.
func (s *visitService) Create(ctx context.Context, visit *model.Visit) (*model.VisitWithContext, error) {
	if visit.Status == "" {
		visit.Status = model.VisitPendente
	}
	visit.Data = startOfDayUTC(visit.Data)

	if err := s.validator.Validate(visit); err != nil {
		s.cfg.Log.Warn("Visit validation failed",
			"cliente_id", visit.ClienteID,
			"pet_id", visit.PetID,
			"error", err,
		)
		return nil, apperrors.Validation("Visit validation failed", map[string]any{
			"error": err.Error(),
		})
	}
	if visit.Status != model.VisitPendente {
		return nil, apperrors.InvalidInput("New visits must start as PENDENTE")
	}

	client, err := s.clients.Get(ctx, visit.ClienteID)
	if err != nil {
		return nil, err
	}

	pet, err := s.pets.Get(ctx, visit.PetID)
	if err != nil {
		return nil, err
	}
	if pet.Adotado {
		return nil, apperrors.Conflict("Pet já foi adotado")
	}
	visit.OngID = pet.OngID

	duplicate, err := s.repo.FindActiveDuplicate(ctx, visit.ClienteID, visit.PetID)
	if err != nil && !errors.Is(err, visitserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to check for duplicate visit", err)
	}
	if duplicate != nil {
		return nil, apperrors.Conflict("Cliente já possui uma visita ativa para este pet")
	}

	if err := s.rejectPast(visit); err != nil {
		return nil, err
	}

	closed, motivo, err := s.availability.DateClosure(ctx, visit.OngID, visit.Data)
	if err != nil {
		return nil, err
	}
	if closed {
		return nil, apperrors.Conflict(fmt.Sprintf("ONG fechada nesta data: %s", motivo))
	}

	key := repository.SlotKey(visit.OngID, visit.Data, visit.Horario)
	if err := s.acquireSlotLock(ctx, key); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), key); err != nil {
			s.cfg.Log.Error("Failed to release slot lock", "key", key, "error", err)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindActiveDuplicate(sessCtx, visit.ClienteID, visit.PetID)
		if err != nil && !errors.Is(err, visitserrors.ErrNotFound) {
			return apperrors.Internal("Failed to check for duplicate visit", err)
		}
		if existing != nil {
			return apperrors.Conflict("Cliente já possui uma visita ativa para este pet")
		}

		available, err := s.availability.SlotAvailable(sessCtx, visit.OngID, visit.Data, visit.Horario)
		if err != nil {
			return err
		}
		if !available {
			return apperrors.Conflict("Horário não disponível")
		}

		return s.repo.Create(sessCtx, visit)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create visit",
			"cliente_id", visit.ClienteID,
			"pet_id", visit.PetID,
			"horario", visit.Horario,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Visit created",
		"id", visit.ID,
		"cliente_id", visit.ClienteID,
		"pet_id", visit.PetID,
		"ong_id", visit.OngID,
		"data", visit.Data.Format(config.DateLayout),
		"horario", visit.Horario,
	)

	s.publish(ctx, events.TypeVisitCreated, visit)

	return &model.VisitWithContext{
		Visit:       *visit,
		ClienteNome: client.Nome,
		PetNome:     pet.Nome,
	}, nil
}

// rejectPast refuses bookings whose combined date and horario are not
// strictly in the future. Same-day bookings are allowed only for horarios
// later than the current UTC time.
func (s *visitService) rejectPast(visit *model.Visit) error {
	now := time.Now().UTC()
	today := startOfDayUTC(now)

	if visit.Data.Before(today) {
		return apperrors.InvalidInput("Não é possível agendar visitas para datas passadas")
	}
	if !visit.Data.Equal(today) {
		return nil
	}

	minutes, err := slots.ParseHHMM(visit.Horario)
	if err != nil {
		return apperrors.InvalidInput("Horário inválido: " + visit.Horario)
	}
	if minutes <= now.Hour()*60+now.Minute() {
		return apperrors.InvalidInput("Não é possível agendar visitas para horários passados")
	}
	return nil
}

// acquireSlotLock retries on contention so concurrent bookings for the same
// slot serialize instead of failing outright.
func (s *visitService) acquireSlotLock(ctx context.Context, key string) error {
	for attempt := 0; attempt < maxLockAttempts; attempt++ {
		err := s.locks.Acquire(ctx, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, visitserrors.ErrSlotLocked) {
			return apperrors.Internal("Failed to acquire slot lock", err)
		}

		select {
		case <-ctx.Done():
			return apperrors.Internal("Booking cancelled while waiting for slot lock", ctx.Err())
		case <-time.After(s.cfg.SlotLockRetryDelay):
		}
	}
	return apperrors.Conflict("Horário em disputa, tente novamente")
}

func (s *visitService) GetByID(ctx context.Context, id string) (*model.Visit, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Visit ID cannot be empty")
	}

	visit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}
	return visit, nil
}

func (s *visitService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Visit, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	visits, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list visits", "error", err)
		return nil, 0, apperrors.Internal("Failed to list visits", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count visits", "error", err)
		return nil, 0, apperrors.Internal("Failed to count visits", err)
	}

	return visits, total, nil
}

func (s *visitService) GetByClient(ctx context.Context, clientID string) ([]*model.Visit, error) {
	if clientID == "" {
		return nil, apperrors.InvalidInput("Client ID cannot be empty")
	}

	visits, err := s.repo.FindByClient(ctx, clientID)
	if err != nil {
		s.cfg.Log.Error("Failed to list client visits", "cliente_id", clientID, "error", err)
		return nil, apperrors.Internal("Failed to list client visits", err)
	}
	return visits, nil
}

// UpdateStatus applies one lifecycle transition. Invalid transitions
// (reopening a cancelled visit, completing a pending one) are Conflicts.
func (s *visitService) UpdateStatus(ctx context.Context, id string, update *model.VisitStatusUpdate) (*model.Visit, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Visit ID cannot be empty")
	}

	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		return nil, apperrors.Validation("Status update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}

	if !model.ValidVisitTransition(current.Status, update.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf(
			"Transição de status inválida: %s -> %s", current.Status, update.Status,
		))
	}

	visit, err := s.repo.UpdateStatus(ctx, id, update.Status)
	if err != nil {
		return nil, s.translate(err, id)
	}

	s.cfg.Log.Info("Visit status updated",
		"id", visit.ID,
		"from", current.Status,
		"to", visit.Status,
	)

	s.publish(ctx, events.TypeVisitStatusChanged, visit)

	return visit, nil
}

func (s *visitService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Visit ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate(err, id)
	}

	s.cfg.Log.Info("Visit deleted", "id", id)
	return nil
}

func (s *visitService) translate(err error, id string) error {
	switch {
	case errors.Is(err, visitserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Visita", id)
	case errors.Is(err, visitserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid visit ID format")
	default:
		s.cfg.Log.Error("Visit repository error", "id", id, "error", err)
		return apperrors.Internal("Visit operation failed", err)
	}
}

func (s *visitService) publish(ctx context.Context, eventType string, visit *model.Visit) {
	event := events.VisitEvent{
		Type:      eventType,
		VisitaID:  visit.ID,
		ClienteID: visit.ClienteID,
		PetID:     visit.PetID,
		OngID:     visit.OngID,
		Data:      visit.Data.Format(config.DateLayout),
		Horario:   visit.Horario,
		Status:    visit.Status,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to publish visit event",
			"type", eventType,
			"visita_id", visit.ID,
			"error", err,
		)
	}
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
