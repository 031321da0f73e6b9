package service

import (
	"context"
	"errors"

	scheduleserrors "github.com/KarolineKS/PetMatch-api/internal/schedules/errors"
	schedulevalidator "github.com/KarolineKS/PetMatch-api/internal/schedules/validator"
	shelterserrors "github.com/KarolineKS/PetMatch-api/internal/shelters/errors"
	"github.com/KarolineKS/PetMatch-api/internal/shelters/repository"
	"github.com/KarolineKS/PetMatch-api/internal/shelters/validator"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	apperrors "github.com/KarolineKS/PetMatch-api/pkg/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/model"
	"github.com/KarolineKS/PetMatch-api/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// RuleStore is the slice of the schedules domain the shelter lifecycle needs:
// writing the initial weekly rules and cascading deletes.
type RuleStore interface {
	Upsert(ctx context.Context, rule *model.ScheduleRule) (*model.ScheduleRule, bool, error)
	DeleteByOng(ctx context.Context, ongID string) (int64, error)
}

// ExceptionStore cascades exception deletes when a shelter is removed.
type ExceptionStore interface {
	DeleteByOng(ctx context.Context, ongID string) (int64, error)
}

type ShelterService interface {
	Create(ctx context.Context, create *model.ShelterCreate) (*model.Shelter, []*model.ScheduleRule, error)
	GetByID(ctx context.Context, id string) (*model.Shelter, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Shelter, int64, error)
	Update(ctx context.Context, id string, shelter *model.Shelter) (*model.Shelter, error)
	Delete(ctx context.Context, id string) error
}

type shelterService struct {
	repo          repository.ShelterRepository
	rules         RuleStore
	exceptions    ExceptionStore
	validator     *validator.ShelterValidator
	ruleValidator *schedulevalidator.ScheduleValidator
	cfg           *config.Config
}

func NewShelterService(
	repo repository.ShelterRepository,
	rules RuleStore,
	exceptions ExceptionStore,
	shelterValidator *validator.ShelterValidator,
	ruleValidator *schedulevalidator.ScheduleValidator,
	cfg *config.Config,
) ShelterService {
	return &shelterService{
		repo:          repo,
		rules:         rules,
		exceptions:    exceptions,
		validator:     shelterValidator,
		ruleValidator: ruleValidator,
		cfg:           cfg,
	}
}

// Create registers the shelter and its optional weekly rules in one
// transaction: either everything lands or nothing does.
func (s *shelterService) Create(ctx context.Context, create *model.ShelterCreate) (*model.Shelter, []*model.ScheduleRule, error) {
	s.sanitize(&create.Shelter)

	if err := s.validator.ValidateCreate(create); err != nil {
		s.cfg.Log.Warn("Shelter validation failed",
			"nome", create.Nome,
			"error", err,
		)
		return nil, nil, apperrors.Validation("Shelter validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	existing, err := s.repo.FindByCNPJ(ctx, create.CNPJ)
	if err != nil && !errors.Is(err, shelterserrors.ErrNotFound) {
		return nil, nil, apperrors.Internal("Failed to check for existing CNPJ", err)
	}
	if existing != nil {
		return nil, nil, apperrors.Conflict("ONG com este CNPJ já cadastrada")
	}

	var storedRules []*model.ScheduleRule
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Create(sessCtx, &create.Shelter); err != nil {
			if errors.Is(err, shelterserrors.ErrDuplicateCNPJ) {
				return apperrors.Conflict("ONG com este CNPJ já cadastrada")
			}
			return apperrors.Internal("Failed to create shelter", err)
		}

		for i := range create.Horarios {
			rule := create.Horarios[i]
			rule.OngID = create.Shelter.ID
			s.applyRuleDefaults(&rule)

			if err := s.ruleValidator.ValidateRule(&rule); err != nil {
				return apperrors.Validation("Schedule rule validation failed", map[string]any{
					"diaSemana": rule.DiaSemana,
					"error":     err.Error(),
				})
			}

			stored, _, err := s.rules.Upsert(sessCtx, &rule)
			if err != nil {
				return apperrors.Internal("Failed to create schedule rule", err)
			}
			storedRules = append(storedRules, stored)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create shelter",
			"nome", create.Nome,
			"error", err,
		)
		return nil, nil, err
	}

	s.cfg.Log.Info("Shelter created",
		"id", create.Shelter.ID,
		"nome", create.Nome,
		"rules", len(storedRules),
	)
	return &create.Shelter, storedRules, nil
}

func (s *shelterService) GetByID(ctx context.Context, id string) (*model.Shelter, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Shelter ID cannot be empty")
	}

	shelter, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}
	return shelter, nil
}

func (s *shelterService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Shelter, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	shelters, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list shelters", "error", err)
		return nil, 0, apperrors.Internal("Failed to list shelters", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count shelters", "error", err)
		return nil, 0, apperrors.Internal("Failed to count shelters", err)
	}

	return shelters, total, nil
}

func (s *shelterService) Update(ctx context.Context, id string, shelter *model.Shelter) (*model.Shelter, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Shelter ID cannot be empty")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}

	// CNPJ is immutable once registered.
	shelter.CNPJ = current.CNPJ
	s.sanitize(shelter)

	if err := s.validator.Validate(shelter); err != nil {
		return nil, apperrors.Validation("Shelter validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Update(ctx, id, shelter); err != nil {
		return nil, s.translate(err, id)
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}

	s.cfg.Log.Info("Shelter updated", "id", id)
	return updated, nil
}

// Delete removes the shelter and cascades to its schedule rules and
// exceptions in one transaction.
func (s *shelterService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Shelter ID cannot be empty")
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			return err
		}
		if _, err := s.rules.DeleteByOng(sessCtx, id); err != nil {
			return err
		}
		if _, err := s.exceptions.DeleteByOng(sessCtx, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return s.translate(err, id)
	}

	s.cfg.Log.Info("Shelter deleted with schedule cascade", "id", id)
	return nil
}

func (s *shelterService) sanitize(shelter *model.Shelter) {
	shelter.Nome = sanitizer.NormalizeName(shelter.Nome)
	shelter.Email = sanitizer.NormalizeEmail(shelter.Email)
	shelter.CNPJ = sanitizer.DigitsOnly(shelter.CNPJ)
	shelter.Telefone = sanitizer.DigitsOnly(shelter.Telefone)
	shelter.CEP = sanitizer.DigitsOnly(shelter.CEP)
	shelter.Endereco = sanitizer.TrimAndNormalize(shelter.Endereco)
	shelter.Cidade = sanitizer.TrimAndNormalize(shelter.Cidade)
	shelter.Estado = sanitizer.TrimAndNormalize(shelter.Estado)
	shelter.Site = sanitizer.TrimAndNormalize(shelter.Site)
}

func (s *shelterService) applyRuleDefaults(rule *model.ScheduleRule) {
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

func (s *shelterService) translate(err error, id string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, shelterserrors.ErrNotFound):
		return apperrors.NotFoundWithID("ONG", id)
	case errors.Is(err, shelterserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid shelter ID format")
	case errors.Is(err, scheduleserrors.ErrNotFound):
		return apperrors.NotFoundWithID("ONG", id)
	default:
		s.cfg.Log.Error("Shelter repository error", "id", id, "error", err)
		return apperrors.Internal("Shelter operation failed", err)
	}
}
