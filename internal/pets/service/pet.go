package service

import (
	"context"
	"errors"
	"strings"

	petserrors "github.com/KarolineKS/PetMatch-api/internal/pets/errors"
	"github.com/KarolineKS/PetMatch-api/internal/pets/repository"
	"github.com/KarolineKS/PetMatch-api/internal/pets/validator"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	apperrors "github.com/KarolineKS/PetMatch-api/pkg/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/model"
	"github.com/KarolineKS/PetMatch-api/pkg/sanitizer"
)

// ShelterReader guards pet registration against unknown shelters.
type ShelterReader interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type PetService interface {
	Create(ctx context.Context, pet *model.Pet) error
	Get(ctx context.Context, id string) (*model.Pet, error)
	List(ctx context.Context, filter repository.PetFilter, limit int, offset int64) ([]*model.Pet, int64, error)
	Update(ctx context.Context, id string, pet *model.Pet) (*model.Pet, error)
	SetAdotado(ctx context.Context, id string, adotado bool) (*model.Pet, error)
	Delete(ctx context.Context, id string) error
}

type petService struct {
	repo      repository.PetRepository
	validator *validator.PetValidator
	shelters  ShelterReader
	cfg       *config.Config
}

func NewPetService(
	repo repository.PetRepository,
	validator *validator.PetValidator,
	shelters ShelterReader,
	cfg *config.Config,
) PetService {
	return &petService{
		repo:      repo,
		validator: validator,
		shelters:  shelters,
		cfg:       cfg,
	}
}

func (s *petService) Create(ctx context.Context, pet *model.Pet) error {
	s.sanitize(pet)
	pet.Adotado = false

	if err := s.validator.Validate(pet); err != nil {
		s.cfg.Log.Warn("Pet validation failed",
			"nome", pet.Nome,
			"ong_id", pet.OngID,
			"error", err,
		)
		return apperrors.Validation("Pet validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	exists, err := s.shelters.Exists(ctx, pet.OngID)
	if err != nil {
		return apperrors.Internal("Failed to check ONG existence", err)
	}
	if !exists {
		return apperrors.NotFoundWithID("ONG", pet.OngID)
	}

	if err := s.repo.Create(ctx, pet); err != nil {
		s.cfg.Log.Error("Failed to create pet", "nome", pet.Nome, "error", err)
		return apperrors.Internal("Failed to create pet", err)
	}

	s.cfg.Log.Info("Pet created", "id", pet.ID, "nome", pet.Nome, "ong_id", pet.OngID)
	return nil
}

func (s *petService) Get(ctx context.Context, id string) (*model.Pet, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Pet ID cannot be empty")
	}

	pet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}
	return pet, nil
}

func (s *petService) List(ctx context.Context, filter repository.PetFilter, limit int, offset int64) ([]*model.Pet, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	pets, err := s.repo.Find(ctx, filter, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list pets", "error", err)
		return nil, 0, apperrors.Internal("Failed to list pets", err)
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to count pets", "error", err)
		return nil, 0, apperrors.Internal("Failed to count pets", err)
	}

	return pets, total, nil
}

func (s *petService) Update(ctx context.Context, id string, pet *model.Pet) (*model.Pet, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Pet ID cannot be empty")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}

	// Ownership and adoption state change through their own endpoints.
	pet.OngID = current.OngID
	pet.Adotado = current.Adotado
	s.sanitize(pet)

	if err := s.validator.Validate(pet); err != nil {
		return nil, apperrors.Validation("Pet validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Update(ctx, id, pet); err != nil {
		return nil, s.translate(err, id)
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}

	s.cfg.Log.Info("Pet updated", "id", id)
	return updated, nil
}

// SetAdotado flips the adoption flag. Marking a pet adopted blocks new visit
// bookings for it.
func (s *petService) SetAdotado(ctx context.Context, id string, adotado bool) (*model.Pet, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Pet ID cannot be empty")
	}

	pet, err := s.repo.SetAdotado(ctx, id, adotado)
	if err != nil {
		return nil, s.translate(err, id)
	}

	s.cfg.Log.Info("Pet adoption flag updated", "id", id, "adotado", adotado)
	return pet, nil
}

func (s *petService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Pet ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate(err, id)
	}

	s.cfg.Log.Info("Pet deleted", "id", id)
	return nil
}

func (s *petService) sanitize(pet *model.Pet) {
	pet.Nome = sanitizer.NormalizeName(pet.Nome)
	pet.Especie = strings.ToUpper(sanitizer.TrimAndNormalize(pet.Especie))
	pet.Raca = sanitizer.TrimAndNormalize(pet.Raca)
	pet.Cor = sanitizer.TrimAndNormalize(pet.Cor)
	pet.Idade = sanitizer.TrimAndNormalize(pet.Idade)
	pet.Descricao = sanitizer.TrimAndNormalize(pet.Descricao)
	pet.Porte = strings.ToUpper(strings.TrimSpace(pet.Porte))
	pet.Sexo = strings.ToUpper(strings.TrimSpace(pet.Sexo))
}

func (s *petService) translate(err error, id string) error {
	switch {
	case errors.Is(err, petserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Pet", id)
	case errors.Is(err, petserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid pet ID format")
	default:
		s.cfg.Log.Error("Pet repository error", "id", id, "error", err)
		return apperrors.Internal("Pet operation failed", err)
	}
}
