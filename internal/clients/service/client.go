package service

import (
	"context"
	"errors"

	clientserrors "github.com/KarolineKS/PetMatch-api/internal/clients/errors"
	"github.com/KarolineKS/PetMatch-api/internal/clients/repository"
	"github.com/KarolineKS/PetMatch-api/internal/clients/validator"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	apperrors "github.com/KarolineKS/PetMatch-api/pkg/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/model"
	"github.com/KarolineKS/PetMatch-api/pkg/sanitizer"
)

// PetReader resolves liked pets when building matches.
type PetReader interface {
	Get(ctx context.Context, id string) (*model.Pet, error)
}

// VisitReader lists a client's visits for the match join.
type VisitReader interface {
	GetByClient(ctx context.Context, clientID string) ([]*model.Visit, error)
}

type ClientService interface {
	Register(ctx context.Context, client *model.Client) error
	Get(ctx context.Context, id string) (*model.Client, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Client, int64, error)
	React(ctx context.Context, like *model.Like) (*model.Like, error)
	Likes(ctx context.Context, clientID string) ([]*model.Like, error)
	Matches(ctx context.Context, clientID string) ([]*model.Match, error)
}

type clientService struct {
	repo      repository.ClientRepository
	likes     repository.LikeRepository
	validator *validator.ClientValidator
	pets      PetReader
	visits    VisitReader
	cfg       *config.Config
}

func NewClientService(
	repo repository.ClientRepository,
	likes repository.LikeRepository,
	validator *validator.ClientValidator,
	pets PetReader,
	visits VisitReader,
	cfg *config.Config,
) ClientService {
	return &clientService{
		repo:      repo,
		likes:     likes,
		validator: validator,
		pets:      pets,
		visits:    visits,
		cfg:       cfg,
	}
}

func (s *clientService) Register(ctx context.Context, client *model.Client) error {
	client.Nome = sanitizer.NormalizeName(client.Nome)
	client.Email = sanitizer.NormalizeEmail(client.Email)
	client.Telefone = sanitizer.DigitsOnly(client.Telefone)
	client.Cidade = sanitizer.TrimAndNormalize(client.Cidade)

	if err := s.validator.Validate(client); err != nil {
		s.cfg.Log.Warn("Client validation failed",
			"email", client.Email,
			"error", err,
		)
		return apperrors.Validation("Client validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, client); err != nil {
		if errors.Is(err, clientserrors.ErrDuplicateEmail) {
			return apperrors.Conflict("Cliente com este email já cadastrado")
		}
		s.cfg.Log.Error("Failed to register client", "email", client.Email, "error", err)
		return apperrors.Internal("Failed to register client", err)
	}

	s.cfg.Log.Info("Client registered", "id", client.ID, "email", client.Email)
	return nil
}

func (s *clientService) Get(ctx context.Context, id string) (*model.Client, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Client ID cannot be empty")
	}

	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}
	return client, nil
}

func (s *clientService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Client, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	clients, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list clients", "error", err)
		return nil, 0, apperrors.Internal("Failed to list clients", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count clients", "error", err)
		return nil, 0, apperrors.Internal("Failed to count clients", err)
	}

	return clients, total, nil
}

// React records a LIKE or DISLIKE, replacing the client's previous reaction
// to the same pet.
func (s *clientService) React(ctx context.Context, like *model.Like) (*model.Like, error) {
	if like.Tipo == "" {
		like.Tipo = model.CurtidaLike
	}

	if err := s.validator.ValidateLike(like); err != nil {
		return nil, apperrors.Validation("Like validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if _, err := s.repo.FindByID(ctx, like.ClienteID); err != nil {
		return nil, s.translate(err, like.ClienteID)
	}
	if _, err := s.pets.Get(ctx, like.PetID); err != nil {
		return nil, err
	}

	stored, err := s.likes.Upsert(ctx, like)
	if err != nil {
		s.cfg.Log.Error("Failed to save like",
			"cliente_id", like.ClienteID,
			"pet_id", like.PetID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to save like", err)
	}

	s.cfg.Log.Info("Reaction saved",
		"cliente_id", stored.ClienteID,
		"pet_id", stored.PetID,
		"tipo", stored.Tipo,
	)
	return stored, nil
}

func (s *clientService) Likes(ctx context.Context, clientID string) ([]*model.Like, error) {
	if clientID == "" {
		return nil, apperrors.InvalidInput("Client ID cannot be empty")
	}

	likes, err := s.likes.FindByClient(ctx, clientID)
	if err != nil {
		s.cfg.Log.Error("Failed to list likes", "cliente_id", clientID, "error", err)
		return nil, apperrors.Internal("Failed to list likes", err)
	}
	return likes, nil
}

// Matches joins the client's LIKEs with their confirmed or completed visits:
// a liked pet the client actually met is a match. Derived on demand, never
// persisted.
func (s *clientService) Matches(ctx context.Context, clientID string) ([]*model.Match, error) {
	if clientID == "" {
		return nil, apperrors.InvalidInput("Client ID cannot be empty")
	}

	if _, err := s.repo.FindByID(ctx, clientID); err != nil {
		return nil, s.translate(err, clientID)
	}

	likes, err := s.likes.FindByClient(ctx, clientID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list likes", err)
	}

	liked := make(map[string]bool, len(likes))
	for _, like := range likes {
		if like.Tipo == model.CurtidaLike {
			liked[like.PetID] = true
		}
	}
	if len(liked) == 0 {
		return []*model.Match{}, nil
	}

	visits, err := s.visits.GetByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	matches := []*model.Match{}
	for _, visit := range visits {
		if visit.Status != model.VisitConfirmada && visit.Status != model.VisitConcluida {
			continue
		}
		if !liked[visit.PetID] {
			continue
		}

		pet, err := s.pets.Get(ctx, visit.PetID)
		if err != nil {
			// A deleted pet breaks the join for that visit only.
			s.cfg.Log.Warn("Match join skipped missing pet",
				"pet_id", visit.PetID,
				"visita_id", visit.ID,
			)
			continue
		}

		matches = append(matches, &model.Match{
			ClienteID: clientID,
			Pet:       *pet,
			VisitaID:  visit.ID,
			Status:    visit.Status,
			Data:      visit.Data,
		})
		delete(liked, visit.PetID) // one match per pet
	}

	return matches, nil
}

func (s *clientService) translate(err error, id string) error {
	switch {
	case errors.Is(err, clientserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Cliente", id)
	case errors.Is(err, clientserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid client ID format")
	default:
		s.cfg.Log.Error("Client repository error", "id", id, "error", err)
		return apperrors.Internal("Client operation failed", err)
	}
}
