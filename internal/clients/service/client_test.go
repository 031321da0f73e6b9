package service

import (
	"context"
	"testing"
	"time"

	clientserrors "github.com/KarolineKS/PetMatch-api/internal/clients/errors"
	"github.com/KarolineKS/PetMatch-api/internal/clients/validator"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	apperrors "github.com/KarolineKS/PetMatch-api/pkg/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/logger"
	"github.com/KarolineKS/PetMatch-api/pkg/model"
)

const (
	testClientID = "3e0f3f9a-8a3b-4a53-9f6e-1a2b3c4d5e6f"
	likedPetID   = "507f1f77bcf86cd799439021"
	otherPetID   = "507f1f77bcf86cd799439022"
)

type mockClientRepository struct {
	createFunc   func(ctx context.Context, client *model.Client) error
	findByIDFunc func(ctx context.Context, id string) (*model.Client, error)
}

func (m *mockClientRepository) Create(ctx context.Context, client *model.Client) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, client)
	}
	client.ID = testClientID
	return nil
}

func (m *mockClientRepository) FindByID(ctx context.Context, id string) (*model.Client, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Client{ID: id, Nome: "Ana", Email: "ana@example.com"}, nil
}

func (m *mockClientRepository) FindByEmail(ctx context.Context, email string) (*model.Client, error) {
	return nil, clientserrors.ErrNotFound
}

func (m *mockClientRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Client, error) {
	return []*model.Client{}, nil
}

func (m *mockClientRepository) Count(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockClientRepository) EnsureIndexes(ctx context.Context) error { return nil }

type mockLikeRepository struct {
	upsertFunc       func(ctx context.Context, like *model.Like) (*model.Like, error)
	findByClientFunc func(ctx context.Context, clientID string) ([]*model.Like, error)
}

func (m *mockLikeRepository) Upsert(ctx context.Context, like *model.Like) (*model.Like, error) {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, like)
	}
	stored := *like
	stored.ID = "507f1f77bcf86cd799439031"
	return &stored, nil
}

func (m *mockLikeRepository) FindByClient(ctx context.Context, clientID string) ([]*model.Like, error) {
	if m.findByClientFunc != nil {
		return m.findByClientFunc(ctx, clientID)
	}
	return []*model.Like{}, nil
}

func (m *mockLikeRepository) FindLikeForPet(ctx context.Context, clientID, petID string) (*model.Like, error) {
	return nil, nil
}

func (m *mockLikeRepository) EnsureIndexes(ctx context.Context) error { return nil }

type stubPetReader struct{}

func (stubPetReader) Get(ctx context.Context, id string) (*model.Pet, error) {
	return &model.Pet{ID: id, Nome: "Rex", OngID: "507f1f77bcf86cd799439011"}, nil
}

type stubVisitReader struct {
	visits []*model.Visit
}

func (s *stubVisitReader) GetByClient(ctx context.Context, clientID string) ([]*model.Visit, error) {
	return s.visits, nil
}

func newClientTestService(repo *mockClientRepository, likes *mockLikeRepository, visits *stubVisitReader) ClientService {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	cfg := &config.Config{Log: log}
	if repo == nil {
		repo = &mockClientRepository{}
	}
	if likes == nil {
		likes = &mockLikeRepository{}
	}
	if visits == nil {
		visits = &stubVisitReader{}
	}
	return NewClientService(repo, likes, validator.NewClientValidator(log), stubPetReader{}, visits, cfg)
}

func TestRegister_SanitizesAndValidates(t *testing.T) {
	var captured *model.Client
	repo := &mockClientRepository{
		createFunc: func(ctx context.Context, client *model.Client) error {
			captured = client
			client.ID = testClientID
			return nil
		},
	}

	svc := newClientTestService(repo, nil, nil)

	client := &model.Client{
		Nome:     "  ana   souza ",
		Email:    " Ana@Example.COM ",
		Telefone: "(11) 98765-4321",
		Cidade:   "São Paulo",
	}

	if err := svc.Register(context.Background(), client); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Email != "ana@example.com" {
		t.Errorf("email not normalized: %q", captured.Email)
	}
	if captured.Telefone != "11987654321" {
		t.Errorf("telefone not stripped to digits: %q", captured.Telefone)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &mockClientRepository{
		createFunc: func(ctx context.Context, client *model.Client) error {
			return clientserrors.ErrDuplicateEmail
		},
	}

	svc := newClientTestService(repo, nil, nil)

	err := svc.Register(context.Background(), &model.Client{
		Nome:  "Ana",
		Email: "ana@example.com",
	})
	if err == nil {
		t.Fatal("expected conflict")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected CONFLICT, got %v", err)
	}
}

func TestReact_DefaultsToLike(t *testing.T) {
	svc := newClientTestService(nil, nil, nil)

	stored, err := svc.React(context.Background(), &model.Like{
		ClienteID: testClientID,
		PetID:     likedPetID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Tipo != model.CurtidaLike {
		t.Errorf("expected tipo LIKE, got %q", stored.Tipo)
	}
}

// A match requires both a LIKE and a confirmed or completed visit for the
// same pet.
func TestMatches_JoinsLikesAndVisits(t *testing.T) {
	day := time.Date(2025, time.December, 18, 0, 0, 0, 0, time.UTC)

	likes := &mockLikeRepository{
		findByClientFunc: func(ctx context.Context, clientID string) ([]*model.Like, error) {
			return []*model.Like{
				{ClienteID: clientID, PetID: likedPetID, Tipo: model.CurtidaLike},
				{ClienteID: clientID, PetID: otherPetID, Tipo: model.CurtidaDislike},
			}, nil
		},
	}
	visits := &stubVisitReader{
		visits: []*model.Visit{
			{ID: "v1", ClienteID: testClientID, PetID: likedPetID, Status: model.VisitConcluida, Data: day},
			{ID: "v2", ClienteID: testClientID, PetID: otherPetID, Status: model.VisitConcluida, Data: day},
			{ID: "v3", ClienteID: testClientID, PetID: likedPetID, Status: model.VisitCancelada, Data: day},
		},
	}

	svc := newClientTestService(nil, likes, visits)

	matches, err := svc.Matches(context.Background(), testClientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].VisitaID != "v1" || matches[0].Pet.ID != likedPetID {
		t.Errorf("unexpected match: %+v", matches[0])
	}
}

func TestMatches_PendingVisitIsNotAMatch(t *testing.T) {
	likes := &mockLikeRepository{
		findByClientFunc: func(ctx context.Context, clientID string) ([]*model.Like, error) {
			return []*model.Like{
				{ClienteID: clientID, PetID: likedPetID, Tipo: model.CurtidaLike},
			}, nil
		},
	}
	visits := &stubVisitReader{
		visits: []*model.Visit{
			{ID: "v1", ClienteID: testClientID, PetID: likedPetID, Status: model.VisitPendente},
		},
	}

	svc := newClientTestService(nil, likes, visits)

	matches, err := svc.Matches(context.Background(), testClientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches for a pending visit, got %d", len(matches))
	}
}
