package service

import (
	"context"
	"testing"

	schedulevalidator "github.com/KarolineKS/PetMatch-api/internal/schedules/validator"
	shelterserrors "github.com/KarolineKS/PetMatch-api/internal/shelters/errors"
	"github.com/KarolineKS/PetMatch-api/internal/shelters/validator"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	mongotx "github.com/KarolineKS/PetMatch-api/pkg/db/mongo"
	apperrors "github.com/KarolineKS/PetMatch-api/pkg/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/logger"
	"github.com/KarolineKS/PetMatch-api/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockShelterRepository struct {
	createFunc     func(ctx context.Context, shelter *model.Shelter) error
	findByIDFunc   func(ctx context.Context, id string) (*model.Shelter, error)
	findByCNPJFunc func(ctx context.Context, cnpj string) (*model.Shelter, error)
	deleteFunc     func(ctx context.Context, id string) error
}

func (m *mockShelterRepository) Create(ctx context.Context, shelter *model.Shelter) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, shelter)
	}
	shelter.ID = "507f1f77bcf86cd799439011"
	return nil
}

func (m *mockShelterRepository) FindByID(ctx context.Context, id string) (*model.Shelter, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, shelterserrors.ErrNotFound
}

func (m *mockShelterRepository) FindByCNPJ(ctx context.Context, cnpj string) (*model.Shelter, error) {
	if m.findByCNPJFunc != nil {
		return m.findByCNPJFunc(ctx, cnpj)
	}
	return nil, shelterserrors.ErrNotFound
}

func (m *mockShelterRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Shelter, error) {
	return []*model.Shelter{}, nil
}

func (m *mockShelterRepository) Update(ctx context.Context, id string, shelter *model.Shelter) error {
	return nil
}

func (m *mockShelterRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockShelterRepository) Count(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockShelterRepository) Exists(ctx context.Context, id string) (bool, error) {
	return true, nil
}

func (m *mockShelterRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

func (m *mockShelterRepository) EnsureIndexes(ctx context.Context) error { return nil }

type mockRuleStore struct {
	upserted    []*model.ScheduleRule
	deleteCalls []string
}

func (m *mockRuleStore) Upsert(ctx context.Context, rule *model.ScheduleRule) (*model.ScheduleRule, bool, error) {
	stored := *rule
	m.upserted = append(m.upserted, &stored)
	return &stored, true, nil
}

func (m *mockRuleStore) DeleteByOng(ctx context.Context, ongID string) (int64, error) {
	m.deleteCalls = append(m.deleteCalls, ongID)
	return 1, nil
}

type mockExceptionStore struct {
	deleteCalls []string
}

func (m *mockExceptionStore) DeleteByOng(ctx context.Context, ongID string) (int64, error) {
	m.deleteCalls = append(m.deleteCalls, ongID)
	return 1, nil
}

func newShelterTestService(repo *mockShelterRepository, rules *mockRuleStore, exceptions *mockExceptionStore) ShelterService {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	cfg := &config.Config{
		Log:                        log,
		DefaultSlotMinutes:         30,
		DefaultMaxConcurrentVisits: 2,
	}
	return NewShelterService(
		repo,
		rules,
		exceptions,
		validator.NewShelterValidator(log),
		schedulevalidator.NewScheduleValidator(log),
		cfg,
	)
}

func validShelterCreate() *model.ShelterCreate {
	return &model.ShelterCreate{
		Shelter: model.Shelter{
			Nome:     "Abrigo Esperança",
			CNPJ:     "12345678000190",
			Telefone: "11987654321",
			Email:    "contato@abrigo.org",
			Endereco: "Rua das Flores, 100",
			Cidade:   "São Paulo",
			Estado:   "SP",
			CEP:      "01234567",
		},
	}
}

func TestCreate_WithRules(t *testing.T) {
	repo := &mockShelterRepository{}
	rules := &mockRuleStore{}

	svc := newShelterTestService(repo, rules, &mockExceptionStore{})

	create := validShelterCreate()
	create.Horarios = []model.ScheduleRule{
		{DiaSemana: 1, HoraInicio: "08:00", HoraFim: "17:00"},
		{DiaSemana: 3, HoraInicio: "09:00", HoraFim: "18:00"},
	}

	shelter, storedRules, err := svc.Create(context.Background(), create)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shelter.ID == "" {
		t.Error("expected assigned shelter ID")
	}
	if len(storedRules) != 2 {
		t.Fatalf("expected 2 stored rules, got %d", len(storedRules))
	}
	for _, rule := range rules.upserted {
		if rule.OngID != shelter.ID {
			t.Errorf("rule ong_id = %q, want %q", rule.OngID, shelter.ID)
		}
		if rule.IntervaloMinutos != 30 || rule.MaxVisitasSimultaneas != 2 {
			t.Errorf("defaults not applied: %+v", rule)
		}
	}
}

// An invalid rule must fail the whole create: no partially configured
// shelters.
func TestCreate_InvalidRuleFailsWhole(t *testing.T) {
	repo := &mockShelterRepository{}
	rules := &mockRuleStore{}

	svc := newShelterTestService(repo, rules, &mockExceptionStore{})

	create := validShelterCreate()
	create.Horarios = []model.ScheduleRule{
		{DiaSemana: 1, HoraInicio: "08:00", HoraFim: "17:00"},
		{DiaSemana: 2, HoraInicio: "17:00", HoraFim: "08:00"}, // inverted
	}

	_, _, err := svc.Create(context.Background(), create)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreate_DuplicateWeekdayRejected(t *testing.T) {
	svc := newShelterTestService(&mockShelterRepository{}, &mockRuleStore{}, &mockExceptionStore{})

	create := validShelterCreate()
	create.Horarios = []model.ScheduleRule{
		{DiaSemana: 1, HoraInicio: "08:00", HoraFim: "12:00"},
		{DiaSemana: 1, HoraInicio: "13:00", HoraFim: "17:00"},
	}

	_, _, err := svc.Create(context.Background(), create)
	if err == nil {
		t.Fatal("expected error for duplicate weekday")
	}
}

func TestCreate_DuplicateCNPJConflict(t *testing.T) {
	repo := &mockShelterRepository{
		findByCNPJFunc: func(ctx context.Context, cnpj string) (*model.Shelter, error) {
			return &model.Shelter{ID: "507f1f77bcf86cd799439099", CNPJ: cnpj}, nil
		},
	}

	svc := newShelterTestService(repo, &mockRuleStore{}, &mockExceptionStore{})

	_, _, err := svc.Create(context.Background(), validShelterCreate())
	if err == nil {
		t.Fatal("expected conflict for duplicate CNPJ")
	}
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected CONFLICT, got %v", err)
	}
}

func TestDelete_CascadesSchedules(t *testing.T) {
	rules := &mockRuleStore{}
	exceptions := &mockExceptionStore{}

	svc := newShelterTestService(&mockShelterRepository{}, rules, exceptions)

	id := "507f1f77bcf86cd799439011"
	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rules.deleteCalls) != 1 || rules.deleteCalls[0] != id {
		t.Errorf("expected rule cascade for %s, got %v", id, rules.deleteCalls)
	}
	if len(exceptions.deleteCalls) != 1 || exceptions.deleteCalls[0] != id {
		t.Errorf("expected exception cascade for %s, got %v", id, exceptions.deleteCalls)
	}
}
