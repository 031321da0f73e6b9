package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/julienschmidt/httprouter"

	"github.com/KarolineKS/PetMatch-api/pkg/logger"
	"github.com/KarolineKS/PetMatch-api/pkg/middleware"
	"github.com/KarolineKS/PetMatch-api/pkg/model"
)

const testSecret = "handler-test-secret"

// Mock service for testing
type mockShelterService struct {
	createFunc func(ctx context.Context, create *model.ShelterCreate) (*model.Shelter, []*model.ScheduleRule, error)
}

func (m *mockShelterService) Create(ctx context.Context, create *model.ShelterCreate) (*model.Shelter, []*model.ScheduleRule, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, create)
	}
	shelter := create.Shelter
	shelter.ID = "507f1f77bcf86cd799439011"
	return &shelter, nil, nil
}

func (m *mockShelterService) GetByID(ctx context.Context, id string) (*model.Shelter, error) {
	return &model.Shelter{ID: id}, nil
}

func (m *mockShelterService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Shelter, int64, error) {
	return []*model.Shelter{}, 0, nil
}

func (m *mockShelterService) Update(ctx context.Context, id string, shelter *model.Shelter) (*model.Shelter, error) {
	return shelter, nil
}

func (m *mockShelterService) Delete(ctx context.Context, id string) error {
	return nil
}

func newTestRouter(t *testing.T, svc *mockShelterService) *httprouter.Router {
	t.Helper()

	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	auth := middleware.NewAuthenticator(testSecret, log)

	router := httprouter.New()
	NewShelterHandler(svc, auth, log).RegisterRoutes(router)
	return router
}

func signToken(t *testing.T, nivel int) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"adminLogadoId":    "admin-1",
		"adminLogadoNome":  "Admin",
		"adminLogadoNivel": nivel,
		"exp":              time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

const shelterPayload = `{
	"nome": "Abrigo Esperança",
	"cnpj": "12345678000190",
	"telefone": "11987654321",
	"email": "contato@esperanca.org",
	"endereco": "Rua das Flores, 100",
	"cidade": "São Paulo",
	"estado": "SP",
	"cep": "01234567"
}`

func TestCreate_RejectsMissingToken(t *testing.T) {
	router := newTestRouter(t, &mockShelterService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ongs", strings.NewReader(shelterPayload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestCreate_RejectsInsufficientLevel(t *testing.T) {
	router := newTestRouter(t, &mockShelterService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ongs", strings.NewReader(shelterPayload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, 1))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestCreate_AllowsLevelTwo(t *testing.T) {
	var received *model.ShelterCreate
	svc := &mockShelterService{
		createFunc: func(ctx context.Context, create *model.ShelterCreate) (*model.Shelter, []*model.ScheduleRule, error) {
			received = create
			shelter := create.Shelter
			shelter.ID = "507f1f77bcf86cd799439011"
			return &shelter, nil, nil
		},
	}
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ongs", strings.NewReader(shelterPayload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, 2))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if received == nil || received.Nome != "Abrigo Esperança" {
		t.Errorf("service did not receive the decoded payload: %+v", received)
	}
}
