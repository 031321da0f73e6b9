package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/julienschmidt/httprouter"

	"github.com/KarolineKS/PetMatch-api/pkg/config"
	apperrors "github.com/KarolineKS/PetMatch-api/pkg/errors"
	"github.com/KarolineKS/PetMatch-api/pkg/logger"
	"github.com/KarolineKS/PetMatch-api/pkg/middleware"
	"github.com/KarolineKS/PetMatch-api/pkg/model"
)

const testSecret = "handler-test-secret"

// Mock service for testing
type mockVisitService struct {
	createFunc       func(ctx context.Context, visit *model.Visit) (*model.VisitWithContext, error)
	getAllFunc       func(ctx context.Context, limit int, offset int64) ([]*model.Visit, int64, error)
	updateStatusFunc func(ctx context.Context, id string, update *model.VisitStatusUpdate) (*model.Visit, error)
}

func (m *mockVisitService) Create(ctx context.Context, visit *model.Visit) (*model.VisitWithContext, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, visit)
	}
	return &model.VisitWithContext{Visit: *visit}, nil
}

func (m *mockVisitService) GetByID(ctx context.Context, id string) (*model.Visit, error) {
	return nil, apperrors.NotFoundWithID("Visita", id)
}

func (m *mockVisitService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Visit, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, limit, offset)
	}
	return []*model.Visit{}, 0, nil
}

func (m *mockVisitService) GetByClient(ctx context.Context, clientID string) ([]*model.Visit, error) {
	return []*model.Visit{}, nil
}

func (m *mockVisitService) UpdateStatus(ctx context.Context, id string, update *model.VisitStatusUpdate) (*model.Visit, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, update)
	}
	return &model.Visit{ID: id, Status: update.Status}, nil
}

func (m *mockVisitService) Delete(ctx context.Context, id string) error {
	return nil
}

func newTestRouter(t *testing.T, svc *mockVisitService) *httprouter.Router {
	t.Helper()

	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	auth := middleware.NewAuthenticator(testSecret, log)

	router := httprouter.New()
	NewVisitHandler(svc, auth, log).RegisterRoutes(router)
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

func TestCreate_ReturnsBookingWithNames(t *testing.T) {
	svc := &mockVisitService{
		createFunc: func(ctx context.Context, visit *model.Visit) (*model.VisitWithContext, error) {
			return &model.VisitWithContext{
				Visit:       *visit,
				ClienteNome: "Maria Silva",
				PetNome:     "Rex",
			}, nil
		},
	}
	router := newTestRouter(t, svc)

	body := `{"clienteId":"3e0f3f9a-8a3b-4a53-9f6e-1a2b3c4d5e01","petId":"665f1f77bcf86cd799439011","data":"2030-06-15T00:00:00Z","horario":"09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/visitas", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		Data model.VisitWithContext `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Data.ClienteNome != "Maria Silva" || resp.Data.PetNome != "Rex" {
		t.Errorf("names = (%q, %q), want (Maria Silva, Rex)", resp.Data.ClienteNome, resp.Data.PetNome)
	}
	if resp.Data.Horario != "09:00" {
		t.Errorf("horario = %q, want 09:00", resp.Data.Horario)
	}
}

func TestCreate_InvalidBodyReturns400(t *testing.T) {
	router := newTestRouter(t, &mockVisitService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/visitas", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreate_ConflictMapsTo409(t *testing.T) {
	svc := &mockVisitService{
		createFunc: func(ctx context.Context, visit *model.Visit) (*model.VisitWithContext, error) {
			return nil, apperrors.Conflict("Horário indisponível para esta data")
		},
	}
	router := newTestRouter(t, svc)

	body := `{"clienteId":"3e0f3f9a-8a3b-4a53-9f6e-1a2b3c4d5e01","petId":"665f1f77bcf86cd799439011","data":"2030-06-15T00:00:00Z","horario":"09:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/visitas", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}

	var resp struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Code != apperrors.CodeConflict {
		t.Errorf("code = %q, want %q", resp.Code, apperrors.CodeConflict)
	}
}

func TestGetAll_NormalizesPagination(t *testing.T) {
	var receivedLimit int
	var receivedOffset int64

	svc := &mockVisitService{
		getAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Visit, int64, error) {
			receivedLimit = limit
			receivedOffset = offset
			return []*model.Visit{}, 0, nil
		},
	}
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/visitas?limit=100000&offset=-5", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if receivedLimit != config.DefaultPaginationLimit {
		t.Errorf("limit = %d, want %d", receivedLimit, config.DefaultPaginationLimit)
	}
	if receivedOffset != 0 {
		t.Errorf("offset = %d, want 0", receivedOffset)
	}
}

func TestUpdateStatus_RejectsMissingToken(t *testing.T) {
	router := newTestRouter(t, &mockVisitService{})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/visitas/id/665f1f77bcf86cd799439011/status",
		strings.NewReader(`{"status":"CONFIRMADA"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUpdateStatus_RejectsInsufficientLevel(t *testing.T) {
	router := newTestRouter(t, &mockVisitService{})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/visitas/id/665f1f77bcf86cd799439011/status",
		strings.NewReader(`{"status":"CONFIRMADA"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, 1))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestUpdateStatus_AllowsLevelTwo(t *testing.T) {
	var receivedID string
	svc := &mockVisitService{
		updateStatusFunc: func(ctx context.Context, id string, update *model.VisitStatusUpdate) (*model.Visit, error) {
			receivedID = id
			return &model.Visit{ID: id, Status: update.Status}, nil
		},
	}
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/visitas/id/665f1f77bcf86cd799439011/status",
		strings.NewReader(`{"status":"CONFIRMADA"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, 2))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if receivedID != "665f1f77bcf86cd799439011" {
		t.Errorf("id = %q, want 665f1f77bcf86cd799439011", receivedID)
	}
}
