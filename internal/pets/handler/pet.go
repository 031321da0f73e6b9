package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/KarolineKS/PetMatch-api/internal/pets/repository"
	"github.com/KarolineKS/PetMatch-api/internal/pets/service"
	apperrors "github.com/KarolineKS/PetMatch-api/pkg/errors"
	httputil "github.com/KarolineKS/PetMatch-api/pkg/http"
	"github.com/KarolineKS/PetMatch-api/pkg/logger"
	"github.com/KarolineKS/PetMatch-api/pkg/middleware"
	"github.com/KarolineKS/PetMatch-api/pkg/model"
)

type PetHandler struct {
	service service.PetService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewPetHandler(service service.PetService, auth *middleware.Authenticator, log *logger.Logger) *PetHandler {
	return &PetHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *PetHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var pet model.Pet
	if err := json.NewDecoder(r.Body).Decode(&pet); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &pet); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, pet); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *PetHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	pet, err := h.service.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, pet); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PetHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	pets, total, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, pets, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *PetHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var pet model.Pet
	if err := json.NewDecoder(r.Body).Decode(&pet); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	updated, err := h.service.Update(r.Context(), ps.ByName("id"), &pet)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, updated); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

// adotadoUpdate is the PATCH /pets/id/:id/adotado payload.
type adotadoUpdate struct {
	Adotado *bool `json:"adotado"`
}

func (h *PetHandler) SetAdotado(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update adotadoUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil || update.Adotado == nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Field 'adotado' is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetAdotado", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	pet, err := h.service.SetAdotado(r.Context(), ps.ByName("id"), *update.Adotado)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetAdotado", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, pet); err != nil {
		h.log.Error("failed to write success response", "handler", "SetAdotado", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PetHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *PetHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/pets", h.auth.RequireLevel(2, h.Create))
	router.GET("/api/v1/pets", h.GetAll)
	router.GET("/api/v1/pets/id/:id", h.GetByID)
	router.PUT("/api/v1/pets/id/:id", h.auth.RequireLevel(2, h.Update))
	router.PATCH("/api/v1/pets/id/:id/adotado", h.auth.RequireLevel(2, h.SetAdotado))
	router.DELETE("/api/v1/pets/id/:id", h.auth.RequireLevel(3, h.Delete))
}

func filterFromQuery(r *http.Request) (repository.PetFilter, error) {
	query := r.URL.Query()

	filter := repository.PetFilter{
		OngID:   query.Get("ongId"),
		Especie: strings.ToUpper(strings.TrimSpace(query.Get("especie"))),
		Porte:   strings.ToUpper(strings.TrimSpace(query.Get("porte"))),
	}

	if adotadoStr := query.Get("adotado"); adotadoStr != "" {
		adotado, err := strconv.ParseBool(adotadoStr)
		if err != nil {
			return repository.PetFilter{}, apperrors.InvalidInput("adotado must be true or false")
		}
		filter.Adotado = &adotado
	}

	return filter, nil
}
