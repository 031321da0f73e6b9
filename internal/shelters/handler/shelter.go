package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/KarolineKS/PetMatch-api/internal/shelters/service"
	httputil "github.com/KarolineKS/PetMatch-api/pkg/http"
	"github.com/KarolineKS/PetMatch-api/pkg/logger"
	"github.com/KarolineKS/PetMatch-api/pkg/middleware"
	"github.com/KarolineKS/PetMatch-api/pkg/model"
)

type ShelterHandler struct {
	service service.ShelterService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewShelterHandler(service service.ShelterService, auth *middleware.Authenticator, log *logger.Logger) *ShelterHandler {
	return &ShelterHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

// shelterCreated carries the new shelter plus the rules stored with it.
type shelterCreated struct {
	model.Shelter
	Horarios []*model.ScheduleRule `json:"horarios,omitempty"`
}

func (h *ShelterHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var create model.ShelterCreate
	if err := json.NewDecoder(r.Body).Decode(&create); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	shelter, rules, err := h.service.Create(r.Context(), &create)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, shelterCreated{Shelter: *shelter, Horarios: rules}); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ShelterHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	shelter, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, shelter); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ShelterHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	shelters, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, shelters, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ShelterHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var shelter model.Shelter
	if err := json.NewDecoder(r.Body).Decode(&shelter); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	updated, err := h.service.Update(r.Context(), ps.ByName("id"), &shelter)
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

func (h *ShelterHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ShelterHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/ongs", h.auth.RequireLevel(2, h.Create))
	router.GET("/api/v1/ongs", h.GetAll)
	router.GET("/api/v1/ongs/id/:id", h.GetByID)
	router.PUT("/api/v1/ongs/id/:id", h.auth.RequireLevel(2, h.Update))
	router.DELETE("/api/v1/ongs/id/:id", h.auth.RequireLevel(3, h.Delete))
}
