package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/KarolineKS/PetMatch-api/internal/schedules/service"
	"github.com/KarolineKS/PetMatch-api/pkg/config"
	apperrors "github.com/KarolineKS/PetMatch-api/pkg/errors"
	httputil "github.com/KarolineKS/PetMatch-api/pkg/http"
	"github.com/KarolineKS/PetMatch-api/pkg/logger"
	"github.com/KarolineKS/PetMatch-api/pkg/middleware"
	"github.com/KarolineKS/PetMatch-api/pkg/model"
)

var weekdayNames = [7]string{
	"Domingo", "Segunda-feira", "Terça-feira", "Quarta-feira",
	"Quinta-feira", "Sexta-feira", "Sábado",
}

type ScheduleHandler struct {
	service service.ScheduleService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewScheduleHandler(service service.ScheduleService, auth *middleware.Authenticator, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

// ruleResponse adds the human-readable weekday alongside the stored rule.
type ruleResponse struct {
	model.ScheduleRule
	DiaSemanaTexto string `json:"diaSemanaTexto"`
}

func toRuleResponse(rule *model.ScheduleRule) ruleResponse {
	resp := ruleResponse{ScheduleRule: *rule}
	if rule.DiaSemana >= 0 && rule.DiaSemana < len(weekdayNames) {
		resp.DiaSemanaTexto = weekdayNames[rule.DiaSemana]
	}
	return resp
}

func (h *ScheduleHandler) UpsertRule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var rule model.ScheduleRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "UpsertRule", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	stored, created, err := h.service.UpsertRule(r.Context(), &rule)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UpsertRule", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	if err := httputil.WriteJSON(w, status, httputil.SuccessResponse{Data: toRuleResponse(stored)}); err != nil {
		h.log.Error("failed to write response", "handler", "UpsertRule", "operation", "WriteJSON", "error", err)
	}
}

func (h *ScheduleHandler) GetRulesByOng(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ongID := ps.ByName("ongId")

	rules, err := h.service.RulesForOng(r.Context(), ongID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetRulesByOng", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	resp := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, toRuleResponse(rule))
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "GetRulesByOng", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) CreateException(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var exception model.ScheduleException
	if err := json.NewDecoder(r.Body).Decode(&exception); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateException", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.CreateException(r.Context(), &exception); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CreateException", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, exception); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateException", "operation", "WriteCreated", "error", err)
	}
}

func (h *ScheduleHandler) GetExceptionsByOng(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ongID := ps.ByName("ongId")

	exceptions, err := h.service.ExceptionsForOng(r.Context(), ongID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetExceptionsByOng", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, exceptions); err != nil {
		h.log.Error("failed to write success response", "handler", "GetExceptionsByOng", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ongID := ps.ByName("ongId")

	day, err := parseDateParam(ps.ByName("data"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAvailableSlots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	availability, err := h.service.AvailableSlots(r.Context(), ongID, day)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAvailableSlots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAvailableSlots", "operation", "WriteSuccess", "error", err)
	}
}

// availabilityCheck is the POST /horarios/verificar-disponibilidade payload.
type availabilityCheck struct {
	OngID   string `json:"ongId"`
	Data    string `json:"data"`
	Horario string `json:"horario"`
}

type availabilityResult struct {
	Disponivel bool `json:"disponivel"`
}

func (h *ScheduleHandler) CheckAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req availabilityCheck
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CheckAvailability", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if req.OngID == "" || req.Data == "" || req.Horario == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("ongId, data and horario are required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CheckAvailability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	day, err := parseDateParam(req.Data)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CheckAvailability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	available, err := h.service.SlotAvailable(r.Context(), req.OngID, day, req.Horario)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CheckAvailability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, availabilityResult{Disponivel: available}); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckAvailability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) GetOccupancyReport(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ongID := ps.ByName("ongId")

	start, err := parseDateParam(ps.ByName("inicio"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetOccupancyReport", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	end, err := parseDateParam(ps.ByName("fim"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetOccupancyReport", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	report, err := h.service.OccupancyReport(r.Context(), ongID, start, end)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetOccupancyReport", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "GetOccupancyReport", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/horarios/funcionamento", h.auth.RequireLevel(2, h.UpsertRule))
	router.GET("/api/v1/horarios/funcionamento/ong/:ongId", h.GetRulesByOng)
	router.POST("/api/v1/horarios/excecao", h.auth.RequireLevel(2, h.CreateException))
	router.GET("/api/v1/horarios/excecao/ong/:ongId", h.GetExceptionsByOng)
	router.GET("/api/v1/horarios/disponiveis/:ongId/:data", h.GetAvailableSlots)
	router.POST("/api/v1/horarios/verificar-disponibilidade", h.CheckAvailability)
	router.GET("/api/v1/horarios/relatorio/:ongId/:inicio/:fim", h.auth.RequireLevel(2, h.GetOccupancyReport))
}

func parseDateParam(value string) (time.Time, error) {
	day, err := time.Parse(config.DateLayout, value)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value))
	}
	return day, nil
}
