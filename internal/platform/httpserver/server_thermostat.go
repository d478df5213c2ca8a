package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	domainerrors "thermasense/contexts/building-comfort/thermostat-engine/domain/errors"
	thermostathttp "thermasense/contexts/building-comfort/thermostat-engine/transport/http"
	"thermasense/internal/platform/validation"
)

const maxHistoryHours = 24 * 7

// handleRoot godoc
// @Summary Service info
// @Tags Root
// @Produce json
// @Success 200 {object} thermostathttp.InfoResponse
// @Router / [get]
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, thermostathttp.InfoResponse{
		Message:       "Welcome to ThermaSense API!",
		Service:       s.options.ServiceName,
		DocsURL:       "/swagger/index.html",
		MonitoringURL: "/admin/history",
		MetricsURL:    "/metrics",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.options.HealthCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.options.HealthCheck(ctx); err != nil {
			s.logger.Warn("health check failed",
				"event", "http_health_check_failed",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"error", err.Error(),
			)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSubmitVote godoc
// @Summary Submit an occupant vote
// @Tags User Endpoints
// @Accept json
// @Produce json
// @Param vote body thermostathttp.VoteRequest true "vote"
// @Success 201 {object} thermostathttp.VoteResponse
// @Failure 404 {object} thermostathttp.ErrorResponse
// @Failure 422 {object} thermostathttp.ErrorResponse
// @Router /api/vote [post]
func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	var req thermostathttp.VoteRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeThermostatError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.ZoneID = strings.TrimSpace(req.ZoneID)
	if err := validation.ValidateStruct(req); err != nil {
		writeThermostatError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
		return
	}

	resp, err := s.thermostat.Handler.SubmitVoteHandler(r.Context(), req)
	if err != nil {
		writeThermostatDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleListZones godoc
// @Summary List zones
// @Tags User Endpoints
// @Produce json
// @Success 200 {array} thermostathttp.ZoneResponse
// @Router /api/zones [get]
func (s *Server) handleListZones(w http.ResponseWriter, r *http.Request) {
	resp, err := s.thermostat.Handler.ListZonesHandler(r.Context())
	if err != nil {
		writeThermostatDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleZoneStatus godoc
// @Summary Zone temperatures
// @Tags User Endpoints
// @Produce json
// @Param zone_id path string true "zone id"
// @Success 200 {object} thermostathttp.ZoneResponse
// @Failure 404 {object} thermostathttp.ErrorResponse
// @Router /api/zones/{zone_id}/status [get]
func (s *Server) handleZoneStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.thermostat.Handler.ZoneStatusHandler(r.Context(), r.PathValue("zone_id"))
	if err != nil {
		writeThermostatDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleVoteStats godoc
// @Summary Vote counts in the current window
// @Tags User Endpoints
// @Produce json
// @Param zone_id path string true "zone id"
// @Success 200 {object} thermostathttp.VoteStatsResponse
// @Failure 404 {object} thermostathttp.ErrorResponse
// @Router /api/zones/{zone_id}/stats [get]
func (s *Server) handleVoteStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.thermostat.Handler.VoteStatsHandler(r.Context(), r.PathValue("zone_id"))
	if err != nil {
		writeThermostatDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHistory godoc
// @Summary Monitoring history for every zone
// @Tags Admin Panel
// @Produce json
// @Param hours query int false "look-back in hours (default 1, max 168)"
// @Success 200 {object} thermostathttp.HistoryResponse
// @Router /admin/history [get]
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	hours := 1
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxHistoryHours {
			writeThermostatError(w, http.StatusBadRequest, "invalid_hours", "hours must be an integer between 1 and 168")
			return
		}
		hours = parsed
	}
	resp, err := s.thermostat.Handler.HistoryHandler(r.Context(), hours)
	if err != nil {
		writeThermostatDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRunCycle godoc
// @Summary Run one recommendation cycle now
// @Tags Admin Panel
// @Produce json
// @Param zone_id path string true "zone id"
// @Success 200 {object} thermostathttp.CycleResponse
// @Failure 404 {object} thermostathttp.ErrorResponse
// @Router /admin/zones/{zone_id}/cycle [post]
func (s *Server) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	resp, err := s.thermostat.Handler.RunCycleHandler(r.Context(), r.PathValue("zone_id"))
	if err != nil {
		writeThermostatDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRunAllCycles godoc
// @Summary Sweep every zone
// @Tags Admin Panel
// @Produce json
// @Success 200 {object} thermostathttp.SweepResponse
// @Router /admin/cycles [post]
func (s *Server) handleRunAllCycles(w http.ResponseWriter, r *http.Request) {
	resp, err := s.thermostat.Handler.RunAllCyclesHandler(r.Context())
	if err != nil {
		writeThermostatDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeThermostatDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrZoneNotFound):
		writeThermostatError(w, http.StatusNotFound, "zone_not_found", "Zone not found")
	case errors.Is(err, domainerrors.ErrInvalidVoteInput):
		writeThermostatError(w, http.StatusUnprocessableEntity, "invalid_vote", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidZoneInput):
		writeThermostatError(w, http.StatusBadRequest, "invalid_zone", err.Error())
	case errors.Is(err, domainerrors.ErrActuatorUnavailable):
		writeThermostatError(w, http.StatusServiceUnavailable, "actuator_unavailable", err.Error())
	case errors.Is(err, domainerrors.ErrConflict):
		writeThermostatError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeThermostatError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeThermostatError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, thermostathttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
