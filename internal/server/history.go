package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"landedcost/internal/history"
	"landedcost/internal/logging"
)

const defaultHistoryLimit = 50

type HistoryCreateRequest struct {
	Label       string          `json:"label"`
	Destination string          `json:"destination"`
	Mode        string          `json:"mode"`
	WeightKg    float64         `json:"weight"`
	Comparison  json.RawMessage `json:"comparison"`
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorJSON(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	records, err := s.history.List(r.Context(), limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("list history", zap.Error(err))
		writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": records})
}

func (s *Server) handleCreateHistory(w http.ResponseWriter, r *http.Request) {
	var req HistoryCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if len(req.Comparison) > 0 && !json.Valid(req.Comparison) {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid comparison")
		return
	}
	rec, err := s.history.Create(r.Context(), history.Record{
		Label:       req.Label,
		Destination: req.Destination,
		Mode:        req.Mode,
		WeightKg:    req.WeightKg,
		Comparison:  req.Comparison,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("create history", zap.Error(err))
		writeErrorJSON(w, http.StatusInternalServerError, "db_error", "failed to save history")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := historyID(w, r)
	if !ok {
		return
	}
	rec, err := s.history.Get(r.Context(), id)
	if err != nil {
		writeHistoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := historyID(w, r)
	if !ok {
		return
	}
	if err := s.history.Delete(r.Context(), id); err != nil {
		writeHistoryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func historyID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func writeHistoryError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, history.ErrNotFound) {
		writeErrorJSON(w, http.StatusNotFound, "resource_not_found", "not found")
		return
	}
	logging.FromContext(r.Context()).Error("history lookup", zap.Error(err))
	writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
}
