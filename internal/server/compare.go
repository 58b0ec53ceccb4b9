package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"landedcost/internal/history"
	"landedcost/internal/landed"
	"landedcost/internal/logging"
)

// CompareRequest is a comparison plus an optional request to keep it in history.
type CompareRequest struct {
	landed.ComparisonRequest
	Save  bool   `json:"save"`
	Label string `json:"label"`
}

type CompareResponse struct {
	landed.Comparison
	HistoryID string `json:"historyId,omitempty"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if len(req.Countries) == 0 {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "countries required")
		return
	}
	if req.InsuranceRate == nil && s.insuranceRate > 0 {
		rate := s.insuranceRate
		req.InsuranceRate = &rate
	}

	cmp, err := s.comparator.Compare(r.Context(), req.ComparisonRequest)
	if errors.Is(err, landed.ErrNoComparableResults) {
		writeErrorJSONWith(w, http.StatusUnprocessableEntity, "no_comparable_results", "no comparable results",
			map[string]any{"failures": cmp.Failures})
		return
	}
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "compare_failed", "comparison failed")
		return
	}

	resp := CompareResponse{Comparison: cmp}
	if req.Save {
		raw, err := json.Marshal(cmp)
		if err == nil {
			var rec history.Record
			rec, err = s.history.Create(r.Context(), history.Record{
				Label:       req.Label,
				Destination: req.Destination,
				Mode:        req.Mode,
				WeightKg:    req.WeightKg,
				Comparison:  raw,
			})
			resp.HistoryID = rec.ID.String()
		}
		if err != nil {
			// the comparison itself succeeded; report it without a history id
			logging.FromContext(r.Context()).Error("save comparison history", zap.Error(err))
			resp.HistoryID = ""
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
