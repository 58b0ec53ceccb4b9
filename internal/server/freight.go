package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"landedcost/internal/freight"
	"landedcost/internal/logging"
	"landedcost/internal/rate"
)

// providerFetcher quotes in process, skipping the HTTP hop through the relay.
type providerFetcher struct {
	provider rate.Provider
}

func (f providerFetcher) Fetch(ctx context.Context, q freight.Query) (freight.ProviderQuote, error) {
	body, err := f.provider.Quote(ctx, rate.Query{
		Origin:      q.Origin,
		Destination: q.Destination,
		Weight:      q.WeightKg,
		Width:       float64(q.Dimensions.Width),
		Length:      float64(q.Dimensions.Length),
		Height:      float64(q.Dimensions.Height),
		LoadType:    q.LoadType,
		Quantity:    q.Quantity,
	})
	if err != nil {
		var uerr *rate.UpstreamError
		if errors.As(err, &uerr) {
			return freight.ProviderQuote{}, &freight.TransportError{Status: uerr.Status, Message: uerr.Message, Err: err}
		}
		return freight.ProviderQuote{}, &freight.TransportError{Err: err}
	}
	return freight.ParseProviderQuote(body)
}

// handleFreightRelay proxies the rate provider so credentials stay server side.
// Errors use the flat {"error": string} shape browser callers expect.
func (s *Server) handleFreightRelay(w http.ResponseWriter, r *http.Request) {
	q, err := rate.ParseQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	body, err := s.provider.Quote(r.Context(), q)
	if err != nil {
		status := http.StatusBadGateway
		var uerr *rate.UpstreamError
		if errors.As(err, &uerr) && uerr.Status >= 400 {
			status = uerr.Status
		}
		logging.FromContext(r.Context()).Warn("freight relay upstream failure",
			zap.String("origin", q.Origin),
			zap.String("destination", q.Destination),
			zap.Int("status", status),
			zap.Error(err),
		)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handleQuote always answers 200 with a tagged result; failures are in the body.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req freight.ShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	writeJSON(w, http.StatusOK, s.quoter.Quote(r.Context(), req))
}
