package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"landedcost/internal/freight"
	"landedcost/internal/history"
	"landedcost/internal/landed"
	"landedcost/internal/logging"
	"landedcost/internal/rate"
)

// Deps are the collaborators of the HTTP server. Zero values get local
// defaults: the dummy provider and an in-memory history.
type Deps struct {
	Provider           rate.Provider
	History            history.Repository
	Logger             *zap.Logger
	QuoteTimeout       time.Duration
	CompareConcurrency int
	InsuranceRate      float64
}

type Server struct {
	provider      rate.Provider
	history       history.Repository
	logger        *zap.Logger
	quoter        *freight.Quoter
	comparator    *landed.Comparator
	insuranceRate float64
}

func New(deps Deps) http.Handler {
	if deps.Provider == nil {
		deps.Provider = rate.NewDummy()
	}
	if deps.History == nil {
		deps.History = history.NewMemoryRepository()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	quoter := freight.NewQuoter(providerFetcher{provider: deps.Provider}, deps.Logger, deps.QuoteTimeout)
	s := &Server{
		provider:      deps.Provider,
		history:       deps.History,
		logger:        deps.Logger,
		quoter:        quoter,
		comparator:    landed.NewComparator(quoter, deps.Logger, deps.CompareConcurrency),
		insuranceRate: deps.InsuranceRate,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/freight", s.handleFreightRelay)
		r.Post("/quote", s.handleQuote)
		r.Post("/compare", s.handleCompare)
		r.Get("/history", s.handleListHistory)
		r.Post("/history", s.handleCreateHistory)
		r.Get("/history/{id}", s.handleGetHistory)
		r.Delete("/history/{id}", s.handleDeleteHistory)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type requestIDKey struct{}

// requestIDMiddleware ensures X-Request-ID is set on the response.
// If provided in the request header, it is propagated; otherwise a UUID is generated.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if rid == "" {
			rid = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, rid)))
	})
}

// requestLogger attaches a request-scoped logger to the context and logs
// each request once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid, _ := r.Context().Value(requestIDKey{}).(string)
		logger := s.logger.With(zap.String("request_id", rid))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), logger)))

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// writeErrorJSON writes a standardized JSON error response:
// {"error": {"code": string, "message": string}}
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
	writeErrorJSONWith(w, status, code, message, nil)
}

// writeErrorJSONWith adds top-level fields next to the error envelope.
func writeErrorJSONWith(w http.ResponseWriter, status int, code, message string, extra map[string]any) {
	payload := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}
	for k, v := range extra {
		payload[k] = v
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
