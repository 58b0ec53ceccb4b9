package freight

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Result is the tagged outcome of a quote. When OK is false only Error, Kind
// and RequestedMode are set.
type Result struct {
	OK             bool     `json:"ok"`
	Error          string   `json:"error,omitempty"`
	Kind           string   `json:"kind,omitempty"`
	MinCost        float64  `json:"minCost"`
	MaxCost        float64  `json:"maxCost"`
	AvgCost        float64  `json:"avgCost"`
	Currency       string   `json:"currency,omitempty"`
	TransitDays    *int     `json:"transitDays,omitempty"`
	TransitDaysMin *float64 `json:"transitDaysMin,omitempty"`
	TransitDaysMax *float64 `json:"transitDaysMax,omitempty"`
	RequestedMode  string   `json:"requestedMode,omitempty"`
	ResolvedMode   string   `json:"resolvedMode,omitempty"`
	// Fallback is set when no tier matched the requested mode and the
	// provider's first tier was used instead.
	Fallback bool `json:"fallback,omitempty"`
}

// MarshalJSON leaves the cost fields out of failed results.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	if r.OK {
		return json.Marshal(plain(r))
	}
	return json.Marshal(struct {
		plain
		MinCost *float64 `json:"minCost,omitempty"`
		MaxCost *float64 `json:"maxCost,omitempty"`
		AvgCost *float64 `json:"avgCost,omitempty"`
	}{plain: plain(r)})
}

// Failed builds a failure result from err.
func Failed(err error, requested Mode) Result {
	return Result{
		OK:            false,
		Error:         err.Error(),
		Kind:          ErrorKind(err),
		RequestedMode: string(requested),
	}
}

// Quoter turns a ShipmentRequest into a Result.
type Quoter struct {
	fetcher RateFetcher
	logger  *zap.Logger
	timeout time.Duration
}

// NewQuoter builds a Quoter. timeout <= 0 leaves deadlines to the caller.
func NewQuoter(fetcher RateFetcher, logger *zap.Logger, timeout time.Duration) *Quoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{fetcher: fetcher, logger: logger, timeout: timeout}
}

// Quote never returns an error: every failure is folded into the Result.
func (q *Quoter) Quote(ctx context.Context, req ShipmentRequest) Result {
	mode, err := req.Validate()
	if err != nil {
		q.logger.Info("freight request rejected", zap.Error(err))
		return Failed(err, Mode(req.Mode))
	}
	query := req.Prepare()

	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	quote, err := q.fetcher.Fetch(ctx, query)
	if err != nil {
		q.logger.Warn("freight quote failed",
			zap.String("origin", query.Origin),
			zap.String("destination", query.Destination),
			zap.String("kind", ErrorKind(err)),
			zap.Error(err),
		)
		return Failed(err, mode)
	}

	tier, fallback, err := SelectTier(quote.Tiers, mode)
	if err != nil {
		return Failed(err, mode)
	}
	est, err := Reduce(tier)
	if err != nil {
		return Failed(err, mode)
	}
	if fallback {
		q.logger.Warn("no freight tier matched requested mode; using first tier",
			zap.String("requested_mode", string(mode)),
			zap.String("resolved_mode", tier.Mode),
		)
	}

	return Result{
		OK:             true,
		MinCost:        est.MinCost,
		MaxCost:        est.MaxCost,
		AvgCost:        est.AvgCost,
		Currency:       est.Currency,
		TransitDays:    est.TransitDays,
		TransitDaysMin: est.TransitDaysMin,
		TransitDaysMax: est.TransitDaysMax,
		RequestedMode:  string(mode),
		ResolvedMode:   tier.Mode,
		Fallback:       fallback,
	}
}
