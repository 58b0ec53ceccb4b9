package landed

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"landedcost/internal/freight"
)

// ErrNoComparableResults is returned when no candidate could be ranked.
var ErrNoComparableResults = errors.New("no comparable results")

const defaultConcurrency = 4

// Quoter quotes a single shipment. *freight.Quoter satisfies it.
type Quoter interface {
	Quote(ctx context.Context, req freight.ShipmentRequest) freight.Result
}

// CountryInput is one candidate origin with its precomputed tariff result.
type CountryInput struct {
	CountryName string                  `json:"countryName"`
	CountryCode string                  `json:"countryCode"`
	City        string                  `json:"city,omitempty"`
	Tariff      TariffCalculationResult `json:"tariff"`
}

// ComparisonRequest describes a multi-country comparison. With IncludeFreight
// unset the tariff results are ranked as given.
type ComparisonRequest struct {
	Destination     string         `json:"destination"`
	DestinationCity string         `json:"destinationCity,omitempty"`
	WeightKg        float64        `json:"weight"`
	Mode            string         `json:"mode,omitempty"`
	LoadType        string         `json:"loadType,omitempty"`
	InsuranceRate   *float64       `json:"insuranceRate,omitempty"`
	IncludeFreight  bool           `json:"includeFreight"`
	Countries       []CountryInput `json:"countries"`
}

// Failure is a candidate excluded from the ranking.
type Failure struct {
	CountryName string `json:"countryName"`
	Kind        string `json:"kind,omitempty"`
	Error       string `json:"error"`
}

// CountryQuote is the freight quote obtained for one candidate.
type CountryQuote struct {
	CountryName string         `json:"countryName"`
	CountryCode string         `json:"countryCode,omitempty"`
	Quote       freight.Result `json:"quote"`
}

// Comparison is the ranked outcome plus the candidates that dropped out.
// Freight lists quotes in candidate order.
type Comparison struct {
	Ranked   []ComparisonResult `json:"ranked"`
	Failures []Failure          `json:"failures"`
	Freight  []CountryQuote     `json:"freight,omitempty"`
}

// Comparator runs freight quotes for every candidate and ranks the results.
type Comparator struct {
	quoter      Quoter
	logger      *zap.Logger
	concurrency int
}

// NewComparator builds a Comparator. concurrency <= 0 uses a small default.
func NewComparator(quoter Quoter, logger *zap.Logger, concurrency int) *Comparator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Comparator{quoter: quoter, logger: logger, concurrency: concurrency}
}

// Compare quotes all candidates concurrently, waits for every quote, and
// ranks the ones that succeeded. It returns ErrNoComparableResults, together
// with the failures, when nothing could be ranked.
func (c *Comparator) Compare(ctx context.Context, req ComparisonRequest) (Comparison, error) {
	results := make([]freight.Result, len(req.Countries))
	if req.IncludeFreight && c.quoter != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)
		for i, country := range req.Countries {
			g.Go(func() error {
				results[i] = c.quoter.Quote(gctx, shipmentFor(req, country))
				return nil
			})
		}
		_ = g.Wait()
	}

	cmp := Comparison{Failures: []Failure{}}
	if req.IncludeFreight {
		cmp.Freight = make([]CountryQuote, 0, len(req.Countries))
	}
	cands := make([]Candidate, 0, len(req.Countries))
	for i, country := range req.Countries {
		tariff := country.Tariff
		if tariff.InsuranceRate == nil && req.InsuranceRate != nil {
			tariff.InsuranceRate = req.InsuranceRate
		}
		if req.IncludeFreight {
			res := results[i]
			if c.quoter == nil {
				res = freight.Failed(errors.New("freight quoting is not configured"), freight.Mode(req.Mode))
			}
			cmp.Freight = append(cmp.Freight, CountryQuote{CountryName: country.CountryName, CountryCode: country.CountryCode, Quote: res})
			if !res.OK {
				cmp.Failures = append(cmp.Failures, Failure{CountryName: country.CountryName, Kind: res.Kind, Error: res.Error})
				continue
			}
			tariff = WithFreight(tariff, &res)
		}
		cands = append(cands, Candidate{CountryName: country.CountryName, Result: tariff})
	}

	cmp.Ranked = Rank(cands)
	c.logger.Info("comparison ranked",
		zap.Int("candidates", len(req.Countries)),
		zap.Int("ranked", len(cmp.Ranked)),
		zap.Int("failed", len(cmp.Failures)),
	)
	if len(cmp.Ranked) == 0 {
		return cmp, ErrNoComparableResults
	}
	return cmp, nil
}

func shipmentFor(req ComparisonRequest, country CountryInput) freight.ShipmentRequest {
	origin := country.CountryCode
	if origin == "" {
		origin = country.CountryName
	}
	s := freight.ShipmentRequest{
		Origin:        origin,
		Destination:   req.Destination,
		WeightKg:      req.WeightKg,
		Mode:          req.Mode,
		LoadType:      req.LoadType,
		OriginCountry: &freight.Country{Code: country.CountryCode, Name: country.CountryName, City: country.City},
	}
	if req.DestinationCity != "" {
		s.DestinationCountry = &freight.Country{Code: req.Destination, City: req.DestinationCity}
	}
	return s
}
