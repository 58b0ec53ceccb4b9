// Package landed combines upstream tariff results with freight quotes into
// landed costs and ranks candidate countries of origin.
package landed

import (
	"sort"

	"landedcost/internal/freight"
)

// AppliedRate is the duty breakdown reported by the tariff engine. Components
// are optional; a suspension or preference may leave no duty at all.
type AppliedRate struct {
	Label        string   `json:"label,omitempty"`
	AdValorem    *float64 `json:"adValorem,omitempty"`
	Specific     *float64 `json:"specific,omitempty"`
	Preferential *float64 `json:"preferential,omitempty"`
	Suspension   *float64 `json:"suspension,omitempty"`
}

// TariffCalculationResult is produced by the external tariff engine. It is
// read here, never computed.
type TariffCalculationResult struct {
	TradeOriginal   float64     `json:"tradeOriginal"`
	TradeFinal      float64     `json:"tradeFinal"`
	AppliedRate     AppliedRate `json:"appliedRate"`
	FreightCost     *float64    `json:"freightCost,omitempty"`
	InsuranceCost   *float64    `json:"insuranceCost,omitempty"`
	InsuranceRate   *float64    `json:"insuranceRate,omitempty"`
	TotalLandedCost *float64    `json:"totalLandedCost,omitempty"`
}

// DutyAmount is the duty added on top of the trade value. It may be zero or
// negative.
func (r TariffCalculationResult) DutyAmount() float64 {
	return r.TradeFinal - r.TradeOriginal
}

// TotalCost is the value used for ranking: the landed total when known,
// otherwise the duty-inclusive trade value.
func (r TariffCalculationResult) TotalCost() float64 {
	if r.TotalLandedCost != nil {
		return *r.TotalLandedCost
	}
	return r.TradeFinal
}

// Breakdown is the landed cost split into its parts.
type Breakdown struct {
	Base      float64 `json:"base"`
	Duty      float64 `json:"duty"`
	Freight   float64 `json:"freight"`
	Insurance float64 `json:"insurance"`
	// Other is what a reported landed total carries beyond the known parts.
	Other     float64 `json:"other,omitempty"`
	Total     float64 `json:"total"`
}

// Compose builds the landed-cost breakdown of r. Explicit freight and
// insurance costs on r win; otherwise freight comes from a successful quote
// and insurance is InsuranceRate (a fraction) of base plus freight. A
// reported TotalLandedCost is kept as Total, with any gap in Other.
func Compose(r TariffCalculationResult, quote *freight.Result) Breakdown {
	b := Breakdown{Base: r.TradeOriginal, Duty: r.DutyAmount()}
	switch {
	case r.FreightCost != nil:
		b.Freight = *r.FreightCost
	case quote != nil && quote.OK:
		b.Freight = quote.AvgCost
	}
	switch {
	case r.InsuranceCost != nil:
		b.Insurance = *r.InsuranceCost
	case r.InsuranceRate != nil:
		b.Insurance = *r.InsuranceRate * (b.Base + b.Freight)
	}
	b.Total = b.Base + b.Duty + b.Freight + b.Insurance
	if r.TotalLandedCost != nil {
		b.Other = *r.TotalLandedCost - b.Total
		b.Total = *r.TotalLandedCost
	}
	return b
}

// WithFreight returns a copy of r with missing freight, insurance and landed
// total filled from Compose.
func WithFreight(r TariffCalculationResult, quote *freight.Result) TariffCalculationResult {
	b := Compose(r, quote)
	if r.FreightCost == nil {
		r.FreightCost = &b.Freight
	}
	if r.InsuranceCost == nil && r.InsuranceRate != nil {
		r.InsuranceCost = &b.Insurance
	}
	if r.TotalLandedCost == nil {
		r.TotalLandedCost = &b.Total
	}
	return r
}

// Candidate is one country of origin to rank.
type Candidate struct {
	CountryName string
	Result      TariffCalculationResult
}

// ComparisonResult is a ranked candidate.
type ComparisonResult struct {
	CountryName string                  `json:"countryName"`
	Rank        int                     `json:"rank"`
	PercentDiff float64                 `json:"percentDiff"`
	TotalCost   float64                 `json:"totalCost"`
	Breakdown   Breakdown               `json:"breakdown"`
	Result      TariffCalculationResult `json:"result"`
}

// Rank sorts candidates ascending by TotalCost. Ranks are 1-based positions
// in that order; equal costs keep input order and still get distinct ranks.
// PercentDiff is relative to rank 1 and is 0 when rank 1 costs nothing.
func Rank(cands []Candidate) []ComparisonResult {
	out := make([]ComparisonResult, len(cands))
	for i, c := range cands {
		out[i] = ComparisonResult{
			CountryName: c.CountryName,
			TotalCost:   c.Result.TotalCost(),
			Breakdown:   Compose(c.Result, nil),
			Result:      c.Result,
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalCost < out[j].TotalCost })

	for i := range out {
		out[i].Rank = i + 1
		if i == 0 {
			continue
		}
		if base := out[0].TotalCost; base != 0 {
			out[i].PercentDiff = (out[i].TotalCost - base) / base * 100
		}
	}
	return out
}
