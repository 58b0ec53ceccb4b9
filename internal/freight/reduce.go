package freight

import "math"

const defaultCurrency = "USD"

// Estimate is the normalized cost of one tier.
type Estimate struct {
	MinCost        float64
	MaxCost        float64
	AvgCost        float64
	Currency       string
	TransitDays    *int
	TransitDaysMin *float64
	TransitDaysMax *float64
}

// Reduce extracts price and transit bounds from a tier. A tier without a price
// object fails with ErrNoPriceData; a zero price is a valid price.
func Reduce(t Tier) (Estimate, error) {
	if t.Price == nil {
		return Estimate{}, ErrNoPriceData
	}
	est := Estimate{Currency: defaultCurrency}
	if m := t.Price.Min; m != nil {
		est.MinCost = m.Amount
		if m.Currency != "" {
			est.Currency = m.Currency
		}
	}
	if m := t.Price.Max; m != nil {
		est.MaxCost = m.Amount
		if m.Currency != "" && (t.Price.Min == nil || t.Price.Min.Currency == "") {
			est.Currency = m.Currency
		}
	}
	est.AvgCost = (est.MinCost + est.MaxCost) / 2

	if tt := t.TransitTimes; tt != nil {
		est.TransitDaysMin = tt.Min
		est.TransitDaysMax = tt.Max
		est.TransitDays = transitDays(tt.Min, tt.Max)
	}
	return est, nil
}

func transitDays(min, max *float64) *int {
	var days float64
	switch {
	case min != nil && max != nil:
		days = (*min + *max) / 2
	case min != nil:
		days = *min
	case max != nil:
		days = *max
	default:
		return nil
	}
	// half rounds up
	d := int(math.Floor(days + 0.5))
	return &d
}
