package rate

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Query is a relay request in the provider's vocabulary.
type Query struct {
	Origin      string
	Destination string
	Weight      float64
	Width       float64
	Length      float64
	Height      float64
	LoadType    string
	Quantity    int
}

// Defaults applied by the relay when a parameter is omitted.
const (
	DefaultDimension = 50.0
	DefaultLoadType  = "boxes"
	DefaultQuantity  = 1
)

// QueryError reports an invalid relay parameter.
type QueryError struct {
	Param   string
	Message string
}

func (e *QueryError) Error() string { return e.Param + " " + e.Message }

// ParseQuery reads relay parameters. origin, destination and weight are
// required; everything else has a default.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Origin:      strings.TrimSpace(v.Get("origin")),
		Destination: strings.TrimSpace(v.Get("destination")),
		Width:       DefaultDimension,
		Length:      DefaultDimension,
		Height:      DefaultDimension,
		LoadType:    DefaultLoadType,
		Quantity:    DefaultQuantity,
	}
	if q.Origin == "" || q.Destination == "" || strings.TrimSpace(v.Get("weight")) == "" {
		return Query{}, &QueryError{Param: "origin, destination, weight", Message: "are required"}
	}
	w, err := positive(v.Get("weight"))
	if err != nil {
		return Query{}, &QueryError{Param: "weight", Message: "must be a positive number"}
	}
	q.Weight = w

	for name, dst := range map[string]*float64{"width": &q.Width, "length": &q.Length, "height": &q.Height} {
		raw := strings.TrimSpace(v.Get(name))
		if raw == "" {
			continue
		}
		f, err := positive(raw)
		if err != nil {
			return Query{}, &QueryError{Param: name, Message: "must be a positive number"}
		}
		*dst = f
	}
	if lt := strings.TrimSpace(v.Get("loadtype")); lt != "" {
		q.LoadType = lt
	}
	if raw := strings.TrimSpace(v.Get("quantity")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Query{}, &QueryError{Param: "quantity", Message: "must be a positive integer"}
		}
		q.Quantity = n
	}
	return q, nil
}

func positive(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, fmt.Errorf("not positive: %v", f)
	}
	return f, nil
}

// Values encodes q with the provider's parameter names.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("origin", q.Origin)
	v.Set("destination", q.Destination)
	v.Set("weight", formatFloat(q.Weight))
	v.Set("width", formatFloat(q.Width))
	v.Set("length", formatFloat(q.Length))
	v.Set("height", formatFloat(q.Height))
	v.Set("loadtype", q.LoadType)
	v.Set("quantity", strconv.Itoa(q.Quantity))
	return v
}

// Key is a normalized cache key for q.
func (q Query) Key() string {
	return strings.Join([]string{
		strings.ToUpper(q.Origin),
		strings.ToUpper(q.Destination),
		formatFloat(q.Weight),
		formatFloat(q.Width),
		formatFloat(q.Length),
		formatFloat(q.Height),
		strings.ToLower(q.LoadType),
		strconv.Itoa(q.Quantity),
	}, "|")
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// Provider returns the raw provider JSON for a query.
type Provider interface {
	Quote(ctx context.Context, q Query) ([]byte, error)
}

// UpstreamError reports a failed upstream call. Status is the upstream HTTP
// status, or 0 when the provider could not be reached.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return "rate provider unreachable: " + e.Message
	}
	return fmt.Sprintf("rate provider returned %d: %s", e.Status, e.Message)
}

// Dummy is a deterministic local provider. Prices follow a flat
// base-plus-weight heuristic with an international surcharge.
type Dummy struct{}

func NewDummy() *Dummy { return &Dummy{} }

type dummyTier struct {
	label   string
	base    float64
	perKg   float64
	minDays float64
	maxDays float64
	spread  float64
}

var dummyTiers = []dummyTier{
	{label: "air", base: 50, perKg: 4.5, minDays: 3, maxDays: 7, spread: 1.35},
	{label: "LCL", base: 150, perKg: 0.6, minDays: 25, maxDays: 40, spread: 1.5},
	{label: "express", base: 35, perKg: 9, minDays: 1, maxDays: 4, spread: 1.2},
}

func (d *Dummy) Quote(ctx context.Context, q Query) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// chargeable weight: the greater of actual and volumetric (6000 cm³/kg)
	chargeable := math.Max(q.Weight, q.Width*q.Length*q.Height/6000) * float64(q.Quantity)
	surcharge := 0.0
	if !strings.EqualFold(q.Origin, q.Destination) {
		surcharge = 30
	}

	modes := make([]map[string]any, 0, len(dummyTiers))
	for _, t := range dummyTiers {
		low := round2(t.base + chargeable*t.perKg + surcharge)
		modes = append(modes, map[string]any{
			"mode": t.label,
			"price": map[string]any{
				"min": money(low),
				"max": money(round2(low * t.spread)),
			},
			"transitTimes": map[string]any{"unit": "days", "min": t.minDays, "max": t.maxDays},
		})
	}
	return json.Marshal(map[string]any{
		"response": map[string]any{
			"estimatedFreightRates": map[string]any{
				"numQuotes": len(modes),
				"mode":      modes,
			},
		},
	})
}

func money(amount float64) map[string]any {
	return map[string]any{"moneyAmount": map[string]any{"amount": amount, "currency": "USD"}}
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

// Options configures provider construction.
type Options struct {
	UpstreamURL string
	APIKey      string
	Timeout     time.Duration
}

// NewByName returns a Provider by name. Unknown names, and "upstream" without
// a URL, fall back to Dummy.
func NewByName(name string, opts Options) Provider {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "upstream":
		if strings.TrimSpace(opts.UpstreamURL) == "" {
			return NewDummy()
		}
		return NewUpstream(opts.UpstreamURL, opts.APIKey, opts.Timeout)
	default:
		return NewDummy()
	}
}
