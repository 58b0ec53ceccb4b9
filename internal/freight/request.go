package freight

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// DefaultLoadType is the provider load category used when none is given.
const DefaultLoadType = "boxes"

// ShipmentRequest is what a caller asks to quote. OriginCountry and
// DestinationCountry optionally carry a city hint.
type ShipmentRequest struct {
	Origin             string   `json:"origin"`
	Destination        string   `json:"destination"`
	WeightKg           float64  `json:"weight"`
	Mode               string   `json:"mode,omitempty"`
	LoadType           string   `json:"loadType,omitempty"`
	Quantity           int      `json:"quantity,omitempty"`
	OriginCountry      *Country `json:"originCountry,omitempty"`
	DestinationCountry *Country `json:"destinationCountry,omitempty"`
}

// Query is a dimensioned, location-resolved request ready for the relay.
type Query struct {
	Origin      string
	Destination string
	WeightKg    float64
	Dimensions  Dimensions
	LoadType    string
	Quantity    int
}

// Validate checks the required fields and returns the normalized mode.
func (r ShipmentRequest) Validate() (Mode, error) {
	if strings.TrimSpace(r.Origin) == "" {
		return "", &ValidationError{Field: "origin", Message: "required"}
	}
	if strings.TrimSpace(r.Destination) == "" {
		return "", &ValidationError{Field: "destination", Message: "required"}
	}
	if math.IsNaN(r.WeightKg) || math.IsInf(r.WeightKg, 0) || r.WeightKg <= 0 {
		return "", &ValidationError{Field: "weight", Message: "must be a positive number"}
	}
	if r.Quantity < 0 {
		return "", &ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	mode, ok := ParseMode(r.Mode)
	if !ok {
		return "", &ValidationError{Field: "mode", Message: "must be one of air, ocean, express"}
	}
	return mode, nil
}

// Prepare resolves locations and estimates dimensions. The request must
// already be valid.
func (r ShipmentRequest) Prepare() Query {
	q := Query{
		Origin:      ResolveLocation(strings.TrimSpace(r.Origin), r.OriginCountry),
		Destination: ResolveLocation(strings.TrimSpace(r.Destination), r.DestinationCountry),
		WeightKg:    r.WeightKg,
		Dimensions:  EstimateDimensions(r.WeightKg),
		LoadType:    strings.TrimSpace(r.LoadType),
		Quantity:    r.Quantity,
	}
	if q.LoadType == "" {
		q.LoadType = DefaultLoadType
	}
	if q.Quantity == 0 {
		q.Quantity = 1
	}
	return q
}

// Values encodes the query with the relay's parameter names.
func (q Query) Values() url.Values {
	width, length, height := q.Dimensions.Values()
	v := url.Values{}
	v.Set("origin", q.Origin)
	v.Set("destination", q.Destination)
	v.Set("weight", strconv.FormatFloat(q.WeightKg, 'f', -1, 64))
	v.Set("width", width)
	v.Set("length", length)
	v.Set("height", height)
	v.Set("loadtype", q.LoadType)
	v.Set("quantity", strconv.Itoa(q.Quantity))
	return v
}
