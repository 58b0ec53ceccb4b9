package freight

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ProviderQuote is the validated provider response: the tiers in provider order.
type ProviderQuote struct {
	Tiers []Tier
}

// Tier is one shipping-mode/price option offered by the provider.
type Tier struct {
	Mode         string
	Price        *PriceRange
	TransitTimes *TransitTimes
}

// PriceRange holds the provider's price bounds. Either bound may be absent.
type PriceRange struct {
	Min *Money
	Max *Money
}

type Money struct {
	Amount   float64
	Currency string
}

// TransitTimes holds transit bounds in days. Either bound may be absent.
type TransitTimes struct {
	Min *float64
	Max *float64
}

type wireEnvelope struct {
	Error    string        `json:"error"`
	Response *wireResponse `json:"response"`
}

type wireResponse struct {
	Errors                json.RawMessage `json:"errors"`
	EstimatedFreightRates *struct {
		Mode json.RawMessage `json:"mode"`
	} `json:"estimatedFreightRates"`
}

type wireTier struct {
	Mode  string `json:"mode"`
	Price *struct {
		Min *wireBound `json:"min"`
		Max *wireBound `json:"max"`
	} `json:"price"`
	TransitTimes *struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	} `json:"transitTimes"`
}

type wireBound struct {
	MoneyAmount *struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"moneyAmount"`
}

// ParseProviderQuote validates a provider payload and converts it to a
// ProviderQuote. Embedded error payloads and malformed bodies yield a
// *ProviderDataError. A payload without estimated rates yields no tiers.
func ParseProviderQuote(body []byte) (ProviderQuote, error) {
	var env wireEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ProviderQuote{}, &ProviderDataError{Message: "malformed provider payload"}
	}
	if msg := strings.TrimSpace(env.Error); msg != "" {
		return ProviderQuote{}, &ProviderDataError{Message: msg}
	}
	if env.Response == nil {
		return ProviderQuote{}, &ProviderDataError{Message: "provider payload has no response"}
	}
	if msg := embeddedErrors(env.Response.Errors); msg != "" {
		return ProviderQuote{}, &ProviderDataError{Message: msg}
	}
	if env.Response.EstimatedFreightRates == nil {
		return ProviderQuote{}, nil
	}

	raw := bytes.TrimSpace(env.Response.EstimatedFreightRates.Mode)
	var wire []wireTier
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '{':
		// single-quote responses carry one object instead of a list
		var one wireTier
		if err := json.Unmarshal(raw, &one); err != nil {
			return ProviderQuote{}, &ProviderDataError{Message: "malformed freight tier"}
		}
		wire = []wireTier{one}
	default:
		if err := json.Unmarshal(raw, &wire); err != nil {
			return ProviderQuote{}, &ProviderDataError{Message: "malformed freight tier list"}
		}
	}

	quote := ProviderQuote{Tiers: make([]Tier, 0, len(wire))}
	for _, w := range wire {
		quote.Tiers = append(quote.Tiers, w.toTier())
	}
	return quote, nil
}

func (w wireTier) toTier() Tier {
	t := Tier{Mode: w.Mode}
	if w.Price != nil {
		t.Price = &PriceRange{Min: w.Price.Min.money(), Max: w.Price.Max.money()}
	}
	if w.TransitTimes != nil {
		t.TransitTimes = &TransitTimes{Min: w.TransitTimes.Min, Max: w.TransitTimes.Max}
	}
	return t
}

func (b *wireBound) money() *Money {
	if b == nil || b.MoneyAmount == nil {
		return nil
	}
	return &Money{Amount: b.MoneyAmount.Amount, Currency: b.MoneyAmount.Currency}
}

// embeddedErrors flattens the provider's errors field, which may be a string,
// a list of strings or an arbitrary object.
func embeddedErrors(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, "; "))
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	switch buf.String() {
	case "[]", "{}":
		return ""
	}
	return buf.String()
}
