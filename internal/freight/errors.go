package freight

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRatesAvailable is returned when the provider offers no tiers at all.
	ErrNoRatesAvailable = errors.New("no freight rates available for this route")
	// ErrNoPriceData is returned when the selected tier carries no price object.
	ErrNoPriceData = errors.New("selected freight tier has no price data")
)

// TransportError reports a failure reaching the relay or provider. Status is 0
// when no HTTP response was received.
type TransportError struct {
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("freight provider returned %d: %s", e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("freight provider returned %d", e.Status)
	case e.Err != nil:
		return "freight provider unreachable: " + e.Err.Error()
	default:
		return "freight provider unreachable"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProviderDataError reports a success response whose body signals an error or
// does not follow the provider contract.
type ProviderDataError struct {
	Message string
}

func (e *ProviderDataError) Error() string {
	return "freight provider error: " + e.Message
}

// ValidationError reports a missing or invalid request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Error kinds carried by Result.Kind.
const (
	KindTransport    = "transport"
	KindProviderData = "provider_data"
	KindNoRates      = "no_rates"
	KindNoPrice      = "no_price"
	KindValidation   = "validation"
	KindUnknown      = "unknown"
)

// ErrorKind maps an error from this package to a stable kind string.
func ErrorKind(err error) string {
	var (
		transport *TransportError
		data      *ProviderDataError
		invalid   *ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &invalid):
		return KindValidation
	case errors.As(err, &data):
		return KindProviderData
	case errors.Is(err, ErrNoRatesAvailable):
		return KindNoRates
	case errors.Is(err, ErrNoPriceData):
		return KindNoPrice
	case errors.As(err, &transport):
		return KindTransport
	default:
		return KindUnknown
	}
}
