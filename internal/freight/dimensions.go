package freight

import (
	"math"
	"strconv"
)

// assumedDensity is the mixed-cargo density, in kg/m³, used when only weight is known.
const assumedDensity = 200.0

// Dimensions is a cube approximation of a shipment in centimeters.
type Dimensions struct {
	Width  int
	Length int
	Height int
}

// EstimateDimensions derives a cube side from weight alone. Positive weights
// never go below a 1 cm side. Weights <= 0 yield a degenerate cube, callers
// must reject them first.
func EstimateDimensions(weightKg float64) Dimensions {
	if !(weightKg > 0) {
		return Dimensions{}
	}
	volume := weightKg / assumedDensity // m³
	side := max(int(math.Round(math.Cbrt(volume)*100)), 1)
	return Dimensions{Width: side, Length: side, Height: side}
}

// Values returns width, length and height as integer strings.
func (d Dimensions) Values() (width, length, height string) {
	return strconv.Itoa(d.Width), strconv.Itoa(d.Length), strconv.Itoa(d.Height)
}
