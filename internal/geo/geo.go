package geo

import (
	"math"
	"strconv"
	"strings"

	"trackerd/internal/models"
)

const earthRadiusMeters = 6371000

// DistanceMeters returns the great-circle distance between two coordinates in
// decimal degrees, assuming a spherical Earth.
func DistanceMeters(a, b models.Position) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// ParseDegreeMinute converts a ddmm.mmmm positional coordinate into decimal
// degrees. The two digits immediately before the decimal point plus the
// fraction are minutes; everything before them is degrees. Hemisphere "S" or
// "W" negates the result. Malformed input yields 0.
func ParseDegreeMinute(value, hemisphere string) float64 {
	dot := strings.IndexByte(value, '.')
	if dot < 2 {
		return 0
	}

	degrees, err := strconv.ParseFloat(value[:dot-2], 64)
	if err != nil {
		return 0
	}
	minutes, err := strconv.ParseFloat(value[dot-2:], 64)
	if err != nil {
		return 0
	}

	decimal := degrees + minutes/60

	if hemisphere == "S" || hemisphere == "W" {
		decimal = -decimal
	}
	return decimal
}
