package domain

import (
	"math"
	"strconv"
)

const (
	mphPerKmh      = 0.621371
	pascalsPerInHg = 3386.39
)

var (
	compass8  = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	compass16 = []string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE", "S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"}
)

// CelsiusToFahrenheit converts °C to °F without rounding.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// KmhToMph converts km/h to mph without rounding.
func KmhToMph(kmh float64) float64 {
	return kmh * mphPerKmh
}

// PascalsToInHg converts pressure in Pa to inches of mercury without rounding.
func PascalsToInHg(pa float64) float64 {
	return pa / pascalsPerInHg
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// FormatFixed renders v with a fixed number of decimal places.
func FormatFixed(v float64, places int) string {
	return strconv.FormatFloat(Round(v, places), 'f', places, 64)
}

// CompassPoint8 maps a bearing in degrees to one of 8 compass points.
// Sectors are 45° wide and centred on each point; N covers [337.5, 22.5).
func CompassPoint8(deg float64) string {
	return compassPoint(deg, compass8)
}

// CompassPoint16 maps a bearing in degrees to one of 16 compass points.
func CompassPoint16(deg float64) string {
	return compassPoint(deg, compass16)
}

func compassPoint(deg float64, points []string) string {
	sector := 360 / float64(len(points))
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	idx := int(math.Floor((d+sector/2)/sector)) % len(points)
	return points[idx]
}
