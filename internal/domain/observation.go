package domain

import "time"

// ObservationTimeUnknown is shown when an observation carries no usable timestamp.
const ObservationTimeUnknown = "Unknown"

// observationTimeLayout renders a two-digit hour and minute with AM/PM.
const observationTimeLayout = "03:04 PM"

// Observation holds the properties of one NWS station observation in SI units.
type Observation struct {
	Timestamp          string            `json:"timestamp"`
	TextDescription    string            `json:"textDescription"`
	Temperature        QuantitativeValue `json:"temperature"`
	WindDirection      QuantitativeValue `json:"windDirection"`
	WindSpeed          QuantitativeValue `json:"windSpeed"`
	RelativeHumidity   QuantitativeValue `json:"relativeHumidity"`
	HeatIndex          QuantitativeValue `json:"heatIndex"`
	Dewpoint           QuantitativeValue `json:"dewpoint"`
	BarometricPressure QuantitativeValue `json:"barometricPressure"`
}

// ObservedAt parses the observation timestamp.
func (o Observation) ObservedAt() (time.Time, bool) {
	if o.Timestamp == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, o.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LatestObservation picks the observation with the most recent timestamp.
// Observations without a parsable timestamp rank oldest; ties keep the earlier entry.
func LatestObservation(observations []Observation) (Observation, bool) {
	if len(observations) == 0 {
		return Observation{}, false
	}
	best := 0
	bestAt, _ := observations[0].ObservedAt()
	for i := 1; i < len(observations); i++ {
		at, ok := observations[i].ObservedAt()
		if ok && at.After(bestAt) {
			best, bestAt = i, at
		}
	}
	return observations[best], true
}

// ConvertObservation maps an observation to display units. Each field is
// converted on its own; a missing source value leaves only that field empty.
// Observation time is rendered in loc (time.Local when nil).
func ConvertObservation(o Observation, loc *time.Location) CurrentConditions {
	if loc == nil {
		loc = time.Local
	}

	c := CurrentConditions{
		TextDescription:    o.TextDescription,
		Temperature:        convertNumber(o.Temperature, CelsiusToFahrenheit),
		HeatIndex:          convertNumber(o.HeatIndex, CelsiusToFahrenheit),
		DewPoint:           convertNumber(o.Dewpoint, CelsiusToFahrenheit),
		WindSpeed:          convertText(o.WindSpeed, func(v float64) string { return FormatFixed(KmhToMph(v), 1) }),
		WindDirection:      convertText(o.WindDirection, CompassPoint8),
		Humidity:           convertText(o.RelativeHumidity, func(v float64) string { return FormatFixed(v, 0) }),
		BarometricPressure: convertText(o.BarometricPressure, func(v float64) string { return FormatFixed(PascalsToInHg(v), 2) }),
	}
	if c.TextDescription == "" {
		c.TextDescription = DescriptionMissing
	}

	observed := ObservationTimeUnknown
	if at, ok := o.ObservedAt(); ok {
		observed = at.In(loc).Format(observationTimeLayout)
	}
	c.ObservationTime = &observed

	return c
}

func convertNumber(q QuantitativeValue, fn func(float64) float64) *float64 {
	if q.Value == nil {
		return nil
	}
	v := fn(*q.Value)
	return &v
}

func convertText(q QuantitativeValue, fn func(float64) string) *string {
	if q.Value == nil {
		return nil
	}
	v := fn(*q.Value)
	return &v
}
