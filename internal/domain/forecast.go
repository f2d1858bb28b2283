package domain

import "time"

// QuantitativeValue is an NWS measurement wrapper. A nil Value means the
// upstream reported null or omitted the field.
type QuantitativeValue struct {
	UnitCode string   `json:"unitCode,omitempty"`
	Value    *float64 `json:"value"`
}

// GridReference identifies an NWS forecast grid cell for a coordinate.
type GridReference struct {
	GridID                 string `json:"gridId"`
	GridX                  int    `json:"gridX"`
	GridY                  int    `json:"gridY"`
	ObservationStationsURL string `json:"observationStations"`
}

// ForecastPeriod is one upstream forecast period, passed through unchanged
// for hourly display.
type ForecastPeriod struct {
	Number                     int                `json:"number,omitempty"`
	Name                       string             `json:"name,omitempty"`
	StartTime                  string             `json:"startTime"`
	EndTime                    string             `json:"endTime,omitempty"`
	IsDaytime                  bool               `json:"isDaytime"`
	Temperature                float64            `json:"temperature"`
	TemperatureUnit            string             `json:"temperatureUnit,omitempty"`
	ShortForecast              string             `json:"shortForecast"`
	Icon                       string             `json:"icon"`
	WindSpeed                  string             `json:"windSpeed"`
	WindDirection              string             `json:"windDirection"`
	ProbabilityOfPrecipitation *QuantitativeValue `json:"probabilityOfPrecipitation,omitempty"`
	RelativeHumidity           *QuantitativeValue `json:"relativeHumidity,omitempty"`
	Dewpoint                   *QuantitativeValue `json:"dewpoint,omitempty"`
}

// Date returns the calendar-date prefix of the period's start time.
func (p ForecastPeriod) Date() string {
	return DatePrefix(p.StartTime)
}

// DailySummary is one calendar day of the aggregated forecast.
type DailySummary struct {
	Date        string  `json:"date"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// CurrentConditions is the most recent station observation in display units.
// Every field is independently optional.
type CurrentConditions struct {
	Temperature        *float64 `json:"temperature"`
	TextDescription    string   `json:"textDescription"`
	WindSpeed          *string  `json:"windSpeed"`
	WindDirection      *string  `json:"windDirection"`
	Humidity           *string  `json:"humidity"`
	HeatIndex          *float64 `json:"heatIndex"`
	DewPoint           *float64 `json:"dewPoint"`
	BarometricPressure *string  `json:"barometricPressure"`
	ObservationTime    *string  `json:"observationTime"`
}

// Default current-conditions descriptions.
const (
	DescriptionUnavailable    = "Unable to retrieve current conditions"
	DescriptionNoObservations = "No current observations available"
	DescriptionMissing        = "No description available"
)

// UnavailableConditions is reported when observations could not be fetched or decoded.
func UnavailableConditions() CurrentConditions {
	return CurrentConditions{TextDescription: DescriptionUnavailable}
}

// NoObservationConditions is reported when a station has no observations or
// no station is available.
func NoObservationConditions() CurrentConditions {
	return CurrentConditions{TextDescription: DescriptionNoObservations}
}

// Observed reports whether the record carries a measured temperature.
func (c CurrentConditions) Observed() bool {
	return c.Temperature != nil
}

// ForecastResult is the full answer for one location query.
type ForecastResult struct {
	Location    string            `json:"location"`
	Place       PlaceRecord       `json:"place"`
	Daily       []DailySummary    `json:"daily"`
	Hourly      []ForecastPeriod  `json:"hourly"`
	Current     CurrentConditions `json:"current"`
	RetrievedAt time.Time         `json:"retrievedAt"`
}
