// Package domain models National Weather Service (NWS) forecast data and the
// normalization rules that turn it into a UI-ready forecast.
//
// # Data Source
//
// All weather data comes from the public NWS API (https://api.weather.gov).
// A location is first translated to a forecast grid with the points endpoint,
// which also names the grid's forecast URLs and its observation station list:
//
//	GET /points/{lat},{lon}
//	  properties.gridId, gridX, gridY      → grid reference
//	  properties.observationStations       → station list URL
//
// Forecasts are delivered as an ordered list of periods. The daily forecast
// alternates day and night periods (usually 14 for a week); the hourly
// forecast has one period per hour. Period start times carry a local offset:
//
//	"2024-05-01T06:00:00-04:00"
//
// The calendar date is the text before "T". No timezone conversion is applied.
//
// # NWS Data Conventions
//
// Quantitative values are wrapped objects whose value may be null:
//
//	{"unitCode": "wmoUnit:degC", "value": 21.1}
//	{"unitCode": "wmoUnit:degC", "value": null}
//
// A null (or missing) value means the instrument did not report; converted
// fields are left empty instead of being treated as zero.
//
// Observation units (SI):
//
//	temperature, heatIndex, dewpoint   °C      → °F   (v*9/5 + 32)
//	windSpeed                          km/h    → mph  (v * 0.621371)
//	windDirection                      degrees → 8-point compass
//	relativeHumidity                   percent → whole percent
//	barometricPressure                 Pa      → inHg (v / 3386.39)
//
// Forecast period temperatures are already in °F.
//
// # Station Identifiers
//
// Station list features carry an "id" URL such as
// "https://api.weather.gov/stations/KBOS" and usually a
// properties.stationIdentifier. The code is recovered by an ordered chain of
// extractors, see [StationIDExtractors].
//
// # Aggregation
//
// Daily summaries bucket periods by date and keep at most seven days, see
// [AggregateDaily]. A bucket holding only a night period still produces a
// summary: the high falls back to the bucket's maximum and the low comes from
// the night period.
package domain
