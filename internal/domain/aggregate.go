package domain

import (
	"sort"
	"strings"
)

// MaxForecastDays caps the number of daily summaries.
const MaxForecastDays = 7

// DatePrefix returns the calendar date of an ISO-8601 timestamp: the text before "T".
func DatePrefix(ts string) string {
	date, _, _ := strings.Cut(ts, "T")
	return date
}

// AggregateDaily groups forecast periods by calendar date and summarizes each
// of the first MaxForecastDays dates in ascending order.
//
// The high comes from the day period when present, otherwise the maximum of
// the bucket; the low from the night period, otherwise the minimum. Description
// and icon come from the day period, otherwise the first period of the date.
func AggregateDaily(periods []ForecastPeriod) []DailySummary {
	buckets := make(map[string][]ForecastPeriod)
	for _, p := range periods {
		date := p.Date()
		buckets[date] = append(buckets[date], p)
	}

	dates := make([]string, 0, len(buckets))
	for date := range buckets {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	if len(dates) > MaxForecastDays {
		dates = dates[:MaxForecastDays]
	}

	summaries := make([]DailySummary, 0, len(dates))
	for _, date := range dates {
		summaries = append(summaries, summarizeDay(date, buckets[date]))
	}
	return summaries
}

func summarizeDay(date string, bucket []ForecastPeriod) DailySummary {
	var day, night *ForecastPeriod
	high, low := bucket[0].Temperature, bucket[0].Temperature
	for i := range bucket {
		p := &bucket[i]
		if p.IsDaytime && day == nil {
			day = p
		}
		if !p.IsDaytime && night == nil {
			night = p
		}
		high = max(high, p.Temperature)
		low = min(low, p.Temperature)
	}

	summary := DailySummary{
		Date:        date,
		High:        high,
		Low:         low,
		Description: bucket[0].ShortForecast,
		Icon:        bucket[0].Icon,
	}
	if day != nil {
		summary.High = day.Temperature
		summary.Description = day.ShortForecast
		summary.Icon = day.Icon
	}
	if night != nil {
		summary.Low = night.Temperature
	}
	return summary
}

// HoursForDate returns the hourly periods whose start time falls on date, in order.
func HoursForDate(hourly []ForecastPeriod, date string) []ForecastPeriod {
	var hours []ForecastPeriod
	for _, p := range hourly {
		if p.Date() == date {
			hours = append(hours, p)
		}
	}
	return hours
}

// HourlyDetail is the expanded-day view of one hourly period.
type HourlyDetail struct {
	StartTime           string   `json:"startTime"`
	Temperature         float64  `json:"temperature"`
	TemperatureUnit     string   `json:"temperatureUnit,omitempty"`
	ShortForecast       string   `json:"shortForecast"`
	Icon                string   `json:"icon,omitempty"`
	PrecipitationChance *float64 `json:"precipitationChance,omitempty"`
	Wind                string   `json:"wind"`
	Humidity            *float64 `json:"humidity,omitempty"`
	DewPoint            *float64 `json:"dewPoint,omitempty"`
}

// HourlyDetails renders the hourly periods of one date for display. Dew point
// is converted to °F and rounded to one decimal; absent values stay empty.
func HourlyDetails(hourly []ForecastPeriod, date string) []HourlyDetail {
	hours := HoursForDate(hourly, date)
	details := make([]HourlyDetail, 0, len(hours))
	for _, p := range hours {
		d := HourlyDetail{
			StartTime:       p.StartTime,
			Temperature:     p.Temperature,
			TemperatureUnit: p.TemperatureUnit,
			ShortForecast:   p.ShortForecast,
			Icon:            p.Icon,
			Wind:            strings.TrimSpace(p.WindSpeed + " " + p.WindDirection),
		}
		if p.ProbabilityOfPrecipitation != nil {
			d.PrecipitationChance = p.ProbabilityOfPrecipitation.Value
		}
		if p.RelativeHumidity != nil {
			d.Humidity = p.RelativeHumidity.Value
		}
		if p.Dewpoint != nil && p.Dewpoint.Value != nil {
			f := Round(CelsiusToFahrenheit(*p.Dewpoint.Value), 1)
			d.DewPoint = &f
		}
		details = append(details, d)
	}
	return details
}
