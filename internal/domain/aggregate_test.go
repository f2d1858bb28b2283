package domain

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func period(start string, daytime bool, temp float64, forecast string) ForecastPeriod {
	return ForecastPeriod{
		StartTime:     start,
		IsDaytime:     daytime,
		Temperature:   temp,
		ShortForecast: forecast,
		Icon:          "https://api.weather.gov/icons/land/" + forecast,
	}
}

func ptr[T any](v T) *T { return &v }

func TestAggregateDaily_FourteenPeriods(t *testing.T) {
	var periods []ForecastPeriod
	for d := 1; d <= 7; d++ {
		date := fmt.Sprintf("2024-05-%02d", d)
		periods = append(periods,
			period(date+"T06:00:00-04:00", true, float64(70+d), "Sunny"),
			period(date+"T18:00:00-04:00", false, float64(50+d), "Clear"),
		)
	}

	daily := AggregateDaily(periods)

	require.Len(t, daily, 7)
	for i, s := range daily {
		d := i + 1
		assert.Equal(t, fmt.Sprintf("2024-05-%02d", d), s.Date)
		assert.Equal(t, float64(70+d), s.High)
		assert.Equal(t, float64(50+d), s.Low)
		assert.Equal(t, "Sunny", s.Description)
	}
}

func TestAggregateDaily_CapsAtSevenDays(t *testing.T) {
	var periods []ForecastPeriod
	for d := 9; d >= 1; d-- {
		periods = append(periods, period(fmt.Sprintf("2024-05-%02dT06:00:00-04:00", d), true, 70, "Sunny"))
	}

	daily := AggregateDaily(periods)

	require.Len(t, daily, 7)
	assert.Equal(t, "2024-05-01", daily[0].Date)
	assert.Equal(t, "2024-05-07", daily[6].Date)
}

func TestAggregateDaily_NightOnlyBucket(t *testing.T) {
	periods := []ForecastPeriod{
		period("2024-05-01T20:00:00-04:00", false, 41, "Mostly Clear"),
		period("2024-05-01T22:00:00-04:00", false, 38, "Clear"),
		period("2024-05-02T06:00:00-04:00", true, 65, "Sunny"),
		period("2024-05-02T18:00:00-04:00", false, 45, "Clear"),
	}

	daily := AggregateDaily(periods)

	want := []DailySummary{
		{Date: "2024-05-01", High: 41, Low: 41, Description: "Mostly Clear", Icon: "https://api.weather.gov/icons/land/Mostly Clear"},
		{Date: "2024-05-02", High: 65, Low: 45, Description: "Sunny", Icon: "https://api.weather.gov/icons/land/Sunny"},
	}
	if diff := cmp.Diff(want, daily); diff != "" {
		t.Errorf("AggregateDaily mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateDaily_DayOnlyBucketFallsBack(t *testing.T) {
	// No night period in the first bucket: low falls back to the minimum.
	periods := []ForecastPeriod{
		period("2024-05-01T06:00:00-04:00", true, 72, "Sunny"),
		period("2024-05-01T12:00:00-04:00", true, 80, "Hot"),
		period("2024-05-01T15:00:00-04:00", true, 60, "Storms"),
	}

	daily := AggregateDaily(periods)

	require.Len(t, daily, 1)
	assert.Equal(t, 72.0, daily[0].High)
	assert.Equal(t, 60.0, daily[0].Low)
	assert.Equal(t, "Sunny", daily[0].Description)
}

func TestAggregateDaily_NightOnlyHighFallsBackToMax(t *testing.T) {
	periods := []ForecastPeriod{
		period("2024-05-01T18:00:00-04:00", false, 41, "Clear"),
	}
	daily := AggregateDaily(periods)

	require.Len(t, daily, 1)
	assert.Equal(t, 41.0, daily[0].High)
	assert.Equal(t, 41.0, daily[0].Low)
	assert.Equal(t, "Clear", daily[0].Description)

	// Two night periods: high is the bucket maximum, low the first night period.
	daily = AggregateDaily([]ForecastPeriod{
		period("2024-05-01T00:00:00-04:00", false, 38, "Fog"),
		period("2024-05-01T18:00:00-04:00", false, 45, "Clear"),
	})
	require.Len(t, daily, 1)
	assert.Equal(t, 45.0, daily[0].High)
	assert.Equal(t, 38.0, daily[0].Low)
	assert.Equal(t, "Fog", daily[0].Description)
}

func TestAggregateDaily_Empty(t *testing.T) {
	daily := AggregateDaily(nil)
	assert.NotNil(t, daily)
	assert.Empty(t, daily)
}

func TestHoursForDate(t *testing.T) {
	hourly := []ForecastPeriod{
		period("2024-05-01T22:00:00-04:00", false, 55, "Clear"),
		period("2024-05-01T23:00:00-04:00", false, 54, "Clear"),
		period("2024-05-02T00:00:00-04:00", false, 53, "Clear"),
	}

	hours := HoursForDate(hourly, "2024-05-01")
	require.Len(t, hours, 2)
	assert.Equal(t, "2024-05-01T22:00:00-04:00", hours[0].StartTime)
	assert.Equal(t, "2024-05-01T23:00:00-04:00", hours[1].StartTime)

	assert.Empty(t, HoursForDate(hourly, "2024-05-03"))
}

func TestHourlyDetails(t *testing.T) {
	withValues := period("2024-05-01T14:00:00-04:00", true, 72, "Sunny")
	withValues.TemperatureUnit = "F"
	withValues.WindSpeed = "10 mph"
	withValues.WindDirection = "SW"
	withValues.ProbabilityOfPrecipitation = &QuantitativeValue{Value: ptr(20.0)}
	withValues.RelativeHumidity = &QuantitativeValue{Value: ptr(45.0)}
	withValues.Dewpoint = &QuantitativeValue{Value: ptr(10.5556)}

	withoutValues := period("2024-05-01T15:00:00-04:00", true, 73, "Sunny")
	withoutValues.WindSpeed = "5 mph"
	withoutValues.ProbabilityOfPrecipitation = &QuantitativeValue{}

	details := HourlyDetails([]ForecastPeriod{withValues, withoutValues}, "2024-05-01")

	require.Len(t, details, 2)
	assert.Equal(t, "10 mph SW", details[0].Wind)
	assert.Equal(t, ptr(20.0), details[0].PrecipitationChance)
	assert.Equal(t, ptr(45.0), details[0].Humidity)
	assert.Equal(t, ptr(51.0), details[0].DewPoint)

	assert.Equal(t, "5 mph", details[1].Wind)
	assert.Nil(t, details[1].PrecipitationChance)
	assert.Nil(t, details[1].Humidity)
	assert.Nil(t, details[1].DewPoint)
}

func TestDatePrefix(t *testing.T) {
	assert.Equal(t, "2024-05-01", DatePrefix("2024-05-01T06:00:00-04:00"))
	assert.Equal(t, "2024-05-01", DatePrefix("2024-05-01"))
	assert.Empty(t, DatePrefix(""))
}
