package domain

import "time"

// ForecastDays is the number of forward days shown on the card.
const ForecastDays = 3

const tomorrowLabel = "Tomorrow"

// ForecastDay is one forecast tile.
type ForecastDay struct {
	Label     string      `json:"label"`
	Rating    string      `json:"rating"`
	Level     RatingLevel `json:"level"`
	Info      RatingInfo  `json:"info"`
	BanActive bool        `json:"ban_active"`
}

// DisplayRating is the text shown on the tile's rating tag. "NO RATING" is
// shortened to "NONE" to fit the tile; every other value is shown as-is.
func (d ForecastDay) DisplayRating() string {
	if d.Rating == string(RatingNone) {
		return "NONE"
	}
	return d.Rating
}

// AssembleForecast builds the three forecast tiles in chronological order.
// Weekday labels count forward from the reading's LastUpdated, or from now
// when the sensor has not reported one, in loc.
func AssembleForecast(r Reading, loc *time.Location, now time.Time) [ForecastDays]ForecastDay {
	if loc == nil {
		loc = time.UTC
	}
	ref := referenceTime(r.Observation, now).In(loc)

	var days [ForecastDays]ForecastDay
	for i, raw := range r.Forecast {
		offset := i + 1
		level := ParseRating(raw.Rating)
		days[i] = ForecastDay{
			Label:     dayLabel(ref, offset),
			Rating:    raw.Rating,
			Level:     level,
			Info:      Classify(level),
			BanActive: raw.Ban == banActive,
		}
	}
	return days
}

// dayLabel names the day offset days after ref: "Tomorrow" for the next day,
// the English weekday name otherwise.
func dayLabel(ref time.Time, offset int) string {
	if offset == 1 {
		return tomorrowLabel
	}
	return ref.AddDate(0, 0, offset).Weekday().String()
}

// referenceTime is the instant forecast offsets count from.
func referenceTime(obs Observation, now time.Time) time.Time {
	if obs.LastUpdated.IsZero() {
		return now
	}
	return obs.LastUpdated
}
