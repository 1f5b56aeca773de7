package domain

import "time"

const (
	headerDateLayout = "Monday 2 January"
	headerDateToday  = "Today"
)

// VisualModel is everything the card renderer needs for one pass. It is
// rebuilt from scratch on every snapshot change.
type VisualModel struct {
	Observation Observation               `json:"observation"`
	Info        RatingInfo                `json:"info"`
	NeedleAngle float64                   `json:"needle_angle"`
	HeaderDate  string                    `json:"header_date"`
	Forecast    [ForecastDays]ForecastDay `json:"forecast"`
}

// BuildVisualModel derives the complete visual model from a reading. now is
// only consulted for readings without a LastUpdated timestamp.
func BuildVisualModel(r Reading, loc *time.Location, now time.Time) VisualModel {
	if loc == nil {
		loc = time.UTC
	}
	obs := r.Observation
	return VisualModel{
		Observation: obs,
		Info:        Classify(obs.Level),
		NeedleAngle: NeedleAngle(obs.Level),
		HeaderDate:  headerDate(obs, loc),
		Forecast:    AssembleForecast(r, loc, now),
	}
}

// headerDate formats the date under the district name, e.g. "Saturday 18 January".
func headerDate(obs Observation, loc *time.Location) string {
	if obs.LastUpdated.IsZero() {
		return headerDateToday
	}
	return obs.LastUpdated.In(loc).Format(headerDateLayout)
}
