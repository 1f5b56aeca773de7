package domain

import (
	"strings"
	"time"
)

// Fallback values used when an entity or attribute is missing.
const (
	defaultAreaName = "District"
	defaultBan      = "No"
	banActive       = "Yes"
)

// Observation is today's reading for a district.
type Observation struct {
	Rating      string      `json:"rating"` // raw state, shown verbatim on the badge
	Level       RatingLevel `json:"level"`
	AreaName    string      `json:"area_name"`
	LastUpdated time.Time   `json:"last_updated"` // zero when the sensor has not reported one
	BanToday    bool        `json:"ban_today"`
}

// RawForecast holds the unprocessed rating and ban states for one forecast day.
type RawForecast struct {
	Rating string
	Ban    string
}

// Reading is everything the card reads from a snapshot for one district.
type Reading struct {
	Observation Observation
	Forecast    [ForecastDays]RawForecast
}

// forecastFields lists the sibling entities for each forecast day in order.
var forecastFields = [ForecastDays]struct {
	rating Field
	ban    Field
}{
	{FieldRatingTomorrow, FieldBanTomorrow},
	{FieldRatingDay3, FieldBanDay3},
	{FieldRatingDay4, FieldBanDay4},
}

// ReadSnapshot extracts the district reading for a card configured with
// entityID. It returns false when the primary entity is not in the snapshot;
// callers treat that as "no data yet" and leave their surface untouched.
// Missing siblings fall back to UNKNOWN ratings and "No" bans.
func ReadSnapshot(snap Snapshot, entityID string) (Reading, bool) {
	primary, ok := snap[entityID]
	if !ok {
		return Reading{}, false
	}

	base := BaseID(entityID)

	rating := orDefault(primary.State, string(RatingUnknown))
	obs := Observation{
		Rating:      rating,
		Level:       ParseRating(rating),
		AreaName:    orDefault(primary.StringAttr("area_name"), defaultAreaName),
		LastUpdated: parseTimestamp(primary.StringAttr("last_updated")),
		BanToday:    stateOf(snap, DeriveKey(base, FieldBanToday), defaultBan) == banActive,
	}

	var forecast [ForecastDays]RawForecast
	for i, f := range forecastFields {
		forecast[i] = RawForecast{
			Rating: stateOf(snap, DeriveKey(base, f.rating), string(RatingUnknown)),
			Ban:    stateOf(snap, DeriveKey(base, f.ban), defaultBan),
		}
	}

	return Reading{Observation: obs, Forecast: forecast}, true
}

// stateOf returns the state of the entity at key, or def when the entity is
// missing or its state is empty.
func stateOf(snap Snapshot, key EntityKey, def string) string {
	entity, ok := snap.Lookup(key)
	if !ok {
		return def
	}
	return orDefault(entity.State, def)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// parseTimestamp parses an ISO 8601 timestamp as written by the sensor.
// Unparsable values are treated as absent.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
