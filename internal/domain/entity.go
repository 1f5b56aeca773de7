package domain

import "strings"

// EntityState is the host's view of a single entity.
type EntityState struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// StringAttr returns the named attribute if it is a string, or "" otherwise.
func (e EntityState) StringAttr(name string) string {
	v, ok := e.Attributes[name].(string)
	if !ok {
		return ""
	}
	return v
}

// Snapshot is every entity state known to the host at one point in time,
// keyed by entity identifier.
type Snapshot map[string]EntityState

// Lookup returns the entity addressed by key.
func (s Snapshot) Lookup(key EntityKey) (EntityState, bool) {
	state, ok := s[key.String()]
	return state, ok
}

// Field identifies one of the per-district sensor entities.
type Field string

const (
	FieldRatingToday    Field = "rating_today"
	FieldRatingTomorrow Field = "rating_tomorrow"
	FieldRatingDay3     Field = "rating_day_3"
	FieldRatingDay4     Field = "rating_day_4"
	FieldBanToday       Field = "total_fire_ban_today"
	FieldBanTomorrow    Field = "total_fire_ban_tomorrow"
	FieldBanDay3        Field = "total_fire_ban_day_3"
	FieldBanDay4        Field = "total_fire_ban_day_4"
)

// primarySuffix is stripped from a card's configured entity to find its base.
const primarySuffix = "_" + string(FieldRatingToday)

// EntityKey addresses a sibling entity by base identifier and field.
type EntityKey struct {
	Base  string
	Field Field
}

// String returns the entity identifier, "<base>_<field>".
func (k EntityKey) String() string {
	return k.Base + "_" + string(k.Field)
}

// DeriveKey builds the lookup key for a district field.
func DeriveKey(base string, field Field) EntityKey {
	return EntityKey{Base: base, Field: field}
}

// BaseID strips the first "_rating_today" from an entity identifier, e.g.
// "sensor.central_rating_today" -> "sensor.central". Identifiers without the
// suffix are returned unchanged.
func BaseID(entityID string) string {
	return strings.Replace(entityID, primarySuffix, "", 1)
}

// Districts lists the CFA fire weather districts in feed order.
var Districts = []string{
	"Central",
	"North Central",
	"Northern Country",
	"North East",
	"East Gippsland",
	"West Gippsland",
	"Wimmera",
	"South West",
	"Mallee",
}

// DistrictEntityID returns the rating_today entity for a district name,
// e.g. "North East" -> "sensor.north_east_rating_today".
func DistrictEntityID(district string) string {
	slug := strings.ReplaceAll(strings.ToLower(district), " ", "_")
	return DeriveKey("sensor."+slug, FieldRatingToday).String()
}
