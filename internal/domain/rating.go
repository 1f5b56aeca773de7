package domain

// RatingLevel is a CFA fire danger rating as published on the entity state.
type RatingLevel string

const (
	RatingModerate     RatingLevel = "MODERATE"
	RatingHigh         RatingLevel = "HIGH"
	RatingExtreme      RatingLevel = "EXTREME"
	RatingCatastrophic RatingLevel = "CATASTROPHIC"
	RatingNone         RatingLevel = "NO RATING"
	RatingUnknown      RatingLevel = "UNKNOWN"
)

// RatingInfo is the badge color and call-to-action message for a rating.
type RatingInfo struct {
	Color   string `json:"color"`
	Message string `json:"message"`
}

// fallbackInfo is shown for any rating outside the published table.
var fallbackInfo = RatingInfo{Color: "#ffffff", Message: "Check local conditions"}

// fallbackAngle parks the needle at the far left of the gauge.
const fallbackAngle = -90.0

// ratingTable is the single source of truth for rating visuals. A new level
// published upstream renders with fallbackInfo until it is added here.
var ratingTable = map[RatingLevel]RatingInfo{
	RatingModerate:     {Color: "#71b94b", Message: "Plan and prepare"},
	RatingHigh:         {Color: "#fef200", Message: "Be ready to act"},
	RatingExtreme:      {Color: "#f59330", Message: "Take action now to protect your life and property"},
	RatingCatastrophic: {Color: "#ce161e", Message: "For your survival, leave bush fire risk areas"},
	RatingNone:         {Color: "#ffffff", Message: "No rating issued"},
}

// needleAngles holds the centre of each gauge sector in degrees.
var needleAngles = map[RatingLevel]float64{
	RatingModerate:     -67.5,
	RatingHigh:         -22.5,
	RatingExtreme:      22.5,
	RatingCatastrophic: 67.5,
}

// ParseRating maps a raw entity state to a RatingLevel. Matching is exact:
// the sensor always publishes upper-case values, so anything else is UNKNOWN.
func ParseRating(s string) RatingLevel {
	level := RatingLevel(s)
	if !level.Known() {
		return RatingUnknown
	}
	return level
}

// Known reports whether the level has its own entry in the rating table.
func (l RatingLevel) Known() bool {
	_, ok := ratingTable[l]
	return ok
}

// Classify returns the badge color and message for a rating level. It never
// fails; unrecognized levels get the neutral fallback.
func Classify(level RatingLevel) RatingInfo {
	if info, ok := ratingTable[level]; ok {
		return info
	}
	return fallbackInfo
}

// NeedleAngle returns the gauge needle rotation in degrees for a rating level.
func NeedleAngle(level RatingLevel) float64 {
	if angle, ok := needleAngles[level]; ok {
		return angle
	}
	return fallbackAngle
}

// GaugeSectors returns the arc fill colors from left to right.
func GaugeSectors() [4]string {
	return [4]string{
		ratingTable[RatingModerate].Color,
		ratingTable[RatingHigh].Color,
		ratingTable[RatingExtreme].Color,
		ratingTable[RatingCatastrophic].Color,
	}
}
