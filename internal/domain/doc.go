// Package domain models the Victorian Country Fire Authority (CFA) fire danger
// ratings that drive the fire danger card.
//
// # Data Source
//
// Ratings originate from the CFA "Total Fire Ban and Fire Danger Rating"
// forecast feed. An upstream sensor integration polls that feed, splits it per
// district, and publishes one entity per district per day. This package never
// talks to the feed; it only reads the entity states that the host forwards.
//
// # Entity Naming
//
// Every district publishes eight entities that share a base identifier:
//
//	sensor.<district_slug>_rating_today
//	sensor.<district_slug>_rating_tomorrow
//	sensor.<district_slug>_rating_day_3
//	sensor.<district_slug>_rating_day_4
//	sensor.<district_slug>_total_fire_ban_today
//	sensor.<district_slug>_total_fire_ban_tomorrow
//	sensor.<district_slug>_total_fire_ban_day_3
//	sensor.<district_slug>_total_fire_ban_day_4
//
// The slug is the district name lower-cased with spaces replaced by
// underscores, e.g. "North Central" → "north_central". A card is configured
// with the rating_today entity; the base identifier is recovered by stripping
// the "_rating_today" suffix (see [BaseID]) and siblings are located with
// [DeriveKey].
//
// The rating_today entity carries two attributes:
//
//	area_name     district display name, e.g. "Central"
//	last_updated  ISO 8601 timestamp of the last successful feed poll
//
// # Rating Scale
//
// The Australian Fire Danger Rating System uses four levels plus "NO RATING"
// for days when no rating is issued:
//
//	MODERATE      #71b94b  Plan and prepare
//	HIGH          #fef200  Be ready to act
//	EXTREME       #f59330  Take action now to protect your life and property
//	CATASTROPHIC  #ce161e  For your survival, leave bush fire risk areas
//	NO RATING     #ffffff  No rating issued
//
// Any other value is treated as UNKNOWN and rendered with a neutral white
// badge reading "Check local conditions". See [Classify] and [NeedleAngle].
//
// # Gauge Geometry
//
// The gauge is a half circle split into four 45° sectors, one per level. The
// needle rests at -90° (pointing left) for NO RATING and UNKNOWN, and points
// at the centre of its sector otherwise: -67.5°, -22.5°, 22.5°, 67.5°.
//
// # Total Fire Ban
//
// Ban entities report the literal strings "Yes" or "No". Only an exact "Yes"
// activates the ban indicator.
package domain
