package entity

import "time"

// OpeningHours describes the first tee, the closing time and the gap between
// consecutive tee times on a weekday.
type OpeningHours struct {
	Open     string
	Close    string
	Interval time.Duration
}

// OpeningRules maps a weekday to its opening hours. A weekday missing from
// the map is closed.
type OpeningRules map[time.Weekday]OpeningHours
