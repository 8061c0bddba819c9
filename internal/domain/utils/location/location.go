package location

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	once     sync.Once
	location *time.Location
)

// Location is the club's local time zone from settings.timezone. UTC is
// used when the setting is empty or unknown.
func Location() *time.Location {
	once.Do(func() {
		loc, err := time.LoadLocation(viper.GetString("settings.timezone"))
		if err != nil {
			loc = time.UTC
		}
		location = loc
	})
	return location
}

// Today is the current calendar date at the club.
func Today() time.Time {
	y, m, d := time.Now().In(Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
