package validator

import (
	"time"

	"github.com/portrush/teesheet/internal/domain/entity"
	"github.com/portrush/teesheet/internal/domain/utils/teetime"
)

// MaxHorizonDays caps how far ahead inventory may be generated.
const MaxHorizonDays = 730

func HorizonDays(days int) bool {
	return days >= 1 && days <= MaxHorizonDays
}

func Players(count int) bool {
	return count >= 1 && count <= 8
}

func Date(date string, _ map[string]interface{}) bool {
	_, err := entity.ParseDate(date)
	return err == nil
}

// OpeningHours checks that the hours describe a non-empty day with a
// positive interval.
func OpeningHours(hours entity.OpeningHours) bool {
	open, err := teetime.Minutes(hours.Open)
	if err != nil {
		return false
	}
	closing, err := teetime.Minutes(hours.Close)
	if err != nil {
		return false
	}
	return hours.Interval >= time.Minute && hours.Interval%time.Minute == 0 && open < closing
}
