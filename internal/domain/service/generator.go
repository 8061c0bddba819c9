package service

import (
	"fmt"
	"time"

	"github.com/portrush/teesheet/internal/domain/common/errorz"
	"github.com/portrush/teesheet/internal/domain/entity"
	"github.com/portrush/teesheet/internal/domain/utils/teetime"
	"github.com/portrush/teesheet/internal/domain/utils/validator"
)

// AvailabilityGenerator builds fresh inventory straight from opening hours.
type AvailabilityGenerator struct {
	MaxPlayers int
	GreenFee   *float64
}

func NewAvailabilityGenerator(maxPlayers int, greenFee *float64) *AvailabilityGenerator {
	if maxPlayers < 1 {
		maxPlayers = entity.DefaultMaxPlayers
	}
	return &AvailabilityGenerator{
		MaxPlayers: maxPlayers,
		GreenFee:   greenFee,
	}
}

// Generate lays out tee times for every day in [referenceDate,
// referenceDate+horizonDays). On an open day the first tee is at Open and
// further tees follow every Interval while they start before Close.
func (g *AvailabilityGenerator) Generate(club string, horizonDays int, referenceDate time.Time, rules entity.OpeningRules) ([]entity.TeeTime, error) {
	type window struct{ open, close, step int }
	windows := make(map[time.Weekday]window, len(rules))
	for weekday, hours := range rules {
		if !validator.OpeningHours(hours) {
			return nil, fmt.Errorf("%w: opening hours for %s: %s-%s every %s", errorz.ErrInvalidArgument, weekday, hours.Open, hours.Close, hours.Interval)
		}
		open, _ := teetime.Minutes(hours.Open)
		closing, _ := teetime.Minutes(hours.Close)
		windows[weekday] = window{open: open, close: closing, step: int(hours.Interval / time.Minute)}
	}

	var teeTimes []entity.TeeTime
	start := entity.DateOf(referenceDate)
	for day := 0; day < horizonDays; day++ {
		date := start.AddDate(0, 0, day)
		w, open := windows[date.Weekday()]
		if !open {
			continue
		}
		for minute := w.open; minute < w.close; minute += w.step {
			teeTimes = append(teeTimes, entity.TeeTime{
				Club:           club,
				Date:           date,
				Time:           teetime.Format(minute),
				MaxPlayers:     g.MaxPlayers,
				AvailableSlots: g.MaxPlayers,
				IsAvailable:    true,
				GreenFee:       g.GreenFee,
			})
		}
	}
	return teeTimes, nil
}

// withoutBlocked drops tee times that fall on a blocked date.
func withoutBlocked(teeTimes []entity.TeeTime, blocked map[time.Time]bool) []entity.TeeTime {
	if len(blocked) == 0 {
		return teeTimes
	}
	kept := teeTimes[:0:0]
	for _, t := range teeTimes {
		if !blocked[entity.DateOf(t.Date)] {
			kept = append(kept, t)
		}
	}
	return kept
}
