package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/portrush/teesheet/internal/domain/entity"
	"github.com/portrush/teesheet/internal/domain/utils/teetime"
)

// SkippedTemplate is a legacy template that could not be turned into tee
// times.
type SkippedTemplate struct {
	Template entity.TeeTimeTemplate
	Reason   string
}

// TemplateConverter expands the legacy weekly tee sheet into dated tee times.
type TemplateConverter struct {
	Club     string
	GreenFee *float64
}

func NewTemplateConverter(club string, greenFee *float64) *TemplateConverter {
	return &TemplateConverter{
		Club:     club,
		GreenFee: greenFee,
	}
}

type weeklyTeeTime struct {
	time       string
	maxPlayers int
}

// Convert emits one tee time per available template per matching day in
// [referenceDate, referenceDate+horizonDays). Every tee time starts with
// full capacity. The output depends only on the arguments and holds each
// (date, time) at most once; the first template wins.
func (c *TemplateConverter) Convert(templates []entity.TeeTimeTemplate, horizonDays int, referenceDate time.Time) ([]entity.TeeTime, []SkippedTemplate) {
	weekly, skipped := c.weekly(templates)

	var teeTimes []entity.TeeTime
	start := entity.DateOf(referenceDate)
	for day := 0; day < horizonDays; day++ {
		date := start.AddDate(0, 0, day)
		seen := make(map[string]bool)
		for _, w := range weekly[date.Weekday()] {
			if seen[w.time] {
				continue
			}
			seen[w.time] = true
			teeTimes = append(teeTimes, entity.TeeTime{
				Club:           c.Club,
				Date:           date,
				Time:           w.time,
				MaxPlayers:     w.maxPlayers,
				AvailableSlots: w.maxPlayers,
				IsAvailable:    true,
				GreenFee:       c.GreenFee,
			})
		}
	}
	return teeTimes, skipped
}

// weekly groups the usable templates by weekday, ordered by tee time.
// Unavailable templates are dropped silently; malformed ones are reported.
func (c *TemplateConverter) weekly(templates []entity.TeeTimeTemplate) (map[time.Weekday][]weeklyTeeTime, []SkippedTemplate) {
	weekly := make(map[time.Weekday][]weeklyTeeTime)
	var skipped []SkippedTemplate

	for _, t := range templates {
		if !t.IsAvailable {
			continue
		}
		weekday, ok := teetime.ParseWeekday(t.DayOfWeek)
		if !ok {
			skipped = append(skipped, SkippedTemplate{Template: t, Reason: fmt.Sprintf("unknown day of week %q", t.DayOfWeek)})
			continue
		}
		clock, err := teetime.Normalize(t.TeeTime)
		if err != nil {
			skipped = append(skipped, SkippedTemplate{Template: t, Reason: err.Error()})
			continue
		}
		if t.MaxPlayers < 1 {
			skipped = append(skipped, SkippedTemplate{Template: t, Reason: fmt.Sprintf("max players %d", t.MaxPlayers)})
			continue
		}
		weekly[weekday] = append(weekly[weekday], weeklyTeeTime{time: clock, maxPlayers: t.MaxPlayers})
	}

	for _, day := range weekly {
		sort.SliceStable(day, func(i, j int) bool {
			return day[i].time < day[j].time
		})
	}
	return weekly, skipped
}
