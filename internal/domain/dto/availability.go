package dto

import (
	"time"

	"github.com/portrush/teesheet/internal/domain/entity"
)

// SlotCheck answers whether a party of Players fits into a tee time.
type SlotCheck struct {
	Exists         bool
	Available      bool
	CanAccommodate bool
	AvailableSlots int
	MaxPlayers     int
	Players        int
	GreenFee       *float64
	Date           time.Time
	Time           string
}

func NewSlotCheck(key entity.SlotKey, players int, teeTime *entity.TeeTime) SlotCheck {
	check := SlotCheck{
		Players: players,
		Date:    key.Date,
		Time:    key.Time,
	}
	if teeTime == nil {
		return check
	}
	check.Exists = true
	check.AvailableSlots = teeTime.AvailableSlots
	check.MaxPlayers = teeTime.MaxPlayers
	check.GreenFee = teeTime.GreenFee
	check.Available = teeTime.IsAvailable && teeTime.AvailableSlots > 0
	check.CanAccommodate = teeTime.IsAvailable && teeTime.AvailableSlots >= players
	return check
}

type DailyAvailability struct {
	Date           time.Time
	Weekday        time.Weekday
	SlotCount      int
	TotalCapacity  int
	TotalAvailable int
	TotalBooked    int
	UtilizationPct float64
}
