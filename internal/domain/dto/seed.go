package dto

import "time"

type SeedReport struct {
	Club          string
	From          time.Time
	To            time.Time
	CreatedTable  bool
	Generated     int
	BlockedDays   int
	Created       int64
	AlreadyExists int64
}
