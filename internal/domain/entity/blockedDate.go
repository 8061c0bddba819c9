package entity

import "time"

// BlockedDate closes a club for a whole day. No inventory is generated for it.
type BlockedDate struct {
	ID        uint      `gorm:"primaryKey"`
	Club      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_blocked_dates_club_date,priority:1"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_blocked_dates_club_date,priority:2"`
	Reason    string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time
}
