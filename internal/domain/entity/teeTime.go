package entity

import "time"

// TeeTimesTable is the name of the inventory table in both schema generations.
const TeeTimesTable = "tee_times"

const DefaultMaxPlayers = 4

// TeeTime is one bookable slot for a club on a calendar date.
type TeeTime struct {
	ID             uint      `gorm:"primaryKey"`
	Club           string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_tee_times_club_date_time,priority:1;index:idx_tee_times_club_date,priority:1"`
	Date           time.Time `gorm:"type:date;not null;uniqueIndex:idx_tee_times_club_date_time,priority:2;index:idx_tee_times_club_date,priority:2;index:idx_tee_times_date"`
	Time           string    `gorm:"column:time;type:varchar(10);not null;uniqueIndex:idx_tee_times_club_date_time,priority:3"`
	MaxPlayers     int       `gorm:"default:4"`
	AvailableSlots int       `gorm:"default:4;index:idx_tee_times_availability,priority:2"`
	IsAvailable    bool      `gorm:"default:true;index:idx_tee_times_availability,priority:1"`
	GreenFee       *float64  `gorm:"type:numeric(10,2)"`
	Notes          string    `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (TeeTime) TableName() string {
	return TeeTimesTable
}

// Key returns the unique identity of the slot.
func (t *TeeTime) Key() SlotKey {
	return SlotKey{Club: t.Club, Date: DateOf(t.Date), Time: t.Time}
}

// Booked is the number of players currently holding the slot.
func (t *TeeTime) Booked() int {
	return t.MaxPlayers - t.AvailableSlots
}

// Consistent reports whether the stored counters satisfy the inventory
// invariants.
func (t *TeeTime) Consistent() bool {
	if t.AvailableSlots < 0 || t.AvailableSlots > t.MaxPlayers {
		return false
	}
	return t.IsAvailable == (t.AvailableSlots > 0)
}

// SlotKey identifies a TeeTime.
type SlotKey struct {
	Club string
	Date time.Time
	Time string
}

func (k SlotKey) String() string {
	return k.Club + "/" + k.Date.Format(DateLayout) + "/" + k.Time
}

const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date at UTC midnight, the form every
// date is stored and compared in.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
