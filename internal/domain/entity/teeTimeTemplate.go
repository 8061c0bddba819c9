package entity

// TeeTimeTemplate is a row of the legacy weekly tee sheet. It is only ever
// read back from the migration backup table.
type TeeTimeTemplate struct {
	ID          uint
	DayOfWeek   string `gorm:"column:day_of_week"`
	TeeTime     string `gorm:"column:tee_time"`
	Period      string
	MaxPlayers  int
	IsAvailable bool
}

// LegacyColumns are the columns only the template schema has.
var LegacyColumns = []string{"day_of_week", "tee_time", "period"}

// LegacyDiscriminator marks a tee_times table as the weekly template schema.
const LegacyDiscriminator = "day_of_week"

// RequiredColumns are the columns the date-based schema must have.
var RequiredColumns = []string{
	"id",
	"club",
	"date",
	"time",
	"max_players",
	"available_slots",
	"is_available",
	"green_fee",
}
