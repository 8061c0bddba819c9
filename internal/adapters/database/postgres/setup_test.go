package postgres

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/portrush/teesheet/internal/domain/entity"
)

var dbSeq atomic.Int64

// setupTestDB opens a private in-memory database. A single connection keeps
// concurrent callers serialised the way row locks would on PostgreSQL.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:teesheet_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "failed to open sqlite db")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

const legacyDDL = `CREATE TABLE tee_times (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	day_of_week VARCHAR(20) NOT NULL,
	tee_time VARCHAR(10) NOT NULL,
	period VARCHAR(20),
	max_players INTEGER DEFAULT 4,
	is_available BOOLEAN DEFAULT TRUE
)`

// createLegacyTable creates the weekly template tee sheet and fills it.
func createLegacyTable(t *testing.T, db *gorm.DB, templates ...entity.TeeTimeTemplate) {
	t.Helper()
	require.NoError(t, db.Exec(legacyDDL).Error)
	for _, tpl := range templates {
		err := db.Exec(
			"INSERT INTO tee_times (day_of_week, tee_time, period, max_players, is_available) VALUES (?, ?, ?, ?, ?)",
			tpl.DayOfWeek, tpl.TeeTime, tpl.Period, tpl.MaxPlayers, tpl.IsAvailable,
		).Error
		require.NoError(t, err)
	}
}

var testDate = time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC)

func newTeeTime(club string, date time.Time, clock string, maxPlayers int) entity.TeeTime {
	return entity.TeeTime{
		Club:           club,
		Date:           date,
		Time:           clock,
		MaxPlayers:     maxPlayers,
		AvailableSlots: maxPlayers,
		IsAvailable:    true,
	}
}
