package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/portrush/teesheet/internal/adapters/database/postgres"
	"github.com/portrush/teesheet/internal/domain/common/errorz"
	"github.com/portrush/teesheet/internal/domain/dto"
	"github.com/portrush/teesheet/internal/domain/entity"
	"github.com/portrush/teesheet/internal/domain/service"
	"github.com/portrush/teesheet/pkg/logger/types"
)

var (
	dbSeq   atomic.Int64
	tuesday = time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC)
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "failed to open sqlite db")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, postgres.AutoMigrate(db))
	return db
}

func createLegacyTable(t *testing.T, db *gorm.DB, templates ...entity.TeeTimeTemplate) {
	t.Helper()
	require.NoError(t, db.Exec(`CREATE TABLE tee_times (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day_of_week VARCHAR(20) NOT NULL,
		tee_time VARCHAR(10) NOT NULL,
		period VARCHAR(20),
		max_players INTEGER DEFAULT 4,
		is_available BOOLEAN DEFAULT TRUE
	)`).Error)
	for _, tpl := range templates {
		require.NoError(t, db.Exec(
			"INSERT INTO tee_times (day_of_week, tee_time, period, max_players, is_available) VALUES (?, ?, ?, ?, ?)",
			tpl.DayOfWeek, tpl.TeeTime, tpl.Period, tpl.MaxPlayers, tpl.IsAvailable,
		).Error)
	}
}

func newMigrationService(db *gorm.DB, opts ...service.MigrationOption) *service.MigrationService {
	fee := 325.0
	opts = append([]service.MigrationOption{service.WithBlockedDates(postgres.NewBlockedDateStorage(db))}, opts...)
	return service.NewMigrationService(
		postgres.NewTransactor(db),
		service.NewSchemaService(postgres.NewSchemaStorage(db)),
		postgres.NewLegacyStorage(db, ""),
		postgres.NewTeeTimeStorage(db, 0),
		service.MigrationConfig{Club: "royalportrush", GreenFee: &fee},
		types.Nop(),
		opts...,
	)
}

func generation(t *testing.T, db *gorm.DB) entity.SchemaGeneration {
	t.Helper()
	g, err := service.NewSchemaService(postgres.NewSchemaStorage(db)).Inspect(context.Background())
	require.NoError(t, err)
	return g
}

var weeklySheet = []entity.TeeTimeTemplate{
	{DayOfWeek: "TUESDAY", TeeTime: "10:00", Period: "Morning", MaxPlayers: 4, IsAvailable: true},
	{DayOfWeek: "Tuesday", TeeTime: "2:30 PM", Period: "Afternoon", MaxPlayers: 3, IsAvailable: true},
	{DayOfWeek: "Friday", TeeTime: "08:00", Period: "Morning", MaxPlayers: 4, IsAvailable: false},
}

func TestMigrationService_NothingToDoWhenDateBased(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, postgres.NewTeeTimeStorage(db, 0).CreateTable(context.Background()))

	report, err := newMigrationService(db).Migrate(context.Background(), dto.MigrateOptions{HorizonDays: 14, ConvertTemplates: true})
	require.NoError(t, err)
	assert.True(t, report.NothingToDo)
	assert.Equal(t, entity.SchemaDateBased, report.From)
	assert.False(t, db.Migrator().HasTable(postgres.DefaultBackupTable))
}

func TestMigrationService_RefusesAbsentTable(t *testing.T) {
	db := setupTestDB(t)

	_, err := newMigrationService(db).Migrate(context.Background(), dto.MigrateOptions{})
	assert.ErrorIs(t, err, errorz.ErrSchemaState)
	var stateErr *errorz.SchemaStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, entity.SchemaAbsent.String(), stateErr.Actual)
	assert.False(t, db.Migrator().HasTable(entity.TeeTimesTable))
}

func TestMigrationService_WithoutConversionLeavesTableEmpty(t *testing.T) {
	db := setupTestDB(t)
	createLegacyTable(t, db, weeklySheet...)

	report, err := newMigrationService(db).Migrate(context.Background(), dto.MigrateOptions{})
	require.NoError(t, err)

	assert.Equal(t, entity.SchemaLegacyTemplate, report.From)
	assert.False(t, report.NothingToDo)
	assert.NotEmpty(t, report.RunID)
	assert.EqualValues(t, 3, report.RowsBackedUp)
	assert.False(t, report.Converted)
	assert.Equal(t, entity.SchemaDateBased, generation(t, db))

	var count int64
	require.NoError(t, db.Table(entity.TeeTimesTable).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Table(postgres.DefaultBackupTable).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	again, err := newMigrationService(db).Migrate(context.Background(), dto.MigrateOptions{})
	require.NoError(t, err)
	assert.True(t, again.NothingToDo)
}

func TestMigrationService_ConvertsTemplates(t *testing.T) {
	db := setupTestDB(t)
	createLegacyTable(t, db, weeklySheet...)
	_, err := postgres.NewBlockedDateStorage(db).Create(context.Background(), &entity.BlockedDate{
		Club: "royalportrush", Date: tuesday.AddDate(0, 0, 7), Reason: "Members competition",
	})
	require.NoError(t, err)

	report, err := newMigrationService(db).Migrate(context.Background(), dto.MigrateOptions{
		HorizonDays:      21,
		ConvertTemplates: true,
		ReferenceDate:    tuesday,
	})
	require.NoError(t, err)
	assert.True(t, report.Converted)
	// Three Tuesdays with two tees each, one Tuesday blocked.
	assert.EqualValues(t, 4, report.RowsCreated)

	teeTimes, err := postgres.NewTeeTimeStorage(db, 0).ListRange(context.Background(), "royalportrush", tuesday, tuesday.AddDate(0, 0, 20))
	require.NoError(t, err)
	require.Len(t, teeTimes, 4)
	assert.Equal(t, tuesday, teeTimes[0].Date)
	assert.Equal(t, "10:00", teeTimes[0].Time)
	assert.Equal(t, "14:30", teeTimes[1].Time)
	assert.Equal(t, 3, teeTimes[1].AvailableSlots)
	assert.Equal(t, tuesday.AddDate(0, 0, 14), teeTimes[2].Date)
	for _, teeTime := range teeTimes {
		require.NotNil(t, teeTime.GreenFee)
		assert.Equal(t, 325.0, *teeTime.GreenFee)
		assert.True(t, teeTime.Consistent())
	}
}

func TestMigrationService_FailedStepRollsBack(t *testing.T) {
	db := setupTestDB(t)
	createLegacyTable(t, db, weeklySheet...)

	var steps []string
	observer := service.WithStepObserver(func(step string, _ *dto.MigrationReport) error {
		steps = append(steps, step)
		if step == service.StepCreate {
			return errors.New("disk full")
		}
		return nil
	})

	_, err := newMigrationService(db, observer).Migrate(context.Background(), dto.MigrateOptions{HorizonDays: 14, ConvertTemplates: true, ReferenceDate: tuesday})
	require.ErrorIs(t, err, errorz.ErrMigrationFailure)
	var migrationErr *errorz.MigrationError
	require.True(t, errors.As(err, &migrationErr))
	assert.Equal(t, service.StepCreate, migrationErr.Step)
	assert.Equal(t, []string{service.StepLock, service.StepInspect, service.StepBackup, service.StepDrop, service.StepCreate}, steps)

	assert.Equal(t, entity.SchemaLegacyTemplate, generation(t, db))
	assert.False(t, db.Migrator().HasTable(postgres.DefaultBackupTable))
	var count int64
	require.NoError(t, db.Table(entity.TeeTimesTable).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestMigrationService_ReplacesOldBackup(t *testing.T) {
	db := setupTestDB(t)
	createLegacyTable(t, db, weeklySheet...)
	require.NoError(t, db.Exec(`CREATE TABLE tee_times_template_backup (id INTEGER)`).Error)

	report, err := newMigrationService(db).Migrate(context.Background(), dto.MigrateOptions{})
	require.NoError(t, err)
	assert.True(t, report.BackupReplaced)
	assert.EqualValues(t, 3, report.RowsBackedUp)
}

func TestMigrationService_RejectsBadHorizon(t *testing.T) {
	db := setupTestDB(t)
	createLegacyTable(t, db, weeklySheet...)

	_, err := newMigrationService(db).Migrate(context.Background(), dto.MigrateOptions{HorizonDays: 0, ConvertTemplates: true})
	assert.ErrorIs(t, err, errorz.ErrInvalidArgument)
	assert.Equal(t, entity.SchemaLegacyTemplate, generation(t, db))
}

func TestMigrationService_MaintenanceLock(t *testing.T) {
	db := setupTestDB(t)
	createLegacyTable(t, db, weeklySheet...)

	busy := new(service.MockMaintenanceLock)
	busy.On("Acquire", mock.Anything, mock.Anything, time.Hour).Return(false, nil)
	_, err := newMigrationService(db, service.WithMaintenanceLock(busy)).Migrate(context.Background(), dto.MigrateOptions{})
	assert.ErrorIs(t, err, errorz.ErrMigrationInProgress)
	assert.Equal(t, entity.SchemaLegacyTemplate, generation(t, db))

	free := new(service.MockMaintenanceLock)
	free.On("Acquire", mock.Anything, mock.Anything, time.Hour).Return(true, nil)
	free.On("Release", mock.Anything, mock.Anything).Return(nil)
	report, err := newMigrationService(db, service.WithMaintenanceLock(free)).Migrate(context.Background(), dto.MigrateOptions{})
	require.NoError(t, err)
	free.AssertCalled(t, "Release", mock.Anything, report.RunID)
}
