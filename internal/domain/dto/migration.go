package dto

import (
	"time"

	"github.com/portrush/teesheet/internal/domain/entity"
)

type MigrationReport struct {
	RunID          string
	From           entity.SchemaGeneration
	NothingToDo    bool
	BackupTable    string
	RowsBackedUp   int64
	BackupReplaced bool
	Converted      bool
	RowsCreated    int64
	StartedAt      time.Time
	Duration       time.Duration
}

// MigrateOptions controls a migration run. A zero ReferenceDate means today
// at the club and an empty Club means the configured default club.
type MigrateOptions struct {
	HorizonDays      int
	ConvertTemplates bool
	ReferenceDate    time.Time
	Club             string
}
