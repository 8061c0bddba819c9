package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/portrush/teesheet/internal/domain/entity"
)

const DefaultBackupTable = "tee_times_template_backup"

// LegacyStorage holds the DDL that retires the weekly template tee sheet.
// Every method is meant to run inside a Transactor transaction.
type LegacyStorage struct {
	db          *gorm.DB
	backupTable string
}

func NewLegacyStorage(db *gorm.DB, backupTable string) *LegacyStorage {
	if backupTable == "" {
		backupTable = DefaultBackupTable
	}
	return &LegacyStorage{
		db:          db,
		backupTable: backupTable,
	}
}

func (s *LegacyStorage) BackupTable() string {
	return s.backupTable
}

// Lock takes an exclusive lock on tee_times until the transaction ends and
// applies the statement timeout. Both are no-ops outside PostgreSQL.
func (s *LegacyStorage) Lock(ctx context.Context, statementTimeout time.Duration) error {
	db := conn(ctx, s.db)
	if !isPostgres(db) {
		return nil
	}
	if statementTimeout > 0 {
		if err := db.Exec(fmt.Sprintf("SET LOCAL statement_timeout = %d", statementTimeout.Milliseconds())).Error; err != nil {
			return err
		}
	}
	return db.Exec("LOCK TABLE " + pq.QuoteIdentifier(entity.TeeTimesTable) + " IN ACCESS EXCLUSIVE MODE").Error
}

// Backup copies tee_times into the backup table. An existing backup is
// dropped first; replaced reports whether that happened.
func (s *LegacyStorage) Backup(ctx context.Context) (rows int64, replaced bool, err error) {
	db := conn(ctx, s.db)
	backup := pq.QuoteIdentifier(s.backupTable)

	if db.Migrator().HasTable(s.backupTable) {
		replaced = true
		if err = db.Exec("DROP TABLE " + backup).Error; err != nil {
			return 0, replaced, err
		}
	}

	if err = db.Exec("CREATE TABLE " + backup + " AS SELECT * FROM " + pq.QuoteIdentifier(entity.TeeTimesTable)).Error; err != nil {
		return 0, replaced, err
	}

	err = db.Table(s.backupTable).Count(&rows).Error
	return rows, replaced, err
}

func (s *LegacyStorage) DropLegacy(ctx context.Context) error {
	return conn(ctx, s.db).Exec("DROP TABLE " + pq.QuoteIdentifier(entity.TeeTimesTable)).Error
}

// Templates reads the weekly templates back from the backup table.
func (s *LegacyStorage) Templates(ctx context.Context) ([]entity.TeeTimeTemplate, error) {
	var templates []entity.TeeTimeTemplate
	err := conn(ctx, s.db).Table(s.backupTable).
		Select("id, day_of_week, tee_time, period, max_players, is_available").
		Order("id ASC").
		Find(&templates).Error
	return templates, err
}
