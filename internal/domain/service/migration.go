package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/portrush/teesheet/internal/domain/common/errorz"
	"github.com/portrush/teesheet/internal/domain/dto"
	"github.com/portrush/teesheet/internal/domain/entity"
	"github.com/portrush/teesheet/internal/domain/utils/location"
	"github.com/portrush/teesheet/internal/domain/utils/validator"
	"github.com/portrush/teesheet/pkg/logger/types"
	"github.com/portrush/teesheet/pkg/metrics"
)

// Migration steps, in the order they run.
const (
	StepLock    = "lock"
	StepInspect = "inspect"
	StepBackup  = "backup"
	StepDrop    = "drop"
	StepCreate  = "create"
	StepConvert = "convert"
	StepCommit  = "commit"
)

type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type LegacyStorage interface {
	BackupTable() string
	Lock(ctx context.Context, statementTimeout time.Duration) error
	Backup(ctx context.Context) (rows int64, replaced bool, err error)
	DropLegacy(ctx context.Context) error
	Templates(ctx context.Context) ([]entity.TeeTimeTemplate, error)
}

type BlockedDateStorage interface {
	Dates(ctx context.Context, club string, from, to time.Time) (map[time.Time]bool, error)
}

// StepObserver is called after each completed step. Returning an error
// aborts the migration and rolls it back.
type StepObserver func(step string, report *dto.MigrationReport) error

type MigrationConfig struct {
	Club             string
	GreenFee         *float64
	StatementTimeout time.Duration
	LockTTL          time.Duration
}

type MigrationService struct {
	tx          Transactor
	schema      *SchemaService
	legacy      LegacyStorage
	teeTimes    TeeTimeStorage
	blocked     BlockedDateStorage
	maintenance MaintenanceLock
	observer    StepObserver
	cfg         MigrationConfig
	logger      *types.Logger
	now         func() time.Time
}

type MigrationOption func(*MigrationService)

func WithStepObserver(observer StepObserver) MigrationOption {
	return func(s *MigrationService) {
		s.observer = observer
	}
}

func WithMaintenanceLock(lock MaintenanceLock) MigrationOption {
	return func(s *MigrationService) {
		s.maintenance = lock
	}
}

func WithBlockedDates(blocked BlockedDateStorage) MigrationOption {
	return func(s *MigrationService) {
		s.blocked = blocked
	}
}

func NewMigrationService(
	tx Transactor,
	schema *SchemaService,
	legacy LegacyStorage,
	teeTimes TeeTimeStorage,
	cfg MigrationConfig,
	logger *types.Logger,
	opts ...MigrationOption,
) *MigrationService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Hour
	}
	s := &MigrationService{
		tx:       tx,
		schema:   schema,
		legacy:   legacy,
		teeTimes: teeTimes,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// errAlreadyMigrated stops the transaction when another run finished the
// migration while this one waited for the table lock.
var errAlreadyMigrated = errors.New("already migrated")

// Migrate moves a template tee sheet onto date-based inventory. It backs the
// legacy table up, drops it, creates the new table and, when asked, converts
// the templates for the horizon. All of it is one transaction: on failure the
// legacy table is exactly as it was. A date-based schema is left alone and an
// absent one is an errorz.ErrSchemaState error.
func (s *MigrationService) Migrate(ctx context.Context, opts dto.MigrateOptions) (*dto.MigrationReport, error) {
	if opts.ConvertTemplates && !validator.HorizonDays(opts.HorizonDays) {
		return nil, fmt.Errorf("%w: horizon of %d days", errorz.ErrInvalidArgument, opts.HorizonDays)
	}
	if opts.Club == "" {
		opts.Club = s.cfg.Club
	}
	if opts.ReferenceDate.IsZero() {
		opts.ReferenceDate = location.Today()
	}

	report := &dto.MigrationReport{
		RunID:       uuid.NewString(),
		BackupTable: s.legacy.BackupTable(),
		StartedAt:   s.now(),
	}
	log := &types.Logger{SugaredLogger: s.logger.With("run", report.RunID), Name: s.logger.Name}

	generation, err := s.schema.Inspect(ctx)
	if err != nil {
		metrics.Migrations.WithLabelValues("error").Inc()
		return nil, err
	}
	report.From = generation

	switch generation {
	case entity.SchemaDateBased:
		report.NothingToDo = true
		metrics.Migrations.WithLabelValues("noop").Inc()
		log.Info("Schema is already date-based, nothing to migrate")
		return report, nil
	case entity.SchemaAbsent:
		metrics.Migrations.WithLabelValues("rejected").Inc()
		return nil, &errorz.SchemaStateError{Operation: "migrate", Actual: generation.String()}
	}

	if s.maintenance != nil {
		acquired, err := s.maintenance.Acquire(ctx, report.RunID, s.cfg.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to raise maintenance flag: %w", err)
		}
		if !acquired {
			metrics.Migrations.WithLabelValues("rejected").Inc()
			return nil, errorz.ErrMigrationInProgress
		}
		defer func() {
			if err := s.maintenance.Release(context.WithoutCancel(ctx), report.RunID); err != nil {
				log.Warnf("Failed to clear maintenance flag: %v", err)
			}
		}()
	}

	log.Infof("Migrating %s to date-based inventory (convert=%t, horizon=%d days)", entity.TeeTimesTable, opts.ConvertTemplates, opts.HorizonDays)
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		return s.run(ctx, opts, report, log)
	})
	report.Duration = s.now().Sub(report.StartedAt)
	metrics.MigrationDuration.Observe(report.Duration.Seconds())

	if errors.Is(err, errAlreadyMigrated) {
		report.NothingToDo = true
		report.RowsBackedUp, report.BackupReplaced = 0, false
		metrics.Migrations.WithLabelValues("noop").Inc()
		log.Info("Schema was migrated concurrently, nothing to do")
		return report, nil
	}
	if err != nil {
		var migrationErr *errorz.MigrationError
		if !errors.As(err, &migrationErr) {
			err = &errorz.MigrationError{Step: StepCommit, Err: err}
		}
		metrics.Migrations.WithLabelValues("failed").Inc()
		log.Errorf("Migration rolled back, %s is unchanged: %v", entity.TeeTimesTable, err)
		return nil, err
	}

	metrics.Migrations.WithLabelValues("migrated").Inc()
	if report.Converted {
		metrics.SlotsCreated.WithLabelValues("conversion").Add(float64(report.RowsCreated))
	}
	log.Infof("Migration done in %s: %d rows backed up to %s, %d tee times created",
		report.Duration, report.RowsBackedUp, report.BackupTable, report.RowsCreated)
	return report, nil
}

func (s *MigrationService) run(ctx context.Context, opts dto.MigrateOptions, report *dto.MigrationReport, log *types.Logger) error {
	err := s.step(StepLock, report, func() error {
		return s.legacy.Lock(ctx, s.cfg.StatementTimeout)
	})
	if err != nil {
		return err
	}

	err = s.step(StepInspect, report, func() error {
		generation, err := s.schema.Generation(ctx)
		if err != nil {
			return err
		}
		switch generation {
		case entity.SchemaDateBased:
			return errAlreadyMigrated
		case entity.SchemaAbsent:
			return &errorz.SchemaStateError{Operation: "migrate", Actual: generation.String()}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = s.step(StepBackup, report, func() error {
		rows, replaced, err := s.legacy.Backup(ctx)
		if err != nil {
			return err
		}
		if replaced {
			log.Warnf("Replaced existing backup table %s; its previous contents are gone", report.BackupTable)
		}
		report.RowsBackedUp, report.BackupReplaced = rows, replaced
		log.Infof("Backed up %d rows to %s", rows, report.BackupTable)
		return nil
	})
	if err != nil {
		return err
	}

	err = s.step(StepDrop, report, func() error {
		return s.legacy.DropLegacy(ctx)
	})
	if err != nil {
		return err
	}

	err = s.step(StepCreate, report, func() error {
		return s.teeTimes.CreateTable(ctx)
	})
	if err != nil {
		return err
	}

	if !opts.ConvertTemplates {
		return nil
	}
	return s.step(StepConvert, report, func() error {
		templates, err := s.legacy.Templates(ctx)
		if err != nil {
			return err
		}
		converter := NewTemplateConverter(opts.Club, s.cfg.GreenFee)
		teeTimes, skipped := converter.Convert(templates, opts.HorizonDays, opts.ReferenceDate)
		for _, skip := range skipped {
			log.Warnf("Skipped template %d (%s %s): %s", skip.Template.ID, skip.Template.DayOfWeek, skip.Template.TeeTime, skip.Reason)
		}

		if s.blocked != nil {
			last := entity.DateOf(opts.ReferenceDate).AddDate(0, 0, opts.HorizonDays-1)
			blocked, err := s.blocked.Dates(ctx, opts.Club, opts.ReferenceDate, last)
			if err != nil {
				return err
			}
			teeTimes = withoutBlocked(teeTimes, blocked)
		}

		created, err := s.teeTimes.CreateIgnoringDuplicates(ctx, teeTimes)
		if err != nil {
			return err
		}
		report.Converted, report.RowsCreated = true, created
		log.Infof("Converted %d templates into %d tee times", len(templates), created)
		return nil
	})
}

// step runs fn and tags its failure with the step name.
func (s *MigrationService) step(name string, report *dto.MigrationReport, fn func() error) error {
	if err := fn(); err != nil {
		if errors.Is(err, errAlreadyMigrated) {
			return err
		}
		return &errorz.MigrationError{Step: name, Err: err}
	}
	if s.observer != nil {
		if err := s.observer(name, report); err != nil {
			return &errorz.MigrationError{Step: name, Err: err}
		}
	}
	return nil
}
