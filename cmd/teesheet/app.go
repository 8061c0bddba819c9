package teesheet

import (
	"gorm.io/gorm"

	"github.com/portrush/teesheet/internal/adapters/config"
	"github.com/portrush/teesheet/internal/adapters/database/postgres"
	"github.com/portrush/teesheet/internal/adapters/database/redis"
	"github.com/portrush/teesheet/internal/domain/dto"
	"github.com/portrush/teesheet/internal/domain/service"
	"github.com/portrush/teesheet/pkg/logger"
	"github.com/portrush/teesheet/pkg/logger/types"
)

// App wires the storages and services used by the commands.
type App struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Settings *config.Settings
	Logger   *types.Logger

	Schema    *service.SchemaService
	Inventory *service.InventoryService
	Migration *service.MigrationService
	Seed      *service.SeedService
	Blocked   *postgres.BlockedDateStorage
}

// New builds the application on an open database. redisClient may be nil.
// Extra migration options are appended after the defaults.
func New(db *gorm.DB, redisClient *redis.Client, settings *config.Settings, opts ...service.MigrationOption) (*App, error) {
	appLogger, err := logger.Named("app")
	if err != nil {
		return nil, err
	}
	inventoryLogger, err := logger.Named("inventory")
	if err != nil {
		return nil, err
	}
	migrationLogger, err := logger.Named("migration")
	if err != nil {
		return nil, err
	}
	seedLogger, err := logger.Named("seed")
	if err != nil {
		return nil, err
	}

	var maintenance service.MaintenanceLock
	if redisClient != nil {
		maintenance = redisClient.Maintenance
	}

	schemaStorage := postgres.NewSchemaStorage(db)
	teeTimeStorage := postgres.NewTeeTimeStorage(db, settings.BatchSize)
	legacyStorage := postgres.NewLegacyStorage(db, settings.BackupTable)
	blockedStorage := postgres.NewBlockedDateStorage(db)

	schemaService := service.NewSchemaService(schemaStorage)

	migrationOpts := []service.MigrationOption{
		service.WithBlockedDates(blockedStorage),
		service.WithStepObserver(func(step string, _ *dto.MigrationReport) error {
			migrationLogger.Debugf("Step %s done", step)
			return nil
		}),
	}
	if maintenance != nil {
		migrationOpts = append(migrationOpts, service.WithMaintenanceLock(maintenance))
	}
	migrationOpts = append(migrationOpts, opts...)

	return &App{
		DB:       db,
		Redis:    redisClient,
		Settings: settings,
		Logger:   appLogger,

		Schema:    schemaService,
		Inventory: service.NewInventoryService(teeTimeStorage, maintenance, inventoryLogger),
		Migration: service.NewMigrationService(
			postgres.NewTransactor(db),
			schemaService,
			legacyStorage,
			teeTimeStorage,
			service.MigrationConfig{
				Club:             settings.Club,
				GreenFee:         settings.GreenFee,
				StatementTimeout: settings.StatementTimeout,
				LockTTL:          settings.LockTTL,
			},
			migrationLogger,
			migrationOpts...,
		),
		Seed: service.NewSeedService(
			schemaService,
			teeTimeStorage,
			blockedStorage,
			service.NewAvailabilityGenerator(settings.MaxPlayers, settings.GreenFee),
			settings.Rules,
			seedLogger,
		),
		Blocked: blockedStorage,
	}, nil
}

func (a *App) Close() error {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			return err
		}
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
