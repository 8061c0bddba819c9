package service

import (
	"context"
	"slices"

	"github.com/portrush/teesheet/internal/domain/dto"
	"github.com/portrush/teesheet/internal/domain/entity"
)

type SchemaStorage interface {
	Ping(ctx context.Context) error
	HasTable(ctx context.Context, table string) (bool, error)
	Columns(ctx context.Context, table string) ([]string, error)
	Count(ctx context.Context, table string) (int64, error)
}

// SchemaService tells which generation the tee_times table is on. It
// always asks the database; nothing is cached between calls.
type SchemaService struct {
	storage SchemaStorage
}

func NewSchemaService(storage SchemaStorage) *SchemaService {
	return &SchemaService{
		storage: storage,
	}
}

// Inspect pings the store and classifies tee_times. An unreachable store is
// reported as errorz.ErrConnectivity, never as SchemaAbsent.
func (s *SchemaService) Inspect(ctx context.Context) (entity.SchemaGeneration, error) {
	if err := s.storage.Ping(ctx); err != nil {
		return entity.SchemaAbsent, err
	}
	return s.Generation(ctx)
}

// Generation classifies tee_times without pinging first. Use it inside a
// transaction that already proved the connection.
func (s *SchemaService) Generation(ctx context.Context) (entity.SchemaGeneration, error) {
	exists, err := s.storage.HasTable(ctx, entity.TeeTimesTable)
	if err != nil {
		return entity.SchemaAbsent, err
	}
	if !exists {
		return entity.SchemaAbsent, nil
	}

	columns, err := s.storage.Columns(ctx, entity.TeeTimesTable)
	if err != nil {
		return entity.SchemaAbsent, err
	}
	if slices.Contains(columns, entity.LegacyDiscriminator) {
		return entity.SchemaLegacyTemplate, nil
	}
	return entity.SchemaDateBased, nil
}

// Describe returns the generation together with the column and row details
// the check command prints.
func (s *SchemaService) Describe(ctx context.Context) (*dto.SchemaReport, error) {
	generation, err := s.Inspect(ctx)
	if err != nil {
		return nil, err
	}
	report := &dto.SchemaReport{Generation: generation}
	if generation == entity.SchemaAbsent {
		report.MissingColumns = slices.Clone(entity.RequiredColumns)
		return report, nil
	}

	if report.Columns, err = s.storage.Columns(ctx, entity.TeeTimesTable); err != nil {
		return nil, err
	}
	for _, column := range entity.RequiredColumns {
		if !slices.Contains(report.Columns, column) {
			report.MissingColumns = append(report.MissingColumns, column)
		}
	}
	for _, column := range entity.LegacyColumns {
		if slices.Contains(report.Columns, column) {
			report.LegacyColumns = append(report.LegacyColumns, column)
		}
	}

	if report.RowCount, err = s.storage.Count(ctx, entity.TeeTimesTable); err != nil {
		return nil, err
	}
	return report, nil
}
