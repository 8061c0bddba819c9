package service

import (
	"context"
	"fmt"
	"time"

	"github.com/portrush/teesheet/internal/domain/common/errorz"
	"github.com/portrush/teesheet/internal/domain/dto"
	"github.com/portrush/teesheet/internal/domain/entity"
	"github.com/portrush/teesheet/internal/domain/utils/location"
	"github.com/portrush/teesheet/internal/domain/utils/validator"
	"github.com/portrush/teesheet/pkg/logger/types"
	"github.com/portrush/teesheet/pkg/metrics"
)

// SeedService fills inventory from opening hours on a fresh or date-based
// database. It never overwrites an existing tee time.
type SeedService struct {
	schema    *SchemaService
	teeTimes  TeeTimeStorage
	blocked   BlockedDateStorage
	generator *AvailabilityGenerator
	rules     entity.OpeningRules
	logger    *types.Logger
}

func NewSeedService(
	schema *SchemaService,
	teeTimes TeeTimeStorage,
	blocked BlockedDateStorage,
	generator *AvailabilityGenerator,
	rules entity.OpeningRules,
	logger *types.Logger,
) *SeedService {
	return &SeedService{
		schema:    schema,
		teeTimes:  teeTimes,
		blocked:   blocked,
		generator: generator,
		rules:     rules,
		logger:    logger,
	}
}

// Seed generates horizonDays of tee times for club starting at
// referenceDate (today when zero). An absent tee_times table is created
// first; a legacy one must be migrated before seeding.
func (s *SeedService) Seed(ctx context.Context, club string, horizonDays int, referenceDate time.Time) (*dto.SeedReport, error) {
	if !validator.ClubName(club, nil) {
		return nil, fmt.Errorf("%w: club %q", errorz.ErrInvalidArgument, club)
	}
	if !validator.HorizonDays(horizonDays) {
		return nil, fmt.Errorf("%w: horizon of %d days", errorz.ErrInvalidArgument, horizonDays)
	}
	if referenceDate.IsZero() {
		referenceDate = location.Today()
	}
	from := entity.DateOf(referenceDate)
	report := &dto.SeedReport{Club: club, From: from, To: from.AddDate(0, 0, horizonDays-1)}

	generation, err := s.schema.Inspect(ctx)
	if err != nil {
		return nil, err
	}
	switch generation {
	case entity.SchemaLegacyTemplate:
		return nil, &errorz.SchemaStateError{Operation: "seed", Actual: generation.String()}
	case entity.SchemaAbsent:
		if err := s.teeTimes.CreateTable(ctx); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", entity.TeeTimesTable, err)
		}
		report.CreatedTable = true
		s.logger.Infof("Created %s table", entity.TeeTimesTable)
	}

	teeTimes, err := s.generator.Generate(club, horizonDays, from, s.rules)
	if err != nil {
		return nil, err
	}
	report.Generated = len(teeTimes)

	if s.blocked != nil {
		blocked, err := s.blocked.Dates(ctx, club, report.From, report.To)
		if err != nil {
			return nil, err
		}
		report.BlockedDays = len(blocked)
		teeTimes = withoutBlocked(teeTimes, blocked)
	}

	report.Created, err = s.teeTimes.CreateIgnoringDuplicates(ctx, teeTimes)
	if err != nil {
		return nil, err
	}
	report.AlreadyExists = int64(len(teeTimes)) - report.Created
	metrics.SlotsCreated.WithLabelValues("seed").Add(float64(report.Created))

	s.logger.Infof("Seeded %s %s..%s: %d new tee times, %d already present",
		club, report.From.Format(entity.DateLayout), report.To.Format(entity.DateLayout), report.Created, report.AlreadyExists)
	return report, nil
}
