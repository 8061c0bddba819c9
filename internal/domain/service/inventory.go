package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/portrush/teesheet/internal/domain/common/errorz"
	"github.com/portrush/teesheet/internal/domain/dto"
	"github.com/portrush/teesheet/internal/domain/entity"
	"github.com/portrush/teesheet/internal/domain/utils/teetime"
	"github.com/portrush/teesheet/pkg/logger/types"
	"github.com/portrush/teesheet/pkg/metrics"
)

type TeeTimeStorage interface {
	CreateTable(ctx context.Context) error
	CreateIgnoringDuplicates(ctx context.Context, teeTimes []entity.TeeTime) (int64, error)
	Get(ctx context.Context, key entity.SlotKey) (*entity.TeeTime, error)
	FindAvailable(ctx context.Context, club string, date time.Time, minSlots int) ([]entity.TeeTime, error)
	ListRange(ctx context.Context, club string, from, to time.Time) ([]entity.TeeTime, error)
	Decrement(ctx context.Context, key entity.SlotKey, count int) (*entity.TeeTime, error)
	Release(ctx context.Context, key entity.SlotKey, count int) (*entity.TeeTime, error)
}

// MaintenanceLock is the flag raised while a migration owns the inventory.
type MaintenanceLock interface {
	Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, owner string) error
	Active(ctx context.Context) (bool, error)
}

// InventoryService is what the booking workflow calls to read and consume
// tee time capacity.
type InventoryService struct {
	storage     TeeTimeStorage
	maintenance MaintenanceLock
	logger      *types.Logger
}

// NewInventoryService builds the service. maintenance may be nil when no
// maintenance flag store is configured.
func NewInventoryService(storage TeeTimeStorage, maintenance MaintenanceLock, logger *types.Logger) *InventoryService {
	return &InventoryService{
		storage:     storage,
		maintenance: maintenance,
		logger:      logger,
	}
}

// FindAvailable lists tee times on date with at least minSlots free places,
// earliest first.
func (s *InventoryService) FindAvailable(ctx context.Context, club string, date time.Time, minSlots int) ([]entity.TeeTime, error) {
	if minSlots < 1 {
		minSlots = 1
	}
	return s.storage.FindAvailable(ctx, club, entity.DateOf(date), minSlots)
}

// Check reports whether players fit into the tee time. A missing tee time is
// not an error; the result says it does not exist.
func (s *InventoryService) Check(ctx context.Context, key entity.SlotKey, players int) (dto.SlotCheck, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return dto.SlotCheck{}, err
	}
	teeTime, err := s.storage.Get(ctx, key)
	if errors.Is(err, errorz.ErrSlotNotFound) {
		return dto.NewSlotCheck(key, players, nil), nil
	}
	if err != nil {
		return dto.SlotCheck{}, err
	}
	return dto.NewSlotCheck(key, players, teeTime), nil
}

// Decrement takes count places from the tee time. It fails with
// errorz.ErrInsufficientCapacity, leaving the row untouched, when fewer than
// count places are left.
func (s *InventoryService) Decrement(ctx context.Context, key entity.SlotKey, count int) (*entity.TeeTime, error) {
	key, err := s.prepareMutation(ctx, key, count)
	if err != nil {
		return nil, err
	}

	teeTime, err := s.storage.Decrement(ctx, key, count)
	switch {
	case err == nil:
		metrics.Decrements.WithLabelValues(metrics.ResultOK).Inc()
		metrics.PlayersBooked.Add(float64(count))
		s.logger.Infof("Tee time %s: took %d, %d/%d left", key, count, teeTime.AvailableSlots, teeTime.MaxPlayers)
		return teeTime, nil
	case errors.Is(err, errorz.ErrInsufficientCapacity):
		metrics.Decrements.WithLabelValues(metrics.ResultInsufficient).Inc()
		left := 0
		if teeTime != nil {
			left = teeTime.AvailableSlots
		}
		return nil, fmt.Errorf("%w: %s has %d places, need %d", err, key, left, count)
	case errors.Is(err, errorz.ErrSlotNotFound):
		metrics.Decrements.WithLabelValues(metrics.ResultNotFound).Inc()
		return nil, fmt.Errorf("%w: %s", err, key)
	default:
		metrics.Decrements.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Errorf("Failed to decrement tee time %s: %v", key, err)
		return nil, err
	}
}

// Release gives count places back to the tee time, capped at max players.
func (s *InventoryService) Release(ctx context.Context, key entity.SlotKey, count int) (*entity.TeeTime, error) {
	key, err := s.prepareMutation(ctx, key, count)
	if err != nil {
		return nil, err
	}

	teeTime, err := s.storage.Release(ctx, key, count)
	switch {
	case err == nil:
		metrics.Releases.WithLabelValues(metrics.ResultOK).Inc()
		s.logger.Infof("Tee time %s: released %d, %d/%d left", key, count, teeTime.AvailableSlots, teeTime.MaxPlayers)
		return teeTime, nil
	case errors.Is(err, errorz.ErrSlotNotFound):
		metrics.Releases.WithLabelValues(metrics.ResultNotFound).Inc()
		return nil, fmt.Errorf("%w: %s", err, key)
	default:
		metrics.Releases.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Errorf("Failed to release tee time %s: %v", key, err)
		return nil, err
	}
}

// DailyReport summarises capacity and bookings per day between from and to.
func (s *InventoryService) DailyReport(ctx context.Context, club string, from, to time.Time) ([]dto.DailyAvailability, error) {
	from, to = entity.DateOf(from), entity.DateOf(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: report ends before it starts", errorz.ErrInvalidArgument)
	}
	teeTimes, err := s.storage.ListRange(ctx, club, from, to)
	if err != nil {
		return nil, err
	}

	var report []dto.DailyAvailability
	for _, t := range teeTimes {
		date := entity.DateOf(t.Date)
		if len(report) == 0 || !report[len(report)-1].Date.Equal(date) {
			report = append(report, dto.DailyAvailability{Date: date, Weekday: date.Weekday()})
		}
		day := &report[len(report)-1]
		day.SlotCount++
		day.TotalCapacity += t.MaxPlayers
		day.TotalAvailable += t.AvailableSlots
		day.TotalBooked += t.Booked()
	}
	for i := range report {
		if report[i].TotalCapacity > 0 {
			pct := float64(report[i].TotalBooked) / float64(report[i].TotalCapacity) * 100
			report[i].UtilizationPct = math.Round(pct*10) / 10
		}
	}
	return report, nil
}

func (s *InventoryService) prepareMutation(ctx context.Context, key entity.SlotKey, count int) (entity.SlotKey, error) {
	if count < 1 {
		return key, errorz.ErrInvalidCount
	}
	if s.maintenance != nil {
		active, err := s.maintenance.Active(ctx)
		if err != nil {
			s.logger.Warnf("Failed to read maintenance flag: %v", err)
		} else if active {
			return key, errorz.ErrMaintenance
		}
	}
	return normalizeKey(key)
}

func normalizeKey(key entity.SlotKey) (entity.SlotKey, error) {
	clock, err := teetime.Normalize(key.Time)
	if err != nil {
		return key, fmt.Errorf("%w: %v", errorz.ErrInvalidArgument, err)
	}
	return entity.SlotKey{Club: key.Club, Date: entity.DateOf(key.Date), Time: clock}, nil
}
