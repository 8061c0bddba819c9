package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/portrush/teesheet/internal/domain/common/errorz"
	"github.com/portrush/teesheet/internal/domain/entity"
	"github.com/portrush/teesheet/pkg/logger/types"
	"github.com/portrush/teesheet/pkg/metrics"
)

func TestInventoryService_DecrementNormalisesKey(t *testing.T) {
	storage := new(MockTeeTimeStorage)
	want := entity.SlotKey{Club: "royalportrush", Date: tuesday, Time: "09:00"}
	storage.On("Decrement", mock.Anything, want, 2).
		Return(&entity.TeeTime{Club: "royalportrush", Date: tuesday, Time: "09:00", MaxPlayers: 4, AvailableSlots: 2, IsAvailable: true}, nil)
	s := NewInventoryService(storage, nil, types.Nop())

	okBefore := testutil.ToFloat64(metrics.Decrements.WithLabelValues(metrics.ResultOK))
	playersBefore := testutil.ToFloat64(metrics.PlayersBooked)

	teeTime, err := s.Decrement(context.Background(), entity.SlotKey{Club: "royalportrush", Date: tuesday.Add(9 * time.Hour), Time: "9:00 AM"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, teeTime.AvailableSlots)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.Decrements.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, playersBefore+2, testutil.ToFloat64(metrics.PlayersBooked))
	storage.AssertExpectations(t)
}

func TestInventoryService_DecrementInsufficient(t *testing.T) {
	storage := new(MockTeeTimeStorage)
	storage.On("Decrement", mock.Anything, mock.Anything, 3).
		Return(&entity.TeeTime{MaxPlayers: 4, AvailableSlots: 1, IsAvailable: true}, errorz.ErrInsufficientCapacity)
	s := NewInventoryService(storage, nil, types.Nop())

	before := testutil.ToFloat64(metrics.Decrements.WithLabelValues(metrics.ResultInsufficient))
	teeTime, err := s.Decrement(context.Background(), entity.SlotKey{Club: "royalportrush", Date: tuesday, Time: "10:00"}, 3)
	assert.Nil(t, teeTime)
	assert.ErrorIs(t, err, errorz.ErrInsufficientCapacity)
	assert.Contains(t, err.Error(), "has 1 places, need 3")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Decrements.WithLabelValues(metrics.ResultInsufficient)))
}

func TestInventoryService_RejectsBadInput(t *testing.T) {
	storage := new(MockTeeTimeStorage)
	s := NewInventoryService(storage, nil, types.Nop())
	ctx := context.Background()

	_, err := s.Decrement(ctx, entity.SlotKey{Club: "royalportrush", Date: tuesday, Time: "10:00"}, 0)
	assert.ErrorIs(t, err, errorz.ErrInvalidCount)
	_, err = s.Release(ctx, entity.SlotKey{Club: "royalportrush", Date: tuesday, Time: "10:00"}, -1)
	assert.ErrorIs(t, err, errorz.ErrInvalidCount)
	_, err = s.Decrement(ctx, entity.SlotKey{Club: "royalportrush", Date: tuesday, Time: "teatime"}, 1)
	assert.ErrorIs(t, err, errorz.ErrInvalidArgument)

	storage.AssertNotCalled(t, "Decrement", mock.Anything, mock.Anything, mock.Anything)
	storage.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestInventoryService_MaintenanceBlocksMutations(t *testing.T) {
	storage := new(MockTeeTimeStorage)
	lock := new(MockMaintenanceLock)
	lock.On("Active", mock.Anything).Return(true, nil)
	s := NewInventoryService(storage, lock, types.Nop())
	key := entity.SlotKey{Club: "royalportrush", Date: tuesday, Time: "10:00"}

	_, err := s.Decrement(context.Background(), key, 1)
	assert.ErrorIs(t, err, errorz.ErrMaintenance)
	_, err = s.Release(context.Background(), key, 1)
	assert.ErrorIs(t, err, errorz.ErrMaintenance)
	storage.AssertNotCalled(t, "Decrement", mock.Anything, mock.Anything, mock.Anything)
}

func TestInventoryService_UnreadableMaintenanceFlagDoesNotBlock(t *testing.T) {
	storage := new(MockTeeTimeStorage)
	storage.On("Release", mock.Anything, mock.Anything, 1).
		Return(&entity.TeeTime{MaxPlayers: 4, AvailableSlots: 4, IsAvailable: true}, nil)
	lock := new(MockMaintenanceLock)
	lock.On("Active", mock.Anything).Return(false, errors.New("connection refused"))
	s := NewInventoryService(storage, lock, types.Nop())

	teeTime, err := s.Release(context.Background(), entity.SlotKey{Club: "royalportrush", Date: tuesday, Time: "10:00"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, teeTime.AvailableSlots)
}

func TestInventoryService_Check(t *testing.T) {
	storage := new(MockTeeTimeStorage)
	fee := 325.0
	storage.On("Get", mock.Anything, entity.SlotKey{Club: "royalportrush", Date: tuesday, Time: "10:00"}).
		Return(&entity.TeeTime{MaxPlayers: 4, AvailableSlots: 2, IsAvailable: true, GreenFee: &fee}, nil)
	storage.On("Get", mock.Anything, entity.SlotKey{Club: "royalportrush", Date: tuesday, Time: "10:10"}).
		Return(nil, errorz.ErrSlotNotFound)
	s := NewInventoryService(storage, nil, types.Nop())
	ctx := context.Background()

	check, err := s.Check(ctx, entity.SlotKey{Club: "royalportrush", Date: tuesday, Time: "10:00"}, 3)
	require.NoError(t, err)
	assert.True(t, check.Exists)
	assert.True(t, check.Available)
	assert.False(t, check.CanAccommodate)
	assert.Equal(t, 2, check.AvailableSlots)
	assert.Equal(t, &fee, check.GreenFee)

	check, err = s.Check(ctx, entity.SlotKey{Club: "royalportrush", Date: tuesday, Time: "10:10"}, 1)
	require.NoError(t, err)
	assert.False(t, check.Exists)
	assert.False(t, check.CanAccommodate)
}

func TestInventoryService_FindAvailableDefaultsToOnePlayer(t *testing.T) {
	storage := new(MockTeeTimeStorage)
	storage.On("FindAvailable", mock.Anything, "royalportrush", tuesday, 1).Return([]entity.TeeTime{{Time: "08:00"}}, nil)
	s := NewInventoryService(storage, nil, types.Nop())

	teeTimes, err := s.FindAvailable(context.Background(), "royalportrush", tuesday.Add(20*time.Hour), 0)
	require.NoError(t, err)
	assert.Len(t, teeTimes, 1)
	storage.AssertExpectations(t)
}

func TestInventoryService_DailyReport(t *testing.T) {
	storage := new(MockTeeTimeStorage)
	wednesday := tuesday.AddDate(0, 0, 1)
	storage.On("ListRange", mock.Anything, "royalportrush", tuesday, wednesday).Return([]entity.TeeTime{
		{Date: tuesday, Time: "08:00", MaxPlayers: 4, AvailableSlots: 4},
		{Date: tuesday, Time: "08:10", MaxPlayers: 4, AvailableSlots: 3},
		{Date: tuesday, Time: "08:20", MaxPlayers: 4, AvailableSlots: 4},
		{Date: wednesday, Time: "08:00", MaxPlayers: 4, AvailableSlots: 0},
	}, nil)
	s := NewInventoryService(storage, nil, types.Nop())

	report, err := s.DailyReport(context.Background(), "royalportrush", tuesday, wednesday)
	require.NoError(t, err)
	require.Len(t, report, 2)

	assert.Equal(t, tuesday, report[0].Date)
	assert.Equal(t, time.Tuesday, report[0].Weekday)
	assert.Equal(t, 3, report[0].SlotCount)
	assert.Equal(t, 12, report[0].TotalCapacity)
	assert.Equal(t, 11, report[0].TotalAvailable)
	assert.Equal(t, 1, report[0].TotalBooked)
	assert.Equal(t, 8.3, report[0].UtilizationPct)

	assert.Equal(t, 100.0, report[1].UtilizationPct)

	_, err = s.DailyReport(context.Background(), "royalportrush", wednesday, tuesday)
	assert.ErrorIs(t, err, errorz.ErrInvalidArgument)
}
