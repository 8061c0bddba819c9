package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/portrush/teesheet/internal/domain/entity"
)

type MockTeeTimeStorage struct {
	mock.Mock
}

func (m *MockTeeTimeStorage) CreateTable(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTeeTimeStorage) CreateIgnoringDuplicates(ctx context.Context, teeTimes []entity.TeeTime) (int64, error) {
	args := m.Called(ctx, teeTimes)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTeeTimeStorage) Get(ctx context.Context, key entity.SlotKey) (*entity.TeeTime, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TeeTime), args.Error(1)
}

func (m *MockTeeTimeStorage) FindAvailable(ctx context.Context, club string, date time.Time, minSlots int) ([]entity.TeeTime, error) {
	args := m.Called(ctx, club, date, minSlots)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TeeTime), args.Error(1)
}

func (m *MockTeeTimeStorage) ListRange(ctx context.Context, club string, from, to time.Time) ([]entity.TeeTime, error) {
	args := m.Called(ctx, club, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TeeTime), args.Error(1)
}

func (m *MockTeeTimeStorage) Decrement(ctx context.Context, key entity.SlotKey, count int) (*entity.TeeTime, error) {
	args := m.Called(ctx, key, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TeeTime), args.Error(1)
}

func (m *MockTeeTimeStorage) Release(ctx context.Context, key entity.SlotKey, count int) (*entity.TeeTime, error) {
	args := m.Called(ctx, key, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TeeTime), args.Error(1)
}

type MockMaintenanceLock struct {
	mock.Mock
}

func (m *MockMaintenanceLock) Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, owner, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockMaintenanceLock) Release(ctx context.Context, owner string) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *MockMaintenanceLock) Active(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

type MockSchemaStorage struct {
	mock.Mock
}

func (m *MockSchemaStorage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSchemaStorage) HasTable(ctx context.Context, table string) (bool, error) {
	args := m.Called(ctx, table)
	return args.Bool(0), args.Error(1)
}

func (m *MockSchemaStorage) Columns(ctx context.Context, table string) ([]string, error) {
	args := m.Called(ctx, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSchemaStorage) Count(ctx context.Context, table string) (int64, error) {
	args := m.Called(ctx, table)
	return args.Get(0).(int64), args.Error(1)
}
