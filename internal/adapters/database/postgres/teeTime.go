package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/portrush/teesheet/internal/domain/common/errorz"
	"github.com/portrush/teesheet/internal/domain/entity"
)

const defaultBatchSize = 500

type TeeTimeStorage struct {
	db        *gorm.DB
	batchSize int
}

func NewTeeTimeStorage(db *gorm.DB, batchSize int) *TeeTimeStorage {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &TeeTimeStorage{
		db:        db,
		batchSize: batchSize,
	}
}

// CreateTable creates the date-based tee_times table with its indexes.
func (s *TeeTimeStorage) CreateTable(ctx context.Context) error {
	return conn(ctx, s.db).Migrator().CreateTable(&entity.TeeTime{})
}

// CreateIgnoringDuplicates inserts rows in batches and skips every row whose
// (club, date, time) already exists. It returns the number of rows inserted.
func (s *TeeTimeStorage) CreateIgnoringDuplicates(ctx context.Context, teeTimes []entity.TeeTime) (int64, error) {
	var created int64
	db := conn(ctx, s.db)

	for i := 0; i < len(teeTimes); i += s.batchSize {
		end := i + s.batchSize
		if end > len(teeTimes) {
			end = len(teeTimes)
		}
		chunk := teeTimes[i:end]

		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "club"}, {Name: "date"}, {Name: "time"}},
			DoNothing: true,
		}).Create(&chunk)
		if res.Error != nil {
			return created, s.translate(ctx, res.Error)
		}
		created += res.RowsAffected
	}
	return created, nil
}

func (s *TeeTimeStorage) Get(ctx context.Context, key entity.SlotKey) (*entity.TeeTime, error) {
	var teeTime entity.TeeTime
	err := conn(ctx, s.db).
		Where("club = ? AND date = ? AND time = ?", key.Club, entity.DateOf(key.Date), key.Time).
		First(&teeTime).Error
	if err != nil {
		return nil, s.translate(ctx, err)
	}
	return &teeTime, nil
}

// FindAvailable lists bookable tee times on date with at least minSlots
// places left, earliest first.
func (s *TeeTimeStorage) FindAvailable(ctx context.Context, club string, date time.Time, minSlots int) ([]entity.TeeTime, error) {
	var teeTimes []entity.TeeTime
	err := conn(ctx, s.db).
		Where("club = ? AND date = ?", club, entity.DateOf(date)).
		Where("is_available = ? AND available_slots >= ?", true, minSlots).
		Order("time ASC").
		Find(&teeTimes).Error
	if err != nil {
		return nil, s.translate(ctx, err)
	}
	return teeTimes, nil
}

// ListRange returns every tee time of club between from and to inclusive.
func (s *TeeTimeStorage) ListRange(ctx context.Context, club string, from, to time.Time) ([]entity.TeeTime, error) {
	var teeTimes []entity.TeeTime
	err := conn(ctx, s.db).
		Where("club = ? AND date >= ? AND date <= ?", club, entity.DateOf(from), entity.DateOf(to)).
		Order("date ASC").
		Order("time ASC").
		Find(&teeTimes).Error
	if err != nil {
		return nil, s.translate(ctx, err)
	}
	return teeTimes, nil
}

// Decrement takes count places from a tee time. The capacity check and the
// write are one conditional UPDATE, so concurrent callers cannot oversell.
func (s *TeeTimeStorage) Decrement(ctx context.Context, key entity.SlotKey, count int) (*entity.TeeTime, error) {
	var teeTime entity.TeeTime
	err := conn(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.TeeTime{}).
			Where("club = ? AND date = ? AND time = ?", key.Club, entity.DateOf(key.Date), key.Time).
			Where("available_slots >= ?", count).
			Updates(map[string]interface{}{
				"available_slots": gorm.Expr("available_slots - ?", count),
				"is_available":    gorm.Expr("CASE WHEN available_slots - ? > 0 THEN TRUE ELSE FALSE END", count),
				"updated_at":      time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}

		err := tx.Where("club = ? AND date = ? AND time = ?", key.Club, entity.DateOf(key.Date), key.Time).
			First(&teeTime).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorz.ErrSlotNotFound
		}
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return errorz.ErrInsufficientCapacity
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errorz.ErrInsufficientCapacity) {
			return &teeTime, err
		}
		return nil, s.translate(ctx, err)
	}
	return &teeTime, nil
}

// Release gives count places back, never exceeding max_players.
func (s *TeeTimeStorage) Release(ctx context.Context, key entity.SlotKey, count int) (*entity.TeeTime, error) {
	var teeTime entity.TeeTime
	err := conn(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.TeeTime{}).
			Where("club = ? AND date = ? AND time = ?", key.Club, entity.DateOf(key.Date), key.Time).
			Updates(map[string]interface{}{
				"available_slots": gorm.Expr("CASE WHEN available_slots + ? > max_players THEN max_players ELSE available_slots + ? END", count, count),
				"is_available":    gorm.Expr("CASE WHEN (CASE WHEN available_slots + ? > max_players THEN max_players ELSE available_slots + ? END) > 0 THEN TRUE ELSE FALSE END", count, count),
				"updated_at":      time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errorz.ErrSlotNotFound
		}
		return tx.Where("club = ? AND date = ? AND time = ?", key.Club, entity.DateOf(key.Date), key.Time).
			First(&teeTime).Error
	})
	if err != nil {
		return nil, s.translate(ctx, err)
	}
	return &teeTime, nil
}

// translate maps driver errors onto domain errors. A missing table during a
// migration surfaces as errorz.ErrInventoryUnavailable.
func (s *TeeTimeStorage) translate(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errorz.ErrSlotNotFound
	case errors.Is(err, errorz.ErrSlotNotFound), errors.Is(err, errorz.ErrInsufficientCapacity):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	if _, inTx := ctx.Value(txKey{}).(*gorm.DB); !inTx && !s.db.WithContext(ctx).Migrator().HasTable(entity.TeeTimesTable) {
		return errorz.ErrInventoryUnavailable
	}
	return err
}
