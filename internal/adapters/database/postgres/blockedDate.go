package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/portrush/teesheet/internal/domain/entity"
)

type BlockedDateStorage struct {
	db *gorm.DB
}

func NewBlockedDateStorage(db *gorm.DB) *BlockedDateStorage {
	return &BlockedDateStorage{
		db: db,
	}
}

// Create blocks a date. Blocking an already blocked date updates its reason.
func (s *BlockedDateStorage) Create(ctx context.Context, blocked *entity.BlockedDate) (*entity.BlockedDate, error) {
	blocked.Date = entity.DateOf(blocked.Date)
	err := conn(ctx, s.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "club"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"reason"}),
	}).Create(blocked).Error
	return blocked, err
}

// Dates returns the blocked dates of club between from and to inclusive.
func (s *BlockedDateStorage) Dates(ctx context.Context, club string, from, to time.Time) (map[time.Time]bool, error) {
	var blocked []entity.BlockedDate
	err := conn(ctx, s.db).
		Where("club = ? AND date >= ? AND date <= ?", club, entity.DateOf(from), entity.DateOf(to)).
		Find(&blocked).Error
	if err != nil {
		return nil, err
	}
	dates := make(map[time.Time]bool, len(blocked))
	for _, b := range blocked {
		dates[entity.DateOf(b.Date)] = true
	}
	return dates, nil
}
