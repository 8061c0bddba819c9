package postgres

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/portrush/teesheet/internal/domain/common/errorz"
)

// SchemaStorage answers catalog questions about tables. It never writes.
type SchemaStorage struct {
	db *gorm.DB
}

func NewSchemaStorage(db *gorm.DB) *SchemaStorage {
	return &SchemaStorage{
		db: db,
	}
}

// Ping fails with errorz.ErrConnectivity when the database cannot be reached.
func (s *SchemaStorage) Ping(ctx context.Context) error {
	var one int
	if err := conn(ctx, s.db).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return errorz.Connectivity(err)
	}
	return nil
}

func (s *SchemaStorage) HasTable(ctx context.Context, table string) (bool, error) {
	return conn(ctx, s.db).Migrator().HasTable(table), nil
}

// Columns lists the column names of table in sorted order.
func (s *SchemaStorage) Columns(ctx context.Context, table string) ([]string, error) {
	types, err := conn(ctx, s.db).Migrator().ColumnTypes(table)
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(types))
	for _, t := range types {
		columns = append(columns, t.Name())
	}
	sort.Strings(columns)
	return columns, nil
}

func (s *SchemaStorage) Count(ctx context.Context, table string) (int64, error) {
	var count int64
	err := conn(ctx, s.db).Table(table).Count(&count).Error
	return count, err
}
