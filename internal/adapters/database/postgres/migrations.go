package postgres

import (
	"gorm.io/gorm"

	"github.com/portrush/teesheet/internal/domain/entity"
)

// Migrations is a list of all gorm migrations for the database. tee_times is
// not listed; MigrationService and SeedService create it.
var Migrations = []interface{}{
	&entity.BlockedDate{},
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Migrations...)
}
