package db

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/vinceerrol/vuefrontend/internal/models"
)

func Open(dsn string) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(time.Minute * 5)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)

	// Ensure connection is alive at startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := gormDB.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}

	if err := Migrate(gormDB); err != nil {
		return nil, err
	}

	return gormDB, nil
}

// LockForUpdate takes a FOR UPDATE row lock so read-modify-write sequences
// serialize. sqlite rejects the clause and has a single writer anyway, so it
// is skipped there.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Migrate creates the schema and the single-active backstop: a partial unique
// index that rejects a second active map even if two activations race past the
// application-level transaction.
func Migrate(gormDB *gorm.DB) error {
	err := gormDB.AutoMigrate(
		&models.Map{},
		&models.Building{},
		&models.Faculty{},
		&models.Admin{},
		&models.AdminToken{},
	)
	if err != nil {
		return err
	}
	return gormDB.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_maps_single_active ON maps (is_active) WHERE is_active`,
	).Error
}
