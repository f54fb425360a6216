// Package pgtest starts a throwaway PostgreSQL container with the production schema for
// integration tests.
package pgtest

import (
	"context"
	"time"

	"turbodelivery/internal/adapters/out/postgres/migrations"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB        *gorm.DB
	DSN       string
	container *postgres.PostgresContainer
}

// Start runs postgres:15-alpine, applies the migrations and connects GORM to it.
func Start(ctx context.Context) (*Database, error) {
	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	database := &Database{container: container}

	database.DSN, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, database.fail(err)
	}

	if err = migrations.Up(ctx, database.DSN); err != nil {
		return nil, database.fail(err)
	}

	database.DB, err = gorm.Open(gormpostgres.Open(database.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, database.fail(err)
	}

	return database, nil
}

// Truncate empties every table.
func (d *Database) Truncate() error {
	return d.DB.Exec("TRUNCATE TABLE orders, couriers").Error
}

func (d *Database) Terminate(ctx context.Context) error {
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return d.container.Terminate(ctx)
}

func (d *Database) fail(err error) error {
	_ = d.container.Terminate(context.Background())
	return err
}
