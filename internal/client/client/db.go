package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/iotadmin/internal/client/migrations"
	"github.com/dmitrijs2005/iotadmin/internal/client/repositories/firmwares"
	"github.com/dmitrijs2005/iotadmin/internal/client/repositories/metadata"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	Metadata  metadata.Repository
	Firmwares firmwares.Repository
}

func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Metadata:  metadata.NewSQLiteRepository(db),
		Firmwares: firmwares.NewSQLiteRepository(db),
	}
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the local SQLite database at dsn and applies the
// embedded migrations.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate local database: %w", err)
	}

	return db, nil
}
