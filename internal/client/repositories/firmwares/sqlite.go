package firmwares

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/iotadmin/internal/client/models"
	"github.com/dmitrijs2005/iotadmin/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, list []models.Firmware) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM firmware_cache`); err != nil {
			return fmt.Errorf("failed to clear firmware cache: %w", err)
		}

		query := `INSERT INTO firmware_cache
			(id, position, version, filename, original_name, description, size, created_at, is_active, downloads)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		for i, f := range list {
			createdAt := ""
			if !f.CreatedAt.IsZero() {
				createdAt = f.CreatedAt.UTC().Format(time.RFC3339Nano)
			}
			_, err := tx.ExecContext(ctx, query,
				f.ID, i, f.Version, f.Filename, f.OriginalName, f.Description,
				f.Size, createdAt, f.IsActive, f.Downloads)
			if err != nil {
				return fmt.Errorf("failed to cache firmware %s: %w", f.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Firmware, error) {
	query := `SELECT id, version, filename, original_name, description, size, created_at, is_active, downloads
		FROM firmware_cache ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select cached firmware: %w", err)
	}
	defer rows.Close()

	result := []models.Firmware{}
	for rows.Next() {
		var (
			f         models.Firmware
			createdAt string
		)
		if err := rows.Scan(&f.ID, &f.Version, &f.Filename, &f.OriginalName, &f.Description,
			&f.Size, &createdAt, &f.IsActive, &f.Downloads); err != nil {
			return nil, fmt.Errorf("failed to scan cached firmware: %w", err)
		}
		if createdAt != "" {
			if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
				f.CreatedAt = ts
			}
		}
		result = append(result, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cached firmware: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM firmware_cache`); err != nil {
		return fmt.Errorf("failed to clear firmware cache: %w", err)
	}
	return nil
}
