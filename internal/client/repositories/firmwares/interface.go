package firmwares

import (
	"context"

	"github.com/dmitrijs2005/iotadmin/internal/client/models"
)

// Repository stores a snapshot of the server's firmware list.
type Repository interface {
	// ReplaceAll atomically swaps the cached list for list, preserving order.
	ReplaceAll(ctx context.Context, list []models.Firmware) error

	// GetAll returns the cached list in server order. An empty cache yields an
	// empty, non-nil slice.
	GetAll(ctx context.Context) ([]models.Firmware, error)

	// Clear removes every cached record.
	Clear(ctx context.Context) error
}
