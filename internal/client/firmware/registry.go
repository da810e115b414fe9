package firmware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/iotadmin/internal/client/client"
	"github.com/dmitrijs2005/iotadmin/internal/client/models"
	"github.com/dmitrijs2005/iotadmin/internal/client/repositories/firmwares"
	"github.com/dmitrijs2005/iotadmin/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/iotadmin/internal/logging"
)

// SessionExpirer is the part of the session the registry needs on a 401.
type SessionExpirer interface {
	Expire(ctx context.Context)
}

// Registry is the client-side view of the server's firmware list. Its
// contents change only through Refresh, Restore and Forget.
type Registry struct {
	mu        sync.RWMutex
	records   []models.Firmware
	fetchedAt time.Time

	api     client.Client
	session SessionExpirer
	cache   firmwares.Repository
	meta    metadata.Repository
	logger  logging.Logger
	now     func() time.Time
}

func NewRegistry(api client.Client, session SessionExpirer, cache firmwares.Repository, meta metadata.Repository, logger logging.Logger) *Registry {
	return &Registry{
		api:     api,
		session: session,
		cache:   cache,
		meta:    meta,
		logger:  logger,
		now:     time.Now,
		records: []models.Firmware{},
	}
}

// Refresh replaces the list with the server's. An authorization failure
// expires the session and drops the list; any other failure keeps the
// previous list and is returned as a non-fatal error.
func (r *Registry) Refresh(ctx context.Context) error {
	list, err := r.api.ListFirmware(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			r.session.Expire(ctx)
			r.Forget(ctx)
			return err
		}
		r.logger.Warn(ctx, "failed to refresh firmware list, keeping previous", "error", err)
		return fmt.Errorf("refresh firmware list: %w", err)
	}

	now := r.now()

	r.mu.Lock()
	r.records = list
	r.fetchedAt = now
	r.mu.Unlock()

	r.logger.Debug(ctx, "firmware list refreshed", "count", len(list))
	r.persist(ctx, list, now)
	return nil
}

func (r *Registry) persist(ctx context.Context, list []models.Firmware, at time.Time) {
	if r.cache != nil {
		if err := r.cache.ReplaceAll(ctx, list); err != nil {
			r.logger.Warn(ctx, "failed to cache firmware list", "error", err)
			return
		}
	}
	if r.meta != nil {
		if err := r.meta.Set(ctx, metadata.KeyLastRefresh, at.UTC().Format(time.RFC3339)); err != nil {
			r.logger.Warn(ctx, "failed to record refresh time", "error", err)
		}
	}
}

// Restore loads the last cached list, used before the first Refresh.
func (r *Registry) Restore(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	list, err := r.cache.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("restore firmware cache: %w", err)
	}

	var at time.Time
	if r.meta != nil {
		if v, ok, err := r.meta.Get(ctx, metadata.KeyLastRefresh); err == nil && ok {
			at, _ = time.Parse(time.RFC3339, v)
		}
	}

	r.mu.Lock()
	r.records = list
	r.fetchedAt = at
	r.mu.Unlock()
	return nil
}

// Forget drops the list from memory and from the cache.
func (r *Registry) Forget(ctx context.Context) {
	r.mu.Lock()
	r.records = []models.Firmware{}
	r.fetchedAt = time.Time{}
	r.mu.Unlock()

	if r.cache != nil {
		if err := r.cache.Clear(ctx); err != nil {
			r.logger.Warn(ctx, "failed to clear firmware cache", "error", err)
		}
	}
	if r.meta != nil {
		if err := r.meta.Delete(ctx, metadata.KeyLastRefresh); err != nil {
			r.logger.Warn(ctx, "failed to clear refresh time", "error", err)
		}
	}
}

func (r *Registry) Records() []models.Firmware {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Firmware, len(r.records))
	copy(out, r.records)
	return out
}

// Find looks a record up by id in the current list.
func (r *Registry) Find(id string) (models.Firmware, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.records {
		if f.ID == id {
			return f, true
		}
	}
	return models.Firmware{}, false
}

func (r *Registry) Active() (models.Firmware, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return models.ActiveFirmware(r.records)
}

// FetchedAt is when the current list was last fetched from the server. Zero
// when unknown.
func (r *Registry) FetchedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fetchedAt
}
