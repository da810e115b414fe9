package firmware

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/iotadmin/internal/client/client"
	"github.com/dmitrijs2005/iotadmin/internal/client/models"
	"github.com/dmitrijs2005/iotadmin/internal/cryptox"
	"github.com/dmitrijs2005/iotadmin/internal/logging"
)

// Controller issues state-changing requests against single firmware records.
// It never edits the list itself; every success is followed by a Refresh.
type Controller struct {
	mu          sync.Mutex
	confirmOpen bool
	candidate   *models.Firmware
	deleting    bool

	api      client.Client
	session  Expirer
	registry Refresher
	board    *Board
	sink     Sink
	logger   logging.Logger

	downloads sync.WaitGroup
}

func NewController(api client.Client, session Expirer, registry Refresher, board *Board, sink Sink, logger logging.Logger) *Controller {
	return &Controller{
		api:      api,
		session:  session,
		registry: registry,
		board:    board,
		sink:     sink,
		logger:   logger,
	}
}

// Activate asks the server to make id the active firmware.
func (c *Controller) Activate(ctx context.Context, id string) error {
	if err := c.api.ActivateFirmware(ctx, id); err != nil {
		c.board.Error(MsgActivateFailed)
		c.logger.Error(ctx, "failed to activate firmware", "id", id, "error", err)
		return c.session.Check(ctx, fmt.Errorf("activate firmware %s: %w", id, err))
	}

	c.logger.Info(ctx, "firmware activated", "id", id)
	c.board.Success(MsgActivated)
	c.refresh(ctx, "activate")
	return nil
}

// RequestDelete opens the confirmation step for rec.
func (c *Controller) RequestDelete(rec models.Firmware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmOpen = true
	c.candidate = &rec
}

// CancelDelete closes the confirmation step.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirmOpen = false
	c.candidate = nil
}

// PendingDelete returns the record awaiting confirmation, if any.
func (c *Controller) PendingDelete() (models.Firmware, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.confirmOpen || c.candidate == nil {
		return models.Firmware{}, false
	}
	return *c.candidate, true
}

func (c *Controller) Deleting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleting
}

// ConfirmDelete deletes the pending candidate. Without an open confirmation it
// does nothing and returns ErrNoPendingDelete. On failure the confirmation
// stays open for a retry or cancel.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if !c.confirmOpen || c.candidate == nil {
		c.mu.Unlock()
		return ErrNoPendingDelete
	}
	if c.deleting {
		c.mu.Unlock()
		return ErrDeleteInFlight
	}
	rec := *c.candidate
	c.deleting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.deleting = false
		c.mu.Unlock()
	}()

	if err := c.api.DeleteFirmware(ctx, rec.ID); err != nil {
		c.board.Error(MsgDeleteFailed)
		c.logger.Error(ctx, "failed to delete firmware", "id", rec.ID, "error", err)
		return c.session.Check(ctx, fmt.Errorf("delete firmware %s: %w", rec.ID, err))
	}

	c.logger.Info(ctx, "firmware deleted", "id", rec.ID, "version", rec.Version)
	c.board.Success(MsgDeleted)

	c.mu.Lock()
	c.confirmOpen = false
	c.candidate = nil
	c.mu.Unlock()

	c.refresh(ctx, "delete")
	return nil
}

func (c *Controller) refresh(ctx context.Context, after string) {
	if err := c.registry.Refresh(ctx); err != nil {
		c.logger.Warn(ctx, "refresh after "+after+" failed", "error", err)
	}
}

// Download fetches the firmware image into the sink in the background. It
// changes no local state; failures are only logged.
func (c *Controller) Download(ctx context.Context, id string) {
	ctx = context.WithoutCancel(ctx)

	c.downloads.Add(1)
	go func() {
		defer c.downloads.Done()

		dl, err := c.api.DownloadFirmware(ctx, id)
		if err != nil {
			c.logger.Error(ctx, "firmware download failed", "id", id, "error", c.session.Check(ctx, err))
			return
		}
		defer dl.Body.Close()

		stored, err := c.sink.Save(ctx, dl.Filename, dl.Size, dl.Body)
		if err != nil {
			c.logger.Error(ctx, "failed to store downloaded firmware", "id", id, "error", err)
			return
		}
		c.logger.Info(ctx, "firmware downloaded",
			"id", id, "location", stored.Location, "size", stored.Size, "sha256", cryptox.ShortDigest(stored.SHA256))
	}()
}

// Wait blocks until every background download has finished.
func (c *Controller) Wait() {
	c.downloads.Wait()
}
