package firmware

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/iotadmin/internal/client/client"
	"github.com/dmitrijs2005/iotadmin/internal/logging"
)

// Refresher re-fetches the authoritative firmware list.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Expirer is the part of the session that reacts to authorization failures.
type Expirer interface {
	Check(ctx context.Context, err error) error
}

// UploadState is a snapshot of the upload form.
type UploadState struct {
	Version     string
	Description string
	InFlight    bool
	Progress    int
}

type Uploader struct {
	mu          sync.Mutex
	version     string
	description string
	inFlight    bool

	intake   *Intake
	progress *Progress
	board    *Board
	api      client.Client
	session  Expirer
	registry Refresher
	logger   logging.Logger
}

func NewUploader(api client.Client, session Expirer, registry Refresher, intake *Intake, progress *Progress, board *Board, logger logging.Logger) *Uploader {
	return &Uploader{
		api:      api,
		session:  session,
		registry: registry,
		intake:   intake,
		progress: progress,
		board:    board,
		logger:   logger,
	}
}

// SetVersion edits the version field. Fields are locked during a transfer.
func (u *Uploader) SetVersion(v string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inFlight {
		return ErrUploadInFlight
	}
	u.version = v
	return nil
}

func (u *Uploader) SetDescription(d string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inFlight {
		return ErrUploadInFlight
	}
	u.description = d
	return nil
}

// CanSubmit mirrors the submit control: enabled only with a selection and no
// transfer in flight.
func (u *Uploader) CanSubmit() bool {
	u.mu.Lock()
	inFlight := u.inFlight
	u.mu.Unlock()
	return !inFlight && u.intake.Selected() != nil
}

func (u *Uploader) InFlight() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.inFlight
}

func (u *Uploader) State() UploadState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return UploadState{
		Version:     u.version,
		Description: u.description,
		InFlight:    u.inFlight,
		Progress:    u.progress.Value(),
	}
}

// begin checks preconditions and claims the in-flight flag.
func (u *Uploader) begin() (*Artifact, string, string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.inFlight {
		return nil, "", "", ErrUploadInFlight
	}
	a := u.intake.Selected()
	if a == nil {
		return nil, "", "", ErrNoFileSelected
	}
	version := strings.TrimSpace(u.version)
	if version == "" {
		return nil, "", "", ErrVersionRequired
	}

	u.inFlight = true
	u.intake.setLocked(true)
	return a, version, u.description, nil
}

func (u *Uploader) finish() {
	u.mu.Lock()
	u.inFlight = false
	u.intake.setLocked(false)
	u.mu.Unlock()
}

// Upload transmits the selected artifact with the form metadata. Failed
// preconditions publish a notice and never reach the network.
func (u *Uploader) Upload(ctx context.Context) error {
	a, version, description, err := u.begin()
	switch err {
	case nil:
	case ErrUploadInFlight:
		u.board.Error(MsgUploadInFlight)
		return err
	case ErrNoFileSelected:
		u.board.Error(MsgNoFileSelected)
		return err
	case ErrVersionRequired:
		u.board.Error(MsgVersionRequired)
		return err
	default:
		return err
	}
	defer u.finish()

	u.progress.Reset()
	u.board.Clear()

	log := u.logger.With("file", a.Name, "version", version, "size", a.Size)

	rc, err := a.Open()
	if err != nil {
		u.board.Error(MsgUploadFailed)
		log.Error(ctx, "failed to open firmware file", "error", err)
		return fmt.Errorf("open %s: %w", a.Name, err)
	}
	defer rc.Close()

	log.Info(ctx, "uploading firmware")

	err = u.api.UploadFirmware(ctx, client.UploadRequest{
		Filename:    a.Name,
		Size:        a.Size,
		Content:     rc,
		Version:     version,
		Description: description,
	}, u.progress.Observe)
	if err != nil {
		msg := MsgUploadFailed
		if m, ok := client.ServerMessage(err); ok {
			msg = m
		}
		u.board.Error(msg)
		log.Error(ctx, "firmware upload failed", "error", err)
		return u.session.Check(ctx, fmt.Errorf("upload firmware: %w", err))
	}

	log.Info(ctx, "firmware uploaded")
	u.board.Success(MsgUploadSucceeded)

	u.intake.Remove()
	u.mu.Lock()
	u.version = ""
	u.description = ""
	u.mu.Unlock()
	u.progress.Reset()

	if err := u.registry.Refresh(ctx); err != nil {
		log.Warn(ctx, "refresh after upload failed", "error", err)
	}
	return nil
}
