package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/iotadmin/internal/client/models"
	"github.com/dmitrijs2005/iotadmin/internal/netx"
)

// UploadRequest is one firmware upload: the file stream and its metadata.
type UploadRequest struct {
	Filename    string
	Size        int64
	Content     io.Reader
	Version     string
	Description string
}

// Download is an open firmware stream. The caller must close Body.
type Download struct {
	Body     io.ReadCloser
	Filename string
	Size     int64
}

type Client interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListFirmware(ctx context.Context) ([]models.Firmware, error)
	UploadFirmware(ctx context.Context, req UploadRequest, progress netx.ProgressFunc) error
	ActivateFirmware(ctx context.Context, id string) error
	DeleteFirmware(ctx context.Context, id string) error
	DownloadFirmware(ctx context.Context, id string) (*Download, error)
}
