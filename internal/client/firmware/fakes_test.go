package firmware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/dmitrijs2005/iotadmin/internal/client/client"
	"github.com/dmitrijs2005/iotadmin/internal/client/models"
	"github.com/dmitrijs2005/iotadmin/internal/netx"
)

// fakeAPI is a scriptable client.Client that records every call.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	list    []models.Firmware
	listErr error

	uploadErr     error
	uploadReports [][2]int64
	uploadGate    chan struct{}
	uploadStarted chan struct{}
	uploaded      []client.UploadRequest
	uploadedBytes []string

	activateErr error
	deleteErr   error
	deleteGate  chan struct{}

	downloadBody string
	downloadName string
	downloadErr  error
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeAPI) Login(ctx context.Context, identifier, password string) (string, error) {
	f.record("login")
	return "", errors.New("not used")
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]models.User, error) {
	f.record("users")
	return nil, nil
}

func (f *fakeAPI) ListFirmware(ctx context.Context) ([]models.Firmware, error) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Firmware{}, f.list...), nil
}

func (f *fakeAPI) UploadFirmware(ctx context.Context, req client.UploadRequest, progress netx.ProgressFunc) error {
	f.record("upload")
	if f.uploadStarted != nil {
		close(f.uploadStarted)
	}
	if f.uploadGate != nil {
		<-f.uploadGate
	}

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, req.Content)

	f.mu.Lock()
	f.uploaded = append(f.uploaded, req)
	f.uploadedBytes = append(f.uploadedBytes, buf.String())
	f.mu.Unlock()

	for _, r := range f.uploadReports {
		progress(r[0], r[1])
	}
	return f.uploadErr
}

func (f *fakeAPI) ActivateFirmware(ctx context.Context, id string) error {
	f.record("activate " + id)
	return f.activateErr
}

func (f *fakeAPI) DeleteFirmware(ctx context.Context, id string) error {
	f.record("delete " + id)
	if f.deleteGate != nil {
		<-f.deleteGate
	}
	return f.deleteErr
}

func (f *fakeAPI) DownloadFirmware(ctx context.Context, id string) (*client.Download, error) {
	f.record("download " + id)
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return &client.Download{
		Body:     io.NopCloser(bytes.NewBufferString(f.downloadBody)),
		Filename: f.downloadName,
		Size:     int64(len(f.downloadBody)),
	}, nil
}

// fakeSession counts expiries the way session.Session would trigger them.
type fakeSession struct {
	mu      sync.Mutex
	expired int
}

func (s *fakeSession) Expire(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired++
}

func (s *fakeSession) Check(ctx context.Context, err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		s.Expire(ctx)
	}
	return err
}

func (s *fakeSession) Expired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expired
}

type countingRefresher struct {
	mu  sync.Mutex
	n   int
	err error
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	return r.err
}

func (r *countingRefresher) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

func memArtifact(name, content string) *Artifact {
	return NewArtifact(name, int64(len(content)), SourcePicker, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewBufferString(content)), nil
	})
}
