package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/iotadmin/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type errTokenSource struct{ err error }

func (s errTokenSource) Token() (*oauth2.Token, error) { return nil, s.err }

func newTestClient(t *testing.T, h http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL, 5*time.Second, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"}))
	require.NoError(t, err)
	return c
}

func TestNewHTTPClient_RejectsBadURL(t *testing.T) {
	_, err := NewHTTPClient("ftp://example.org", time.Second, nil)
	require.Error(t, err)

	_, err = NewHTTPClient("://bad", time.Second, nil)
	require.Error(t, err)
}

func TestLogin_PostsCredentialsWithoutBearer(t *testing.T) {
	var gotAuth, gotReqID string
	var gotBody map[string]string

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/admin", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get(common.RequestIDHeaderName)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"token":"jwt-abc"}`))
	}))

	tok, err := c.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-abc", tok)
	assert.Empty(t, gotAuth)
	assert.Equal(t, map[string]string{"identifier": "admin", "password": "secret"}, gotBody)

	_, err = uuid.Parse(gotReqID)
	assert.NoError(t, err, "request id must be a uuid")
}

func TestLogin_AnyFailureIsInvalidCredentials(t *testing.T) {
	handlers := map[string]http.HandlerFunc{
		"401": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"nope"}`, http.StatusUnauthorized)
		},
		"500": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"no token": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, h)
			_, err := c.Login(context.Background(), "admin", "bad")
			require.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestListFirmware_SendsBearerAndDecodesBothShapes(t *testing.T) {
	for name, body := range map[string]string{
		"envelope": `{"firmwares":[{"_id":"a","version":"1.0.0","isActive":true}]}`,
		"array":    `[{"_id":"a","version":"1.0.0","isActive":true}]`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/firmware", r.URL.Path)
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				assert.NotEmpty(t, r.Header.Get(common.RequestIDHeaderName))
				_, _ = w.Write([]byte(body))
			}))

			list, err := c.ListFirmware(context.Background())
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "a", list[0].ID)
			assert.True(t, list[0].IsActive)
		})
	}
}

func TestListUsers(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/users", r.URL.Path)
		_, _ = w.Write([]byte(`{"users":[{"_id":"u1","username":"alice"}]}`))
	}))

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status  int
		body    string
		wantIs  error
		wantMsg string
	}{
		{http.StatusUnauthorized, "", ErrUnauthorized, ""},
		{http.StatusForbidden, "", ErrUnauthorized, ""},
		{http.StatusBadGateway, "", ErrUnavailable, ""},
		{http.StatusServiceUnavailable, "", ErrUnavailable, ""},
		{http.StatusGatewayTimeout, "", ErrUnavailable, ""},
		{http.StatusNotFound, `{"message":"Firmware not found"}`, nil, "Firmware not found"},
		{http.StatusInternalServerError, "boom", nil, ""},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			err := c.ActivateFirmware(context.Background(), "x")
			require.Error(t, err)

			if tt.wantIs != nil {
				require.ErrorIs(t, err, tt.wantIs)
				return
			}

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			msg, ok := ServerMessage(err)
			assert.Equal(t, tt.wantMsg != "", ok)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url, time.Second, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"}))
	require.NoError(t, err)

	_, err = c.ListFirmware(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestTokenSourceUnauthorizedSkipsNetwork(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hit = true }))
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL, time.Second, errTokenSource{err: ErrUnauthorized})
	require.NoError(t, err)

	_, err = c.ListFirmware(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, hit)
}

func TestActivateAndDelete_Routes(t *testing.T) {
	var mu sync.Mutex
	var calls []string

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))

	ctx := context.Background()
	require.NoError(t, c.ActivateFirmware(ctx, "65f1"))
	require.NoError(t, c.DeleteFirmware(ctx, "65f1"))

	assert.Equal(t, []string{
		"PUT /api/firmware/65f1/activate",
		"DELETE /api/firmware/65f1",
	}, calls)
}

func TestEndpoint_EscapesIDAndKeepsBasePath(t *testing.T) {
	c, err := NewHTTPClient("https://iot.example.org/admin/", time.Second, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://iot.example.org/admin/api/firmware/a%2Fb/activate",
		c.endpoint("api", "firmware", "a/b", "activate"))
}

func TestUploadFirmware_MultipartAndProgress(t *testing.T) {
	content := strings.Repeat("\x7f", 64<<10)

	var got struct {
		version, description, filename, data string
		contentLength                       int64
	}

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/firmware/upload", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		got.contentLength = r.ContentLength

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)

		mr := multipart.NewReader(bytes.NewReader(raw), params["boundary"])
		for {
			p, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			require.NoError(t, err)
			b, _ := io.ReadAll(p)
			switch p.FormName() {
			case "version":
				got.version = string(b)
			case "description":
				got.description = string(b)
			case "firmware":
				got.filename = p.FileName()
				got.data = string(b)
			}
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"Firmware uploaded"}`))
	}))

	var mu sync.Mutex
	var last, total int64
	err := c.UploadFirmware(context.Background(), UploadRequest{
		Filename:    "fw.bin",
		Size:        int64(len(content)),
		Content:     strings.NewReader(content),
		Version:     "1.2.3",
		Description: "nightly",
	}, func(sent, tot int64) {
		mu.Lock()
		defer mu.Unlock()
		assert.GreaterOrEqual(t, sent, last)
		last, total = sent, tot
	})
	require.NoError(t, err)

	assert.Equal(t, "1.2.3", got.version)
	assert.Equal(t, "nightly", got.description)
	assert.Equal(t, "fw.bin", got.filename)
	assert.Equal(t, content, got.data)
	assert.Equal(t, got.contentLength, total)
	assert.Equal(t, total, last, "progress must reach the full body length")
}

func TestUploadFirmware_ServerMessageSurfaces(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Version already exists"}`))
	}))

	err := c.UploadFirmware(context.Background(), UploadRequest{
		Filename: "fw.bin", Size: 3, Content: strings.NewReader("abc"), Version: "1",
	}, nil)

	msg, ok := ServerMessage(err)
	require.True(t, ok)
	assert.Equal(t, "Version already exists", msg)
}

func TestDownloadFirmware_StreamsBodyAndName(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/firmware/download/f1", r.URL.Path)
		w.Header().Set("Content-Disposition", `attachment; filename="fw_v2.bin"`)
		_, _ = w.Write([]byte("BINARY"))
	}))

	dl, err := c.DownloadFirmware(context.Background(), "f1")
	require.NoError(t, err)
	defer dl.Body.Close()

	b, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "BINARY", string(b))
	assert.Equal(t, "fw_v2.bin", dl.Filename)
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "a.bin", attachmentName(`attachment; filename="a.bin"`, "id"))
	assert.Equal(t, "evil.bin", attachmentName(`attachment; filename="../../evil.bin"`, "id"))
	assert.Equal(t, "x.hex", attachmentName(`attachment; filename="C:\\tmp\\x.hex"`, "id"))
	assert.Equal(t, "id", attachmentName(`attachment; filename=".."`, "id"))
	assert.Equal(t, "id", attachmentName("", "id"))
	assert.Equal(t, "id", attachmentName("garbage;;", "id"))
}
