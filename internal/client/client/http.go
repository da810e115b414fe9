package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/iotadmin/internal/client/models"
	"github.com/dmitrijs2005/iotadmin/internal/common"
	"github.com/dmitrijs2005/iotadmin/internal/netx"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

type HTTPClient struct {
	baseURL *url.URL
	timeout time.Duration
	anon    *http.Client
	authed  *http.Client
}

// requestIDTransport stamps every outgoing request with a fresh correlation ID.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(common.RequestIDHeaderName) != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	return t.base.RoundTrip(r)
}

// NewHTTPClient builds a client for the admin API at serverURL. Authenticated
// calls read the bearer token from ts on every request. timeout bounds JSON
// calls; uploads and downloads are bounded only by the caller's context.
func NewHTTPClient(serverURL string, timeout time.Duration, ts oauth2.TokenSource) (*HTTPClient, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", serverURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", serverURL)
	}

	base := requestIDTransport{base: http.DefaultTransport}

	return &HTTPClient{
		baseURL: u,
		timeout: timeout,
		anon:    &http.Client{Transport: base},
		authed:  &http.Client{Transport: &oauth2.Transport{Source: ts, Base: base}},
	}, nil
}

func (c *HTTPClient) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL.JoinPath(escaped...).String()
}

func (c *HTTPClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// mapError converts transport failures and non-2xx responses to the package's
// sentinel errors. resp may be nil.
func (c *HTTPClient) mapError(resp *http.Response, err error) error {
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return ErrUnauthorized
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{StatusCode: resp.StatusCode, Message: decodeMessage(body)}
}

func (c *HTTPClient) do(hc *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, c.mapError(nil, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, c.mapError(resp, nil)
	}
	return resp, nil
}

// call performs an authenticated request without a body and returns the
// response payload.
func (c *HTTPClient) call(ctx context.Context, method, target string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(c.authed, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	return data, nil
}

func (c *HTTPClient) Login(ctx context.Context, identifier, password string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}{identifier, password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("api", "admin"), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(c.anon, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	defer resp.Body.Close()

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Token == "" {
		return "", ErrInvalidCredentials
	}
	return body.Token, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.User, error) {
	data, err := c.call(ctx, http.MethodGet, c.endpoint("api", "auth", "users"))
	if err != nil {
		return nil, err
	}
	return decodeList[models.User](data, "users")
}

func (c *HTTPClient) ListFirmware(ctx context.Context) ([]models.Firmware, error) {
	data, err := c.call(ctx, http.MethodGet, c.endpoint("api", "firmware"))
	if err != nil {
		return nil, err
	}
	return decodeList[models.Firmware](data, "firmwares")
}

func (c *HTTPClient) ActivateFirmware(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodPut, c.endpoint("api", "firmware", id, "activate"))
	return err
}

func (c *HTTPClient) DeleteFirmware(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, c.endpoint("api", "firmware", id))
	return err
}

// UploadFirmware streams a multipart form (version, description, firmware)
// and reports the number of body bytes handed to the transport.
func (c *HTTPClient) UploadFirmware(ctx context.Context, r UploadRequest, progress netx.ProgressFunc) error {
	body, err := netx.NewMultipartBody(
		[][2]string{{"version", r.Version}, {"description", r.Description}},
		netx.MultipartFile{Field: "firmware", Filename: r.Filename, Size: r.Size, Content: r.Content},
	)
	if err != nil {
		return err
	}

	pr := netx.NewProgressReader(body, body.ContentLength, progress)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("api", "firmware", "upload"), io.NopCloser(pr))
	if err != nil {
		return err
	}
	req.ContentLength = body.ContentLength
	req.Header.Set("Content-Type", body.ContentType)

	resp, err := c.do(c.authed, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// DownloadFirmware opens the binary stream of a firmware image.
func (c *HTTPClient) DownloadFirmware(ctx context.Context, id string) (*Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("api", "firmware", "download", id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(c.authed, req)
	if err != nil {
		return nil, err
	}

	return &Download{
		Body:     resp.Body,
		Filename: attachmentName(resp.Header.Get("Content-Disposition"), id),
		Size:     resp.ContentLength,
	}, nil
}

// attachmentName returns the base name announced in Content-Disposition, or
// fallback when there is none.
func attachmentName(header, fallback string) string {
	if header != "" {
		if _, params, err := mime.ParseMediaType(header); err == nil {
			name := strings.TrimSpace(params["filename"])
			name = path.Base(strings.ReplaceAll(name, "\\", "/"))
			if name != "" && name != "." && name != "/" && name != ".." {
				return name
			}
		}
	}
	return fallback
}
