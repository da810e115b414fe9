package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/iotadmin/internal/client/client"
	"github.com/dmitrijs2005/iotadmin/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Screen names a top-level view of the CLI.
type Screen string

const (
	ScreenEntry    Screen = "login"
	ScreenUsers    Screen = "users"
	ScreenFirmware Screen = "firmware"
)

// Navigator is the part of the screen router the session needs. Redirect
// replaces the navigation history with a single screen.
type Navigator interface {
	Redirect(to Screen)
}

var ErrNoToken = fmt.Errorf("no session token: %w", client.ErrUnauthorized)

type Session struct {
	mu     sync.RWMutex
	token  string
	store  Store
	nav    Navigator
	closed []func()
	logger logging.Logger
}

func New(store Store, logger logging.Logger) *Session {
	return &Session{store: store, logger: logger}
}

// SetNavigator attaches the router used by End, Expire and Guard.
func (s *Session) SetNavigator(nav Navigator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav = nav
}

// OnClose registers fn to run whenever the session ends or expires, after
// the token is gone and before the redirect.
func (s *Session) OnClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, fn)
}

func (s *Session) closeHooks() []func() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]func(){}, s.closed...)
}

func (s *Session) navigator() Navigator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nav
}

// Restore loads a previously persisted token.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	s.mu.Lock()
	s.token = strings.TrimSpace(token)
	s.mu.Unlock()
	return nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is present. It says nothing about
// whether the server will accept it.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Begin stores a freshly issued token.
func (s *Session) Begin(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	if err := s.store.Save(ctx, token); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *Session) clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	for _, fn := range s.closeHooks() {
		fn()
	}

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// End destroys the token on operator request and returns to the entry screen.
func (s *Session) End(ctx context.Context) error {
	err := s.clear(ctx)
	if nav := s.navigator(); nav != nil {
		nav.Redirect(ScreenEntry)
	}
	return err
}

// Expire is the unauthorized path: the server rejected the token.
func (s *Session) Expire(ctx context.Context) {
	if err := s.clear(ctx); err != nil {
		s.logger.Error(ctx, "failed to clear expired session", "error", err)
	}
	s.logger.Warn(ctx, "session expired, please log in again")
	if nav := s.navigator(); nav != nil {
		nav.Redirect(ScreenEntry)
	}
}

// Check expires the session when err is an authorization failure. err is
// returned unchanged.
func (s *Session) Check(ctx context.Context, err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		s.Expire(ctx)
	}
	return err
}

// Guard runs render only while a token is present; otherwise it redirects to
// the entry screen and renders nothing.
func (s *Session) Guard(render func()) bool {
	if !s.Authenticated() {
		if nav := s.navigator(); nav != nil {
			nav.Redirect(ScreenEntry)
		}
		return false
	}
	render()
	return true
}

// TokenSource exposes the current token to an oauth2.Transport. It is read on
// every request, so a logout or expiry takes effect immediately.
func (s *Session) TokenSource() oauth2.TokenSource {
	return tokenSource{s: s}
}

type tokenSource struct {
	s *Session
}

func (t tokenSource) Token() (*oauth2.Token, error) {
	token := t.s.Token()
	if token == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// Claims is what the prompt shows about the operator.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Claims decodes the token payload without verifying the signature. It is
// for display only and never gates access.
func (s *Session) Claims() (Claims, bool) {
	token := s.Token()
	if token == "" {
		return Claims{}, false
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, false
	}

	var c Claims
	for _, key := range []string{"username", "identifier", "email", "sub", "id"} {
		if v, ok := mc[key].(string); ok && v != "" {
			c.Subject = v
			break
		}
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, true
}
