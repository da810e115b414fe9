// Package services contains application services for the iotadmin client.
// This file defines the authentication service: exchanging operator
// credentials for a session token and tearing the session down again.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/iotadmin/internal/client/client"
	"github.com/dmitrijs2005/iotadmin/internal/common"
)

// SessionStarter is the part of the session the auth service drives.
type SessionStarter interface {
	Begin(ctx context.Context, token string) error
	End(ctx context.Context) error
}

// Forgetter drops data that belongs to the logged-out operator.
type Forgetter interface {
	Forget(ctx context.Context)
}

var ErrMissingCredentials = errors.New("identifier and password are required")

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: exchange identifier/password for a token and start the session.
//     Any server-side failure is reported as client.ErrInvalidCredentials.
//   - Logout: end the session and forget operator-scoped cached data.
type AuthService interface {
	Login(ctx context.Context, identifier string, password []byte) error
	Logout(ctx context.Context) error
}

type authService struct {
	client  client.Client
	session SessionStarter
	forget  []Forgetter
}

// NewAuthService constructs an AuthService. forget lists caches cleared on
// logout.
func NewAuthService(client client.Client, session SessionStarter, forget ...Forgetter) AuthService {
	return &authService{client: client, session: session, forget: forget}
}

// Login wipes password once it has been sent.
func (a *authService) Login(ctx context.Context, identifier string, password []byte) error {
	defer common.WipeByteArray(password)

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || len(password) == 0 {
		return ErrMissingCredentials
	}

	token, err := a.client.Login(ctx, identifier, string(password))
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	if err := a.session.Begin(ctx, token); err != nil {
		return fmt.Errorf("session start error: %w", err)
	}
	return nil
}

func (a *authService) Logout(ctx context.Context) error {
	for _, f := range a.forget {
		f.Forget(ctx)
	}
	return a.session.End(ctx)
}
