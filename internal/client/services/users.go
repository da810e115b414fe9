package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/iotadmin/internal/client/client"
	"github.com/dmitrijs2005/iotadmin/internal/client/models"
)

// SessionChecker expires the session on authorization failures.
type SessionChecker interface {
	Check(ctx context.Context, err error) error
}

// UserService lists the platform's registered users.
type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	Summarize(users []models.User) models.UserStats
}

type userService struct {
	client  client.Client
	session SessionChecker
	now     func() time.Time
}

func NewUserService(client client.Client, session SessionChecker) UserService {
	return &userService{client: client, session: session, now: time.Now}
}

// List fetches the users. A 401 expires the session.
func (s *userService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.client.ListUsers(ctx)
	if err != nil {
		return nil, s.session.Check(ctx, fmt.Errorf("list users: %w", err))
	}
	return users, nil
}

func (s *userService) Summarize(users []models.User) models.UserStats {
	return models.Summarize(users, s.now())
}
