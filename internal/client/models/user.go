package models

import (
	"time"

	"github.com/dmitrijs2005/iotadmin/internal/common"
)

// NewUserWindow is how recent a registration must be to count as new.
const NewUserWindow = 7 * 24 * time.Hour

// User is a registered platform user as returned by GET /api/auth/users.
type User struct {
	ID               string    `json:"_id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	UUID             string    `json:"uuid"`
	RegistrationDate time.Time `json:"registrationDate"`
}

// UserList is the canonical wire envelope of GET /api/auth/users.
type UserList struct {
	Users []User `json:"users"`
}

// ShortUUID is the abbreviated device-facing identifier shown in tables.
func (u User) ShortUUID() string {
	if u.UUID == "" {
		return ""
	}
	return common.Truncate(u.UUID, 8, "...")
}

// IsNew reports whether the user registered within NewUserWindow before now.
func (u User) IsNew(now time.Time) bool {
	if u.RegistrationDate.IsZero() {
		return false
	}
	age := now.Sub(u.RegistrationDate)
	return age >= 0 && age < NewUserWindow
}

// UserStats is the summary shown above the users table.
type UserStats struct {
	Total       int
	NewLastWeek int
}

func Summarize(users []User, now time.Time) UserStats {
	s := UserStats{Total: len(users)}
	for _, u := range users {
		if u.IsNew(now) {
			s.NewLastWeek++
		}
	}
	return s
}
