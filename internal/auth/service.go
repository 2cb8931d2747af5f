// Package auth registers users and verifies their credentials.  Session
// bookkeeping (who is logged in) lives in the session package.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/cafe-finder/internal/model"
	"github.com/iliyamo/cafe-finder/internal/repository"
)

// ErrInvalidCredentials is the normal negative outcome of Authenticate.  It
// covers both an unknown username and a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore is the slice of the user repository the service needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// Profile carries the signup fields other than the password.
type Profile struct {
	Username    string
	Email       string
	FirstName   string
	LastName    string
	Description string
	ImageURL    string
}

type Service struct {
	users UserStore
	cost  int
}

func NewService(users UserStore, bcryptCost int) *Service {
	return &Service{users: users, cost: bcryptCost}
}

// Register hashes password and stores a new non-admin user.  The insert is
// the commit point: a taken username returns repository.ErrUsernameTaken
// and leaves the store unchanged.
func (s *Service) Register(ctx context.Context, p Profile, password string) (*model.User, error) {
	hash, err := hashPassword(password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		Username:       p.Username,
		Email:          p.Email,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Description:    p.Description,
		ImageURL:       p.ImageURL,
		HashedPassword: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate returns the user whose username and password match, or
// ErrInvalidCredentials.  Store failures are returned unchanged.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := checkPassword(u.HashedPassword, password)
	if err != nil {
		return nil, fmt.Errorf("verify password for %q: %w", username, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
