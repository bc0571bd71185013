package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"example.com/tagnotes/internal/auth"
)

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidUsername = errors.New("invalid username")
	ErrAlreadyExists   = errors.New("already exists")
	ErrBadCredentials  = errors.New("bad credentials")
)

// Repo is the users storage dependency, stubbed in unit tests.
type Repo interface {
	ByUsername(ctx context.Context, username string) (User, string, error) // user, password hash
	ByToken(ctx context.Context, token string) (User, error)
	Create(ctx context.Context, username, passwordHash, token string) (User, error)
}

// Service contains account logic independent from transport/database.
type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{repo: repo}
}

// Register creates a new account and returns it with its API token.
func (s *Service) Register(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if !isUsernameOK(username) {
		return User{}, ErrInvalidUsername
	}
	if password == "" {
		return User{}, ErrBadCredentials
	}

	// Check existing. The unique constraint still backstops the race:
	// Repo.Create maps a duplicate insert to ErrAlreadyExists.
	if _, _, err := s.repo.ByUsername(ctx, username); err == nil {
		return User{}, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, username, hash, uuid.NewString())
}

// Login verifies the password and returns the account with its token.
func (s *Service) Login(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	u, hash, err := s.repo.ByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, err
	}
	if !auth.VerifyPassword(hash, password) {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

// Identify implements auth.Verifier: API token to request identity.
func (s *Service) Identify(ctx context.Context, token string) (auth.Identity, error) {
	u, err := s.repo.ByToken(ctx, token)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{ID: u.ID, Username: u.Username}, nil
}

func isUsernameOK(s string) bool {
	if len(s) < 3 || len(s) > 64 {
		return false
	}
	for _, r := range s {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.'
		if !ok {
			return false
		}
	}
	return true
}
