package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/tagnotes/internal/auth"
)

type stubRepo struct {
	byUsernameFn func(ctx context.Context, username string) (User, string, error)
	byTokenFn    func(ctx context.Context, token string) (User, error)
	createFn     func(ctx context.Context, username, hash, token string) (User, error)
}

func (s stubRepo) ByUsername(ctx context.Context, username string) (User, string, error) {
	return s.byUsernameFn(ctx, username)
}

func (s stubRepo) ByToken(ctx context.Context, token string) (User, error) {
	return s.byTokenFn(ctx, token)
}

func (s stubRepo) Create(ctx context.Context, username, hash, token string) (User, error) {
	return s.createFn(ctx, username, hash, token)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid username", func(t *testing.T) {
		svc := New(stubRepo{})
		_, err := svc.Register(ctx, "x", "pass")
		require.ErrorIs(t, err, ErrInvalidUsername)

		_, err = svc.Register(ctx, "has spaces", "pass")
		require.ErrorIs(t, err, ErrInvalidUsername)
	})

	t.Run("empty password", func(t *testing.T) {
		svc := New(stubRepo{})
		_, err := svc.Register(ctx, "alice", "")
		require.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("already exists", func(t *testing.T) {
		svc := New(stubRepo{
			byUsernameFn: func(_ context.Context, username string) (User, string, error) {
				return User{ID: 7, Username: username}, "h", nil
			},
		})
		_, err := svc.Register(ctx, "alice", "pass")
		require.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("repo error on lookup", func(t *testing.T) {
		boom := errors.New("boom")
		svc := New(stubRepo{
			byUsernameFn: func(context.Context, string) (User, string, error) {
				return User{}, "", boom
			},
		})
		_, err := svc.Register(ctx, "alice", "pass")
		require.ErrorIs(t, err, boom)
	})

	t.Run("create success after not found", func(t *testing.T) {
		svc := New(stubRepo{
			byUsernameFn: func(context.Context, string) (User, string, error) {
				return User{}, "", ErrNotFound
			},
			createFn: func(_ context.Context, username, hash, token string) (User, error) {
				require.Equal(t, "alice", username)
				require.True(t, auth.VerifyPassword(hash, "pass"))
				require.NotEmpty(t, token)
				return User{ID: 100, Username: username, Token: token}, nil
			},
		})
		u, err := svc.Register(ctx, " alice ", "pass")
		require.NoError(t, err)
		require.Equal(t, int64(100), u.ID)
		require.NotEmpty(t, u.Token)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := auth.HashPassword("pass")
	require.NoError(t, err)

	repo := stubRepo{
		byUsernameFn: func(_ context.Context, username string) (User, string, error) {
			if username != "alice" {
				return User{}, "", ErrNotFound
			}
			return User{ID: 1, Username: "alice", Token: "tok"}, hash, nil
		},
	}
	svc := New(repo)

	t.Run("ok", func(t *testing.T) {
		u, err := svc.Login(ctx, " alice ", "pass")
		require.NoError(t, err)
		require.Equal(t, "tok", u.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "nope")
		require.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("unknown user indistinguishable from wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "mallory", "pass")
		require.ErrorIs(t, err, ErrBadCredentials)
	})
}

func TestService_Identify(t *testing.T) {
	ctx := context.Background()
	svc := New(stubRepo{
		byTokenFn: func(_ context.Context, token string) (User, error) {
			if token == "tok" {
				return User{ID: 5, Username: "alice"}, nil
			}
			return User{}, ErrNotFound
		},
	})

	id, err := svc.Identify(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, auth.Identity{ID: 5, Username: "alice"}, id)

	_, err = svc.Identify(ctx, "bad")
	require.ErrorIs(t, err, ErrNotFound)
}
