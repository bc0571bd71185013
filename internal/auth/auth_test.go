package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	require.True(t, VerifyPassword(hash, "s3cret"))
	require.False(t, VerifyPassword(hash, "wrong"))

	// Two hashes of the same password differ (random salt) but both verify.
	hash2, err := HashPassword("s3cret")
	require.NoError(t, err)
	require.NotEqual(t, hash, hash2)
	require.True(t, VerifyPassword(hash2, "s3cret"))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	require.Error(t, err)
}

func TestVerifyPassword_Malformed(t *testing.T) {
	for _, phc := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=3$short",
		"$bcrypt$v=19$m=65536,t=3,p=1$c2FsdA$c3Vt",
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$c3Vt",
	} {
		require.False(t, VerifyPassword(phc, "whatever"), "phc=%q", phc)
	}
}

type stubVerifier struct {
	identifyFn func(ctx context.Context, token string) (Identity, error)
}

func (s stubVerifier) Identify(ctx context.Context, token string) (Identity, error) {
	return s.identifyFn(ctx, token)
}

func TestMiddleware(t *testing.T) {
	alice := Identity{ID: 7, Username: "alice"}
	v := stubVerifier{
		identifyFn: func(_ context.Context, token string) (Identity, error) {
			if token == "good" {
				return alice, nil
			}
			return Identity{}, errors.New("unknown token")
		},
	}

	var seen Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(v)(next)

	t.Run("no header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("good token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, alice, seen)
	})
}

func TestIdentityFrom_Missing(t *testing.T) {
	_, ok := IdentityFrom(context.Background())
	require.False(t, ok)
}
