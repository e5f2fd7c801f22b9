package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "accueil/pkg/domain-errors"
	"accueil/pkg/requestcontext"
)

func TestVerifier(t *testing.T) {
	v := NewVerifier("s3cret")

	t.Run("round trip", func(t *testing.T) {
		tok, err := v.Sign("desk-1", time.Hour)
		require.NoError(t, err)
		sub, err := v.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, "desk-1", sub)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := v.Sign("desk-1", -time.Hour)
		require.NoError(t, err)
		_, err = v.Verify(tok)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := NewVerifier("other").Sign("desk-1", time.Hour)
		require.NoError(t, err)
		_, err = v.Verify(tok)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not-a-token")
		assert.Error(t, err)
	})
}

func TestRequireBearer(t *testing.T) {
	v := NewVerifier("s3cret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var subject string
	h := RequireBearer(v, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = requestcontext.Subject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthorized")
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		tok, err := v.Sign("desk-2", time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "desk-2", subject)
	})
}
