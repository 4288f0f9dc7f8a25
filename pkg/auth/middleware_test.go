package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blitz-ai/feedback-console/pkg/config"
)

const testSigningKey = "test-signing-key"

func signToken(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func protectedHandler(t *testing.T, gotSubject *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subject, ok := Subject(r.Context()); ok {
			*gotSubject = subject
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestVerifyDisabledPassesThrough(t *testing.T) {
	m := NewMiddleware(config.AuthConfig{EnableVerification: false}, nil)

	var subject string
	handler := m.Verify(protectedHandler(t, &subject))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feedback/documents", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, subject)
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	m := NewMiddleware(config.AuthConfig{EnableVerification: true, SigningKey: testSigningKey}, nil)

	var subject string
	handler := m.Verify(protectedHandler(t, &subject))

	token := signToken(t, testSigningKey, jwt.MapClaims{
		"sub": "analyst@example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/feedback/documents", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "analyst@example.com", subject)
}

func TestVerifyRejections(t *testing.T) {
	m := NewMiddleware(config.AuthConfig{EnableVerification: true, SigningKey: testSigningKey}, nil)

	var subject string
	handler := m.Verify(protectedHandler(t, &subject))

	tests := []struct {
		name      string
		authorize func(r *http.Request)
	}{
		{
			name:      "missing header",
			authorize: func(r *http.Request) {},
		},
		{
			name: "not a bearer token",
			authorize: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
			},
		},
		{
			name: "wrong signing key",
			authorize: func(r *http.Request) {
				token := signToken(t, "some-other-key", jwt.MapClaims{
					"sub": "intruder",
					"exp": time.Now().Add(time.Hour).Unix(),
				})
				r.Header.Set("Authorization", "Bearer "+token)
			},
		},
		{
			name: "expired token",
			authorize: func(r *http.Request) {
				token := signToken(t, testSigningKey, jwt.MapClaims{
					"sub": "analyst@example.com",
					"exp": time.Now().Add(-time.Minute).Unix(),
				})
				r.Header.Set("Authorization", "Bearer "+token)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/feedback/documents", nil)
			tt.authorize(req)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
