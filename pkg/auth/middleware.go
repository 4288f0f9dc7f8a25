package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/blitz-ai/feedback-console/pkg/config"
)

type contextKey string

// SubjectKey is the context key holding the verified token subject.
const SubjectKey contextKey = "auth_subject"

// Middleware verifies bearer tokens on incoming requests. Verification is
// optional: when disabled in config the middleware passes every request
// through, which keeps local development friction-free.
type Middleware struct {
	cfg    config.AuthConfig
	logger *zap.Logger
}

// NewMiddleware creates an auth middleware from the given config.
func NewMiddleware(cfg config.AuthConfig, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{cfg: cfg, logger: logger}
}

// Verify wraps a handler with bearer-token verification.
func (m *Middleware) Verify(next http.Handler) http.Handler {
	if !m.cfg.EnableVerification {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			m.unauthorized(w, "Authentication required")
			return
		}

		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(m.cfg.SigningKey), nil
		})
		if err != nil || !parsed.Valid {
			m.logger.Warn("token verification failed",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			m.unauthorized(w, "Invalid or expired token")
			return
		}

		subject, _ := claims.GetSubject()
		ctx := context.WithValue(r.Context(), SubjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Subject returns the verified token subject from the context, if any.
func Subject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectKey).(string)
	return subject, ok && subject != ""
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", fmt.Errorf("Authorization header is not a bearer token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", fmt.Errorf("empty bearer token")
	}
	return token, nil
}

func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
