package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/aimux/aimux/services/dispatch"
)

// anonymousCaller identifies requests when authentication is disabled.
const anonymousCaller = "anonymous"

// AuthMiddleware authenticates callers with HMAC-signed bearer JWTs and
// places the caller identity (the sub claim) on the request context. With an
// empty signing key the middleware is a pass-through tagging every request
// as anonymous, which keeps local development keyless.
type AuthMiddleware struct {
	signingKey []byte
	logger     *zap.Logger
}

// NewAuthMiddleware creates the middleware; an empty signingKey disables
// authentication.
func NewAuthMiddleware(signingKey string, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		signingKey: []byte(signingKey),
		logger:     logger,
	}
}

// Enabled reports whether a signing key is configured.
func (m *AuthMiddleware) Enabled() bool {
	return len(m.signingKey) > 0
}

// Authenticate validates the bearer token and tags the request context with
// the caller identity.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			next.ServeHTTP(w, r.WithContext(dispatch.WithCaller(r.Context(), anonymousCaller)))
			return
		}

		requestID := GetRequestIDFromContext(r.Context())

		token := extractBearerToken(r)
		if token == "" {
			m.logger.Warn("missing bearer token", zap.String("request_id", requestID))
			writeUnauthorized(w, "missing or invalid authorization")
			return
		}

		callerID, err := m.validateToken(token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("caller_id", callerID))

		next.ServeHTTP(w, r.WithContext(dispatch.WithCaller(r.Context(), callerID)))
	})
}

// validateToken parses and verifies the JWT and returns the sub claim.
func (m *AuthMiddleware) validateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return "", err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject claim")
	}
	return subject, nil
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
