// Package auth provides HTTP authentication for recruiter sessions (JWT) and
// trusted internal callers (service API keys).
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// APIKeyHeader is the header for service API key authentication
	APIKeyHeader = "X-API-Key"

	// principalContextKey is the context key for storing the caller
	principalContextKey contextKey = "principal"
)

// Authentication methods recorded on a Principal.
const (
	MethodJWT    = "jwt"
	MethodAPIKey = "api_key"
)

// ErrUnauthenticated is returned when a request carries no usable credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

// Principal identifies the caller of a request.
type Principal struct {
	// UserID is the recruiter's ID. It is uuid.Nil for service callers.
	UserID uuid.UUID
	Email  string
	Method string
}

// Authenticator validates bearer tokens and service API keys.
type Authenticator struct {
	jwt     *JWTManager
	apiKeys [][]byte
	logger  *slog.Logger
}

// NewAuthenticator creates an authenticator. jwtManager may be nil to accept
// API keys only.
func NewAuthenticator(jwtManager *JWTManager, apiKeys []string, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Authenticator{jwt: jwtManager, logger: logger}
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			a.apiKeys = append(a.apiKeys, []byte(k))
		}
	}
	return a
}

// Authenticate resolves the caller of r.
func (a *Authenticator) Authenticate(r *http.Request) (*Principal, error) {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		if a.validAPIKey(key) {
			return &Principal{Method: MethodAPIKey}, nil
		}
		return nil, ErrUnauthenticated
	}

	token, ok := bearerToken(r)
	if !ok || a.jwt == nil {
		return nil, ErrUnauthenticated
	}

	claims, err := a.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	userID, err := claims.GetUserID()
	if err != nil {
		return nil, err
	}

	return &Principal{UserID: userID, Email: claims.Email, Method: MethodJWT}, nil
}

// Middleware rejects unauthenticated requests with 401 and stores the
// Principal in the request context otherwise.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := a.Authenticate(r)
		if err != nil {
			a.logger.Debug("authentication failed", "path", r.URL.Path, "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer realm="talentrank"`)
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required."})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func (a *Authenticator) validAPIKey(key string) bool {
	for _, k := range a.apiKeys {
		if subtle.ConstantTimeCompare(k, []byte(key)) == 1 {
			return true
		}
	}
	return false
}

// bearerToken extracts the token from an "Authorization: Bearer" header
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext extracts the caller from context
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok
}
