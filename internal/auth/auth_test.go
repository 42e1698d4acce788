package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	return NewJWTManager(DefaultJWTConfig("test-secret"))
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := newTestManager()
	userID := uuid.New()

	token, err := m.GenerateToken(userID, "recruiter@example.com")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)

	got, err := claims.GetUserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Equal(t, "recruiter@example.com", claims.Email)
	assert.Equal(t, "talentrank", claims.Issuer)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := newTestManager()

	expired, err := m.GenerateTokenWithExpiry(uuid.New(), "", -time.Minute)
	require.NoError(t, err)
	_, err = m.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other := NewJWTManager(DefaultJWTConfig("other-secret"))
	forged, err := other.GenerateToken(uuid.New(), "")
	require.NoError(t, err)
	_, err = m.ValidateToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	cfg := DefaultJWTConfig("test-secret")
	cfg.Issuer = "someone-else"
	foreign, err := NewJWTManager(cfg).GenerateToken(uuid.New(), "")
	require.NoError(t, err)
	_, err = m.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	m := newTestManager()
	a := NewAuthenticator(m, []string{"svc-key", " "}, nil)

	userID := uuid.New()
	token, err := m.GenerateToken(userID, "r@example.com")
	require.NoError(t, err)

	var seen *Principal
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
		wantMethod string
	}{
		{"bearer token", "Authorization", "Bearer " + token, http.StatusNoContent, MethodJWT},
		{"lowercase scheme", "Authorization", "bearer " + token, http.StatusNoContent, MethodJWT},
		{"api key", APIKeyHeader, "svc-key", http.StatusNoContent, MethodAPIKey},
		{"wrong api key", APIKeyHeader, "nope", http.StatusUnauthorized, ""},
		{"garbage token", "Authorization", "Bearer abc.def", http.StatusUnauthorized, ""},
		{"basic auth", "Authorization", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"no credentials", "", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodPost, "/rank-candidates", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantMethod == "" {
				assert.Nil(t, seen)
				assert.JSONEq(t, `{"error":"Authentication required."}`, rec.Body.String())
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, tt.wantMethod, seen.Method)
			if tt.wantMethod == MethodJWT {
				assert.Equal(t, userID, seen.UserID)
			}
		})
	}
}
