package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "test-secret", Issuer: "zenscape.identity", TTL: time.Hour}

func TestIssueAndParse(t *testing.T) {
	token, issued, err := Issue(testConfig, "user-1", "ada@example.com", DefaultScopes, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, issued.TokenID)

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, issued.TokenID, claims.TokenID)
	assert.True(t, claims.HasScope(ScopeJournalWrite))
	assert.True(t, claims.HasAnyScope("unknown", ScopeChatUse))
	assert.False(t, claims.HasScope("admin"))
	assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestParseRejectsInvalidTokens(t *testing.T) {
	_, err := Parse("  ", testConfig)
	require.ErrorIs(t, err, ErrMissingToken)

	expired, _, err := Issue(testConfig, "user-1", "", nil, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = Parse(expired, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)

	foreign, _, err := Issue(Config{Secret: "test-secret", Issuer: "someone-else"}, "user-1", "", nil, time.Now())
	require.NoError(t, err)
	_, err = Parse(foreign, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)

	noJTI := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"iss": testConfig.Issuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := noJTI.SignedString([]byte(testConfig.Secret))
	require.NoError(t, err)
	_, err = Parse(signed, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)

	token, _, err := Issue(testConfig, "user-1", "", nil, time.Now())
	require.NoError(t, err)
	_, err = Parse(token, Config{Secret: "other", Issuer: testConfig.Issuer})
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	_, err := HashPassword("12345")
	require.ErrorIs(t, err, ErrWeakPassword)

	hash, err := HashPassword("123456")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "123456"))
	assert.False(t, CheckPassword(hash, "1234567"))
	assert.False(t, CheckPassword("", "123456"))
}

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return r[tokenID], nil
}

func TestMiddleware(t *testing.T) {
	revoked := revokedSet{}
	var seen *Claims
	handler := NewMiddleware(testConfig, revoked).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(method, path, token string) int {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(http.MethodGet, "/v1/activities", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(http.MethodGet, "/v1/activities", "garbage"))
	assert.Equal(t, http.StatusNoContent, serve(http.MethodGet, "/healthz", ""))
	assert.Equal(t, http.StatusNoContent, serve(http.MethodPost, "/v1/auth/signin", ""))
	assert.Equal(t, http.StatusNoContent, serve(http.MethodGet, "/v1/quotes", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(http.MethodPost, "/v1/chat", ""))

	token, claims, err := Issue(testConfig, "user-1", "", DefaultScopes, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, serve(http.MethodGet, "/v1/activities", token))
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.Subject)

	revoked[claims.TokenID] = true
	assert.Equal(t, http.StatusUnauthorized, serve(http.MethodGet, "/v1/activities", token))
}

type failingChecker struct{}

func (failingChecker) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestMiddlewareErrorsUseJSONEnvelope(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	token, claims, err := Issue(testConfig, "user-1", "", DefaultScopes, time.Now())
	require.NoError(t, err)

	cases := []struct {
		name    string
		checker RevocationChecker
		token   string
		status  int
		code    string
	}{
		{name: "missing token", checker: revokedSet{}, status: http.StatusUnauthorized, code: "unauthorized"},
		{name: "revoked token", checker: revokedSet{claims.TokenID: true}, token: token, status: http.StatusUnauthorized, code: "unauthorized"},
		{name: "revocation lookup fails closed", checker: failingChecker{}, token: token, status: http.StatusServiceUnavailable, code: "unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/activities", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			NewMiddleware(testConfig, tc.checker).Wrap(next).ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["type"])
			assert.NotEmpty(t, body["detail"])
		})
	}
}
