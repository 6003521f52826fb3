package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
)

// Skipper allows callers to bypass authentication for specific requests.
type Skipper func(r *http.Request) bool

// RevocationChecker reports whether a token id was revoked by sign-out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Middleware enforces bearer-token authentication on incoming requests.
type Middleware struct {
	Config  Config
	Skipper Skipper
	Revoked RevocationChecker
}

// NewMiddleware constructs a middleware. Health checks, metrics, public catalog
// reads and the sign-up/sign-in endpoints are skipped.
func NewMiddleware(cfg Config, revoked RevocationChecker) Middleware {
	return Middleware{Config: cfg, Skipper: PublicPaths, Revoked: revoked}
}

// PublicPaths skips endpoints that do not require a user.
func PublicPaths(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/metrics", "/v1/auth/signup", "/v1/auth/signin":
		return true
	}
	return r.Method == http.MethodGet &&
		(strings.HasPrefix(r.URL.Path, "/v1/quotes") || strings.HasPrefix(r.URL.Path, "/v1/tracks"))
}

// Wrap wraps an http.Handler with authentication.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || (m.Skipper != nil && m.Skipper(r)) {
			next.ServeHTTP(w, r)
			return
		}

		token, claims, err := m.parseRequest(r)
		if err != nil {
			writeProblem(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		if m.Revoked != nil {
			revoked, err := m.Revoked.IsRevoked(r.Context(), claims.TokenID)
			if err != nil {
				// A signed-out token must never pass, so an unknown answer is a refusal.
				log.Printf("auth: revocation lookup failed: %v", err)
				writeProblem(w, http.StatusServiceUnavailable, "unavailable", "session check is temporarily unavailable")
				return
			}
			if revoked {
				writeProblem(w, http.StatusUnauthorized, "unauthorized", ErrRevokedToken.Error())
				return
			}
		}

		ctx := WithToken(WithClaims(r.Context(), claims), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) parseRequest(r *http.Request) (string, *Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", nil, ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return "", nil, ErrInvalidToken
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	claims, err := Parse(token, m.Config)
	if err != nil {
		if errors.Is(err, ErrMissingToken) {
			return "", nil, err
		}
		return "", nil, ErrInvalidToken
	}
	return token, claims, nil
}

// writeProblem emits the API's {"type","detail"} error body.
func writeProblem(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"type": code, "detail": detail})
}
