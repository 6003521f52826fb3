// Package api exposes HTTP handlers for the zenscape backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"example.com/zenscape/internal/auth"
	"example.com/zenscape/internal/catalog"
	"example.com/zenscape/internal/chat"
	"example.com/zenscape/internal/domain"
	"example.com/zenscape/internal/persistence"
)

// TokenRevoker records signed-out tokens and answers revocation lookups.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Option configures optional behaviour for the Handler.
type Option func(*Handler)

// WithCompanion enables POST /v1/chat.
func WithCompanion(companion *chat.Companion) Option {
	return func(h *Handler) {
		h.companion = companion
	}
}

// WithCatalog enables the track and quote endpoints.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(h *Handler) {
		h.catalog = cat
	}
}

// WithRevoker enables sign-out and rejects revoked tokens.
func WithRevoker(revoker TokenRevoker) Option {
	return func(h *Handler) {
		h.revoker = revoker
	}
}

// WithChatRateLimit caps chat requests per user per minute. Zero disables the limit.
func WithChatRateLimit(perMinute int) Option {
	return func(h *Handler) {
		h.chatLimiter = newUserLimiter(perMinute)
	}
}

// WithLogger overrides the logger used for unexpected failures.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service     *domain.Service
	authCfg     auth.Config
	companion   *chat.Companion
	catalog     *catalog.Catalog
	revoker     TokenRevoker
	chatLimiter *userLimiter
	now         func() time.Time
	logger      *log.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, authCfg auth.Config, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		authCfg: authCfg,
		now:     time.Now,
		logger:  log.New(log.Writer(), "[api] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	user, err := h.service.SignUp(r.Context(), domain.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSession(w, http.StatusCreated, *user)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	user, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, *user)
}

func (h *Handler) writeSession(w http.ResponseWriter, status int, user domain.User) {
	token, claims, err := auth.Issue(h.authCfg, user.ID, user.Email, auth.DefaultScopes, h.now())
	if err != nil {
		h.logger.Printf("issue token (user=%s): %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "server_error", "unable to issue token")
		return
	}
	writeJSON(w, status, SessionResponse{User: toUserView(user), Token: token, ExpiresAt: claims.ExpiresAt})
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	if h.revoker != nil {
		if err := h.revoker.Revoke(r.Context(), claims.TokenID, claims.ExpiresAt); err != nil {
			h.logger.Printf("revoke token (user=%s): %v", claims.Subject, err)
			writeError(w, http.StatusInternalServerError, "server_error", "unable to sign out")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	user, err := h.service.CurrentUser(r.Context(), claims.Subject)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{User: toUserView(*user), ExpiresAt: claims.ExpiresAt})
}

func (h *Handler) logActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	var req LogActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	input := domain.LogActivityInput{
		UserID:    claims.Subject,
		Type:      domain.ActivityType(req.ActivityType),
		Frequency: req.Frequency,
	}
	if req.ActivityDate != "" {
		date, err := domain.ParseDate(req.ActivityDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "activity_date must be YYYY-MM-DD")
			return
		}
		input.Date = &date
	}

	activity, err := h.service.LogActivity(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityView(*activity, h.service.Today()))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := domain.ActivityFilter{}
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}
	if raw := query.Get("date"); raw != "" {
		date, err := domain.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "date must be YYYY-MM-DD")
			return
		}
		filter.Date = &date
	}
	cursor, err := persistence.DecodeCursor(query.Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}
	filter.Cursor = cursor

	activities, next, err := h.service.ListActivities(r.Context(), claims.Subject, filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	today := h.service.Today()
	items := make([]ActivityView, 0, len(activities))
	for _, a := range activities {
		items = append(items, toActivityView(a, today))
	}
	writeJSON(w, http.StatusOK, ListActivitiesResponse{Items: items, NextCursor: persistence.EncodeCursor(next)})
}

func (h *Handler) streak(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}
	streak, err := h.service.CurrentStreak(r.Context(), claims.Subject)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StreakResponse{CurrentStreak: streak})
}

func (h *Handler) saveJournal(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeJournalWrite)
	if !ok {
		return
	}
	req, ok := decodeJournal(w, r)
	if !ok {
		return
	}

	entry, created, err := h.service.SaveJournal(r.Context(), domain.SaveJournalInput{
		UserID:       claims.Subject,
		Mood:         req.Mood,
		SleepQuality: req.SleepQuality,
		Content:      req.Content,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toJournalView(*entry, h.service.Today()))
}

func (h *Handler) todayJournal(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeJournalRead, auth.ScopeJournalWrite)
	if !ok {
		return
	}
	entry, err := h.service.TodayJournal(r.Context(), claims.Subject)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJournalView(*entry, h.service.Today()))
}

func (h *Handler) getJournal(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeJournalRead, auth.ScopeJournalWrite)
	if !ok {
		return
	}
	entry, err := h.service.GetJournal(r.Context(), claims.Subject, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJournalView(*entry, h.service.Today()))
}

func (h *Handler) updateJournal(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeJournalWrite)
	if !ok {
		return
	}
	req, ok := decodeJournal(w, r)
	if !ok {
		return
	}

	entry, err := h.service.UpdateJournal(r.Context(), claims.Subject, chi.URLParam(r, "id"), domain.SaveJournalInput{
		UserID:       claims.Subject,
		Mood:         req.Mood,
		SleepQuality: req.SleepQuality,
		Content:      req.Content,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJournalView(*entry, h.service.Today()))
}

func decodeJournal(w http.ResponseWriter, r *http.Request) (JournalRequest, bool) {
	var req JournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return req, false
	}
	return req, true
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeChatUse)
	if !ok {
		return
	}
	if h.companion == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "chat is not configured")
		return
	}
	if !h.chatLimiter.Allow(claims.Subject) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many chat requests, try again shortly")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	reply, err := h.companion.Reply(r.Context(), req.Messages)
	if err != nil {
		var genErr *chat.GenerationError
		switch {
		case errors.Is(err, chat.ErrNoUserMessage):
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		case errors.As(err, &genErr):
			writeError(w, http.StatusBadGateway, "generation_failed", genErr.Message)
		default:
			h.logger.Printf("chat reply (user=%s): %v", claims.Subject, err)
			writeError(w, http.StatusBadGateway, "generation_failed", "unable to generate a response")
		}
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) quotes(w http.ResponseWriter, r *http.Request) {
	if !h.requireCatalog(w) {
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.Quotes(r.URL.Query().Get("category")))
}

func (h *Handler) quoteCategories(w http.ResponseWriter, r *http.Request) {
	if !h.requireCatalog(w) {
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.QuoteCategories())
}

func (h *Handler) tracks(w http.ResponseWriter, r *http.Request) {
	if !h.requireCatalog(w) {
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.Tracks(r.URL.Query().Get("category")))
}

func (h *Handler) requireCatalog(w http.ResponseWriter) bool {
	if h.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "catalog is not loaded")
		return false
	}
	return true
}

func requireClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	return claims, true
}

// requireScope accepts the request when the claims carry any of scopes.
func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return nil, false
	}
	if !claims.HasAnyScope(scopes...) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
		return nil, false
	}
	return claims, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, domain.ErrInvalidActivityType),
		errors.Is(err, domain.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrJournalNotFound), errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrJournalLocked):
		writeError(w, http.StatusConflict, "journal_locked", err.Error())
	default:
		h.logger.Printf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
