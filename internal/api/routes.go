package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/zenscape/internal/auth"
)

// Routes builds the chi router for the public API. Requests pass through the
// bearer-token middleware, which skips the public paths.
func (h *Handler) Routes(corsOrigin string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors(corsOrigin))
	r.Use(auth.NewMiddleware(h.authCfg, h.revoker).Wrap)

	r.Get("/healthz", healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/signup", h.signUp)
		r.Post("/auth/signin", h.signIn)
		r.Post("/auth/signout", h.signOut)
		r.Get("/auth/session", h.session)

		r.Post("/activities", h.logActivity)
		r.Get("/activities", h.listActivities)
		r.Get("/activities/streak", h.streak)

		r.Post("/journal", h.saveJournal)
		r.Get("/journal/today", h.todayJournal)
		r.Get("/journal/{id}", h.getJournal)
		r.Put("/journal/{id}", h.updateJournal)

		r.Post("/chat", h.chat)

		r.Get("/quotes", h.quotes)
		r.Get("/quotes/categories", h.quoteCategories)
		r.Get("/tracks", h.tracks)
	})
	return r
}

func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
