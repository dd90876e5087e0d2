package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/usecase"
)

type Server struct {
	router     *chi.Mux
	uc         *usecase.UseCases
	platforms  *model.PlatformRegistry
	adminToken string
}

type Options func(*Server)

// WithAdminToken sets the key expected in the X-Admin-API-Key header. The
// admin surface rejects every request when no token is configured.
func WithAdminToken(token string) Options {
	return func(s *Server) {
		s.adminToken = token
	}
}

// WithPlatforms sets the platform registry used to build meeting URLs
func WithPlatforms(registry *model.PlatformRegistry) Options {
	return func(s *Server) {
		s.platforms = registry
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.platforms == nil {
		s.platforms = model.NewPlatformRegistry()
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	// User-facing API, authenticated per user token
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(uc.Identity))

		r.Post("/bots", s.requestBot)
		r.Delete("/bots/{platform}/{native_id}", s.stopBot)
		r.Get("/bots/status", s.botsStatus)
		r.Get("/meetings", s.listMeetings)
		r.Get("/transcripts/{platform}/{native_id}", s.getTranscript)
		r.Put("/user/webhook", s.setWebhook)
	})

	// Upstream callback, unauthenticated
	r.Post("/webhooks/meeting-finished", s.meetingFinished)

	// Admin surface, guarded by the deployment admin key
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminMiddleware(s.adminToken))

		r.Post("/users", s.findOrCreateUser)
		r.Get("/users", s.listUsers)
		r.Get("/users/email/{email}", s.getUserByEmail)
		r.Get("/users/{id}", s.getUserDetail)
		r.Patch("/users/{id}", s.updateUser)
		r.Post("/users/{id}/tokens", s.issueToken)
		r.Delete("/tokens/{id}", s.revokeToken)
		r.Get("/stats/meetings-users", s.meetingUsersStats)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
