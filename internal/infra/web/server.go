package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"content-engine/internal/usecase"
)

// Server wires the generation pipeline's HTTP surface: submission, polling,
// and the admin (ops dashboard) routes.
type Server struct {
	queueUC   usecase.QueueUseCase
	contentUC usecase.ContentUseCase
	pricingUC usecase.PricingUseCase
	progress  ProgressReader
	auth      *AuthManager
	apiKey    string
	log       *zerolog.Logger
}

func NewServer(
	queueUC usecase.QueueUseCase,
	contentUC usecase.ContentUseCase,
	pricingUC usecase.PricingUseCase,
	progress ProgressReader,
	auth *AuthManager,
	adminAPIKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		queueUC:   queueUC,
		contentUC: contentUC,
		pricingUC: pricingUC,
		progress:  progress,
		auth:      auth,
		apiKey:    adminAPIKey,
		log:       logger,
	}
}

// Router builds the chi mux for the whole API.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", s.handleMintToken)

		r.Route("/generation", func(r chi.Router) {
			r.Post("/batch", s.handleSubmitBatch)
			r.Post("/single", s.handleSubmitSingle)
			r.Get("/jobs/{id}", s.handleJobStatus)
			r.Get("/progress/{id}", s.handleProgress)

			// aggregate view is admin-only
			r.With(s.requireAdmin).Get("/batch/status", s.handleBatchStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/content/{id}", s.handleGetContent)
			r.Post("/content/{id}/review", s.handleReviewContent)
			r.Get("/pricing", s.handleListPricing)
			r.Put("/pricing", s.handleUpsertPricing)
		})
	})

	return r
}

// requireAdmin guards ops routes with the JWT minted from the admin API key.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			s.log.Error().Msg("admin auth is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
