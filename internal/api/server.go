// Package api binds ledger operations to HTTP with chi.
//
// Writes go through host.Execute, so every mutating request is logged and
// stamped with the host's current height. The caller is taken from the
// X-Principal header. Contract rejections answer with the rejection code as
// the HTTP status (401 or 403) and still return the logged receipt.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/host"
)

// PrincipalHeader names the caller of a write.
const PrincipalHeader = "X-Principal"

// Server serves the ledger over HTTP.
type Server struct {
	host    *host.Host
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server over h.
func New(h *host.Host, opts ...Option) *Server {
	s := &Server{host: h, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.healthz)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/labs/{principal}", func(r chi.Router) {
			r.Get("/", s.getLab)
			r.Post("/authorize", s.authorizeLab)
			r.Post("/revoke", s.revokeLab)
		})

		r.Route("/stones", func(r chi.Router) {
			r.Post("/", s.registerStone)
			r.Get("/last-id", s.lastStoneID)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getStone)
				r.Put("/verification", s.verifyStone)
				r.Get("/verification", s.getVerification)
				r.Post("/treatments", s.discloseTreatment)
				r.Get("/treatments", s.listTreatments)
				r.Get("/treatments/{tid}", s.getTreatment)
			})
		})

		r.Get("/log", s.readLog)
		r.Post("/mine", s.mine)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
