package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"qris-payment-service/internal/config"
	red "qris-payment-service/internal/infra/redis"
	"qris-payment-service/internal/usecase"
)

// CallbackVerifier authenticates provider callbacks before their payload is
// trusted. Implemented by the Xendit gateway (x-callback-token header).
type CallbackVerifier interface {
	VerifyCallbackToken(r *http.Request) bool
}

type Server struct {
	sessionUC usecase.SessionUseCase
	verifier  CallbackVerifier
	limiter   *red.RateLimiter
	cfg       *config.Config
	log       *zerolog.Logger
	server    *http.Server
}

func NewServer(sessionUC usecase.SessionUseCase, verifier CallbackVerifier, limiter *red.RateLimiter, cfg *config.Config, logger *zerolog.Logger) *Server {
	webLog := logger.With().Str("component", "web").Logger()
	return &Server{
		sessionUC: sessionUC,
		verifier:  verifier,
		limiter:   limiter,
		cfg:       cfg,
		log:       &webLog,
	}
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	common := []Middleware{TraceID(), RequestLog(s.log)}

	r.Method(http.MethodPost, "/api/v1/payments", Chain(
		http.HandlerFunc(s.handleCreate),
		append(common, RateLimit(s.limiter, s.cfg.Payment.CreateLimit, s.cfg.Payment.CreateWindow, s.log))...,
	))
	r.Method(http.MethodGet, "/api/v1/payments/{externalID}", Chain(
		http.HandlerFunc(s.handleStatus), common...,
	))
	// Provider-facing; reachable without client auth, guarded by the callback token.
	r.Method(http.MethodPost, "/webhook/xendit", Chain(
		http.HandlerFunc(s.handleCallback), common...,
	))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", s.cfg.Server.Port).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
