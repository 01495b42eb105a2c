package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"qris-payment-service/internal/infra/metrics"
	"qris-payment-service/internal/usecase"
)

// ExpiryWorker periodically persists the EXPIRED status for over-window
// PENDING sessions. Reads are already correct without it (the status query
// applies lazy expiry); this only reclaims stored state.
type ExpiryWorker struct {
	interval  time.Duration
	sessionUC usecase.SessionUseCase
	log       *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, sessionUC usecase.SessionUseCase, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval:  interval,
		sessionUC: sessionUC,
		log:       &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.sessionUC.ExpireStale(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry worker error")
			}
			if n > 0 {
				metrics.IncSessionsExpired(n)
				w.log.Info().Int("count", n).Msg("expired sessions persisted")
			}
		}
	}
}
