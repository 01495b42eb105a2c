package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"qris-payment-service/internal/domain/ports/adapter"
	"qris-payment-service/internal/domain/ports/repository"
	"qris-payment-service/internal/infra/payment"
	"qris-payment-service/internal/usecase"
)

// Reconciler periodically pulls provider status for stale pending sessions and
// funnels terminal results through SessionUseCase.Reconcile. This covers
// callbacks that were lost in transit or arrived while the process was down;
// the reconcile path is idempotent, so overlap with a late callback is safe.
type Reconciler struct {
	uc         usecase.SessionUseCase
	sessions   repository.PaymentSessionRepository
	gateway    adapter.QRGateway
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending session must be to pull
	log        *zerolog.Logger
}

func NewReconciler(uc usecase.SessionUseCase, sessions repository.PaymentSessionRepository, gateway adapter.QRGateway, interval, staleAfter time.Duration, logger *zerolog.Logger) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	recLog := logger.With().Str("component", "Reconciler").Logger()
	return &Reconciler{
		uc:         uc,
		sessions:   sessions,
		gateway:    gateway,
		interval:   interval,
		staleAfter: staleAfter,
		log:        &recLog,
	}
}

func (w *Reconciler) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *Reconciler) tick(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-w.staleAfter)
	pending, err := w.sessions.ListPendingOlderThan(ctx, nil, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list stale pending sessions failed")
		return
	}
	for _, s := range pending {
		raw, err := w.gateway.QRStatus(ctx, s.ExternalID)
		if err != nil {
			w.log.Warn().Err(err).Str("external_id", s.ExternalID).Msg("provider status pull failed")
			continue
		}
		status, terminal := payment.MapProviderStatus(raw)
		if !terminal {
			continue // still awaiting payment
		}
		res, err := w.uc.Reconcile(ctx, s.ExternalID, status)
		if err != nil {
			w.log.Error().Err(err).Str("external_id", s.ExternalID).Msg("reconcile from pull failed")
			continue
		}
		if res.Applied {
			w.log.Info().Str("external_id", s.ExternalID).Str("status", string(status)).Msg("session reconciled from provider pull")
		}
	}
}
