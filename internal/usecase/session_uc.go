// File: internal/usecase/session_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"qris-payment-service/internal/domain"
	"qris-payment-service/internal/domain/model"
	"qris-payment-service/internal/domain/ports/adapter"
	"qris-payment-service/internal/domain/ports/repository"
	"qris-payment-service/internal/infra/metrics"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

// ReconcileResult reports the outcome of a reconcile attempt. Applied is true
// for exactly one caller per session; a false Applied with a nil error means
// the session was already terminal and the update was absorbed as a no-op.
type ReconcileResult struct {
	Applied bool
	Status  model.SessionStatus
}

type SessionUseCase interface {
	// Create validates the amount, requests a QR from the provider and stores
	// a PENDING session. Nothing is stored when the provider call fails.
	Create(ctx context.Context, amount int64) (*model.PaymentSession, error)
	// Reconcile moves a session to a terminal status. It is the single
	// mutation funnel for both the provider callback and the status pull,
	// and is idempotent under duplicate and late delivery.
	Reconcile(ctx context.Context, externalID string, status model.SessionStatus) (ReconcileResult, error)
	// Status is the polling read path; it applies lazy expiry before
	// returning and never writes.
	Status(ctx context.Context, externalID string) (model.SessionStatus, error)
	// ExpireStale persists the EXPIRED status for over-window PENDING
	// sessions. Reads stay correct without it; it only reclaims stored state.
	ExpireStale(ctx context.Context) (int, error)
}

type SessionConfig struct {
	MinAmount   int64         // provider floor, IDR
	Window      time.Duration // validity window from CreatedAt
	CallTimeout time.Duration // budget for the outbound provider call
	CallbackURL string        // where the provider pushes status updates
}

type sessionUC struct {
	sessions repository.PaymentSessionRepository
	gateway  adapter.QRGateway
	cfg      SessionConfig
	log      *zerolog.Logger
}

func NewSessionUseCase(sessions repository.PaymentSessionRepository, gateway adapter.QRGateway, cfg SessionConfig, logger *zerolog.Logger) *sessionUC {
	ucLog := logger.With().Str("component", "SessionUC").Logger()
	return &sessionUC{sessions: sessions, gateway: gateway, cfg: cfg, log: &ucLog}
}

// newExternalID returns a fresh collision-resistant correlation id. The
// QRIS- prefix keeps ids recognizable in provider dashboards.
func newExternalID() string {
	return "QRIS-" + ulid.Make().String()
}

func (u *sessionUC) Create(ctx context.Context, amount int64) (*model.PaymentSession, error) {
	if amount < u.cfg.MinAmount {
		return nil, fmt.Errorf("%w: got %d, minimum is %d", domain.ErrInvalidAmount, amount, u.cfg.MinAmount)
	}

	externalID := newExternalID()

	callCtx, cancel := context.WithTimeout(ctx, u.cfg.CallTimeout)
	defer cancel()
	qrPayload, err := u.gateway.CreateQR(callCtx, externalID, amount, u.cfg.CallbackURL)
	if err != nil {
		// No partial session: the store is untouched on provider failure.
		u.log.Warn().Err(err).Str("external_id", externalID).Int64("amount", amount).Msg("provider qr request failed")
		if errors.Is(err, domain.ErrProviderUnavailable) || errors.Is(err, domain.ErrProviderMalformedResponse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	s := model.NewPaymentSession(externalID, amount, qrPayload, time.Now().UTC())
	if err := u.sessions.Insert(ctx, nil, s); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// The id generator makes this a bug, not a user error.
			u.log.Error().Str("external_id", externalID).Msg("external id collision on insert")
			return nil, fmt.Errorf("%w: duplicate external id %s", domain.ErrInternal, externalID)
		}
		return nil, err
	}

	metrics.IncSessionCreated()
	u.log.Info().Str("external_id", externalID).Int64("amount", amount).Msg("payment session created")
	return s, nil
}

func (u *sessionUC) Reconcile(ctx context.Context, externalID string, status model.SessionStatus) (ReconcileResult, error) {
	if !status.IsTerminal() {
		return ReconcileResult{}, fmt.Errorf("%w: %q is not a terminal status", domain.ErrInvalidStatus, status)
	}

	s, err := u.sessions.FindByExternalID(ctx, nil, externalID)
	if err != nil {
		return ReconcileResult{}, err
	}
	if s.Status.IsTerminal() {
		// Duplicate or late delivery; absorb it.
		metrics.IncSessionReconciled(string(status), false)
		return ReconcileResult{Applied: false, Status: s.Status}, nil
	}

	applied, err := u.sessions.UpdateStatusIfPending(ctx, nil, externalID, status)
	if err != nil {
		return ReconcileResult{}, err
	}
	metrics.IncSessionReconciled(string(status), applied)

	if !applied {
		// Lost the race to a concurrent update; report what actually stuck.
		cur, err := u.sessions.FindByExternalID(ctx, nil, externalID)
		if err != nil {
			return ReconcileResult{}, err
		}
		return ReconcileResult{Applied: false, Status: cur.Status}, nil
	}

	if status == model.SessionStatusCompleted {
		metrics.AddSessionRevenue(s.Amount)
	}
	u.log.Info().Str("external_id", externalID).Str("status", string(status)).Msg("payment session reconciled")
	return ReconcileResult{Applied: true, Status: status}, nil
}

func (u *sessionUC) Status(ctx context.Context, externalID string) (model.SessionStatus, error) {
	s, err := u.sessions.FindByExternalID(ctx, nil, externalID)
	if err != nil {
		return "", err
	}
	return s.EffectiveStatus(time.Now().UTC(), u.cfg.Window), nil
}

func (u *sessionUC) ExpireStale(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-u.cfg.Window)
	stale, err := u.sessions.ListPendingOlderThan(ctx, nil, cutoff, 200)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, s := range stale {
		applied, err := u.sessions.UpdateStatusIfPending(ctx, nil, s.ExternalID, model.SessionStatusExpired)
		if err != nil {
			u.log.Error().Err(err).Str("external_id", s.ExternalID).Msg("expire stale session failed")
			continue
		}
		if applied {
			expired++
		}
	}
	return expired, nil
}
