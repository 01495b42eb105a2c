package repository

import (
	"context"
	"time"

	"qris-payment-service/internal/domain/model"
)

// PaymentSessionRepository is the durable record of payment sessions, keyed by
// external id. It is the single source of truth for session status.
type PaymentSessionRepository interface {
	// Insert stores a new session. Returns domain.ErrAlreadyExists when the
	// external id is already present.
	Insert(ctx context.Context, tx Tx, s *model.PaymentSession) error

	// FindByExternalID returns domain.ErrNotFound for unknown ids.
	FindByExternalID(ctx context.Context, tx Tx, externalID string) (*model.PaymentSession, error)

	// UpdateStatusIfPending atomically moves a session to a terminal status
	// only when its current status is PENDING. The returned bool reports
	// whether the write applied; false means the session was already terminal
	// and is not an error. This conditional write is the sole concurrency
	// mechanism for status transitions.
	UpdateStatusIfPending(ctx context.Context, tx Tx, externalID string, status model.SessionStatus) (bool, error)

	// ListPendingOlderThan feeds the expiry sweeper and the provider
	// reconciler with stale PENDING sessions.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.PaymentSession, error)
}
