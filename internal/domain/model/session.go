package model

import "time"

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "PENDING"   // QR issued; awaiting payment
	SessionStatusCompleted SessionStatus = "COMPLETED" // provider confirmed payment
	SessionStatusFailed    SessionStatus = "FAILED"    // provider reported failure
	SessionStatusExpired   SessionStatus = "EXPIRED"   // validity window elapsed without provider input
)

// IsTerminal reports whether the status is absorbing: once a session reaches
// a terminal status no further transition is allowed.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusFailed, SessionStatusExpired:
		return true
	}
	return false
}

// ParseSessionStatus maps a raw status string to a known status.
func ParseSessionStatus(raw string) (SessionStatus, bool) {
	switch SessionStatus(raw) {
	case SessionStatusPending, SessionStatusCompleted, SessionStatusFailed, SessionStatusExpired:
		return SessionStatus(raw), true
	}
	return "", false
}

// PaymentSession records one QR payment request. ExternalID is assigned by us
// (not the provider) and echoed back in provider callbacks; Amount and
// QRPayload are write-once after creation.
type PaymentSession struct {
	ExternalID string        // globally unique correlation id, e.g. "QRIS-01J..."
	Amount     int64         // IDR, minor-unit free integer
	QRPayload  string        // opaque QR string from the provider; rendered client-side
	Status     SessionStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewPaymentSession builds a fresh PENDING session.
func NewPaymentSession(externalID string, amount int64, qrPayload string, now time.Time) *PaymentSession {
	return &PaymentSession{
		ExternalID: externalID,
		Amount:     amount,
		QRPayload:  qrPayload,
		Status:     SessionStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// EffectiveStatus applies lazy expiry: a stored-PENDING session past its
// validity window reads as EXPIRED even if the row was never updated.
// Terminal stored statuses always win over the window.
func (p *PaymentSession) EffectiveStatus(now time.Time, window time.Duration) SessionStatus {
	if p.Status == SessionStatusPending && window > 0 && now.Sub(p.CreatedAt) > window {
		return SessionStatusExpired
	}
	return p.Status
}
