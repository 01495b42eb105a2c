//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"qris-payment-service/internal/domain"
	"qris-payment-service/internal/domain/model"
	"qris-payment-service/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// MockSessionRepo is a small in-memory store with the same conditional-write
// semantics as the Postgres repo.
type MockSessionRepo struct {
	mu    sync.Mutex
	store map[string]*model.PaymentSession

	InsertFunc func(ctx context.Context, tx repository.Tx, s *model.PaymentSession) error
	InsertErr  error
	FindErr    error
	UpdateErr  error
}

func NewMockSessionRepo() *MockSessionRepo {
	return &MockSessionRepo{store: make(map[string]*model.PaymentSession)}
}

func (m *MockSessionRepo) Insert(ctx context.Context, tx repository.Tx, s *model.PaymentSession) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, s)
	}
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[s.ExternalID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *s
	m.store[s.ExternalID] = &cp
	return nil
}

func (m *MockSessionRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalID string) (*model.PaymentSession, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSessionRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, externalID string, status model.SessionStatus) (bool, error) {
	if m.UpdateErr != nil {
		return false, m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[externalID]
	if !ok || s.Status != model.SessionStatusPending {
		return false, nil
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MockSessionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentSession
	for _, s := range m.store {
		if s.Status == model.SessionStatusPending && s.CreatedAt.Before(olderThan) {
			cp := *s
			out = append(out, &cp)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Backdate rewrites CreatedAt for a stored session so tests can age it.
func (m *MockSessionRepo) Backdate(externalID string, createdAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.store[externalID]; ok {
		s.CreatedAt = createdAt
	}
}

// MockQRGateway stubs the provider.
type MockQRGateway struct {
	CreateQRFunc func(ctx context.Context, externalID string, amount int64, callbackURL string) (string, error)
	QRStatusFunc func(ctx context.Context, externalID string) (string, error)

	mu      sync.Mutex
	created []string // external ids passed to CreateQR
}

func (m *MockQRGateway) Name() string { return "mock" }

func (m *MockQRGateway) CreateQR(ctx context.Context, externalID string, amount int64, callbackURL string) (string, error) {
	m.mu.Lock()
	m.created = append(m.created, externalID)
	m.mu.Unlock()
	if m.CreateQRFunc != nil {
		return m.CreateQRFunc(ctx, externalID, amount, callbackURL)
	}
	return "QR123", nil
}

func (m *MockQRGateway) QRStatus(ctx context.Context, externalID string) (string, error) {
	if m.QRStatusFunc != nil {
		return m.QRStatusFunc(ctx, externalID)
	}
	return "ACTIVE", nil
}

func (m *MockQRGateway) CreatedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.created))
	copy(out, m.created)
	return out
}
