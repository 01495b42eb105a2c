package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"qris-payment-service/internal/domain"
	"qris-payment-service/internal/domain/model"
	"qris-payment-service/internal/domain/ports/repository"
)

var _ repository.PaymentSessionRepository = (*sessionRepo)(nil)

const uniqueViolation = "23505"

type sessionRepo struct{ pool *pgxpool.Pool }

func NewSessionRepo(pool *pgxpool.Pool) *sessionRepo {
	return &sessionRepo{pool: pool}
}

func (r *sessionRepo) Insert(ctx context.Context, tx repository.Tx, s *model.PaymentSession) error {
	const q = `
INSERT INTO payment_sessions (external_id, amount, qr_payload, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6);`

	_, err := execSQL(ctx, r.pool, tx, q, s.ExternalID, s.Amount, s.QRPayload, s.Status, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *sessionRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalID string) (*model.PaymentSession, error) {
	q := `SELECT external_id, amount, qr_payload, status, created_at, updated_at FROM payment_sessions WHERE external_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, externalID)
	if err != nil {
		return nil, err
	}

	s := &model.PaymentSession{}
	if err := row.Scan(&s.ExternalID, &s.Amount, &s.QRPayload, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

// UpdateStatusIfPending atomically updates status only when the current status
// is PENDING. A racing duplicate callback or a lazily-expired read therefore
// cannot both win: exactly one conditional write reports applied=true.
func (r *sessionRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, externalID string, status model.SessionStatus) (bool, error) {
	const q = `
UPDATE payment_sessions
   SET status = $2,
       updated_at = NOW()
 WHERE external_id = $1
   AND status = 'PENDING';`

	cmd, err := execSQL(ctx, r.pool, tx, q, externalID, string(status))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *sessionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentSession, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT external_id, amount, qr_payload, status, created_at, updated_at FROM payment_sessions WHERE status='PENDING' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.PaymentSession
	for rows.Next() {
		s := new(model.PaymentSession)
		if err := rows.Scan(&s.ExternalID, &s.Amount, &s.QRPayload, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, s)
	}
	return out, nil
}
