package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"bank-gateways-hub/internal/domain"
	"bank-gateways-hub/internal/domain/model"
	"bank-gateways-hub/internal/domain/ports/repository"
)

var _ repository.TransactionStore = (*TransactionStore)(nil)

// TransactionStore persists payment transactions in Postgres. Amounts are
// stored as integer Rials.
type TransactionStore struct{ pool *pgxpool.Pool }

func NewTransactionStore(pool *pgxpool.Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

const txColumns = `id, bank, amount, currency, tracking_code, reference_number, status, bank_status, bank_message, extra_information, created_at, updated_at`

func (s *TransactionStore) Save(ctx context.Context, tx *model.Transaction) error {
	const q = `
INSERT INTO transactions (` + txColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  reference_number=$6, status=$7, bank_status=$8, bank_message=$9, extra_information=$10, updated_at=$12;`

	_, err := s.pool.Exec(ctx, q,
		tx.ID, tx.Bank, tx.Amount.IntPart(), tx.Currency, tx.TrackingCode, tx.ReferenceNumber,
		tx.Status, tx.BankStatus, tx.BankMessage, tx.ExtraInformation, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation on tracking_code
			return domain.ErrDuplicateTrackingCode
		}
		return err
	}
	return nil
}

func (s *TransactionStore) FindByTrackingCode(ctx context.Context, trackingCode string) (*model.Transaction, error) {
	const q = `SELECT ` + txColumns + ` FROM transactions WHERE tracking_code=$1 ORDER BY created_at DESC LIMIT 1;`
	return s.findOne(ctx, q, trackingCode)
}

func (s *TransactionStore) FindByReference(ctx context.Context, referenceNumber string) (*model.Transaction, error) {
	const q = `SELECT ` + txColumns + ` FROM transactions WHERE reference_number=$1 LIMIT 1;`
	return s.findOne(ctx, q, referenceNumber)
}

func (s *TransactionStore) SetReference(ctx context.Context, id, referenceNumber string, status model.OperationStatus) error {
	const q = `UPDATE transactions SET reference_number=$2, status=$3, updated_at=NOW() WHERE id=$1;`
	tag, err := s.pool.Exec(ctx, q, id, referenceNumber, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (s *TransactionStore) UpdateStatus(ctx context.Context, id string, status model.OperationStatus, bankStatus model.PaymentStatus, bankMessage string) error {
	const q = `UPDATE transactions SET status=$2, bank_status=$3, bank_message=$4, updated_at=NOW() WHERE id=$1;`
	tag, err := s.pool.Exec(ctx, q, id, status, bankStatus, bankMessage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (s *TransactionStore) ListWaitingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.Transaction, error) {
	const q = `SELECT ` + txColumns + ` FROM transactions
WHERE status IN ('WAITING','REDIRECT_TO_BANK','RETURN_FROM_BANK') AND created_at < $1
ORDER BY created_at ASC LIMIT $2;`

	rows, err := s.pool.Query(ctx, q, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *TransactionStore) findOne(ctx context.Context, q string, arg any) (*model.Transaction, error) {
	rows, err := s.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrTransactionNotFound
	}
	return scanTransaction(rows)
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	tx := &model.Transaction{}
	var amount int64
	if err := row.Scan(
		&tx.ID, &tx.Bank, &amount, &tx.Currency, &tx.TrackingCode, &tx.ReferenceNumber,
		&tx.Status, &tx.BankStatus, &tx.BankMessage, &tx.ExtraInformation, &tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}
	tx.Amount = decimal.NewFromInt(amount)
	return tx, nil
}
