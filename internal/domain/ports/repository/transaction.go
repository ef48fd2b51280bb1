package repository

import (
	"context"
	"time"

	"bank-gateways-hub/internal/domain/model"
)

// TransactionStore is the persistence collaborator the gateway façade reads
// and writes through. Implementations live in internal/infra; the core never
// depends on a concrete one.
type TransactionStore interface {
	Save(ctx context.Context, tx *model.Transaction) error
	FindByTrackingCode(ctx context.Context, trackingCode string) (*model.Transaction, error)
	FindByReference(ctx context.Context, referenceNumber string) (*model.Transaction, error)
	// SetReference records the bank-issued authority once known and moves
	// the workflow status forward in the same write.
	SetReference(ctx context.Context, id, referenceNumber string, status model.OperationStatus) error
	UpdateStatus(ctx context.Context, id string, status model.OperationStatus, bankStatus model.PaymentStatus, bankMessage string) error
	// ListWaitingOlderThan returns up to limit non-terminal transactions
	// created before cutoff, oldest first. Used by reconciliation.
	ListWaitingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*model.Transaction, error)
}
