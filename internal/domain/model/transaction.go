package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is the stored record of one payment attempt against one bank.
// The reference number is the bank's handle (authority/token); the tracking
// code is ours. Either may be used to find the record again.
type Transaction struct {
	ID           string // UUID
	Bank         string // bank tag, e.g. "zarinpal"
	Amount       decimal.Decimal
	Currency     string // "IRR"
	TrackingCode string
	// ReferenceNumber is empty until the bank issues an authority.
	ReferenceNumber string
	Status          OperationStatus
	BankStatus      PaymentStatus
	// BankMessage keeps the gateway's last human-readable result text.
	BankMessage      string
	ExtraInformation map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewTransaction opens a WAITING record for an order about to be sent to a
// bank.
func NewTransaction(bank string, order OrderDetails) *Transaction {
	now := time.Now()
	return &Transaction{
		ID:           uuid.NewString(),
		Bank:         bank,
		Amount:       order.Amount,
		Currency:     "IRR",
		TrackingCode: order.TrackingCode,
		Status:       OperationWaiting,
		BankStatus:   PaymentStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
