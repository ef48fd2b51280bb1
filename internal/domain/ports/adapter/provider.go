package adapter

import (
	"context"

	"github.com/shopspring/decimal"

	"bank-gateways-hub/internal/domain/model"
	"bank-gateways-hub/internal/httpx"
)

// CallbackURL computes the return-to-application URL for one order. Supplied
// by the integrator at config time; must be side-effect free.
type CallbackURL func(order model.OrderDetails) httpx.URL

// ReferenceComposer is implemented by providers whose redirect URL alone
// does not identify the transaction when the payer comes back (IDPay's
// callback carries its payment id plus the original order id). The composed
// value is what gets stored as the transaction's reference number, so it
// must equal what the callback layer reconstructs from the bank's return
// parameters.
type ReferenceComposer interface {
	ComposeReference(order model.OrderDetails, redirect *httpx.Request) string
}

// Provider is the contract every bank adapter implements. A constructed
// provider holds no per-call state and is safe for concurrent use; order
// details and reference numbers flow through parameters only.
type Provider interface {
	// Name returns the bank tag this adapter serves (e.g. "zarinpal").
	Name() string

	// MinimumAmount is the bank- or business-specific floor in IRR.
	MinimumAmount() decimal.Decimal

	// CheckMinimumAmount fails with *domain.MinimumAmountError when the
	// order amount is below MinimumAmount. Called by CreatePaymentRequest
	// before any network traffic.
	CheckMinimumAmount(order model.OrderDetails) error

	// CreatePaymentRequest initiates a payment with the bank and returns the
	// request the payer's browser must execute to reach the hosted payment
	// page. The bank-issued reference number is embedded in the returned
	// request's URL; callers correlate later calls through it.
	//
	// Not safe to retry blindly: a retried call may open a second
	// authorization with the bank. Dedupe by tracking code first.
	CreatePaymentRequest(ctx context.Context, order model.OrderDetails) (*httpx.Request, error)

	// VerifyPayment confirms a charge after the payer returns from the
	// gateway. True means the bank considers the amount charged (including
	// "already verified" answers).
	VerifyPayment(ctx context.Context, referenceNumber string, amount decimal.Decimal) (bool, error)

	// ReversePayment voids an authorization that will not be completed.
	// Banks without a reversal endpoint return
	// domain.ErrOperationNotSupported.
	ReversePayment(ctx context.Context, referenceNumber string) (bool, error)

	// InquiryPayment asks the bank for the current state of a transaction
	// out-of-band, independent of the callback flow.
	InquiryPayment(ctx context.Context, referenceNumber string) (model.PaymentInquiryResult, error)
}
