package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bank-gateways-hub/internal/domain/model"
)

// GatewayError is implemented by every error type in the gateway taxonomy
// (including the transport errors in internal/httpx), so integrators can
// catch the whole family with a single errors.As target when they do not
// care which kind occurred.
type GatewayError interface {
	error
	GatewayError()
}

// Sentinels shared by store implementations and the façade.
var (
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrDuplicateTrackingCode = errors.New("a live transaction already exists for this tracking code")
	ErrOperationNotSupported = errors.New("operation not supported by this bank")
)

// MinimumAmountError reports an order below the provider's amount floor.
// Raised before any network call.
type MinimumAmountError struct {
	Order         model.OrderDetails
	MinimumAmount decimal.Decimal
}

func (e *MinimumAmountError) Error() string {
	return fmt.Sprintf("order %s amount %s is below the minimum %s",
		e.Order.TrackingCode, e.Order.Amount, e.MinimumAmount)
}

func (e *MinimumAmountError) GatewayError() {}

// RejectPaymentError is a business-level decline reported by the bank. The
// bank's own message(s) are preserved verbatim.
type RejectPaymentError struct {
	BankMessages []string
}

func (e *RejectPaymentError) Error() string {
	if len(e.BankMessages) == 0 {
		return "bank rejected the payment"
	}
	return "bank rejected the payment: " + strings.Join(e.BankMessages, "; ")
}

// BankMessage joins all bank messages into one line.
func (e *RejectPaymentError) BankMessage() string {
	return strings.Join(e.BankMessages, "; ")
}

func (e *RejectPaymentError) GatewayError() {}

// InvalidGatewayResponseError means the bank answered but the payload is
// missing a field the adapter's contract requires. This usually signals an
// API change on the bank side rather than a runtime condition, so callers
// should log it loudly.
type InvalidGatewayResponseError struct {
	Message string
}

func (e *InvalidGatewayResponseError) Error() string {
	return "invalid gateway response: " + e.Message
}

func (e *InvalidGatewayResponseError) GatewayError() {}

// InvalidGatewayConfigError is raised at construction time for broken
// provider configuration. The application must not start with one of these.
type InvalidGatewayConfigError struct {
	Message string
}

func (e *InvalidGatewayConfigError) Error() string {
	return "invalid gateway config: " + e.Message
}

func (e *InvalidGatewayConfigError) GatewayError() {}
