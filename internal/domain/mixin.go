package domain

import (
	"github.com/shopspring/decimal"

	"bank-gateways-hub/internal/domain/model"
)

// MinimumAmountCheck is the shared amount-floor validation embedded by every
// provider. It is keyed only on the configured minimum so adapters do not
// re-implement the comparison.
type MinimumAmountCheck struct {
	Minimum decimal.Decimal
}

// MinimumAmount returns the floor below which payment requests are rejected.
func (m MinimumAmountCheck) MinimumAmount() decimal.Decimal { return m.Minimum }

// CheckMinimumAmount fails with *MinimumAmountError when the order amount is
// below the floor. Providers must call this before issuing any network call.
func (m MinimumAmountCheck) CheckMinimumAmount(order model.OrderDetails) error {
	if order.Amount.LessThan(m.Minimum) {
		return &MinimumAmountError{Order: order, MinimumAmount: m.Minimum}
	}
	return nil
}
