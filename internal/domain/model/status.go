package model

// PaymentStatus is the bank-reported lifecycle state of a transaction.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusVerified PaymentStatus = "verified"
	PaymentStatusFailed   PaymentStatus = "failed"
	// PaymentStatusReserved means the authorization was reversed.
	PaymentStatusReserved PaymentStatus = "reserved"
)

// OperationStatus is the locally tracked workflow state of a transaction,
// distinct from whatever the bank reports. It only ever moves forward except
// for the terminal failure states.
type OperationStatus string

const (
	OperationWaiting            OperationStatus = "WAITING"
	OperationRedirectToBank     OperationStatus = "REDIRECT_TO_BANK"
	OperationReturnFromBank     OperationStatus = "RETURN_FROM_BANK"
	OperationCancelByUser       OperationStatus = "CANCEL_BY_USER"
	OperationExpireGatewayToken OperationStatus = "EXPIRE_GATEWAY_TOKEN"
	OperationComplete           OperationStatus = "COMPLETE"
	OperationError              OperationStatus = "ERROR"
)

// Terminal reports whether the workflow state can no longer change.
func (s OperationStatus) Terminal() bool {
	switch s {
	case OperationComplete, OperationCancelByUser, OperationError:
		return true
	}
	return false
}

// PaymentInquiryResult is what an out-of-band status inquiry returns. It is
// handed to the caller and never persisted by the core.
type PaymentInquiryResult struct {
	Status PaymentStatus
	// ExtraInformation carries the bank's own vocabulary for diagnostics
	// (raw status strings, ref ids). May be nil.
	ExtraInformation map[string]any
}
