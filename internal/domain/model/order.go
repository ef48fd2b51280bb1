package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// OrderDetails describes one payment the calling application wants to
// create. Amount is always denominated in IRR. The struct is owned by the
// caller and treated as read-only by every provider.
type OrderDetails struct {
	Amount       decimal.Decimal
	TrackingCode string

	FirstName   string
	LastName    string
	PhoneNumber string
	Email       string
	OrderID     string
	Description string
}

// NewTrackingCode mints a caller-side identifier for one payment attempt.
// ULIDs sort by creation time, which makes reconciliation scans cheap.
func NewTrackingCode() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
