// Package gateway exposes the one stable entry point calling code composes:
// a provider plus a transaction store, with the lifecycle bookkeeping the
// core owns. No bank-specific logic lives here.
package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bank-gateways-hub/internal/domain"
	"bank-gateways-hub/internal/domain/model"
	"bank-gateways-hub/internal/domain/ports/adapter"
	"bank-gateways-hub/internal/domain/ports/repository"
	"bank-gateways-hub/internal/httpx"
)

// Locker serializes payment creation per tracking code. Creating a payment
// request is not safe to retry blindly (a retry can open a second
// authorization with the bank), so concurrent creates for one tracking code
// must not race.
type Locker interface {
	// TryLock returns a release func when the key was acquired, ok=false
	// when someone else holds it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

const createLockTTL = 30 * time.Second

// PaymentGateway composes one Provider with the TransactionStore. It is
// stateless across calls and safe for concurrent use.
type PaymentGateway struct {
	provider adapter.Provider
	store    repository.TransactionStore
	locks    Locker // optional
	log      zerolog.Logger
}

func New(provider adapter.Provider, store repository.TransactionStore, locks Locker, log zerolog.Logger) *PaymentGateway {
	return &PaymentGateway{
		provider: provider,
		store:    store,
		locks:    locks,
		log:      log.With().Str("bank", provider.Name()).Logger(),
	}
}

// Provider returns the composed bank adapter.
func (g *PaymentGateway) Provider() adapter.Provider { return g.provider }

// CreatePaymentRequest opens a transaction record, delegates to the
// provider, and records the bank-issued reference before handing back the
// redirect request. A tracking code with a live (non-terminal) transaction
// is refused with domain.ErrDuplicateTrackingCode.
func (g *PaymentGateway) CreatePaymentRequest(ctx context.Context, order model.OrderDetails) (*httpx.Request, error) {
	if g.locks != nil {
		release, ok, err := g.locks.TryLock(ctx, g.provider.Name()+":"+order.TrackingCode, createLockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrDuplicateTrackingCode
		}
		defer release()
	}

	existing, err := g.store.FindByTrackingCode(ctx, order.TrackingCode)
	if err != nil && !errors.Is(err, domain.ErrTransactionNotFound) {
		return nil, err
	}
	if existing != nil && !existing.Status.Terminal() {
		return nil, domain.ErrDuplicateTrackingCode
	}

	tx := model.NewTransaction(g.provider.Name(), order)
	if err := g.store.Save(ctx, tx); err != nil {
		return nil, err
	}

	req, err := g.provider.CreatePaymentRequest(ctx, order)
	if err != nil {
		g.recordFailure(ctx, tx.ID, err)
		return nil, err
	}

	reference := referenceFromRedirect(req)
	if composer, ok := g.provider.(adapter.ReferenceComposer); ok {
		reference = composer.ComposeReference(order, req)
	}
	if err := g.store.SetReference(ctx, tx.ID, reference, model.OperationRedirectToBank); err != nil {
		g.log.Error().Err(err).Str("transaction", tx.ID).Msg("failed to record reference")
	}
	g.log.Info().Str("tracking_code", order.TrackingCode).Str("reference", reference).Msg("payment request created")
	return req, nil
}

// MarkReturned records that the payer came back from the bank, before the
// verification call is made. Unknown references are ignored so that a
// spoofed callback cannot fail the flow loudly.
func (g *PaymentGateway) MarkReturned(ctx context.Context, referenceNumber string) {
	tx, err := g.store.FindByReference(ctx, referenceNumber)
	if err != nil {
		g.log.Warn().Err(err).Str("reference", referenceNumber).Msg("return from bank for unknown reference")
		return
	}
	if tx.Status.Terminal() {
		return
	}
	if err := g.store.UpdateStatus(ctx, tx.ID, model.OperationReturnFromBank, tx.BankStatus, tx.BankMessage); err != nil {
		g.log.Error().Err(err).Str("transaction", tx.ID).Msg("failed to record return from bank")
	}
}

// VerifyPayment verifies the referenced transaction with the bank and
// settles the stored record. True means the charge is confirmed.
func (g *PaymentGateway) VerifyPayment(ctx context.Context, referenceNumber string) (bool, error) {
	tx, err := g.store.FindByReference(ctx, referenceNumber)
	if err != nil {
		return false, err
	}
	// A settled record never reopens. Replayed callbacks (the payer
	// refreshing the return URL) answer from the store without asking the
	// bank again, so a late non-success answer cannot rewrite COMPLETE.
	if tx.Status.Terminal() {
		return tx.Status == model.OperationComplete && tx.BankStatus == model.PaymentStatusVerified, nil
	}

	verified, err := g.provider.VerifyPayment(ctx, referenceNumber, tx.Amount)
	if err != nil {
		var reject *domain.RejectPaymentError
		if errors.As(err, &reject) {
			_ = g.store.UpdateStatus(ctx, tx.ID, model.OperationCancelByUser, model.PaymentStatusFailed, reject.BankMessage())
		}
		// Transport and contract errors leave the record as-is; the
		// reconciler will retry the inquiry later.
		return false, err
	}

	if verified {
		err = g.store.UpdateStatus(ctx, tx.ID, model.OperationComplete, model.PaymentStatusVerified, "")
	} else {
		err = g.store.UpdateStatus(ctx, tx.ID, model.OperationCancelByUser, model.PaymentStatusFailed, "")
	}
	if err != nil {
		g.log.Error().Err(err).Str("transaction", tx.ID).Msg("failed to settle transaction status")
	}
	return verified, nil
}

// ReversePayment voids the referenced authorization.
func (g *PaymentGateway) ReversePayment(ctx context.Context, referenceNumber string) (bool, error) {
	tx, err := g.store.FindByReference(ctx, referenceNumber)
	if err != nil {
		return false, err
	}

	reversed, err := g.provider.ReversePayment(ctx, referenceNumber)
	if err != nil {
		return false, err
	}
	if reversed {
		if err := g.store.UpdateStatus(ctx, tx.ID, model.OperationCancelByUser, model.PaymentStatusReserved, ""); err != nil {
			g.log.Error().Err(err).Str("transaction", tx.ID).Msg("failed to record reversal")
		}
	}
	return reversed, nil
}

// InquiryPayment asks the bank for the current status and syncs the stored
// record with the answer. The result is handed to the caller unchanged.
func (g *PaymentGateway) InquiryPayment(ctx context.Context, referenceNumber string) (model.PaymentInquiryResult, error) {
	tx, err := g.store.FindByReference(ctx, referenceNumber)
	if err != nil {
		return model.PaymentInquiryResult{}, err
	}

	result, err := g.provider.InquiryPayment(ctx, referenceNumber)
	if err != nil {
		return model.PaymentInquiryResult{}, err
	}

	status := tx.Status
	switch result.Status {
	case model.PaymentStatusVerified:
		status = model.OperationComplete
	case model.PaymentStatusFailed:
		status = model.OperationCancelByUser
	case model.PaymentStatusReserved:
		status = model.OperationCancelByUser
	}
	if err := g.store.UpdateStatus(ctx, tx.ID, status, result.Status, ""); err != nil {
		g.log.Error().Err(err).Str("transaction", tx.ID).Msg("failed to sync inquiry status")
	}
	return result, nil
}

func (g *PaymentGateway) recordFailure(ctx context.Context, txID string, cause error) {
	status := model.OperationError
	message := cause.Error()
	var reject *domain.RejectPaymentError
	if errors.As(cause, &reject) {
		status = model.OperationCancelByUser
		message = reject.BankMessage()
	}
	if err := g.store.UpdateStatus(ctx, txID, status, model.PaymentStatusFailed, message); err != nil {
		g.log.Error().Err(err).Str("transaction", txID).Msg("failed to record create failure")
	}
}

// referenceFromRedirect pulls the bank reference out of the redirect URL.
// Every supported redirect-style gateway puts the token in the final path
// segment of its hosted payment page.
func referenceFromRedirect(req *httpx.Request) string {
	trimmed := strings.TrimRight(req.URL.String(), "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
