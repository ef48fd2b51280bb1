// Package sched runs the background reconciliation loop.
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bank-gateways-hub/internal/domain/ports/repository"
	"bank-gateways-hub/internal/gateway"
	"bank-gateways-hub/internal/infra/metrics"
)

// Reconciler periodically scans for transactions stuck before settlement and
// asks the bank for their real status. This covers lost callbacks and
// processes that crashed between redirect and verification.
type Reconciler struct {
	gateways   map[string]*gateway.PaymentGateway
	store      repository.TransactionStore
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	log        zerolog.Logger
}

func NewReconciler(gateways map[string]*gateway.PaymentGateway, store repository.TransactionStore, interval, staleAfter time.Duration, batchSize int, log zerolog.Logger) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Reconciler{
		gateways:   gateways,
		store:      store,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		log:        log.With().Str("component", "reconciler").Logger(),
	}
}

func (w *Reconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *Reconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.store.ListWaitingOlderThan(ctx, cutoff, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("list stale transactions failed")
		return
	}
	for _, tx := range stale {
		if tx.ReferenceNumber == "" {
			// Never reached the bank; nothing to ask about.
			continue
		}
		gw, ok := w.gateways[tx.Bank]
		if !ok {
			w.log.Warn().Str("bank", tx.Bank).Str("transaction", tx.ID).Msg("stale transaction for unconfigured bank")
			continue
		}
		result, err := gw.InquiryPayment(ctx, tx.ReferenceNumber)
		if err != nil {
			metrics.IncPaymentOp(tx.Bank, "reconcile", "error")
			w.log.Warn().Err(err).Str("transaction", tx.ID).Str("reference", tx.ReferenceNumber).Msg("inquiry failed")
			continue
		}
		metrics.IncPaymentOp(tx.Bank, "reconcile", string(result.Status))
		w.log.Info().Str("transaction", tx.ID).Str("reference", tx.ReferenceNumber).Str("status", string(result.Status)).Msg("reconciled")
	}
}
