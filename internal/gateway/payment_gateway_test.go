package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bank-gateways-hub/internal/domain"
	"bank-gateways-hub/internal/domain/model"
	"bank-gateways-hub/internal/httpx"
)

// --- in-memory store ---

type memStore struct {
	mu  sync.Mutex
	txs map[string]*model.Transaction
}

func newMemStore() *memStore {
	return &memStore{txs: map[string]*model.Transaction{}}
}

func (m *memStore) Save(_ context.Context, tx *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tx
	m.txs[tx.ID] = &cp
	return nil
}

func (m *memStore) FindByTrackingCode(_ context.Context, trackingCode string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.txs {
		if tx.TrackingCode == trackingCode {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *memStore) FindByReference(_ context.Context, referenceNumber string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.txs {
		if tx.ReferenceNumber == referenceNumber {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *memStore) SetReference(_ context.Context, id, referenceNumber string, status model.OperationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	tx.ReferenceNumber = referenceNumber
	tx.Status = status
	tx.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, status model.OperationStatus, bankStatus model.PaymentStatus, bankMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	tx.Status = status
	tx.BankStatus = bankStatus
	tx.BankMessage = bankMessage
	tx.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) ListWaitingOlderThan(_ context.Context, cutoff time.Time, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, tx := range m.txs {
		if tx.Status.Terminal() || !tx.CreatedAt.Before(cutoff) {
			continue
		}
		cp := *tx
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) byTracking(t *testing.T, trackingCode string) *model.Transaction {
	t.Helper()
	tx, err := m.FindByTrackingCode(context.Background(), trackingCode)
	if err != nil {
		t.Fatalf("transaction %s not stored: %v", trackingCode, err)
	}
	return tx
}

// --- stub provider ---

type stubProvider struct {
	createReq  *httpx.Request
	createErr  error
	verified   bool
	verifyErr  error
	reversed    bool
	reverseErr  error
	inquiry     model.PaymentInquiryResult
	inquiryErr  error
	verifyCalls int
}

func (s *stubProvider) Name() string                                { return "stub" }
func (s *stubProvider) MinimumAmount() decimal.Decimal              { return decimal.NewFromInt(1000) }
func (s *stubProvider) CheckMinimumAmount(model.OrderDetails) error { return nil }

func (s *stubProvider) CreatePaymentRequest(context.Context, model.OrderDetails) (*httpx.Request, error) {
	return s.createReq, s.createErr
}

func (s *stubProvider) VerifyPayment(context.Context, string, decimal.Decimal) (bool, error) {
	s.verifyCalls++
	return s.verified, s.verifyErr
}

// composingProvider stands in for banks whose callback reference is built
// from more than the redirect URL.
type composingProvider struct {
	stubProvider
}

func (c *composingProvider) ComposeReference(order model.OrderDetails, redirect *httpx.Request) string {
	return referenceFromRedirect(redirect) + ":" + order.TrackingCode
}

func (s *stubProvider) ReversePayment(context.Context, string) (bool, error) {
	return s.reversed, s.reverseErr
}

func (s *stubProvider) InquiryPayment(context.Context, string) (model.PaymentInquiryResult, error) {
	return s.inquiry, s.inquiryErr
}

type stubLocker struct{ busy bool }

func (l *stubLocker) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	if l.busy {
		return nil, false, nil
	}
	return func() {}, true, nil
}

func redirectTo(raw string) *httpx.Request {
	return httpx.NewRequest(httpx.MethodGet, httpx.MustParse(raw), 0, httpx.NewHeaders(nil), nil)
}

func order(trackingCode string) model.OrderDetails {
	return model.OrderDetails{Amount: decimal.NewFromInt(15000), TrackingCode: trackingCode}
}

func newGateway(p *stubProvider, store *memStore) *PaymentGateway {
	return New(p, store, &stubLocker{}, zerolog.Nop())
}

// --- tests ---

func TestCreatePaymentRequestLifecycle(t *testing.T) {
	store := newMemStore()
	g := newGateway(&stubProvider{createReq: redirectTo("https://bank.example/start/A1")}, store)

	req, err := g.CreatePaymentRequest(context.Background(), order("TC-1"))
	if err != nil {
		t.Fatalf("CreatePaymentRequest: %v", err)
	}
	if req.URL.String() != "https://bank.example/start/A1/" {
		t.Errorf("redirect URL = %q", req.URL)
	}

	tx := store.byTracking(t, "TC-1")
	if tx.Status != model.OperationRedirectToBank {
		t.Errorf("status = %s, want REDIRECT_TO_BANK", tx.Status)
	}
	if tx.ReferenceNumber != "A1" {
		t.Errorf("reference = %q, want the redirect's last path segment", tx.ReferenceNumber)
	}
}

func TestCreatePaymentRequestComposedReference(t *testing.T) {
	store := newMemStore()
	p := &composingProvider{stubProvider{createReq: redirectTo("https://bank.example/p/ws/p1")}}
	g := New(p, store, &stubLocker{}, zerolog.Nop())

	if _, err := g.CreatePaymentRequest(context.Background(), order("TC-1")); err != nil {
		t.Fatalf("CreatePaymentRequest: %v", err)
	}
	tx := store.byTracking(t, "TC-1")
	if tx.ReferenceNumber != "p1:TC-1" {
		t.Errorf("reference = %q, want the provider-composed %q", tx.ReferenceNumber, "p1:TC-1")
	}
	if _, err := store.FindByReference(context.Background(), "p1:TC-1"); err != nil {
		t.Errorf("composed reference not findable: %v", err)
	}
}

func TestVerifyPaymentReplayKeepsSettledRecord(t *testing.T) {
	store := newMemStore()
	p := &stubProvider{createReq: redirectTo("https://bank.example/start/A1"), verified: true}
	g := newGateway(p, store)

	if _, err := g.CreatePaymentRequest(context.Background(), order("TC-1")); err != nil {
		t.Fatal(err)
	}
	if verified, err := g.VerifyPayment(context.Background(), "A1"); err != nil || !verified {
		t.Fatalf("first verify = %v, err = %v", verified, err)
	}

	// The payer refreshes the return URL; the bank now answers with an
	// "already verified" rejection. The settled record must not reopen.
	p.verified = false
	p.verifyErr = &domain.RejectPaymentError{BankMessages: []string{"already verified"}}
	callsBefore := p.verifyCalls

	verified, err := g.VerifyPayment(context.Background(), "A1")
	if err != nil {
		t.Fatalf("replayed verify: %v", err)
	}
	if !verified {
		t.Error("replayed verify should answer true for a completed charge")
	}
	if p.verifyCalls != callsBefore {
		t.Errorf("bank asked again on replay (%d calls)", p.verifyCalls-callsBefore)
	}
	tx := store.byTracking(t, "TC-1")
	if tx.Status != model.OperationComplete || tx.BankStatus != model.PaymentStatusVerified {
		t.Errorf("record rewritten to %s/%s", tx.Status, tx.BankStatus)
	}
}

func TestVerifyPaymentReplayOnCancelledRecord(t *testing.T) {
	store := newMemStore()
	p := &stubProvider{createReq: redirectTo("https://bank.example/start/A1"), verified: false}
	g := newGateway(p, store)

	if _, err := g.CreatePaymentRequest(context.Background(), order("TC-1")); err != nil {
		t.Fatal(err)
	}
	if verified, err := g.VerifyPayment(context.Background(), "A1"); err != nil || verified {
		t.Fatalf("first verify = %v, err = %v", verified, err)
	}

	p.verified = true // even a late success cannot resurrect the record
	verified, err := g.VerifyPayment(context.Background(), "A1")
	if err != nil || verified {
		t.Errorf("replay on cancelled record = %v, err = %v", verified, err)
	}
	if tx := store.byTracking(t, "TC-1"); tx.Status != model.OperationCancelByUser {
		t.Errorf("status = %s, want CANCEL_BY_USER kept", tx.Status)
	}
}

func TestCreatePaymentRequestDuplicateTrackingCode(t *testing.T) {
	store := newMemStore()
	g := newGateway(&stubProvider{createReq: redirectTo("https://bank.example/start/A1")}, store)

	if _, err := g.CreatePaymentRequest(context.Background(), order("TC-1")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := g.CreatePaymentRequest(context.Background(), order("TC-1"))
	if !errors.Is(err, domain.ErrDuplicateTrackingCode) {
		t.Errorf("error = %v, want ErrDuplicateTrackingCode", err)
	}
}

func TestCreatePaymentRequestReusableAfterTerminalState(t *testing.T) {
	store := newMemStore()
	g := newGateway(&stubProvider{createReq: redirectTo("https://bank.example/start/A1")}, store)

	if _, err := g.CreatePaymentRequest(context.Background(), order("TC-1")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	first := store.byTracking(t, "TC-1")
	if err := store.UpdateStatus(context.Background(), first.ID, model.OperationComplete, model.PaymentStatusVerified, ""); err != nil {
		t.Fatal(err)
	}

	if _, err := g.CreatePaymentRequest(context.Background(), order("TC-1")); err != nil {
		t.Errorf("create after terminal state: %v", err)
	}
}

func TestCreatePaymentRequestLockBusy(t *testing.T) {
	store := newMemStore()
	g := New(&stubProvider{createReq: redirectTo("https://bank.example/start/A1")}, store, &stubLocker{busy: true}, zerolog.Nop())

	_, err := g.CreatePaymentRequest(context.Background(), order("TC-1"))
	if !errors.Is(err, domain.ErrDuplicateTrackingCode) {
		t.Errorf("error = %v, want ErrDuplicateTrackingCode while the lock is held", err)
	}
}

func TestCreatePaymentRequestProviderRejection(t *testing.T) {
	store := newMemStore()
	reject := &domain.RejectPaymentError{BankMessages: []string{"merchant disabled"}}
	g := newGateway(&stubProvider{createErr: reject}, store)

	_, err := g.CreatePaymentRequest(context.Background(), order("TC-1"))
	var got *domain.RejectPaymentError
	if !errors.As(err, &got) {
		t.Fatalf("error = %v, want the provider's rejection", err)
	}

	tx := store.byTracking(t, "TC-1")
	if tx.Status != model.OperationCancelByUser {
		t.Errorf("status = %s, want CANCEL_BY_USER", tx.Status)
	}
	if tx.BankMessage != "merchant disabled" {
		t.Errorf("bank message = %q", tx.BankMessage)
	}
}

func TestCreatePaymentRequestProviderFailure(t *testing.T) {
	store := newMemStore()
	g := newGateway(&stubProvider{createErr: errors.New("boom")}, store)

	if _, err := g.CreatePaymentRequest(context.Background(), order("TC-1")); err == nil {
		t.Fatal("expected error")
	}
	tx := store.byTracking(t, "TC-1")
	if tx.Status != model.OperationError {
		t.Errorf("status = %s, want ERROR", tx.Status)
	}
}

func TestMarkReturned(t *testing.T) {
	store := newMemStore()
	g := newGateway(&stubProvider{createReq: redirectTo("https://bank.example/start/A1")}, store)

	if _, err := g.CreatePaymentRequest(context.Background(), order("TC-1")); err != nil {
		t.Fatal(err)
	}
	g.MarkReturned(context.Background(), "A1")
	if tx := store.byTracking(t, "TC-1"); tx.Status != model.OperationReturnFromBank {
		t.Errorf("status = %s, want RETURN_FROM_BANK", tx.Status)
	}

	// Unknown references are ignored, not an error surface for spoofers.
	g.MarkReturned(context.Background(), "FORGED")
}

func TestVerifyPaymentSettles(t *testing.T) {
	t.Run("verified completes", func(t *testing.T) {
		store := newMemStore()
		p := &stubProvider{createReq: redirectTo("https://bank.example/start/A1"), verified: true}
		g := newGateway(p, store)

		if _, err := g.CreatePaymentRequest(context.Background(), order("TC-1")); err != nil {
			t.Fatal(err)
		}
		verified, err := g.VerifyPayment(context.Background(), "A1")
		if err != nil || !verified {
			t.Fatalf("verified = %v, err = %v", verified, err)
		}
		tx := store.byTracking(t, "TC-1")
		if tx.Status != model.OperationComplete || tx.BankStatus != model.PaymentStatusVerified {
			t.Errorf("settled as %s/%s", tx.Status, tx.BankStatus)
		}
	})

	t.Run("clean false cancels", func(t *testing.T) {
		store := newMemStore()
		p := &stubProvider{createReq: redirectTo("https://bank.example/start/A1"), verified: false}
		g := newGateway(p, store)

		if _, err := g.CreatePaymentRequest(context.Background(), order("TC-1")); err != nil {
			t.Fatal(err)
		}
		verified, err := g.VerifyPayment(context.Background(), "A1")
		if err != nil || verified {
			t.Fatalf("verified = %v, err = %v", verified, err)
		}
		if tx := store.byTracking(t, "TC-1"); tx.Status != model.OperationCancelByUser {
			t.Errorf("status = %s, want CANCEL_BY_USER", tx.Status)
		}
	})

	t.Run("transport error leaves record for the reconciler", func(t *testing.T) {
		store := newMemStore()
		p := &stubProvider{createReq: redirectTo("https://bank.example/start/A1"), verifyErr: errors.New("gateway down")}
		g := newGateway(p, store)

		if _, err := g.CreatePaymentRequest(context.Background(), order("TC-1")); err != nil {
			t.Fatal(err)
		}
		if _, err := g.VerifyPayment(context.Background(), "A1"); err == nil {
			t.Fatal("expected error")
		}
		if tx := store.byTracking(t, "TC-1"); tx.Status != model.OperationRedirectToBank {
			t.Errorf("status = %s, want the pre-verify state kept", tx.Status)
		}
	})

	t.Run("unknown reference", func(t *testing.T) {
		g := newGateway(&stubProvider{}, newMemStore())
		if _, err := g.VerifyPayment(context.Background(), "nope"); !errors.Is(err, domain.ErrTransactionNotFound) {
			t.Errorf("error = %v, want ErrTransactionNotFound", err)
		}
	})
}

func TestReversePayment(t *testing.T) {
	store := newMemStore()
	p := &stubProvider{createReq: redirectTo("https://bank.example/start/A1"), reversed: true}
	g := newGateway(p, store)

	if _, err := g.CreatePaymentRequest(context.Background(), order("TC-1")); err != nil {
		t.Fatal(err)
	}
	reversed, err := g.ReversePayment(context.Background(), "A1")
	if err != nil || !reversed {
		t.Fatalf("reversed = %v, err = %v", reversed, err)
	}
	tx := store.byTracking(t, "TC-1")
	if tx.BankStatus != model.PaymentStatusReserved {
		t.Errorf("bank status = %s, want reserved", tx.BankStatus)
	}
}

func TestInquiryPaymentSyncsStoredStatus(t *testing.T) {
	store := newMemStore()
	p := &stubProvider{
		createReq: redirectTo("https://bank.example/start/A1"),
		inquiry:   model.PaymentInquiryResult{Status: model.PaymentStatusVerified},
	}
	g := newGateway(p, store)

	if _, err := g.CreatePaymentRequest(context.Background(), order("TC-1")); err != nil {
		t.Fatal(err)
	}
	result, err := g.InquiryPayment(context.Background(), "A1")
	if err != nil {
		t.Fatalf("InquiryPayment: %v", err)
	}
	if result.Status != model.PaymentStatusVerified {
		t.Errorf("result = %s", result.Status)
	}
	tx := store.byTracking(t, "TC-1")
	if tx.Status != model.OperationComplete {
		t.Errorf("status = %s, want COMPLETE after a verified inquiry", tx.Status)
	}
}

func TestReferenceFromRedirect(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://bank.example/start/A1", "A1"},
		{"https://bank.example/start/A1/", "A1"},
		{"https://bank.example/123456", "123456"},
	}
	for _, c := range cases {
		if got := referenceFromRedirect(redirectTo(c.url)); got != c.want {
			t.Errorf("referenceFromRedirect(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}
