package provider

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bank-gateways-hub/internal/currency"
	"bank-gateways-hub/internal/domain/model"
	"bank-gateways-hub/internal/httpx"
	"bank-gateways-hub/internal/message"
)

// mockClient replays canned responses and records every request so tests can
// assert on the exact payloads an adapter sends.
type mockClient struct {
	requests  []*httpx.Request
	responses []*httpx.Response
	errs      []error
}

func (m *mockClient) Send(_ context.Context, req *httpx.Request) (*httpx.Response, error) {
	i := len(m.requests)
	m.requests = append(m.requests, req)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.responses) {
		panic("mockClient: no response queued")
	}
	return m.responses[i], nil
}

func jsonResponse(status int, body string) *httpx.Response {
	return httpx.NewResponse(status,
		httpx.NewHeaders(map[string]string{"Content-Type": "application/json"}),
		[]byte(body))
}

func testOrder(amountIRR int64) model.OrderDetails {
	return model.OrderDetails{
		Amount:       decimal.NewFromInt(amountIRR),
		TrackingCode: "TC-1",
		PhoneNumber:  "09120000000",
	}
}

func testCallback(model.OrderDetails) httpx.URL {
	return httpx.MustParse("https://shop.example/gateways/callback")
}

func testDeps(client httpx.Client) (*message.Service, httpx.Client, zerolog.Logger) {
	return message.NewService(), client, zerolog.Nop()
}

func currencyByCode(t *testing.T, code string) currency.Currency {
	t.Helper()
	c, err := currency.Get(code)
	if err != nil {
		t.Fatalf("currency %s: %v", code, err)
	}
	return c
}

func mustZarinpal(t *testing.T, client httpx.Client, cur string) *Zarinpal {
	t.Helper()
	cfg, err := NewZarinpalConfig(ZarinpalConfig{
		MerchantCode: "m1",
		CallbackURL:  testCallback,
		Currency:     currencyByCode(t, cur),
	})
	if err != nil {
		t.Fatalf("zarinpal config: %v", err)
	}
	msg, cli, log := testDeps(client)
	return NewZarinpal(cfg, msg, cli, log)
}

func mustZibal(t *testing.T, client httpx.Client) *Zibal {
	t.Helper()
	cfg, err := NewZibalConfig(ZibalConfig{MerchantCode: "m1", CallbackURL: testCallback})
	if err != nil {
		t.Fatalf("zibal config: %v", err)
	}
	msg, cli, log := testDeps(client)
	return NewZibal(cfg, msg, cli, log)
}

func mustIDPay(t *testing.T, client httpx.Client) *IDPay {
	t.Helper()
	cfg, err := NewIDPayConfig(IDPayConfig{APIKey: "k1", Sandbox: true, CallbackURL: testCallback})
	if err != nil {
		t.Fatalf("idpay config: %v", err)
	}
	msg, cli, log := testDeps(client)
	return NewIDPay(cfg, msg, cli, log)
}
