package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"bank-gateways-hub/internal/domain"
	"bank-gateways-hub/internal/domain/model"
	"bank-gateways-hub/internal/httpx"
)

func TestZibalCreatePaymentRequest(t *testing.T) {
	client := &mockClient{responses: []*httpx.Response{
		jsonResponse(200, `{"result": 100, "trackId": 123456, "message": "success"}`),
	}}
	z := mustZibal(t, client)

	req, err := z.CreatePaymentRequest(context.Background(), testOrder(15000))
	if err != nil {
		t.Fatalf("CreatePaymentRequest: %v", err)
	}
	if got := req.URL.String(); got != "https://gateway.zibal.ir/start/123456/" {
		t.Errorf("redirect URL = %q", got)
	}

	sent := client.requests[0]
	if sent.Body["merchant"] != "m1" {
		t.Errorf("merchant = %v", sent.Body["merchant"])
	}
	// Zibal talks IRR directly; no Toman conversion.
	if sent.Body["amount"] != int64(15000) {
		t.Errorf("amount = %v", sent.Body["amount"])
	}
	if sent.Body["orderId"] != "TC-1" {
		t.Errorf("orderId = %v", sent.Body["orderId"])
	}
	if sent.Body["mobile"] != "09120000000" {
		t.Errorf("mobile = %v", sent.Body["mobile"])
	}
}

func TestZibalRejectedRequest(t *testing.T) {
	client := &mockClient{responses: []*httpx.Response{
		jsonResponse(200, `{"result": 102, "message": "merchant not found"}`),
	}}
	z := mustZibal(t, client)

	_, err := z.CreatePaymentRequest(context.Background(), testOrder(15000))
	var reject *domain.RejectPaymentError
	if !errors.As(err, &reject) {
		t.Fatalf("error = %v, want *RejectPaymentError", err)
	}
	if reject.BankMessage() != "merchant not found" {
		t.Errorf("BankMessage = %q", reject.BankMessage())
	}
}

func TestZibalMissingResult(t *testing.T) {
	client := &mockClient{responses: []*httpx.Response{
		jsonResponse(200, `{"trackId": 1}`),
	}}
	z := mustZibal(t, client)

	_, err := z.CreatePaymentRequest(context.Background(), testOrder(15000))
	var invalid *domain.InvalidGatewayResponseError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want *InvalidGatewayResponseError", err)
	}
}

func TestZibalVerifyPayment(t *testing.T) {
	t.Run("status 1 verifies", func(t *testing.T) {
		client := &mockClient{responses: []*httpx.Response{
			jsonResponse(200, `{"result": 100, "status": 1, "amount": 15000}`),
		}}
		z := mustZibal(t, client)

		verified, err := z.VerifyPayment(context.Background(), "123456", decimal.NewFromInt(15000))
		if err != nil {
			t.Fatalf("VerifyPayment: %v", err)
		}
		if !verified {
			t.Error("status 1 should verify")
		}
		// The numeric reference is sent as a number, not a string.
		if got := client.requests[0].Body["trackId"]; got != int64(123456) {
			t.Errorf("trackId = %v (%T)", got, got)
		}
	})

	t.Run("status 2 is paid but not verified", func(t *testing.T) {
		client := &mockClient{responses: []*httpx.Response{
			jsonResponse(200, `{"result": 100, "status": 2}`),
		}}
		z := mustZibal(t, client)

		verified, err := z.VerifyPayment(context.Background(), "123456", decimal.NewFromInt(15000))
		if err != nil || verified {
			t.Errorf("verified = %v, err = %v", verified, err)
		}
	})

	t.Run("amount mismatch refuses", func(t *testing.T) {
		client := &mockClient{responses: []*httpx.Response{
			jsonResponse(200, `{"result": 100, "status": 1, "amount": 14000}`),
		}}
		z := mustZibal(t, client)

		verified, err := z.VerifyPayment(context.Background(), "123456", decimal.NewFromInt(15000))
		if err != nil {
			t.Fatalf("VerifyPayment: %v", err)
		}
		if verified {
			t.Error("mismatched amount must not verify")
		}
	})
}

func TestZibalReverseUnsupported(t *testing.T) {
	z := mustZibal(t, &mockClient{})
	_, err := z.ReversePayment(context.Background(), "123456")
	if !errors.Is(err, domain.ErrOperationNotSupported) {
		t.Errorf("error = %v, want ErrOperationNotSupported", err)
	}
}

func TestZibalInquiryPayment(t *testing.T) {
	cases := []struct {
		status string
		want   model.PaymentStatus
	}{
		{"1", model.PaymentStatusVerified},
		{"2", model.PaymentStatusPaid},
		{"-1", model.PaymentStatusPending},
		{"-2", model.PaymentStatusFailed},
		{"3", model.PaymentStatusFailed},
	}
	for _, c := range cases {
		t.Run("status "+c.status, func(t *testing.T) {
			client := &mockClient{responses: []*httpx.Response{
				jsonResponse(200, `{"result": 100, "status": `+c.status+`, "amount": 15000, "message": "ok"}`),
			}}
			z := mustZibal(t, client)

			result, err := z.InquiryPayment(context.Background(), "123456")
			if err != nil {
				t.Fatalf("InquiryPayment: %v", err)
			}
			if result.Status != c.want {
				t.Errorf("status = %s, want %s", result.Status, c.want)
			}
		})
	}
}
