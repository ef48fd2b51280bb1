package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bank-gateways-hub/internal/currency"
	"bank-gateways-hub/internal/domain"
	"bank-gateways-hub/internal/domain/model"
	"bank-gateways-hub/internal/domain/ports/adapter"
	"bank-gateways-hub/internal/httpx"
	"bank-gateways-hub/internal/message"
)

// BankZarinpal tags the Zarinpal REST v4 adapter.
const BankZarinpal = "zarinpal"

// Success-code tables from the Zarinpal v4 documentation. 100 is a first
// verification, 101 an already-verified transaction; both are success.
var (
	zarinpalVerifiedCodes = map[int64]bool{100: true, 101: true}
	zarinpalReversedCodes = map[int64]bool{100: true}
)

// zarinpalInquiryStatuses maps Zarinpal's inquiry vocabulary onto the shared
// PaymentStatus enum.
var zarinpalInquiryStatuses = map[string]model.PaymentStatus{
	"IN_BANK":  model.PaymentStatusPending,
	"PAID":     model.PaymentStatusPaid,
	"VERIFIED": model.PaymentStatusVerified,
	"REVERSED": model.PaymentStatusReserved,
	"FAILED":   model.PaymentStatusFailed,
}

const zarinpalMinimumAmountIRR = 1000

// ZarinpalConfig is the immutable per-merchant configuration. Build one at
// startup through NewZarinpalConfig; zero-value endpoint fields fall back to
// the production Zarinpal URLs.
type ZarinpalConfig struct {
	MerchantCode string
	CallbackURL  adapter.CallbackURL
	Currency     currency.Currency
	Timeout      time.Duration

	PaymentRequestURL httpx.URL
	StartPaymentURL   httpx.URL
	VerifyURL         httpx.URL
	ReverseURL        httpx.URL
	InquiryURL        httpx.URL
}

// NewZarinpalConfig validates and defaults cfg. The application must treat a
// returned *domain.InvalidGatewayConfigError as fatal.
func NewZarinpalConfig(cfg ZarinpalConfig) (ZarinpalConfig, error) {
	if cfg.MerchantCode == "" {
		return ZarinpalConfig{}, &domain.InvalidGatewayConfigError{Message: "zarinpal: merchant code is required"}
	}
	if cfg.CallbackURL == nil {
		return ZarinpalConfig{}, &domain.InvalidGatewayConfigError{Message: "zarinpal: callback URL generator is required"}
	}
	if cfg.Currency.Code == "" {
		cfg.Currency = currency.IRT
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.PaymentRequestURL.IsZero() {
		cfg.PaymentRequestURL = httpx.MustParse("https://payment.zarinpal.com/pg/v4/payment/request.json")
	}
	if cfg.StartPaymentURL.IsZero() {
		cfg.StartPaymentURL = httpx.MustParse("https://payment.zarinpal.com/pg/StartPay")
	}
	if cfg.VerifyURL.IsZero() {
		cfg.VerifyURL = httpx.MustParse("https://payment.zarinpal.com/pg/v4/payment/verify.json")
	}
	if cfg.ReverseURL.IsZero() {
		cfg.ReverseURL = httpx.MustParse("https://payment.zarinpal.com/pg/v4/payment/reverse.json")
	}
	if cfg.InquiryURL.IsZero() {
		cfg.InquiryURL = httpx.MustParse("https://payment.zarinpal.com/pg/v4/payment/inquiry.json")
	}
	return cfg, nil
}

// Zarinpal is the reference REST adapter; the other banks follow its shape
// with their own endpoints, field names, and code tables.
type Zarinpal struct {
	domain.MinimumAmountCheck

	cfg    ZarinpalConfig
	msg    *message.Service
	client httpx.Client
	log    zerolog.Logger
}

var _ adapter.Provider = (*Zarinpal)(nil)

func NewZarinpal(cfg ZarinpalConfig, msg *message.Service, client httpx.Client, log zerolog.Logger) *Zarinpal {
	return &Zarinpal{
		MinimumAmountCheck: domain.MinimumAmountCheck{Minimum: decimal.NewFromInt(zarinpalMinimumAmountIRR)},
		cfg:                cfg,
		msg:                msg,
		client:             client,
		log:                log.With().Str("bank", BankZarinpal).Logger(),
	}
}

func (z *Zarinpal) Name() string { return BankZarinpal }

// CreatePaymentRequest initiates a payment and returns the GET request that
// sends the payer to Zarinpal's hosted page.
func (z *Zarinpal) CreatePaymentRequest(ctx context.Context, order model.OrderDetails) (*httpx.Request, error) {
	if err := z.CheckMinimumAmount(order); err != nil {
		return nil, err
	}

	payload, err := z.send(ctx, z.cfg.PaymentRequestURL, z.payData(order))
	if err != nil {
		return nil, err
	}

	authority, _ := dataString(payload, "authority")
	if authority == "" {
		z.log.Error().Str("tracking_code", order.TrackingCode).Msg("payment request answer carries no authority")
		return nil, &domain.InvalidGatewayResponseError{Message: "zarinpal: data.authority is missing"}
	}

	z.log.Info().Str("tracking_code", order.TrackingCode).Str("authority", authority).Msg("payment request created")
	return httpx.NewRequest(
		httpx.MethodGet,
		z.cfg.StartPaymentURL.Join(authority),
		z.cfg.Timeout,
		httpx.NewHeaders(nil),
		nil,
	), nil
}

// VerifyPayment confirms the charge for a reference number. Codes 100 and
// 101 both count as verified; anything else is a clean false.
func (z *Zarinpal) VerifyPayment(ctx context.Context, referenceNumber string, amount decimal.Decimal) (bool, error) {
	if z.cfg.Currency == currency.IRT {
		amount = currency.RialToToman(amount)
	}
	payload, err := z.send(ctx, z.cfg.VerifyURL, map[string]any{
		"merchant_id": z.cfg.MerchantCode,
		"authority":   referenceNumber,
		"amount":      amount.IntPart(),
	})
	if err != nil {
		return false, err
	}

	code, ok := dataInt(payload, "code")
	if !ok {
		return false, &domain.InvalidGatewayResponseError{Message: "zarinpal: data.code is missing on verify"}
	}
	verified := zarinpalVerifiedCodes[code]
	z.log.Info().Str("authority", referenceNumber).Int64("code", code).Bool("verified", verified).Msg("verify answered")
	return verified, nil
}

// ReversePayment voids an authorization that will not be completed.
func (z *Zarinpal) ReversePayment(ctx context.Context, referenceNumber string) (bool, error) {
	payload, err := z.send(ctx, z.cfg.ReverseURL, map[string]any{
		"merchant_id": z.cfg.MerchantCode,
		"authority":   referenceNumber,
	})
	if err != nil {
		return false, err
	}

	code, ok := dataInt(payload, "code")
	if !ok {
		return false, &domain.InvalidGatewayResponseError{Message: "zarinpal: data.code is missing on reverse"}
	}
	return zarinpalReversedCodes[code], nil
}

// InquiryPayment asks Zarinpal for the transaction's current status.
func (z *Zarinpal) InquiryPayment(ctx context.Context, referenceNumber string) (model.PaymentInquiryResult, error) {
	payload, err := z.send(ctx, z.cfg.InquiryURL, map[string]any{
		"merchant_id": z.cfg.MerchantCode,
		"authority":   referenceNumber,
	})
	if err != nil {
		return model.PaymentInquiryResult{}, err
	}

	raw, ok := dataString(payload, "status")
	if !ok || raw == "" {
		return model.PaymentInquiryResult{}, &domain.InvalidGatewayResponseError{Message: "zarinpal: data.status is missing on inquiry"}
	}
	status, known := zarinpalInquiryStatuses[raw]
	if !known {
		return model.PaymentInquiryResult{}, &domain.InvalidGatewayResponseError{Message: "zarinpal: unknown inquiry status " + raw}
	}
	extra := map[string]any{"status": raw}
	if code, ok := dataInt(payload, "code"); ok {
		extra["code"] = code
	}
	return model.PaymentInquiryResult{Status: status, ExtraInformation: extra}, nil
}

func (z *Zarinpal) payData(order model.OrderDetails) map[string]any {
	description := order.Description
	if description == "" {
		description = z.msg.Generate(message.TypeDescription, map[string]any{
			"tracking_code": order.TrackingCode,
		})
	}

	metadata := map[string]any{}
	if order.PhoneNumber != "" {
		metadata["mobile"] = order.PhoneNumber
	}
	if order.Email != "" {
		metadata["email"] = order.Email
	}
	if order.OrderID != "" {
		metadata["order_id"] = order.OrderID
	}

	// OrderDetails amounts are IRR; convert when the merchant account is
	// configured in Toman.
	amount := order.Amount
	if z.cfg.Currency == currency.IRT {
		amount = currency.RialToToman(amount)
	}

	return map[string]any{
		"merchant_id":  z.cfg.MerchantCode,
		"amount":       amount.IntPart(),
		"callback_url": z.cfg.CallbackURL(order).String(),
		"description":  description,
		"currency":     z.cfg.Currency.Code,
		"metadata":     metadata,
	}
}

// send POSTs body as JSON and returns the decoded payload, or the typed
// error for the failure class: *httpx.ConnectionError for transport,
// *httpx.InvalidJSONError for undecodable answers, *RejectPaymentError when
// the errors field is populated.
func (z *Zarinpal) send(ctx context.Context, endpoint httpx.URL, body map[string]any) (map[string]any, error) {
	req := httpx.NewRequest(
		httpx.MethodPost,
		endpoint,
		z.cfg.Timeout,
		httpx.NewHeaders(map[string]string{"Content-Type": "application/json", "Accept": "application/json"}),
		body,
	)
	resp, err := z.client.Send(ctx, req)
	if err != nil {
		z.log.Error().Err(err).Stringer("url", endpoint).Msg("gateway unreachable")
		return nil, err
	}

	payload, err := resp.JSON()
	if err != nil {
		return nil, err
	}
	if messages := extractErrorMessages(payload["errors"]); len(messages) > 0 {
		z.log.Warn().Strs("bank_messages", messages).Int("status", resp.StatusCode).Msg("gateway rejected payment")
		return nil, &domain.RejectPaymentError{BankMessages: messages}
	}
	if !resp.OK() {
		return nil, &domain.InvalidGatewayResponseError{Message: fmt.Sprintf("zarinpal: unexpected HTTP status %d without an errors payload", resp.StatusCode)}
	}
	return payload, nil
}
