package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bank-gateways-hub/internal/domain"
	"bank-gateways-hub/internal/domain/model"
	"bank-gateways-hub/internal/domain/ports/adapter"
	"bank-gateways-hub/internal/httpx"
	"bank-gateways-hub/internal/message"
)

// BankZibal tags the Zibal v1 adapter.
const BankZibal = "zibal"

// Zibal answers with a flat payload: "result" is the call outcome (100 =
// accepted) and "status" the transaction state. Verification succeeds only
// for result 100 with status 1.
const (
	zibalResultOK            = 100
	zibalStatusPaidVerified  = 1
	zibalStatusPaidUnclaimed = 2
	zibalStatusPendingPay    = -1
)

// zibalStatusTable maps Zibal transaction statuses onto the shared enum.
// Statuses outside the table are failures (cancelled, invalid card,
// insufficient funds, expired).
var zibalStatusTable = map[int64]model.PaymentStatus{
	zibalStatusPaidVerified:  model.PaymentStatusVerified,
	zibalStatusPaidUnclaimed: model.PaymentStatusPaid,
	zibalStatusPendingPay:    model.PaymentStatusPending,
}

const zibalMinimumAmountIRR = 1000

// ZibalConfig is the immutable per-merchant configuration.
type ZibalConfig struct {
	MerchantCode string
	CallbackURL  adapter.CallbackURL
	Timeout      time.Duration

	RequestURL      httpx.URL
	StartPaymentURL httpx.URL
	VerifyURL       httpx.URL
	InquiryURL      httpx.URL
}

func NewZibalConfig(cfg ZibalConfig) (ZibalConfig, error) {
	if cfg.MerchantCode == "" {
		return ZibalConfig{}, &domain.InvalidGatewayConfigError{Message: "zibal: merchant code is required"}
	}
	if cfg.CallbackURL == nil {
		return ZibalConfig{}, &domain.InvalidGatewayConfigError{Message: "zibal: callback URL generator is required"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RequestURL.IsZero() {
		cfg.RequestURL = httpx.MustParse("https://gateway.zibal.ir/v1/request")
	}
	if cfg.StartPaymentURL.IsZero() {
		cfg.StartPaymentURL = httpx.MustParse("https://gateway.zibal.ir/start")
	}
	if cfg.VerifyURL.IsZero() {
		cfg.VerifyURL = httpx.MustParse("https://gateway.zibal.ir/v1/verify")
	}
	if cfg.InquiryURL.IsZero() {
		cfg.InquiryURL = httpx.MustParse("https://gateway.zibal.ir/v1/inquiry")
	}
	return cfg, nil
}

// Zibal talks IRR and identifies transactions by a numeric trackId.
type Zibal struct {
	domain.MinimumAmountCheck

	cfg    ZibalConfig
	msg    *message.Service
	client httpx.Client
	log    zerolog.Logger
}

var _ adapter.Provider = (*Zibal)(nil)

func NewZibal(cfg ZibalConfig, msg *message.Service, client httpx.Client, log zerolog.Logger) *Zibal {
	return &Zibal{
		MinimumAmountCheck: domain.MinimumAmountCheck{Minimum: decimal.NewFromInt(zibalMinimumAmountIRR)},
		cfg:                cfg,
		msg:                msg,
		client:             client,
		log:                log.With().Str("bank", BankZibal).Logger(),
	}
}

func (z *Zibal) Name() string { return BankZibal }

func (z *Zibal) CreatePaymentRequest(ctx context.Context, order model.OrderDetails) (*httpx.Request, error) {
	if err := z.CheckMinimumAmount(order); err != nil {
		return nil, err
	}

	body := map[string]any{
		"merchant":    z.cfg.MerchantCode,
		"amount":      order.Amount.IntPart(),
		"callbackUrl": z.cfg.CallbackURL(order).String(),
		"orderId":     order.TrackingCode,
	}
	if order.PhoneNumber != "" {
		body["mobile"] = order.PhoneNumber
	}
	if order.Description != "" {
		body["description"] = order.Description
	} else {
		body["description"] = z.msg.Generate(message.TypeDescription, map[string]any{
			"tracking_code": order.TrackingCode,
		})
	}

	payload, err := z.send(ctx, z.cfg.RequestURL, body)
	if err != nil {
		return nil, err
	}

	trackID, ok := topInt(payload, "trackId")
	if !ok {
		return nil, &domain.InvalidGatewayResponseError{Message: "zibal: trackId is missing"}
	}
	reference := strconv.FormatInt(trackID, 10)
	z.log.Info().Str("tracking_code", order.TrackingCode).Str("track_id", reference).Msg("payment request created")

	return httpx.NewRequest(
		httpx.MethodGet,
		z.cfg.StartPaymentURL.Join(reference),
		z.cfg.Timeout,
		httpx.NewHeaders(nil),
		nil,
	), nil
}

func (z *Zibal) VerifyPayment(ctx context.Context, referenceNumber string, amount decimal.Decimal) (bool, error) {
	payload, err := z.send(ctx, z.cfg.VerifyURL, z.referenceBody(referenceNumber))
	if err != nil {
		return false, err
	}

	status, ok := topInt(payload, "status")
	if !ok {
		return false, &domain.InvalidGatewayResponseError{Message: "zibal: status is missing on verify"}
	}
	if reported, ok := topInt(payload, "amount"); ok && reported != amount.IntPart() {
		z.log.Warn().Int64("reported", reported).Int64("expected", amount.IntPart()).Str("track_id", referenceNumber).Msg("verify amount mismatch")
		return false, nil
	}
	verified := status == zibalStatusPaidVerified
	z.log.Info().Str("track_id", referenceNumber).Int64("status", status).Bool("verified", verified).Msg("verify answered")
	return verified, nil
}

// ReversePayment: Zibal exposes no reversal endpoint; authorizations expire
// on their own.
func (z *Zibal) ReversePayment(ctx context.Context, referenceNumber string) (bool, error) {
	return false, fmt.Errorf("zibal: reverse %s: %w", referenceNumber, domain.ErrOperationNotSupported)
}

func (z *Zibal) InquiryPayment(ctx context.Context, referenceNumber string) (model.PaymentInquiryResult, error) {
	payload, err := z.send(ctx, z.cfg.InquiryURL, z.referenceBody(referenceNumber))
	if err != nil {
		return model.PaymentInquiryResult{}, err
	}

	status, ok := topInt(payload, "status")
	if !ok {
		return model.PaymentInquiryResult{}, &domain.InvalidGatewayResponseError{Message: "zibal: status is missing on inquiry"}
	}
	mapped, known := zibalStatusTable[status]
	if !known {
		mapped = model.PaymentStatusFailed
	}
	extra := map[string]any{"status": status}
	if msg, ok := topString(payload, "message"); ok {
		extra["message"] = msg
	}
	if amount, ok := topInt(payload, "amount"); ok {
		extra["amount"] = amount
	}
	return model.PaymentInquiryResult{Status: mapped, ExtraInformation: extra}, nil
}

func (z *Zibal) referenceBody(referenceNumber string) map[string]any {
	body := map[string]any{"merchant": z.cfg.MerchantCode}
	// Zibal issues numeric track ids; send a number when the reference is
	// one so the gateway does not reject the type.
	if trackID, err := strconv.ParseInt(referenceNumber, 10, 64); err == nil {
		body["trackId"] = trackID
	} else {
		body["trackId"] = referenceNumber
	}
	return body
}

// send POSTs body as JSON and handles Zibal's flat answer shape: a non-100
// "result" is a rejection whose "message" is the bank's text.
func (z *Zibal) send(ctx context.Context, endpoint httpx.URL, body map[string]any) (map[string]any, error) {
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
	result, ok := topInt(payload, "result")
	if !ok {
		return nil, &domain.InvalidGatewayResponseError{Message: "zibal: result is missing"}
	}
	if result != zibalResultOK {
		msg, _ := topString(payload, "message")
		if msg == "" {
			msg = z.msg.Generate(message.TypeRejectedPayment, nil)
		}
		z.log.Warn().Int64("result", result).Str("bank_message", msg).Msg("gateway rejected payment")
		return nil, &domain.RejectPaymentError{BankMessages: []string{msg}}
	}
	return payload, nil
}
