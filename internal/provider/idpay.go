package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bank-gateways-hub/internal/domain"
	"bank-gateways-hub/internal/domain/model"
	"bank-gateways-hub/internal/domain/ports/adapter"
	"bank-gateways-hub/internal/httpx"
	"bank-gateways-hub/internal/message"
)

// BankIDPay tags the IDPay v1.1 adapter. IDPay authenticates with an
// X-API-KEY header instead of a body field and needs both its payment id and
// the original order id on verify/inquiry calls, so this adapter's reference
// numbers are the composite "<payment-id>:<order-id>" (the callback hands
// the integrator both parts).
const BankIDPay = "idpay"

const idpayReferenceSeparator = ":"

// idpayVerifiedCodes holds the verify statuses IDPay documents as a
// completed charge (100 = paid, 101 = verified before).
var idpayVerifiedCodes = map[int64]bool{100: true, 101: true}

// idpayStatusTable maps IDPay transaction statuses onto the shared enum.
// 200 means the funds were returned to the payer.
var idpayStatusTable = map[int64]model.PaymentStatus{
	1:   model.PaymentStatusPending, // waiting for payment
	10:  model.PaymentStatusPending, // in verify queue
	100: model.PaymentStatusPaid,
	101: model.PaymentStatusVerified,
	200: model.PaymentStatusReserved,
}

const idpayMinimumAmountIRR = 1000

type IDPayConfig struct {
	// APIKey is IDPay's merchant credential, sent as the X-API-KEY header.
	APIKey      string
	Sandbox     bool
	CallbackURL adapter.CallbackURL
	Timeout     time.Duration

	PaymentURL httpx.URL
	VerifyURL  httpx.URL
	InquiryURL httpx.URL
}

func NewIDPayConfig(cfg IDPayConfig) (IDPayConfig, error) {
	if cfg.APIKey == "" {
		return IDPayConfig{}, &domain.InvalidGatewayConfigError{Message: "idpay: api key is required"}
	}
	if cfg.CallbackURL == nil {
		return IDPayConfig{}, &domain.InvalidGatewayConfigError{Message: "idpay: callback URL generator is required"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.PaymentURL.IsZero() {
		cfg.PaymentURL = httpx.MustParse("https://api.idpay.ir/v1.1/payment")
	}
	if cfg.VerifyURL.IsZero() {
		cfg.VerifyURL = httpx.MustParse("https://api.idpay.ir/v1.1/payment/verify")
	}
	if cfg.InquiryURL.IsZero() {
		cfg.InquiryURL = httpx.MustParse("https://api.idpay.ir/v1.1/payment/inquiry")
	}
	return cfg, nil
}

type IDPay struct {
	domain.MinimumAmountCheck

	cfg    IDPayConfig
	msg    *message.Service
	client httpx.Client
	log    zerolog.Logger
}

var (
	_ adapter.Provider          = (*IDPay)(nil)
	_ adapter.ReferenceComposer = (*IDPay)(nil)
)

func NewIDPay(cfg IDPayConfig, msg *message.Service, client httpx.Client, log zerolog.Logger) *IDPay {
	return &IDPay{
		MinimumAmountCheck: domain.MinimumAmountCheck{Minimum: decimal.NewFromInt(idpayMinimumAmountIRR)},
		cfg:                cfg,
		msg:                msg,
		client:             client,
		log:                log.With().Str("bank", BankIDPay).Logger(),
	}
}

func (p *IDPay) Name() string { return BankIDPay }

func (p *IDPay) CreatePaymentRequest(ctx context.Context, order model.OrderDetails) (*httpx.Request, error) {
	if err := p.CheckMinimumAmount(order); err != nil {
		return nil, err
	}

	body := map[string]any{
		"order_id": order.TrackingCode,
		"amount":   order.Amount.IntPart(),
		"callback": p.cfg.CallbackURL(order).String(),
	}
	if order.PhoneNumber != "" {
		body["phone"] = order.PhoneNumber
	}
	if order.Email != "" {
		body["mail"] = order.Email
	}
	if name := strings.TrimSpace(order.FirstName + " " + order.LastName); name != "" {
		body["name"] = name
	}
	body["desc"] = order.Description
	if order.Description == "" {
		body["desc"] = p.msg.Generate(message.TypeDescription, map[string]any{
			"tracking_code": order.TrackingCode,
		})
	}

	payload, err := p.send(ctx, p.cfg.PaymentURL, body)
	if err != nil {
		return nil, err
	}

	id, _ := topString(payload, "id")
	link, _ := topString(payload, "link")
	if id == "" || link == "" {
		return nil, &domain.InvalidGatewayResponseError{Message: "idpay: id or link is missing"}
	}
	startURL, err := httpx.Parse(link)
	if err != nil {
		return nil, &domain.InvalidGatewayResponseError{Message: "idpay: malformed payment link: " + err.Error()}
	}

	p.log.Info().Str("tracking_code", order.TrackingCode).Str("payment_id", id).Msg("payment request created")
	return httpx.NewRequest(httpx.MethodGet, startURL, p.cfg.Timeout, httpx.NewHeaders(nil), nil), nil
}

// ComposeReference builds the stored reference at create time. The
// redirect's last path segment is IDPay's payment id; the tracking code is
// what IDPay echoes back as order_id on the callback, so the composite here
// must match what the callback layer reassembles from those two parameters.
func (p *IDPay) ComposeReference(order model.OrderDetails, redirect *httpx.Request) string {
	trimmed := strings.TrimRight(redirect.URL.String(), "/")
	id := trimmed
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		id = trimmed[i+1:]
	}
	return id + idpayReferenceSeparator + order.TrackingCode
}

func (p *IDPay) VerifyPayment(ctx context.Context, referenceNumber string, amount decimal.Decimal) (bool, error) {
	payload, err := p.send(ctx, p.cfg.VerifyURL, p.referenceBody(referenceNumber))
	if err != nil {
		return false, err
	}

	status, ok := topInt(payload, "status")
	if !ok {
		return false, &domain.InvalidGatewayResponseError{Message: "idpay: status is missing on verify"}
	}
	if reported, ok := topInt(payload, "amount"); ok && reported != amount.IntPart() {
		p.log.Warn().Int64("reported", reported).Int64("expected", amount.IntPart()).Msg("verify amount mismatch")
		return false, nil
	}
	verified := idpayVerifiedCodes[status]
	p.log.Info().Str("reference", referenceNumber).Int64("status", status).Bool("verified", verified).Msg("verify answered")
	return verified, nil
}

// ReversePayment: IDPay has no merchant-initiated reversal; unverified
// payments are refunded by the gateway automatically.
func (p *IDPay) ReversePayment(ctx context.Context, referenceNumber string) (bool, error) {
	return false, fmt.Errorf("idpay: reverse %s: %w", referenceNumber, domain.ErrOperationNotSupported)
}

func (p *IDPay) InquiryPayment(ctx context.Context, referenceNumber string) (model.PaymentInquiryResult, error) {
	payload, err := p.send(ctx, p.cfg.InquiryURL, p.referenceBody(referenceNumber))
	if err != nil {
		return model.PaymentInquiryResult{}, err
	}

	status, ok := topInt(payload, "status")
	if !ok {
		return model.PaymentInquiryResult{}, &domain.InvalidGatewayResponseError{Message: "idpay: status is missing on inquiry"}
	}
	mapped, known := idpayStatusTable[status]
	if !known {
		mapped = model.PaymentStatusFailed
	}
	extra := map[string]any{"status": status}
	if trackID, ok := topString(payload, "track_id"); ok {
		extra["track_id"] = trackID
	}
	return model.PaymentInquiryResult{Status: mapped, ExtraInformation: extra}, nil
}

// referenceBody splits the composite reference back into IDPay's id and
// order_id fields.
func (p *IDPay) referenceBody(referenceNumber string) map[string]any {
	body := map[string]any{}
	id, orderID, found := strings.Cut(referenceNumber, idpayReferenceSeparator)
	body["id"] = id
	if found {
		body["order_id"] = orderID
	}
	return body
}

func (p *IDPay) send(ctx context.Context, endpoint httpx.URL, body map[string]any) (map[string]any, error) {
	sandbox := "0"
	if p.cfg.Sandbox {
		sandbox = "1"
	}
	req := httpx.NewRequest(
		httpx.MethodPost,
		endpoint,
		p.cfg.Timeout,
		httpx.NewHeaders(map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"X-API-KEY":    p.cfg.APIKey,
			"X-SANDBOX":    sandbox,
		}),
		body,
	)
	resp, err := p.client.Send(ctx, req)
	if err != nil {
		p.log.Error().Err(err).Stringer("url", endpoint).Msg("gateway unreachable")
		return nil, err
	}

	payload, err := resp.JSON()
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		// IDPay reports failures as {"error_code": n, "error_message": s}
		// with a 4xx status.
		msg, _ := topString(payload, "error_message")
		if msg == "" {
			msg = p.msg.Generate(message.TypeRejectedPayment, nil)
		}
		p.log.Warn().Int("status", resp.StatusCode).Str("bank_message", msg).Msg("gateway rejected payment")
		return nil, &domain.RejectPaymentError{BankMessages: []string{msg}}
	}
	return payload, nil
}
