// Package message generates the human-readable strings the gateway layer
// attaches to payment descriptions and error reports. Templates are plain
// "{name}" placeholders; callers may override any default by passing
// "<type>_template" in the context.
package message

import (
	"fmt"
	"strings"
)

// Type keys a message template.
type Type string

const (
	TypeDescription     Type = "description"
	TypeTimeoutError    Type = "timeout_error"
	TypeConnectionError Type = "connection_error"
	TypeRejectedPayment Type = "rejected_payment"
	TypeMinimumAmount   Type = "minimum_amount"
	TypeResponseNotJSON Type = "response_is_not_json"
	TypeJSONDecodeError Type = "json_decode_error"
)

var defaultTemplates = map[Type]string{
	TypeDescription:     "Purchase with tracking code - {tracking_code}",
	TypeTimeoutError:    "Timeout while connecting to {url} with data {data}",
	TypeConnectionError: "Connection error while connecting to {url} with data {data}",
	TypeRejectedPayment: "Gateway rejected payment",
	TypeMinimumAmount:   "Minimum amount is {minimum_amount}",
	TypeResponseNotJSON: "Gateway response is not JSON",
	TypeJSONDecodeError: "Failed to decode gateway response: {reason}",
}

var requiredParameters = map[Type][]string{
	TypeDescription:     {"tracking_code"},
	TypeTimeoutError:    {"url", "data"},
	TypeConnectionError: {"url", "data"},
	TypeRejectedPayment: {},
	TypeMinimumAmount:   {"minimum_amount"},
	TypeResponseNotJSON: {},
	TypeJSONDecodeError: {"reason"},
}

// Service is purely functional and safe for concurrent use; the default
// tables above are never written after init.
type Service struct{}

func NewService() *Service { return &Service{} }

// Generate renders the template for t, interpolating context values. A
// "<type>_template" context key overrides the default template for this one
// call.
func (s *Service) Generate(t Type, context map[string]any) string {
	template := defaultTemplates[t]
	if override, ok := context[string(t)+"_template"].(string); ok {
		template = override
	}
	out := template
	for key, value := range context {
		out = strings.ReplaceAll(out, "{"+key+"}", fmt.Sprintf("%v", value))
	}
	return out
}

// RequiredParameters declares which context keys t expects, so callers can
// validate completeness before generating. Nil means the type is unknown.
func (s *Service) RequiredParameters(t Type) []string {
	params, ok := requiredParameters[t]
	if !ok {
		return nil
	}
	out := make([]string, len(params))
	copy(out, params)
	return out
}
