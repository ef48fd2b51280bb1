package provider

import (
	"sort"

	"github.com/rs/zerolog"

	"bank-gateways-hub/internal/domain"
	"bank-gateways-hub/internal/domain/ports/adapter"
	"bank-gateways-hub/internal/httpx"
	"bank-gateways-hub/internal/message"
)

// Deps bundles the collaborators every adapter is constructed with.
type Deps struct {
	Messages *message.Service
	Client   httpx.Client
	Logger   zerolog.Logger
}

// Settings carries the per-bank configs an installation may enable. Only
// banks with a non-nil config are constructible.
type Settings struct {
	Zarinpal *ZarinpalConfig
	Zibal    *ZibalConfig
	IDPay    *IDPayConfig
}

type constructor func(s Settings, deps Deps) (adapter.Provider, error)

// registry maps bank tags to constructors at compile time; configuration
// strings are resolved here once at startup, never per request.
var registry = map[string]constructor{
	BankZarinpal: func(s Settings, deps Deps) (adapter.Provider, error) {
		if s.Zarinpal == nil {
			return nil, &domain.InvalidGatewayConfigError{Message: "zarinpal is not configured"}
		}
		cfg, err := NewZarinpalConfig(*s.Zarinpal)
		if err != nil {
			return nil, err
		}
		return NewZarinpal(cfg, deps.Messages, deps.Client, deps.Logger), nil
	},
	BankZibal: func(s Settings, deps Deps) (adapter.Provider, error) {
		if s.Zibal == nil {
			return nil, &domain.InvalidGatewayConfigError{Message: "zibal is not configured"}
		}
		cfg, err := NewZibalConfig(*s.Zibal)
		if err != nil {
			return nil, err
		}
		return NewZibal(cfg, deps.Messages, deps.Client, deps.Logger), nil
	},
	BankIDPay: func(s Settings, deps Deps) (adapter.Provider, error) {
		if s.IDPay == nil {
			return nil, &domain.InvalidGatewayConfigError{Message: "idpay is not configured"}
		}
		cfg, err := NewIDPayConfig(*s.IDPay)
		if err != nil {
			return nil, err
		}
		return NewIDPay(cfg, deps.Messages, deps.Client, deps.Logger), nil
	},
}

// New builds the provider registered under tag.
func New(tag string, s Settings, deps Deps) (adapter.Provider, error) {
	build, ok := registry[tag]
	if !ok {
		return nil, &domain.InvalidGatewayConfigError{Message: "unknown bank tag " + tag}
	}
	return build(s, deps)
}

// Tags lists the bank tags this build knows, sorted.
func Tags() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
