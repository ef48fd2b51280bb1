// Package currency holds the process-wide registry of supported currencies.
// The registry is populated during startup (IRR and IRT are pre-registered)
// and read-only afterwards; concurrent registration is not supported.
package currency

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Currency is a value object for one supported currency code.
type Currency struct {
	Code string
	Name string
}

var ten = decimal.NewFromInt(10)

// Rial and Toman are the two codes Iranian gateways speak.
var (
	IRR = Currency{Code: "IRR", Name: "Rial"}
	IRT = Currency{Code: "IRT", Name: "Toman"}
)

// RialToToman converts an IRR amount to IRT.
func RialToToman(amount decimal.Decimal) decimal.Decimal { return amount.Div(ten) }

// TomanToRial converts an IRT amount to IRR.
func TomanToRial(amount decimal.Decimal) decimal.Decimal { return amount.Mul(ten) }

var registry = map[string]Currency{}

func init() {
	Register(IRR)
	Register(IRT)
}

// Register inserts or overwrites a currency. Confine calls to startup.
func Register(c Currency) { registry[c.Code] = c }

// Get returns the currency registered under code.
func Get(code string) (Currency, error) {
	c, ok := registry[code]
	if !ok {
		return Currency{}, fmt.Errorf("currency %q is not registered", code)
	}
	return c, nil
}

// List returns all registered currencies, ordered by code.
func List() []Currency {
	out := make([]Currency, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
