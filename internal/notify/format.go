package notify

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// FormatAmount renders amount in the currency's standard precision, prefixed
// with its ISO code, e.g. "INR 1250.50".
func FormatAmount(unit currency.Unit, amount decimal.Decimal) string {
	scale, _ := currency.Standard.Rounding(unit)
	return fmt.Sprintf("%s %s", unit, amount.StringFixed(int32(scale)))
}

// ParseCurrency parses an ISO 4217 code. An empty code means INR.
func ParseCurrency(code string) (currency.Unit, error) {
	if code == "" {
		return currency.MustParseISO("INR"), nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("invalid currency %q: %w", code, err)
	}
	return unit, nil
}
