package provider

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zero-decimal and three-decimal currencies; everything else uses two
var minorUnits = map[string]int32{
	"bif": 0, "clp": 0, "djf": 0, "gnf": 0, "jpy": 0, "kmf": 0, "krw": 0,
	"mga": 0, "pyg": 0, "rwf": 0, "ugx": 0, "vnd": 0, "vuv": 0, "xaf": 0,
	"xof": 0, "xpf": 0,
	"bhd": 3, "jod": 3, "kwd": 3, "omr": 3, "tnd": 3,
}

// NormalizeCurrency lower-cases the code and applies the default
func NormalizeCurrency(currency string) string {
	c := strings.ToLower(strings.TrimSpace(currency))
	if c == "" {
		return DefaultCurrency
	}
	return c
}

// MinorUnits returns the number of decimal places of the currency
func MinorUnits(currency string) int32 {
	if exp, ok := minorUnits[NormalizeCurrency(currency)]; ok {
		return exp
	}
	return 2
}

// FormatAmount renders a minor-unit amount as a fixed-point decimal string,
// e.g. 1050 usd -> "10.50"
func FormatAmount(amount int64, currency string) string {
	exp := MinorUnits(currency)
	return decimal.New(amount, -exp).StringFixed(exp)
}

// ParseAmount converts a decimal string into minor units
func ParseAmount(value, currency string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, InvalidRequestf("amount", "invalid decimal amount %q", value)
	}
	exp := MinorUnits(currency)
	scaled := d.Shift(exp)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, InvalidRequestf("amount", "amount %q has more than %d decimal places", value, exp)
	}
	return scaled.IntPart(), nil
}
