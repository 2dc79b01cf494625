package mailer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnitExponent lists ISO-4217 currencies whose minor unit is not 1/100.
var minorUnitExponent = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"CLP": 0,
	"ISK": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
	"JOD": 3,
	"TND": 3,
}

// FormatAmount renders an amount in minor units, e.g. 2599 USD -> "25.99 USD".
func FormatAmount(minor int64, currency string) string {
	currency = strings.ToUpper(currency)
	exp, ok := minorUnitExponent[currency]
	if !ok {
		exp = 2
	}
	return decimal.New(minor, -exp).StringFixed(exp) + " " + currency
}
