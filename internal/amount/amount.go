// Package amount parses locale formatted monetary strings.
//
// Two notations are supported:
//
//	ParseAmount:        "-1 234,56 PLN"  space grouped, comma decimal, trailing currency
//	ParseDecimalComma:  "-4355,13"       comma decimal, no grouping, no currency
package amount

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"statement-importer/pkg/errors"
)

// NoAmount is the sentinel bank exports use for an empty amount cell
const NoAmount = "-"

// Amount is a parsed monetary value with its currency code
type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

var groupedAmount = regexp.MustCompile(`^(-?[\d\s\x{00a0}\x{202f}]+,\d+)[\s\x{00a0}]+(\w+)$`)

// ParseAmount parses a space grouped, comma decimal amount followed by a
// currency code. The "-" sentinel yields a zero value with no currency.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == NoAmount {
		return Amount{Value: decimal.Zero}, nil
	}

	match := groupedAmount.FindStringSubmatch(s)
	if match == nil {
		return Amount{}, errors.FormatError(errors.Location{}, s, "amount like '-1 234,56 PLN'", nil)
	}

	number := strings.Map(func(r rune) rune {
		if isSpace(r) {
			return -1
		}
		return r
	}, match[1])
	number = strings.Replace(number, ",", ".", 1)

	value, err := decimal.NewFromString(number)
	if err != nil {
		return Amount{}, errors.FormatError(errors.Location{}, s, "amount like '-1 234,56 PLN'", err)
	}

	return Amount{Value: value, Currency: match[2]}, nil
}

// ParseDecimalComma parses a plain decimal written with a comma separator.
// Non numeric input yields NaN rather than an error; callers decide whether a
// missing amount is acceptable.
func ParseDecimalComma(s string) float64 {
	normalized := strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return math.NaN()
	}
	return value
}

// ToNullDecimal converts a ParseDecimalComma result; NaN becomes an absent value
func ToNullDecimal(f float64) decimal.NullDecimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(f), Valid: true}
}

// isSpace covers the regular and no-break spaces banks use as thousands separators
func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\u00a0', '\u202f':
		return true
	default:
		return false
	}
}
