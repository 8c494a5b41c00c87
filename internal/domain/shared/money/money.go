package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// minorUnits maps ISO currency codes to the number of decimal places a
// guest-facing amount carries. Rupees and yen are quoted in whole units.
var minorUnits = map[string]int32{
	"INR": 0,
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
}

// Money pairs a decimal amount with an explicit currency code.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// New constructs a Money value validating minimal invariants.
func New(amount decimal.Decimal, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount decimal.Decimal, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// MustInt is shorthand for whole-unit amounts.
func MustInt(amount int64, currency string) Money {
	return Must(decimal.NewFromInt(amount), currency)
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Mul scales the amount by a decimal factor preserving currency.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// WithAmount returns a copy carrying the given amount in the same currency.
func (m Money) WithAmount(amount decimal.Decimal) Money {
	return Money{Amount: amount, Currency: m.Currency}
}

// RoundMinor rounds half-up to the currency's minor-unit precision.
func (m Money) RoundMinor() Money {
	places, ok := minorUnits[m.Currency]
	if !ok {
		places = 2
	}
	return Money{Amount: m.Amount.Round(places), Currency: m.Currency}
}

// ClampZero floors the amount at zero, reporting whether clamping occurred.
func (m Money) ClampZero() (Money, bool) {
	if m.Amount.IsNegative() {
		return Money{Amount: decimal.Zero, Currency: m.Currency}, true
	}
	return m, false
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// LessThan compares amounts; callers must have matched currencies already.
func (m Money) LessThan(other Money) bool {
	return m.Amount.LessThan(other.Amount)
}

func (m Money) String() string {
	return m.Amount.String() + " " + m.Currency
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
