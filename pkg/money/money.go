// Package money provides a value object for monetary amounts.
//
// Invariants:
//   - Amounts are stored in centavos (the smallest BRL unit).
//   - An amount never carries more decimal places than the currency allows.
//   - Negative donation amounts are rejected at construction time.
package money

import (
	"encoding/json"
	"fmt"
	"math"
)

var (
	// ErrInvalidAmount is returned when an amount is not a finite number.
	ErrInvalidAmount = fmt.Errorf("invalid amount")

	// ErrNegativeAmount is returned when an amount is below zero.
	ErrNegativeAmount = fmt.Errorf("amount must not be negative")

	// ErrAmountExceedsMaxSafeInt is returned when an amount overflows int64 centavos.
	ErrAmountExceedsMaxSafeInt = fmt.Errorf("amount exceeds maximum safe integer value")

	// ErrTooManyDecimals is returned when an amount has sub-centavo precision.
	ErrTooManyDecimals = fmt.Errorf("amount has more decimal places than the currency allows")
)

// CurrencyCode is the ISO 4217 code all marketplace amounts are denominated in.
const CurrencyCode = "BRL"

// Decimals is the number of decimal places for BRL.
const Decimals = 2

// Money represents a monetary value in centavos.
type Money struct {
	centavos int64
}

// New creates a Money value from a decimal amount (e.g. 50.00 reais).
// The amount must be finite, non-negative and have at most two decimal places.
func New(amount float64) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, ErrInvalidAmount
	}
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	scaled := amount * math.Pow10(Decimals)
	if scaled > math.MaxInt64 {
		return Money{}, ErrAmountExceedsMaxSafeInt
	}
	rounded := math.Round(scaled)
	if math.Abs(scaled-rounded) > 1e-6 {
		return Money{}, fmt.Errorf("%w: %v", ErrTooManyDecimals, amount)
	}
	return Money{centavos: int64(rounded)}, nil
}

// Must creates a Money value and panics on invalid input. For tests and constants.
func Must(amount float64) Money {
	m, err := New(amount)
	if err != nil {
		panic(fmt.Sprintf("money.Must(%v): %v", amount, err))
	}
	return m
}

// FromCentavos creates a Money value from raw centavos. Used for DB hydration.
func FromCentavos(centavos int64) Money {
	return Money{centavos: centavos}
}

// Centavos returns the amount in the smallest currency unit.
func (m Money) Centavos() int64 { return m.centavos }

// Float64 returns the amount as a decimal number of reais.
func (m Money) Float64() float64 {
	return float64(m.centavos) / math.Pow10(Decimals)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.centavos > 0 }

// LessThan reports whether m is strictly smaller than other.
func (m Money) LessThan(other Money) bool { return m.centavos < other.centavos }

// GreaterThan reports whether m is strictly larger than other.
func (m Money) GreaterThan(other Money) bool { return m.centavos > other.centavos }

// String formats the amount with the currency code, e.g. "50.00 BRL".
func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.Float64(), CurrencyCode)
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"amount":   m.centavos,
		"currency": CurrencyCode,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	var aux struct {
		Amount int64 `json:"amount"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.centavos = aux.Amount
	return nil
}
