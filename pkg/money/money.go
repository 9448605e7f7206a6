// Package money provides a fixed-point monetary amount with an explicit
// currency tag and checked arithmetic.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Currency tags an amount. The system runs on a single currency, but
// arithmetic still refuses to mix tags.
type Currency string

// IDR is the system currency (Indonesian rupiah, no minor subunit).
const IDR Currency = "IDR"

var (
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// Value is an immutable amount in minor units of its currency.
type Value struct {
	amount   int64
	currency Currency
}

// New validates a currency tag and wraps the raw amount. Negative amounts
// are representable (they occur transiently inside computations) but must
// never be persisted as a balance.
func New(amount int64, currency Currency) (Value, error) {
	if strings.TrimSpace(string(currency)) == "" {
		return Value{}, fmt.Errorf("%w: empty tag", ErrInvalidCurrency)
	}
	return Value{amount: amount, currency: currency}, nil
}

// NewPositive validates that the amount is strictly greater than zero.
func NewPositive(amount int64, currency Currency) (Value, error) {
	value, err := New(amount, currency)
	if err != nil {
		return Value{}, err
	}
	if amount <= 0 {
		return Value{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return value, nil
}

// Zero returns the zero amount of a currency.
func Zero(currency Currency) Value {
	return Value{amount: 0, currency: currency}
}

// Amount returns the raw minor-unit amount.
func (value Value) Amount() int64 {
	return value.amount
}

// Currency returns the currency tag.
func (value Value) Currency() Currency {
	if value.currency == "" {
		return IDR
	}
	return value.currency
}

// Add returns value + other, rejecting cross-currency operands.
func (value Value) Add(other Value) (Value, error) {
	if value.Currency() != other.Currency() {
		return Value{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, value.Currency(), other.Currency())
	}
	return Value{amount: value.amount + other.amount, currency: value.Currency()}, nil
}

// Sub returns value - other, rejecting cross-currency operands. The result
// may be negative; callers persisting balances must check IsNegative first.
func (value Value) Sub(other Value) (Value, error) {
	if value.Currency() != other.Currency() {
		return Value{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, value.Currency(), other.Currency())
	}
	return Value{amount: value.amount - other.amount, currency: value.Currency()}, nil
}

// Cmp returns -1, 0, or 1 comparing value against other. Cross-currency
// comparison is a programming error and reported as such.
func (value Value) Cmp(other Value) (int, error) {
	if value.Currency() != other.Currency() {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, value.Currency(), other.Currency())
	}
	switch {
	case value.amount < other.amount:
		return -1, nil
	case value.amount > other.amount:
		return 1, nil
	default:
		return 0, nil
	}
}

// LessThan reports value < other for same-currency operands.
func (value Value) LessThan(other Value) (bool, error) {
	comparison, err := value.Cmp(other)
	if err != nil {
		return false, err
	}
	return comparison < 0, nil
}

// IsPositive reports amount > 0.
func (value Value) IsPositive() bool {
	return value.amount > 0
}

// IsNegative reports amount < 0.
func (value Value) IsNegative() bool {
	return value.amount < 0
}

// IsZero reports amount == 0.
func (value Value) IsZero() bool {
	return value.amount == 0
}

// Mul returns value multiplied by a non-negative quantity.
func (value Value) Mul(quantity int64) (Value, error) {
	if quantity < 0 {
		return Value{}, fmt.Errorf("%w: negative quantity", ErrInvalidAmount)
	}
	return Value{amount: value.amount * quantity, currency: value.Currency()}, nil
}

// Format renders the amount in the conventional rupiah style, e.g. "Rp 12.000".
func (value Value) Format() string {
	negative := value.amount < 0
	digits := strconv.FormatInt(value.amount, 10)
	if negative {
		digits = digits[1:]
	}
	var grouped strings.Builder
	leading := len(digits) % 3
	if leading > 0 {
		grouped.WriteString(digits[:leading])
	}
	for index := leading; index < len(digits); index += 3 {
		if grouped.Len() > 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteString(digits[index : index+3])
	}
	if grouped.Len() == 0 {
		grouped.WriteString("0")
	}
	if negative {
		return "-Rp " + grouped.String()
	}
	return "Rp " + grouped.String()
}

// String implements fmt.Stringer.
func (value Value) String() string {
	return value.Format()
}
