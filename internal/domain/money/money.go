package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrDivisionByZero   = errors.New("division by zero")
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// decimalPlaces holds the per-currency precision overrides. Anything not
// listed uses defaultPlaces. The table can be extended at startup via
// SetPrecision; it is not meant to be mutated once the engine is serving.
var decimalPlaces = map[string]int32{
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0,
	"KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0,
	"XOF": 0, "XPF": 0,
}

const defaultPlaces int32 = 2

// SetPrecision overrides the number of decimal places for a currency code.
func SetPrecision(currency string, places int32) {
	decimalPlaces[currency] = places
}

// Places returns the number of decimal places used for the given currency.
func Places(currency string) int32 {
	if p, ok := decimalPlaces[currency]; ok {
		return p
	}
	return defaultPlaces
}

// Money is an immutable amount in a single currency. The amount is always
// held rounded (half-up) to the currency's decimal places; every operation
// re-rounds its result immediately rather than deferring to the end, so
// cent-level drift matches the servicing ledgers exactly.
type Money struct {
	currency string
	amount   decimal.Decimal
}

// New builds a Money value, validating the currency code and rounding the
// amount to the currency's precision.
func New(currency string, amount decimal.Decimal) (Money, error) {
	if !currencyCodeRe.MatchString(currency) {
		return Money{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", currency)
	}
	return Money{currency: currency, amount: amount.Round(Places(currency))}, nil
}

// NewFromString parses the amount before delegating to New.
func NewFromString(currency, amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return New(currency, d)
}

// Zero returns zero in the given currency.
func Zero(currency string) (Money, error) {
	return New(currency, decimal.Zero)
}

// MustNew is for tests and package-level fixtures only.
func MustNew(currency string, amount decimal.Decimal) Money {
	m, err := New(currency, amount)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Currency() string         { return m.currency }
func (m Money) Amount() decimal.Decimal  { return m.amount }
func (m Money) IsZero() bool             { return m.amount.IsZero() }
func (m Money) IsPositive() bool         { return m.amount.IsPositive() }
func (m Money) IsNegative() bool         { return m.amount.IsNegative() }

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}

func (m Money) rounded(amount decimal.Decimal) Money {
	return Money{currency: m.currency, amount: amount.Round(Places(m.currency))}
}

// Plus returns m + other.
func (m Money) Plus(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return m.rounded(m.amount.Add(other.amount)), nil
}

// Minus returns m - other.
func (m Money) Minus(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return m.rounded(m.amount.Sub(other.amount)), nil
}

// MultipliedBy returns m scaled by factor.
func (m Money) MultipliedBy(factor decimal.Decimal) Money {
	return m.rounded(m.amount.Mul(factor))
}

// DividedBy returns m divided by divisor.
func (m Money) DividedBy(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, ErrDivisionByZero
	}
	return m.rounded(m.amount.Div(divisor)), nil
}

func (m Money) Negated() Money  { return Money{currency: m.currency, amount: m.amount.Neg()} }
func (m Money) Absolute() Money { return Money{currency: m.currency, amount: m.amount.Abs()} }

// Comparisons require matching currencies and surface the mismatch.

func (m Money) Equal(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.Equal(other.amount), nil
}

func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

func (m Money) LessThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

// RoundToMultiplesOf rounds m to the nearest whole multiple of multiple,
// ties rounding up (away from zero for positive amounts).
func RoundToMultiplesOf(m Money, multiple decimal.Decimal) (Money, error) {
	if multiple.IsZero() {
		return Money{}, ErrDivisionByZero
	}
	q := m.amount.Div(multiple).Round(0)
	return m.rounded(q.Mul(multiple)), nil
}

// String formats as "<amount> <code>", e.g. "112.00 USD".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(Places(m.currency)), m.currency)
}

type moneyJSON struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Currency: m.currency, Amount: m.amount})
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := New(raw.Currency, raw.Amount)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
