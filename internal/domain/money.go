package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CHF Currency = "CHF"
)

var knownCurrencies = []Currency{EUR, USD, GBP, JPY, CHF}

// ParseCurrency is case-insensitive and rejects anything outside the known set.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, k := range knownCurrencies {
		if c == k {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, s)
}

// Rates converts amounts into a single reference currency. Each rate is the
// value of one unit of the currency expressed in the reference currency.
type Rates struct {
	reference Currency
	table     map[Currency]decimal.Decimal
}

func DefaultRateTable() map[Currency]decimal.Decimal {
	return map[Currency]decimal.Decimal{
		EUR: decimal.NewFromInt(1),
		USD: decimal.RequireFromString("0.92"),
		GBP: decimal.RequireFromString("1.17"),
		JPY: decimal.RequireFromString("0.0063"),
		CHF: decimal.RequireFromString("1.06"),
	}
}

// DefaultRates is the EUR-referenced illustrative table.
func DefaultRates() Rates {
	r, _ := NewRates(EUR, DefaultRateTable())
	return r
}

func NewRates(reference Currency, table map[Currency]decimal.Decimal) (Rates, error) {
	if _, err := ParseCurrency(string(reference)); err != nil {
		return Rates{}, err
	}
	cp := make(map[Currency]decimal.Decimal, len(table)+1)
	for c, r := range table {
		if _, err := ParseCurrency(string(c)); err != nil {
			return Rates{}, err
		}
		if !r.IsPositive() {
			return Rates{}, fmt.Errorf("%w: rate for %s must be positive", ErrInvalidMoneyAmount, c)
		}
		cp[c] = r
	}
	if r, ok := cp[reference]; ok && !r.Equal(decimal.NewFromInt(1)) {
		return Rates{}, fmt.Errorf("%w: reference %s must have rate 1", ErrInvalidMoneyAmount, reference)
	}
	cp[reference] = decimal.NewFromInt(1)
	return Rates{reference: reference, table: cp}, nil
}

// With returns a copy where the given rates override existing ones.
func (r Rates) With(overrides map[Currency]decimal.Decimal) (Rates, error) {
	merged := make(map[Currency]decimal.Decimal, len(r.table)+len(overrides))
	for c, v := range r.table {
		merged[c] = v
	}
	for c, v := range overrides {
		if c == r.reference {
			continue
		}
		merged[c] = v
	}
	return NewRates(r.reference, merged)
}

func (r Rates) Reference() Currency { return r.reference }

func (r Rates) Rate(c Currency) (decimal.Decimal, error) {
	v, ok := r.table[c]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no rate for %q", ErrUnsupportedCurrency, c)
	}
	return v, nil
}

// Currencies lists the convertible currencies in a stable order.
func (r Rates) Currencies() []Currency {
	out := make([]Currency, 0, len(r.table))
	for c := range r.table {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Money is an immutable non-negative amount tagged with a currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount cannot be negative", ErrInvalidMoneyAmount)
	}
	if _, err := ParseCurrency(string(currency)); err != nil {
		return Money{}, err
	}
	return Money{amount: amount, currency: currency}, nil
}

func ZeroMoney(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.amount.Equal(o.amount)
}

func (m Money) Format() string {
	return m.amount.StringFixed(2) + " " + string(m.currency)
}

func (m Money) String() string { return m.Format() }

func (m Money) ToReference(rates Rates) (Money, error) {
	rate, err := rates.Rate(m.currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Mul(rate), currency: rates.reference}, nil
}

// FromReference converts a reference-currency amount into target.
func FromReference(amount decimal.Decimal, target Currency, rates Rates) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount cannot be negative", ErrInvalidMoneyAmount)
	}
	rate, err := rates.Rate(target)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: amount.Div(rate), currency: target}, nil
}

// Add and Subtract normalize both operands; the result is in the reference currency.
func (m Money) Add(o Money, rates Rates) (Money, error) {
	a, b, err := bothToReference(m, o, rates)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: a.amount.Add(b.amount), currency: rates.reference}, nil
}

func (m Money) Subtract(o Money, rates Rates) (Money, error) {
	a, b, err := bothToReference(m, o, rates)
	if err != nil {
		return Money{}, err
	}
	diff := a.amount.Sub(b.amount)
	if diff.IsNegative() {
		return Money{}, ErrNegativeResult
	}
	return Money{amount: diff, currency: rates.reference}, nil
}

func (m Money) GreaterThanOrEqual(o Money, rates Rates) (bool, error) {
	a, b, err := bothToReference(m, o, rates)
	if err != nil {
		return false, err
	}
	return a.amount.GreaterThanOrEqual(b.amount), nil
}

func (m Money) Multiply(factor decimal.Decimal) (Money, error) {
	if factor.IsNegative() {
		return Money{}, fmt.Errorf("%w: factor cannot be negative", ErrInvalidMoneyAmount)
	}
	return Money{amount: m.amount.Mul(factor), currency: m.currency}, nil
}

func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if !divisor.IsPositive() {
		return Money{}, fmt.Errorf("%w: divisor must be positive", ErrInvalidMoneyAmount)
	}
	return Money{amount: m.amount.Div(divisor), currency: m.currency}, nil
}

func bothToReference(a, b Money, rates Rates) (Money, Money, error) {
	ra, err := a.ToReference(rates)
	if err != nil {
		return Money{}, Money{}, err
	}
	rb, err := b.ToReference(rates)
	if err != nil {
		return Money{}, Money{}, err
	}
	return ra, rb, nil
}
