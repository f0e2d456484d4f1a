package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TotalPrice is a strictly positive reservation total, rounded to cents.
type TotalPrice struct {
	amount   decimal.Decimal
	currency Currency
}

func NewTotalPrice(amount decimal.Decimal, currency string) (TotalPrice, error) {
	c, err := ParseCurrency(currency)
	if err != nil {
		return TotalPrice{}, err
	}
	if amount.IsNegative() {
		return TotalPrice{}, fmt.Errorf("%w: total price cannot be negative", ErrInvalidMoneyAmount)
	}
	rounded := amount.Round(2)
	if rounded.IsZero() {
		return TotalPrice{}, fmt.Errorf("%w: total price cannot be zero", ErrInvalidMoneyAmount)
	}
	return TotalPrice{amount: rounded, currency: c}, nil
}

// CalculateTotalPrice prices perNight for every room and night.
func CalculateTotalPrice(perNight decimal.Decimal, rooms, nights int, currency string) (TotalPrice, error) {
	total := perNight.Mul(decimal.NewFromInt(int64(rooms))).Mul(decimal.NewFromInt(int64(nights)))
	return NewTotalPrice(total, currency)
}

func (p TotalPrice) Amount() decimal.Decimal { return p.amount }
func (p TotalPrice) Currency() Currency      { return p.currency }

func (p TotalPrice) Format() string {
	return p.amount.StringFixed(2) + " " + string(p.currency)
}

func (p TotalPrice) String() string { return p.Format() }

func (p TotalPrice) Equal(o TotalPrice) bool {
	return p.currency == o.currency && p.amount.Equal(o.amount)
}

func (p TotalPrice) Money() Money {
	return Money{amount: p.amount, currency: p.currency}
}

func (p TotalPrice) Add(o TotalPrice) (TotalPrice, error) {
	if p.currency != o.currency {
		return TotalPrice{}, fmt.Errorf("%w: cannot add %s to %s", ErrInvalidMoneyAmount, o.currency, p.currency)
	}
	return NewTotalPrice(p.amount.Add(o.amount), string(p.currency))
}

func (p TotalPrice) Subtract(o TotalPrice) (TotalPrice, error) {
	if p.currency != o.currency {
		return TotalPrice{}, fmt.Errorf("%w: cannot subtract %s from %s", ErrInvalidMoneyAmount, o.currency, p.currency)
	}
	diff := p.amount.Sub(o.amount)
	if diff.IsNegative() {
		return TotalPrice{}, ErrNegativeResult
	}
	return NewTotalPrice(diff, string(p.currency))
}

func (p TotalPrice) Multiply(factor decimal.Decimal) (TotalPrice, error) {
	if factor.IsNegative() {
		return TotalPrice{}, fmt.Errorf("%w: factor cannot be negative", ErrInvalidMoneyAmount)
	}
	return NewTotalPrice(p.amount.Mul(factor), string(p.currency))
}
