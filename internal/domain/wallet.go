package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Wallet is a customer's closed-loop balance, held in the reference currency.
type Wallet struct {
	id         string
	customerID string
	balance    Money
}

// NewWallet opens an empty wallet in the reference currency of rates.
func NewWallet(customerID string, rates Rates) (*Wallet, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}
	return &Wallet{
		id:         uuid.NewString(),
		customerID: customerID,
		balance:    ZeroMoney(rates.Reference()),
	}, nil
}

func RestoreWallet(id, customerID string, balance Money) *Wallet {
	return &Wallet{id: id, customerID: customerID, balance: balance}
}

func (w *Wallet) ID() string         { return w.id }
func (w *Wallet) CustomerID() string { return w.customerID }
func (w *Wallet) Balance() Money     { return w.balance }

func (w *Wallet) AddFunds(m Money, rates Rates) error {
	ref, err := m.ToReference(rates)
	if err != nil {
		return err
	}
	if !ref.Amount().IsPositive() {
		return ErrNonPositiveAmount
	}
	sum, err := w.balance.Add(ref, rates)
	if err != nil {
		return err
	}
	w.balance = sum
	return nil
}

func (w *Wallet) Deduct(m Money, rates Rates) error {
	ref, err := m.ToReference(rates)
	if err != nil {
		return err
	}
	if !ref.Amount().IsPositive() {
		return ErrNonPositiveAmount
	}
	if !w.HasSufficientFunds(ref, rates) {
		return ErrInsufficientBalance
	}
	rest, err := w.balance.Subtract(ref, rates)
	if err != nil {
		return err
	}
	w.balance = rest
	return nil
}

func (w *Wallet) HasSufficientFunds(m Money, rates Rates) bool {
	ok, err := w.balance.GreaterThanOrEqual(m, rates)
	return err == nil && ok
}
