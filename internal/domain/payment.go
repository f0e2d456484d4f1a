package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// PaymentService splits a reservation's price into a deposit charged at
// booking and a settlement charged at confirmation. It holds no state
// besides the conversion table and never persists anything.
type PaymentService struct {
	rates Rates
}

func NewPaymentService(rates Rates) *PaymentService {
	return &PaymentService{rates: rates}
}

func (s *PaymentService) Rates() Rates { return s.rates }

// DepositAmount is half of the current total in the reference currency, rounded to cents.
func (s *PaymentService) DepositAmount(price TotalPrice) (Money, error) {
	total, err := price.Money().ToReference(s.rates)
	if err != nil {
		return Money{}, err
	}
	half, err := total.Divide(two)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(half.Amount().Round(2), s.rates.Reference())
}

// SettlementAmount is what remains after the deposit, so both sum to the total.
func (s *PaymentService) SettlementAmount(price TotalPrice) (Money, error) {
	total, err := price.Money().ToReference(s.rates)
	if err != nil {
		return Money{}, err
	}
	deposit, err := s.DepositAmount(price)
	if err != nil {
		return Money{}, err
	}
	return total.Subtract(deposit, s.rates)
}

func (s *PaymentService) ProcessInitialReservationPayment(w *Wallet, r *Reservation) error {
	amount, err := s.DepositAmount(r.TotalPrice())
	if err != nil {
		return err
	}
	return s.charge(w, amount)
}

// ProcessReservationConfirmationPayment must run before the reservation is confirmed.
func (s *PaymentService) ProcessReservationConfirmationPayment(w *Wallet, r *Reservation) error {
	if !r.Status().CanBeConfirmed() {
		return fmt.Errorf("%w: reservation must be %s, is %s", ErrInvalidState, StatusBooked, r.Status())
	}
	amount, err := s.SettlementAmount(r.TotalPrice())
	if err != nil {
		return err
	}
	return s.charge(w, amount)
}

// ValidateSufficientFundsForReservation checks the deposit for a prospective total without mutating w.
func (s *PaymentService) ValidateSufficientFundsForReservation(w *Wallet, total TotalPrice) error {
	amount, err := s.DepositAmount(total)
	if err != nil {
		return err
	}
	if !w.HasSufficientFunds(amount, s.rates) {
		return s.insufficient(w, amount)
	}
	return nil
}

func (s *PaymentService) charge(w *Wallet, amount Money) error {
	if amount.IsZero() {
		return nil
	}
	if !w.HasSufficientFunds(amount, s.rates) {
		return s.insufficient(w, amount)
	}
	return w.Deduct(amount, s.rates)
}

func (s *PaymentService) insufficient(w *Wallet, required Money) error {
	return fmt.Errorf("%w: required %s, available %s", ErrInsufficientFunds, required.Format(), w.Balance().Format())
}
