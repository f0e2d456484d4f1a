package domain_test

import (
	"errors"
	"testing"

	"hotel_booking/internal/domain"
)

func fundedWallet(t *testing.T, amount string) *domain.Wallet {
	t.Helper()
	w, err := domain.NewWallet("c1", domain.DefaultRates())
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if amount != "0" {
		if err := w.AddFunds(money(t, amount, domain.EUR), domain.DefaultRates()); err != nil {
			t.Fatalf("fund: %v", err)
		}
	}
	return w
}

func TestWalletFunds(t *testing.T) {
	rates := domain.DefaultRates()
	w := fundedWallet(t, "0")
	if !w.Balance().IsZero() || w.Balance().Currency() != domain.EUR {
		t.Fatalf("new wallet: %s", w.Balance())
	}

	if err := w.AddFunds(money(t, "100", domain.USD), rates); err != nil {
		t.Fatalf("add usd: %v", err)
	}
	if w.Balance().Format() != "92.00 EUR" {
		t.Fatalf("balance is kept in reference: %s", w.Balance())
	}
	if err := w.AddFunds(money(t, "0", domain.EUR), rates); !errors.Is(err, domain.ErrNonPositiveAmount) {
		t.Fatalf("zero top-up: %v", err)
	}

	if err := w.Deduct(money(t, "50", domain.EUR), rates); err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if w.Balance().Format() != "42.00 EUR" {
		t.Fatalf("after deduct: %s", w.Balance())
	}
	err := w.Deduct(money(t, "50", domain.EUR), rates)
	if !errors.Is(err, domain.ErrInsufficientBalance) || !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("overdraw: %v", err)
	}
	if w.Balance().Format() != "42.00 EUR" {
		t.Fatalf("failed deduct changed balance: %s", w.Balance())
	}
}

func TestNewWallet_RequiresCustomer(t *testing.T) {
	if _, err := domain.NewWallet("  ", domain.DefaultRates()); !errors.Is(err, domain.ErrInvalidCustomerID) {
		t.Fatalf("got %v", err)
	}
}
