package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrEmptySelection     = errors.New("reservation must have at least one room")
	ErrInvalidRoomID      = errors.New("invalid room id")
	ErrInvalidCustomerID  = errors.New("customer id is required")
	ErrInvalidMoneyAmount = errors.New("invalid money amount")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidState       = errors.New("invalid reservation state")
	ErrInvalidPhase       = errors.New("invalid stay phase")
	ErrBookingConflict    = errors.New("booking conflict")
	ErrInsufficientFunds  = errors.New("insufficient funds")
)

// Sub-kinds; errors.Is matches both the sub-kind and its parent.
var (
	ErrUnsupportedCurrency = fmt.Errorf("%w: unsupported currency", ErrInvalidMoneyAmount)
	ErrNegativeResult      = fmt.Errorf("%w: result cannot be negative", ErrInvalidMoneyAmount)
	ErrNonPositiveAmount   = fmt.Errorf("%w: amount must be positive", ErrInvalidMoneyAmount)
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", ErrInsufficientFunds)
)
