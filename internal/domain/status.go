package domain

import "fmt"

type ReservationStatus string

const (
	StatusBooked    ReservationStatus = "BOOKED"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

func ParseStatus(s string) (ReservationStatus, error) {
	switch st := ReservationStatus(s); st {
	case StatusBooked, StatusConfirmed, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidState, s)
}

func (s ReservationStatus) Label() string {
	switch s {
	case StatusBooked:
		return "Booked"
	case StatusConfirmed:
		return "Confirmed"
	case StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

func (s ReservationStatus) IsBooked() bool       { return s == StatusBooked }
func (s ReservationStatus) IsConfirmed() bool    { return s == StatusConfirmed }
func (s ReservationStatus) IsCancelled() bool    { return s == StatusCancelled }
func (s ReservationStatus) CanBeConfirmed() bool { return s == StatusBooked }
func (s ReservationStatus) CanBeCancelled() bool {
	return s == StatusBooked || s == StatusConfirmed
}

// Confirm returns the state after a confirm event.
func (s ReservationStatus) Confirm() (ReservationStatus, error) {
	if !s.CanBeConfirmed() {
		return s, fmt.Errorf("%w: cannot confirm a %s reservation", ErrInvalidTransition, s)
	}
	return StatusConfirmed, nil
}

// Cancel returns the state after a cancel event.
func (s ReservationStatus) Cancel() (ReservationStatus, error) {
	if !s.CanBeCancelled() {
		return s, fmt.Errorf("%w: cannot cancel a %s reservation", ErrInvalidTransition, s)
	}
	return StatusCancelled, nil
}
