package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateReservation struct {
	CustomerID   string          `json:"customer_id"`
	RoomIDs      []string        `json:"room_ids"`
	CheckInDate  time.Time       `json:"check_in_date"`
	CheckOutDate time.Time       `json:"check_out_date"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	NightlyRate  decimal.Decimal `json:"nightly_rate"` // alternative to TotalPrice
	Currency     string          `json:"currency"`     // EUR when empty
}

type ConfirmReservation struct {
	ReservationID string `json:"reservation_id"`
}

type CancelReservation struct {
	ReservationID string `json:"reservation_id"`
}

// UpdateReservation changes only the fields that are set.
type UpdateReservation struct {
	ReservationID   string           `json:"reservation_id"`
	NewCheckInDate  *time.Time       `json:"new_check_in_date,omitempty"`
	NewCheckOutDate *time.Time       `json:"new_check_out_date,omitempty"`
	RoomIDsToAdd    []string         `json:"room_ids_to_add,omitempty"`
	RoomIDsToRemove []string         `json:"room_ids_to_remove,omitempty"`
	NewTotalPrice   *decimal.Decimal `json:"new_total_price,omitempty"`
	Currency        string           `json:"currency,omitempty"`
}

type CreateWallet struct {
	CustomerID string `json:"customer_id"`
}

type AddFunds struct {
	CustomerID string          `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
}
