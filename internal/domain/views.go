package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Read models handed to the presentation layer and the cache.

type ReservationView struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	RoomIDs         []string        `json:"room_ids"`
	CheckIn         time.Time       `json:"check_in"`
	CheckOut        time.Time       `json:"check_out"`
	Nights          int             `json:"nights"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	TotalPrice      string          `json:"total_price"` // "100.00 EUR"
	Status          string          `json:"status"`
	StatusLabel     string          `json:"status_label"`
	ReservationDate time.Time       `json:"reservation_date"`
}

type WalletView struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Balance    string          `json:"balance"`
}

type RoomHistoryItem struct {
	ReservationID   string          `json:"reservation_id"`
	CustomerID      string          `json:"customer_id"`
	CheckIn         time.Time       `json:"check_in"`
	CheckOut        time.Time       `json:"check_out"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	ReservationDate time.Time       `json:"reservation_date"`
}
