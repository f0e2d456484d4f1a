package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStore returns ErrNotFound for lookups that miss.
type ReservationStore interface {
	FindOneByID(ctx context.Context, id string) (*Reservation, error)
	// FindConflictingReservations returns active reservations holding roomID
	// whose stay overlaps [checkIn, checkOut).
	FindConflictingReservations(ctx context.Context, roomID string, checkIn, checkOut time.Time) ([]*Reservation, error)
	FindByRoomID(ctx context.Context, roomID string) ([]*Reservation, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]*Reservation, error)
	Save(ctx context.Context, r *Reservation) error
	Delete(ctx context.Context, id string) error
}

type WalletStore interface {
	FindByCustomerID(ctx context.Context, customerID string) (*Wallet, error)
	Save(ctx context.Context, w *Wallet) error
}

// Tx exposes stores bound to one atomic unit of work.
type Tx interface {
	Reservations() ReservationStore
	Wallets() WalletStore
	// LockRooms serializes bookings of roomIDs until the transaction ends.
	LockRooms(ctx context.Context, roomIDs []string) error
}

// Transactor runs fn atomically. roomIDs are locked before fn runs, as by
// Tx.LockRooms; nothing fn saved survives an error.
type Transactor interface {
	WithinTx(ctx context.Context, roomIDs []string, fn func(ctx context.Context, tx Tx) error) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// RateSource yields the current value of one unit of c in the reference currency.
type RateSource interface {
	GetRate(ctx context.Context, c Currency) (decimal.Decimal, error)
}

// RateStore persists the conversion table.
type RateStore interface {
	LoadRates(ctx context.Context) (map[Currency]decimal.Decimal, error)
	UpsertRate(ctx context.Context, c Currency, rate decimal.Decimal) error
}
