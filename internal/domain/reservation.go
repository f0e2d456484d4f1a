package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reservation is the booking aggregate. Its fields change only through its methods.
type Reservation struct {
	id              string
	customerID      string
	rooms           RoomSelection
	dates           DateRange
	totalPrice      TotalPrice
	reservationDate time.Time
	status          ReservationStatus
}

type NewReservationParams struct {
	ID          string // generated when empty
	CustomerID  string
	RoomIDs     []string
	CheckIn     time.Time
	CheckOut    time.Time
	TotalPrice  decimal.Decimal
	NightlyRate decimal.Decimal // prices every room and night when TotalPrice is zero
	Currency    string
}

// NewReservation validates the request and returns a BOOKED reservation dated now.
func NewReservation(p NewReservationParams, now time.Time) (*Reservation, error) {
	customerID := strings.TrimSpace(p.CustomerID)
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}
	rooms, err := NewRoomSelection(p.RoomIDs)
	if err != nil {
		return nil, err
	}
	dates, err := NewDateRange(p.CheckIn, p.CheckOut, now)
	if err != nil {
		return nil, err
	}
	currency := p.Currency
	if currency == "" {
		currency = string(EUR)
	}
	price, err := reservationPrice(p, rooms, dates, currency)
	if err != nil {
		return nil, err
	}
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &Reservation{
		id:              id,
		customerID:      customerID,
		rooms:           rooms,
		dates:           dates,
		totalPrice:      price,
		reservationDate: now,
		status:          StatusBooked,
	}, nil
}

func reservationPrice(p NewReservationParams, rooms RoomSelection, dates DateRange, currency string) (TotalPrice, error) {
	if p.NightlyRate.IsZero() {
		return NewTotalPrice(p.TotalPrice, currency)
	}
	if !p.TotalPrice.IsZero() {
		return TotalPrice{}, fmt.Errorf("%w: give a total price or a nightly rate, not both", ErrInvalidMoneyAmount)
	}
	if p.NightlyRate.IsNegative() {
		return TotalPrice{}, fmt.Errorf("%w: nightly rate cannot be negative", ErrInvalidMoneyAmount)
	}
	return CalculateTotalPrice(p.NightlyRate, rooms.Len(), dates.Nights(), currency)
}

// RestoreReservation rebuilds a persisted aggregate without re-running booking policy.
func RestoreReservation(id, customerID string, rooms RoomSelection, dates DateRange,
	price TotalPrice, reservationDate time.Time, status ReservationStatus) *Reservation {
	return &Reservation{
		id:              id,
		customerID:      customerID,
		rooms:           rooms,
		dates:           dates,
		totalPrice:      price,
		reservationDate: reservationDate,
		status:          status,
	}
}

func (r *Reservation) ID() string                 { return r.id }
func (r *Reservation) CustomerID() string         { return r.customerID }
func (r *Reservation) Rooms() RoomSelection       { return r.rooms }
func (r *Reservation) Dates() DateRange           { return r.dates }
func (r *Reservation) CheckIn() time.Time         { return r.dates.CheckIn() }
func (r *Reservation) CheckOut() time.Time        { return r.dates.CheckOut() }
func (r *Reservation) Nights() int                { return r.dates.Nights() }
func (r *Reservation) TotalPrice() TotalPrice     { return r.totalPrice }
func (r *Reservation) ReservationDate() time.Time { return r.reservationDate }
func (r *Reservation) Status() ReservationStatus  { return r.status }

func (r *Reservation) Confirm() error {
	next, err := r.status.Confirm()
	if err != nil {
		return err
	}
	r.status = next
	return nil
}

func (r *Reservation) Cancel() error {
	next, err := r.status.Cancel()
	if err != nil {
		return err
	}
	r.status = next
	return nil
}

// AddRoom and RemoveRoom carry no status guard.
func (r *Reservation) AddRoom(id string) error {
	rooms, err := r.rooms.Add(id)
	if err != nil {
		return err
	}
	r.rooms = rooms
	return nil
}

func (r *Reservation) RemoveRoom(id string) error {
	rooms, err := r.rooms.Remove(id)
	if err != nil {
		return err
	}
	r.rooms = rooms
	return nil
}

func (r *Reservation) UpdateTotalPrice(p TotalPrice) error {
	if r.status.IsCancelled() {
		return fmt.Errorf("%w: cannot update price of a cancelled reservation", ErrInvalidTransition)
	}
	r.totalPrice = p
	return nil
}

func (r *Reservation) ChangeDates(checkIn, checkOut, now time.Time) error {
	switch {
	case r.status.IsCancelled():
		return fmt.Errorf("%w: cannot change dates of a cancelled reservation", ErrInvalidTransition)
	case r.status.IsConfirmed():
		return fmt.Errorf("%w: cannot change dates of a confirmed reservation, cancel and rebook instead", ErrInvalidTransition)
	}
	dates, err := NewDateRange(checkIn, checkOut, now)
	if err != nil {
		return err
	}
	r.dates = dates
	return nil
}

func (r *Reservation) IsActive() bool { return !r.status.IsCancelled() }

func (r *Reservation) IsUpcoming(now time.Time) bool {
	return r.IsActive() && r.dates.IsInFuture(now)
}

func (r *Reservation) IsCurrent(now time.Time) bool {
	return r.IsActive() && r.dates.IsCurrent(now)
}

func (r *Reservation) IsPast(now time.Time) bool { return r.dates.IsPast(now) }

// ConflictsWith reports whether r holds room over an overlapping window.
func (r *Reservation) ConflictsWith(room string, dates DateRange) bool {
	return r.IsActive() && r.rooms.Has(room) && r.dates.Overlaps(dates)
}
