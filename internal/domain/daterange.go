package domain

import (
	"fmt"
	"time"
)

const (
	day       = 24 * time.Hour
	MinNights = 1
	MaxNights = 30
)

// DateRange is the stay window [checkIn, checkOut).
type DateRange struct {
	checkIn  time.Time
	checkOut time.Time
}

// NewDateRange validates a new booking window against the calendar day of now.
func NewDateRange(checkIn, checkOut, now time.Time) (DateRange, error) {
	if !checkIn.Before(checkOut) {
		return DateRange{}, fmt.Errorf("%w: check-in must be before check-out", ErrInvalidDateRange)
	}
	if dateOnly(checkIn).Before(dateOnly(now)) {
		return DateRange{}, fmt.Errorf("%w: check-in cannot be in the past", ErrInvalidDateRange)
	}
	n := nights(checkIn, checkOut)
	if n < MinNights || n > MaxNights {
		return DateRange{}, fmt.Errorf("%w: duration must be between %d and %d nights, got %d",
			ErrInvalidDateRange, MinNights, MaxNights, n)
	}
	return DateRange{checkIn: checkIn, checkOut: checkOut}, nil
}

// RestoreDateRange rebuilds a persisted range; only ordering is checked so
// past stays can still be loaded.
func RestoreDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	if !checkIn.Before(checkOut) {
		return DateRange{}, fmt.Errorf("%w: check-in must be before check-out", ErrInvalidDateRange)
	}
	return DateRange{checkIn: checkIn, checkOut: checkOut}, nil
}

func (d DateRange) CheckIn() time.Time  { return d.checkIn }
func (d DateRange) CheckOut() time.Time { return d.checkOut }
func (d DateRange) Nights() int         { return nights(d.checkIn, d.checkOut) }

// Overlaps uses half-open semantics: a range ending when the other starts does not overlap.
func (d DateRange) Overlaps(o DateRange) bool {
	return d.checkIn.Before(o.checkOut) && d.checkOut.After(o.checkIn)
}

func (d DateRange) Includes(t time.Time) bool {
	return !t.Before(d.checkIn) && t.Before(d.checkOut)
}

func (d DateRange) IsInFuture(now time.Time) bool { return d.checkIn.After(now) }
func (d DateRange) IsPast(now time.Time) bool     { return d.checkOut.Before(now) }
func (d DateRange) IsCurrent(now time.Time) bool {
	return !d.checkIn.After(now) && d.checkOut.After(now)
}

func (d DateRange) Equal(o DateRange) bool {
	return d.checkIn.Equal(o.checkIn) && d.checkOut.Equal(o.checkOut)
}

func nights(in, out time.Time) int {
	diff := out.Sub(in)
	n := int(diff / day)
	if diff%day > 0 {
		n++
	}
	return n
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
