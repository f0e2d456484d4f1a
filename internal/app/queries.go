package app

import (
	"context"
	"fmt"
	"time"

	"hotel_booking/internal/domain"
)

type QueryService struct {
	reservations domain.ReservationStore
	wallets      domain.WalletStore
	cache        domain.Cache
	cacheTTL     time.Duration
	now          func() time.Time
}

func NewQueryService(rs domain.ReservationStore, ws domain.WalletStore, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{reservations: rs, wallets: ws, cache: c, cacheTTL: ttl, now: time.Now}
}

// WithClock pins "now" for the stay phase filters.
func (s *QueryService) WithClock(now func() time.Time) *QueryService {
	s.now = now
	return s
}

// Stay phases accepted by CustomerReservationsInPhase.
const (
	PhaseUpcoming = "upcoming"
	PhaseCurrent  = "current"
	PhasePast     = "past"
)

func (s *QueryService) GetReservation(ctx context.Context, id string) (domain.ReservationView, error) {
	key := reservationKey(id)
	var rv domain.ReservationView
	if ok, _ := s.cache.Get(ctx, key, &rv); ok {
		return rv, nil
	}
	r, err := s.reservations.FindOneByID(ctx, id)
	if err != nil {
		return domain.ReservationView{}, fmt.Errorf("reservation %s: %w", id, err)
	}
	rv = mapReservation(r)
	_ = s.cache.Set(ctx, key, rv, s.ttl())
	return rv, nil
}

func (s *QueryService) GetWallet(ctx context.Context, customerID string) (domain.WalletView, error) {
	key := walletKey(customerID)
	var wv domain.WalletView
	if ok, _ := s.cache.Get(ctx, key, &wv); ok {
		return wv, nil
	}
	w, err := s.wallets.FindByCustomerID(ctx, customerID)
	if err != nil {
		return domain.WalletView{}, fmt.Errorf("wallet for customer %s: %w", customerID, err)
	}
	wv = mapWallet(w)
	_ = s.cache.Set(ctx, key, wv, s.ttl())
	return wv, nil
}

func (s *QueryService) ListCustomerReservations(ctx context.Context, customerID string) ([]domain.ReservationView, error) {
	key := customerReservationsKey(customerID)
	var out []domain.ReservationView
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	rs, err := s.reservations.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	out = mapReservations(rs)
	_ = s.cache.Set(ctx, key, out, s.ttl())
	return out, nil
}

// CustomerReservationsInPhase bypasses the cache: the phase moves with the clock.
// Upcoming and current skip cancelled reservations, past keeps them.
func (s *QueryService) CustomerReservationsInPhase(ctx context.Context, customerID, phase string) ([]domain.ReservationView, error) {
	var keep func(*domain.Reservation, time.Time) bool
	switch phase {
	case PhaseUpcoming:
		keep = (*domain.Reservation).IsUpcoming
	case PhaseCurrent:
		keep = (*domain.Reservation).IsCurrent
	case PhasePast:
		keep = (*domain.Reservation).IsPast
	default:
		return nil, fmt.Errorf("%w: unknown phase %q", domain.ErrInvalidPhase, phase)
	}
	rs, err := s.reservations.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var matched []*domain.Reservation
	for _, r := range rs {
		if keep(r, now) {
			matched = append(matched, r)
		}
	}
	return mapReservations(matched), nil
}

// RoomHistory includes cancelled reservations.
func (s *QueryService) RoomHistory(ctx context.Context, roomID string) ([]domain.RoomHistoryItem, error) {
	key := roomHistoryKey(roomID)
	var out []domain.RoomHistoryItem
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	rs, err := s.reservations.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	out = mapRoomHistory(rs)
	_ = s.cache.Set(ctx, key, out, s.ttl())
	return out, nil
}

func (s *QueryService) ttl() int { return int(s.cacheTTL.Seconds()) }
