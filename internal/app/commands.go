package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

type BookingService struct {
	tx       domain.Transactor
	payments *domain.PaymentService
	cache    domain.Cache
	now      func() time.Time
}

func NewBookingService(tx domain.Transactor, p *domain.PaymentService, cache domain.Cache) *BookingService {
	return &BookingService{tx: tx, payments: p, cache: cache, now: time.Now}
}

// WithClock pins "now" for date policy and reservation timestamps.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

func (s *BookingService) CreateReservation(ctx context.Context, cmd domain.CreateReservation) (domain.ReservationView, error) {
	res, err := domain.NewReservation(domain.NewReservationParams{
		CustomerID:  cmd.CustomerID,
		RoomIDs:     cmd.RoomIDs,
		CheckIn:     cmd.CheckInDate,
		CheckOut:    cmd.CheckOutDate,
		TotalPrice:  cmd.TotalPrice,
		NightlyRate: cmd.NightlyRate,
		Currency:    cmd.Currency,
	}, s.now())
	if err != nil {
		observability.ObserveReservation("create", "invalid")
		return domain.ReservationView{}, err
	}

	err = s.tx.WithinTx(ctx, res.Rooms().IDs(), func(ctx context.Context, tx domain.Tx) error {
		w, err := tx.Wallets().FindByCustomerID(ctx, res.CustomerID())
		if err != nil {
			return fmt.Errorf("wallet for customer %s: %w", res.CustomerID(), err)
		}
		// Underfunded requests fail before any per-room conflict query.
		if err := s.payments.ValidateSufficientFundsForReservation(w, res.TotalPrice()); err != nil {
			return err
		}
		// Re-checked under the room locks; see Transactor.
		for _, room := range res.Rooms().IDs() {
			if err := s.ensureFree(ctx, tx, room, res.Dates(), ""); err != nil {
				return err
			}
		}
		if err := s.payments.ProcessInitialReservationPayment(w, res); err != nil {
			return err
		}
		if err := tx.Reservations().Save(ctx, res); err != nil {
			return err
		}
		return tx.Wallets().Save(ctx, w)
	})
	if err != nil {
		observability.ObserveReservation("create", outcome(err))
		return domain.ReservationView{}, fmt.Errorf("create reservation: %w", err)
	}

	observability.ObserveReservation("create", "ok")
	observability.ObserveWalletMovement("deposit")
	s.invalidateReservation(ctx, res)
	s.invalidateWallet(ctx, res.CustomerID())
	log.Info().
		Str("reservation", res.ID()).
		Str("customer", res.CustomerID()).
		Strs("rooms", res.Rooms().IDs()).
		Str("total", res.TotalPrice().Format()).
		Msg("reservation booked")
	return mapReservation(res), nil
}

func (s *BookingService) ConfirmReservation(ctx context.Context, cmd domain.ConfirmReservation) (domain.ReservationView, error) {
	var res *domain.Reservation
	err := s.tx.WithinTx(ctx, nil, func(ctx context.Context, tx domain.Tx) error {
		var err error
		res, err = findReservation(ctx, tx, cmd.ReservationID)
		if err != nil {
			return err
		}
		w, err := tx.Wallets().FindByCustomerID(ctx, res.CustomerID())
		if err != nil {
			return fmt.Errorf("wallet for customer %s: %w", res.CustomerID(), err)
		}
		// Settlement guard runs while the reservation is still BOOKED.
		if err := s.payments.ProcessReservationConfirmationPayment(w, res); err != nil {
			return err
		}
		if err := res.Confirm(); err != nil {
			return err
		}
		if err := tx.Reservations().Save(ctx, res); err != nil {
			return err
		}
		return tx.Wallets().Save(ctx, w)
	})
	if err != nil {
		observability.ObserveReservation("confirm", outcome(err))
		return domain.ReservationView{}, fmt.Errorf("confirm reservation %s: %w", cmd.ReservationID, err)
	}

	observability.ObserveReservation("confirm", "ok")
	observability.ObserveWalletMovement("settlement")
	s.invalidateReservation(ctx, res)
	s.invalidateWallet(ctx, res.CustomerID())
	log.Info().Str("reservation", res.ID()).Str("customer", res.CustomerID()).Msg("reservation confirmed")
	return mapReservation(res), nil
}

// CancelReservation never refunds; the wallet is not touched.
func (s *BookingService) CancelReservation(ctx context.Context, cmd domain.CancelReservation) (domain.ReservationView, error) {
	var res *domain.Reservation
	err := s.tx.WithinTx(ctx, nil, func(ctx context.Context, tx domain.Tx) error {
		var err error
		res, err = findReservation(ctx, tx, cmd.ReservationID)
		if err != nil {
			return err
		}
		if err := res.Cancel(); err != nil {
			return err
		}
		return tx.Reservations().Save(ctx, res)
	})
	if err != nil {
		observability.ObserveReservation("cancel", outcome(err))
		return domain.ReservationView{}, fmt.Errorf("cancel reservation %s: %w", cmd.ReservationID, err)
	}

	observability.ObserveReservation("cancel", "ok")
	s.invalidateReservation(ctx, res)
	log.Info().Str("reservation", res.ID()).Msg("reservation cancelled")
	return mapReservation(res), nil
}

func (s *BookingService) UpdateReservation(ctx context.Context, cmd domain.UpdateReservation) (domain.ReservationView, error) {
	if (cmd.NewCheckInDate == nil) != (cmd.NewCheckOutDate == nil) {
		return domain.ReservationView{}, fmt.Errorf("update reservation %s: %w: both dates are required to change dates",
			cmd.ReservationID, domain.ErrInvalidDateRange)
	}

	var (
		res    *domain.Reservation
		before []string
	)
	err := s.tx.WithinTx(ctx, nil, func(ctx context.Context, tx domain.Tx) error {
		var err error
		res, err = findReservation(ctx, tx, cmd.ReservationID)
		if err != nil {
			return err
		}
		before = res.Rooms().IDs()
		if err := tx.LockRooms(ctx, append(res.Rooms().IDs(), cmd.RoomIDsToAdd...)); err != nil {
			return err
		}

		if cmd.NewCheckInDate != nil {
			if err := res.ChangeDates(*cmd.NewCheckInDate, *cmd.NewCheckOutDate, s.now()); err != nil {
				return err
			}
		}
		for _, id := range cmd.RoomIDsToAdd {
			if err := res.AddRoom(id); err != nil {
				return err
			}
		}
		for _, id := range cmd.RoomIDsToRemove {
			if err := res.RemoveRoom(id); err != nil {
				return err
			}
		}
		if cmd.NewTotalPrice != nil {
			currency := cmd.Currency
			if currency == "" {
				currency = string(res.TotalPrice().Currency())
			}
			price, err := domain.NewTotalPrice(*cmd.NewTotalPrice, currency)
			if err != nil {
				return err
			}
			if err := res.UpdateTotalPrice(price); err != nil {
				return err
			}
		}

		if res.IsActive() && (cmd.NewCheckInDate != nil || len(cmd.RoomIDsToAdd) > 0) {
			for _, room := range res.Rooms().IDs() {
				if err := s.ensureFree(ctx, tx, room, res.Dates(), res.ID()); err != nil {
					return err
				}
			}
		}
		return tx.Reservations().Save(ctx, res)
	})
	if err != nil {
		observability.ObserveReservation("update", outcome(err))
		return domain.ReservationView{}, fmt.Errorf("update reservation %s: %w", cmd.ReservationID, err)
	}

	observability.ObserveReservation("update", "ok")
	s.invalidateReservation(ctx, res, before...)
	log.Info().Str("reservation", res.ID()).Msg("reservation updated")
	return mapReservation(res), nil
}

// DeleteReservation removes the record outright; no wallet movement happens.
func (s *BookingService) DeleteReservation(ctx context.Context, id string) error {
	var res *domain.Reservation
	err := s.tx.WithinTx(ctx, nil, func(ctx context.Context, tx domain.Tx) error {
		var err error
		res, err = findReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		return tx.Reservations().Delete(ctx, id)
	})
	if err != nil {
		observability.ObserveReservation("delete", outcome(err))
		return fmt.Errorf("delete reservation %s: %w", id, err)
	}
	observability.ObserveReservation("delete", "ok")
	s.invalidateReservation(ctx, res)
	log.Info().Str("reservation", id).Msg("reservation deleted")
	return nil
}

func (s *BookingService) CreateWallet(ctx context.Context, cmd domain.CreateWallet) (domain.WalletView, error) {
	w, err := domain.NewWallet(cmd.CustomerID, s.payments.Rates())
	if err != nil {
		return domain.WalletView{}, err
	}
	err = s.tx.WithinTx(ctx, nil, func(ctx context.Context, tx domain.Tx) error {
		_, err := tx.Wallets().FindByCustomerID(ctx, w.CustomerID())
		switch {
		case err == nil:
			return fmt.Errorf("wallet for customer %s: %w", w.CustomerID(), domain.ErrAlreadyExists)
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		return tx.Wallets().Save(ctx, w)
	})
	if err != nil {
		return domain.WalletView{}, fmt.Errorf("create wallet: %w", err)
	}
	s.invalidateWallet(ctx, w.CustomerID())
	log.Info().Str("wallet", w.ID()).Str("customer", w.CustomerID()).Msg("wallet opened")
	return mapWallet(w), nil
}

func (s *BookingService) AddFunds(ctx context.Context, cmd domain.AddFunds) (domain.WalletView, error) {
	currency, err := domain.ParseCurrency(cmd.Currency)
	if err != nil {
		return domain.WalletView{}, err
	}
	money, err := domain.NewMoney(cmd.Amount, currency)
	if err != nil {
		return domain.WalletView{}, err
	}

	var w *domain.Wallet
	err = s.tx.WithinTx(ctx, nil, func(ctx context.Context, tx domain.Tx) error {
		var err error
		w, err = tx.Wallets().FindByCustomerID(ctx, cmd.CustomerID)
		if err != nil {
			return fmt.Errorf("wallet for customer %s: %w", cmd.CustomerID, err)
		}
		if err := w.AddFunds(money, s.payments.Rates()); err != nil {
			return err
		}
		return tx.Wallets().Save(ctx, w)
	})
	if err != nil {
		return domain.WalletView{}, fmt.Errorf("add funds: %w", err)
	}

	observability.ObserveWalletMovement("top_up")
	s.invalidateWallet(ctx, w.CustomerID())
	log.Info().
		Str("customer", w.CustomerID()).
		Str("amount", money.Format()).
		Str("balance", w.Balance().Format()).
		Msg("wallet funded")
	return mapWallet(w), nil
}

func (s *BookingService) ensureFree(ctx context.Context, tx domain.Tx, room string, dates domain.DateRange, self string) error {
	found, err := tx.Reservations().FindConflictingReservations(ctx, room, dates.CheckIn(), dates.CheckOut())
	if err != nil {
		return err
	}
	for _, c := range found {
		if c.ID() != self {
			return fmt.Errorf("%w: room %q is already booked for the selected dates", domain.ErrBookingConflict, room)
		}
	}
	return nil
}

func findReservation(ctx context.Context, tx domain.Tx, id string) (*domain.Reservation, error) {
	r, err := tx.Reservations().FindOneByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", id, err)
	}
	return r, nil
}

// cache invalidation

func (s *BookingService) invalidateReservation(ctx context.Context, r *domain.Reservation, extraRooms ...string) {
	if s.cache == nil || r == nil {
		return
	}
	_ = s.cache.Del(ctx, reservationKey(r.ID()))
	_ = s.cache.Del(ctx, customerReservationsKey(r.CustomerID()))
	for _, room := range append(r.Rooms().IDs(), extraRooms...) {
		_ = s.cache.Del(ctx, roomHistoryKey(room))
	}
}

func (s *BookingService) invalidateWallet(ctx context.Context, customerID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, walletKey(customerID))
}

// outcome labels a failure for metrics.
func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrBookingConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrInvalidState):
		return "invalid_transition"
	default:
		return "error"
	}
}
