package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/storage/memory"
)

func newBooking(t *testing.T) (*app.BookingService, *memory.DB, *fakeCache) {
	t.Helper()
	db := memory.New()
	cache := &fakeCache{}
	svc := app.NewBookingService(db, domain.NewPaymentService(domain.DefaultRates()), cache).
		WithClock(func() time.Time { return clock })
	return svc, db, cache
}

func fund(t *testing.T, svc *app.BookingService, customer, amount string) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.CreateWallet(ctx, domain.CreateWallet{CustomerID: customer}); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if _, err := svc.AddFunds(ctx, domain.AddFunds{CustomerID: customer, Amount: dec(amount), Currency: "EUR"}); err != nil {
		t.Fatalf("add funds: %v", err)
	}
}

func book(svc *app.BookingService, customer, room string, in, out time.Time, total string) (domain.ReservationView, error) {
	return svc.CreateReservation(context.Background(), domain.CreateReservation{
		CustomerID:   customer,
		RoomIDs:      []string{room},
		CheckInDate:  in,
		CheckOutDate: out,
		TotalPrice:   dec(total),
	})
}

func balance(t *testing.T, db *memory.DB, customer string) string {
	t.Helper()
	w, err := db.Wallets().FindByCustomerID(context.Background(), customer)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	return w.Balance().Format()
}

func TestDepositAndSettlement(t *testing.T) {
	svc, db, _ := newBooking(t)
	fund(t, svc, "c1", "200")

	rv, err := book(svc, "c1", "R1", date(12, 1), date(12, 5), "100")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if got := balance(t, db, "c1"); got != "150.00 EUR" {
		t.Fatalf("after deposit: %s", got)
	}

	confirmed, err := svc.ConfirmReservation(context.Background(), domain.ConfirmReservation{ReservationID: rv.ID})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != "CONFIRMED" {
		t.Fatalf("status: %s", confirmed.Status)
	}
	if got := balance(t, db, "c1"); got != "100.00 EUR" {
		t.Fatalf("after settlement: %s", got)
	}
}

func TestCreateReservation_InsufficientFundsLeavesNothingBehind(t *testing.T) {
	svc, db, _ := newBooking(t)
	fund(t, svc, "c1", "30")

	_, err := book(svc, "c1", "R1", date(12, 1), date(12, 5), "100")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := balance(t, db, "c1"); got != "30.00 EUR" {
		t.Fatalf("balance changed: %s", got)
	}
	rs, _ := db.Reservations().FindByCustomerID(context.Background(), "c1")
	if len(rs) != 0 {
		t.Fatalf("reservation persisted despite failed payment")
	}
}

// countingTx records conflict lookups made inside transactions.
type countingTx struct {
	inner     domain.Transactor
	conflicts int
}

func (c *countingTx) WithinTx(ctx context.Context, roomIDs []string, fn func(ctx context.Context, tx domain.Tx) error) error {
	return c.inner.WithinTx(ctx, roomIDs, func(ctx context.Context, tx domain.Tx) error {
		return fn(ctx, countingStores{Tx: tx, n: &c.conflicts})
	})
}

type countingStores struct {
	domain.Tx
	n *int
}

func (s countingStores) Reservations() domain.ReservationStore {
	return countingReservations{ReservationStore: s.Tx.Reservations(), n: s.n}
}

type countingReservations struct {
	domain.ReservationStore
	n *int
}

func (r countingReservations) FindConflictingReservations(ctx context.Context, roomID string, in, out time.Time) ([]*domain.Reservation, error) {
	*r.n++
	return r.ReservationStore.FindConflictingReservations(ctx, roomID, in, out)
}

func TestCreateReservation_UnderfundedFailsBeforeConflictLookups(t *testing.T) {
	db := memory.New()
	counting := &countingTx{inner: db}
	svc := app.NewBookingService(counting, domain.NewPaymentService(domain.DefaultRates()), &fakeCache{}).
		WithClock(func() time.Time { return clock })
	fund(t, svc, "c1", "10")

	_, err := svc.CreateReservation(context.Background(), domain.CreateReservation{
		CustomerID:   "c1",
		RoomIDs:      []string{"R1", "R2", "R3"},
		CheckInDate:  date(12, 1),
		CheckOutDate: date(12, 5),
		TotalPrice:   dec("300"),
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if counting.conflicts != 0 {
		t.Fatalf("conflict lookups ran for an underfunded request: %d", counting.conflicts)
	}

	if _, err := svc.AddFunds(context.Background(), domain.AddFunds{CustomerID: "c1", Amount: dec("500"), Currency: "EUR"}); err != nil {
		t.Fatalf("top up: %v", err)
	}
	if _, err := svc.CreateReservation(context.Background(), domain.CreateReservation{
		CustomerID:   "c1",
		RoomIDs:      []string{"R1", "R2", "R3"},
		CheckInDate:  date(12, 1),
		CheckOutDate: date(12, 5),
		TotalPrice:   dec("300"),
	}); err != nil {
		t.Fatalf("funded booking: %v", err)
	}
	if counting.conflicts != 3 {
		t.Fatalf("want one conflict lookup per room, got %d", counting.conflicts)
	}
}

func TestCreateReservation_NightlyRate(t *testing.T) {
	svc, db, _ := newBooking(t)
	fund(t, svc, "c1", "1000")

	rv, err := svc.CreateReservation(context.Background(), domain.CreateReservation{
		CustomerID:   "c1",
		RoomIDs:      []string{"R1", "R2"},
		CheckInDate:  date(12, 1),
		CheckOutDate: date(12, 4),
		NightlyRate:  dec("50"),
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if rv.TotalPrice != "300.00 EUR" {
		t.Fatalf("total: %s", rv.TotalPrice)
	}
	if got := balance(t, db, "c1"); got != "850.00 EUR" {
		t.Fatalf("after deposit: %s", got)
	}

	_, err = svc.CreateReservation(context.Background(), domain.CreateReservation{
		CustomerID:   "c1",
		RoomIDs:      []string{"R3"},
		CheckInDate:  date(12, 1),
		CheckOutDate: date(12, 4),
		TotalPrice:   dec("100"),
		NightlyRate:  dec("50"),
	})
	if !errors.Is(err, domain.ErrInvalidMoneyAmount) {
		t.Fatalf("total and nightly rate together: %v", err)
	}
}

func TestCreateReservation_Conflicts(t *testing.T) {
	svc, _, _ := newBooking(t)
	fund(t, svc, "c1", "1000")

	if _, err := book(svc, "c1", "R1", date(12, 1), date(12, 5), "100"); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := book(svc, "c1", "R1", date(12, 3), date(12, 6), "100"); !errors.Is(err, domain.ErrBookingConflict) {
		t.Fatalf("expected ErrBookingConflict, got %v", err)
	}
	if _, err := book(svc, "c1", "R1", date(12, 5), date(12, 8), "100"); err != nil {
		t.Fatalf("abutting booking should succeed: %v", err)
	}
}

func TestCancelledReservationFreesTheRoom(t *testing.T) {
	svc, _, _ := newBooking(t)
	fund(t, svc, "c1", "1000")

	rv, _ := book(svc, "c1", "R1", date(12, 1), date(12, 5), "100")
	if _, err := svc.CancelReservation(context.Background(), domain.CancelReservation{ReservationID: rv.ID}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := book(svc, "c1", "R1", date(12, 2), date(12, 4), "100"); err != nil {
		t.Fatalf("room should be free after cancel: %v", err)
	}
}

func TestConfirmThenCancel_NoRefund(t *testing.T) {
	svc, db, _ := newBooking(t)
	fund(t, svc, "c1", "200")
	ctx := context.Background()

	rv, _ := book(svc, "c1", "R1", date(12, 1), date(12, 5), "100")
	if _, err := svc.ConfirmReservation(ctx, domain.ConfirmReservation{ReservationID: rv.ID}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	before := balance(t, db, "c1")

	out, err := svc.CancelReservation(ctx, domain.CancelReservation{ReservationID: rv.ID})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if out.Status != "CANCELLED" {
		t.Fatalf("status: %s", out.Status)
	}
	if after := balance(t, db, "c1"); after != before {
		t.Fatalf("cancel moved money: %s -> %s", before, after)
	}
}

func TestConfirm_Twice(t *testing.T) {
	svc, db, _ := newBooking(t)
	fund(t, svc, "c1", "200")
	ctx := context.Background()

	rv, _ := book(svc, "c1", "R1", date(12, 1), date(12, 5), "100")
	_, _ = svc.ConfirmReservation(ctx, domain.ConfirmReservation{ReservationID: rv.ID})

	_, err := svc.ConfirmReservation(ctx, domain.ConfirmReservation{ReservationID: rv.ID})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if got := balance(t, db, "c1"); got != "100.00 EUR" {
		t.Fatalf("second confirm charged again: %s", got)
	}
}

func TestCancel_Twice(t *testing.T) {
	svc, _, _ := newBooking(t)
	fund(t, svc, "c1", "200")
	ctx := context.Background()

	rv, _ := book(svc, "c1", "R1", date(12, 1), date(12, 5), "100")
	_, _ = svc.CancelReservation(ctx, domain.CancelReservation{ReservationID: rv.ID})
	if _, err := svc.CancelReservation(ctx, domain.CancelReservation{ReservationID: rv.ID}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestConfirm_SettlementShortfallKeepsBooked(t *testing.T) {
	svc, db, _ := newBooking(t)
	fund(t, svc, "c1", "60")
	ctx := context.Background()

	rv, err := book(svc, "c1", "R1", date(12, 1), date(12, 5), "100")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := svc.ConfirmReservation(ctx, domain.ConfirmReservation{ReservationID: rv.ID}); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	r, _ := db.Reservations().FindOneByID(ctx, rv.ID)
	if !r.Status().IsBooked() {
		t.Fatalf("status changed: %s", r.Status())
	}
	if got := balance(t, db, "c1"); got != "10.00 EUR" {
		t.Fatalf("balance: %s", got)
	}
}

func TestCreateReservation_Validation(t *testing.T) {
	svc, _, _ := newBooking(t)
	fund(t, svc, "c1", "1000")

	cases := []struct {
		name    string
		in, out time.Time
		want    error
	}{
		{"past", date(11, 1), date(11, 3), domain.ErrInvalidDateRange},
		{"reversed", date(12, 5), date(12, 1), domain.ErrInvalidDateRange},
		{"too long", date(12, 1), date(12, 1).AddDate(0, 0, 31), domain.ErrInvalidDateRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := book(svc, "c1", "R1", tc.in, tc.out, "100"); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}

	_, err := svc.CreateReservation(context.Background(), domain.CreateReservation{
		CustomerID: "c1", CheckInDate: date(12, 1), CheckOutDate: date(12, 2), TotalPrice: dec("10"),
	})
	if !errors.Is(err, domain.ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
}

func TestCreateReservation_NoWallet(t *testing.T) {
	svc, _, _ := newBooking(t)
	if _, err := book(svc, "ghost", "R1", date(12, 1), date(12, 5), "100"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateReservation_DatesAndRooms(t *testing.T) {
	svc, _, _ := newBooking(t)
	fund(t, svc, "c1", "1000")
	fund(t, svc, "c2", "1000")
	ctx := context.Background()

	mine, _ := book(svc, "c1", "R1", date(12, 1), date(12, 5), "100")
	if _, err := book(svc, "c2", "R2", date(12, 3), date(12, 6), "100"); err != nil {
		t.Fatalf("book R2: %v", err)
	}

	// Moving within its own window is not a conflict with itself.
	in, out := date(12, 2), date(12, 6)
	rv, err := svc.UpdateReservation(ctx, domain.UpdateReservation{
		ReservationID: mine.ID, NewCheckInDate: &in, NewCheckOutDate: &out,
	})
	if err != nil {
		t.Fatalf("change dates: %v", err)
	}
	if rv.Nights != 4 || !rv.CheckIn.Equal(in) {
		t.Fatalf("unexpected dates: %+v", rv)
	}

	_, err = svc.UpdateReservation(ctx, domain.UpdateReservation{ReservationID: mine.ID, RoomIDsToAdd: []string{"R2"}})
	if !errors.Is(err, domain.ErrBookingConflict) {
		t.Fatalf("expected ErrBookingConflict adding R2, got %v", err)
	}

	price := dec("180")
	rv, err = svc.UpdateReservation(ctx, domain.UpdateReservation{
		ReservationID: mine.ID, RoomIDsToAdd: []string{"R3"}, NewTotalPrice: &price,
	})
	if err != nil {
		t.Fatalf("add room: %v", err)
	}
	if len(rv.RoomIDs) != 2 || rv.TotalPrice != "180.00 EUR" {
		t.Fatalf("unexpected update: %+v", rv)
	}

	_, err = svc.UpdateReservation(ctx, domain.UpdateReservation{
		ReservationID: mine.ID, RoomIDsToRemove: []string{"R1", "R3"},
	})
	if !errors.Is(err, domain.ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
}

func TestUpdateReservation_ConfirmedDatesLocked(t *testing.T) {
	svc, _, _ := newBooking(t)
	fund(t, svc, "c1", "1000")
	ctx := context.Background()

	rv, _ := book(svc, "c1", "R1", date(12, 1), date(12, 5), "100")
	_, _ = svc.ConfirmReservation(ctx, domain.ConfirmReservation{ReservationID: rv.ID})

	in, out := date(12, 2), date(12, 6)
	_, err := svc.UpdateReservation(ctx, domain.UpdateReservation{
		ReservationID: rv.ID, NewCheckInDate: &in, NewCheckOutDate: &out,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestDeleteReservation(t *testing.T) {
	svc, db, cache := newBooking(t)
	fund(t, svc, "c1", "200")
	ctx := context.Background()

	rv, _ := book(svc, "c1", "R1", date(12, 1), date(12, 5), "100")
	if err := svc.DeleteReservation(ctx, rv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Reservations().FindOneByID(ctx, rv.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.DeleteReservation(ctx, rv.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if !contains(cache.dels, "reservation:"+rv.ID) || !contains(cache.dels, "room:R1:history") {
		t.Fatalf("cache not invalidated: %v", cache.dels)
	}
}

func TestCreateWallet_Duplicate(t *testing.T) {
	svc, _, _ := newBooking(t)
	ctx := context.Background()
	if _, err := svc.CreateWallet(ctx, domain.CreateWallet{CustomerID: "c1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateWallet(ctx, domain.CreateWallet{CustomerID: "c1"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAddFunds_ConvertsToReference(t *testing.T) {
	svc, _, _ := newBooking(t)
	ctx := context.Background()
	_, _ = svc.CreateWallet(ctx, domain.CreateWallet{CustomerID: "c1"})

	wv, err := svc.AddFunds(ctx, domain.AddFunds{CustomerID: "c1", Amount: dec("100"), Currency: "USD"})
	if err != nil {
		t.Fatalf("add funds: %v", err)
	}
	if wv.Currency != "EUR" {
		t.Fatalf("balance must stay in reference currency, got %s", wv.Currency)
	}
	if !wv.Amount.IsPositive() {
		t.Fatalf("balance not credited: %s", wv.Balance)
	}

	if _, err := svc.AddFunds(ctx, domain.AddFunds{CustomerID: "c1", Amount: dec("0"), Currency: "EUR"}); !errors.Is(err, domain.ErrInvalidMoneyAmount) {
		t.Fatalf("expected ErrInvalidMoneyAmount for zero top-up, got %v", err)
	}
	if _, err := svc.AddFunds(ctx, domain.AddFunds{CustomerID: "c1", Amount: dec("5"), Currency: "XYZ"}); !errors.Is(err, domain.ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
