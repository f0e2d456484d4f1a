package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"hotel_booking/internal/domain"
)

// DB keeps reservations, wallets and rates in process memory. Transactions
// are serialized and their writes are applied only when fn succeeds.
type DB struct {
	txMu sync.Mutex

	mu           sync.RWMutex
	reservations map[string]*domain.Reservation
	wallets      map[string]*domain.Wallet // by customer id
	rates        map[domain.Currency]decimal.Decimal
	nextTrxID    int64
}

func New() *DB {
	return &DB{
		reservations: make(map[string]*domain.Reservation),
		wallets:      make(map[string]*domain.Wallet),
		rates:        make(map[domain.Currency]decimal.Decimal),
	}
}

type transaction struct {
	id           int64
	db           *DB
	reservations map[string]*domain.Reservation // nil value marks a delete
	wallets      map[string]*domain.Wallet
}

func (db *DB) WithinTx(ctx context.Context, roomIDs []string, fn func(ctx context.Context, tx domain.Tx) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	trx := &transaction{
		id:           db.nextTrxID,
		db:           db,
		reservations: make(map[string]*domain.Reservation),
		wallets:      make(map[string]*domain.Wallet),
	}
	db.nextTrxID++
	db.mu.Unlock()

	if err := fn(ctx, trx); err != nil {
		log.Debug().Int64("trx", trx.id).Strs("rooms", roomIDs).Err(err).Msg("memory tx rolled back")
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	for id, r := range trx.reservations {
		if r == nil {
			delete(db.reservations, id)
			continue
		}
		db.reservations[id] = r
	}
	for customerID, w := range trx.wallets {
		db.wallets[customerID] = w
	}
	return nil
}

// LockRooms is a no-op: the whole transaction already holds the store.
func (t *transaction) LockRooms(context.Context, []string) error { return nil }

func (t *transaction) Reservations() domain.ReservationStore { return reservationStore{db: t.db, trx: t} }
func (t *transaction) Wallets() domain.WalletStore           { return walletStore{db: t.db, trx: t} }

// Reservations returns a store over committed state; writes apply immediately.
func (db *DB) Reservations() domain.ReservationStore { return reservationStore{db: db} }

// Wallets returns a store over committed state; writes apply immediately.
func (db *DB) Wallets() domain.WalletStore { return walletStore{db: db} }

/********** reservations **********/

type reservationStore struct {
	db  *DB
	trx *transaction
}

// snapshot merges committed rows with the transaction's staged writes.
func (s reservationStore) snapshot() []*domain.Reservation {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	out := make([]*domain.Reservation, 0, len(s.db.reservations))
	for id, r := range s.db.reservations {
		if s.trx != nil {
			if _, staged := s.trx.reservations[id]; staged {
				continue
			}
		}
		out = append(out, r)
	}
	if s.trx != nil {
		for _, r := range s.trx.reservations {
			if r != nil {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReservationDate().Equal(out[j].ReservationDate()) {
			return out[i].ReservationDate().Before(out[j].ReservationDate())
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

func (s reservationStore) FindOneByID(_ context.Context, id string) (*domain.Reservation, error) {
	if s.trx != nil {
		if r, staged := s.trx.reservations[id]; staged {
			if r == nil {
				return nil, domain.ErrNotFound
			}
			return cloneReservation(r), nil
		}
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	r, ok := s.db.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneReservation(r), nil
}

func (s reservationStore) FindConflictingReservations(_ context.Context, roomID string, checkIn, checkOut time.Time) ([]*domain.Reservation, error) {
	dates, err := domain.RestoreDateRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	var out []*domain.Reservation
	for _, r := range s.snapshot() {
		if r.ConflictsWith(roomID, dates) {
			out = append(out, cloneReservation(r))
		}
	}
	return out, nil
}

func (s reservationStore) FindByRoomID(_ context.Context, roomID string) ([]*domain.Reservation, error) {
	var out []*domain.Reservation
	for _, r := range s.snapshot() {
		if r.Rooms().Has(roomID) {
			out = append(out, cloneReservation(r))
		}
	}
	return out, nil
}

func (s reservationStore) FindByCustomerID(_ context.Context, customerID string) ([]*domain.Reservation, error) {
	var out []*domain.Reservation
	for _, r := range s.snapshot() {
		if r.CustomerID() == customerID {
			out = append(out, cloneReservation(r))
		}
	}
	return out, nil
}

func (s reservationStore) Save(_ context.Context, r *domain.Reservation) error {
	c := cloneReservation(r)
	if s.trx != nil {
		s.trx.reservations[r.ID()] = c
		return nil
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.reservations[r.ID()] = c
	return nil
}

func (s reservationStore) Delete(ctx context.Context, id string) error {
	if _, err := s.FindOneByID(ctx, id); err != nil {
		return err
	}
	if s.trx != nil {
		s.trx.reservations[id] = nil
		return nil
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.reservations, id)
	return nil
}

/********** wallets **********/

type walletStore struct {
	db  *DB
	trx *transaction
}

func (s walletStore) FindByCustomerID(_ context.Context, customerID string) (*domain.Wallet, error) {
	if s.trx != nil {
		if w, staged := s.trx.wallets[customerID]; staged {
			return cloneWallet(w), nil
		}
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	w, ok := s.db.wallets[customerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneWallet(w), nil
}

func (s walletStore) Save(_ context.Context, w *domain.Wallet) error {
	c := cloneWallet(w)
	if s.trx != nil {
		s.trx.wallets[w.CustomerID()] = c
		return nil
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.wallets[w.CustomerID()] = c
	return nil
}

/********** rates **********/

func (db *DB) LoadRates(_ context.Context) (map[domain.Currency]decimal.Decimal, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make(map[domain.Currency]decimal.Decimal, len(db.rates))
	for c, r := range db.rates {
		out[c] = r
	}
	return out, nil
}

func (db *DB) UpsertRate(_ context.Context, c domain.Currency, rate decimal.Decimal) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.rates[c] = rate
	return nil
}

// Stored aggregates are never handed out; callers mutate copies.

func cloneReservation(r *domain.Reservation) *domain.Reservation {
	return domain.RestoreReservation(r.ID(), r.CustomerID(), r.Rooms(), r.Dates(),
		r.TotalPrice(), r.ReservationDate(), r.Status())
}

func cloneWallet(w *domain.Wallet) *domain.Wallet {
	return domain.RestoreWallet(w.ID(), w.CustomerID(), w.Balance())
}
