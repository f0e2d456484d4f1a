package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"hotel_booking/internal/domain"
)

const errDuplicateEntry = 1062

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Reservations reads committed state; each Save or Delete runs in its own transaction.
func (r *Repo) Reservations() domain.ReservationStore { return reservationStore{repo: r, q: r.db} }

func (r *Repo) Wallets() domain.WalletStore { return walletStore{repo: r, q: r.db} }

func (r *Repo) WithinTx(ctx context.Context, roomIDs []string, fn func(ctx context.Context, tx domain.Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	t := &tx{repo: r, tx: sqlTx}

	if len(roomIDs) > 0 {
		if err := t.LockRooms(ctx, roomIDs); err != nil {
			_ = sqlTx.Rollback()
			return err
		}
	}
	if err := fn(ctx, t); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			log.Warn().Err(rbErr).Msg("mysql rollback failed")
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type tx struct {
	repo *Repo
	tx   *sql.Tx
}

func (t *tx) Reservations() domain.ReservationStore {
	return reservationStore{repo: t.repo, q: t.tx, inTx: true}
}

func (t *tx) Wallets() domain.WalletStore {
	return walletStore{repo: t.repo, q: t.tx, inTx: true}
}

// LockRooms takes row locks on room_locks in id order so concurrent
// bookings of overlapping room sets cannot deadlock each other.
func (t *tx) LockRooms(ctx context.Context, roomIDs []string) error {
	ids := uniqueSorted(roomIDs)
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	values := strings.TrimSuffix(strings.Repeat("(?),", len(ids)), ",")
	if _, err := t.tx.ExecContext(ctx, ensureRoomLockPrefix+values, args...); err != nil {
		return fmt.Errorf("ensure room locks: %w", err)
	}
	rows, err := t.tx.QueryContext(ctx, lockRoomsPrefix+placeholders(len(ids))+lockRoomsSuffix, args...)
	if err != nil {
		return fmt.Errorf("lock rooms: %w", err)
	}
	return rows.Close()
}

/********** reservations **********/

type reservationStore struct {
	repo *Repo
	q    querier
	inTx bool
}

func (s reservationStore) FindOneByID(ctx context.Context, id string) (*domain.Reservation, error) {
	if s.inTx {
		var got string
		if err := s.q.QueryRowContext(ctx, lockReservationSQL, id).Scan(&got); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, err
		}
	}
	rs, err := s.query(ctx, getReservationSQL, id)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, domain.ErrNotFound
	}
	return rs[0], nil
}

func (s reservationStore) FindConflictingReservations(ctx context.Context, roomID string, checkIn, checkOut time.Time) ([]*domain.Reservation, error) {
	return s.query(ctx, conflictingReservationsSQL, roomID, checkOut.UTC(), checkIn.UTC())
}

func (s reservationStore) FindByRoomID(ctx context.Context, roomID string) ([]*domain.Reservation, error) {
	return s.query(ctx, reservationsByRoomSQL, roomID)
}

func (s reservationStore) FindByCustomerID(ctx context.Context, customerID string) ([]*domain.Reservation, error) {
	return s.query(ctx, reservationsByCustomerSQL, customerID)
}

func (s reservationStore) Save(ctx context.Context, r *domain.Reservation) error {
	if !s.inTx {
		return s.repo.WithinTx(ctx, nil, func(ctx context.Context, t domain.Tx) error {
			return t.Reservations().Save(ctx, r)
		})
	}
	price := r.TotalPrice()
	if _, err := s.q.ExecContext(ctx, upsertReservationSQL,
		r.ID(),
		r.CustomerID(),
		r.CheckIn().UTC(),
		r.CheckOut().UTC(),
		price.Amount(),
		string(price.Currency()),
		string(r.Status()),
		r.ReservationDate().UTC(),
	); err != nil {
		return fmt.Errorf("upsert reservation: %w", err)
	}

	if _, err := s.q.ExecContext(ctx, deleteReservationRoomsSQL, r.ID()); err != nil {
		return fmt.Errorf("clear reservation rooms: %w", err)
	}
	rooms := r.Rooms().IDs()
	values := make([]string, 0, len(rooms))
	args := make([]any, 0, len(rooms)*3)
	for i, room := range rooms {
		values = append(values, "(?,?,?)")
		args = append(args, r.ID(), room, i)
	}
	if _, err := s.q.ExecContext(ctx, insertReservationRoomsPrefix+strings.Join(values, ","), args...); err != nil {
		return fmt.Errorf("insert reservation rooms: %w", err)
	}
	return nil
}

func (s reservationStore) Delete(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, deleteReservationSQL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type reservationRow struct {
	id, customerID   string
	checkIn, out     time.Time
	total            decimal.Decimal
	currency, status string
	reservedAt       time.Time
}

// query runs a reservation SELECT and attaches each row's rooms in booking order.
func (s reservationStore) query(ctx context.Context, q string, args ...any) ([]*domain.Reservation, error) {
	rows, err := s.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var raw []reservationRow
	for rows.Next() {
		var row reservationRow
		if err := rows.Scan(&row.id, &row.customerID, &row.checkIn, &row.out,
			&row.total, &row.currency, &row.status, &row.reservedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()
	if len(raw) == 0 {
		return nil, nil
	}

	ids := make([]any, len(raw))
	for i, row := range raw {
		ids[i] = row.id
	}
	rooms, err := s.rooms(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Reservation, 0, len(raw))
	for _, row := range raw {
		r, err := restoreReservation(row, rooms[row.id])
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", row.id, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s reservationStore) rooms(ctx context.Context, ids []any) (map[string][]string, error) {
	rows, err := s.q.QueryContext(ctx, roomsForReservationsPrefix+placeholders(len(ids))+roomsForReservationsOrder, ids...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string, len(ids))
	for rows.Next() {
		var resID, roomID string
		if err := rows.Scan(&resID, &roomID); err != nil {
			return nil, err
		}
		out[resID] = append(out[resID], roomID)
	}
	return out, rows.Err()
}

func restoreReservation(row reservationRow, rooms []string) (*domain.Reservation, error) {
	sel, err := domain.NewRoomSelection(rooms)
	if err != nil {
		return nil, err
	}
	dates, err := domain.RestoreDateRange(row.checkIn.UTC(), row.out.UTC())
	if err != nil {
		return nil, err
	}
	price, err := domain.NewTotalPrice(row.total, row.currency)
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseStatus(row.status)
	if err != nil {
		return nil, err
	}
	return domain.RestoreReservation(row.id, row.customerID, sel, dates, price, row.reservedAt.UTC(), status), nil
}

/********** wallets **********/

type walletStore struct {
	repo *Repo
	q    querier
	inTx bool
}

func (s walletStore) FindByCustomerID(ctx context.Context, customerID string) (*domain.Wallet, error) {
	q := getWalletByCustomerSQL
	if s.inTx {
		q += " FOR UPDATE"
	}
	var (
		id, customer, currency string
		balance                decimal.Decimal
	)
	if err := s.q.QueryRowContext(ctx, q, customerID).Scan(&id, &customer, &balance, &currency); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	m, err := domain.NewMoney(balance, domain.Currency(currency))
	if err != nil {
		return nil, fmt.Errorf("wallet %s: %w", id, err)
	}
	return domain.RestoreWallet(id, customer, m), nil
}

func (s walletStore) Save(ctx context.Context, w *domain.Wallet) error {
	var one int
	err := s.q.QueryRowContext(ctx, walletExistsSQL, w.ID()).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.q.ExecContext(ctx, insertWalletSQL,
			w.ID(), w.CustomerID(), w.Balance().Amount(), string(w.Balance().Currency()))
		if isDuplicate(err) {
			return fmt.Errorf("wallet for customer %s: %w", w.CustomerID(), domain.ErrAlreadyExists)
		}
		return err
	case err != nil:
		return err
	}
	_, err = s.q.ExecContext(ctx, updateWalletSQL,
		w.Balance().Amount(), string(w.Balance().Currency()), w.ID())
	return err
}

/********** rates **********/

func (r *Repo) LoadRates(ctx context.Context) (map[domain.Currency]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, loadRatesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[domain.Currency]decimal.Decimal{}
	for rows.Next() {
		var (
			c    string
			rate decimal.Decimal
		)
		if err := rows.Scan(&c, &rate); err != nil {
			return nil, err
		}
		out[domain.Currency(c)] = rate
	}
	return out, rows.Err()
}

func (r *Repo) UpsertRate(ctx context.Context, c domain.Currency, rate decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, upsertRateSQL, string(c), rate)
	return err
}

/********** helpers **********/

func isDuplicate(err error) bool {
	var me *mysqldrv.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?,", n), ",") + ")"
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
