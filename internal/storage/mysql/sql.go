package mysql

// -----------------------------------------------------------------------------
// RESERVATIONS
// -----------------------------------------------------------------------------

const upsertReservationSQL = `
INSERT INTO reservations
  (id, customer_id, check_in, check_out, total_price, currency, status, reservation_date)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  check_in    = VALUES(check_in),
  check_out   = VALUES(check_out),
  total_price = VALUES(total_price),
  currency    = VALUES(currency),
  status      = VALUES(status)
`

const deleteReservationRoomsSQL = `DELETE FROM reservation_rooms WHERE reservation_id = ?`

const insertReservationRoomsPrefix = "INSERT INTO reservation_rooms (reservation_id, room_id, position) VALUES "

const deleteReservationSQL = `DELETE FROM reservations WHERE id = ?`

const selectReservationCols = `
SELECT r.id, r.customer_id, r.check_in, r.check_out, r.total_price, r.currency, r.status, r.reservation_date
FROM reservations r
`

const getReservationSQL = selectReservationCols + `WHERE r.id = ?`

// Row lock for read-modify-write inside a transaction.
const lockReservationSQL = `SELECT id FROM reservations WHERE id = ? FOR UPDATE`

// Half-open overlap: existing.check_in < new.check_out AND new.check_in < existing.check_out.
const conflictingReservationsSQL = selectReservationCols + `
JOIN reservation_rooms rr ON rr.reservation_id = r.id
WHERE rr.room_id = ?
  AND r.status <> 'CANCELLED'
  AND r.check_in < ?
  AND r.check_out > ?
ORDER BY r.reservation_date, r.id
`

const reservationsByRoomSQL = selectReservationCols + `
JOIN reservation_rooms rr ON rr.reservation_id = r.id
WHERE rr.room_id = ?
ORDER BY r.reservation_date, r.id
`

const reservationsByCustomerSQL = selectReservationCols + `
WHERE r.customer_id = ?
ORDER BY r.reservation_date, r.id
`

// Suffixed with the IN list at call time.
const roomsForReservationsPrefix = `
SELECT reservation_id, room_id
FROM reservation_rooms
WHERE reservation_id IN `

const roomsForReservationsOrder = ` ORDER BY reservation_id, position`

// -----------------------------------------------------------------------------
// WALLETS
// -----------------------------------------------------------------------------

const getWalletByCustomerSQL = `
SELECT id, customer_id, balance, currency
FROM wallets
WHERE customer_id = ?
`

const walletExistsSQL = `SELECT 1 FROM wallets WHERE id = ?`

const insertWalletSQL = `
INSERT INTO wallets (id, customer_id, balance, currency)
VALUES (?, ?, ?, ?)
`

const updateWalletSQL = `
UPDATE wallets SET balance = ?, currency = ?
WHERE id = ?
`

// -----------------------------------------------------------------------------
// ROOM LOCKS
// -----------------------------------------------------------------------------

const ensureRoomLockPrefix = "INSERT IGNORE INTO room_locks (room_id) VALUES "

const lockRoomsPrefix = "SELECT room_id FROM room_locks WHERE room_id IN "

const lockRoomsSuffix = " ORDER BY room_id FOR UPDATE"

// -----------------------------------------------------------------------------
// CURRENCY RATES
// -----------------------------------------------------------------------------

const loadRatesSQL = `SELECT currency, rate FROM currency_rates`

const upsertRateSQL = `
INSERT INTO currency_rates (currency, rate)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  rate       = VALUES(rate),
  updated_at = CURRENT_TIMESTAMP
`
