package app

import (
	"fmt"
	"sort"

	"hotel_booking/internal/domain"
)

/********** cache keys (single source of truth) **********/

func reservationKey(id string) string { return fmt.Sprintf("reservation:%s", id) }

// Customer ids are case-sensitive everywhere; keys must not fold them.
func walletKey(customerID string) string { return fmt.Sprintf("wallet:%s", customerID) }

func customerReservationsKey(customerID string) string {
	return fmt.Sprintf("customer:%s:reservations", customerID)
}

func roomHistoryKey(roomID string) string { return fmt.Sprintf("room:%s:history", roomID) }

/********** aggregate -> view **********/

func mapReservation(r *domain.Reservation) domain.ReservationView {
	return domain.ReservationView{
		ID:              r.ID(),
		CustomerID:      r.CustomerID(),
		RoomIDs:         r.Rooms().IDs(),
		CheckIn:         r.CheckIn(),
		CheckOut:        r.CheckOut(),
		Nights:          r.Nights(),
		Amount:          r.TotalPrice().Amount(),
		Currency:        string(r.TotalPrice().Currency()),
		TotalPrice:      r.TotalPrice().Format(),
		Status:          string(r.Status()),
		StatusLabel:     r.Status().Label(),
		ReservationDate: r.ReservationDate(),
	}
}

func mapReservations(in []*domain.Reservation) []domain.ReservationView {
	out := make([]domain.ReservationView, 0, len(in))
	for _, r := range in {
		out = append(out, mapReservation(r))
	}
	return out
}

func mapWallet(w *domain.Wallet) domain.WalletView {
	return domain.WalletView{
		ID:         w.ID(),
		CustomerID: w.CustomerID(),
		Amount:     w.Balance().Amount(),
		Currency:   string(w.Balance().Currency()),
		Balance:    w.Balance().Format(),
	}
}

// mapRoomHistory lists every reservation of a room, newest booking first.
func mapRoomHistory(in []*domain.Reservation) []domain.RoomHistoryItem {
	out := make([]domain.RoomHistoryItem, 0, len(in))
	for _, r := range in {
		out = append(out, domain.RoomHistoryItem{
			ReservationID:   r.ID(),
			CustomerID:      r.CustomerID(),
			CheckIn:         r.CheckIn(),
			CheckOut:        r.CheckOut(),
			TotalPrice:      r.TotalPrice().Amount(),
			Currency:        string(r.TotalPrice().Currency()),
			Status:          string(r.Status()),
			ReservationDate: r.ReservationDate(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReservationDate.After(out[j].ReservationDate)
	})
	return out
}
