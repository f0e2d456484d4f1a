package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

type Handlers struct {
	B *app.BookingService
	Q *app.QueryService
	// Ping reports backing store health for /healthz; nil means always healthy.
	Ping func(ctx context.Context) error
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", h.healthz)

	s.mux.Route("/v1", func(r chi.Router) {
		r.Post("/reservations", h.createReservation)
		r.Get("/reservations/{id}", h.getReservation)
		r.Patch("/reservations/{id}", h.updateReservation)
		r.Delete("/reservations/{id}", h.deleteReservation)
		r.Post("/reservations/{id}/confirm", h.confirmReservation)
		r.Post("/reservations/{id}/cancel", h.cancelReservation)

		r.Get("/customers/{id}/reservations", h.listCustomerReservations)
		r.Get("/rooms/{id}/reservations", h.roomHistory)

		r.Post("/wallets", h.createWallet)
		r.Get("/wallets/{customerID}", h.getWallet)
		r.Post("/wallets/{customerID}/funds", h.addFunds)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain error kinds onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrBookingConflict):
		writeProblem(w, http.StatusConflict, "Booking Conflict", err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeProblem(w, http.StatusConflict, "Already Exists", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		writeProblem(w, http.StatusUnprocessableEntity, "Insufficient Funds", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrInvalidState):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid State", err.Error())
	case errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrEmptySelection),
		errors.Is(err, domain.ErrInvalidRoomID),
		errors.Is(err, domain.ErrInvalidCustomerID),
		errors.Is(err, domain.ErrInvalidPhase),
		errors.Is(err, domain.ErrInvalidMoneyAmount):
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCacheable serves v with a weak ETag and honors If-None-Match.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	return true
}

// parseDate accepts a calendar date (2006-01-02, read as UTC midnight) or RFC 3339.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is neither YYYY-MM-DD nor RFC 3339", domain.ErrInvalidDateRange, s)
	}
	return t, nil
}

/********** health **********/

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

/********** reservations **********/

type createReservationRequest struct {
	CustomerID   string          `json:"customer_id"`
	RoomIDs      []string        `json:"room_ids"`
	CheckInDate  string          `json:"check_in_date"`
	CheckOutDate string          `json:"check_out_date"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	NightlyRate  decimal.Decimal `json:"nightly_rate"`
	Currency     string          `json:"currency"`
}

func (h *Handlers) createReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := parseDate(req.CheckInDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := parseDate(req.CheckOutDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rv, err := h.B.CreateReservation(r.Context(), domain.CreateReservation{
		CustomerID:   req.CustomerID,
		RoomIDs:      req.RoomIDs,
		CheckInDate:  in,
		CheckOutDate: out,
		TotalPrice:   req.TotalPrice,
		NightlyRate:  req.NightlyRate,
		Currency:     req.Currency,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/reservations/"+rv.ID)
	writeJSON(w, http.StatusCreated, rv)
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	rv, err := h.Q.GetReservation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, rv)
}

type updateReservationRequest struct {
	NewCheckInDate  *string          `json:"new_check_in_date,omitempty"`
	NewCheckOutDate *string          `json:"new_check_out_date,omitempty"`
	RoomIDsToAdd    []string         `json:"room_ids_to_add,omitempty"`
	RoomIDsToRemove []string         `json:"room_ids_to_remove,omitempty"`
	NewTotalPrice   *decimal.Decimal `json:"new_total_price,omitempty"`
	Currency        string           `json:"currency,omitempty"`
}

func (h *Handlers) updateReservation(w http.ResponseWriter, r *http.Request) {
	var req updateReservationRequest
	if !decode(w, r, &req) {
		return
	}
	cmd := domain.UpdateReservation{
		ReservationID:   chi.URLParam(r, "id"),
		RoomIDsToAdd:    req.RoomIDsToAdd,
		RoomIDsToRemove: req.RoomIDsToRemove,
		NewTotalPrice:   req.NewTotalPrice,
		Currency:        req.Currency,
	}
	if req.NewCheckInDate != nil {
		t, err := parseDate(*req.NewCheckInDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cmd.NewCheckInDate = &t
	}
	if req.NewCheckOutDate != nil {
		t, err := parseDate(*req.NewCheckOutDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cmd.NewCheckOutDate = &t
	}
	rv, err := h.B.UpdateReservation(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *Handlers) deleteReservation(w http.ResponseWriter, r *http.Request) {
	if err := h.B.DeleteReservation(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) confirmReservation(w http.ResponseWriter, r *http.Request) {
	rv, err := h.B.ConfirmReservation(r.Context(), domain.ConfirmReservation{ReservationID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *Handlers) cancelReservation(w http.ResponseWriter, r *http.Request) {
	rv, err := h.B.CancelReservation(r.Context(), domain.CancelReservation{ReservationID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

// listCustomerReservations narrows to a stay phase with ?phase=upcoming|current|past.
func (h *Handlers) listCustomerReservations(w http.ResponseWriter, r *http.Request) {
	var (
		out []domain.ReservationView
		err error
	)
	if phase := r.URL.Query().Get("phase"); phase != "" {
		out, err = h.Q.CustomerReservationsInPhase(r.Context(), chi.URLParam(r, "id"), phase)
	} else {
		out, err = h.Q.ListCustomerReservations(r.Context(), chi.URLParam(r, "id"))
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, map[string]any{"items": out})
}

func (h *Handlers) roomHistory(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.RoomHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, map[string]any{"items": out})
}

/********** wallets **********/

func (h *Handlers) createWallet(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateWallet
	if !decode(w, r, &req) {
		return
	}
	wv, err := h.B.CreateWallet(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/wallets/"+wv.CustomerID)
	writeJSON(w, http.StatusCreated, wv)
}

func (h *Handlers) getWallet(w http.ResponseWriter, r *http.Request) {
	wv, err := h.Q.GetWallet(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, wv)
}

type addFundsRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (h *Handlers) addFunds(w http.ResponseWriter, r *http.Request) {
	var req addFundsRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Currency == "" {
		req.Currency = string(domain.EUR)
	}
	wv, err := h.B.AddFunds(r.Context(), domain.AddFunds{
		CustomerID: chi.URLParam(r, "customerID"),
		Amount:     req.Amount,
		Currency:   req.Currency,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wv)
}
