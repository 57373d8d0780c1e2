// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/apperror"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/service"
	"github.com/go-chi/chi/v5"
)

// BookingHandler holds all HTTP handlers for the booking API.
type BookingHandler struct {
	svc    *service.BookingService
	logger *slog.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc *service.BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	dec.UseNumber()
	return dec.Decode(dst)
}

// writeServiceError maps a service error to a response. Business-rule
// failures carry their own status; anything else is logged and hidden.
func (h *BookingHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind, ok := apperror.KindOf(err)
	switch {
	case ok && kind == apperror.NotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case ok && kind == apperror.Forbidden:
		writeError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// positiveID accepts a JSON number or path segment holding a positive
// integer.
func positiveID(v any) (int, bool) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = x
	default:
		return 0, false
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// roomIDFromBody decodes a BookingRequest and validates its roomId. Only
// JSON numbers are accepted; a quoted value is invalid.
func roomIDFromBody(w http.ResponseWriter, r *http.Request) (int, bool) {
	var req model.BookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return 0, false
	}
	n, isNumber := req.RoomID.(json.Number)
	if !isNumber {
		return 0, false
	}
	return positiveID(n)
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// GetBooking handles GET /booking
// Returns the caller's booking together with its room.
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFrom(r.Context())

	b, err := h.svc.GetBooking(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	view := model.BookingView{ID: b.ID}
	if b.Room != nil {
		view.Room = *b.Room
	}
	writeJSON(w, http.StatusOK, view)
}

// CreateBooking handles POST /booking
// Reserves a place in the room given by the body's roomId.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFrom(r.Context())

	roomID, ok := roomIDFromBody(w, r)
	if !ok {
		writeError(w, http.StatusForbidden, "invalid roomId")
		return
	}

	b, err := h.svc.CreateBooking(r.Context(), userID, roomID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.BookingIDResponse{BookingID: b.ID})
}

// UpdateBooking handles PUT /booking/{bookingId}
// Moves the caller's booking to the room given by the body's roomId.
func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFrom(r.Context())

	bookingID, ok := positiveID(chi.URLParam(r, "bookingId"))
	if !ok {
		writeError(w, http.StatusForbidden, "invalid bookingId")
		return
	}

	roomID, ok := roomIDFromBody(w, r)
	if !ok {
		writeError(w, http.StatusForbidden, "invalid roomId")
		return
	}

	b, err := h.svc.UpdateBooking(r.Context(), userID, roomID, bookingID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.BookingIDResponse{BookingID: b.ID})
}

// RoomOccupancy handles GET /booking/rooms/{roomId}
// Returns capacity and current occupancy of a room.
func (h *BookingHandler) RoomOccupancy(w http.ResponseWriter, r *http.Request) {
	roomID, ok := positiveID(chi.URLParam(r, "roomId"))
	if !ok {
		writeError(w, http.StatusNotFound, "room does not exist")
		return
	}

	occ, err := h.svc.RoomOccupancy(r.Context(), roomID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, occ)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
