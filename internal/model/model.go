// Package model defines the core domain types for the hotel booking system.
package model

import "time"

// TicketStatus is the payment state of a ticket.
type TicketStatus string

const (
	TicketReserved TicketStatus = "RESERVED"
	TicketPaid     TicketStatus = "PAID"
)

// Room is a bookable unit inside a hotel.
type Room struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	HotelID   int       `json:"hotelId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasVacancy reports whether one more booking fits, given the number of
// bookings already referencing the room. Equality means full.
func (r *Room) HasVacancy(occupancy int) bool {
	return occupancy < r.Capacity
}

// Enrollment is a user's registration for the event.
type Enrollment struct {
	ID     int `json:"id"`
	UserID int `json:"userId"`
}

// TicketType holds the category attributes of a ticket.
type TicketType struct {
	ID            int  `json:"id"`
	IsRemote      bool `json:"isRemote"`
	IncludesHotel bool `json:"includesHotel"`
}

// Ticket is a user's admission record, joined with its type.
type Ticket struct {
	ID           int          `json:"id"`
	EnrollmentID int          `json:"enrollmentId"`
	Status       TicketStatus `json:"status"`
	TicketType   TicketType   `json:"TicketType"`
}

// QualifiesForHotel returns true for a paid, in-person ticket whose type
// includes accommodation.
func (t *Ticket) QualifiesForHotel() bool {
	return t.Status == TicketPaid && !t.TicketType.IsRemote && t.TicketType.IncludesHotel
}

// Booking links a user to a room.
type Booking struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	RoomID    int       `json:"roomId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Room is populated by reads that join the room row.
	Room *Room `json:"Room,omitempty"`
}

// BookingRequest is the payload for creating or changing a booking.
// RoomID is kept raw so that a non-numeric value can be rejected by the
// handler rather than by the JSON decoder.
type BookingRequest struct {
	RoomID any `json:"roomId"`
}

// BookingView is the response body of GET /booking.
type BookingView struct {
	ID   int  `json:"id"`
	Room Room `json:"Room"`
}

// BookingIDResponse is returned by successful create and update calls.
type BookingIDResponse struct {
	BookingID int `json:"bookingId"`
}

// RoomOccupancy summarises how full a room is.
type RoomOccupancy struct {
	RoomID    int `json:"roomId"`
	Capacity  int `json:"capacity"`
	Occupancy int `json:"occupancy"`
	Available int `json:"available"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BookingResult summarises the outcome of a single booking attempt.
// Used by the concurrent booking tests.
type BookingResult struct {
	UserID  int
	Booking *Booking
	Err     error
}
