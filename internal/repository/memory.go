package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/model"
)

// MemoryStore keeps rooms, enrollments, tickets and bookings in process
// memory. A single mutex guards all of it, so ReserveNew and ReserveMove
// check capacity and write as one step, the same guarantee the PostgreSQL
// repositories get from row locks.
type MemoryStore struct {
	mu          sync.Mutex
	now         func() time.Time
	rooms       map[int]model.Room
	enrollments map[int]model.Enrollment // by user id
	tickets     map[int]model.Ticket     // by enrollment id
	bookings    map[int]model.Booking    // by booking id
	nextID      map[string]int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:         func() time.Time { return time.Now().UTC() },
		rooms:       make(map[int]model.Room),
		enrollments: make(map[int]model.Enrollment),
		tickets:     make(map[int]model.Ticket),
		bookings:    make(map[int]model.Booking),
		nextID:      make(map[string]int),
	}
}

func (s *MemoryStore) id(table string) int {
	s.nextID[table]++
	return s.nextID[table]
}

// AddRoom stores a room. A zero ID is replaced by the next free one.
func (s *MemoryStore) AddRoom(room model.Room) model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room.ID == 0 {
		room.ID = s.id("rooms")
	} else if room.ID > s.nextID["rooms"] {
		s.nextID["rooms"] = room.ID
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = s.now()
	}
	if room.UpdatedAt.IsZero() {
		room.UpdatedAt = room.CreatedAt
	}
	s.rooms[room.ID] = room
	return room
}

// Enroll creates an enrollment for userID.
func (s *MemoryStore) Enroll(userID int) model.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := model.Enrollment{ID: s.id("enrollments"), UserID: userID}
	s.enrollments[userID] = e
	return e
}

// AddTicket attaches a ticket to an enrollment.
func (s *MemoryStore) AddTicket(enrollmentID int, status model.TicketStatus, tt model.TicketType) model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tt.ID == 0 {
		tt.ID = s.id("ticket_types")
	}
	t := model.Ticket{ID: s.id("tickets"), EnrollmentID: enrollmentID, Status: status, TicketType: tt}
	s.tickets[enrollmentID] = t
	return t
}

// SeedBooking inserts a booking without any capacity check.
func (s *MemoryStore) SeedBooking(userID, roomID int) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insert(userID, roomID)
}

func (s *MemoryStore) insert(userID, roomID int) model.Booking {
	now := s.now()
	b := model.Booking{ID: s.id("bookings"), UserID: userID, RoomID: roomID, CreatedAt: now, UpdatedAt: now}
	s.bookings[b.ID] = b
	return b
}

// occupancy counts bookings on roomID. Callers hold mu.
func (s *MemoryStore) occupancy(roomID int) int {
	n := 0
	for _, b := range s.bookings {
		if b.RoomID == roomID {
			n++
		}
	}
	return n
}

// firstBooking returns the lowest-id booking matching userID (and bookingID
// when non-zero). Callers hold mu.
func (s *MemoryStore) firstBooking(userID, bookingID int) (model.Booking, bool) {
	var (
		found model.Booking
		ok    bool
	)
	for _, b := range s.bookings {
		if b.UserID != userID || (bookingID != 0 && b.ID != bookingID) {
			continue
		}
		if !ok || b.ID < found.ID {
			found, ok = b, true
		}
	}
	return found, ok
}

func (s *MemoryStore) reserveSeat(roomID int) error {
	room, ok := s.rooms[roomID]
	if !ok {
		return ErrNotFound
	}
	if !room.HasVacancy(s.occupancy(roomID)) {
		return ErrRoomFull
	}
	return nil
}

// Rooms returns a room reader backed by the store.
func (s *MemoryStore) Rooms() *MemoryRooms { return &MemoryRooms{s} }

// Enrollments returns an enrollment reader backed by the store.
func (s *MemoryStore) Enrollments() *MemoryEnrollments { return &MemoryEnrollments{s} }

// Tickets returns a ticket reader backed by the store.
func (s *MemoryStore) Tickets() *MemoryTickets { return &MemoryTickets{s} }

// Bookings returns the booking repository backed by the store.
func (s *MemoryStore) Bookings() *MemoryBookings { return &MemoryBookings{s} }

type MemoryRooms struct{ s *MemoryStore }

func (r *MemoryRooms) FindByID(_ context.Context, id int) (*model.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &room, nil
}

type MemoryEnrollments struct{ s *MemoryStore }

func (r *MemoryEnrollments) FindByUserID(_ context.Context, userID int) (*model.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.enrollments[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

type MemoryTickets struct{ s *MemoryStore }

func (r *MemoryTickets) FindByEnrollmentID(_ context.Context, enrollmentID int) (*model.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tickets[enrollmentID]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

type MemoryBookings struct{ s *MemoryStore }

func (r *MemoryBookings) FindByUserID(_ context.Context, userID int) (*model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.firstBooking(userID, 0)
	if !ok {
		return nil, ErrNotFound
	}
	if room, ok := r.s.rooms[b.RoomID]; ok {
		b.Room = &room
	}
	return &b, nil
}

func (r *MemoryBookings) ListByRoom(_ context.Context, roomID int) ([]model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []model.Booking
	for _, b := range r.s.bookings {
		if b.RoomID == roomID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryBookings) ReserveNew(_ context.Context, req NewReservation) (*model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if req.Exclusive {
		if _, held := r.s.firstBooking(req.UserID, 0); held {
			return nil, ErrAlreadyBooked
		}
	}
	if err := r.s.reserveSeat(req.RoomID); err != nil {
		return nil, err
	}
	b := r.s.insert(req.UserID, req.RoomID)
	return &b, nil
}

func (r *MemoryBookings) ReserveMove(_ context.Context, req MoveReservation) (*model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.reserveSeat(req.RoomID); err != nil {
		return nil, err
	}
	b, ok := r.s.firstBooking(req.UserID, req.BookingID)
	if !ok {
		return nil, ErrNoBooking
	}
	b.RoomID = req.RoomID
	b.UpdatedAt = r.s.now()
	r.s.bookings[b.ID] = b
	return &b, nil
}
