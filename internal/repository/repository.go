// Package repository implements all database queries for the hotel booking system.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrRoomFull is returned when a room has no remaining capacity.
var ErrRoomFull = errors.New("room is fully booked")

// ErrNoBooking is returned when a move targets a user without a booking.
var ErrNoBooking = errors.New("no existing booking to modify")

// ErrAlreadyBooked is returned by an exclusive reservation when the user
// already holds a booking.
var ErrAlreadyBooked = errors.New("user already holds a booking")

// NewReservation describes a booking to create.
type NewReservation struct {
	UserID int
	RoomID int
	// Exclusive rejects the reservation when the user already holds any
	// booking.
	Exclusive bool
}

// MoveReservation describes a room change for an existing booking.
type MoveReservation struct {
	UserID int
	RoomID int
	// BookingID restricts the move to that booking. Zero selects the first
	// booking owned by UserID.
	BookingID int
}

// RoomRepository reads hotel rooms.
type RoomRepository struct {
	db *pgxpool.Pool
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

// FindByID returns a single room or ErrNotFound.
func (r *RoomRepository) FindByID(ctx context.Context, id int) (*model.Room, error) {
	room, err := scanRoom(r.db.QueryRow(ctx,
		`SELECT id, name, capacity, hotel_id, created_at, updated_at
		 FROM rooms WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// EnrollmentRepository reads event enrollments.
type EnrollmentRepository struct {
	db *pgxpool.Pool
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByUserID returns the user's enrollment or ErrNotFound.
func (r *EnrollmentRepository) FindByUserID(ctx context.Context, userID int) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id FROM enrollments WHERE user_id = $1`,
		userID,
	).Scan(&e.ID, &e.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return &e, nil
}

// TicketRepository reads tickets together with their type.
type TicketRepository struct {
	db *pgxpool.Pool
}

// NewTicketRepository constructs a TicketRepository.
func NewTicketRepository(db *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{db: db}
}

// FindByEnrollmentID returns the ticket tied to an enrollment or ErrNotFound.
func (r *TicketRepository) FindByEnrollmentID(ctx context.Context, enrollmentID int) (*model.Ticket, error) {
	var t model.Ticket
	var status string
	err := r.db.QueryRow(ctx,
		`SELECT t.id, t.enrollment_id, t.status, tt.id, tt.is_remote, tt.includes_hotel
		 FROM tickets t
		 JOIN ticket_types tt ON tt.id = t.ticket_type_id
		 WHERE t.enrollment_id = $1`,
		enrollmentID,
	).Scan(&t.ID, &t.EnrollmentID, &status, &t.TicketType.ID, &t.TicketType.IsRemote, &t.TicketType.IncludesHotel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	t.Status = model.TicketStatus(status)
	return &t, nil
}

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

// FindByUserID returns the user's first booking with its room, or ErrNotFound.
func (r *BookingRepository) FindByUserID(ctx context.Context, userID int) (*model.Booking, error) {
	var b model.Booking
	var room model.Room
	err := r.db.QueryRow(ctx,
		`SELECT b.id, b.user_id, b.room_id, b.created_at, b.updated_at,
		        r.id, r.name, r.capacity, r.hotel_id, r.created_at, r.updated_at
		 FROM bookings b
		 JOIN rooms r ON r.id = b.room_id
		 WHERE b.user_id = $1
		 ORDER BY b.id
		 LIMIT 1`,
		userID,
	).Scan(
		&b.ID, &b.UserID, &b.RoomID, &b.CreatedAt, &b.UpdatedAt,
		&room.ID, &room.Name, &room.Capacity, &room.HotelID, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	b.Room = &room
	return &b, nil
}

// ListByRoom returns all bookings referencing a room.
func (r *BookingRepository) ListByRoom(ctx context.Context, roomID int) ([]model.Booking, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, room_id, created_at, updated_at
		 FROM bookings
		 WHERE room_id = $1
		 ORDER BY id ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ReserveNew creates a booking if the room still has capacity.
//
// Counting the room's bookings and inserting a new one in two independent
// statements is not safe: two requests can both read occupancy = capacity-1
// and both insert, overselling the room. The capacity check and the insert
// therefore run in one transaction that first takes a row lock on the room
// (SELECT ... FOR UPDATE). A concurrent reservation for the same room blocks
// on that lock until this transaction commits or rolls back, and then sees
// the new booking in its count.
func (r *BookingRepository) ReserveNew(ctx context.Context, req NewReservation) (*model.Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if req.Exclusive {
		// Serialise reservations of the same user across different rooms.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(req.UserID)); err != nil {
			return nil, fmt.Errorf("lock user: %w", err)
		}
		var held bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM bookings WHERE user_id = $1)`,
			req.UserID,
		).Scan(&held); err != nil {
			return nil, fmt.Errorf("check existing booking: %w", err)
		}
		if held {
			return nil, ErrAlreadyBooked
		}
	}

	if err := reserveSeat(ctx, tx, req.RoomID); err != nil {
		return nil, err
	}

	b, err := scanBooking(tx.QueryRow(ctx,
		`INSERT INTO bookings (user_id, room_id)
		 VALUES ($1, $2)
		 RETURNING id, user_id, room_id, created_at, updated_at`,
		req.UserID, req.RoomID,
	))
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return b, nil
}

// ReserveMove points an existing booking at another room if that room still
// has capacity. The booking keeps its id. Occupancy is counted exactly as
// for ReserveNew, so the caller's own booking on the target room counts
// against it.
func (r *BookingRepository) ReserveMove(ctx context.Context, req MoveReservation) (*model.Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := reserveSeat(ctx, tx, req.RoomID); err != nil {
		return nil, err
	}

	var bookingID int
	err = tx.QueryRow(ctx,
		`SELECT id FROM bookings
		 WHERE user_id = $1 AND ($2 = 0 OR id = $2)
		 ORDER BY id
		 LIMIT 1
		 FOR UPDATE`,
		req.UserID, req.BookingID,
	).Scan(&bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoBooking
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}

	b, err := scanBooking(tx.QueryRow(ctx,
		`INSERT INTO bookings (id, user_id, room_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET room_id = EXCLUDED.room_id, updated_at = now()
		 RETURNING id, user_id, room_id, created_at, updated_at`,
		bookingID, req.UserID, req.RoomID,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return b, nil
}

// reserveSeat locks the room row and fails with ErrRoomFull when its
// current occupancy already reaches capacity.
func reserveSeat(ctx context.Context, tx pgx.Tx, roomID int) error {
	var capacity int
	err := tx.QueryRow(ctx,
		`SELECT capacity FROM rooms WHERE id = $1 FOR UPDATE`,
		roomID,
	).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock room row: %w", err)
	}

	var occupancy int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE room_id = $1`,
		roomID,
	).Scan(&occupancy); err != nil {
		return fmt.Errorf("count bookings: %w", err)
	}

	room := model.Room{ID: roomID, Capacity: capacity}
	if !room.HasVacancy(occupancy) {
		return ErrRoomFull
	}
	return nil
}

func scanRoom(row pgx.Row) (*model.Room, error) {
	var room model.Room
	if err := row.Scan(&room.ID, &room.Name, &room.Capacity, &room.HotelID, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return nil, err
	}
	return &room, nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.RoomID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
