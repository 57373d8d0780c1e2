package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/apperror"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/repository"
)

// BookingStore persists bookings. ReserveNew and ReserveMove must check
// capacity and write atomically.
type BookingStore interface {
	FindByUserID(ctx context.Context, userID int) (*model.Booking, error)
	ListByRoom(ctx context.Context, roomID int) ([]model.Booking, error)
	ReserveNew(ctx context.Context, req repository.NewReservation) (*model.Booking, error)
	ReserveMove(ctx context.Context, req repository.MoveReservation) (*model.Booking, error)
}

// Ownership selects how an update finds the booking to move.
type Ownership int

const (
	// OwnByUser moves the caller's first booking and ignores the booking id
	// given by the client.
	OwnByUser Ownership = iota
	// OwnByPath moves the booking named by the client, which must belong to
	// the caller.
	OwnByPath
)

// Policy holds the booking rules that are configurable per deployment.
type Policy struct {
	// RevalidateOnUpdate runs the full eligibility check on updates, not
	// only the room lookup.
	RevalidateOnUpdate bool
	Ownership          Ownership
	// SinglePerUser rejects a create when the user already has a booking.
	SinglePerUser bool
}

// DefaultPolicy matches the behavior of the existing booking API.
func DefaultPolicy() Policy {
	return Policy{RevalidateOnUpdate: true, Ownership: OwnByUser}
}

// Allocator enforces room capacity and booking ownership.
type Allocator struct {
	bookings BookingStore
	policy   Policy
}

// NewAllocator constructs an Allocator.
func NewAllocator(bookings BookingStore, policy Policy) *Allocator {
	return &Allocator{bookings: bookings, policy: policy}
}

// Create reserves a place in room for userID.
func (a *Allocator) Create(ctx context.Context, userID int, room *model.Room) (*model.Booking, error) {
	b, err := a.bookings.ReserveNew(ctx, repository.NewReservation{
		UserID:    userID,
		RoomID:    room.ID,
		Exclusive: a.policy.SinglePerUser,
	})
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

// Update moves the caller's booking to room. bookingID is the identifier
// supplied by the client; it is only consulted under OwnByPath.
func (a *Allocator) Update(ctx context.Context, userID int, room *model.Room, bookingID int) (*model.Booking, error) {
	req := repository.MoveReservation{UserID: userID, RoomID: room.ID}
	if a.policy.Ownership == OwnByPath {
		req.BookingID = bookingID
	}

	b, err := a.bookings.ReserveMove(ctx, req)
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

// translate maps storage sentinels onto the tagged error kinds.
func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NewNotFound("room does not exist")
	case errors.Is(err, repository.ErrRoomFull):
		return apperror.NewForbidden("room full")
	case errors.Is(err, repository.ErrNoBooking):
		return apperror.NewForbidden("no existing booking to modify")
	case errors.Is(err, repository.ErrAlreadyBooked):
		return apperror.NewForbidden("user already holds a booking")
	default:
		return fmt.Errorf("reserve room: %w", err)
	}
}
