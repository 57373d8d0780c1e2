package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/apperror"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/repository"
)

// RoomFinder looks up rooms.
type RoomFinder interface {
	FindByID(ctx context.Context, id int) (*model.Room, error)
}

// EnrollmentFinder looks up a user's enrollment.
type EnrollmentFinder interface {
	FindByUserID(ctx context.Context, userID int) (*model.Enrollment, error)
}

// TicketFinder looks up the ticket attached to an enrollment.
type TicketFinder interface {
	FindByEnrollmentID(ctx context.Context, enrollmentID int) (*model.Ticket, error)
}

// Evaluator decides whether a user may hold a booking for a room.
type Evaluator struct {
	rooms       RoomFinder
	enrollments EnrollmentFinder
	tickets     TicketFinder
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(rooms RoomFinder, enrollments EnrollmentFinder, tickets TicketFinder) *Evaluator {
	return &Evaluator{rooms: rooms, enrollments: enrollments, tickets: tickets}
}

// Check runs the eligibility chain for userID against roomID and returns
// the resolved room so the allocator does not look it up again.
//
// Order matters: an unknown room is NotFound even for a user who could
// never book.
func (e *Evaluator) Check(ctx context.Context, userID, roomID int) (*model.Room, error) {
	room, err := e.Room(ctx, roomID)
	if err != nil {
		return nil, err
	}

	enrollment, err := e.enrollments.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewForbidden("no enrollment")
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}

	ticket, err := e.tickets.FindByEnrollmentID(ctx, enrollment.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	if ticket == nil || !ticket.QualifiesForHotel() {
		return nil, apperror.NewForbidden("ticket does not qualify")
	}

	return room, nil
}

// Room resolves roomID, mapping a missing room to NotFound.
func (e *Evaluator) Room(ctx context.Context, roomID int) (*model.Room, error) {
	room, err := e.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFound("room does not exist")
		}
		return nil, fmt.Errorf("find room: %w", err)
	}
	return room, nil
}
