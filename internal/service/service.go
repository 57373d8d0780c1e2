// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/apperror"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/events"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/repository"
)

// Repositories groups the storage collaborators of BookingService.
type Repositories struct {
	Rooms       RoomFinder
	Enrollments EnrollmentFinder
	Tickets     TicketFinder
	Bookings    BookingStore
}

// BookingService orchestrates the booking operations.
type BookingService struct {
	eval      *Evaluator
	alloc     *Allocator
	bookings  BookingStore
	policy    Policy
	publisher events.Publisher
	logger    *slog.Logger
}

// NewBookingService constructs a BookingService with its dependencies.
// A nil publisher discards booking events.
func NewBookingService(repos Repositories, policy Policy, publisher events.Publisher, logger *slog.Logger) *BookingService {
	if publisher == nil {
		publisher = events.Discard
	}
	return &BookingService{
		eval:      NewEvaluator(repos.Rooms, repos.Enrollments, repos.Tickets),
		alloc:     NewAllocator(repos.Bookings, policy),
		bookings:  repos.Bookings,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
	}
}

// GetBooking returns the caller's booking with its room.
func (s *BookingService) GetBooking(ctx context.Context, userID int) (*model.Booking, error) {
	b, err := s.bookings.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFound("booking does not exist")
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// CreateBooking checks eligibility and reserves a place in roomID.
func (s *BookingService) CreateBooking(ctx context.Context, userID, roomID int) (*model.Booking, error) {
	room, err := s.eval.Check(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}

	b, err := s.alloc.Create(ctx, userID, room)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "booking created", "booking_id", b.ID, "user_id", userID, "room_id", roomID)
	s.publish(ctx, events.TopicBookingCreated, b)
	return b, nil
}

// UpdateBooking moves the caller's booking to roomID. bookingID is the
// client-supplied identifier; see Policy.Ownership.
func (s *BookingService) UpdateBooking(ctx context.Context, userID, roomID, bookingID int) (*model.Booking, error) {
	var (
		room *model.Room
		err  error
	)
	if s.policy.RevalidateOnUpdate {
		room, err = s.eval.Check(ctx, userID, roomID)
	} else {
		room, err = s.eval.Room(ctx, roomID)
	}
	if err != nil {
		return nil, err
	}

	b, err := s.alloc.Update(ctx, userID, room, bookingID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "booking updated", "booking_id", b.ID, "user_id", userID, "room_id", roomID)
	s.publish(ctx, events.TopicBookingUpdated, b)
	return b, nil
}

// RoomOccupancy reports how many bookings reference roomID.
func (s *BookingService) RoomOccupancy(ctx context.Context, roomID int) (*model.RoomOccupancy, error) {
	room, err := s.eval.Room(ctx, roomID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	available := room.Capacity - len(bookings)
	if available < 0 {
		available = 0
	}
	return &model.RoomOccupancy{
		RoomID:    room.ID,
		Capacity:  room.Capacity,
		Occupancy: len(bookings),
		Available: available,
	}, nil
}

// publish is best effort: the booking is already committed.
func (s *BookingService) publish(ctx context.Context, key string, b *model.Booking) {
	msg := events.NewBookingMessage(b.ID, b.UserID, b.RoomID)
	if err := s.publisher.Publish(ctx, key, msg); err != nil {
		s.logger.WarnContext(ctx, "publish booking event failed", "key", key, "booking_id", b.ID, "error", err)
	}
}
