package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/apperror"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/events"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPublisher records published booking events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, message any) error {
	args := m.Called(key, message)
	return args.Error(0)
}

type testEnv struct {
	store *repository.MemoryStore
	pub   *MockPublisher
	svc   *BookingService
}

func newTestEnv(t *testing.T, policy Policy) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := NewBookingService(Repositories{
		Rooms:       store.Rooms(),
		Enrollments: store.Enrollments(),
		Tickets:     store.Tickets(),
		Bookings:    store.Bookings(),
	}, policy, pub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &testEnv{store: store, pub: pub, svc: svc}
}

// eligible enrolls userID with a paid, in-person, hotel-inclusive ticket.
func (e *testEnv) eligible(userID int) {
	enrollment := e.store.Enroll(userID)
	e.store.AddTicket(enrollment.ID, model.TicketPaid, model.TicketType{IncludesHotel: true})
}

func (e *testEnv) room(capacity int) model.Room {
	return e.store.AddRoom(model.Room{Name: "room", Capacity: capacity, HotelID: 1})
}

func assertKind(t *testing.T, err error, want apperror.Kind) {
	t.Helper()
	kind, ok := apperror.KindOf(err)
	require.True(t, ok, "expected an apperror, got %v", err)
	assert.Equal(t, want, kind)
}

func TestCreateBooking_Eligibility(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(e *testEnv, userID int)
		noRoom bool
		want   apperror.Kind
	}{
		{
			name:  "no enrollment",
			setup: func(e *testEnv, userID int) {},
			want:  apperror.Forbidden,
		},
		{
			name:  "no ticket",
			setup: func(e *testEnv, userID int) { e.store.Enroll(userID) },
			want:  apperror.Forbidden,
		},
		{
			name: "unpaid ticket",
			setup: func(e *testEnv, userID int) {
				en := e.store.Enroll(userID)
				e.store.AddTicket(en.ID, model.TicketReserved, model.TicketType{IncludesHotel: true})
			},
			want: apperror.Forbidden,
		},
		{
			name: "remote ticket",
			setup: func(e *testEnv, userID int) {
				en := e.store.Enroll(userID)
				e.store.AddTicket(en.ID, model.TicketPaid, model.TicketType{IsRemote: true, IncludesHotel: true})
			},
			want: apperror.Forbidden,
		},
		{
			name: "ticket without hotel",
			setup: func(e *testEnv, userID int) {
				en := e.store.Enroll(userID)
				e.store.AddTicket(en.ID, model.TicketPaid, model.TicketType{})
			},
			want: apperror.Forbidden,
		},
		{
			name:   "unknown room wins over missing enrollment",
			setup:  func(e *testEnv, userID int) {},
			noRoom: true,
			want:   apperror.NotFound,
		},
		{
			name:   "unknown room for eligible user",
			setup:  func(e *testEnv, userID int) { e.eligible(userID) },
			noRoom: true,
			want:   apperror.NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, DefaultPolicy())
			room := env.room(10)
			tt.setup(env, 1)
			roomID := room.ID
			if tt.noRoom {
				roomID = room.ID + 1
			}

			b, err := env.svc.CreateBooking(context.Background(), 1, roomID)
			assert.Nil(t, b)
			assertKind(t, err, tt.want)
			env.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateBooking_Capacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		existing int
		wantErr  bool
	}{
		{name: "empty room", capacity: 3, existing: 0},
		{name: "one slot left", capacity: 3, existing: 2},
		{name: "full at equality", capacity: 3, existing: 3, wantErr: true},
		{name: "over capacity", capacity: 2, existing: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t, DefaultPolicy())
			room := env.room(tt.capacity)
			for i := 0; i < tt.existing; i++ {
				env.store.SeedBooking(100+i, room.ID)
			}
			env.eligible(1)

			b, err := env.svc.CreateBooking(ctx, 1, room.ID)
			occ, occErr := env.svc.RoomOccupancy(ctx, room.ID)
			require.NoError(t, occErr)

			if tt.wantErr {
				assertKind(t, err, apperror.Forbidden)
				assert.Equal(t, tt.existing, occ.Occupancy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, room.ID, b.RoomID)
			assert.Equal(t, tt.existing+1, occ.Occupancy)
		})
	}
}

func TestCreateBooking_RemoteTicketIgnoresCapacity(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	room := env.room(100)
	en := env.store.Enroll(1)
	env.store.AddTicket(en.ID, model.TicketPaid, model.TicketType{IsRemote: true, IncludesHotel: true})

	_, err := env.svc.CreateBooking(context.Background(), 1, room.ID)
	assertKind(t, err, apperror.Forbidden)
}

func TestCreateBooking_PublishesEvent(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	room := env.room(1)
	env.eligible(1)

	b, err := env.svc.CreateBooking(context.Background(), 1, room.ID)
	require.NoError(t, err)

	env.pub.AssertCalled(t, "Publish", events.TopicBookingCreated, mock.MatchedBy(func(m events.BookingMessage) bool {
		return m.BookingID == b.ID && m.UserID == 1 && m.RoomID == room.ID
	}))
}

func TestCreateBooking_PublishFailureDoesNotFailRequest(t *testing.T) {
	store := repository.NewMemoryStore()
	pub := new(MockPublisher)
	pub.On("Publish", events.TopicBookingCreated, mock.Anything).Return(errors.New("broker down"))
	svc := NewBookingService(Repositories{
		Rooms:       store.Rooms(),
		Enrollments: store.Enrollments(),
		Tickets:     store.Tickets(),
		Bookings:    store.Bookings(),
	}, DefaultPolicy(), pub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	room := store.AddRoom(model.Room{Capacity: 1})
	en := store.Enroll(1)
	store.AddTicket(en.ID, model.TicketPaid, model.TicketType{IncludesHotel: true})

	b, err := svc.CreateBooking(context.Background(), 1, room.ID)
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	pub.AssertExpectations(t)
}

func TestCreateBooking_DuplicatesFollowPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed by default", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		room := env.room(5)
		env.eligible(1)
		env.store.SeedBooking(1, room.ID)

		_, err := env.svc.CreateBooking(ctx, 1, room.ID)
		assert.NoError(t, err)
	})

	t.Run("rejected with single booking per user", func(t *testing.T) {
		policy := DefaultPolicy()
		policy.SinglePerUser = true
		env := newTestEnv(t, policy)
		room := env.room(5)
		env.eligible(1)
		env.store.SeedBooking(1, room.ID)

		_, err := env.svc.CreateBooking(ctx, 1, room.ID)
		assertKind(t, err, apperror.Forbidden)
	})
}

// Scenario: room with capacity 3 already holding 3 bookings rejects a 4th.
func TestCreateBooking_FourthBookingOnRoomOfThree(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	room := env.room(3)
	for userID := 1; userID <= 4; userID++ {
		env.eligible(userID)
	}

	for userID := 1; userID <= 3; userID++ {
		_, err := env.svc.CreateBooking(context.Background(), userID, room.ID)
		require.NoError(t, err)
	}

	_, err := env.svc.CreateBooking(context.Background(), 4, room.ID)
	assertKind(t, err, apperror.Forbidden)
}

// Scenario: two concurrent creates for the last slot; exactly one wins.
func TestCreateBooking_ConcurrentLastSlot(t *testing.T) {
	for run := 0; run < 20; run++ {
		env := newTestEnv(t, DefaultPolicy())
		room := env.room(2)
		env.store.SeedBooking(100, room.ID)
		env.eligible(1)
		env.eligible(2)

		start := make(chan struct{})
		results := make(chan model.BookingResult, 2)
		var wg sync.WaitGroup
		for _, userID := range []int{1, 2} {
			wg.Add(1)
			go func(userID int) {
				defer wg.Done()
				<-start
				b, err := env.svc.CreateBooking(context.Background(), userID, room.ID)
				results <- model.BookingResult{UserID: userID, Booking: b, Err: err}
			}(userID)
		}
		close(start)
		wg.Wait()
		close(results)

		var ok, forbidden int
		for res := range results {
			if res.Err == nil {
				ok++
				continue
			}
			if errors.Is(res.Err, apperror.ErrForbidden) {
				forbidden++
			}
		}
		require.Equal(t, 1, ok, "run %d", run)
		require.Equal(t, 1, forbidden, "run %d", run)

		occ, err := env.svc.RoomOccupancy(context.Background(), room.ID)
		require.NoError(t, err)
		require.Equal(t, 2, occ.Occupancy)
	}
}

func TestGetBooking(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	room := env.room(2)

	_, err := env.svc.GetBooking(context.Background(), 1)
	assertKind(t, err, apperror.NotFound)

	seeded := env.store.SeedBooking(1, room.ID)
	b, err := env.svc.GetBooking(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, b.ID)
	require.NotNil(t, b.Room)
	assert.Equal(t, room.ID, b.Room.ID)
}

func TestUpdateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("moves own booking and keeps id", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		from, to := env.room(2), env.room(2)
		env.eligible(1)
		mine := env.store.SeedBooking(1, from.ID)

		b, err := env.svc.UpdateBooking(ctx, 1, to.ID, mine.ID)
		require.NoError(t, err)
		assert.Equal(t, mine.ID, b.ID)
		assert.Equal(t, to.ID, b.RoomID)
		env.pub.AssertCalled(t, "Publish", events.TopicBookingUpdated, mock.Anything)
	})

	t.Run("unknown room", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		from := env.room(2)
		env.eligible(1)
		mine := env.store.SeedBooking(1, from.ID)

		_, err := env.svc.UpdateBooking(ctx, 1, from.ID+10, mine.ID)
		assertKind(t, err, apperror.NotFound)
	})

	t.Run("target room full", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		from, to := env.room(2), env.room(1)
		env.eligible(1)
		mine := env.store.SeedBooking(1, from.ID)
		env.store.SeedBooking(2, to.ID)

		_, err := env.svc.UpdateBooking(ctx, 1, to.ID, mine.ID)
		assertKind(t, err, apperror.Forbidden)
	})

	t.Run("same room at full capacity is rejected", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		room := env.room(1)
		env.eligible(1)
		mine := env.store.SeedBooking(1, room.ID)

		_, err := env.svc.UpdateBooking(ctx, 1, room.ID, mine.ID)
		assertKind(t, err, apperror.Forbidden)
	})

	t.Run("no booking regardless of path id", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		room := env.room(5)
		env.eligible(1)
		theirs := env.store.SeedBooking(2, room.ID)

		for _, bookingID := range []int{theirs.ID, 999} {
			_, err := env.svc.UpdateBooking(ctx, 1, room.ID, bookingID)
			assertKind(t, err, apperror.Forbidden)
		}
	})

	t.Run("path id ignored by default", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		room, to := env.room(5), env.room(5)
		env.eligible(1)
		mine := env.store.SeedBooking(1, room.ID)
		theirs := env.store.SeedBooking(2, room.ID)

		b, err := env.svc.UpdateBooking(ctx, 1, to.ID, theirs.ID)
		require.NoError(t, err)
		assert.Equal(t, mine.ID, b.ID)
	})

	t.Run("path id enforced under path ownership", func(t *testing.T) {
		policy := DefaultPolicy()
		policy.Ownership = OwnByPath
		env := newTestEnv(t, policy)
		room, to := env.room(5), env.room(5)
		env.eligible(1)
		env.store.SeedBooking(1, room.ID)
		second := env.store.SeedBooking(1, room.ID)
		theirs := env.store.SeedBooking(2, room.ID)

		_, err := env.svc.UpdateBooking(ctx, 1, to.ID, theirs.ID)
		assertKind(t, err, apperror.Forbidden)

		b, err := env.svc.UpdateBooking(ctx, 1, to.ID, second.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, b.ID)
	})
}

func TestUpdateBooking_Revalidation(t *testing.T) {
	ctx := context.Background()

	setup := func(env *testEnv) (model.Room, model.Booking) {
		from, to := env.room(2), env.room(2)
		en := env.store.Enroll(1)
		env.store.AddTicket(en.ID, model.TicketPaid, model.TicketType{IsRemote: true})
		return to, env.store.SeedBooking(1, from.ID)
	}

	t.Run("enabled rejects non-qualifying ticket", func(t *testing.T) {
		env := newTestEnv(t, DefaultPolicy())
		to, mine := setup(env)

		_, err := env.svc.UpdateBooking(ctx, 1, to.ID, mine.ID)
		assertKind(t, err, apperror.Forbidden)
	})

	t.Run("disabled checks only room and capacity", func(t *testing.T) {
		policy := DefaultPolicy()
		policy.RevalidateOnUpdate = false
		env := newTestEnv(t, policy)
		to, mine := setup(env)

		b, err := env.svc.UpdateBooking(ctx, 1, to.ID, mine.ID)
		require.NoError(t, err)
		assert.Equal(t, to.ID, b.RoomID)

		_, err = env.svc.UpdateBooking(ctx, 1, to.ID+10, mine.ID)
		assertKind(t, err, apperror.NotFound)
	})
}

func TestRoomOccupancy(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	room := env.room(3)
	env.store.SeedBooking(1, room.ID)

	occ, err := env.svc.RoomOccupancy(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomOccupancy{RoomID: room.ID, Capacity: 3, Occupancy: 1, Available: 2}, *occ)

	_, err = env.svc.RoomOccupancy(context.Background(), room.ID+1)
	assertKind(t, err, apperror.NotFound)
}
