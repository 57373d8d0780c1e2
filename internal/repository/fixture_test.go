package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoFixture = `
rooms:
  - {id: 1, name: "101", capacity: 3, hotelId: 1}
  - {id: 2, name: "102", capacity: 1, hotelId: 1}
users:
  - {id: 7, ticket: {status: PAID, isRemote: false, includesHotel: true}}
  - {id: 8, ticket: {status: RESERVED, includesHotel: true}}
  - {id: 9}
bookings:
  - {userId: 7, roomId: 2}
`

func TestLoadFixture(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, LoadFixture(strings.NewReader(demoFixture), store))

	room, err := store.Rooms().FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, room.Capacity)

	e, err := store.Enrollments().FindByUserID(ctx, 7)
	require.NoError(t, err)
	ticket, err := store.Tickets().FindByEnrollmentID(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, ticket.QualifiesForHotel())

	e, err = store.Enrollments().FindByUserID(ctx, 8)
	require.NoError(t, err)
	ticket, err = store.Tickets().FindByEnrollmentID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketReserved, ticket.Status)

	e, err = store.Enrollments().FindByUserID(ctx, 9)
	require.NoError(t, err)
	_, err = store.Tickets().FindByEnrollmentID(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	b, err := store.Bookings().FindByUserID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, b.RoomID)

	// Rooms added later continue after the highest fixture id.
	next := store.AddRoom(model.Room{Name: "103", Capacity: 1})
	assert.Equal(t, 3, next.ID)
}

func TestLoadFixture_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "zero capacity", doc: "rooms:\n  - {id: 1, capacity: 0}\n"},
		{name: "unknown status", doc: "users:\n  - {id: 1, ticket: {status: REFUNDED}}\n"},
		{name: "unknown field", doc: "hotels: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, LoadFixture(strings.NewReader(tt.doc), NewMemoryStore()))
		})
	}
}

func TestLoadFixture_Empty(t *testing.T) {
	assert.NoError(t, LoadFixture(strings.NewReader(""), NewMemoryStore()))
}
