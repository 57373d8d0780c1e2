package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/apperror"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/model"
	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roomFinderFunc func(ctx context.Context, id int) (*model.Room, error)

func (f roomFinderFunc) FindByID(ctx context.Context, id int) (*model.Room, error) { return f(ctx, id) }

func TestEvaluator_CheckReturnsRoom(t *testing.T) {
	store := repository.NewMemoryStore()
	room := store.AddRoom(model.Room{Name: "101", Capacity: 2})
	e := store.Enroll(1)
	store.AddTicket(e.ID, model.TicketPaid, model.TicketType{IncludesHotel: true})

	eval := NewEvaluator(store.Rooms(), store.Enrollments(), store.Tickets())
	got, err := eval.Check(context.Background(), 1, room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, got.ID)
	assert.Equal(t, "101", got.Name)
}

func TestEvaluator_InternalErrorsAreNotBusinessFailures(t *testing.T) {
	boom := errors.New("connection refused")
	store := repository.NewMemoryStore()
	failing := roomFinderFunc(func(context.Context, int) (*model.Room, error) { return nil, boom })

	eval := NewEvaluator(failing, store.Enrollments(), store.Tickets())
	_, err := eval.Check(context.Background(), 1, 1)

	assert.ErrorIs(t, err, boom)
	_, ok := apperror.KindOf(err)
	assert.False(t, ok)
}
