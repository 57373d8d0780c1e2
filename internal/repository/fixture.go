package repository

import (
	"errors"
	"fmt"
	"io"

	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/model"
	"gopkg.in/yaml.v3"
)

// Fixture is the YAML document accepted by LoadFixture.
//
//	rooms:
//	  - {id: 1, name: "101", capacity: 3, hotelId: 1}
//	users:
//	  - {id: 7, ticket: {status: PAID, isRemote: false, includesHotel: true}}
//	bookings:
//	  - {userId: 7, roomId: 1}
type Fixture struct {
	Rooms    []FixtureRoom    `yaml:"rooms"`
	Users    []FixtureUser    `yaml:"users"`
	Bookings []FixtureBooking `yaml:"bookings"`
}

type FixtureRoom struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
	HotelID  int    `yaml:"hotelId"`
}

// FixtureUser is an enrolled user. Ticket is optional.
type FixtureUser struct {
	ID     int            `yaml:"id"`
	Ticket *FixtureTicket `yaml:"ticket"`
}

type FixtureTicket struct {
	Status        model.TicketStatus `yaml:"status"`
	IsRemote      bool               `yaml:"isRemote"`
	IncludesHotel bool               `yaml:"includesHotel"`
}

type FixtureBooking struct {
	UserID int `yaml:"userId"`
	RoomID int `yaml:"roomId"`
}

// LoadFixture decodes a YAML fixture from r and seeds store with it.
func LoadFixture(r io.Reader, store *MemoryStore) error {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode fixture: %w", err)
	}

	for _, room := range f.Rooms {
		if room.Capacity <= 0 {
			return fmt.Errorf("room %d: capacity must be a positive integer", room.ID)
		}
		store.AddRoom(model.Room{ID: room.ID, Name: room.Name, Capacity: room.Capacity, HotelID: room.HotelID})
	}
	for _, u := range f.Users {
		e := store.Enroll(u.ID)
		if u.Ticket == nil {
			continue
		}
		switch u.Ticket.Status {
		case model.TicketPaid, model.TicketReserved:
		default:
			return fmt.Errorf("user %d: unknown ticket status %q", u.ID, u.Ticket.Status)
		}
		store.AddTicket(e.ID, u.Ticket.Status, model.TicketType{
			IsRemote:      u.Ticket.IsRemote,
			IncludesHotel: u.Ticket.IncludesHotel,
		})
	}
	for _, b := range f.Bookings {
		store.SeedBooking(b.UserID, b.RoomID)
	}
	return nil
}
