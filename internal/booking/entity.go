package booking

import (
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// MissingAuditoriumName stands in for the name of an auditorium that no
// longer exists, so confirmations and listings still render.
const MissingAuditoriumName = "N/A"

// BookInput is the caller-supplied part of a booking.
type BookInput struct {
	AuditoriumID uint64  `json:"auditoriumId"`
	Time         string  `json:"time"`
	Seat         int     `json:"seat"`
	Email        string  `json:"email"`
	BookerID     *uint64 `json:"bookerId"`
}

// Booking is the JSON view of a stored booking.  AuditoriumDetails is
// only filled by List.
type Booking struct {
	ID                uint64    `json:"id"`
	Time              string    `json:"time"`
	Seat              int       `json:"seat"`
	AuditoriumID      uint64    `json:"auditoriumId"`
	Email             string    `json:"email"`
	BookerID          *uint64   `json:"bookerId"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	AuditoriumDetails string    `json:"auditoriumDetails,omitempty"`
}

func viewOf(b model.Booking) Booking {
	return Booking{
		ID:           b.ID,
		Time:         b.Time,
		Seat:         b.SeatNumber,
		AuditoriumID: b.AuditoriumID,
		Email:        b.Email,
		BookerID:     b.BookerID,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

// Confirmation is what a customer sees after booking.  ReservationCode
// is the booking id.
type Confirmation struct {
	Email           string `json:"email"`
	ReservationCode uint64 `json:"reservationCode"`
	Auditorium      string `json:"auditorium"`
	Time            string `json:"time"`
	Seat            int    `json:"seat"`
}

// SeatStatus is one seat of an auditorium with its derived occupancy.
type SeatStatus struct {
	ID         uint64 `json:"id"`
	Number     int    `json:"number"`
	IsOccupied bool   `json:"isOccupied"`
}

// SeatAvailability is a seat inside an availability listing.
// BookedTimes lists the showtimes the seat is taken at when the
// listing was not narrowed to one time.
type SeatAvailability struct {
	Number      int      `json:"number"`
	IsOccupied  bool     `json:"isOccupied"`
	BookedTimes []string `json:"bookedTimes,omitempty"`
}

// AuditoriumAvailability is one auditorium with all of its seats.
type AuditoriumAvailability struct {
	ID        uint64             `json:"id"`
	Name      string             `json:"name"`
	Times     []string           `json:"times"`
	Seats     []SeatAvailability `json:"seats"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// EventType names a booking lifecycle change.
type EventType string

const (
	EventCreated EventType = "booking.created"
	EventUpdated EventType = "booking.updated"
	EventDeleted EventType = "booking.deleted"
)

// Event is emitted after a booking change has been stored.
type Event struct {
	Type           EventType
	Booking        model.Booking
	AuditoriumName string
	OccurredAt     time.Time
}
