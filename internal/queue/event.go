// Package queue defines the booking event payload exchanged over RabbitMQ
// and the consumer that records those events.
package queue

import "time"

// BookingQueue is the durable queue booking events are routed to.
const BookingQueue = "booking.events"

// BookingEvent is published after a booking is created, updated or
// deleted.  It carries enough of the booking for consumers to log or
// notify without querying the database.
type BookingEvent struct {
    Type           string    `json:"type"` // booking.created | booking.updated | booking.deleted
    BookingID      uint64    `json:"bookingId"`
    AuditoriumID   uint64    `json:"auditoriumId"`
    AuditoriumName string    `json:"auditoriumName"`
    Time           string    `json:"time"`
    Seat           int       `json:"seat"`
    Email          string    `json:"email"`
    BookerID       *uint64   `json:"bookerId"`
    OccurredAt     time.Time `json:"occurredAt"`
}
