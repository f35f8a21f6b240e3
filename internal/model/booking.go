package model

import "time"

// Booking reserves one seat of an auditorium for one showtime.  The
// slot (AuditoriumID, Time, SeatNumber) is unique across all bookings;
// the ID doubles as the reservation code shown to the customer.
//
// Fields:
//  ID           – primary key identifier / reservation code.
//  Time         – showtime label, one of the auditorium's times.
//  SeatNumber   – seat number within the auditorium.
//  AuditoriumID – auditorium being booked.
//  Email        – contact email for the confirmation.
//  BookerID     – booker who made the booking; nil once the booker is deleted.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Booking struct {
    ID           uint64    // bookings.id
    Time         string    // bookings.time
    SeatNumber   int       // bookings.seat_number
    AuditoriumID uint64    // bookings.auditorium_id
    Email        string    // bookings.email
    BookerID     *uint64   // bookings.booker_id (nullable)
    CreatedAt    time.Time // bookings.created_at
    UpdatedAt    time.Time // bookings.updated_at
}

// Slot identifies the (auditorium, showtime, seat) triple a booking holds.
type Slot struct {
    AuditoriumID uint64
    Time         string
    SeatNumber   int
}

// Slot returns the slot held by b.
func (b Booking) Slot() Slot {
    return Slot{AuditoriumID: b.AuditoriumID, Time: b.Time, SeatNumber: b.SeatNumber}
}
