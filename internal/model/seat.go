package model

// Seat is a numbered seat inside an auditorium.  The pair
// (AuditoriumID, Number) is unique.  Occupancy is not stored on the
// seat; it is derived from bookings for a given showtime.
//
// Fields:
//  ID           – primary key identifier.
//  Number       – positive seat number, unique within the auditorium.
//  AuditoriumID – auditorium the seat belongs to.
type Seat struct {
    ID           uint64 // seats.id
    Number       int    // seats.number
    AuditoriumID uint64 // seats.auditorium_id
}
