package model

import "time"

// Auditorium is a screening room with a fixed set of numbered seats and
// the list of showtimes it runs each day.  Showtimes are opaque labels
// such as "3:00 PM"; they are stored in order as a JSON array column.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name (e.g. "Sala A").
//  Times     – ordered showtime labels.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Auditorium struct {
    ID        uint64    // auditoriums.id
    Name      string    // auditoriums.name
    Times     []string  // auditoriums.times (JSON)
    CreatedAt time.Time // auditoriums.created_at
    UpdatedAt time.Time // auditoriums.updated_at
}

// HasTime reports whether t is one of the auditorium's showtimes.
func (a Auditorium) HasTime(t string) bool {
    for _, v := range a.Times {
        if v == t {
            return true
        }
    }
    return false
}
