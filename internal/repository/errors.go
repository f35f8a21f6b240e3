// Package repository holds the MySQL data access code for auditoriums,
// seats, bookers and bookings.  The sentinel errors below are shared by
// every store implementation (including the in-memory one) so that
// higher layers can tell lookup misses and uniqueness violations apart
// without knowing which backend produced them.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrAuditoriumNotFound is returned when an auditorium lookup fails.
	ErrAuditoriumNotFound = errors.New("auditorium not found")
	// ErrAuditoriumExists is returned when an auditorium name is already
	// taken (uq_auditoriums_name).
	ErrAuditoriumExists = errors.New("auditorium already exists")
	// ErrSeatNotFound is returned when no seat with the requested number
	// exists in the auditorium.
	ErrSeatNotFound = errors.New("seat not found")
	// ErrBookingNotFound is returned when a booking lookup, update or
	// delete matches no row.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrBookerNotFound is returned when a booker lookup, update or
	// delete matches no row, and when a booking write names a booker
	// that does not exist (fk_bookings_booker).
	ErrBookerNotFound = errors.New("booker not found")
	// ErrEmailExists is returned when a booker email is already taken.
	ErrEmailExists = errors.New("email already exists")
	// ErrSlotTaken is returned when a write would give a second booking
	// the same (auditorium, time, seat) slot.  It is raised by the
	// uq_bookings_slot index, so it also covers concurrent writers that
	// both passed an earlier availability check.
	ErrSlotTaken = errors.New("slot already taken")
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// mysqlNoReferencedRow is ER_NO_REFERENCED_ROW_2, a foreign key
// violation on insert or update.
const mysqlNoReferencedRow = 1452

// isMissingReference reports whether err is a MySQL foreign key
// violation on the child side.
func isMissingReference(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlNoReferencedRow
}

// isDuplicate reports whether err is a MySQL unique key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
