package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// BookingRepo persists bookings.  The bookings table carries the unique
// index uq_bookings_slot (auditorium_id, time, seat_number); inserts and
// updates that would break it fail with ErrSlotTaken.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

const bookingColumns = `id, time, seat_number, auditorium_id, email, booker_id, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (model.Booking, error) {
	var (
		b        model.Booking
		bookerID sql.NullInt64
	)
	if err := row.Scan(&b.ID, &b.Time, &b.SeatNumber, &b.AuditoriumID, &b.Email, &bookerID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return model.Booking{}, err
	}
	if bookerID.Valid {
		id := uint64(bookerID.Int64)
		b.BookerID = &id
	}
	return b, nil
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBooking inserts b and fills in its id and timestamps.  A taken
// slot yields ErrSlotTaken and an unknown b.BookerID ErrBookerNotFound.
func (r *BookingRepo) CreateBooking(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC().Truncate(time.Second)
	const q = `INSERT INTO bookings (time, seat_number, auditorium_id, email, booker_id, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.Time, b.SeatNumber, b.AuditoriumID, b.Email, b.BookerID, now, now)
	if err != nil {
		switch {
		case isDuplicate(err):
			return ErrSlotTaken
		case isMissingReference(err):
			return ErrBookerNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// GetBooking returns the booking with the given id or ErrBookingNotFound.
func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// GetBookingBySlot returns the booking holding slot s or ErrBookingNotFound
// when the slot is free.
func (r *BookingRepo) GetBookingBySlot(ctx context.Context, s model.Slot) (model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE auditorium_id = ? AND time = ? AND seat_number = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, s.AuditoriumID, s.Time, s.SeatNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// ListBookings returns every booking ordered by id.
func (r *BookingRepo) ListBookings(ctx context.Context) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY id`)
}

// ListBookingsByAuditorium returns the bookings of one auditorium across
// all showtimes, ordered by id.
func (r *BookingRepo) ListBookingsByAuditorium(ctx context.Context, auditoriumID uint64) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE auditorium_id = ? ORDER BY id`, auditoriumID)
}

// UpdateBooking overwrites the mutable fields of the booking identified
// by b.ID.  The DSN sets clientFoundRows so an update that changes no
// column still reports the matched row.
func (r *BookingRepo) UpdateBooking(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC().Truncate(time.Second)
	const q = `UPDATE bookings
	           SET time = ?, seat_number = ?, auditorium_id = ?, email = ?, booker_id = ?, updated_at = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, b.Time, b.SeatNumber, b.AuditoriumID, b.Email, b.BookerID, now, b.ID)
	if err != nil {
		switch {
		case isDuplicate(err):
			return ErrSlotTaken
		case isMissingReference(err):
			return ErrBookerNotFound
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	b.UpdatedAt = now
	return nil
}

// DeleteBooking removes the booking, freeing its slot.
func (r *BookingRepo) DeleteBooking(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}
