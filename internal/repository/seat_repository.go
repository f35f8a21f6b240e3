package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// SeatRepo provides read access to the seats of an auditorium.  Seats
// are written only by AuditoriumRepo.CreateAuditorium.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// GetSeatByNumber resolves a seat by auditorium and seat number.  It
// returns ErrSeatNotFound when the auditorium has no such seat,
// including when the auditorium itself does not exist.
func (r *SeatRepo) GetSeatByNumber(ctx context.Context, auditoriumID uint64, number int) (model.Seat, error) {
	const q = `SELECT id, number, auditorium_id FROM seats WHERE auditorium_id = ? AND number = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, auditoriumID, number).Scan(&s.ID, &s.Number, &s.AuditoriumID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Seat{}, ErrSeatNotFound
		}
		return model.Seat{}, err
	}
	return s, nil
}

// ListSeatsByAuditorium retrieves all seats of an auditorium ordered by
// number.  An unknown auditorium yields an empty slice.
func (r *SeatRepo) ListSeatsByAuditorium(ctx context.Context, auditoriumID uint64) ([]model.Seat, error) {
	const q = `SELECT id, number, auditorium_id FROM seats WHERE auditorium_id = ? ORDER BY number`
	rows, err := r.db.QueryContext(ctx, q, auditoriumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.Number, &s.AuditoriumID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
