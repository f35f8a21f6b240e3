package repository // repository defines data access for auditoriums

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"encoding/json"
	"errors"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// AuditoriumRepo reads and seeds auditoriums.  Auditoriums are created
// once at startup together with their seats and are never deleted by
// the API.
type AuditoriumRepo struct {
	db *sql.DB
}

// NewAuditoriumRepo constructs an AuditoriumRepo with the given DB handle.
func NewAuditoriumRepo(db *sql.DB) *AuditoriumRepo {
	return &AuditoriumRepo{db: db}
}

const auditoriumColumns = `id, name, times, created_at, updated_at`

func scanAuditorium(row interface{ Scan(...any) error }) (model.Auditorium, error) {
	var (
		a   model.Auditorium
		raw []byte
	)
	if err := row.Scan(&a.ID, &a.Name, &raw, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return model.Auditorium{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &a.Times); err != nil {
			return model.Auditorium{}, err
		}
	}
	return a, nil
}

// ListAuditoriums returns every auditorium ordered by id.
func (r *AuditoriumRepo) ListAuditoriums(ctx context.Context) ([]model.Auditorium, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+auditoriumColumns+` FROM auditoriums ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Auditorium
	for rows.Next() {
		a, err := scanAuditorium(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAuditorium returns the auditorium with the given id or
// ErrAuditoriumNotFound.
func (r *AuditoriumRepo) GetAuditorium(ctx context.Context, id uint64) (model.Auditorium, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+auditoriumColumns+` FROM auditoriums WHERE id = ?`, id)
	a, err := scanAuditorium(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Auditorium{}, ErrAuditoriumNotFound
	}
	return a, err
}

// CountAuditoriums returns the number of auditorium rows.  The seeder
// uses it to decide whether the database is still empty.
func (r *AuditoriumRepo) CountAuditoriums(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM auditoriums`).Scan(&n)
	return n, err
}

// CreateAuditorium inserts the auditorium and one seat per entry of
// seatNumbers inside a single transaction.  On success a.ID and the
// timestamps are populated.  A taken name yields ErrAuditoriumExists.
func (r *AuditoriumRepo) CreateAuditorium(ctx context.Context, a *model.Auditorium, seatNumbers []int) error {
	times, err := json.Marshal(a.Times)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO auditoriums (name, times, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		a.Name, times, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrAuditoriumExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if len(seatNumbers) > 0 {
		query := `INSERT INTO seats (auditorium_id, number) VALUES `
		args := make([]interface{}, 0, len(seatNumbers)*2)
		for i, n := range seatNumbers {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, id, n)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	a.ID = uint64(id)
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}
