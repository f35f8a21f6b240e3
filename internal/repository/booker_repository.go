package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// BookerRepo persists booker accounts.  Emails are normalized before
// every write and lookup; the bookers.email column is unique.
type BookerRepo struct{ DB *sql.DB }

func NewBookerRepo(db *sql.DB) *BookerRepo { return &BookerRepo{DB: db} }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const bookerColumns = "id,email,password_hash,created_at,updated_at"

func scanBooker(row interface{ Scan(...any) error }) (model.Booker, error) {
	var b model.Booker
	err := row.Scan(&b.ID, &b.Email, &b.PasswordHash, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booker{}, ErrBookerNotFound
	}
	return b, err
}

// CreateBooker inserts b (with an already hashed password) and fills in
// its id and timestamps.
func (r *BookerRepo) CreateBooker(ctx context.Context, b *model.Booker) error {
	b.Email = normalizeEmail(b.Email)
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO bookers (email, password_hash, created_at, updated_at) VALUES (?,?,?,?)",
		b.Email, b.PasswordHash, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
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

// GetBookerByEmail fetches a booker by normalized email.
func (r *BookerRepo) GetBookerByEmail(ctx context.Context, email string) (model.Booker, error) {
	return scanBooker(r.DB.QueryRowContext(ctx,
		"SELECT "+bookerColumns+" FROM bookers WHERE email=? LIMIT 1", normalizeEmail(email)))
}

// GetBookerByID fetches a booker by id.
func (r *BookerRepo) GetBookerByID(ctx context.Context, id uint64) (model.Booker, error) {
	return scanBooker(r.DB.QueryRowContext(ctx,
		"SELECT "+bookerColumns+" FROM bookers WHERE id=? LIMIT 1", id))
}

// ListBookers returns all bookers ordered by id.
func (r *BookerRepo) ListBookers(ctx context.Context) ([]model.Booker, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+bookerColumns+" FROM bookers ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booker
	for rows.Next() {
		b, err := scanBooker(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateBooker overwrites email and password hash of the booker b.ID.
func (r *BookerRepo) UpdateBooker(ctx context.Context, b *model.Booker) error {
	b.Email = normalizeEmail(b.Email)
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookers SET email=?, password_hash=?, updated_at=? WHERE id=?",
		b.Email, b.PasswordHash, now, b.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookerNotFound
	}
	b.UpdatedAt = now
	return nil
}

// DeleteBooker removes the booker.  Their bookings survive with a NULL
// booker_id (ON DELETE SET NULL).
func (r *BookerRepo) DeleteBooker(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM bookers WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookerNotFound
	}
	return nil
}
