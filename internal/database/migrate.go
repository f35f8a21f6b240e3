package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by Migrate.  Every statement is idempotent.
//
// bookings.auditorium_id has no foreign key: a booking keeps its slot
// even if the auditorium row disappears, and readers fall back to a
// placeholder name.  bookings.booker_id is nulled when the booker is
// deleted.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS auditoriums (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name       VARCHAR(100)    NOT NULL,
		times      JSON            NOT NULL,
		created_at DATETIME        NOT NULL,
		updated_at DATETIME        NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_auditoriums_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS seats (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		auditorium_id BIGINT UNSIGNED NOT NULL,
		number        INT             NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_seats_auditorium_number (auditorium_id, number),
		CONSTRAINT fk_seats_auditorium FOREIGN KEY (auditorium_id)
			REFERENCES auditoriums (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookers (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		created_at    DATETIME        NOT NULL,
		updated_at    DATETIME        NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_bookers_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		time          VARCHAR(32)     NOT NULL,
		seat_number   INT             NOT NULL,
		auditorium_id BIGINT UNSIGNED NOT NULL,
		email         VARCHAR(255)    NOT NULL,
		booker_id     BIGINT UNSIGNED NULL,
		created_at    DATETIME        NOT NULL,
		updated_at    DATETIME        NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_bookings_slot (auditorium_id, time, seat_number),
		KEY idx_bookings_booker (booker_id),
		CONSTRAINT fk_bookings_booker FOREIGN KEY (booker_id)
			REFERENCES bookers (id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
