package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// Seeder is the store surface needed to populate an empty database.
// Both the MySQL AuditoriumRepo and the in-memory store satisfy it.
type Seeder interface {
	CountAuditoriums(ctx context.Context) (int, error)
	CreateAuditorium(ctx context.Context, a *model.Auditorium, seatNumbers []int) error
}

// AuditoriumSeed describes one auditorium created on first start.
type AuditoriumSeed struct {
	Name  string
	Seats int
	Times []string
}

// DefaultShowtimes are the daily showtimes of every seeded auditorium.
var DefaultShowtimes = []string{"3:00 PM", "5:00 PM", "7:00 PM"}

// DefaultAuditoriums is the initial cinema layout.
var DefaultAuditoriums = []AuditoriumSeed{
	{Name: "Sala A", Seats: 20, Times: DefaultShowtimes},
	{Name: "Sala B", Seats: 20, Times: DefaultShowtimes},
	{Name: "Sala C", Seats: 30, Times: DefaultShowtimes},
}

// Seed creates the given auditoriums, with seats numbered 1..Seats, but
// only when the store holds no auditorium yet.  It returns the number of
// auditoriums it created.  An auditorium whose name is already taken was
// seeded by a concurrent instance and is skipped.
func Seed(ctx context.Context, s Seeder, seeds []AuditoriumSeed) (int, error) {
	n, err := s.CountAuditoriums(ctx)
	if err != nil {
		return 0, fmt.Errorf("count auditoriums: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	created := 0
	for _, sd := range seeds {
		numbers := make([]int, sd.Seats)
		for j := range numbers {
			numbers[j] = j + 1
		}
		a := &model.Auditorium{Name: sd.Name, Times: append([]string(nil), sd.Times...)}
		if err := s.CreateAuditorium(ctx, a, numbers); err != nil {
			if errors.Is(err, repository.ErrAuditoriumExists) {
				continue
			}
			return created, fmt.Errorf("seed %s: %w", sd.Name, err)
		}
		created++
	}
	return created, nil
}
