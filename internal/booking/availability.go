package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Availability lists every auditorium with its seats.
//
// With a time, a seat is occupied when a booking holds it at that
// showtime.  Without one, a seat is occupied only when it is booked at
// every showtime of its auditorium, and BookedTimes lists the showtimes
// it is taken at.
func (s *Service) Availability(ctx context.Context, showtime string) ([]AuditoriumAvailability, error) {
	showtime = strings.TrimSpace(showtime)

	auditoriums, err := s.auditoriums.ListAuditoriums(ctx)
	if err != nil {
		return nil, fmt.Errorf("list auditoriums: %w", err)
	}

	out := make([]AuditoriumAvailability, 0, len(auditoriums))
	for _, a := range auditoriums {
		seats, booked, err := s.seatsWithBookings(ctx, a.ID)
		if err != nil {
			return nil, err
		}

		view := AuditoriumAvailability{
			ID:        a.ID,
			Name:      a.Name,
			Times:     a.Times,
			Seats:     make([]SeatAvailability, 0, len(seats)),
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		}
		if view.Times == nil {
			view.Times = []string{}
		}

		for _, seat := range seats {
			times := booked[seat.Number]
			sa := SeatAvailability{Number: seat.Number}
			if showtime != "" {
				sa.IsOccupied = contains(times, showtime)
			} else {
				sa.IsOccupied = bookedAtEveryShowtime(a, times)
				sa.BookedTimes = times
			}
			view.Seats = append(view.Seats, sa)
		}
		out = append(out, view)
	}
	return out, nil
}

// SeatsByAuditorium lists the seats of one auditorium with occupancy
// derived the same way as Availability.  An unknown auditorium yields an
// empty list.
func (s *Service) SeatsByAuditorium(ctx context.Context, auditoriumID uint64, showtime string) ([]SeatStatus, error) {
	showtime = strings.TrimSpace(showtime)

	seats, booked, err := s.seatsWithBookings(ctx, auditoriumID)
	if err != nil {
		return nil, err
	}

	var a model.Auditorium
	if showtime == "" && len(seats) > 0 {
		a, err = s.auditoriums.GetAuditorium(ctx, auditoriumID)
		if err != nil {
			return nil, fmt.Errorf("get auditorium: %w", err)
		}
	}

	out := make([]SeatStatus, 0, len(seats))
	for _, seat := range seats {
		st := SeatStatus{ID: seat.ID, Number: seat.Number}
		if showtime != "" {
			st.IsOccupied = contains(booked[seat.Number], showtime)
		} else {
			st.IsOccupied = bookedAtEveryShowtime(a, booked[seat.Number])
		}
		out = append(out, st)
	}
	return out, nil
}

// seatsWithBookings returns the auditorium's seats and, per seat number,
// the showtimes at which it is booked.
func (s *Service) seatsWithBookings(ctx context.Context, auditoriumID uint64) ([]model.Seat, map[int][]string, error) {
	seats, err := s.seats.ListSeatsByAuditorium(ctx, auditoriumID)
	if err != nil {
		return nil, nil, fmt.Errorf("list seats: %w", err)
	}
	if len(seats) == 0 {
		return nil, nil, nil
	}

	bookings, err := s.bookings.ListBookingsByAuditorium(ctx, auditoriumID)
	if err != nil {
		return nil, nil, fmt.Errorf("list bookings: %w", err)
	}
	booked := make(map[int][]string, len(bookings))
	for _, b := range bookings {
		booked[b.SeatNumber] = append(booked[b.SeatNumber], b.Time)
	}
	return seats, booked, nil
}

func bookedAtEveryShowtime(a model.Auditorium, booked []string) bool {
	if len(a.Times) == 0 {
		return false
	}
	for _, t := range a.Times {
		if !contains(booked, t) {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
