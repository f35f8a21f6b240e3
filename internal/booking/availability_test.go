package booking

import (
	"context"
	"testing"
)

func occupied(seats []SeatAvailability) map[int]bool {
	out := map[int]bool{}
	for _, s := range seats {
		if s.IsOccupied {
			out[s.Number] = true
		}
	}
	return out
}

func TestAvailabilityByShowtime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.Create(ctx, f.input(2, "3:00 PM")); err != nil {
		t.Fatal(err)
	}

	at3, err := f.svc.Availability(ctx, "3:00 PM")
	if err != nil {
		t.Fatal(err)
	}
	if len(at3) != 2 || at3[0].Name != "Sala A" || at3[1].Name != "Sala B" {
		t.Fatalf("auditoriums = %+v", at3)
	}
	if len(at3[0].Seats) != 5 {
		t.Fatalf("Sala A seats = %d", len(at3[0].Seats))
	}
	if got := occupied(at3[0].Seats); len(got) != 1 || !got[2] {
		t.Fatalf("occupied at 3:00 PM = %v", got)
	}
	if got := occupied(at3[1].Seats); len(got) != 0 {
		t.Fatalf("Sala B occupied = %v", got)
	}

	at5, err := f.svc.Availability(ctx, "5:00 PM")
	if err != nil {
		t.Fatal(err)
	}
	if got := occupied(at5[0].Seats); len(got) != 0 {
		t.Fatalf("occupied at 5:00 PM = %v", got)
	}
}

func TestAvailabilityWithoutShowtime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, showtime := range []string{"3:00 PM", "5:00 PM", "7:00 PM"} {
		if _, err := f.svc.Create(ctx, f.input(1, showtime)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.svc.Create(ctx, f.input(4, "5:00 PM")); err != nil {
		t.Fatal(err)
	}

	all, err := f.svc.Availability(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	seats := all[0].Seats
	if got := occupied(seats); len(got) != 1 || !got[1] {
		t.Fatalf("fully booked seats = %v", got)
	}
	if len(seats[0].BookedTimes) != 3 {
		t.Fatalf("seat 1 bookedTimes = %v", seats[0].BookedTimes)
	}
	if bt := seats[3].BookedTimes; len(bt) != 1 || bt[0] != "5:00 PM" {
		t.Fatalf("seat 4 bookedTimes = %v", bt)
	}
}

func TestSeatsByAuditorium(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.Create(ctx, f.input(5, "3:00 PM")); err != nil {
		t.Fatal(err)
	}

	seats, err := f.svc.SeatsByAuditorium(ctx, f.salaA.ID, "3:00 PM")
	if err != nil {
		t.Fatal(err)
	}
	if len(seats) != 5 {
		t.Fatalf("len = %d", len(seats))
	}
	for _, s := range seats {
		if s.ID == 0 {
			t.Fatalf("seat without id: %+v", s)
		}
		if s.IsOccupied != (s.Number == 5) {
			t.Fatalf("seat %d occupied = %v", s.Number, s.IsOccupied)
		}
	}

	seats, err = f.svc.SeatsByAuditorium(ctx, f.salaA.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range seats {
		if s.IsOccupied {
			t.Fatalf("seat %d reported occupied for every showtime", s.Number)
		}
	}

	none, err := f.svc.SeatsByAuditorium(ctx, 404, "3:00 PM")
	if err != nil {
		t.Fatalf("unknown auditorium err = %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("unknown auditorium seats = %#v, want empty", none)
	}
}
