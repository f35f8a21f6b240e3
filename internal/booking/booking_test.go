package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/storage/memory"
)

type testLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *testLogger) Warnf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingSink) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

type fixture struct {
	store *memory.Store
	svc   *Service
	sink  *recordingSink
	log   *testLogger
	salaA model.Auditorium
	salaB model.Auditorium

	bookerID uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	salaA := model.Auditorium{Name: "Sala A", Times: []string{"3:00 PM", "5:00 PM", "7:00 PM"}}
	if err := st.CreateAuditorium(ctx, &salaA, []int{1, 2, 3, 4, 5}); err != nil {
		t.Fatal(err)
	}
	salaB := model.Auditorium{Name: "Sala B", Times: []string{"3:00 PM"}}
	if err := st.CreateAuditorium(ctx, &salaB, []int{1, 2}); err != nil {
		t.Fatal(err)
	}

	booker := model.Booker{Email: "a@b.com", PasswordHash: "x"}
	if err := st.CreateBooker(ctx, &booker); err != nil {
		t.Fatal(err)
	}

	sink := &recordingSink{}
	l := &testLogger{}
	return &fixture{
		store: st,
		svc:   New(l, st, st, st, sink),
		sink:  sink,
		log:   l,
		salaA: salaA,
		salaB: salaB,

		bookerID: booker.ID,
	}
}

func (f *fixture) input(seat int, showtime string) BookInput {
	bookerID := f.bookerID
	return BookInput{AuditoriumID: f.salaA.ID, Time: showtime, Seat: seat, Email: "a@b.com", BookerID: &bookerID}
}

func TestCreateScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.Create(ctx, f.input(5, "3:00 PM"))
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if first.ID == 0 || first.Seat != 5 || first.Time != "3:00 PM" || first.Email != "a@b.com" {
		t.Fatalf("unexpected booking %+v", first)
	}

	if _, err := f.svc.Create(ctx, f.input(5, "3:00 PM")); !errors.Is(err, ErrSeatAlreadyBooked) {
		t.Fatalf("repeat booking err = %v, want ErrSeatAlreadyBooked", err)
	}

	if _, err := f.svc.Create(ctx, f.input(5, "5:00 PM")); err != nil {
		t.Fatalf("same seat at another showtime: %v", err)
	}

	kept, err := f.store.GetBooking(ctx, first.ID)
	if err != nil || kept.Email != "a@b.com" || kept.Time != "3:00 PM" {
		t.Fatalf("existing booking changed: %+v, %v", kept, err)
	}
}

func TestCreateInvalidSeat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name  string
		input BookInput
	}{
		{"seat outside auditorium", f.input(6, "3:00 PM")},
		{"seat outside auditorium at another time", f.input(6, "7:00 PM")},
		{"seat belongs to another auditorium only", BookInput{AuditoriumID: f.salaB.ID, Time: "3:00 PM", Seat: 5, Email: "a@b.com"}},
		{"unknown auditorium", BookInput{AuditoriumID: 99, Time: "3:00 PM", Seat: 1, Email: "a@b.com"}},
		{"seat check precedes showtime check", f.input(6, "9:00 PM")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(ctx, tt.input); !errors.Is(err, ErrInvalidSeat) {
				t.Fatalf("err = %v, want ErrInvalidSeat", err)
			}
		})
	}
}

func TestCreateInvalidSeatBeforeConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Seat 6 does not exist; even if a stray booking held that slot the
	// caller must hear about the seat, not the conflict.
	stray := model.Booking{AuditoriumID: f.salaA.ID, Time: "3:00 PM", SeatNumber: 6, Email: "x@y.com"}
	if err := f.store.CreateBooking(ctx, &stray); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Create(ctx, f.input(6, "3:00 PM")); !errors.Is(err, ErrInvalidSeat) {
		t.Fatalf("err = %v, want ErrInvalidSeat", err)
	}
}

func TestCreateInvalidShowtime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.Create(ctx, f.input(1, "9:00 PM")); !errors.Is(err, ErrInvalidShowtime) {
		t.Fatalf("err = %v, want ErrInvalidShowtime", err)
	}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, BookInput{Seat: -1, Email: "nope"})
	ie := IsInputError(err)
	if ie == nil {
		t.Fatalf("err = %v, want InputError", err)
	}
	for _, field := range []string{"auditoriumId", "time", "seat", "email"} {
		if len(ie.Fields()[field]) == 0 {
			t.Errorf("missing message for %s in %v", field, ie.Fields())
		}
	}
}

func TestCreateNormalizesInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	in := f.input(2, " 3:00 PM ")
	in.Email = "  A@B.COM "
	b, err := f.svc.Create(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if b.Time != "3:00 PM" || b.Email != "a@b.com" {
		t.Fatalf("input not normalized: %+v", b)
	}
}

// racyStore reports every slot as free, as a concurrent writer would see
// it just before the competing insert lands.
type racyStore struct {
	*memory.Store
}

func (racyStore) GetBookingBySlot(context.Context, model.Slot) (model.Booking, error) {
	return model.Booking{}, repository.ErrBookingNotFound
}

func TestCreateUniqueIndexViolationIsConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := New(f.log, f.store, f.store, racyStore{f.store}, nil)

	if _, err := svc.Create(ctx, f.input(3, "3:00 PM")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, f.input(3, "3:00 PM")); !errors.Is(err, ErrSeatAlreadyBooked) {
		t.Fatalf("err = %v, want ErrSeatAlreadyBooked", err)
	}
}

func TestCreateConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, f.input(4, "7:00 PM"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrSeatAlreadyBooked):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 || conflicts != workers-1 {
		t.Fatalf("wins=%d conflicts=%d", wins, conflicts)
	}
}

func TestDeleteFreesSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.svc.Create(ctx, f.input(1, "3:00 PM"))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.svc.Delete(ctx, b.ID); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("second Delete err = %v", err)
	}
	if _, err := f.svc.Create(ctx, f.input(1, "3:00 PM")); err != nil {
		t.Fatalf("rebooking freed slot: %v", err)
	}
}

func TestConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.svc.Create(ctx, f.input(2, "5:00 PM"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.Confirmation(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := Confirmation{Email: "a@b.com", ReservationCode: b.ID, Auditorium: "Sala A", Time: "5:00 PM", Seat: 2}
	if got != want {
		t.Fatalf("Confirmation = %+v, want %+v", got, want)
	}

	if _, err := f.svc.Confirmation(ctx, 12345); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("missing booking err = %v", err)
	}
}

func TestConfirmationAfterAuditoriumRemoved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.svc.Create(ctx, f.input(2, "5:00 PM"))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.store.DeleteAuditorium(ctx, f.salaA.ID); err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.Confirmation(ctx, b.ID)
	if err != nil {
		t.Fatalf("Confirmation: %v", err)
	}
	if got.Auditorium != MissingAuditoriumName {
		t.Fatalf("Auditorium = %q, want %q", got.Auditorium, MissingAuditoriumName)
	}

	list, err := f.svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].AuditoriumDetails != MissingAuditoriumName {
		t.Fatalf("List = %+v", list)
	}
}

func TestListEnrichesAuditoriumName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.svc.Create(ctx, f.input(1, "3:00 PM")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Create(ctx, BookInput{AuditoriumID: f.salaB.ID, Time: "3:00 PM", Seat: 1, Email: "c@d.com"}); err != nil {
		t.Fatal(err)
	}

	list, err := f.svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("len(List) = %d", len(list))
	}
	if list[0].AuditoriumDetails != "Sala A" || list[1].AuditoriumDetails != "Sala B" {
		t.Fatalf("names = %q, %q", list[0].AuditoriumDetails, list[1].AuditoriumDetails)
	}
	if list[1].BookerID != nil {
		t.Fatalf("BookerID = %v, want nil", *list[1].BookerID)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a, err := f.svc.Create(ctx, f.input(1, "3:00 PM"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.svc.Create(ctx, f.input(2, "3:00 PM"))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("conflict with another booking", func(t *testing.T) {
		if _, err := f.svc.Update(ctx, b.ID, f.input(1, "3:00 PM")); !errors.Is(err, ErrSeatAlreadyBooked) {
			t.Fatalf("err = %v, want ErrSeatAlreadyBooked", err)
		}
	})

	t.Run("same slot is not a conflict", func(t *testing.T) {
		in := f.input(2, "3:00 PM")
		in.Email = "new@b.com"
		got, err := f.svc.Update(ctx, b.ID, in)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.Email != "new@b.com" {
			t.Fatalf("Email = %q", got.Email)
		}
	})

	t.Run("invalid seat", func(t *testing.T) {
		if _, err := f.svc.Update(ctx, b.ID, f.input(9, "3:00 PM")); !errors.Is(err, ErrInvalidSeat) {
			t.Fatalf("err = %v, want ErrInvalidSeat", err)
		}
	})

	t.Run("missing booking", func(t *testing.T) {
		if _, err := f.svc.Update(ctx, 999, f.input(9, "3:00 PM")); !errors.Is(err, ErrBookingNotFound) {
			t.Fatalf("err = %v, want ErrBookingNotFound", err)
		}
	})

	t.Run("move to another auditorium frees the old slot", func(t *testing.T) {
		in := BookInput{AuditoriumID: f.salaB.ID, Time: "3:00 PM", Seat: 2, Email: "a@b.com"}
		got, err := f.svc.Update(ctx, a.ID, in)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.AuditoriumID != f.salaB.ID || got.BookerID != nil {
			t.Fatalf("Update = %+v", got)
		}
		if _, err := f.svc.Create(ctx, f.input(1, "3:00 PM")); err != nil {
			t.Fatalf("old slot still held: %v", err)
		}
	})
}

func TestSlotUniquenessAfterMixedOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ids := make([]uint64, 0)
	for seat := 1; seat <= 5; seat++ {
		b, err := f.svc.Create(ctx, f.input(seat, "3:00 PM"))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, b.ID)
	}
	// Try to pile every booking onto seat 1, then shuffle a few.
	for _, id := range ids {
		_, _ = f.svc.Update(ctx, id, f.input(1, "3:00 PM"))
		_, _ = f.svc.Update(ctx, id, f.input(3, "5:00 PM"))
	}

	list, err := f.svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[model.Slot]bool{}
	for _, b := range list {
		slot := model.Slot{AuditoriumID: b.AuditoriumID, Time: b.Time, SeatNumber: b.Seat}
		if seen[slot] {
			t.Fatalf("slot %+v held twice", slot)
		}
		seen[slot] = true
	}
}

func TestEventsEmitted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.svc.Create(ctx, f.input(1, "3:00 PM"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Update(ctx, b.ID, f.input(2, "3:00 PM")); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	_, _ = f.svc.Create(ctx, f.input(9, "3:00 PM"))

	want := []EventType{EventCreated, EventUpdated, EventDeleted}
	if len(f.sink.events) != len(want) {
		t.Fatalf("events = %+v", f.sink.events)
	}
	for i, ev := range f.sink.events {
		if ev.Type != want[i] || ev.Booking.ID != b.ID || ev.AuditoriumName != "Sala A" {
			t.Errorf("event %d = %+v", i, ev)
		}
	}
}

func TestEventSinkFailureDoesNotFailRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.sink.err = errors.New("broker down")

	if _, err := f.svc.Create(ctx, f.input(1, "3:00 PM")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(f.log.warns) != 1 {
		t.Fatalf("warnings = %v", f.log.warns)
	}
}

func TestUnknownBookerIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ghost := uint64(9999)
	in := f.input(1, "3:00 PM")
	in.BookerID = &ghost
	if _, err := f.svc.Create(ctx, in); !errors.Is(err, ErrUnknownBooker) {
		t.Fatalf("Create err = %v, want ErrUnknownBooker", err)
	}
	if _, err := f.store.GetBookingBySlot(ctx, model.Slot{AuditoriumID: f.salaA.ID, Time: "3:00 PM", SeatNumber: 1}); !errors.Is(err, repository.ErrBookingNotFound) {
		t.Fatalf("rejected booking holds its slot: %v", err)
	}

	b, err := f.svc.Create(ctx, f.input(1, "3:00 PM"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Update(ctx, b.ID, in); !errors.Is(err, ErrUnknownBooker) {
		t.Fatalf("Update err = %v, want ErrUnknownBooker", err)
	}
	got, err := f.store.GetBooking(ctx, b.ID)
	if err != nil || got.BookerID == nil || *got.BookerID != f.bookerID {
		t.Fatalf("booking after rejected update = %+v, %v", got, err)
	}
}
