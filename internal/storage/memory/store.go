// Package memory is an in-process store with the same contract as the
// MySQL repositories.  It backs STORAGE_BACKEND=memory and the tests.
// All state sits behind one mutex; uniqueness of booking slots, seat
// numbers and booker emails is enforced the way the MySQL indexes do.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

type seatKey struct {
	auditoriumID uint64
	number       int
}

// Store implements the auditorium, seat, booking and booker stores.
type Store struct {
	mu sync.Mutex

	auditoriums map[uint64]model.Auditorium
	seats       map[seatKey]model.Seat
	bookings    map[uint64]model.Booking
	slots       map[model.Slot]uint64
	bookers     map[uint64]model.Booker
	emails      map[string]uint64

	nextAuditoriumID uint64
	nextSeatID       uint64
	nextBookingID    uint64
	nextBookerID     uint64

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		auditoriums: make(map[uint64]model.Auditorium),
		seats:       make(map[seatKey]model.Seat),
		bookings:    make(map[uint64]model.Booking),
		slots:       make(map[model.Slot]uint64),
		bookers:     make(map[uint64]model.Booker),
		emails:      make(map[string]uint64),
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

func cloneAuditorium(a model.Auditorium) model.Auditorium {
	a.Times = append([]string(nil), a.Times...)
	return a
}

func cloneBooking(b model.Booking) model.Booking {
	if b.BookerID != nil {
		id := *b.BookerID
		b.BookerID = &id
	}
	return b
}

// CountAuditoriums returns the number of auditoriums.
func (s *Store) CountAuditoriums(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.auditoriums), nil
}

// CreateAuditorium stores a and its seats.  Names are unique, as with
// uq_auditoriums_name.  Duplicate seat numbers are collapsed, matching
// uq_seats_auditorium_number.
func (s *Store) CreateAuditorium(_ context.Context, a *model.Auditorium, seatNumbers []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cur := range s.auditoriums {
		if cur.Name == a.Name {
			return repository.ErrAuditoriumExists
		}
	}

	s.nextAuditoriumID++
	now := s.now()
	a.ID = s.nextAuditoriumID
	a.CreatedAt = now
	a.UpdatedAt = now
	s.auditoriums[a.ID] = cloneAuditorium(*a)

	for _, n := range seatNumbers {
		k := seatKey{auditoriumID: a.ID, number: n}
		if _, ok := s.seats[k]; ok {
			continue
		}
		s.nextSeatID++
		s.seats[k] = model.Seat{ID: s.nextSeatID, Number: n, AuditoriumID: a.ID}
	}
	return nil
}

// DeleteAuditorium drops an auditorium and its seats, leaving bookings
// in place.  The HTTP API never calls it; it exists so callers can
// exercise the missing-auditorium fallbacks.
func (s *Store) DeleteAuditorium(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auditoriums[id]; !ok {
		return repository.ErrAuditoriumNotFound
	}
	delete(s.auditoriums, id)
	for k := range s.seats {
		if k.auditoriumID == id {
			delete(s.seats, k)
		}
	}
	return nil
}

// ListAuditoriums returns every auditorium ordered by id.
func (s *Store) ListAuditoriums(_ context.Context) ([]model.Auditorium, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Auditorium, 0, len(s.auditoriums))
	for _, a := range s.auditoriums {
		out = append(out, cloneAuditorium(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetAuditorium returns the auditorium or repository.ErrAuditoriumNotFound.
func (s *Store) GetAuditorium(_ context.Context, id uint64) (model.Auditorium, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auditoriums[id]
	if !ok {
		return model.Auditorium{}, repository.ErrAuditoriumNotFound
	}
	return cloneAuditorium(a), nil
}

// GetSeatByNumber resolves a seat or returns repository.ErrSeatNotFound.
func (s *Store) GetSeatByNumber(_ context.Context, auditoriumID uint64, number int) (model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, ok := s.seats[seatKey{auditoriumID: auditoriumID, number: number}]
	if !ok {
		return model.Seat{}, repository.ErrSeatNotFound
	}
	return seat, nil
}

// ListSeatsByAuditorium returns the auditorium's seats ordered by number.
func (s *Store) ListSeatsByAuditorium(_ context.Context, auditoriumID uint64) ([]model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Seat
	for k, seat := range s.seats {
		if k.auditoriumID == auditoriumID {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// bookerMissing mirrors fk_bookings_booker.  s.mu must be held.
func (s *Store) bookerMissing(id *uint64) bool {
	if id == nil {
		return false
	}
	_, ok := s.bookers[*id]
	return !ok
}

// CreateBooking inserts b unless its slot is taken or it names an
// unknown booker.
func (s *Store) CreateBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.slots[b.Slot()]; taken {
		return repository.ErrSlotTaken
	}
	if s.bookerMissing(b.BookerID) {
		return repository.ErrBookerNotFound
	}
	s.nextBookingID++
	now := s.now()
	b.ID = s.nextBookingID
	b.CreatedAt = now
	b.UpdatedAt = now
	s.bookings[b.ID] = cloneBooking(*b)
	s.slots[b.Slot()] = b.ID
	return nil
}

// GetBooking returns the booking or repository.ErrBookingNotFound.
func (s *Store) GetBooking(_ context.Context, id uint64) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

// GetBookingBySlot returns the booking holding slot or
// repository.ErrBookingNotFound.
func (s *Store) GetBookingBySlot(_ context.Context, slot model.Slot) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.slots[slot]
	if !ok {
		return model.Booking{}, repository.ErrBookingNotFound
	}
	return cloneBooking(s.bookings[id]), nil
}

func (s *Store) sortedBookings(keep func(model.Booking) bool) []model.Booking {
	out := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListBookings returns every booking ordered by id.
func (s *Store) ListBookings(_ context.Context) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedBookings(func(model.Booking) bool { return true }), nil
}

// ListBookingsByAuditorium returns one auditorium's bookings ordered by id.
func (s *Store) ListBookingsByAuditorium(_ context.Context, auditoriumID uint64) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedBookings(func(b model.Booking) bool { return b.AuditoriumID == auditoriumID }), nil
}

// UpdateBooking overwrites the booking b.ID, moving its slot.
func (s *Store) UpdateBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.bookings[b.ID]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if holder, taken := s.slots[b.Slot()]; taken && holder != b.ID {
		return repository.ErrSlotTaken
	}
	if s.bookerMissing(b.BookerID) {
		return repository.ErrBookerNotFound
	}
	delete(s.slots, cur.Slot())

	b.CreatedAt = cur.CreatedAt
	b.UpdatedAt = s.now()
	s.bookings[b.ID] = cloneBooking(*b)
	s.slots[b.Slot()] = b.ID
	return nil
}

// DeleteBooking removes the booking and frees its slot.
func (s *Store) DeleteBooking(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	delete(s.bookings, id)
	delete(s.slots, b.Slot())
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateBooker inserts b unless the email is taken.
func (s *Store) CreateBooker(_ context.Context, b *model.Booker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.Email = normalizeEmail(b.Email)
	if _, taken := s.emails[b.Email]; taken {
		return repository.ErrEmailExists
	}
	s.nextBookerID++
	now := s.now()
	b.ID = s.nextBookerID
	b.CreatedAt = now
	b.UpdatedAt = now
	s.bookers[b.ID] = *b
	s.emails[b.Email] = b.ID
	return nil
}

// GetBookerByEmail looks a booker up by normalized email.
func (s *Store) GetBookerByEmail(_ context.Context, email string) (model.Booker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.emails[normalizeEmail(email)]
	if !ok {
		return model.Booker{}, repository.ErrBookerNotFound
	}
	return s.bookers[id], nil
}

// GetBookerByID looks a booker up by id.
func (s *Store) GetBookerByID(_ context.Context, id uint64) (model.Booker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookers[id]
	if !ok {
		return model.Booker{}, repository.ErrBookerNotFound
	}
	return b, nil
}

// ListBookers returns all bookers ordered by id.
func (s *Store) ListBookers(_ context.Context) ([]model.Booker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Booker, 0, len(s.bookers))
	for _, b := range s.bookers {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateBooker overwrites email and password hash of booker b.ID.
func (s *Store) UpdateBooker(_ context.Context, b *model.Booker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.bookers[b.ID]
	if !ok {
		return repository.ErrBookerNotFound
	}
	b.Email = normalizeEmail(b.Email)
	if holder, taken := s.emails[b.Email]; taken && holder != b.ID {
		return repository.ErrEmailExists
	}
	delete(s.emails, cur.Email)

	b.CreatedAt = cur.CreatedAt
	b.UpdatedAt = s.now()
	s.bookers[b.ID] = *b
	s.emails[b.Email] = b.ID
	return nil
}

// DeleteBooker removes the booker and detaches their bookings.
func (s *Store) DeleteBooker(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookers[id]
	if !ok {
		return repository.ErrBookerNotFound
	}
	delete(s.bookers, id)
	delete(s.emails, b.Email)

	for bid, bk := range s.bookings {
		if bk.BookerID != nil && *bk.BookerID == id {
			bk.BookerID = nil
			s.bookings[bid] = bk
		}
	}
	return nil
}
