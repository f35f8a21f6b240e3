// Package booking enforces the seat-booking rules: a booking must name an
// existing seat of the auditorium at one of its showtimes, and no two
// bookings may hold the same (auditorium, time, seat) slot.  Occupancy is
// never stored on a seat; it is derived from the bookings of a showtime.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// Logger is the subset of echo's logger the service writes to.
type Logger interface {
	Warnf(format string, args ...interface{})
}

type auditoriumReader interface {
	ListAuditoriums(ctx context.Context) ([]model.Auditorium, error)
	GetAuditorium(ctx context.Context, id uint64) (model.Auditorium, error)
}

type seatReader interface {
	GetSeatByNumber(ctx context.Context, auditoriumID uint64, number int) (model.Seat, error)
	ListSeatsByAuditorium(ctx context.Context, auditoriumID uint64) ([]model.Seat, error)
}

type bookingStorage interface {
	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id uint64) (model.Booking, error)
	GetBookingBySlot(ctx context.Context, s model.Slot) (model.Booking, error)
	ListBookings(ctx context.Context) ([]model.Booking, error)
	ListBookingsByAuditorium(ctx context.Context, auditoriumID uint64) ([]model.Booking, error)
	UpdateBooking(ctx context.Context, b *model.Booking) error
	DeleteBooking(ctx context.Context, id uint64) error
}

// EventSink receives booking changes after they are stored.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

// Service runs booking operations against the stores.
type Service struct {
	l           Logger
	auditoriums auditoriumReader
	seats       seatReader
	bookings    bookingStorage
	events      EventSink
	now         func() time.Time
}

// New builds a Service.  events may be nil.
func New(l Logger, auditoriums auditoriumReader, seats seatReader, bookings bookingStorage, events EventSink) *Service {
	return &Service{
		l:           l,
		auditoriums: auditoriums,
		seats:       seats,
		bookings:    bookings,
		events:      events,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (in *BookInput) normalize() {
	in.Time = strings.TrimSpace(in.Time)
	in.Email = utils.NormalizeEmail(in.Email)
}

func (in *BookInput) validate() error {
	inputErr := newInputError()

	if in.AuditoriumID == 0 {
		inputErr.addError("auditoriumId", "provide auditoriumId")
	}

	if in.Time == "" {
		inputErr.addError("time", "provide time")
	}

	if in.Seat <= 0 {
		inputErr.addError("seat", "seat must be a positive number")
	}

	if !utils.IsValidEmail(in.Email) {
		inputErr.addError("email", "provide valid email")
	}

	if inputErr.fieldsCount() > 0 {
		return inputErr
	}

	return nil
}

// resolveTarget checks that the seat exists in the auditorium and that
// the time is one of its showtimes.  The seat check runs first.
func (s *Service) resolveTarget(ctx context.Context, in BookInput) (model.Auditorium, error) {
	if _, err := s.seats.GetSeatByNumber(ctx, in.AuditoriumID, in.Seat); err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return model.Auditorium{}, ErrInvalidSeat
		}
		return model.Auditorium{}, fmt.Errorf("get seat: %w", err)
	}

	a, err := s.auditoriums.GetAuditorium(ctx, in.AuditoriumID)
	if err != nil {
		if errors.Is(err, repository.ErrAuditoriumNotFound) {
			return model.Auditorium{}, ErrInvalidSeat
		}
		return model.Auditorium{}, fmt.Errorf("get auditorium: %w", err)
	}

	if !a.HasTime(in.Time) {
		return model.Auditorium{}, ErrInvalidShowtime
	}

	return a, nil
}

// slotHolder returns the id of the booking holding slot, or 0 when it
// is free.
func (s *Service) slotHolder(ctx context.Context, slot model.Slot) (uint64, error) {
	b, err := s.bookings.GetBookingBySlot(ctx, slot)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get booking by slot: %w", err)
	}
	return b.ID, nil
}

// Create books a seat for a showtime.
//
// The slot check gives the common case its error; the store's unique
// slot index decides between concurrent writers.
func (s *Service) Create(ctx context.Context, in BookInput) (Booking, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return Booking{}, err
	}

	a, err := s.resolveTarget(ctx, in)
	if err != nil {
		return Booking{}, err
	}

	b := model.Booking{
		Time:         in.Time,
		SeatNumber:   in.Seat,
		AuditoriumID: in.AuditoriumID,
		Email:        in.Email,
		BookerID:     in.BookerID,
	}

	holder, err := s.slotHolder(ctx, b.Slot())
	if err != nil {
		return Booking{}, err
	}
	if holder != 0 {
		return Booking{}, ErrSeatAlreadyBooked
	}

	if err := s.bookings.CreateBooking(ctx, &b); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			return Booking{}, ErrSeatAlreadyBooked
		case errors.Is(err, repository.ErrBookerNotFound):
			return Booking{}, ErrUnknownBooker
		}
		return Booking{}, fmt.Errorf("create booking: %w", err)
	}

	s.emit(ctx, EventCreated, b, a.Name)

	return viewOf(b), nil
}

// Confirmation renders the confirmation of booking id.  A missing
// auditorium is reported as MissingAuditoriumName.
func (s *Service) Confirmation(ctx context.Context, id uint64) (Confirmation, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return Confirmation{}, err
	}

	name, err := s.auditoriumName(ctx, b.AuditoriumID)
	if err != nil {
		return Confirmation{}, err
	}

	return Confirmation{
		Email:           b.Email,
		ReservationCode: b.ID,
		Auditorium:      name,
		Time:            b.Time,
		Seat:            b.SeatNumber,
	}, nil
}

// List returns every booking with its auditorium name.
func (s *Service) List(ctx context.Context) ([]Booking, error) {
	list, err := s.bookings.ListBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	auditoriums, err := s.auditoriums.ListAuditoriums(ctx)
	if err != nil {
		return nil, fmt.Errorf("list auditoriums: %w", err)
	}
	names := make(map[uint64]string, len(auditoriums))
	for _, a := range auditoriums {
		names[a.ID] = a.Name
	}

	out := make([]Booking, 0, len(list))
	for _, b := range list {
		v := viewOf(b)
		v.AuditoriumDetails = MissingAuditoriumName
		if name, ok := names[b.AuditoriumID]; ok {
			v.AuditoriumDetails = name
		}
		out = append(out, v)
	}
	return out, nil
}

// Update moves booking id to the slot described by in and overwrites its
// email and booker.  Keeping a booking on its own slot is not a conflict.
func (s *Service) Update(ctx context.Context, id uint64, in BookInput) (Booking, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return Booking{}, err
	}

	in.normalize()
	if err := in.validate(); err != nil {
		return Booking{}, err
	}

	a, err := s.resolveTarget(ctx, in)
	if err != nil {
		return Booking{}, err
	}

	b.Time = in.Time
	b.SeatNumber = in.Seat
	b.AuditoriumID = in.AuditoriumID
	b.Email = in.Email
	b.BookerID = in.BookerID

	holder, err := s.slotHolder(ctx, b.Slot())
	if err != nil {
		return Booking{}, err
	}
	if holder != 0 && holder != b.ID {
		return Booking{}, ErrSeatAlreadyBooked
	}

	if err := s.bookings.UpdateBooking(ctx, &b); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			return Booking{}, ErrSeatAlreadyBooked
		case errors.Is(err, repository.ErrBookingNotFound):
			return Booking{}, ErrBookingNotFound
		case errors.Is(err, repository.ErrBookerNotFound):
			return Booking{}, ErrUnknownBooker
		}
		return Booking{}, fmt.Errorf("update booking: %w", err)
	}

	s.emit(ctx, EventUpdated, b, a.Name)

	return viewOf(b), nil
}

// Delete removes booking id, freeing its slot.
func (s *Service) Delete(ctx context.Context, id uint64) error {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return err
	}

	if err := s.bookings.DeleteBooking(ctx, id); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("delete booking: %w", err)
	}

	name, err := s.auditoriumName(ctx, b.AuditoriumID)
	if err != nil {
		s.l.Warnf("booking %d deleted, auditorium lookup failed: %v", id, err)
		name = MissingAuditoriumName
	}
	s.emit(ctx, EventDeleted, b, name)

	return nil
}

func (s *Service) getBooking(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return model.Booking{}, ErrBookingNotFound
		}
		return model.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (s *Service) auditoriumName(ctx context.Context, id uint64) (string, error) {
	a, err := s.auditoriums.GetAuditorium(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAuditoriumNotFound) {
			return MissingAuditoriumName, nil
		}
		return "", fmt.Errorf("get auditorium: %w", err)
	}
	return a.Name, nil
}

// emit hands the change to the event sink.  Sink failures are logged and
// never undo the stored change.
func (s *Service) emit(ctx context.Context, t EventType, b model.Booking, auditoriumName string) {
	if s.events == nil {
		return
	}
	ev := Event{Type: t, Booking: b, AuditoriumName: auditoriumName, OccurredAt: s.now()}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.l.Warnf("publish %s for booking %d: %v", t, b.ID, err)
	}
}
