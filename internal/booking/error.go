package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidSeat means the seat number does not exist in the auditorium.
	ErrInvalidSeat = errors.New("invalid seat number for the selected auditorium")
	// ErrInvalidShowtime means the time is not one of the auditorium's showtimes.
	ErrInvalidShowtime = errors.New("invalid showtime for the selected auditorium")
	// ErrSeatAlreadyBooked means another booking holds the slot.
	ErrSeatAlreadyBooked = errors.New("seat already booked at this time")
	// ErrBookingNotFound means no booking has the requested id.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrUnknownBooker means the booking names a booker that does not exist.
	ErrUnknownBooker = errors.New("booker not found")
)

// InputError collects per-field validation messages for a BookInput.
type InputError struct {
	fields map[string][]string
}

func newInputError() *InputError {
	return &InputError{
		fields: make(map[string][]string),
	}
}

// IsInputError returns the InputError wrapped in err, or nil.
func IsInputError(err error) *InputError {
	if err == nil {
		return nil
	}

	var inputError *InputError

	if errors.As(err, &inputError) {
		return inputError
	}

	return nil
}

func (ie *InputError) fieldsCount() int {
	return len(ie.fields)
}

func (ie *InputError) addError(field, msg string) {
	ie.fields[field] = append(ie.fields[field], msg)
}

func (ie *InputError) Error() string {
	names := make([]string, 0, len(ie.fields))
	for name := range ie.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(ie.fields[name], ", ")))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Fields returns the messages keyed by JSON field name.
func (ie *InputError) Fields() map[string][]string {
	return ie.fields
}
