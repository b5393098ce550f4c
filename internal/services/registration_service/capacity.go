package services

import (
	"errors"
	"fmt"

	"parish_portal/internal/domain/models"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrFullyBooked          = errors.New("event is fully booked")
	ErrInvalidAttendeeCount = errors.New("attendee count must be at least 1")
	ErrInvalidForm          = errors.New("name and email are required")
	ErrUnsupported          = errors.New("operation is not supported by the registration backend")
)

// CapacityError отказ по вместимости; errors.Is(err, ErrFullyBooked) == true.
type CapacityError struct {
	EventID   int64
	Requested int
	Remaining int
}

func (e *CapacityError) Error() string {
	if e.Remaining <= 0 {
		return fmt.Sprintf("%s: no spots remaining", ErrFullyBooked)
	}
	return fmt.Sprintf("%s: only %d spots remaining", ErrFullyBooked, e.Remaining)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrFullyBooked
}

// checkCapacity общее предусловие для всех бэкендов:
// n >= 1 и, если у события есть потолок, current + n <= maxAttendees.
func checkCapacity(event models.Event, current, n int) error {
	if n < 1 {
		return ErrInvalidAttendeeCount
	}

	if event.HasCapacityFor(current, n) {
		return nil
	}

	return &CapacityError{
		EventID:   event.ID,
		Requested: n,
		Remaining: max(*event.MaxAttendees-current, 0),
	}
}

func validateForm(form models.RegistrationForm) error {
	if form.AttendeeCount < 1 {
		return ErrInvalidAttendeeCount
	}
	if form.Name == "" || form.Email == "" {
		return ErrInvalidForm
	}
	return nil
}
