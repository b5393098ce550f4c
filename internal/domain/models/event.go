package models

import (
	"encoding/json"
	"time"
)

type Event struct {
	ID                   int64      `json:"id"`
	DocumentID           string     `json:"documentId,omitempty"`
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	Date                 string     `json:"date"`
	Time                 string     `json:"time,omitempty"`
	Location             string     `json:"location,omitempty"`
	Slug                 string     `json:"slug"`
	RegistrationRequired bool       `json:"registrationRequired"`
	MaxAttendees         *int       `json:"maxAttendees,omitempty"`
	CurrentAttendees     int        `json:"currentAttendees"`
	Image                *Image     `json:"image,omitempty"`
	PublishedAt          *time.Time `json:"publishedAt,omitempty"`
}

func (e *Event) UnmarshalJSON(data []byte) error {
	type alias Event
	if err := json.Unmarshal(data, (*alias)(e)); err != nil {
		return err
	}

	if e.Image.IsZero() {
		e.Image = nil
	}
	// null в CMS означает "без ограничения", как и 0
	if e.MaxAttendees != nil && *e.MaxAttendees <= 0 {
		e.MaxAttendees = nil
	}

	return nil
}

func (e Event) HasCeiling() bool {
	return e.MaxAttendees != nil
}

// RemainingSpots -1, если ограничения нет.
func (e Event) RemainingSpots() int {
	if e.MaxAttendees == nil {
		return -1
	}
	return max(*e.MaxAttendees-e.CurrentAttendees, 0)
}

// HasCapacityFor проверяет current + n <= max при заданном потолке.
func (e Event) HasCapacityFor(current, n int) bool {
	if e.MaxAttendees == nil {
		return true
	}
	return current+n <= *e.MaxAttendees
}

func (e Event) IsFullyBooked() bool {
	return e.MaxAttendees != nil && e.CurrentAttendees >= *e.MaxAttendees
}

// Day дата события; поддерживаются "2006-01-02" и RFC3339.
func (e Event) Day() (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, e.Date); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, e.Date)
}

// IsUpcoming событие сегодня или позже (сравнение по дням).
func (e Event) IsUpcoming(now time.Time) bool {
	day, err := e.Day()
	if err != nil {
		return false
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, day.Location())

	return !day.Before(today)
}
