package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

type RegistrationStatus string

const (
	StatusConfirmed RegistrationStatus = "confirmed"
	StatusPending   RegistrationStatus = "pending"
	StatusCancelled RegistrationStatus = "cancelled"
)

func (s RegistrationStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// EventRegistration регистрация на событие.
// Создаётся со статусом confirmed, дальше меняется только на cancelled; не удаляется.
type EventRegistration struct {
	ID               int64              `json:"id"`
	DocumentID       string             `json:"documentId,omitempty"`
	EventID          int64              `json:"eventId"`
	Event            *Event             `json:"event,omitempty"`
	Name             string             `json:"name"`
	Email            string             `json:"email"`
	Phone            string             `json:"phone"`
	AttendeeCount    int                `json:"attendeeCount"`
	AdditionalInfo   string             `json:"additionalInfo"`
	Status           RegistrationStatus `json:"status"`
	RegistrationDate time.Time          `json:"registrationDate"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// UnmarshalJSON принимает ссылку на событие в любом виде: id числом,
// вложенным объектом или обёрткой {"data": {...}}.
func (r *EventRegistration) UnmarshalJSON(data []byte) error {
	type alias EventRegistration
	aux := struct {
		*alias
		Event json.RawMessage `json:"event,omitempty"`
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Event = nil
	if isNull(aux.Event) {
		return nil
	}

	raw := bytes.TrimSpace(aux.Event)
	if raw[0] != '{' {
		// documentId строкой в ссылке не несёт числового id, оставляем eventId как есть
		if id, err := strconv.ParseInt(string(bytes.Trim(raw, `"`)), 10, 64); err == nil {
			r.EventID = id
		}
		return nil
	}

	flat, err := UnwrapEntity(raw)
	if err != nil {
		return err
	}
	if isNull(flat) {
		return nil
	}

	var ev Event
	if err := json.Unmarshal(flat, &ev); err != nil {
		return err
	}
	r.Event = &ev
	if r.EventID == 0 {
		r.EventID = ev.ID
	}

	return nil
}

func (r EventRegistration) IsActive() bool {
	return r.Status == StatusConfirmed || r.Status == StatusPending
}

// RegistrationStats сводка по событию для админки
type RegistrationStats struct {
	EventID           int64 `json:"eventId"`
	RegistrationCount int   `json:"registrationCount"`
	AttendeeCount     int   `json:"attendeeCount"`
}

// RegistrationForm данные, которые посетитель вводит в форме регистрации.
type RegistrationForm struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	AttendeeCount  int    `json:"attendeeCount"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}
