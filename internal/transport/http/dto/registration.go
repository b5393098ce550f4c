package dto

import (
	"time"

	"parish_portal/internal/domain/models"
)

type RegistrationResponse struct {
	ID               int64                     `json:"id"`
	EventID          int64                     `json:"eventId"`
	Name             string                    `json:"name"`
	AttendeeCount    int                       `json:"attendeeCount"`
	Status           models.RegistrationStatus `json:"status"`
	RegistrationDate time.Time                 `json:"registrationDate"`
}

func NewRegistrationResponse(reg models.EventRegistration) RegistrationResponse {
	return RegistrationResponse{
		ID:               reg.ID,
		EventID:          reg.EventID,
		Name:             reg.Name,
		AttendeeCount:    reg.AttendeeCount,
		Status:           reg.Status,
		RegistrationDate: reg.RegistrationDate,
	}
}

type CancelResponse struct {
	ID        int64 `json:"id"`
	Cancelled bool  `json:"cancelled"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
