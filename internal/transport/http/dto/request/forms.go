package request

import "parish_portal/internal/domain/models"

type RegistrationRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"omitempty,max=50"`
	AttendeeCount  int    `json:"attendeeCount" validate:"required,min=1,max=1000"`
	AdditionalInfo string `json:"additionalInfo,omitempty" validate:"max=2000"`
}

func (r RegistrationRequest) Form() models.RegistrationForm {
	return models.RegistrationForm{
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		AttendeeCount:  r.AttendeeCount,
		AdditionalInfo: r.AdditionalInfo,
	}
}

type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Subject string `json:"subject,omitempty" validate:"omitempty,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type FeedbackRequest struct {
	Name     string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Category string `json:"category,omitempty" validate:"omitempty,max=100"`
	Rating   int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Message  string `json:"message" validate:"required,max=5000"`
}

type ImportRequest struct {
	Data string `json:"data" validate:"required"`
}
