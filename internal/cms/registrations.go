package cms

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"parish_portal/internal/domain/models"
)

type registrationPayload struct {
	Event            int64                     `json:"event"`
	Name             string                    `json:"name"`
	Email            string                    `json:"email"`
	Phone            string                    `json:"phone"`
	AttendeeCount    int                       `json:"attendeeCount"`
	AdditionalInfo   string                    `json:"additionalInfo,omitempty"`
	Status           models.RegistrationStatus `json:"status"`
	RegistrationDate time.Time                 `json:"registrationDate"`
}

// CreateRegistration создаёт запись регистрации со статусом confirmed.
// Счётчик участников события здесь не меняется, это отдельный шаг.
func (c *Client) CreateRegistration(ctx context.Context, eventID int64, form models.RegistrationForm) (*models.EventRegistration, error) {
	const op = "cms.CreateRegistration"

	payload := registrationPayload{
		Event:            eventID,
		Name:             form.Name,
		Email:            form.Email,
		Phone:            form.Phone,
		AttendeeCount:    form.AttendeeCount,
		AdditionalInfo:   form.AdditionalInfo,
		Status:           models.StatusConfirmed,
		RegistrationDate: time.Now().UTC(),
	}

	reg, err := write[models.EventRegistration](ctx, c, op, http.MethodPost, CollectionRegistrations, CollectionRegistrations, payload)
	if err != nil {
		return nil, err
	}
	if reg.EventID == 0 {
		reg.EventID = eventID
	}

	return reg, nil
}

func (c *Client) GetRegistration(ctx context.Context, id int64) (*models.EventRegistration, error) {
	const op = "cms.GetRegistration"

	q := NewQuery().Eq(strconv.FormatInt(id, 10), "id").Populate("event")

	return findOne[models.EventRegistration](ctx, c, op, CollectionRegistrations, q)
}

func (c *Client) ListEventRegistrations(ctx context.Context, eventID int64) ([]models.EventRegistration, error) {
	const op = "cms.ListEventRegistrations"

	q := NewQuery().
		Eq(strconv.FormatInt(eventID, 10), "event", "id").
		Sort("createdAt", Desc).
		Populate("event")

	regs, err := listEvery[models.EventRegistration](ctx, c, op, CollectionRegistrations, q)
	if err != nil {
		return regs, err
	}

	for i := range regs {
		if regs[i].EventID == 0 {
			regs[i].EventID = eventID
		}
	}

	return regs, nil
}

// ListRegistrations все регистрации, новые первыми; для выгрузки из админки.
func (c *Client) ListRegistrations(ctx context.Context) ([]models.EventRegistration, error) {
	const op = "cms.ListRegistrations"

	q := NewQuery().Sort("createdAt", Desc).Populate("event")

	return listEvery[models.EventRegistration](ctx, c, op, CollectionRegistrations, q)
}

// UpdateEventAttendees записывает новое значение currentAttendees.
func (c *Client) UpdateEventAttendees(ctx context.Context, event models.Event, current int) (*models.Event, error) {
	const op = "cms.UpdateEventAttendees"

	body := map[string]any{"currentAttendees": max(current, 0)}

	return write[models.Event](ctx, c, op, http.MethodPut, CollectionEvents, entityRef(CollectionEvents, event.ID, event.DocumentID), body)
}

func (c *Client) UpdateRegistrationStatus(ctx context.Context, reg models.EventRegistration, status models.RegistrationStatus) (*models.EventRegistration, error) {
	const op = "cms.UpdateRegistrationStatus"

	body := map[string]any{"status": status}

	updated, err := write[models.EventRegistration](ctx, c, op, http.MethodPut, CollectionRegistrations, entityRef(CollectionRegistrations, reg.ID, reg.DocumentID), body)
	if err != nil {
		return nil, err
	}
	if updated.EventID == 0 {
		updated.EventID = reg.EventID
	}

	return updated, nil
}
