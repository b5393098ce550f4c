package repository

import (
	"context"

	"parish_portal/internal/domain/models"
)

// LocalRegistrationRepository запасное хранилище регистраций, пока CMS недоступна.
type LocalRegistrationRepository interface {
	Register(ctx context.Context, eventID int64, form models.RegistrationForm) (models.EventRegistration, error)
	Get(ctx context.Context, id int64) (*models.EventRegistration, error)
	List(ctx context.Context) ([]models.EventRegistration, error)
	ListByEvent(ctx context.Context, eventID int64) ([]models.EventRegistration, error)
	AttendeeCount(ctx context.Context, eventID int64) (int, error)
	Cancel(ctx context.Context, id int64) (bool, error)
	ExportAll(ctx context.Context) (string, error)
	Import(ctx context.Context, data string) (int, error)
	Clear(ctx context.Context) error
}

// LedgerRepository журнал регистраций в Postgres со счётчиком мест.
type LedgerRepository interface {
	Register(ctx context.Context, event models.Event, form models.RegistrationForm) (models.EventRegistration, error)
	Get(ctx context.Context, id int64) (*models.EventRegistration, error)
	List(ctx context.Context) ([]models.EventRegistration, error)
	ListByEvent(ctx context.Context, eventID int64) ([]models.EventRegistration, error)
	CurrentAttendees(ctx context.Context, eventID int64) (int, bool, error)
	Cancel(ctx context.Context, id int64) (*models.EventRegistration, bool, error)
	Stats(ctx context.Context) ([]models.RegistrationStats, error)
	Clear(ctx context.Context) error
}
