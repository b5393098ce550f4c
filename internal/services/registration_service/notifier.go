package services

import (
	"context"
	"log/slog"

	"parish_portal/internal/domain/models"
)

// Notifier уведомления участникам. Ошибки только логируются и на результат
// операции не влияют.
type Notifier interface {
	RegistrationConfirmed(ctx context.Context, reg models.EventRegistration, event models.Event) error
	RegistrationCancelled(ctx context.Context, reg models.EventRegistration) error
}

// LogNotifier заглушка: пишет в лог вместо отправки письма.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) RegistrationConfirmed(_ context.Context, reg models.EventRegistration, event models.Event) error {
	n.log.Info("sending confirmation email",
		slog.Int64("registration_id", reg.ID),
		slog.Int64("event_id", event.ID),
		slog.String("event", event.Title),
		slog.Int("attendees", reg.AttendeeCount),
	)
	return nil
}

func (n *LogNotifier) RegistrationCancelled(_ context.Context, reg models.EventRegistration) error {
	n.log.Info("sending cancellation email", slog.Int64("registration_id", reg.ID))
	return nil
}
