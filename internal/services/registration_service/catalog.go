package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"parish_portal/internal/cms"
	"parish_portal/internal/domain/models"
	"parish_portal/internal/lib/logger/sl"

	"github.com/patrickmn/go-cache"
)

const DefaultSnapshotTTL = 24 * time.Hour

type EventSource interface {
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
}

// EventCatalog помнит последние успешно полученные события, чтобы локальный
// режим мог проверять вместимость, пока CMS не отвечает.
type EventCatalog struct {
	log   *slog.Logger
	src   EventSource
	cache *cache.Cache
}

func NewEventCatalog(log *slog.Logger, src EventSource, ttl time.Duration) *EventCatalog {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}

	return &EventCatalog{
		log:   log,
		src:   src,
		cache: cache.New(ttl, ttl/2),
	}
}

// Event nil без ошибки, если CMS ответила, что события нет.
// При временном сбое CMS отдаёт снимок из кэша, если он есть.
func (c *EventCatalog) Event(ctx context.Context, id int64) (*models.Event, error) {
	const op = "registration_service.EventCatalog.Event"

	ev, err := c.src.GetEvent(ctx, id)
	if err == nil {
		if ev == nil {
			c.cache.Delete(key(id))
			return nil, nil
		}
		c.Remember(*ev)
		return ev, nil
	}

	if cms.IsTransient(err) {
		if cached, ok := c.cache.Get(key(id)); ok {
			snapshot := cached.(models.Event)
			c.log.Warn("cms unavailable, using event snapshot",
				slog.String("op", op),
				slog.Int64("event_id", id),
				sl.Err(err),
			)
			return &snapshot, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

func (c *EventCatalog) Remember(ev models.Event) {
	c.cache.SetDefault(key(ev.ID), ev)
}

// Refresh перечитывает все события; вызывается по расписанию.
func (c *EventCatalog) Refresh(ctx context.Context) (int, error) {
	const op = "registration_service.EventCatalog.Refresh"

	events, err := c.src.ListEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, ev := range events {
		c.Remember(ev)
	}

	return len(events), nil
}

// Events снимок всех известных событий.
func (c *EventCatalog) Events() []models.Event {
	items := c.cache.Items()

	out := make([]models.Event, 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(models.Event))
	}

	return out
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}
