package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"parish_portal/internal/domain/models"
	"parish_portal/internal/lib/logger/sl"
	"parish_portal/internal/metrics"
	"parish_portal/internal/repository"
	"parish_portal/internal/storage"
)

type Backend string

const (
	BackendCMS    Backend = "cms"
	BackendLocal  Backend = "local"
	BackendLedger Backend = "ledger"
)

func (b Backend) Valid() bool {
	switch b {
	case BackendCMS, BackendLocal, BackendLedger:
		return true
	}
	return false
}

// ContentClient часть клиента CMS, которая нужна регистрациям.
type ContentClient interface {
	EventSource
	CreateRegistration(ctx context.Context, eventID int64, form models.RegistrationForm) (*models.EventRegistration, error)
	GetRegistration(ctx context.Context, id int64) (*models.EventRegistration, error)
	ListRegistrations(ctx context.Context) ([]models.EventRegistration, error)
	ListEventRegistrations(ctx context.Context, eventID int64) ([]models.EventRegistration, error)
	UpdateEventAttendees(ctx context.Context, event models.Event, current int) (*models.Event, error)
	UpdateRegistrationStatus(ctx context.Context, reg models.EventRegistration, status models.RegistrationStatus) (*models.EventRegistration, error)
}

type Deps struct {
	CMS      ContentClient
	Catalog  *EventCatalog
	Local    repository.LocalRegistrationRepository
	Ledger   repository.LedgerRepository
	Notifier Notifier
}

// RegistrationService один контракт регистрации поверх трёх бэкендов.
// Все бэкенды проверяют вместимость одинаково (checkCapacity) и
// сериализуют операции над одним событием внутри процесса.
type RegistrationService struct {
	log      *slog.Logger
	backend  Backend
	cms      ContentClient
	catalog  *EventCatalog
	local    repository.LocalRegistrationRepository
	ledger   repository.LedgerRepository
	notifier Notifier
	locks    *eventLocks
}

func NewRegistrationService(log *slog.Logger, backend Backend, deps Deps) (*RegistrationService, error) {
	const op = "registration_service.New"

	if !backend.Valid() {
		return nil, fmt.Errorf("%s: unknown backend %q", op, backend)
	}
	if deps.CMS == nil {
		return nil, fmt.Errorf("%s: cms client is required", op)
	}
	if backend == BackendLocal && deps.Local == nil {
		return nil, fmt.Errorf("%s: local repository is required", op)
	}
	if backend == BackendLedger && deps.Ledger == nil {
		return nil, fmt.Errorf("%s: ledger repository is required", op)
	}

	if deps.Catalog == nil {
		deps.Catalog = NewEventCatalog(log, deps.CMS, DefaultSnapshotTTL)
	}
	if deps.Notifier == nil {
		deps.Notifier = NewLogNotifier(log)
	}

	return &RegistrationService{
		log:      log,
		backend:  backend,
		cms:      deps.CMS,
		catalog:  deps.Catalog,
		local:    deps.Local,
		ledger:   deps.Ledger,
		notifier: deps.Notifier,
		locks:    newEventLocks(),
	}, nil
}

func (s *RegistrationService) Backend() Backend {
	return s.backend
}

func (s *RegistrationService) Register(ctx context.Context, eventID int64, form models.RegistrationForm) (models.EventRegistration, error) {
	const op = "registration_service.Register"
	log := s.log.With(
		slog.String("op", op),
		slog.String("backend", string(s.backend)),
		slog.Int64("event_id", eventID),
		slog.Int("attendees", form.AttendeeCount),
	)

	if err := validateForm(form); err != nil {
		s.observe("invalid")
		return models.EventRegistration{}, err
	}

	unlock := s.locks.lock(eventID)
	defer unlock()

	event, err := s.catalog.Event(ctx, eventID)
	if err != nil {
		log.Error("failed to load event", sl.Err(err))
		s.observe("failed")
		return models.EventRegistration{}, fmt.Errorf("%s: %w", op, err)
	}
	if event == nil {
		log.Warn("event not found")
		s.observe("event_not_found")
		return models.EventRegistration{}, ErrEventNotFound
	}

	var reg models.EventRegistration
	switch s.backend {
	case BackendCMS:
		reg, err = s.registerCMS(ctx, log, *event, form)
	case BackendLocal:
		reg, err = s.registerLocal(ctx, *event, form)
	case BackendLedger:
		reg, err = s.registerLedger(ctx, *event, form)
	}

	if err != nil {
		if errors.Is(err, ErrFullyBooked) {
			log.Info("event is fully booked", sl.Err(err))
			s.observe("fully_booked")
			return models.EventRegistration{}, err
		}
		log.Error("registration failed", sl.Err(err))
		s.observe("failed")
		return models.EventRegistration{}, fmt.Errorf("%s: %w", op, err)
	}

	s.observe("confirmed")
	log.Info("registration confirmed", slog.Int64("registration_id", reg.ID))

	if err := s.notifier.RegistrationConfirmed(ctx, reg, *event); err != nil {
		log.Warn("confirmation notification failed", sl.Err(err))
	}

	return reg, nil
}

// registerCMS создаёт регистрацию, перечитывает событие и записывает новый
// currentAttendees. Шаги не атомарны на стороне CMS.
func (s *RegistrationService) registerCMS(ctx context.Context, log *slog.Logger, event models.Event, form models.RegistrationForm) (models.EventRegistration, error) {
	if err := checkCapacity(event, event.CurrentAttendees, form.AttendeeCount); err != nil {
		return models.EventRegistration{}, err
	}

	reg, err := s.cms.CreateRegistration(ctx, event.ID, form)
	if err != nil {
		return models.EventRegistration{}, err
	}

	fresh, err := s.cms.GetEvent(ctx, event.ID)
	if err != nil || fresh == nil {
		log.Warn("failed to re-fetch event, using loaded copy", sl.Err(err))
		fresh = &event
	}

	updated, err := s.cms.UpdateEventAttendees(ctx, *fresh, fresh.CurrentAttendees+form.AttendeeCount)
	if err != nil {
		// регистрация уже создана; повторная отправка формы дала бы дубль
		log.Error("registration saved but attendee counter was not updated",
			slog.Int64("registration_id", reg.ID),
			sl.Err(err),
		)
		return *reg, nil
	}
	s.catalog.Remember(*updated)

	return *reg, nil
}

func (s *RegistrationService) registerLocal(ctx context.Context, event models.Event, form models.RegistrationForm) (models.EventRegistration, error) {
	local, err := s.local.AttendeeCount(ctx, event.ID)
	if err != nil {
		return models.EventRegistration{}, err
	}

	if err := checkCapacity(event, event.CurrentAttendees+local, form.AttendeeCount); err != nil {
		return models.EventRegistration{}, err
	}

	return s.local.Register(ctx, event.ID, form)
}

func (s *RegistrationService) registerLedger(ctx context.Context, event models.Event, form models.RegistrationForm) (models.EventRegistration, error) {
	current, known, err := s.ledger.CurrentAttendees(ctx, event.ID)
	if err != nil {
		return models.EventRegistration{}, err
	}
	if !known {
		current = event.CurrentAttendees
	}

	if err := checkCapacity(event, current, form.AttendeeCount); err != nil {
		return models.EventRegistration{}, err
	}

	reg, err := s.ledger.Register(ctx, event, form)
	if errors.Is(err, storage.ErrCapacityExceeded) {
		// другой процесс успел занять места между проверкой и транзакцией
		now, _, cerr := s.ledger.CurrentAttendees(ctx, event.ID)
		if cerr != nil {
			now = current
		}
		if capErr := checkCapacity(event, now, form.AttendeeCount); capErr != nil {
			return models.EventRegistration{}, capErr
		}
		return models.EventRegistration{}, &CapacityError{EventID: event.ID, Requested: form.AttendeeCount}
	}

	return reg, err
}

// Cancel false, если регистрации нет. Повторная отмена ничего не вычитает.
func (s *RegistrationService) Cancel(ctx context.Context, id int64) (bool, error) {
	const op = "registration_service.Cancel"
	log := s.log.With(
		slog.String("op", op),
		slog.String("backend", string(s.backend)),
		slog.Int64("registration_id", id),
	)

	reg, err := s.Get(ctx, id)
	if err != nil {
		log.Error("failed to load registration", sl.Err(err))
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if reg == nil {
		log.Info("registration not found")
		return false, nil
	}

	unlock := s.locks.lock(reg.EventID)
	defer unlock()

	var changed bool
	switch s.backend {
	case BackendCMS:
		changed, err = s.cancelCMS(ctx, log, *reg)
	case BackendLocal:
		changed = reg.Status != models.StatusCancelled
		_, err = s.local.Cancel(ctx, id)
	case BackendLedger:
		_, changed, err = s.ledger.Cancel(ctx, id)
	}
	if err != nil {
		log.Error("cancellation failed", sl.Err(err))
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if !changed {
		log.Info("registration already cancelled")
		return true, nil
	}

	s.observe("cancelled")
	log.Info("registration cancelled", slog.Int64("event_id", reg.EventID))

	if err := s.notifier.RegistrationCancelled(ctx, *reg); err != nil {
		log.Warn("cancellation notification failed", sl.Err(err))
	}

	return true, nil
}

func (s *RegistrationService) cancelCMS(ctx context.Context, log *slog.Logger, reg models.EventRegistration) (bool, error) {
	if reg.Status == models.StatusCancelled {
		return false, nil
	}

	if _, err := s.cms.UpdateRegistrationStatus(ctx, reg, models.StatusCancelled); err != nil {
		return false, err
	}

	event, err := s.cms.GetEvent(ctx, reg.EventID)
	if err != nil || event == nil {
		log.Error("registration cancelled but event could not be loaded to release seats", sl.Err(err))
		return true, nil
	}

	updated, err := s.cms.UpdateEventAttendees(ctx, *event, event.CurrentAttendees-reg.AttendeeCount)
	if err != nil {
		log.Error("registration cancelled but attendee counter was not updated", sl.Err(err))
		return true, nil
	}
	s.catalog.Remember(*updated)

	return true, nil
}

// Get nil без ошибки, если регистрации нет.
func (s *RegistrationService) Get(ctx context.Context, id int64) (*models.EventRegistration, error) {
	const op = "registration_service.Get"

	var (
		reg *models.EventRegistration
		err error
	)
	switch s.backend {
	case BackendCMS:
		reg, err = s.cms.GetRegistration(ctx, id)
	case BackendLocal:
		reg, err = s.local.Get(ctx, id)
	case BackendLedger:
		reg, err = s.ledger.Get(ctx, id)
	}

	if errors.Is(err, storage.ErrRegistrationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reg, nil
}

// ListByEvent подтверждённые регистрации события.
func (s *RegistrationService) ListByEvent(ctx context.Context, eventID int64) ([]models.EventRegistration, error) {
	const op = "registration_service.ListByEvent"

	var (
		regs []models.EventRegistration
		err  error
	)
	switch s.backend {
	case BackendCMS:
		regs, err = s.cms.ListEventRegistrations(ctx, eventID)
		regs = confirmed(regs)
	case BackendLocal:
		regs, err = s.local.ListByEvent(ctx, eventID)
	case BackendLedger:
		regs, err = s.ledger.ListByEvent(ctx, eventID)
	}
	if err != nil {
		return []models.EventRegistration{}, fmt.Errorf("%s: %w", op, err)
	}

	return regs, nil
}

// Stats число подтверждённых регистраций и участников по событиям.
func (s *RegistrationService) Stats(ctx context.Context) ([]models.RegistrationStats, error) {
	const op = "registration_service.Stats"

	var (
		regs []models.EventRegistration
		err  error
	)
	switch s.backend {
	case BackendLedger:
		stats, err := s.ledger.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return stats, nil
	case BackendCMS:
		regs, err = s.cms.ListRegistrations(ctx)
	case BackendLocal:
		regs, err = s.local.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return summarize(regs), nil
}

// ExportAll выгрузка всех регистраций JSON с отступами.
func (s *RegistrationService) ExportAll(ctx context.Context) (string, error) {
	const op = "registration_service.ExportAll"

	if s.backend == BackendLocal {
		out, err := s.local.ExportAll(ctx)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		return out, nil
	}

	var (
		regs []models.EventRegistration
		err  error
	)
	if s.backend == BackendLedger {
		regs, err = s.ledger.List(ctx)
	} else {
		regs, err = s.cms.ListRegistrations(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	out, err := json.MarshalIndent(regs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(out), nil
}

// Import заменяет локальную коллекцию выгрузкой. Только для local.
func (s *RegistrationService) Import(ctx context.Context, data string) (int, error) {
	const op = "registration_service.Import"

	if s.backend != BackendLocal {
		return 0, fmt.Errorf("%s: %w", op, ErrUnsupported)
	}

	n, err := s.local.Import(ctx, data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("registrations imported", slog.String("op", op), slog.Int("count", n))

	return n, nil
}

func (s *RegistrationService) Clear(ctx context.Context) error {
	const op = "registration_service.Clear"

	var err error
	switch s.backend {
	case BackendLocal:
		err = s.local.Clear(ctx)
	case BackendLedger:
		err = s.ledger.Clear(ctx)
	default:
		err = ErrUnsupported
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Warn("all registrations cleared", slog.String("op", op), slog.String("backend", string(s.backend)))

	return nil
}

func (s *RegistrationService) observe(outcome string) {
	metrics.RegistrationsTotal.WithLabelValues(string(s.backend), outcome).Inc()
}

func confirmed(regs []models.EventRegistration) []models.EventRegistration {
	out := make([]models.EventRegistration, 0, len(regs))
	for _, r := range regs {
		if r.Status == models.StatusConfirmed {
			out = append(out, r)
		}
	}
	return out
}

func summarize(regs []models.EventRegistration) []models.RegistrationStats {
	byEvent := make(map[int64]*models.RegistrationStats)
	for _, r := range confirmed(regs) {
		st, ok := byEvent[r.EventID]
		if !ok {
			st = &models.RegistrationStats{EventID: r.EventID}
			byEvent[r.EventID] = st
		}
		st.RegistrationCount++
		st.AttendeeCount += r.AttendeeCount
	}

	out := make([]models.RegistrationStats, 0, len(byEvent))
	for _, st := range byEvent {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })

	return out
}

// eventLocks мьютекс на каждое событие.
type eventLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newEventLocks() *eventLocks {
	return &eventLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *eventLocks) lock(eventID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[eventID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[eventID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
