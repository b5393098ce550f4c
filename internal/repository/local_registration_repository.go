package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"parish_portal/internal/domain/models"
	"parish_portal/internal/storage"
)

const DefaultRegistrationsKey = "st-rita-registrations"

// LocalRegistrationRepo держит все регистрации одним JSON-массивом под одним ключом.
// Каждая запись перечитывает и перезаписывает весь массив, поэтому операции
// внутри процесса идут под мьютексом. Между процессами согласования нет.
type LocalRegistrationRepo struct {
	kv  storage.KV
	key string

	mu     sync.Mutex
	lastID int64
	now    func() time.Time
}

func NewLocalRegistrationRepository(kv storage.KV, key string) *LocalRegistrationRepo {
	if key == "" {
		key = DefaultRegistrationsKey
	}

	return &LocalRegistrationRepo{
		kv:  kv,
		key: key,
		now: time.Now,
	}
}

func (r *LocalRegistrationRepo) Register(ctx context.Context, eventID int64, form models.RegistrationForm) (models.EventRegistration, error) {
	const op = "repository.local_registration_repository.Register"

	r.mu.Lock()
	defer r.mu.Unlock()

	regs, err := r.load(ctx)
	if err != nil {
		return models.EventRegistration{}, fmt.Errorf("%s: %w", op, err)
	}

	now := r.now().UTC()
	reg := models.EventRegistration{
		ID:               r.nextID(now, regs),
		EventID:          eventID,
		Name:             form.Name,
		Email:            form.Email,
		Phone:            form.Phone,
		AttendeeCount:    form.AttendeeCount,
		AdditionalInfo:   form.AdditionalInfo,
		Status:           models.StatusConfirmed,
		RegistrationDate: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	regs = append(regs, reg)
	if err := r.save(ctx, regs); err != nil {
		return models.EventRegistration{}, fmt.Errorf("%s: %w", op, err)
	}

	return reg, nil
}

func (r *LocalRegistrationRepo) Get(ctx context.Context, id int64) (*models.EventRegistration, error) {
	const op = "repository.local_registration_repository.Get"

	r.mu.Lock()
	defer r.mu.Unlock()

	regs, err := r.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range regs {
		if regs[i].ID == id {
			return &regs[i], nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, storage.ErrRegistrationNotFound)
}

func (r *LocalRegistrationRepo) List(ctx context.Context) ([]models.EventRegistration, error) {
	const op = "repository.local_registration_repository.List"

	r.mu.Lock()
	defer r.mu.Unlock()

	regs, err := r.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return regs, nil
}

// ListByEvent только подтверждённые регистрации события.
func (r *LocalRegistrationRepo) ListByEvent(ctx context.Context, eventID int64) ([]models.EventRegistration, error) {
	const op = "repository.local_registration_repository.ListByEvent"

	r.mu.Lock()
	defer r.mu.Unlock()

	regs, err := r.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return confirmedFor(regs, eventID), nil
}

func (r *LocalRegistrationRepo) AttendeeCount(ctx context.Context, eventID int64) (int, error) {
	const op = "repository.local_registration_repository.AttendeeCount"

	r.mu.Lock()
	defer r.mu.Unlock()

	regs, err := r.load(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	total := 0
	for _, reg := range confirmedFor(regs, eventID) {
		total += reg.AttendeeCount
	}

	return total, nil
}

// Cancel возвращает false, если регистрации нет. Повторная отмена ничего не меняет.
func (r *LocalRegistrationRepo) Cancel(ctx context.Context, id int64) (bool, error) {
	const op = "repository.local_registration_repository.Cancel"

	r.mu.Lock()
	defer r.mu.Unlock()

	regs, err := r.load(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	for i := range regs {
		if regs[i].ID != id {
			continue
		}
		if regs[i].Status == models.StatusCancelled {
			return true, nil
		}

		regs[i].Status = models.StatusCancelled
		regs[i].UpdatedAt = r.now().UTC()

		if err := r.save(ctx, regs); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return true, nil
	}

	return false, nil
}

func (r *LocalRegistrationRepo) ExportAll(ctx context.Context) (string, error) {
	const op = "repository.local_registration_repository.ExportAll"

	r.mu.Lock()
	defer r.mu.Unlock()

	regs, err := r.load(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	out, err := json.MarshalIndent(regs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(out), nil
}

// Import заменяет всю коллекцию содержимым выгрузки.
func (r *LocalRegistrationRepo) Import(ctx context.Context, data string) (int, error) {
	const op = "repository.local_registration_repository.Import"

	var regs []models.EventRegistration
	if err := json.Unmarshal([]byte(data), &regs); err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, storage.ErrInvalidData, err)
	}
	if regs == nil {
		regs = []models.EventRegistration{}
	}
	if err := validateImport(regs); err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, storage.ErrInvalidData, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.save(ctx, regs); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, reg := range regs {
		r.lastID = max(r.lastID, reg.ID)
	}

	return len(regs), nil
}

// validateImport отклоняет выгрузку целиком: одна битая запись
// испортила бы подсчёт участников для проверки вместимости.
func validateImport(regs []models.EventRegistration) error {
	seen := make(map[int64]struct{}, len(regs))

	for i, reg := range regs {
		switch {
		case reg.ID <= 0:
			return fmt.Errorf("entry %d: id must be positive", i)
		case reg.EventID <= 0:
			return fmt.Errorf("entry %d: eventId must be positive", i)
		case reg.AttendeeCount < 1:
			return fmt.Errorf("entry %d: attendeeCount must be at least 1", i)
		case !reg.Status.Valid():
			return fmt.Errorf("entry %d: unknown status %q", i, reg.Status)
		}

		if _, dup := seen[reg.ID]; dup {
			return fmt.Errorf("entry %d: duplicate id %d", i, reg.ID)
		}
		seen[reg.ID] = struct{}{}
	}

	return nil
}

func (r *LocalRegistrationRepo) Clear(ctx context.Context) error {
	const op = "repository.local_registration_repository.Clear"

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.kv.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *LocalRegistrationRepo) load(ctx context.Context) ([]models.EventRegistration, error) {
	raw, err := r.kv.Get(ctx, r.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return []models.EventRegistration{}, nil
	}
	if err != nil {
		return nil, err
	}

	var regs []models.EventRegistration
	// битые данные не затираем пустым массивом, отдаём ошибку
	if err := json.Unmarshal(raw, &regs); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", r.key, err)
	}
	if regs == nil {
		regs = []models.EventRegistration{}
	}

	return regs, nil
}

func (r *LocalRegistrationRepo) save(ctx context.Context, regs []models.EventRegistration) error {
	raw, err := json.Marshal(regs)
	if err != nil {
		return err
	}

	return r.kv.Set(ctx, r.key, raw)
}

// nextID миллисекунды Unix, но строго больше всех выданных ранее.
func (r *LocalRegistrationRepo) nextID(now time.Time, regs []models.EventRegistration) int64 {
	id := now.UnixMilli()
	for _, reg := range regs {
		r.lastID = max(r.lastID, reg.ID)
	}
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id

	return id
}

func confirmedFor(regs []models.EventRegistration, eventID int64) []models.EventRegistration {
	out := make([]models.EventRegistration, 0)
	for _, reg := range regs {
		if reg.EventID == eventID && reg.Status == models.StatusConfirmed {
			out = append(out, reg)
		}
	}
	return out
}
