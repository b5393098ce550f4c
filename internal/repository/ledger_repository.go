package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parish_portal/internal/domain/models"
	"parish_portal/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var registrationColumns = []string{
	"id",
	"event_id",
	"name",
	"email",
	"phone",
	"attendee_count",
	"additional_info",
	"status",
	"registration_date",
	"created_at",
	"updated_at",
}

// LedgerRepo ведёт регистрации и счётчик мест в одной транзакции.
// Проверка вместимости делается условным UPDATE, так что параллельные
// регистрации не могут превысить maxAttendees.
type LedgerRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *LedgerRepo) Register(ctx context.Context, event models.Event, form models.RegistrationForm) (models.EventRegistration, error) {
	const op = "repository.ledger_repository.Register"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.EventRegistration{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	// первая регистрация заводит строку счётчика со значением из CMS,
	// потолок всегда берём свежий
	query, args, err := r.sb.Insert("event_capacity").
		Columns("event_id", "max_attendees", "current_attendees").
		Values(event.ID, event.MaxAttendees, max(event.CurrentAttendees, 0)).
		Suffix("ON CONFLICT (event_id) DO UPDATE SET max_attendees = EXCLUDED.max_attendees, updated_at = now()").
		ToSql()
	if err != nil {
		return models.EventRegistration{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return models.EventRegistration{}, fmt.Errorf("%s: upsert capacity: %w", op, err)
	}

	query, args, err = r.sb.Update("event_capacity").
		Set("current_attendees", sq.Expr("current_attendees + ?", form.AttendeeCount)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"event_id": event.ID}).
		Where(sq.Or{
			sq.Eq{"max_attendees": nil},
			sq.Expr("current_attendees + ? <= max_attendees", form.AttendeeCount),
		}).
		ToSql()
	if err != nil {
		return models.EventRegistration{}, fmt.Errorf("%s: %w", op, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return models.EventRegistration{}, fmt.Errorf("%s: reserve seats: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return models.EventRegistration{}, fmt.Errorf("%s: %w", op, storage.ErrCapacityExceeded)
	}

	query, args, err = r.sb.Insert("event_registrations").
		Columns("event_id", "name", "email", "phone", "attendee_count", "additional_info", "status").
		Values(event.ID, form.Name, form.Email, form.Phone, form.AttendeeCount, form.AdditionalInfo, string(models.StatusConfirmed)).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return models.EventRegistration{}, fmt.Errorf("%s: %w", op, err)
	}

	reg, err := scanRegistration(tx.QueryRow(ctx, query, args...))
	if err != nil {
		return models.EventRegistration{}, fmt.Errorf("%s: insert registration: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.EventRegistration{}, fmt.Errorf("%s: %w", op, err)
	}

	return reg, nil
}

func (r *LedgerRepo) Get(ctx context.Context, id int64) (*models.EventRegistration, error) {
	const op = "repository.ledger_repository.Get"

	query, args, err := r.sb.Select(registrationColumns...).
		From("event_registrations").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reg, err := scanRegistration(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrRegistrationNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &reg, nil
}

func (r *LedgerRepo) List(ctx context.Context) ([]models.EventRegistration, error) {
	const op = "repository.ledger_repository.List"

	regs, err := r.list(ctx, r.sb.Select(registrationColumns...).
		From("event_registrations").
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return regs, nil
}

// ListByEvent только подтверждённые регистрации события.
func (r *LedgerRepo) ListByEvent(ctx context.Context, eventID int64) ([]models.EventRegistration, error) {
	const op = "repository.ledger_repository.ListByEvent"

	regs, err := r.list(ctx, r.sb.Select(registrationColumns...).
		From("event_registrations").
		Where(sq.Eq{"event_id": eventID, "status": string(models.StatusConfirmed)}).
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return regs, nil
}

// CurrentAttendees false вторым значением, если событие ещё не попадало в журнал.
func (r *LedgerRepo) CurrentAttendees(ctx context.Context, eventID int64) (int, bool, error) {
	const op = "repository.ledger_repository.CurrentAttendees"

	query, args, err := r.sb.Select("current_attendees").
		From("event_capacity").
		Where(sq.Eq{"event_id": eventID}).
		ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}

	var current int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}

	return current, true, nil
}

// Cancel переводит регистрацию в cancelled и возвращает места. Второе значение
// true только если статус действительно сменился; повторная отмена счётчик не трогает.
func (r *LedgerRepo) Cancel(ctx context.Context, id int64) (*models.EventRegistration, bool, error) {
	const op = "repository.ledger_repository.Cancel"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query, args, err := r.sb.Update("event_registrations").
		Set("status", string(models.StatusCancelled)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Where(sq.NotEq{"status": string(models.StatusCancelled)}).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	reg, err := scanRegistration(tx.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := r.Get(ctx, id)
		if getErr != nil {
			return nil, false, fmt.Errorf("%s: %w", op, getErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err = r.sb.Update("event_capacity").
		Set("current_attendees", sq.Expr("GREATEST(current_attendees - ?, 0)", reg.AttendeeCount)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"event_id": reg.EventID}).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return nil, false, fmt.Errorf("%s: release seats: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	return &reg, true, nil
}

func (r *LedgerRepo) Stats(ctx context.Context) ([]models.RegistrationStats, error) {
	const op = "repository.ledger_repository.Stats"

	query, args, err := r.sb.Select("event_id", "count(*)", "COALESCE(sum(attendee_count), 0)").
		From("event_registrations").
		Where(sq.Eq{"status": string(models.StatusConfirmed)}).
		GroupBy("event_id").
		OrderBy("event_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	stats := make([]models.RegistrationStats, 0)
	for rows.Next() {
		var s models.RegistrationStats
		if err := rows.Scan(&s.EventID, &s.RegistrationCount, &s.AttendeeCount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}

func (r *LedgerRepo) Clear(ctx context.Context) error {
	const op = "repository.ledger_repository.Clear"

	if _, err := r.db.Exec(ctx, "TRUNCATE event_registrations, event_capacity RESTART IDENTITY"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *LedgerRepo) list(ctx context.Context, b sq.SelectBuilder) ([]models.EventRegistration, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]models.EventRegistration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}

func scanRegistration(row pgx.Row) (models.EventRegistration, error) {
	var (
		reg    models.EventRegistration
		status string
	)

	err := row.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.Name,
		&reg.Email,
		&reg.Phone,
		&reg.AttendeeCount,
		&reg.AdditionalInfo,
		&status,
		&reg.RegistrationDate,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return models.EventRegistration{}, err
	}
	reg.Status = models.RegistrationStatus(status)

	return reg, nil
}

func joinColumns() string {
	return strings.Join(registrationColumns, ", ")
}
