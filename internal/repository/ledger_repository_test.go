package repository_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"parish_portal/internal/domain/models"
	"parish_portal/internal/repository"
	"parish_portal/internal/storage"
	"parish_portal/internal/storage/postgresql"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testCtx = context.Background()

func setupLedger(t *testing.T) *repository.LedgerRepo {
	t.Helper()

	if testing.Short() {
		t.Skip("postgres container is not started in short mode")
	}

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	pgContainer, err := testcontainers.GenericContainer(testCtx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := pgContainer.Host(testCtx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(testCtx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	pg, err := postgresql.New(testCtx, dsn)
	require.NoError(t, err)
	require.NoError(t, pg.Migrate(testCtx))

	t.Cleanup(func() {
		pg.Stop()
		_ = pgContainer.Terminate(testCtx)
	})

	return repository.NewLedgerRepository(pg.Pool())
}

func form(n int) models.RegistrationForm {
	return models.RegistrationForm{
		Name:          gofakeit.Name(),
		Email:         gofakeit.Email(),
		Phone:         gofakeit.Phone(),
		AttendeeCount: n,
	}
}

func intPtr(v int) *int { return &v }

func TestLedgerRepo(t *testing.T) {
	repo := setupLedger(t)

	t.Run("capacity is enforced", func(t *testing.T) {
		event := models.Event{ID: 1, MaxAttendees: intPtr(200), CurrentAttendees: 45}

		reg, err := repo.Register(testCtx, event, form(10))
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, reg.Status)
		assert.Equal(t, int64(1), reg.EventID)
		assert.NotZero(t, reg.ID)

		current, known, err := repo.CurrentAttendees(testCtx, 1)
		require.NoError(t, err)
		assert.True(t, known)
		assert.Equal(t, 55, current)

		_, err = repo.Register(testCtx, event, form(150))
		assert.ErrorIs(t, err, storage.ErrCapacityExceeded)

		current, _, err = repo.CurrentAttendees(testCtx, 1)
		require.NoError(t, err)
		assert.Equal(t, 55, current, "failed registration leaves the counter untouched")

		regs, err := repo.ListByEvent(testCtx, 1)
		require.NoError(t, err)
		assert.Len(t, regs, 1)
	})

	t.Run("unlimited event", func(t *testing.T) {
		event := models.Event{ID: 2}

		_, err := repo.Register(testCtx, event, form(500))
		require.NoError(t, err)

		current, _, err := repo.CurrentAttendees(testCtx, 2)
		require.NoError(t, err)
		assert.Equal(t, 500, current)
	})

	t.Run("unknown event", func(t *testing.T) {
		current, known, err := repo.CurrentAttendees(testCtx, 404)
		require.NoError(t, err)
		assert.False(t, known)
		assert.Zero(t, current)
	})

	t.Run("double cancel subtracts once", func(t *testing.T) {
		event := models.Event{ID: 3, MaxAttendees: intPtr(10)}

		reg, err := repo.Register(testCtx, event, form(4))
		require.NoError(t, err)
		_, err = repo.Register(testCtx, event, form(2))
		require.NoError(t, err)

		cancelled, changed, err := repo.Cancel(testCtx, reg.ID)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)

		current, _, err := repo.CurrentAttendees(testCtx, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, current)

		again, changed, err := repo.Cancel(testCtx, reg.ID)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, models.StatusCancelled, again.Status)

		current, _, err = repo.CurrentAttendees(testCtx, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, current)

		_, _, err = repo.Cancel(testCtx, 999999)
		assert.ErrorIs(t, err, storage.ErrRegistrationNotFound)
	})

	t.Run("concurrent registrations never overbook", func(t *testing.T) {
		event := models.Event{ID: 4, MaxAttendees: intPtr(20)}

		var (
			wg       sync.WaitGroup
			ok, full atomic.Int32
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Register(testCtx, event, form(1))
				switch {
				case err == nil:
					ok.Add(1)
				case assert.ErrorIs(t, err, storage.ErrCapacityExceeded):
					full.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(20), ok.Load())
		assert.Equal(t, int32(30), full.Load())

		current, _, err := repo.CurrentAttendees(testCtx, 4)
		require.NoError(t, err)
		assert.Equal(t, 20, current)
	})

	t.Run("get and stats", func(t *testing.T) {
		_, err := repo.Get(testCtx, 123456)
		assert.ErrorIs(t, err, storage.ErrRegistrationNotFound)

		stats, err := repo.Stats(testCtx)
		require.NoError(t, err)

		byEvent := make(map[int64]models.RegistrationStats)
		for _, s := range stats {
			byEvent[s.EventID] = s
		}
		assert.Equal(t, 10, byEvent[1].AttendeeCount)
		assert.Equal(t, 1, byEvent[3].RegistrationCount)
		assert.Equal(t, 20, byEvent[4].RegistrationCount)

		all, err := repo.List(testCtx)
		require.NoError(t, err)
		assert.NotEmpty(t, all)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, repo.Clear(testCtx))

		all, err := repo.List(testCtx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}
