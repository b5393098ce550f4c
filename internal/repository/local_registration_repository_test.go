package repository

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"parish_portal/internal/domain/models"
	"parish_portal/internal/storage"
	"parish_portal/internal/storage/memory"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeForm(attendees int) models.RegistrationForm {
	return models.RegistrationForm{
		Name:          gofakeit.Name(),
		Email:         gofakeit.Email(),
		Phone:         gofakeit.Phone(),
		AttendeeCount: attendees,
	}
}

func newTestLocalRepo(t *testing.T) (*LocalRegistrationRepo, *memory.Storage) {
	t.Helper()
	kv := memory.New()
	return NewLocalRegistrationRepository(kv, ""), kv
}

func TestLocalRegistrationRepo_Register(t *testing.T) {
	ctx := context.Background()
	repo, kv := newTestLocalRepo(t)

	form := fakeForm(3)
	form.AdditionalInfo = "wheelchair access"

	before := time.Now().UTC().Add(-time.Second)
	reg, err := repo.Register(ctx, 7, form)
	require.NoError(t, err)

	assert.NotZero(t, reg.ID)
	assert.Equal(t, int64(7), reg.EventID)
	assert.Equal(t, form.Name, reg.Name)
	assert.Equal(t, 3, reg.AttendeeCount)
	assert.Equal(t, "wheelchair access", reg.AdditionalInfo)
	assert.Equal(t, models.StatusConfirmed, reg.Status)
	assert.True(t, reg.CreatedAt.After(before))
	assert.Equal(t, reg.CreatedAt, reg.UpdatedAt)
	assert.Equal(t, reg.CreatedAt, reg.RegistrationDate)

	// вся коллекция лежит под одним ключом JSON-массивом
	raw, err := kv.Get(ctx, DefaultRegistrationsKey)
	require.NoError(t, err)

	var stored []map[string]any
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, float64(7), stored[0]["eventId"])

	got, err := repo.Get(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, got.ID)
	assert.Equal(t, reg.Email, got.Email)
}

func TestLocalRegistrationRepo_IDsStrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestLocalRepo(t)

	frozen := time.Date(2024, 12, 24, 23, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return frozen }

	var prev int64
	for i := 0; i < 5; i++ {
		reg, err := repo.Register(ctx, 1, fakeForm(1))
		require.NoError(t, err)
		assert.Greater(t, reg.ID, prev)
		prev = reg.ID
	}

	assert.Equal(t, frozen.UnixMilli()+4, prev)
}

func TestLocalRegistrationRepo_GetMissing(t *testing.T) {
	repo, _ := newTestLocalRepo(t)

	_, err := repo.Get(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrRegistrationNotFound)
}

func TestLocalRegistrationRepo_ListByEventAndCount(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestLocalRepo(t)

	a, err := repo.Register(ctx, 1, fakeForm(2))
	require.NoError(t, err)
	_, err = repo.Register(ctx, 1, fakeForm(3))
	require.NoError(t, err)
	_, err = repo.Register(ctx, 2, fakeForm(10))
	require.NoError(t, err)

	ok, err := repo.Cancel(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, ok)

	byEvent, err := repo.ListByEvent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byEvent, 1)
	assert.Equal(t, 3, byEvent[0].AttendeeCount)

	count, err := repo.AttendeeCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = repo.AttendeeCount(ctx, 99)
	require.NoError(t, err)
	assert.Zero(t, count)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty, err := repo.ListByEvent(ctx, 99)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestLocalRegistrationRepo_Cancel(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestLocalRepo(t)

	ok, err := repo.Cancel(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, ok)

	reg, err := repo.Register(ctx, 5, fakeForm(4))
	require.NoError(t, err)

	later := reg.UpdatedAt.Add(time.Minute)
	repo.now = func() time.Time { return later }

	ok, err = repo.Cancel(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.Get(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.True(t, got.UpdatedAt.Equal(later))

	// повторная отмена ничего не меняет
	repo.now = func() time.Time { return later.Add(time.Hour) }
	ok, err = repo.Cancel(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = repo.Get(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(later))
}

func TestLocalRegistrationRepo_ExportImportClear(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestLocalRepo(t)

	out, err := repo.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	first, err := repo.Register(ctx, 1, fakeForm(1))
	require.NoError(t, err)
	_, err = repo.Register(ctx, 2, fakeForm(2))
	require.NoError(t, err)

	out, err = repo.ExportAll(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[\n  {"), "export is indented")

	require.NoError(t, repo.Clear(ctx))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	n, err := repo.Import(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Name, got.Name)

	// после импорта новые id не пересекаются с загруженными
	next, err := repo.Register(ctx, 1, fakeForm(1))
	require.NoError(t, err)
	assert.Greater(t, next.ID, first.ID)

	_, err = repo.Import(ctx, "{not json")
	assert.ErrorIs(t, err, storage.ErrInvalidData)

	all, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3, "failed import keeps existing data")
}

func TestLocalRegistrationRepo_ImportRejectsInvalidEntries(t *testing.T) {
	valid := `{"id":1,"eventId":4,"attendeeCount":2,"status":"confirmed"}`

	tests := []struct {
		name string
		data string
	}{
		{name: "zero attendees", data: `[{"id":2,"eventId":4,"attendeeCount":0,"status":"confirmed"}]`},
		{name: "negative attendees", data: `[{"id":2,"eventId":4,"attendeeCount":-5,"status":"confirmed"}]`},
		{name: "unknown status", data: `[{"id":2,"eventId":4,"attendeeCount":1,"status":"bogus"}]`},
		{name: "missing status", data: `[{"id":2,"eventId":4,"attendeeCount":1}]`},
		{name: "zero id", data: `[{"id":0,"eventId":4,"attendeeCount":1,"status":"confirmed"}]`},
		{name: "zero event", data: `[{"id":2,"eventId":0,"attendeeCount":1,"status":"confirmed"}]`},
		{name: "duplicate ids", data: `[` + valid + `,{"id":1,"eventId":4,"attendeeCount":3,"status":"confirmed"}]`},
		{name: "one bad entry among good", data: `[` + valid + `,{"id":1,"eventId":4,"attendeeCount":0,"status":"bogus"},{"id":1,"eventId":4,"attendeeCount":-5,"status":"confirmed"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo, _ := newTestLocalRepo(t)

			existing, err := repo.Register(ctx, 4, fakeForm(3))
			require.NoError(t, err)

			n, err := repo.Import(ctx, tt.data)
			assert.ErrorIs(t, err, storage.ErrInvalidData)
			assert.Zero(t, n)

			count, err := repo.AttendeeCount(ctx, 4)
			require.NoError(t, err)
			assert.Equal(t, 3, count, "rejected import keeps existing data")

			got, err := repo.Get(ctx, existing.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
		})
	}
}

func TestLocalRegistrationRepo_ImportValidEntries(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestLocalRepo(t)

	n, err := repo.Import(ctx, `[
		{"id":1,"eventId":4,"attendeeCount":2,"status":"confirmed"},
		{"id":2,"eventId":4,"attendeeCount":5,"status":"cancelled"},
		{"id":3,"eventId":7,"attendeeCount":1,"status":"pending"}
	]`)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := repo.AttendeeCount(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLocalRegistrationRepo_CorruptData(t *testing.T) {
	ctx := context.Background()
	repo, kv := newTestLocalRepo(t)

	require.NoError(t, kv.Set(ctx, DefaultRegistrationsKey, []byte("garbage")))

	_, err := repo.Register(ctx, 1, fakeForm(1))
	require.Error(t, err)

	raw, err := kv.Get(ctx, DefaultRegistrationsKey)
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(raw))
}

func TestLocalRegistrationRepo_ConcurrentRegister(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestLocalRepo(t)

	const workers = 50

	var wg sync.WaitGroup
	ids := make(chan int64, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg, err := repo.Register(ctx, 3, fakeForm(1))
			if err == nil {
				ids <- reg.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)

	count, err := repo.AttendeeCount(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, workers, count, "no registration lost to read-modify-write races")
}
