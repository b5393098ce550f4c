package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"parish_portal/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_KV(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registrations.db")

	s, err := New(ctx, path)
	require.NoError(t, err)

	_, err = s.Get(ctx, "st-rita-registrations")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "st-rita-registrations", []byte(`[{"id":1}]`)))
	require.NoError(t, s.Set(ctx, "st-rita-registrations", []byte(`[{"id":1},{"id":2}]`)))

	val, err := s.Get(ctx, "st-rita-registrations")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1},{"id":2}]`, string(val))

	require.NoError(t, s.Close())

	// данные переживают переоткрытие файла
	s, err = New(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	val, err = s.Get(ctx, "st-rita-registrations")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1},{"id":2}]`, string(val))

	require.NoError(t, s.Delete(ctx, "st-rita-registrations"))
	_, err = s.Get(ctx, "st-rita-registrations")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	assert.NoError(t, s.Delete(ctx, "never-set"))
}
