package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"parish_portal/internal/config"
	"parish_portal/internal/storage/filestorage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Refresh(context.Context) (int, error) {
	r.calls.Add(1)
	return 3, r.err
}

type stubSitemap struct {
	calls atomic.Int32
	err   error
}

func (s *stubSitemap) Build(context.Context) ([]byte, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("<urlset/>"), nil
}

type stubExporter struct {
	out string
}

func (e stubExporter) ExportAll(context.Context) (string, error) {
	return e.out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFiles(t *testing.T) *filestorage.LocalFileStorage {
	t.Helper()

	fs, err := filestorage.NewLocalFileStorage(t.TempDir(), "https://parish.example.org")
	require.NoError(t, err)
	return fs
}

func TestNewScheduler(t *testing.T) {
	all := config.JobsConfig{EventSnapshot: "*/15 * * * *", SitemapWarmup: "0 * * * *", RegistrationsBackup: "0 3 * * *"}

	tests := []struct {
		name     string
		cfg      config.JobsConfig
		tasks    func(t *testing.T) Tasks
		wantJobs int
		wantErr  bool
	}{
		{
			name: "all jobs",
			cfg:  all,
			tasks: func(t *testing.T) Tasks {
				return Tasks{Catalog: &countingRefresher{}, Sitemap: &stubSitemap{}, Exporter: stubExporter{}, Backups: newFiles(t)}
			},
			wantJobs: 3,
		},
		{
			name: "backup without directory is skipped",
			cfg:  all,
			tasks: func(*testing.T) Tasks {
				return Tasks{Catalog: &countingRefresher{}, Sitemap: &stubSitemap{}, Exporter: stubExporter{}}
			},
			wantJobs: 2,
		},
		{
			name: "switched off",
			cfg:  config.JobsConfig{EventSnapshot: "off", SitemapWarmup: "0 * * * *"},
			tasks: func(*testing.T) Tasks {
				return Tasks{Catalog: &countingRefresher{}, Sitemap: &stubSitemap{}}
			},
			wantJobs: 1,
		},
		{
			name:     "nothing scheduled",
			tasks:    func(*testing.T) Tasks { return Tasks{Catalog: &countingRefresher{}} },
			wantJobs: 0,
		},
		{
			name:    "invalid spec",
			cfg:     config.JobsConfig{EventSnapshot: "every quarter hour"},
			tasks:   func(*testing.T) Tasks { return Tasks{Catalog: &countingRefresher{}} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScheduler(discardLogger(), tt.cfg, tt.tasks(t))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantJobs, s.Jobs())
		})
	}
}

func TestScheduler_StartRefreshesImmediately(t *testing.T) {
	refresher := &countingRefresher{err: errors.New("cms down")}

	s, err := NewScheduler(discardLogger(), config.JobsConfig{EventSnapshot: "@every 1h"}, Tasks{Catalog: refresher})
	require.NoError(t, err)

	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return refresher.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestScheduler_WarmSitemapWritesPublicFile(t *testing.T) {
	public := newFiles(t)
	sitemap := &stubSitemap{}

	s, err := NewScheduler(discardLogger(), config.JobsConfig{}, Tasks{Sitemap: sitemap, Public: public})
	require.NoError(t, err)

	s.warmSitemap()
	assert.Equal(t, int32(1), sitemap.calls.Load())

	data, err := os.ReadFile(filepath.Join(public.GetBaseDir(), "sitemap.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<urlset/>", string(data))

	sitemap.err = errors.New("marshal failed")
	s.warmSitemap()
	data, err = os.ReadFile(filepath.Join(public.GetBaseDir(), "sitemap.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<urlset/>", string(data), "failed build keeps the previous file")
}

func TestScheduler_BackupRegistrations(t *testing.T) {
	backups := newFiles(t)

	s, err := NewScheduler(discardLogger(), config.JobsConfig{}, Tasks{Exporter: stubExporter{out: "[]"}, Backups: backups})
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 4, 20, 3, 0, 0, 0, time.UTC) }

	s.backupRegistrations()

	data, err := os.ReadFile(filepath.Join(backups.GetBaseDir(), "registrations-2025-04-20.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
