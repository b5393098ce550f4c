package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"parish_portal/internal/config"
	"parish_portal/internal/lib/logger/sl"
	"parish_portal/internal/storage/filestorage"

	"github.com/robfig/cron/v3"
)

const (
	jobTimeout  = time.Minute
	sitemapFile = "sitemap.xml"
	jobOff      = "off"
)

type EventRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

type SitemapBuilder interface {
	Build(ctx context.Context) ([]byte, error)
}

type RegistrationExporter interface {
	ExportAll(ctx context.Context) (string, error)
}

// Tasks зависимости фоновых задач. Nil отключает соответствующую задачу.
type Tasks struct {
	Catalog  EventRefresher
	Sitemap  SitemapBuilder
	Exporter RegistrationExporter
	// Public каталог статики сайта, туда кладётся sitemap.xml
	Public filestorage.FileStorage
	// Backups каталог резервных выгрузок регистраций; не должен раздаваться наружу
	Backups filestorage.FileStorage
}

// Scheduler периодические задачи: снимок событий для работы без CMS,
// прогрев sitemap.xml и резервная выгрузка регистраций.
type Scheduler struct {
	log   *slog.Logger
	c     *cron.Cron
	tasks Tasks
	now   func() time.Time
}

func NewScheduler(log *slog.Logger, cfg config.JobsConfig, tasks Tasks) (*Scheduler, error) {
	const op = "app.NewScheduler"

	logger := cronLogger{log: log.With(slog.String("component", "cron"))}

	s := &Scheduler{
		log: log,
		c: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
		tasks: tasks,
		now:   time.Now,
	}

	jobs := []struct {
		name    string
		spec    string
		enabled bool
		run     func()
	}{
		{name: "event snapshot", spec: cfg.EventSnapshot, enabled: tasks.Catalog != nil, run: s.refreshEvents},
		{name: "sitemap warmup", spec: cfg.SitemapWarmup, enabled: tasks.Sitemap != nil, run: s.warmSitemap},
		{name: "registrations backup", spec: cfg.RegistrationsBackup, enabled: tasks.Exporter != nil && tasks.Backups != nil, run: s.backupRegistrations},
	}

	for _, job := range jobs {
		if job.spec == "" || job.spec == jobOff || !job.enabled {
			continue
		}
		if _, err := s.c.AddFunc(job.spec, job.run); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, job.name, err)
		}
	}

	return s, nil
}

// Start запускает расписание; снимок событий снимается сразу, не дожидаясь первого тика.
func (s *Scheduler) Start() {
	if s.tasks.Catalog != nil {
		go s.refreshEvents()
	}
	s.c.Start()
}

func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop()

	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("cron jobs did not finish in time")
	}
}

func (s *Scheduler) Jobs() int {
	return len(s.c.Entries())
}

func (s *Scheduler) refreshEvents() {
	const op = "app.jobs.refreshEvents"

	log := s.log.With(slog.String("op", op))

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.tasks.Catalog.Refresh(ctx)
	if err != nil {
		log.Warn("failed to refresh event snapshot", sl.Err(err))
		return
	}

	log.Debug("event snapshot refreshed", slog.Int("events", n))
}

func (s *Scheduler) warmSitemap() {
	const op = "app.jobs.warmSitemap"

	log := s.log.With(slog.String("op", op))

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	body, err := s.tasks.Sitemap.Build(ctx)
	if err != nil {
		log.Warn("failed to warm sitemap", sl.Err(err))
		return
	}

	if s.tasks.Public == nil {
		return
	}

	path, size, err := s.tasks.Public.Write(ctx, sitemapFile, bytes.NewReader(body))
	if err != nil {
		log.Error("failed to write sitemap", sl.Err(err))
		return
	}

	log.Info("sitemap written", slog.String("path", s.tasks.Public.GetFullPath(path)), slog.Int64("size", size))
}

func (s *Scheduler) backupRegistrations() {
	const op = "app.jobs.backupRegistrations"

	log := s.log.With(slog.String("op", op))

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	out, err := s.tasks.Exporter.ExportAll(ctx)
	if err != nil {
		log.Error("failed to export registrations", sl.Err(err))
		return
	}

	name := fmt.Sprintf("registrations-%s.json", s.now().Format(time.DateOnly))
	path, size, err := s.tasks.Backups.Write(ctx, name, strings.NewReader(out))
	if err != nil {
		log.Error("failed to write registrations backup", sl.Err(err))
		return
	}

	log.Info("registrations backup written", slog.String("path", s.tasks.Backups.GetFullPath(path)), slog.Int64("size", size))
}

// cronLogger направляет логи robfig/cron в slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append([]interface{}{sl.Err(err)}, keysAndValues...)...)
}
