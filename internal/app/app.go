package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	httpapp "parish_portal/internal/app/http"
	"parish_portal/internal/cms"
	"parish_portal/internal/config"
	"parish_portal/internal/repository"
	"parish_portal/internal/seo"
	"parish_portal/internal/storage"
	"parish_portal/internal/storage/filestorage"
	"parish_portal/internal/storage/memory"
	"parish_portal/internal/storage/postgresql"
	"parish_portal/internal/storage/redis"
	"parish_portal/internal/storage/sqlite"
	httprouters "parish_portal/internal/transport/http"

	auth "parish_portal/internal/services/auth"
	content "parish_portal/internal/services/content_service"
	registration "parish_portal/internal/services/registration_service"
)

const envProd = "prod"

type App struct {
	log        *slog.Logger
	HTTPServer *httpapp.Server
	Scheduler  *Scheduler
	closers    []func() error
}

// pingFunc приводит HealthCheck хранилищ к интерфейсу HealthChecker.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	a := &App{log: log}

	client, err := cms.New(log, cms.Config{
		BaseURL:     cfg.CMS.BaseURL,
		MediaURL:    cfg.CMS.MediaURL,
		APIToken:    cfg.CMS.APIToken,
		Timeout:     cfg.CMS.Timeout,
		MaxListSize: cfg.CMS.MaxListSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	checks := map[string]httprouters.HealthChecker{"cms": client}

	catalog := registration.NewEventCatalog(log, client, cfg.Registrations.SnapshotTTL)
	deps := registration.Deps{
		CMS:      client,
		Catalog:  catalog,
		Notifier: registration.NewLogNotifier(log),
	}

	switch registration.Backend(cfg.Registrations.Backend) {
	case registration.BackendLocal:
		kv, err := a.openKV(ctx, cfg, checks)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		deps.Local = repository.NewLocalRegistrationRepository(kv, cfg.Registrations.Key)
	case registration.BackendLedger:
		pg, err := postgresql.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, func() error { pg.Stop(); return nil })

		if err := pg.Migrate(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		checks["postgres"] = pingFunc(pg.HealthCheck)
		deps.Ledger = repository.NewLedgerRepository(pg.Pool())
	}

	regService, err := registration.NewRegistrationService(log, registration.Backend(cfg.Registrations.Backend), deps)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	authService, err := auth.New(log, auth.Config{
		Login:        cfg.Admin.Login,
		PasswordHash: cfg.Admin.PasswordHash,
		Secret:       cfg.Admin.JWTSecret,
		TokenTTL:     cfg.Admin.TokenTTL,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sitemap, err := seo.NewSitemap(log, client, cfg.Site.URL, cfg.Site.SitemapTTL)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	contentService := content.NewContentService(log, client, content.Config{
		MediaURL:       client.MediaURL(),
		BlogPageSize:   cfg.CMS.BlogPageSize,
		NoticePageSize: cfg.CMS.NoticePageSize,
	})

	routers := httprouters.NewRouter(log, contentService, regService, authService, sitemap, checks)

	a.HTTPServer = httpapp.New(log, httpapp.Config{
		Host:          cfg.HTTP.Host,
		Port:          cfg.HTTP.Port,
		ReadTimeout:   cfg.HTTP.ReadTimeout,
		WriteTimeout:  cfg.HTTP.WriteTimeout,
		IdleTimeout:   cfg.HTTP.IdleTimeout,
		JWTSecret:     authService.Secret(),
		SessionSecret: cfg.Admin.SessionSecret,
		SecureCookies: cfg.Env == envProd,
		AllowOrigins:  cfg.HTTP.AllowOrigins,
		RateLimit:     cfg.RateLimit.RPS,
		RateBurst:     cfg.RateLimit.Burst,
	}, routers)
	a.HTTPServer.BuildRouters()

	tasks := Tasks{Catalog: catalog, Sitemap: sitemap, Exporter: regService}
	if cfg.Files.PublicDir != "" {
		public, err := filestorage.NewLocalFileStorage(cfg.Files.PublicDir, cfg.Site.URL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: public dir: %w", op, err)
		}
		tasks.Public = public
	}
	if cfg.Files.BackupDir != "" {
		backups, err := filestorage.NewLocalFileStorage(cfg.Files.BackupDir, "")
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: backup dir: %w", op, err)
		}
		tasks.Backups = backups
	}

	a.Scheduler, err = NewScheduler(log, cfg.Jobs, tasks)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("application initialized",
		slog.String("registrations_backend", cfg.Registrations.Backend),
		slog.String("registrations_storage", cfg.Registrations.Storage),
		slog.Int("cron_jobs", a.Scheduler.Jobs()),
	)

	return a, nil
}

func (a *App) openKV(ctx context.Context, cfg *config.Config, checks map[string]httprouters.HealthChecker) (storage.KV, error) {
	switch cfg.Registrations.Storage {
	case "redis":
		client := redis.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
		a.closers = append(a.closers, client.Close)
		checks["redis"] = pingFunc(client.HealthCheck)
		return redis.NewKV(client, "parish:"), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Registrations.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		db, err := sqlite.New(ctx, cfg.Registrations.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		checks["sqlite"] = pingFunc(db.HealthCheck)
		return db, nil
	default:
		a.log.Warn("registrations are kept in memory and will be lost on restart")
		return memory.New(), nil
	}
}

// Run запускает фоновые задачи и HTTP сервер; блокируется до остановки сервера.
func (a *App) Run() error {
	a.Scheduler.Start()
	return a.HTTPServer.Start()
}

func (a *App) Stop(ctx context.Context) error {
	const op = "app.Stop"

	err := a.HTTPServer.Stop(ctx)
	a.Scheduler.Stop(ctx)

	if cerr := a.close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}
