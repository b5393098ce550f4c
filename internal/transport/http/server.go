package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"parish_portal/internal/domain/models"
	"parish_portal/internal/lib/logger/sl"
	"parish_portal/internal/transport/http/dto"
	"parish_portal/internal/transport/http/dto/request"
	"parish_portal/internal/transport/http/dto/response"

	content "parish_portal/internal/services/content_service"

	"github.com/labstack/echo/v4"

	_ "parish_portal/docs"
)

type ContentService interface {
	Notices(ctx context.Context, page, pageSize int, search string) (dto.Page[dto.NoticeView], error)
	Notice(ctx context.Context, slug string) (*dto.NoticeView, error)
	BlogPosts(ctx context.Context, page, pageSize int, search string) (dto.Page[dto.BlogPostSummary], error)
	BlogPost(ctx context.Context, slug string) (*dto.BlogPostView, error)
	Events(ctx context.Context, filter content.EventFilter, search string) ([]dto.EventView, error)
	Event(ctx context.Context, slug string) (*dto.EventView, error)
	Ministries(ctx context.Context) ([]dto.MinistryView, error)
	Clergy(ctx context.Context) ([]dto.PriestView, error)
	MassSchedule(ctx context.Context) (dto.MassSchedule, error)
	ParishInfo(ctx context.Context) (*models.ParishInfo, error)
	SubmitContact(ctx context.Context, req request.ContactRequest) error
	SubmitFeedback(ctx context.Context, req request.FeedbackRequest) error
}

type RegistrationService interface {
	Register(ctx context.Context, eventID int64, form models.RegistrationForm) (models.EventRegistration, error)
	Cancel(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (*models.EventRegistration, error)
	ListByEvent(ctx context.Context, eventID int64) ([]models.EventRegistration, error)
	Stats(ctx context.Context) ([]models.RegistrationStats, error)
	ExportAll(ctx context.Context) (string, error)
	Import(ctx context.Context, data string) (int, error)
	Clear(ctx context.Context) error
}

type AuthService interface {
	Login(ctx context.Context, login, password string) (string, time.Time, error)
}

type SitemapService interface {
	Cached(ctx context.Context) ([]byte, error)
}

// HealthChecker зависимость, состояние которой видно в /health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Routers struct {
	log                 *slog.Logger
	ContentService      ContentService
	RegistrationService RegistrationService
	AuthService         AuthService
	SitemapService      SitemapService
	checks              map[string]HealthChecker
}

func NewRouter(
	log *slog.Logger,
	contentService ContentService,
	registrationService RegistrationService,
	authService AuthService,
	sitemap SitemapService,
	checks map[string]HealthChecker,
) *Routers {
	return &Routers{
		log:                 log,
		ContentService:      contentService,
		RegistrationService: registrationService,
		AuthService:         authService,
		SitemapService:      sitemap,
		checks:              checks,
	}
}

// Health godoc
// @Summary Проверка состояния
// @Description Состояние сервиса и внешних зависимостей (CMS, хранилища). Всегда 200, деградация видна в data.
// @Tags Служебное
// @Produce json
// @Success 200 {object} response.Response{data=map[string]string}
// @Router /health [get]
func (r *Routers) Health(c echo.Context) error {
	const op = "http.routers.Health"

	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{"app": "up"}
	for name, check := range r.checks {
		if err := check.Ping(ctx); err != nil {
			r.log.Warn("health check failed", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			status[name] = "down"
			continue
		}
		status[name] = "up"
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(status))
}

func queryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}

func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

const maxPageSize = 100

func queryPageSize(c echo.Context) int {
	v, err := strconv.Atoi(c.QueryParam("pageSize"))
	if err != nil || v < 1 {
		return 0
	}
	return min(v, maxPageSize)
}
