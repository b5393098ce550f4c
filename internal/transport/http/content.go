package http

import (
	"log/slog"
	"net/http"

	"parish_portal/internal/transport/http/dto/request"
	"parish_portal/internal/transport/http/dto/response"

	content "parish_portal/internal/services/content_service"

	"github.com/labstack/echo/v4"
)

// ListNotices godoc
// @Summary Доска объявлений
// @Description Объявления прихода, новые первыми. По умолчанию 12 на странице. При недоступной CMS в data приходит пустая страница.
// @Tags Контент
// @Produce json
// @Param page query int false "Номер страницы" default(1)
// @Param pageSize query int false "Размер страницы (макс. 100)" default(12)
// @Param search query string false "Поиск по заголовку, тексту, описанию и категории"
// @Success 200 {object} response.Response{data=dto.Page[dto.NoticeView]}
// @Failure 502 {object} response.ErrorResponse "Ошибка CMS"
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Router /api/v1/notices [get]
func (r *Routers) ListNotices(c echo.Context) error {
	const op = "http.routers.ListNotices"

	log := r.log.With(slog.String("op", op))

	page, err := r.ContentService.Notices(c.Request().Context(), queryInt(c, "page", 1), queryPageSize(c), c.QueryParam("search"))
	if err != nil {
		return fail(c, log, err, page)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(page))
}

// GetNotice godoc
// @Summary Объявление по slug
// @Tags Контент
// @Produce json
// @Param slug path string true "Slug объявления"
// @Success 200 {object} response.Response{data=dto.NoticeView}
// @Failure 404 {object} response.ErrorResponse "Объявление не найдено"
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Router /api/v1/notices/{slug} [get]
func (r *Routers) GetNotice(c echo.Context) error {
	const op = "http.routers.GetNotice"

	log := r.log.With(slog.String("op", op), slog.String("slug", c.Param("slug")))

	notice, err := r.ContentService.Notice(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return fail(c, log, err, nil)
	}
	if notice == nil {
		return c.JSON(http.StatusNotFound, response.ErrNotFound)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(notice))
}

// ListBlogPosts godoc
// @Summary Записи блога
// @Description Записи блога, новые первыми. По умолчанию 3 на странице.
// @Tags Контент
// @Produce json
// @Param page query int false "Номер страницы" default(1)
// @Param pageSize query int false "Размер страницы (макс. 100)" default(3)
// @Param search query string false "Поиск по заголовку, анонсу и автору"
// @Success 200 {object} response.Response{data=dto.Page[dto.BlogPostSummary]}
// @Failure 502 {object} response.ErrorResponse "Ошибка CMS"
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Router /api/v1/blog [get]
func (r *Routers) ListBlogPosts(c echo.Context) error {
	const op = "http.routers.ListBlogPosts"

	log := r.log.With(slog.String("op", op))

	page, err := r.ContentService.BlogPosts(c.Request().Context(), queryInt(c, "page", 1), queryPageSize(c), c.QueryParam("search"))
	if err != nil {
		return fail(c, log, err, page)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(page))
}

// GetBlogPost godoc
// @Summary Запись блога по slug
// @Description Запись с отрендеренным и очищенным HTML содержимым.
// @Tags Контент
// @Produce json
// @Param slug path string true "Slug записи"
// @Success 200 {object} response.Response{data=dto.BlogPostView}
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Router /api/v1/blog/{slug} [get]
func (r *Routers) GetBlogPost(c echo.Context) error {
	const op = "http.routers.GetBlogPost"

	log := r.log.With(slog.String("op", op), slog.String("slug", c.Param("slug")))

	post, err := r.ContentService.BlogPost(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return fail(c, log, err, nil)
	}
	if post == nil {
		return c.JSON(http.StatusNotFound, response.ErrNotFound)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(post))
}

// ListEvents godoc
// @Summary События прихода
// @Tags События
// @Produce json
// @Param filter query string false "Фильтр" Enums(upcoming, past, registration, all) default(upcoming)
// @Param search query string false "Поиск по названию, описанию и месту"
// @Success 200 {object} response.Response{data=[]dto.EventView}
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Router /api/v1/events [get]
func (r *Routers) ListEvents(c echo.Context) error {
	const op = "http.routers.ListEvents"

	log := r.log.With(slog.String("op", op))

	events, err := r.ContentService.Events(c.Request().Context(), content.EventFilter(c.QueryParam("filter")), c.QueryParam("search"))
	if err != nil {
		return fail(c, log, err, events)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(events))
}

// GetEvent godoc
// @Summary Событие по slug
// @Tags События
// @Produce json
// @Param slug path string true "Slug события"
// @Success 200 {object} response.Response{data=dto.EventView}
// @Failure 404 {object} response.ErrorResponse "Событие не найдено"
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Router /api/v1/events/{slug} [get]
func (r *Routers) GetEvent(c echo.Context) error {
	const op = "http.routers.GetEvent"

	log := r.log.With(slog.String("op", op), slog.String("slug", c.Param("slug")))

	event, err := r.ContentService.Event(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return fail(c, log, err, nil)
	}
	if event == nil {
		return c.JSON(http.StatusNotFound, response.ErrEventNotFound)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(event))
}

// ListMinistries godoc
// @Summary Служения прихода
// @Tags Контент
// @Produce json
// @Success 200 {object} response.Response{data=[]dto.MinistryView}
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Router /api/v1/ministries [get]
func (r *Routers) ListMinistries(c echo.Context) error {
	const op = "http.routers.ListMinistries"

	log := r.log.With(slog.String("op", op))

	ministries, err := r.ContentService.Ministries(c.Request().Context())
	if err != nil {
		return fail(c, log, err, ministries)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(ministries))
}

// ListClergy godoc
// @Summary Духовенство прихода
// @Tags Контент
// @Produce json
// @Success 200 {object} response.Response{data=[]dto.PriestView}
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Router /api/v1/clergy [get]
func (r *Routers) ListClergy(c echo.Context) error {
	const op = "http.routers.ListClergy"

	log := r.log.With(slog.String("op", op))

	priests, err := r.ContentService.Clergy(c.Request().Context())
	if err != nil {
		return fail(c, log, err, priests)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(priests))
}

// MassSchedule godoc
// @Summary Расписание месс, адорации и исповеди
// @Description Если часть расписаний недоступна, возвращается то, что удалось получить, с пояснением в message.
// @Tags Контент
// @Produce json
// @Success 200 {object} response.Response{data=dto.MassSchedule}
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Router /api/v1/mass-times [get]
func (r *Routers) MassSchedule(c echo.Context) error {
	const op = "http.routers.MassSchedule"

	log := r.log.With(slog.String("op", op))

	schedule, err := r.ContentService.MassSchedule(c.Request().Context())
	if err != nil {
		if schedule.IsEmpty() {
			return fail(c, log, err, schedule)
		}

		log.Warn("mass schedule is partial", slog.String("error", err.Error()))
		return c.JSON(http.StatusOK, response.Response{
			Status:  "success",
			Data:    schedule,
			Message: "Some schedules are temporarily unavailable",
		})
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(schedule))
}

// ParishInfo godoc
// @Summary Контакты и часы работы прихода
// @Tags Контент
// @Produce json
// @Success 200 {object} response.Response{data=models.ParishInfo}
// @Failure 404 {object} response.ErrorResponse "Информация не заполнена"
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Router /api/v1/parish-info [get]
func (r *Routers) ParishInfo(c echo.Context) error {
	const op = "http.routers.ParishInfo"

	log := r.log.With(slog.String("op", op))

	info, err := r.ContentService.ParishInfo(c.Request().Context())
	if err != nil {
		return fail(c, log, err, nil)
	}
	if info == nil {
		return c.JSON(http.StatusNotFound, response.ErrNotFound)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(info))
}

// SubmitContact godoc
// @Summary Сообщение через форму обратной связи
// @Tags Формы
// @Accept json
// @Produce json
// @Param request body request.ContactRequest true "Сообщение"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неверный формат запроса"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Router /api/v1/contact [post]
func (r *Routers) SubmitContact(c echo.Context) error {
	const op = "http.routers.SubmitContact"

	log := r.log.With(slog.String("op", op))

	var req request.ContactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		log.Warn("invalid contact form", slog.String("error", err.Error()))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	if err := r.ContentService.SubmitContact(c.Request().Context(), req); err != nil {
		return fail(c, log, err, nil)
	}

	return c.JSON(http.StatusCreated, response.Response{Status: "success", Message: "Thank you, we will get back to you soon"})
}

// SubmitFeedback godoc
// @Summary Отзыв о приходе или сайте
// @Tags Формы
// @Accept json
// @Produce json
// @Param request body request.FeedbackRequest true "Отзыв"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неверный формат запроса"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Router /api/v1/feedback [post]
func (r *Routers) SubmitFeedback(c echo.Context) error {
	const op = "http.routers.SubmitFeedback"

	log := r.log.With(slog.String("op", op))

	var req request.FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		log.Warn("invalid feedback form", slog.String("error", err.Error()))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	if err := r.ContentService.SubmitFeedback(c.Request().Context(), req); err != nil {
		return fail(c, log, err, nil)
	}

	return c.JSON(http.StatusCreated, response.Response{Status: "success", Message: "Thank you for your feedback"})
}

// Sitemap godoc
// @Summary sitemap.xml сайта
// @Description Статические страницы плюс записи блога и события из CMS. При недоступной CMS только статические страницы.
// @Tags Служебное
// @Produce xml
// @Success 200 {string} string "sitemap.xml"
// @Router /sitemap.xml [get]
func (r *Routers) Sitemap(c echo.Context) error {
	const op = "http.routers.Sitemap"

	body, err := r.SitemapService.Cached(c.Request().Context())
	if err != nil {
		r.log.Error("failed to build sitemap", slog.String("op", op), slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, body)
}
