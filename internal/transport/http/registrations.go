package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"parish_portal/internal/transport/http/dto"
	"parish_portal/internal/transport/http/dto/request"
	"parish_portal/internal/transport/http/dto/response"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	SessionName     = "session"
	SessionAdminKey = "admin"
)

// RegisterForEvent godoc
// @Summary Регистрация на событие
// @Description Проверяет вместимость и подтверждает регистрацию. 409, если мест не хватает.
// @Tags События
// @Accept json
// @Produce json
// @Param id path int true "ID события"
// @Param request body request.RegistrationRequest true "Данные участника"
// @Success 201 {object} response.Response{data=dto.RegistrationResponse}
// @Failure 400 {object} response.ErrorResponse "Неверный формат запроса"
// @Failure 404 {object} response.ErrorResponse "Событие не найдено"
// @Failure 409 {object} response.ErrorResponse "Мест не осталось"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Router /api/v1/events/{id}/registrations [post]
func (r *Routers) RegisterForEvent(c echo.Context) error {
	const op = "http.routers.RegisterForEvent"

	log := r.log.With(slog.String("op", op))

	eventID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails("invalid event id"))
	}

	var req request.RegistrationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		log.Warn("invalid registration form", slog.Int64("event_id", eventID), slog.String("error", err.Error()))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	reg, err := r.RegistrationService.Register(c.Request().Context(), eventID, req.Form())
	if err != nil {
		return fail(c, log, err, nil)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(dto.NewRegistrationResponse(reg)))
}

// AdminLogin godoc
// @Summary Вход администратора
// @Description Возвращает JWT для /api/v1/admin/* и ставит cookie сессии для выгрузки.
// @Tags Администрирование
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Данные для входа"
// @Success 200 {object} response.Response{data=dto.LoginResponse}
// @Failure 400 {object} response.ErrorResponse "Неверный формат запроса"
// @Failure 401 {object} response.ErrorResponse "Ошибка аутентификации"
// @Router /api/v1/admin/login [post]
func (r *Routers) AdminLogin(c echo.Context) error {
	const op = "http.routers.AdminLogin"

	log := r.log.With(slog.String("op", op))

	var req request.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		log.Warn("invalid format request", slog.String("login", req.Login))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	token, expiresAt, err := r.AuthService.Login(c.Request().Context(), req.Login, req.Password)
	if err != nil {
		return fail(c, log, err, nil)
	}

	sess, err := session.Get(SessionName, c)
	if err != nil {
		log.Warn("failed to load session", slog.String("error", err.Error()))
	} else {
		sess.Options.MaxAge = int(time.Until(expiresAt).Seconds())
		sess.Values[SessionAdminKey] = req.Login
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			log.Warn("failed to save session", slog.String("error", err.Error()))
		}
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}))
}

// EventRegistrations godoc
// @Summary Подтверждённые регистрации события
// @Tags Администрирование
// @Produce json
// @Param id path int true "ID события"
// @Success 200 {object} response.Response{data=[]models.EventRegistration}
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 503 {object} response.ErrorResponse "CMS на обслуживании"
// @Security ApiKeyAuth
// @Router /api/v1/admin/events/{id}/registrations [get]
func (r *Routers) EventRegistrations(c echo.Context) error {
	const op = "http.routers.EventRegistrations"

	log := r.log.With(slog.String("op", op))

	eventID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails("invalid event id"))
	}

	regs, err := r.RegistrationService.ListByEvent(c.Request().Context(), eventID)
	if err != nil {
		return fail(c, log, err, nil)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(regs))
}

// GetRegistration godoc
// @Summary Регистрация по ID
// @Tags Администрирование
// @Produce json
// @Param id path int true "ID регистрации"
// @Success 200 {object} response.Response{data=models.EventRegistration}
// @Failure 404 {object} response.ErrorResponse "Регистрация не найдена"
// @Security ApiKeyAuth
// @Router /api/v1/admin/registrations/{id} [get]
func (r *Routers) GetRegistration(c echo.Context) error {
	const op = "http.routers.GetRegistration"

	log := r.log.With(slog.String("op", op))

	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails("invalid registration id"))
	}

	reg, err := r.RegistrationService.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, log, err, nil)
	}
	if reg == nil {
		return c.JSON(http.StatusNotFound, response.ErrNotFound)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(reg))
}

// CancelRegistration godoc
// @Summary Отмена регистрации
// @Description Повторная отмена ничего не меняет и не уменьшает счётчик участников второй раз.
// @Tags Администрирование
// @Produce json
// @Param id path int true "ID регистрации"
// @Success 200 {object} response.Response{data=dto.CancelResponse}
// @Failure 404 {object} response.ErrorResponse "Регистрация не найдена"
// @Security ApiKeyAuth
// @Router /api/v1/admin/registrations/{id}/cancel [post]
func (r *Routers) CancelRegistration(c echo.Context) error {
	const op = "http.routers.CancelRegistration"

	log := r.log.With(slog.String("op", op))

	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails("invalid registration id"))
	}

	cancelled, err := r.RegistrationService.Cancel(c.Request().Context(), id)
	if err != nil {
		return fail(c, log, err, nil)
	}
	if !cancelled {
		return c.JSON(http.StatusNotFound, response.ErrNotFound.WithDetails("Registration not found"))
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.CancelResponse{ID: id, Cancelled: true}))
}

// RegistrationStats godoc
// @Summary Статистика регистраций по событиям
// @Tags Администрирование
// @Produce json
// @Success 200 {object} response.Response{data=[]models.RegistrationStats}
// @Security ApiKeyAuth
// @Router /api/v1/admin/events/stats [get]
func (r *Routers) RegistrationStats(c echo.Context) error {
	const op = "http.routers.RegistrationStats"

	log := r.log.With(slog.String("op", op))

	stats, err := r.RegistrationService.Stats(c.Request().Context())
	if err != nil {
		return fail(c, log, err, nil)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(stats))
}

// ImportRegistrations godoc
// @Summary Импорт регистраций из выгрузки
// @Description Заменяет локальную коллекцию целиком. Только для бэкенда local.
// @Tags Администрирование
// @Accept json
// @Produce json
// @Param request body request.ImportRequest true "JSON выгрузки"
// @Success 200 {object} response.Response{data=dto.ImportResponse}
// @Failure 400 {object} response.ErrorResponse "Некорректная выгрузка"
// @Failure 501 {object} response.ErrorResponse "Не поддерживается бэкендом"
// @Security ApiKeyAuth
// @Router /api/v1/admin/registrations/import [post]
func (r *Routers) ImportRegistrations(c echo.Context) error {
	const op = "http.routers.ImportRegistrations"

	log := r.log.With(slog.String("op", op))

	var req request.ImportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(err.Error()))
	}

	n, err := r.RegistrationService.Import(c.Request().Context(), req.Data)
	if err != nil {
		return fail(c, log, err, nil)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.ImportResponse{Imported: n}))
}

// ClearRegistrations godoc
// @Summary Удаление всех регистраций
// @Tags Администрирование
// @Produce json
// @Success 204
// @Failure 501 {object} response.ErrorResponse "Не поддерживается бэкендом"
// @Security ApiKeyAuth
// @Router /api/v1/admin/registrations [delete]
func (r *Routers) ClearRegistrations(c echo.Context) error {
	const op = "http.routers.ClearRegistrations"

	log := r.log.With(slog.String("op", op))

	if err := r.RegistrationService.Clear(c.Request().Context()); err != nil {
		return fail(c, log, err, nil)
	}

	return c.NoContent(http.StatusNoContent)
}

// ExportRegistrations godoc
// @Summary Выгрузка всех регистраций
// @Description Файл JSON для скачивания из браузера. Доступ по cookie сессии, выданной при входе.
// @Tags Администрирование
// @Produce json
// @Success 200 {file} file "registrations-YYYY-MM-DD.json"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Router /api/v1/admin/registrations/export [get]
func (r *Routers) ExportRegistrations(c echo.Context) error {
	const op = "http.routers.ExportRegistrations"

	log := r.log.With(slog.String("op", op))

	out, err := r.RegistrationService.ExportAll(c.Request().Context())
	if err != nil {
		return fail(c, log, err, nil)
	}

	filename := fmt.Sprintf("registrations-%s.json", time.Now().Format(time.DateOnly))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, []byte(out))
}
