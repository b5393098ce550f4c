package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"parish_portal/internal/cms"
	"parish_portal/internal/lib/logger/sl"
	"parish_portal/internal/storage"
	"parish_portal/internal/transport/http/dto/response"

	auth "parish_portal/internal/services/auth"
	content "parish_portal/internal/services/content_service"
	registration "parish_portal/internal/services/registration_service"

	"github.com/labstack/echo/v4"
)

var badRequestErrors = []error{
	registration.ErrInvalidAttendeeCount,
	registration.ErrInvalidForm,
	content.ErrInvalidSubmission,
	storage.ErrInvalidData,
}

// errorStatus переводит ошибку сервисов в HTTP статус и тело ответа.
func errorStatus(err error) (int, response.ErrorResponse) {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, response.ErrInvalidRequestFormat.WithDetails(target.Error())
		}
	}

	var capErr *registration.CapacityError
	var apiErr *cms.APIError

	switch {
	case errors.As(err, &capErr):
		return http.StatusConflict, response.ErrFullyBooked.WithDetails(capacityMessage(capErr))
	case errors.Is(err, registration.ErrFullyBooked):
		return http.StatusConflict, response.ErrFullyBooked
	case errors.Is(err, registration.ErrEventNotFound):
		return http.StatusNotFound, response.ErrEventNotFound
	case errors.Is(err, storage.ErrRegistrationNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, registration.ErrUnsupported):
		return http.StatusNotImplemented, response.ErrUnsupported
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNotConfigured):
		return http.StatusUnauthorized, response.ErrAuthenticationFailed.WithDetails(auth.ErrInvalidCredentials.Error())
	case cms.IsMaintenance(err):
		return http.StatusServiceUnavailable, response.ErrServiceUnavailable
	case cms.IsTransient(err), errors.As(err, &apiErr):
		return http.StatusBadGateway, response.ErrUpstreamFailure
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

func capacityMessage(e *registration.CapacityError) string {
	if e.Remaining <= 0 {
		return response.ErrFullyBooked.Details
	}
	return fmt.Sprintf("Sorry, only %d spots remaining. Please reduce the number of attendees.", e.Remaining)
}

// fail отвечает ошибкой; data (если есть) уходит в тело, чтобы списки
// сохраняли форму ответа и при недоступной CMS.
func fail(c echo.Context, log *slog.Logger, err error, data interface{}) error {
	code, body := errorStatus(err)

	switch {
	case code >= http.StatusInternalServerError:
		log.Error("request failed", sl.Err(err), slog.Int("status", code))
	default:
		log.Info("request rejected", sl.Err(err), slog.Int("status", code))
	}

	if data != nil {
		body = body.WithData(data)
	}

	return c.JSON(code, body)
}
