package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"parish_portal/internal/cms"
	"parish_portal/internal/storage"

	auth "parish_portal/internal/services/auth"
	content "parish_portal/internal/services/content_service"
	registration "parish_portal/internal/services/registration_service"

	"github.com/stretchr/testify/assert"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantError   string
		wantDetails string
	}{
		{
			name:        "cms bad gateway means maintenance",
			err:         fmt.Errorf("op: %w", &cms.TransientError{Op: "cms.ListNotices", StatusCode: http.StatusBadGateway, Err: errors.New("502")}),
			wantCode:    http.StatusServiceUnavailable,
			wantError:   "service_unavailable",
			wantDetails: "Service under maintenance. Come back later",
		},
		{
			name:      "cms unreachable means maintenance",
			err:       &cms.TransientError{Op: "cms.ListEvents", Err: errors.New("connection refused")},
			wantCode:  http.StatusServiceUnavailable,
			wantError: "service_unavailable",
		},
		{
			name:      "other cms failure",
			err:       &cms.TransientError{Op: "cms.ListEvents", StatusCode: http.StatusInternalServerError, Err: errors.New("boom")},
			wantCode:  http.StatusBadGateway,
			wantError: "upstream_failure",
		},
		{
			name:      "cms rejected write",
			err:       &cms.APIError{Op: "cms.SubmitContact", StatusCode: http.StatusBadRequest, Message: "ValidationError"},
			wantCode:  http.StatusBadGateway,
			wantError: "upstream_failure",
		},
		{
			name:        "capacity with spots left",
			err:         fmt.Errorf("op: %w", &registration.CapacityError{EventID: 1, Requested: 150, Remaining: 145}),
			wantCode:    http.StatusConflict,
			wantError:   "fully_booked",
			wantDetails: "Sorry, only 145 spots remaining. Please reduce the number of attendees.",
		},
		{
			name:        "no spots left",
			err:         &registration.CapacityError{EventID: 1, Requested: 1},
			wantCode:    http.StatusConflict,
			wantDetails: "Sorry, this event is now fully booked.",
		},
		{
			name:        "event not found",
			err:         registration.ErrEventNotFound,
			wantCode:    http.StatusNotFound,
			wantDetails: "Event not found",
		},
		{
			name:        "invalid attendee count",
			err:         registration.ErrInvalidAttendeeCount,
			wantCode:    http.StatusBadRequest,
			wantDetails: registration.ErrInvalidAttendeeCount.Error(),
		},
		{
			name:     "invalid submission",
			err:      fmt.Errorf("content.SubmitFeedback: %w", content.ErrInvalidSubmission),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "broken import",
			err:      fmt.Errorf("import: %w: unexpected end of JSON input", storage.ErrInvalidData),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unsupported by backend",
			err:      fmt.Errorf("registration_service.Import: %w", registration.ErrUnsupported),
			wantCode: http.StatusNotImplemented,
		},
		{
			name:     "bad credentials",
			err:      auth.ErrInvalidCredentials,
			wantCode: http.StatusUnauthorized,
		},
		{
			name:      "anything else",
			err:       errors.New("disk full"),
			wantCode:  http.StatusInternalServerError,
			wantError: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := errorStatus(tt.err)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, "error", body.Status)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body.Error)
			}
			if tt.wantDetails != "" {
				assert.Equal(t, tt.wantDetails, body.Details)
			}
		})
	}
}
