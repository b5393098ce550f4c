package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrAuthenticationFailed = ErrorResponse{
		Status: "error",
		Error:  "authentication_failed",
	}

	ErrServiceUnavailable = ErrorResponse{
		Status:  "error",
		Error:   "service_unavailable",
		Details: "Service under maintenance. Come back later",
	}

	ErrUpstreamFailure = ErrorResponse{
		Status:  "error",
		Error:   "upstream_failure",
		Details: "Content service is temporarily unavailable",
	}

	ErrEventNotFound = ErrorResponse{
		Status:  "error",
		Error:   "event_not_found",
		Details: "Event not found",
	}

	ErrNotFound = ErrorResponse{
		Status:  "error",
		Error:   "not_found",
		Details: "Requested content was not found",
	}

	ErrInternal = ErrorResponse{
		Status:  "error",
		Error:   "internal_error",
		Details: "Internal server error",
	}
)

var (
	ErrFullyBooked = ErrorResponse{
		Status:  "error",
		Error:   "fully_booked",
		Details: "Sorry, this event is now fully booked.",
	}

	ErrUnsupported = ErrorResponse{
		Status:  "error",
		Error:   "unsupported",
		Details: "Operation is not supported by the configured registration backend",
	}

	ErrForbidden = ErrorResponse{
		Status:  "error",
		Error:   "forbidden",
		Details: "Admin access required",
	}

	ErrTooManyRequests = ErrorResponse{
		Status:  "error",
		Error:   "too_many_requests",
		Details: "Too many requests, try again later",
	}
)
