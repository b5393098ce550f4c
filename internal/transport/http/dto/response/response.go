package response

type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse ошибка API. Data заполняется для списков: даже при сбое CMS
// клиент получает пустую страницу привычной формы.
type ErrorResponse struct {
	Status  string      `json:"status"`
	Error   string      `json:"error"`
	Details string      `json:"details,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(data interface{}) Response {
	return Response{
		Status: "success",
		Data:   data,
	}
}

func ErrorResponseWithDetails(err, details string) ErrorResponse {
	return ErrorResponse{
		Status:  "error",
		Error:   err,
		Details: details,
	}
}

// WithDetails копия ошибки с другим описанием; шаблоны пакета не меняются.
func (e ErrorResponse) WithDetails(details string) ErrorResponse {
	e.Details = details
	return e
}

func (e ErrorResponse) WithData(data interface{}) ErrorResponse {
	e.Data = data
	return e
}
