package cms

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrNotFound = errors.New("cms: not found")

// TransientError сбой CMS, который имеет смысл повторить позже:
// сеть, 5xx или ответ, который не удалось разобрать.
// StatusCode 0 означает, что ответа не было вовсе.
type TransientError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: cms unreachable: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: cms responded %d: %v", e.Op, e.StatusCode, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsMaintenance 502 или отсутствие ответа - сайт показывает "Service under maintenance".
func (e *TransientError) IsMaintenance() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusBadGateway
}

// APIError отказ CMS с кодом 4xx (валидация, права и т.п.).
type APIError struct {
	Op         string
	StatusCode int
	Name       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: cms rejected request (%d %s): %s", e.Op, e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("%s: cms rejected request (%d): %s", e.Op, e.StatusCode, e.Message)
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func IsMaintenance(err error) bool {
	var te *TransientError
	return errors.As(err, &te) && te.IsMaintenance()
}

// strapiError тело ошибки Strapi: {"data": null, "error": {...}}
type strapiError struct {
	Error struct {
		Status  int    `json:"status"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}
