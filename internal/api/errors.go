package api

import (
	"errors"
	"net/http"

	"github.com/cankoe/survey-runner/internal/store"
)

const (
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeDatabaseError    = "database_error"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeInternal         = "internal_error"
)

type ApiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ApiError) Error() string {
	return e.Message
}

func mapErrorToStatusCode(err error) (int, *ApiError) {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case ErrCodeInvalidRequest:
			return http.StatusBadRequest, apiErr
		case ErrCodeUnauthorized:
			return http.StatusUnauthorized, apiErr
		case ErrCodeNotFound:
			return http.StatusNotFound, apiErr
		case ErrCodeValidationFailed:
			return http.StatusUnprocessableEntity, apiErr
		case ErrCodeDatabaseError:
			return http.StatusInternalServerError, apiErr
		}
	}
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, &ApiError{Code: ErrCodeNotFound, Message: err.Error()}
	}

	return http.StatusInternalServerError, &ApiError{
		Code:    ErrCodeInternal,
		Message: "An unexpected error occurred",
	}
}
