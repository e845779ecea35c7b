package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the taxonomy every service returns. Status doubles as the variant
// discriminator: 400 validation, 403 forbidden, 404 not found, 409 conflict.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NewValidation(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

func NewForbidden(code string, err error) *Error {
	return New(http.StatusForbidden, code, err)
}

func NewNotFound(code string, err error) *Error {
	return New(http.StatusNotFound, code, err)
}

func NewConflict(code string, err error) *Error {
	return New(http.StatusConflict, code, err)
}

func statusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

func IsValidation(err error) bool { return statusOf(err) == http.StatusBadRequest }
func IsForbidden(err error) bool  { return statusOf(err) == http.StatusForbidden }
func IsNotFound(err error) bool   { return statusOf(err) == http.StatusNotFound }
func IsConflict(err error) bool   { return statusOf(err) == http.StatusConflict }
