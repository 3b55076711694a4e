// Package apierr is the shared error model for the API.
// Every precondition failure is reported as a specific code so the
// frontend can render an accurate message instead of a generic one.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeInvalidRating     Code = "INVALID_RATING"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeAlreadyBorrowed   Code = "ALREADY_BORROWED"
	CodeAlreadyReturned   Code = "ALREADY_RETURNED"
	CodeAlreadyReserved   Code = "ALREADY_RESERVED"
	CodeBookAvailable     Code = "BOOK_AVAILABLE"
	CodeNoCopiesAvailable Code = "NO_COPIES_AVAILABLE"
	CodeStatusBlocked     Code = "STATUS_BLOCKED"
	CodeDuplicate         Code = "DUPLICATE"
	CodeForbidden         Code = "FORBIDDEN"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeInternal          Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func New(code Code, msg string) *APIError { return &APIError{Code: code, Message: msg} }

func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrForbidden(msg string) *APIError {
	return &APIError{Code: CodeForbidden, Message: msg}
}
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument, CodeInvalidRating:
			return http.StatusBadRequest
		case CodeUnauthorized:
			return http.StatusUnauthorized
		case CodeForbidden:
			return http.StatusForbidden
		case CodeNotFound:
			return http.StatusNotFound
		case CodeConflict, CodeAlreadyBorrowed, CodeAlreadyReturned, CodeAlreadyReserved,
			CodeBookAvailable, CodeNoCopiesAvailable, CodeStatusBlocked, CodeDuplicate:
			return http.StatusConflict
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// ErrorDTO is the JSON envelope returned for every failed request.
type ErrorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func Body(code Code, msg string) ErrorDTO {
	var e ErrorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func BodyFrom(err error) ErrorDTO {
	var api *APIError
	if errors.As(err, &api) {
		return Body(api.Code, api.Message)
	}
	return Body(CodeInternal, err.Error())
}
