package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeInvalidRating, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeAlreadyBorrowed, http.StatusConflict},
		{CodeAlreadyReturned, http.StatusConflict},
		{CodeAlreadyReserved, http.StatusConflict},
		{CodeBookAvailable, http.StatusConflict},
		{CodeNoCopiesAvailable, http.StatusConflict},
		{CodeStatusBlocked, http.StatusConflict},
		{CodeDuplicate, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ToHTTPStatus(New(c.code, "x")), string(c.code))
	}
}

func TestToHTTPStatusWrappedError(t *testing.T) {
	err := fmt.Errorf("create loan: %w", ErrNotFound("book not found"))
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(err))
}

func TestToHTTPStatusPlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(errors.New("boom")))
}

func TestBodyFrom(t *testing.T) {
	b := BodyFrom(New(CodeAlreadyBorrowed, "borrower already holds an active loan of this book"))
	assert.Equal(t, CodeAlreadyBorrowed, b.Error.Code)
	assert.Equal(t, "borrower already holds an active loan of this book", b.Error.Message)

	b = BodyFrom(errors.New("boom"))
	assert.Equal(t, CodeInternal, b.Error.Code)
}
