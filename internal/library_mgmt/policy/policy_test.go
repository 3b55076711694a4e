package policy

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblio-backend/internal/library_mgmt/books"
	"biblio-backend/internal/platform/apierr"
)

func borrowableBook() *books.Book {
	return &books.Book{
		BookID:          1,
		BookULID:        "01J0000000000000000000TEST",
		Title:           "Hydraulique des canaux",
		Status:          books.StatusAvailable,
		TotalCopies:     3,
		AvailableCopies: 2,
	}
}

func TestCanBorrowAllowed(t *testing.T) {
	d := CanBorrow(borrowableBook(), false)
	assert.True(t, d.Allowed)
	assert.NoError(t, d.Err())
}

func TestCanBorrowNilBook(t *testing.T) {
	d := CanBorrow(nil, false)
	assert.False(t, d.Allowed)
	assert.Equal(t, apierr.CodeNotFound, d.Reason)
}

func TestCanBorrowDeletedBook(t *testing.T) {
	b := borrowableBook()
	b.DeletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	d := CanBorrow(b, false)
	assert.Equal(t, apierr.CodeNotFound, d.Reason)
}

func TestCanBorrowStatusVetoesDespiteCopies(t *testing.T) {
	for _, status := range []string{books.StatusMaintenance, books.StatusUnavailable, books.StatusReserved} {
		b := borrowableBook()
		b.Status = status
		d := CanBorrow(b, false)
		assert.False(t, d.Allowed, status)
		assert.Equal(t, apierr.CodeStatusBlocked, d.Reason, status)
	}
}

func TestCanBorrowNoCopies(t *testing.T) {
	b := borrowableBook()
	b.AvailableCopies = 0
	d := CanBorrow(b, false)
	assert.Equal(t, apierr.CodeNoCopiesAvailable, d.Reason)
}

// The reported reason follows a fixed priority so the client sees the most
// specific cause first.
func TestCanBorrowReasonPriority(t *testing.T) {
	// deleted beats everything
	b := borrowableBook()
	b.DeletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	b.Status = books.StatusMaintenance
	b.AvailableCopies = 0
	assert.Equal(t, apierr.CodeNotFound, CanBorrow(b, true).Reason)

	// already-borrowed beats status and copies
	b = borrowableBook()
	b.Status = books.StatusMaintenance
	b.AvailableCopies = 0
	assert.Equal(t, apierr.CodeAlreadyBorrowed, CanBorrow(b, true).Reason)

	// status beats copies
	b = borrowableBook()
	b.Status = books.StatusMaintenance
	b.AvailableCopies = 0
	assert.Equal(t, apierr.CodeStatusBlocked, CanBorrow(b, false).Reason)
}

func TestDecisionErrCarriesCodeAndMessage(t *testing.T) {
	d := CanBorrow(borrowableBook(), true)
	err := d.Err()
	require.Error(t, err)

	api, ok := err.(*apierr.APIError)
	require.True(t, ok)
	assert.Equal(t, apierr.CodeAlreadyBorrowed, api.Code)
	assert.NotEmpty(t, api.Message)
}
