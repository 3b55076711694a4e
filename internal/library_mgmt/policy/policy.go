// Package policy is the pure borrow-permission rule. It only looks at a book
// snapshot and the borrower's standing; callers are responsible for reading
// both under a row lock so the decision stays valid until commit.
package policy

import (
	"biblio-backend/internal/library_mgmt/books"
	"biblio-backend/internal/platform/apierr"
)

type Decision struct {
	Allowed bool
	Reason  apierr.Code
	Message string
}

var allowed = Decision{Allowed: true}

// CanBorrow decides whether a borrow may proceed. Only the highest-priority
// applicable reason is reported:
// NotFound > AlreadyBorrowed > StatusBlocked > NoCopiesAvailable.
func CanBorrow(b *books.Book, borrowerHasActiveLoan bool) Decision {
	if b == nil || b.DeletedAt.Valid {
		return Decision{Reason: apierr.CodeNotFound, Message: "book not found"}
	}
	if borrowerHasActiveLoan {
		return Decision{Reason: apierr.CodeAlreadyBorrowed, Message: "borrower already holds an active loan of this book"}
	}
	if b.Status != books.StatusAvailable {
		return Decision{Reason: apierr.CodeStatusBlocked, Message: "book status is " + b.Status}
	}
	if b.AvailableCopies <= 0 {
		return Decision{Reason: apierr.CodeNoCopiesAvailable, Message: "no copies available"}
	}
	return allowed
}

// Err converts a denial into the API error callers surface.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apierr.New(d.Reason, d.Message)
}
