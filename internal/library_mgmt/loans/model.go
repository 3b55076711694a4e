package loans

import (
	"database/sql"
	"time"
)

// Loan statuses. active→returned via a return, active→overdue via the sweep,
// overdue→returned on a late return. returned is terminal.
const (
	StatusActive   = "active"
	StatusReturned = "returned"
	StatusOverdue  = "overdue"
)

// Loan is one row of the loans table.
type Loan struct {
	LoanID     int64
	LoanULID   string
	BookID     int64
	BorrowerID string
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate sql.NullTime
	Status     string
}

// Open reports whether the loan still holds a copy.
func (l *Loan) Open() bool {
	return l.Status == StatusActive || l.Status == StatusOverdue
}

type LoanFilter struct {
	BorrowerID *string
	BookULID   *string
	Status     *string
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}
