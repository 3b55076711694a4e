package reservations

import (
	"database/sql"
	"time"
)

// Reservation statuses. active→fulfilled happens inside the loan return
// transaction (promotion); active→cancelled on explicit cancellation.
// Rows are never deleted.
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusFulfilled = "fulfilled"
)

// Reservation is one row of the reservations table.
type Reservation struct {
	ReservationID   int64
	ReservationULID string
	BookID          int64
	BorrowerID      string
	ReservationDate time.Time
	Status          string
	CancelledAt     sql.NullTime
	FulfilledAt     sql.NullTime
}

type ReservationFilter struct {
	BorrowerID *string
	BookULID   *string
	Status     *string
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}
