package reviews

import (
	"database/sql"
	"time"
)

// Review is one row of the reviews table. Ownership is not stored here: it is
// always derived from the referenced loan's borrower.
type Review struct {
	ReviewID  int64
	ReviewULID string
	BookID    int64
	LoanID    int64
	Rating    int
	Comment   sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	MinRating = 1
	MaxRating = 5
)

func ValidRating(r int) bool { return r >= MinRating && r <= MaxRating }

type Page struct {
	Limit  int
	Offset int
	Order  string
}
