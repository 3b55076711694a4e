package loans

import "time"

// Borrow request. The frontend sends the book ULID; the borrowing period
// defaults to the configured duration when neither field is set.
type CreateLoanRequest struct {
	BookULID     string  `json:"book_id" binding:"required"`
	DurationDays *int    `json:"duration_days,omitempty"`
	DueDate      *string `json:"due_date,omitempty"` // "2006-01-02"
}

type LoanResponse struct {
	LoanULID     string     `json:"id"`
	BookULID     string     `json:"book_id"`
	BookTitle    string     `json:"book_title"`
	BookLocation string     `json:"location"`
	BorrowerID   string     `json:"borrower_id"`
	BorrowerName string     `json:"borrower_name,omitempty"`
	LoanDate     time.Time  `json:"loan_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty"`
	Status       string     `json:"status"`
}

type ListLoansResponse struct {
	Loans []LoanResponse `json:"loans"`
	Total int64          `json:"total"`
}

type SweepResponse struct {
	Reclassified int64 `json:"reclassified"`
}

func buildLoanResponse(r *loanRow) LoanResponse {
	resp := LoanResponse{
		LoanULID:     r.LoanULID,
		BookULID:     r.BookULID,
		BookTitle:    r.BookTitle,
		BookLocation: r.BookLocation,
		BorrowerID:   r.BorrowerID,
		BorrowerName: r.BorrowerName,
		LoanDate:     r.LoanDate,
		DueDate:      r.DueDate,
		Status:       r.Status,
	}
	if r.ReturnDate.Valid {
		v := r.ReturnDate.Time
		resp.ReturnDate = &v
	}
	return resp
}
