package reviews

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"biblio-backend/internal/platform/apierr"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// loanRef is what the review preconditions need to know about a loan.
type loanRef struct {
	LoanID     int64
	LoanULID   string
	BookID     int64
	BookULID   string
	BorrowerID string
}

func (s *Store) GetLoanRef(ctx context.Context, loanULID string) (*loanRef, error) {
	const q = `
	SELECT l.loan_id, l.loan_ulid, l.book_id, b.book_ulid, l.borrower_id
	FROM loans l
	JOIN books b ON b.book_id = l.book_id
	WHERE l.loan_ulid = ?`
	var ref loanRef
	err := s.db.QueryRowContext(ctx, q, loanULID).Scan(
		&ref.LoanID, &ref.LoanULID, &ref.BookID, &ref.BookULID, &ref.BorrowerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierr.ErrNotFound("loan not found")
		}
		return nil, err
	}
	return &ref, nil
}

// Insert adds a review; the unique key on loan_id enforces one review per
// loan, races included.
func (s *Store) Insert(ctx context.Context, r *Review) error {
	const q = `
	INSERT INTO reviews (review_ulid, book_id, loan_id, rating, comment, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, NOW(6), NOW(6))`
	res, err := s.db.ExecContext(ctx, q, r.ReviewULID, r.BookID, r.LoanID, r.Rating, r.Comment)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	r.ReviewID = id
	return nil
}

func (s *Store) Update(ctx context.Context, reviewID int64, rating int, comment sql.NullString) error {
	const q = `UPDATE reviews SET rating = ?, comment = ?, updated_at = NOW(6) WHERE review_id = ?`
	res, err := s.db.ExecContext(ctx, q, rating, comment, reviewID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.ErrNotFound("review not found")
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, reviewID int64) error {
	const q = `DELETE FROM reviews WHERE review_id = ?`
	res, err := s.db.ExecContext(ctx, q, reviewID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.ErrNotFound("review not found")
	}
	return nil
}

type reviewRow struct {
	Review
	BookULID     string
	LoanULID     string
	BorrowerID   string
	BorrowerName string
}

const reviewRowSelect = `
	SELECT
	rv.review_id, rv.review_ulid, rv.book_id, rv.loan_id, rv.rating, rv.comment,
	rv.created_at, rv.updated_at,
	b.book_ulid, l.loan_ulid, l.borrower_id,
	COALESCE(a.name, '') AS borrower_name
	FROM reviews rv
	JOIN loans l ON l.loan_id = rv.loan_id
	JOIN books b ON b.book_id = rv.book_id
	LEFT JOIN accounts a ON a.email = l.borrower_id`

func scanReviewRow(row interface{ Scan(...any) error }) (*reviewRow, error) {
	var r reviewRow
	err := row.Scan(
		&r.ReviewID, &r.ReviewULID, &r.BookID, &r.LoanID, &r.Rating, &r.Comment,
		&r.CreatedAt, &r.UpdatedAt,
		&r.BookULID, &r.LoanULID, &r.BorrowerID, &r.BorrowerName,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*reviewRow, error) {
	q := reviewRowSelect + ` WHERE rv.review_ulid = ?`
	r, err := scanReviewRow(s.db.QueryRowContext(ctx, q, ulid))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierr.ErrNotFound("review not found")
		}
		return nil, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, reviewID int64) (*reviewRow, error) {
	q := reviewRowSelect + ` WHERE rv.review_id = ?`
	r, err := scanReviewRow(s.db.QueryRowContext(ctx, q, reviewID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierr.ErrNotFound("review not found")
		}
		return nil, err
	}
	return r, nil
}

func (s *Store) GetByLoanULID(ctx context.Context, loanULID string) (*reviewRow, error) {
	q := reviewRowSelect + ` WHERE l.loan_ulid = ?`
	r, err := scanReviewRow(s.db.QueryRowContext(ctx, q, loanULID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierr.ErrNotFound("no review for this loan")
		}
		return nil, err
	}
	return r, nil
}

func (s *Store) ListByBook(ctx context.Context, bookULID string, p Page) ([]reviewRow, int64, error) {
	order := "DESC"
	if strings.ToLower(p.Order) == "asc" {
		order = "ASC"
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	q := reviewRowSelect + fmt.Sprintf(` WHERE b.book_ulid = ? ORDER BY rv.created_at %s LIMIT ? OFFSET ?`, order)

	rows, err := s.db.QueryContext(ctx, q, bookULID, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []reviewRow
	for rows.Next() {
		r, err := scanReviewRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	const cq = `
	SELECT COUNT(*) FROM reviews rv
	JOIN books b ON b.book_id = rv.book_id
	WHERE b.book_ulid = ?`
	if err := s.db.QueryRowContext(ctx, cq, bookULID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
