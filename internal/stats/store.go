package stats

import (
	"context"
	"database/sql"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

type counters struct {
	TotalBooks         int64
	TotalCopies        int64
	AvailableCopies    int64
	ActiveLoans        int64
	OverdueLoans       int64
	ActiveReservations int64
	RegisteredStudents int64
}

func (s *Store) Counters(ctx context.Context) (*counters, error) {
	const q = `
	SELECT
	(SELECT COUNT(*) FROM books WHERE deleted_at IS NULL),
	(SELECT COALESCE(SUM(total_copies), 0) FROM books WHERE deleted_at IS NULL),
	(SELECT COALESCE(SUM(available_copies), 0) FROM books WHERE deleted_at IS NULL),
	(SELECT COUNT(*) FROM loans WHERE status = 'active'),
	(SELECT COUNT(*) FROM loans WHERE status = 'overdue'),
	(SELECT COUNT(*) FROM reservations WHERE status = 'active'),
	(SELECT COUNT(*) FROM accounts WHERE role = 'student' AND is_disabled = 0)`
	var c counters
	err := s.db.QueryRowContext(ctx, q).Scan(
		&c.TotalBooks, &c.TotalCopies, &c.AvailableCopies,
		&c.ActiveLoans, &c.OverdueLoans, &c.ActiveReservations, &c.RegisteredStudents,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type topBook struct {
	BookULID  string
	Title     string
	Author    string
	LoanCount int64
}

func (s *Store) TopBorrowed(ctx context.Context, limit int) ([]topBook, error) {
	if limit <= 0 {
		limit = 5
	}
	const q = `
	SELECT b.book_ulid, b.title, b.author, COUNT(*) AS loan_count
	FROM loans l
	JOIN books b ON b.book_id = l.book_id
	WHERE b.deleted_at IS NULL
	GROUP BY b.book_id, b.book_ulid, b.title, b.author
	ORDER BY loan_count DESC, b.title ASC
	LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []topBook
	for rows.Next() {
		var t topBook
		if err := rows.Scan(&t.BookULID, &t.Title, &t.Author, &t.LoanCount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
