package loans

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"biblio-backend/internal/platform/apierr"
	platformdb "biblio-backend/internal/platform/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, opts)
}

// InsertLoanTx inserts an active loan. The uq_active_loan key on
// (book_id, borrower_id, open_flag) rejects a second open loan for the same
// pair; callers translate the duplicate-key error.
func InsertLoanTx(ctx context.Context, tx platformdb.DBTX, l *Loan) error {
	const q = `
	INSERT INTO loans (loan_ulid, book_id, borrower_id, loan_date, due_date, status)
	VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		l.LoanULID, l.BookID, l.BorrowerID, l.LoanDate, l.DueDate, l.Status)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	l.LoanID = id
	return nil
}

// LockByULIDTx loads a loan row under FOR UPDATE for the return flow.
func LockByULIDTx(ctx context.Context, tx platformdb.DBTX, ulid string) (*Loan, error) {
	const q = `
	SELECT loan_id, loan_ulid, book_id, borrower_id, loan_date, due_date, return_date, status
	FROM loans WHERE loan_ulid = ? FOR UPDATE`
	var l Loan
	err := tx.QueryRowContext(ctx, q, ulid).Scan(
		&l.LoanID, &l.LoanULID, &l.BookID, &l.BorrowerID,
		&l.LoanDate, &l.DueDate, &l.ReturnDate, &l.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierr.ErrNotFound("loan not found")
		}
		return nil, err
	}
	return &l, nil
}

// HasActiveLoanTx reports whether the borrower already holds an open loan of
// the book. Read inside the borrow transaction, after the book row is locked.
func HasActiveLoanTx(ctx context.Context, tx platformdb.DBTX, bookID int64, borrowerID string) (bool, error) {
	const q = `
	SELECT EXISTS(
		SELECT 1 FROM loans
		WHERE book_id = ? AND borrower_id = ? AND status IN ('active', 'overdue')
	)`
	var exists bool
	if err := tx.QueryRowContext(ctx, q, bookID, borrowerID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func MarkReturnedTx(ctx context.Context, tx platformdb.DBTX, loanID int64, now time.Time) error {
	const q = `
	UPDATE loans SET status = 'returned', return_date = ?
	WHERE loan_id = ? AND status IN ('active', 'overdue')`
	res, err := tx.ExecContext(ctx, q, now, loanID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.New(apierr.CodeAlreadyReturned, "loan already returned")
	}
	return nil
}

// reservationCandidate is the slice of the reservations table the promotion
// step needs. The queue is walked oldest-first.
type reservationCandidate struct {
	ReservationID int64
	BorrowerID    string
}

func ActiveReservationCandidatesTx(ctx context.Context, tx platformdb.DBTX, bookID int64, limit int) ([]reservationCandidate, error) {
	const q = `
	SELECT reservation_id, borrower_id
	FROM reservations
	WHERE book_id = ? AND status = 'active'
	ORDER BY reservation_date ASC, reservation_id ASC
	LIMIT ?
	FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, bookID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reservationCandidate
	for rows.Next() {
		var c reservationCandidate
		if err := rows.Scan(&c.ReservationID, &c.BorrowerID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func MarkReservationFulfilledTx(ctx context.Context, tx platformdb.DBTX, reservationID int64, now time.Time) error {
	const q = `
	UPDATE reservations SET status = 'fulfilled', fulfilled_at = ?
	WHERE reservation_id = ? AND status = 'active'`
	res, err := tx.ExecContext(ctx, q, now, reservationID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.ErrInternal("failed to fulfil reservation")
	}
	return nil
}

// ReclassifyOverdue flips every active loan past its due date to overdue.
// Idempotent; availability is not touched.
func (s *Store) ReclassifyOverdue(ctx context.Context, now time.Time) (int64, error) {
	const q = `UPDATE loans SET status = 'overdue' WHERE status = 'active' AND due_date < ?`
	res, err := s.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type loanRow struct {
	Loan
	BookULID     string
	BookTitle    string
	BookLocation string
	BorrowerName string
}

const loanRowSelect = `
	SELECT
	l.loan_id, l.loan_ulid, l.book_id, l.borrower_id, l.loan_date, l.due_date, l.return_date, l.status,
	b.book_ulid, b.title, b.location,
	COALESCE(a.name, '') AS borrower_name
	FROM loans l
	JOIN books b ON b.book_id = l.book_id
	LEFT JOIN accounts a ON a.email = l.borrower_id`

func scanLoanRow(rows *sql.Rows) (*loanRow, error) {
	var r loanRow
	err := rows.Scan(
		&r.LoanID, &r.LoanULID, &r.BookID, &r.BorrowerID, &r.LoanDate, &r.DueDate, &r.ReturnDate, &r.Status,
		&r.BookULID, &r.BookTitle, &r.BookLocation, &r.BorrowerName,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRow loads one loan joined with its book and borrower for responses.
func (s *Store) GetRow(ctx context.Context, loanID int64) (*loanRow, error) {
	q := loanRowSelect + ` WHERE l.loan_id = ?`
	rows, err := s.db.QueryContext(ctx, q, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, apierr.ErrNotFound("loan not found")
	}
	return scanLoanRow(rows)
}

func (s *Store) List(ctx context.Context, f LoanFilter, p Page) ([]loanRow, int64, error) {
	sb := strings.Builder{}
	sb.WriteString(loanRowSelect)
	sb.WriteString(` WHERE 1=1`)

	where, args := loanConditions(f)
	sb.WriteString(where)

	order := "DESC"
	if strings.ToLower(p.Order) == "asc" {
		order = "ASC"
	}
	sb.WriteString(fmt.Sprintf(` ORDER BY l.loan_date %s`, order))
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, p.Limit, p.Offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []loanRow
	for rows.Next() {
		r, err := scanLoanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	cntWhere, cntArgs := loanConditions(f)
	var total int64
	cq := `SELECT COUNT(*) FROM loans l JOIN books b ON b.book_id = l.book_id WHERE 1=1` + cntWhere
	if err := s.db.QueryRowContext(ctx, cq, cntArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func loanConditions(f LoanFilter) (string, []any) {
	sb := strings.Builder{}
	args := []any{}
	if f.BorrowerID != nil {
		sb.WriteString(` AND l.borrower_id = ?`)
		args = append(args, *f.BorrowerID)
	}
	if f.BookULID != nil {
		sb.WriteString(` AND b.book_ulid = ?`)
		args = append(args, *f.BookULID)
	}
	if f.Status != nil {
		sb.WriteString(` AND l.status = ?`)
		args = append(args, *f.Status)
	}
	return sb.String(), args
}
