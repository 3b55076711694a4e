package loans

import (
	"context"
	"crypto/rand"
	"database/sql"
	"log"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"biblio-backend/internal/library_mgmt/books"
	"biblio-backend/internal/library_mgmt/policy"
	"biblio-backend/internal/platform/apierr"
	platformdb "biblio-backend/internal/platform/db"
)

// ===== Clock & ID =====

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ NewULID(t time.Time) string }

type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// how many queued reservations the promotion step will inspect before giving
// the freed copy back to the open shelf
const promoteScanLimit = 25

// ===== Service =====

type Service struct {
	db           *sql.DB
	store        *Store
	clock        Clock
	id           IDGen
	durationDays int
}

func NewService(db *sql.DB, durationDays int) *Service {
	if durationDays <= 0 {
		durationDays = 14
	}
	return &Service{
		db:           db,
		store:        NewStore(db),
		clock:        realClock{},
		id:           ulidGen{},
		durationDays: durationDays,
	}
}

// CreateLoan runs the borrow transaction: lock the book row, evaluate the
// availability policy, decrement the shelf count and insert the active loan.
// Two concurrent borrows of a last copy serialize on the row lock; the loser
// observes zero copies and fails, never a negative count.
func (s *Service) CreateLoan(ctx context.Context, borrowerID string, req CreateLoanRequest) (*LoanResponse, error) {
	if borrowerID == "" {
		return nil, apierr.ErrInvalid("borrower is required")
	}

	now := s.clock.Now()
	dueDate, err := s.resolveDueDate(now, req)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	book, err := books.LockByULIDTx(ctx, tx, req.BookULID)
	if err != nil {
		return nil, err
	}

	hasActive, err := HasActiveLoanTx(ctx, tx, book.BookID, borrowerID)
	if err != nil {
		return nil, err
	}

	if d := policy.CanBorrow(book, hasActive); !d.Allowed {
		err = d.Err()
		return nil, err
	}

	if err = books.AdjustAvailabilityTx(ctx, tx, book.BookID, -1); err != nil {
		return nil, err
	}

	loan := &Loan{
		LoanULID:   s.id.NewULID(now),
		BookID:     book.BookID,
		BorrowerID: borrowerID,
		LoanDate:   now,
		DueDate:    dueDate,
		Status:     StatusActive,
	}
	if err = InsertLoanTx(ctx, tx, loan); err != nil {
		if platformdb.IsDuplicateKey(err) {
			// the unique active-loan key caught a race the pre-check missed
			err = apierr.New(apierr.CodeAlreadyBorrowed, "borrower already holds an active loan of this book")
		}
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	row, err := s.store.GetRow(ctx, loan.LoanID)
	if err != nil {
		return nil, err
	}
	resp := buildLoanResponse(row)
	return &resp, nil
}

// ReturnLoan closes a loan, puts the copy back on the shelf and, in the same
// transaction, hands it to the oldest eligible reservation. Doing the
// promotion inside the return transaction means a freed copy can never be
// snatched by a direct borrow ahead of the queue.
func (s *Service) ReturnLoan(ctx context.Context, callerID string, isAdmin bool, loanULID string) (*LoanResponse, error) {
	now := s.clock.Now()

	tx, err := s.store.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	loan, err := LockByULIDTx(ctx, tx, loanULID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && loan.BorrowerID != callerID {
		err = apierr.ErrForbidden("not your loan")
		return nil, err
	}
	if loan.Status == StatusReturned {
		err = apierr.New(apierr.CodeAlreadyReturned, "loan already returned")
		return nil, err
	}

	if err = MarkReturnedTx(ctx, tx, loan.LoanID, now); err != nil {
		return nil, err
	}

	book, err := books.LockByIDTx(ctx, tx, loan.BookID)
	if err != nil {
		return nil, err
	}
	if err = books.AdjustAvailabilityTx(ctx, tx, book.BookID, 1); err != nil {
		return nil, err
	}

	if err = s.promoteNextTx(ctx, tx, book, now); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	row, err := s.store.GetRow(ctx, loan.LoanID)
	if err != nil {
		return nil, err
	}
	resp := buildLoanResponse(row)
	return &resp, nil
}

// promoteNextTx converts the oldest active reservation of the book into a
// loan: the reservation becomes fulfilled, a loan is inserted for its holder
// and the just-freed copy is taken off the shelf again, netting availability
// back to zero. A book that is deleted or status-blocked keeps its queue
// untouched; the copy simply stays on the shelf.
func (s *Service) promoteNextTx(ctx context.Context, tx platformdb.DBTX, book *books.Book, now time.Time) error {
	if book.DeletedAt.Valid || book.Status != books.StatusAvailable {
		return nil
	}

	candidates, err := ActiveReservationCandidatesTx(ctx, tx, book.BookID, promoteScanLimit)
	if err != nil {
		return err
	}

	for _, cand := range candidates {
		// a holder who somehow already has this book open keeps their place
		// but is skipped for this copy
		hasActive, err := HasActiveLoanTx(ctx, tx, book.BookID, cand.BorrowerID)
		if err != nil {
			return err
		}
		if hasActive {
			log.Printf("[WARN] reservation %d skipped: holder already has an open loan", cand.ReservationID)
			continue
		}

		if err := MarkReservationFulfilledTx(ctx, tx, cand.ReservationID, now); err != nil {
			return err
		}
		promoted := &Loan{
			LoanULID:   s.id.NewULID(now),
			BookID:     book.BookID,
			BorrowerID: cand.BorrowerID,
			LoanDate:   now,
			DueDate:    now.AddDate(0, 0, s.durationDays),
			Status:     StatusActive,
		}
		if err := InsertLoanTx(ctx, tx, promoted); err != nil {
			return err
		}
		return books.AdjustAvailabilityTx(ctx, tx, book.BookID, -1)
	}
	return nil
}

// ReclassifyOverdue is the batch sweep flipping past-due active loans to
// overdue. Safe to run repeatedly.
func (s *Service) ReclassifyOverdue(ctx context.Context) (SweepResponse, error) {
	n, err := s.store.ReclassifyOverdue(ctx, s.clock.Now())
	if err != nil {
		return SweepResponse{}, err
	}
	return SweepResponse{Reclassified: n}, nil
}

func (s *Service) ListMine(ctx context.Context, borrowerID string, p Page) (ListLoansResponse, error) {
	f := LoanFilter{BorrowerID: &borrowerID}
	return s.list(ctx, f, p)
}

func (s *Service) ListAll(ctx context.Context, f LoanFilter, p Page) (ListLoansResponse, error) {
	return s.list(ctx, f, p)
}

func (s *Service) list(ctx context.Context, f LoanFilter, p Page) (ListLoansResponse, error) {
	if f.Status != nil {
		switch *f.Status {
		case StatusActive, StatusReturned, StatusOverdue:
		default:
			return ListLoansResponse{}, apierr.ErrInvalid("unknown loan status")
		}
	}
	rows, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return ListLoansResponse{}, err
	}
	out := ListLoansResponse{Loans: make([]LoanResponse, 0, len(rows)), Total: total}
	for i := range rows {
		out.Loans = append(out.Loans, buildLoanResponse(&rows[i]))
	}
	return out, nil
}

func (s *Service) resolveDueDate(now time.Time, req CreateLoanRequest) (time.Time, error) {
	if req.DueDate != nil && *req.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return time.Time{}, apierr.ErrInvalid("invalid due_date format, expected YYYY-MM-DD")
		}
		if !parsed.After(now) {
			return time.Time{}, apierr.ErrInvalid("due_date must be in the future")
		}
		return parsed, nil
	}
	days := s.durationDays
	if req.DurationDays != nil {
		if *req.DurationDays <= 0 {
			return time.Time{}, apierr.ErrInvalid("duration_days must be > 0")
		}
		days = *req.DurationDays
	}
	return now.AddDate(0, 0, days), nil
}
