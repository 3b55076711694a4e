package reservations

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"biblio-backend/internal/library_mgmt/books"
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

// ===== Service =====

type Service struct {
	db    *sql.DB
	store *Store
	clock Clock
	id    IDGen
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, store: NewStore(db), clock: realClock{}, id: ulidGen{}}
}

// Create queues a reservation. Reservations only exist for books with no
// copies on the shelf: when copies are free the caller must borrow directly,
// so the request fails with BOOK_AVAILABLE.
func (s *Service) Create(ctx context.Context, borrowerID string, req CreateReservationRequest) (*ReservationResponse, error) {
	if borrowerID == "" {
		return nil, apierr.ErrInvalid("borrower is required")
	}

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

	book, err := books.LockByULIDTx(ctx, tx, req.BookULID)
	if err != nil {
		return nil, err
	}
	if book.AvailableCopies > 0 {
		err = apierr.New(apierr.CodeBookAvailable, "copies are available, borrow the book directly")
		return nil, err
	}

	r := &Reservation{
		ReservationULID: s.id.NewULID(now),
		BookID:          book.BookID,
		BorrowerID:      borrowerID,
		ReservationDate: now,
		Status:          StatusActive,
	}
	if err = InsertTx(ctx, tx, r); err != nil {
		if platformdb.IsDuplicateKey(err) {
			err = apierr.New(apierr.CodeAlreadyReserved, "borrower already has an active reservation for this book")
		}
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	row, err := s.store.GetRow(ctx, r.ReservationID)
	if err != nil {
		return nil, err
	}
	resp := buildReservationResponse(row)
	return &resp, nil
}

// Cancel sets an active reservation to cancelled. Cancelling a reservation
// that is already cancelled or fulfilled is a no-op success, which keeps
// client retries simple.
func (s *Service) Cancel(ctx context.Context, callerID string, isAdmin bool, reservationULID string) error {
	tx, err := s.store.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	r, err := LockByULIDTx(ctx, tx, reservationULID)
	if err != nil {
		return err
	}
	if !isAdmin && r.BorrowerID != callerID {
		err = apierr.ErrForbidden("not your reservation")
		return err
	}

	if r.Status == StatusActive {
		if err = MarkCancelledTx(ctx, tx, r.ReservationID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Service) ListMine(ctx context.Context, borrowerID string, p Page) (ListReservationsResponse, error) {
	f := ReservationFilter{BorrowerID: &borrowerID}
	return s.list(ctx, f, p)
}

func (s *Service) ListAll(ctx context.Context, f ReservationFilter, p Page) (ListReservationsResponse, error) {
	return s.list(ctx, f, p)
}

// ListActiveForBook returns the live queue for one book, oldest first.
func (s *Service) ListActiveForBook(ctx context.Context, bookULID string, p Page) (ListReservationsResponse, error) {
	active := StatusActive
	p.Order = "asc"
	return s.list(ctx, ReservationFilter{BookULID: &bookULID, Status: &active}, p)
}

func (s *Service) list(ctx context.Context, f ReservationFilter, p Page) (ListReservationsResponse, error) {
	if f.Status != nil {
		switch *f.Status {
		case StatusActive, StatusCancelled, StatusFulfilled:
		default:
			return ListReservationsResponse{}, apierr.ErrInvalid("unknown reservation status")
		}
	}
	rows, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return ListReservationsResponse{}, err
	}
	out := ListReservationsResponse{Reservations: make([]ReservationResponse, 0, len(rows)), Total: total}
	for i := range rows {
		out.Reservations = append(out.Reservations, buildReservationResponse(&rows[i]))
	}
	return out, nil
}
