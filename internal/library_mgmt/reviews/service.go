package reviews

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	ulid "github.com/oklog/ulid/v2"

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

// Create adds a review for a loan the caller holds. One review per loan; the
// loan must belong to the caller and reference the reviewed book.
func (s *Service) Create(ctx context.Context, borrowerID string, req CreateReviewRequest) (*ReviewResponse, error) {
	if !ValidRating(req.Rating) {
		return nil, apierr.New(apierr.CodeInvalidRating, "rating must be between 1 and 5")
	}

	ref, err := s.store.GetLoanRef(ctx, req.LoanULID)
	if err != nil {
		return nil, err
	}
	if ref.BorrowerID != borrowerID {
		return nil, apierr.ErrForbidden("loan belongs to another borrower")
	}
	if ref.BookULID != req.BookULID {
		return nil, apierr.ErrInvalid("loan does not reference this book")
	}

	r := &Review{
		ReviewULID: s.id.NewULID(s.clock.Now()),
		BookID:     ref.BookID,
		LoanID:     ref.LoanID,
		Rating:     req.Rating,
	}
	setNullStr(&r.Comment, req.Comment)

	if err := s.store.Insert(ctx, r); err != nil {
		if platformdb.IsDuplicateKey(err) {
			return nil, apierr.New(apierr.CodeDuplicate, "a review already exists for this loan")
		}
		return nil, err
	}

	row, err := s.store.GetByID(ctx, r.ReviewID)
	if err != nil {
		return nil, err
	}
	resp := buildReviewResponse(row)
	return &resp, nil
}

// Update edits the caller's own review. There is no admin override: staff
// cannot rewrite other people's opinions.
func (s *Service) Update(ctx context.Context, borrowerID string, reviewULID string, req UpdateReviewRequest) (*ReviewResponse, error) {
	if !ValidRating(req.Rating) {
		return nil, apierr.New(apierr.CodeInvalidRating, "rating must be between 1 and 5")
	}

	row, err := s.store.GetByULID(ctx, reviewULID)
	if err != nil {
		return nil, err
	}
	if row.BorrowerID != borrowerID {
		return nil, apierr.ErrForbidden("review belongs to another borrower")
	}

	var comment sql.NullString
	setNullStr(&comment, req.Comment)
	if err := s.store.Update(ctx, row.ReviewID, req.Rating, comment); err != nil {
		return nil, err
	}

	updated, err := s.store.GetByID(ctx, row.ReviewID)
	if err != nil {
		return nil, err
	}
	resp := buildReviewResponse(updated)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, borrowerID string, reviewULID string) error {
	row, err := s.store.GetByULID(ctx, reviewULID)
	if err != nil {
		return err
	}
	if row.BorrowerID != borrowerID {
		return apierr.ErrForbidden("review belongs to another borrower")
	}
	return s.store.Delete(ctx, row.ReviewID)
}

func (s *Service) GetByLoan(ctx context.Context, loanULID string) (*ReviewResponse, error) {
	row, err := s.store.GetByLoanULID(ctx, loanULID)
	if err != nil {
		return nil, err
	}
	resp := buildReviewResponse(row)
	return &resp, nil
}

func (s *Service) ListByBook(ctx context.Context, bookULID string, p Page) (ListReviewsResponse, error) {
	rows, total, err := s.store.ListByBook(ctx, bookULID, p)
	if err != nil {
		return ListReviewsResponse{}, err
	}
	out := ListReviewsResponse{Reviews: make([]ReviewResponse, 0, len(rows)), Total: total}
	for i := range rows {
		out.Reviews = append(out.Reviews, buildReviewResponse(&rows[i]))
	}
	return out, nil
}

func setNullStr(dst *sql.NullString, src *string) {
	if src == nil || *src == "" {
		*dst = sql.NullString{}
		return
	}
	*dst = sql.NullString{String: *src, Valid: true}
}
