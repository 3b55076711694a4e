package books

import (
	"context"
	"crypto/rand"
	"database/sql"
	"strings"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"biblio-backend/internal/platform/apierr"
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

func (s *Service) Create(ctx context.Context, in CreateBookRequest) (BookResponse, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" ||
		strings.TrimSpace(in.Specialization) == "" {
		return BookResponse{}, apierr.ErrInvalid("title, author and specialization are required")
	}
	if !ValidLocation(in.Location) {
		return BookResponse{}, apierr.ErrInvalid("location must be kamboinse or ouaga")
	}
	totalCopies := in.TotalCopies
	if totalCopies == 0 {
		totalCopies = 1
	}
	if totalCopies < 1 {
		return BookResponse{}, apierr.ErrInvalid("total_copies must be >= 1")
	}
	docType := DocTypePrinted
	if in.DocumentType != nil && *in.DocumentType != "" {
		if !ValidDocumentType(*in.DocumentType) {
			return BookResponse{}, apierr.ErrInvalid("unknown document_type")
		}
		docType = *in.DocumentType
	}

	b := &Book{
		BookULID:        s.id.NewULID(s.clock.Now()),
		Title:           strings.TrimSpace(in.Title),
		Author:          strings.TrimSpace(in.Author),
		DocumentType:    docType,
		Specialization:  strings.TrimSpace(in.Specialization),
		Location:        in.Location,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies, // a new title starts fully on the shelf
		Status:          StatusAvailable,
	}
	setNullStr(&b.ISBN, in.ISBN)
	setNullStr(&b.Publisher, in.Publisher)
	setNullStr(&b.Description, in.Description)
	setNullStr(&b.CoverURL, in.CoverURL)
	setNullStr(&b.Language, in.Language)
	if in.PublishedYear != nil {
		b.PublishedYear = sql.NullInt64{Int64: int64(*in.PublishedYear), Valid: true}
	}

	if err := s.store.Insert(ctx, b); err != nil {
		return BookResponse{}, err
	}
	b.CreatedAt = s.clock.Now()
	b.UpdatedAt = b.CreatedAt
	return buildBookResponse(b, 0, 0), nil
}

func (s *Service) Get(ctx context.Context, ulidStr string) (BookResponse, error) {
	b, err := s.store.GetByULID(ctx, ulidStr)
	if err != nil {
		return BookResponse{}, err
	}
	rating, n, err := s.store.Rating(ctx, b.BookID)
	if err != nil {
		return BookResponse{}, err
	}
	return buildBookResponse(b, rating, n), nil
}

func (s *Service) List(ctx context.Context, f ListFilter, p Page) (ListBooksResponse, error) {
	rows, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return ListBooksResponse{}, err
	}
	out := ListBooksResponse{Books: make([]BookResponse, 0, len(rows)), Total: total}
	for i := range rows {
		out.Books = append(out.Books, buildBookResponse(&rows[i].Book, rows[i].Rating, rows[i].ReviewCount))
	}
	return out, nil
}

// Update patches book fields. A total_copies change shifts available_copies by
// the same delta, then clamps it back into [0, total_copies].
func (s *Service) Update(ctx context.Context, ulidStr string, in UpdateBookRequest) (BookResponse, error) {
	if in.Status != nil && !ValidStatus(*in.Status) {
		return BookResponse{}, apierr.ErrInvalid("unknown status")
	}
	if in.Location != nil && !ValidLocation(*in.Location) {
		return BookResponse{}, apierr.ErrInvalid("location must be kamboinse or ouaga")
	}
	if in.DocumentType != nil && !ValidDocumentType(*in.DocumentType) {
		return BookResponse{}, apierr.ErrInvalid("unknown document_type")
	}
	if in.TotalCopies != nil && *in.TotalCopies < 1 {
		return BookResponse{}, apierr.ErrInvalid("total_copies must be >= 1")
	}

	tx, err := s.store.BeginTx(ctx, nil)
	if err != nil {
		return BookResponse{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := LockByULIDTx(ctx, tx, ulidStr)
	if err != nil {
		return BookResponse{}, err
	}

	if in.Title != nil {
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		b.Author = strings.TrimSpace(*in.Author)
	}
	setNullStr(&b.ISBN, in.ISBN)
	setNullStr(&b.Publisher, in.Publisher)
	setNullStr(&b.Description, in.Description)
	setNullStr(&b.CoverURL, in.CoverURL)
	setNullStr(&b.Language, in.Language)
	if in.PublishedYear != nil {
		b.PublishedYear = sql.NullInt64{Int64: int64(*in.PublishedYear), Valid: true}
	}
	if in.DocumentType != nil {
		b.DocumentType = *in.DocumentType
	}
	if in.Specialization != nil {
		b.Specialization = strings.TrimSpace(*in.Specialization)
	}
	if in.Location != nil {
		b.Location = *in.Location
	}
	if in.Status != nil {
		b.Status = *in.Status
	}
	if in.TotalCopies != nil && *in.TotalCopies != b.TotalCopies {
		delta := *in.TotalCopies - b.TotalCopies
		b.TotalCopies = *in.TotalCopies
		b.AvailableCopies += delta
		if b.AvailableCopies < 0 {
			b.AvailableCopies = 0
		}
		if b.AvailableCopies > b.TotalCopies {
			b.AvailableCopies = b.TotalCopies
		}
	}
	if b.Title == "" || b.Author == "" || b.Specialization == "" {
		err = apierr.ErrInvalid("title, author and specialization must not be empty")
		return BookResponse{}, err
	}

	if err = UpdateFieldsTx(ctx, tx, b); err != nil {
		return BookResponse{}, err
	}
	if err = tx.Commit(); err != nil {
		return BookResponse{}, err
	}

	rating, n, err := s.store.Rating(ctx, b.BookID)
	if err != nil {
		return BookResponse{}, err
	}
	b.UpdatedAt = s.clock.Now()
	return buildBookResponse(b, rating, n), nil
}

// Delete soft-deletes a book. Blocked while any loan on it is still open.
func (s *Service) Delete(ctx context.Context, ulidStr string) error {
	tx, err := s.store.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := LockByULIDTx(ctx, tx, ulidStr)
	if err != nil {
		return err
	}

	open, err := CountOpenLoansTx(ctx, tx, b.BookID)
	if err != nil {
		return err
	}
	if open > 0 {
		err = apierr.ErrConflict("book has open loans")
		return err
	}

	if err = MarkDeletedTx(ctx, tx, b.BookID); err != nil {
		return err
	}
	return tx.Commit()
}

func setNullStr(dst *sql.NullString, src *string) {
	if src == nil {
		return
	}
	if *src == "" {
		*dst = sql.NullString{}
		return
	}
	*dst = sql.NullString{String: *src, Valid: true}
}
