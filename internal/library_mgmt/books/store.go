package books

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

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

const bookColumns = `
	b.book_id, b.book_ulid, b.title, b.author, b.isbn, b.publisher, b.published_year,
	b.description, b.cover_url, b.document_type, b.specialization, b.language, b.location,
	b.total_copies, b.available_copies, b.status, b.created_at, b.updated_at, b.deleted_at`

func scanBook(row interface{ Scan(...any) error }) (*Book, error) {
	var b Book
	err := row.Scan(
		&b.BookID, &b.BookULID, &b.Title, &b.Author, &b.ISBN, &b.Publisher, &b.PublishedYear,
		&b.Description, &b.CoverURL, &b.DocumentType, &b.Specialization, &b.Language, &b.Location,
		&b.TotalCopies, &b.AvailableCopies, &b.Status, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) Insert(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO books
	(book_ulid, title, author, isbn, publisher, published_year, description, cover_url,
	 document_type, specialization, language, location, total_copies, available_copies,
	 status, search_text, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(6), NOW(6))`

	res, err := s.db.ExecContext(ctx, q,
		b.BookULID, b.Title, b.Author, b.ISBN, b.Publisher, b.PublishedYear,
		b.Description, b.CoverURL, b.DocumentType, b.Specialization, b.Language, b.Location,
		b.TotalCopies, b.AvailableCopies, b.Status,
		SearchText(b.Title, b.Author, b.ISBN.String),
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	b.BookID = id
	return nil
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*Book, error) {
	q := `SELECT` + bookColumns + ` FROM books b WHERE b.book_ulid = ? AND b.deleted_at IS NULL`
	b, err := scanBook(s.db.QueryRowContext(ctx, q, ulid))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierr.ErrNotFound("book not found")
		}
		return nil, err
	}
	return b, nil
}

// Rating aggregates the review score for one book.
func (s *Store) Rating(ctx context.Context, bookID int64) (float64, int, error) {
	const q = `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE book_id = ?`
	var avg float64
	var n int
	if err := s.db.QueryRowContext(ctx, q, bookID).Scan(&avg, &n); err != nil {
		return 0, 0, err
	}
	return avg, n, nil
}

type bookRow struct {
	Book
	Rating      float64
	ReviewCount int
}

func (s *Store) List(ctx context.Context, f ListFilter, p Page) ([]bookRow, int64, error) {
	sb := strings.Builder{}
	sb.WriteString(`
	SELECT` + bookColumns + `,
	COALESCE(r.avg_rating, 0) AS rating,
	COALESCE(r.review_count, 0) AS review_count
	FROM books b
	LEFT JOIN (
	SELECT book_id, AVG(rating) AS avg_rating, COUNT(*) AS review_count FROM reviews GROUP BY book_id
	) r ON r.book_id = b.book_id
	WHERE b.deleted_at IS NULL
`)

	where, args := listConditions(f)
	sb.WriteString(where)

	order := "DESC"
	if strings.ToLower(p.Order) == "asc" {
		order = "ASC"
	}
	sb.WriteString(fmt.Sprintf(` ORDER BY b.created_at %s`, order))
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

	var out []bookRow
	for rows.Next() {
		var r bookRow
		if err := rows.Scan(
			&r.BookID, &r.BookULID, &r.Title, &r.Author, &r.ISBN, &r.Publisher, &r.PublishedYear,
			&r.Description, &r.CoverURL, &r.DocumentType, &r.Specialization, &r.Language, &r.Location,
			&r.TotalCopies, &r.AvailableCopies, &r.Status, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt,
			&r.Rating, &r.ReviewCount,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	cntWhere, cntArgs := listConditions(f)
	var total int64
	cq := `SELECT COUNT(*) FROM books b WHERE b.deleted_at IS NULL` + cntWhere
	if err := s.db.QueryRowContext(ctx, cq, cntArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func listConditions(f ListFilter) (string, []any) {
	sb := strings.Builder{}
	args := []any{}
	if q := Fold(f.Search); q != "" {
		sb.WriteString(` AND b.search_text LIKE ?`)
		args = append(args, "%"+q+"%")
	}
	if f.Specialization != nil {
		sb.WriteString(` AND b.specialization = ?`)
		args = append(args, *f.Specialization)
	}
	if f.Location != nil {
		sb.WriteString(` AND b.location = ?`)
		args = append(args, *f.Location)
	}
	if f.Status != nil {
		sb.WriteString(` AND b.status = ?`)
		args = append(args, *f.Status)
	}
	return sb.String(), args
}

// ---- Tx helpers shared with the loan and reservation packages ----

// LockByULIDTx loads a live book row under FOR UPDATE so copy counts cannot
// move under the caller's feet.
func LockByULIDTx(ctx context.Context, tx platformdb.DBTX, ulid string) (*Book, error) {
	q := `SELECT` + bookColumns + ` FROM books b WHERE b.book_ulid = ? AND b.deleted_at IS NULL FOR UPDATE`
	b, err := scanBook(tx.QueryRowContext(ctx, q, ulid))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierr.ErrNotFound("book not found")
		}
		return nil, err
	}
	return b, nil
}

// LockByIDTx is the internal-id variant used by the return flow, where the
// loan row already carries the numeric book id. Deleted books are still
// returned here: an open loan must remain returnable after a soft delete.
func LockByIDTx(ctx context.Context, tx platformdb.DBTX, id int64) (*Book, error) {
	q := `SELECT` + bookColumns + ` FROM books b WHERE b.book_id = ? FOR UPDATE`
	b, err := scanBook(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierr.ErrNotFound("book not found")
		}
		return nil, err
	}
	return b, nil
}

// AdjustAvailabilityTx applies available_copies += delta as a conditional
// update. A result that would fall outside [0, total_copies] fails instead of
// being clamped, so double-decrement bugs show up as errors.
func AdjustAvailabilityTx(ctx context.Context, tx platformdb.DBTX, bookID int64, delta int) error {
	if delta == 0 {
		return nil
	}
	const q = `
	UPDATE books
	SET available_copies = available_copies + ?, updated_at = NOW(6)
	WHERE book_id = ?
	  AND available_copies + ? BETWEEN 0 AND total_copies`
	res, err := tx.ExecContext(ctx, q, delta, bookID, delta)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff != 1 {
		return apierr.ErrConflict("copy count would leave [0, total_copies]")
	}
	return nil
}

// UpdateFieldsTx persists the full mutable column set of a locked book row.
func UpdateFieldsTx(ctx context.Context, tx platformdb.DBTX, b *Book) error {
	const q = `
	UPDATE books
	SET title = ?, author = ?, isbn = ?, publisher = ?, published_year = ?,
	    description = ?, cover_url = ?, document_type = ?, specialization = ?,
	    language = ?, location = ?, total_copies = ?, available_copies = ?,
	    status = ?, search_text = ?, updated_at = NOW(6)
	WHERE book_id = ?`
	res, err := tx.ExecContext(ctx, q,
		b.Title, b.Author, b.ISBN, b.Publisher, b.PublishedYear,
		b.Description, b.CoverURL, b.DocumentType, b.Specialization,
		b.Language, b.Location, b.TotalCopies, b.AvailableCopies,
		b.Status, SearchText(b.Title, b.Author, b.ISBN.String),
		b.BookID,
	)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.ErrInternal("failed to update book row")
	}
	return nil
}

// CountOpenLoansTx counts active/overdue loans referencing a book.
func CountOpenLoansTx(ctx context.Context, tx platformdb.DBTX, bookID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM loans WHERE book_id = ? AND status IN ('active', 'overdue')`
	var n int
	if err := tx.QueryRowContext(ctx, q, bookID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// MarkDeletedTx soft-deletes a book row. Loan history keeps referencing it.
func MarkDeletedTx(ctx context.Context, tx platformdb.DBTX, bookID int64) error {
	const q = `UPDATE books SET deleted_at = NOW(6), updated_at = NOW(6) WHERE book_id = ? AND deleted_at IS NULL`
	res, err := tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.ErrNotFound("book not found")
	}
	return nil
}
