package reservations

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

// InsertTx inserts an active reservation. The uq_active_reservation key on
// (book_id, borrower_id, active_flag) is the authoritative duplicate guard;
// callers translate the duplicate-key error to ALREADY_RESERVED.
func InsertTx(ctx context.Context, tx platformdb.DBTX, r *Reservation) error {
	const q = `
	INSERT INTO reservations (reservation_ulid, book_id, borrower_id, reservation_date, status)
	VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		r.ReservationULID, r.BookID, r.BorrowerID, r.ReservationDate, r.Status)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	r.ReservationID = id
	return nil
}

// LockByULIDTx loads a reservation row under FOR UPDATE for cancellation.
func LockByULIDTx(ctx context.Context, tx platformdb.DBTX, ulid string) (*Reservation, error) {
	const q = `
	SELECT reservation_id, reservation_ulid, book_id, borrower_id, reservation_date, status, cancelled_at, fulfilled_at
	FROM reservations WHERE reservation_ulid = ? FOR UPDATE`
	var r Reservation
	err := tx.QueryRowContext(ctx, q, ulid).Scan(
		&r.ReservationID, &r.ReservationULID, &r.BookID, &r.BorrowerID,
		&r.ReservationDate, &r.Status, &r.CancelledAt, &r.FulfilledAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierr.ErrNotFound("reservation not found")
		}
		return nil, err
	}
	return &r, nil
}

func MarkCancelledTx(ctx context.Context, tx platformdb.DBTX, reservationID int64) error {
	const q = `
	UPDATE reservations SET status = 'cancelled', cancelled_at = NOW(6)
	WHERE reservation_id = ? AND status = 'active'`
	res, err := tx.ExecContext(ctx, q, reservationID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apierr.ErrInternal("failed to cancel reservation")
	}
	return nil
}

type reservationRow struct {
	Reservation
	BookULID      string
	BookTitle     string
	BorrowerName  string
	QueuePosition int
}

// queue_position counts older active reservations for the same book; zero for
// cancelled/fulfilled rows.
const reservationRowSelect = `
	SELECT
	r.reservation_id, r.reservation_ulid, r.book_id, r.borrower_id, r.reservation_date,
	r.status, r.cancelled_at, r.fulfilled_at,
	b.book_ulid, b.title,
	COALESCE(a.name, '') AS borrower_name,
	CASE WHEN r.status = 'active' THEN (
		SELECT COUNT(*) + 1 FROM reservations r2
		WHERE r2.book_id = r.book_id AND r2.status = 'active'
		  AND (r2.reservation_date < r.reservation_date
		       OR (r2.reservation_date = r.reservation_date AND r2.reservation_id < r.reservation_id))
	) ELSE 0 END AS queue_position
	FROM reservations r
	JOIN books b ON b.book_id = r.book_id
	LEFT JOIN accounts a ON a.email = r.borrower_id`

func scanReservationRow(rows *sql.Rows) (*reservationRow, error) {
	var r reservationRow
	err := rows.Scan(
		&r.ReservationID, &r.ReservationULID, &r.BookID, &r.BorrowerID, &r.ReservationDate,
		&r.Status, &r.CancelledAt, &r.FulfilledAt,
		&r.BookULID, &r.BookTitle, &r.BorrowerName, &r.QueuePosition,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetRow(ctx context.Context, reservationID int64) (*reservationRow, error) {
	q := reservationRowSelect + ` WHERE r.reservation_id = ?`
	rows, err := s.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, apierr.ErrNotFound("reservation not found")
	}
	return scanReservationRow(rows)
}

func (s *Store) List(ctx context.Context, f ReservationFilter, p Page) ([]reservationRow, int64, error) {
	sb := strings.Builder{}
	sb.WriteString(reservationRowSelect)
	sb.WriteString(` WHERE 1=1`)

	where, args := reservationConditions(f)
	sb.WriteString(where)

	order := "DESC"
	if strings.ToLower(p.Order) == "asc" {
		order = "ASC"
	}
	sb.WriteString(fmt.Sprintf(` ORDER BY r.reservation_date %s, r.reservation_id %s`, order, order))
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

	var out []reservationRow
	for rows.Next() {
		r, err := scanReservationRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	cntWhere, cntArgs := reservationConditions(f)
	var total int64
	cq := `SELECT COUNT(*) FROM reservations r JOIN books b ON b.book_id = r.book_id WHERE 1=1` + cntWhere
	if err := s.db.QueryRowContext(ctx, cq, cntArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func reservationConditions(f ReservationFilter) (string, []any) {
	sb := strings.Builder{}
	args := []any{}
	if f.BorrowerID != nil {
		sb.WriteString(` AND r.borrower_id = ?`)
		args = append(args, *f.BorrowerID)
	}
	if f.BookULID != nil {
		sb.WriteString(` AND b.book_ulid = ?`)
		args = append(args, *f.BookULID)
	}
	if f.Status != nil {
		sb.WriteString(` AND r.status = ?`)
		args = append(args, *f.Status)
	}
	return sb.String(), args
}
