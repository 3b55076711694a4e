package loans_test

// Full lifecycle tests against a real MySQL instance. They run only when
// LIBRARY_TEST_DSN is set, e.g.
//
//	LIBRARY_TEST_DSN="biblio:biblio@tcp(127.0.0.1:3306)/biblio_test?parseTime=true" go test ./...
//
// The target schema must already exist (schema.sql). Tables are wiped between
// tests, so never point the DSN at a real deployment.

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblio-backend/internal/library_mgmt/books"
	"biblio-backend/internal/library_mgmt/loans"
	"biblio-backend/internal/library_mgmt/reservations"
	"biblio-backend/internal/library_mgmt/reviews"
	"biblio-backend/internal/platform/apierr"
)

type fixture struct {
	db           *sql.DB
	books        *books.Service
	loans        *loans.Service
	reservations *reservations.Service
	reviews      *reviews.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := os.Getenv("LIBRARY_TEST_DSN")
	if dsn == "" {
		t.Skip("LIBRARY_TEST_DSN not set")
	}

	conn, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, conn.Ping())
	t.Cleanup(func() { conn.Close() })

	for _, table := range []string{"reviews", "loans", "reservations", "books", "accounts"} {
		_, err := conn.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}

	return &fixture{
		db:           conn,
		books:        books.NewService(conn),
		loans:        loans.NewService(conn, 14),
		reservations: reservations.NewService(conn),
		reviews:      reviews.NewService(conn),
	}
}

func (f *fixture) account(t *testing.T, email string) string {
	t.Helper()
	_, err := f.db.Exec(`
		INSERT INTO accounts (email, password_hash, name, role, is_disabled, created_at)
		VALUES (?, 'x', ?, 'student', 0, NOW(6))`, email, email)
	require.NoError(t, err)
	return email
}

func (f *fixture) book(t *testing.T, title string, copies int) string {
	t.Helper()
	resp, err := f.books.Create(context.Background(), books.CreateBookRequest{
		Title:          title,
		Author:         "Auteur Test",
		Specialization: "genie civil",
		Location:       books.LocationKamboinse,
		TotalCopies:    copies,
	})
	require.NoError(t, err)
	return resp.BookULID
}

func (f *fixture) availableCopies(t *testing.T, bookULID string) int {
	t.Helper()
	var n int
	err := f.db.QueryRow(
		"SELECT available_copies FROM books WHERE book_ulid = ?", bookULID).Scan(&n)
	require.NoError(t, err)
	return n
}

func assertCode(t *testing.T, err error, code apierr.Code) {
	t.Helper()
	var api *apierr.APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, code, api.Code)
}

func TestBorrowReturnRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice@2ie-edu.org")
	bookULID := f.book(t, "Hydraulique urbaine", 2)

	loan, err := f.loans.CreateLoan(ctx, alice, loans.CreateLoanRequest{BookULID: bookULID})
	require.NoError(t, err)
	assert.Equal(t, loans.StatusActive, loan.Status)
	assert.Equal(t, 1, f.availableCopies(t, bookULID))

	returned, err := f.loans.ReturnLoan(ctx, alice, false, loan.LoanULID)
	require.NoError(t, err)
	assert.Equal(t, loans.StatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, 2, f.availableCopies(t, bookULID))
}

func TestSecondActiveLoanRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice@2ie-edu.org")
	bookULID := f.book(t, "Statistique appliquee", 3)

	_, err := f.loans.CreateLoan(ctx, alice, loans.CreateLoanRequest{BookULID: bookULID})
	require.NoError(t, err)

	_, err = f.loans.CreateLoan(ctx, alice, loans.CreateLoanRequest{BookULID: bookULID})
	assertCode(t, err, apierr.CodeAlreadyBorrowed)
	assert.Equal(t, 2, f.availableCopies(t, bookULID))
}

func TestConcurrentBorrowOfLastCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bookULID := f.book(t, "Un seul exemplaire", 1)

	const workers = 8
	emails := make([]string, workers)
	for i := range emails {
		emails[i] = f.account(t, fmt.Sprintf("u%d@2ie-edu.org", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.loans.CreateLoan(ctx, emails[i], loans.CreateLoanRequest{BookULID: bookULID})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assertCode(t, err, apierr.CodeNoCopiesAvailable)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 0, f.availableCopies(t, bookULID))
}

func TestReturnPromotesOldestReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice@2ie-edu.org")
	bob := f.account(t, "bob@2ie-edu.org")
	carol := f.account(t, "carol@2ie-edu.org")
	bookULID := f.book(t, "Geotechnique", 1)

	loan, err := f.loans.CreateLoan(ctx, alice, loans.CreateLoanRequest{BookULID: bookULID})
	require.NoError(t, err)

	r1, err := f.reservations.Create(ctx, bob, reservations.CreateReservationRequest{BookULID: bookULID})
	require.NoError(t, err)
	r2, err := f.reservations.Create(ctx, carol, reservations.CreateReservationRequest{BookULID: bookULID})
	require.NoError(t, err)
	assert.Equal(t, 2, r2.QueuePosition)

	_, err = f.loans.ReturnLoan(ctx, alice, false, loan.LoanULID)
	require.NoError(t, err)

	// the freed copy went straight to bob
	assert.Equal(t, 0, f.availableCopies(t, bookULID))

	got, err := f.loans.ListMine(ctx, bob, loans.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, got.Loans, 1)
	assert.Equal(t, loans.StatusActive, got.Loans[0].Status)

	var status string
	require.NoError(t, f.db.QueryRow(
		"SELECT status FROM reservations WHERE reservation_ulid = ?", r1.ReservationULID).Scan(&status))
	assert.Equal(t, reservations.StatusFulfilled, status)

	// carol moved up to the head of the queue
	mine, err := f.reservations.ListMine(ctx, carol, reservations.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, mine.Reservations, 1)
	assert.Equal(t, 1, mine.Reservations[0].QueuePosition)
}

func TestReserveWhileCopiesAvailableRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice@2ie-edu.org")
	bookULID := f.book(t, "Encore en rayon", 2)

	_, err := f.reservations.Create(ctx, alice, reservations.CreateReservationRequest{BookULID: bookULID})
	assertCode(t, err, apierr.CodeBookAvailable)
}

func TestStatusVetoesBorrowDespiteCopies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice@2ie-edu.org")
	bookULID := f.book(t, "En restauration", 2)

	maintenance := books.StatusMaintenance
	_, err := f.books.Update(ctx, bookULID, books.UpdateBookRequest{Status: &maintenance})
	require.NoError(t, err)

	_, err = f.loans.CreateLoan(ctx, alice, loans.CreateLoanRequest{BookULID: bookULID})
	assertCode(t, err, apierr.CodeStatusBlocked)
}

func TestReturnOwnershipAndIdempotence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice@2ie-edu.org")
	f.account(t, "bob@2ie-edu.org")
	bookULID := f.book(t, "Topographie", 1)

	loan, err := f.loans.CreateLoan(ctx, alice, loans.CreateLoanRequest{BookULID: bookULID})
	require.NoError(t, err)

	_, err = f.loans.ReturnLoan(ctx, "bob@2ie-edu.org", false, loan.LoanULID)
	assertCode(t, err, apierr.CodeForbidden)

	_, err = f.loans.ReturnLoan(ctx, alice, false, loan.LoanULID)
	require.NoError(t, err)

	_, err = f.loans.ReturnLoan(ctx, alice, false, loan.LoanULID)
	assertCode(t, err, apierr.CodeAlreadyReturned)
	assert.Equal(t, 1, f.availableCopies(t, bookULID))
}

func TestOverdueSweepAndReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice@2ie-edu.org")
	bookULID := f.book(t, "Rendu en retard", 1)

	loan, err := f.loans.CreateLoan(ctx, alice, loans.CreateLoanRequest{BookULID: bookULID})
	require.NoError(t, err)

	_, err = f.db.Exec(
		"UPDATE loans SET due_date = DATE_SUB(NOW(6), INTERVAL 3 DAY) WHERE loan_ulid = ?", loan.LoanULID)
	require.NoError(t, err)

	res, err := f.loans.ReclassifyOverdue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Reclassified)

	// sweep is idempotent
	res, err = f.loans.ReclassifyOverdue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Reclassified)

	// an overdue loan can still be returned
	returned, err := f.loans.ReturnLoan(ctx, alice, false, loan.LoanULID)
	require.NoError(t, err)
	assert.Equal(t, loans.StatusReturned, returned.Status)
}

func TestReviewRequiresOwnLoanAndIsUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice@2ie-edu.org")
	bob := f.account(t, "bob@2ie-edu.org")
	bookULID := f.book(t, "Analyse numerique", 2)

	loan, err := f.loans.CreateLoan(ctx, alice, loans.CreateLoanRequest{BookULID: bookULID})
	require.NoError(t, err)

	req := reviews.CreateReviewRequest{BookULID: bookULID, LoanULID: loan.LoanULID, Rating: 4}

	_, err = f.reviews.Create(ctx, bob, req)
	assertCode(t, err, apierr.CodeForbidden)

	_, err = f.reviews.Create(ctx, alice, reviews.CreateReviewRequest{
		BookULID: bookULID, LoanULID: loan.LoanULID, Rating: 9,
	})
	assertCode(t, err, apierr.CodeInvalidRating)

	rv, err := f.reviews.Create(ctx, alice, req)
	require.NoError(t, err)
	assert.Equal(t, 4, rv.Rating)

	_, err = f.reviews.Create(ctx, alice, req)
	assertCode(t, err, apierr.CodeDuplicate)

	listed, err := f.reviews.ListByBook(ctx, bookULID, reviews.Page{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, listed.Reviews, 1)
}

func TestDeleteBookBlockedByOpenLoans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice@2ie-edu.org")
	bookULID := f.book(t, "A desherber", 1)

	loan, err := f.loans.CreateLoan(ctx, alice, loans.CreateLoanRequest{BookULID: bookULID})
	require.NoError(t, err)

	err = f.books.Delete(ctx, bookULID)
	assertCode(t, err, apierr.CodeConflict)

	_, err = f.loans.ReturnLoan(ctx, alice, false, loan.LoanULID)
	require.NoError(t, err)

	require.NoError(t, f.books.Delete(ctx, bookULID))

	// catalog no longer shows it
	_, err = f.books.Get(ctx, bookULID)
	assertCode(t, err, apierr.CodeNotFound)

	// loan history survives the soft delete
	mine, err := f.loans.ListMine(ctx, alice, loans.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, mine.Loans, 1)
	assert.Equal(t, loans.StatusReturned, mine.Loans[0].Status)
}

func TestCancelReservationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice@2ie-edu.org")
	bob := f.account(t, "bob@2ie-edu.org")
	bookULID := f.book(t, "File d'attente", 1)

	_, err := f.loans.CreateLoan(ctx, alice, loans.CreateLoanRequest{BookULID: bookULID})
	require.NoError(t, err)

	r, err := f.reservations.Create(ctx, bob, reservations.CreateReservationRequest{BookULID: bookULID})
	require.NoError(t, err)

	_, err = f.reservations.Create(ctx, bob, reservations.CreateReservationRequest{BookULID: bookULID})
	assertCode(t, err, apierr.CodeAlreadyReserved)

	err = f.reservations.Cancel(ctx, alice, false, r.ReservationULID)
	assertCode(t, err, apierr.CodeForbidden)

	require.NoError(t, f.reservations.Cancel(ctx, bob, false, r.ReservationULID))
	require.NoError(t, f.reservations.Cancel(ctx, bob, false, r.ReservationULID))
}
