package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Account struct {
	Email          string
	PasswordHash   string
	Name           string
	StudentNumber  string
	Specialization string
	Role           string
	IsDisabled     bool
	CreatedAt      time.Time
}

type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	Disable(ctx context.Context, email string) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) AccountStore {
	return &Store{db: db}
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*Account, error) {
	const q = `
SELECT email, password_hash, name, student_number, specialization, role, is_disabled, created_at
FROM accounts
WHERE email = ?
LIMIT 1
`
	var a Account
	var isDisabledInt int
	err := s.db.QueryRowContext(ctx, q, email).Scan(
		&a.Email,
		&a.PasswordHash,
		&a.Name,
		&a.StudentNumber,
		&a.Specialization,
		&a.Role,
		&isDisabledInt,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if isDisabledInt != 0 {
		a.IsDisabled = true
	}
	return &a, nil
}

func (s *Store) Create(ctx context.Context, a *Account) error {
	const q = `
INSERT INTO accounts (email, password_hash, name, student_number, specialization, role, is_disabled, created_at)
VALUES (?, ?, ?, ?, ?, ?, 0, NOW(6))
`
	_, err := s.db.ExecContext(ctx, q,
		a.Email, a.PasswordHash, a.Name, a.StudentNumber, a.Specialization, a.Role)
	return err
}

// Disable blocks future logins without deleting loan history.
func (s *Store) Disable(ctx context.Context, email string) (int64, error) {
	const q = `UPDATE accounts SET is_disabled = 1 WHERE email = ?`
	res, err := s.db.ExecContext(ctx, q, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
