package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	platformdb "biblio-backend/internal/platform/db"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrAuthFailed    = errors.New("authentication failed")
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"

	tokenTTL = 24 * time.Hour
)

type Service struct {
	store  AccountStore
	secret []byte
}

func NewService(db *sql.DB, secret []byte) *Service {
	return &Service{store: NewStore(db), secret: secret}
}

type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	StudentNumber  string
	Specialization string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	acct := &Account{
		Email:          in.Email,
		PasswordHash:   string(hash),
		Name:           in.Name,
		StudentNumber:  in.StudentNumber,
		Specialization: in.Specialization,
		Role:           RoleStudent,
	}
	if err := s.store.Create(ctx, acct); err != nil {
		if platformdb.IsDuplicateKey(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return acct, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, *Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	acct, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if acct == nil || acct.IsDisabled {
		return "", nil, ErrAuthFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthFailed
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  acct.Email,
		"role": acct.Role,
		"exp":  time.Now().Add(tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return tokenString, acct, nil
}

// Me resolves the account behind a verified token subject.
func (s *Service) Me(ctx context.Context, email string) (*Account, error) {
	acct, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrNotFound
	}
	return acct, nil
}
