package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"lprime.com/licserver/internal/sqlite"
)

// DefaultCost is the bcrypt cost for new password hashes.
const DefaultCost = 12

type Service struct {
	repo Repository
	db   *sqlx.DB
	cost int
	now  func() time.Time
}

type Option func(*Service)

// WithCost sets the bcrypt cost (tests use bcrypt.MinCost).
func WithCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(db *sqlx.DB, opts ...Option) *Service {
	s := &Service{
		db:   db,
		repo: New(db),
		cost: DefaultCost,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	return s.repo.Get(ctx, id)
}

// Count returns the number of accounts, active or not.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Account, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(in.Password) < MinPasswordLen {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := in.Role
	if role == "" {
		role = RoleAdmin
	}

	now := s.now().UTC()
	a := &Account{
		AdminID:      uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Name:         in.Name,
		Email:        in.Email,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.repo.Create(ctx, tx, a)
	})
	if sqlite.IsUniqueConstraintError(err) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Authenticate returns the active account matching the credentials. Unknown
// users, inactive users and wrong passwords all yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	a, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !a.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	if len(next) < MinPasswordLen {
		return ErrPasswordTooShort
	}

	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(current)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.repo.UpdatePassword(ctx, tx, id, string(hash), s.now().UTC())
	})
}
