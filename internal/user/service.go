// Package user manages accounts: signup, credential checks and profile maintenance.
package user

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/myrjola/aitrainer/internal/auth"
	"github.com/myrjola/aitrainer/internal/contexthelpers"
	"github.com/myrjola/aitrainer/internal/errors"
	"github.com/myrjola/aitrainer/internal/sqlite"
)

var (
	ErrNotFound           = errors.NewSentinel("user not found")
	ErrEmailTaken         = errors.NewSentinel("email already registered")
	ErrInvalidInput       = errors.NewSentinel("invalid input")
	ErrInvalidCredentials = errors.NewSentinel("invalid credentials")
)

// Service handles the business logic for user accounts.
type Service struct {
	repo   repository
	hasher *auth.PasswordHasher
	logger *slog.Logger
}

// NewService creates a new user service.
func NewService(db *sqlite.Database, hasher *auth.PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:   newSQLiteRepository(db),
		hasher: hasher,
		logger: logger,
	}
}

// Length limits in characters, matching the CHECK constraints of the users table.
const (
	maxEmailLength = 255
	maxNameLength  = 100
	maxPhoneLength = 30
	maxZipLength   = 20
	maxLongLength  = 255
)

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.Wrap(ErrInvalidInput, "malformed email", slog.String("email", email))
	}
	if utf8.RuneCountInString(email) > maxEmailLength {
		return "", errors.Wrap(ErrInvalidInput, "email too long")
	}
	return email, nil
}

// validate rejects profile fields the users table would not store.
func (p Profile) validate() error {
	for _, f := range []struct {
		name  string
		value *string
		limit int
	}{
		{"first_name", p.FirstName, maxNameLength},
		{"last_name", p.LastName, maxNameLength},
		{"username", p.Username, maxNameLength},
		{"phone", p.Phone, maxPhoneLength},
		{"address", p.Address, maxLongLength},
		{"zip_code", p.ZipCode, maxZipLength},
		{"country", p.Country, maxNameLength},
		{"profile_image", p.ProfileImage, maxLongLength},
	} {
		if f.value != nil && utf8.RuneCountInString(*f.value) > f.limit {
			return errors.Wrap(ErrInvalidInput, fmt.Sprintf("%s must be at most %d characters", f.name, f.limit))
		}
	}
	return nil
}

// Signup registers a new account and returns it.
func (s *Service) Signup(ctx context.Context, nu NewUser) (User, error) {
	var err error
	if nu.Email, err = normalizeEmail(nu.Email); err != nil {
		return User{}, err
	}
	if nu.Password == "" {
		return User{}, errors.Wrap(ErrInvalidInput, "empty password")
	}
	if err = nu.validate(); err != nil {
		return User{}, err
	}
	hash, err := s.hasher.HashPassword(nu.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.repo.create(ctx, nu, hash)
	if errors.Is(err, errUniqueViolation) {
		return User{}, ErrEmailTaken
	}
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "user signed up", slog.Int64("user_id", id))
	return s.repo.get(ctx, id)
}

// Authenticate returns the user matching email and password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.getByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	if !s.hasher.VerifyPassword(password, u.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// GetByEmail looks up a user by email. It is used to resolve token subjects.
func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := s.repo.getByEmail(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// Get returns the authenticated user.
func (s *Service) Get(ctx context.Context) (User, error) {
	u, err := s.repo.get(ctx, contexthelpers.AuthenticatedUserID(ctx))
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of p to the authenticated user and returns the result.
func (s *Service) UpdateProfile(ctx context.Context, p Profile) (User, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	if p.Username != nil && strings.TrimSpace(*p.Username) == "" {
		return User{}, errors.Wrap(ErrInvalidInput, "empty username")
	}
	if err := p.validate(); err != nil {
		return User{}, err
	}
	err := s.repo.updateProfile(ctx, userID, p)
	if errors.Is(err, errUniqueViolation) {
		return User{}, errors.Wrap(ErrInvalidInput, "username taken")
	}
	if err != nil {
		return User{}, fmt.Errorf("update profile: %w", err)
	}
	return s.repo.get(ctx, userID)
}

// ChangePassword replaces the authenticated user's password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) error {
	if newPassword == "" || newPassword != confirmPassword {
		return errors.Wrap(ErrInvalidInput, "new password and confirmation do not match")
	}
	u, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if !s.hasher.VerifyPassword(oldPassword, u.PasswordHash) {
		return ErrInvalidCredentials
	}
	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err = s.repo.updatePasswordHash(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Delete removes the authenticated user together with their workouts, insights and tip history.
// Diets are kept without an owner.
func (s *Service) Delete(ctx context.Context) error {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	if err := s.repo.delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "user deleted", slog.Int64("user_id", userID))
	return nil
}
