package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/domain"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/metrics"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/store"
	"github.com/aussiebroadwan/tickbox/pkg/cryptox"
	"github.com/aussiebroadwan/tickbox/pkg/idx"
	"github.com/aussiebroadwan/tickbox/pkg/slogx"
)

const MinPasswordLength = 6

type UserService struct {
	Store        store.Store
	DefaultRoles []string // granted to every new user
	Metrics      *metrics.Collector
	Now          func() time.Time
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// Register creates a user whose username is their email address. Every
// broken rule is reported in one *ValidationError.
func (s *UserService) Register(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.register(ctx, strings.TrimSpace(email), password)

	switch {
	case err == nil:
		s.Metrics.RecordRegistration("success")
	case errors.Is(err, ErrValidation):
		s.Metrics.RecordRegistration("validation_error")
	default:
		s.Metrics.RecordRegistration("error")
	}
	return u, err
}

func (s *UserService) register(ctx context.Context, email, password string) (domain.User, error) {
	verr := &ValidationError{}
	validateEmail(verr, email)
	validatePassword(verr, password)

	if email != "" {
		if err := s.checkDuplicates(ctx, verr, email); err != nil {
			return domain.User{}, err
		}
	}
	if err := verr.err(); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	stamp, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	now = now.UTC().Truncate(time.Microsecond)

	u := domain.User{
		ID:            idx.NewAt(now).String(),
		Username:      email,
		Email:         email,
		PasswordHash:  hash,
		SecurityStamp: stamp,
		Roles:         append([]string(nil), s.DefaultRoles...),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, u)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost a race with a concurrent registration.
		verr.add("email", CodeDuplicateUserName, fmt.Sprintf("Username '%s' is already taken.", email))
		return domain.User{}, verr
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", u.ID)
	return u, nil
}

func (s *UserService) checkDuplicates(ctx context.Context, verr *ValidationError, email string) error {
	users := s.Store.Users()

	_, err := users.GetUserByUsername(ctx, email)
	switch {
	case err == nil:
		verr.add("email", CodeDuplicateUserName, fmt.Sprintf("Username '%s' is already taken.", email))
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	_, err = users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		verr.add("email", CodeDuplicateEmail, fmt.Sprintf("Email '%s' is already taken.", email))
	case !errors.Is(err, store.ErrNotFound):
		return err
	}
	return nil
}

func validateEmail(verr *ValidationError, email string) {
	if email == "" {
		verr.add("email", CodeRequired, "The Email field is required.")
		return
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		verr.add("email", CodeInvalidEmail, fmt.Sprintf("Email '%s' is invalid.", email))
	}
}

func validatePassword(verr *ValidationError, password string) {
	if password == "" {
		verr.add("password", CodeRequired, "The Password field is required.")
		return
	}

	var digit, lower, upper, other bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			other = true
		}
	}

	if len([]rune(password)) < MinPasswordLength {
		verr.add("password", CodePasswordTooShort, fmt.Sprintf("Passwords must be at least %d characters.", MinPasswordLength))
	}
	if !other {
		verr.add("password", CodePasswordRequiresNonAl, "Passwords must have at least one non alphanumeric character.")
	}
	if !digit {
		verr.add("password", CodePasswordRequiresDigit, "Passwords must have at least one digit ('0'-'9').")
	}
	if !lower {
		verr.add("password", CodePasswordRequiresLower, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if !upper {
		verr.add("password", CodePasswordRequiresUpper, "Passwords must have at least one uppercase ('A'-'Z').")
	}
}
