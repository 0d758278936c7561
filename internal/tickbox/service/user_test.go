package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := &UserService{Store: s, DefaultRoles: []string{"user"}}

	t.Run("username is the email and default roles are granted", func(t *testing.T) {
		u, err := svc.Register(ctx, " alice@example.com ", testPassword)
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", u.Username)
		require.Equal(t, "alice@example.com", u.Email)
		require.NotEmpty(t, u.SecurityStamp)
		require.NotEqual(t, testPassword, u.PasswordHash)

		stored, err := svc.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"user"}, stored.Roles)
	})

	t.Run("duplicates are rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice@example.com", testPassword)
		require.ErrorIs(t, err, ErrValidation)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, []string{CodeDuplicateUserName, CodeDuplicateEmail}, fieldCodes(verr))
	})

	tests := []struct {
		name     string
		email    string
		password string
		want     []string
	}{
		{"missing everything", "", "", []string{CodeRequired, CodeRequired}},
		{"bad email", "not-an-email", testPassword, []string{CodeInvalidEmail}},
		{"display name form", "Bob <bob@example.com>", testPassword, []string{CodeInvalidEmail}},
		{"short", "c@example.com", "Ab1!", []string{CodePasswordTooShort}},
		{"no digit", "c@example.com", "Abcdef!", []string{CodePasswordRequiresDigit}},
		{"no lower", "c@example.com", "ABCDE1!", []string{CodePasswordRequiresLower}},
		{"no upper", "c@example.com", "abcde1!", []string{CodePasswordRequiresUpper}},
		{"no symbol", "c@example.com", "Abcde12", []string{CodePasswordRequiresNonAl}},
		{"all password rules", "c@example.com", "aaa", []string{
			CodePasswordTooShort, CodePasswordRequiresNonAl, CodePasswordRequiresDigit, CodePasswordRequiresUpper,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.want, fieldCodes(verr))
		})
	}
}

func TestGetUserByIDMissing(t *testing.T) {
	svc := &UserService{Store: newTestStore(t)}
	_, err := svc.GetUserByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func fieldCodes(verr *ValidationError) []string {
	codes := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		codes = append(codes, f.Code)
	}
	return codes
}
