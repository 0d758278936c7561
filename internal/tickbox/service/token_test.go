package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/domain"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/metrics"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/store"
	"github.com/aussiebroadwan/tickbox/pkg/cryptox"
	"github.com/aussiebroadwan/tickbox/pkg/idx"
	"github.com/aussiebroadwan/tickbox/pkg/jwtx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func passwordGrant(username, password string, scopes ...string) domain.GrantRequest {
	return domain.GrantRequest{
		GrantType: domain.GrantTypePassword,
		Username:  username,
		Password:  password,
		Scopes:    scopes,
	}
}

func refreshGrant(token string, scopes ...string) domain.GrantRequest {
	return domain.GrantRequest{
		GrantType:    domain.GrantTypeRefreshToken,
		RefreshToken: token,
		Scopes:       scopes,
	}
}

func TestPasswordGrant(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := newTokenService(t, s, nil)
	u := registerUser(t, s, "alice@example.com")

	t.Run("subject is the user id", func(t *testing.T) {
		pair, err := svc.Issue(ctx, passwordGrant("alice@example.com", testPassword))
		require.NoError(t, err)
		require.Equal(t, TokenTypeBearer, pair.TokenType)
		require.Equal(t, jwtx.DefaultAccessTokenTTL, pair.ExpiresIn)

		claims, err := svc.Keys.Verifier().Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, u.ID, claims.Subject)
		require.Equal(t, testIssuer, claims.Issuer)
		require.Contains(t, claims.Audience, testAudience)
	})

	t.Run("unknown user and wrong password look the same", func(t *testing.T) {
		_, errUnknown := svc.Issue(ctx, passwordGrant("nobody@example.com", testPassword))
		_, errWrong := svc.Issue(ctx, passwordGrant("alice@example.com", "Wrong1!!"))

		require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		require.ErrorIs(t, errWrong, ErrInvalidCredentials)
		require.Equal(t, errUnknown, errWrong)
	})

	t.Run("refresh token only with offline_access", func(t *testing.T) {
		pair, err := svc.Issue(ctx, passwordGrant("alice@example.com", testPassword, "email"))
		require.NoError(t, err)
		require.Empty(t, pair.RefreshToken)
		require.Empty(t, pair.IDToken)

		pair, err = svc.Issue(ctx, passwordGrant("alice@example.com", testPassword, "offline_access"))
		require.NoError(t, err)
		require.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("unknown scopes are dropped", func(t *testing.T) {
		pair, err := svc.Issue(ctx, passwordGrant("alice@example.com", testPassword, "admin", "profile", "profile"))
		require.NoError(t, err)
		require.Equal(t, "profile", pair.Scope)
	})
}

func TestUnsupportedGrantType(t *testing.T) {
	s := newTestStore(t)
	svc := newTokenService(t, s, nil)
	reg := prometheus.NewRegistry()
	svc.Metrics = metrics.NewCollector(reg)

	_, err := svc.Issue(context.Background(), domain.GrantRequest{GrantType: "client_credentials"})
	require.ErrorIs(t, err, ErrUnsupportedGrantType)

	count, err := testutil.GatherAndCount(reg, "tickbox_token_requests_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRefreshGrant(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := newTokenService(t, s, nil)
	u := registerUser(t, s, "alice@example.com")

	login := func(t *testing.T, scopes ...string) *domain.TokenPair {
		t.Helper()
		pair, err := svc.Issue(ctx, passwordGrant("alice@example.com", testPassword, scopes...))
		require.NoError(t, err)
		return pair
	}

	t.Run("new access token keeps the subject", func(t *testing.T) {
		first := login(t, "offline_access", "profile")

		pair, err := svc.Issue(ctx, refreshGrant(first.RefreshToken))
		require.NoError(t, err)
		require.NotEqual(t, first.AccessToken, pair.AccessToken)
		require.Equal(t, "offline_access profile", pair.Scope)

		claims, err := svc.Keys.Verifier().Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, u.ID, claims.Subject)
	})

	t.Run("refresh tokens rotate", func(t *testing.T) {
		first := login(t, "offline_access")

		second, err := svc.Issue(ctx, refreshGrant(first.RefreshToken))
		require.NoError(t, err)
		require.NotEqual(t, first.RefreshToken, second.RefreshToken)

		_, err = svc.Issue(ctx, refreshGrant(first.RefreshToken))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("requested scopes narrow the original grant", func(t *testing.T) {
		first := login(t, "offline_access", "email", "profile")

		pair, err := svc.Issue(ctx, refreshGrant(first.RefreshToken, "email", "roles"))
		require.NoError(t, err)
		require.Equal(t, "email", pair.Scope)
		require.Empty(t, pair.RefreshToken)
	})

	t.Run("tampered token", func(t *testing.T) {
		first := login(t, "offline_access")

		_, err := svc.Issue(ctx, refreshGrant(first.RefreshToken+"x"))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := svc.Issue(ctx, refreshGrant(""))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		first := login(t, "offline_access")

		svc.Now = func() time.Time { return time.Now().Add(jwtx.DefaultRefreshTokenTTL + time.Minute) }
		defer func() { svc.Now = nil }()

		_, err := svc.Issue(ctx, refreshGrant(first.RefreshToken))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("access token presented as refresh token", func(t *testing.T) {
		first := login(t)

		_, err := svc.Issue(ctx, refreshGrant(first.AccessToken))
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRefreshGrantOutcomes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	registry := newMemTokens()
	svc := newTokenService(t, s, registry)

	t.Run("missing subject", func(t *testing.T) {
		opaque := "orphaned-refresh-token"
		require.NoError(t, registry.CreateToken(ctx, domain.Token{
			ID:        idx.New().String(),
			Kind:      domain.TokenKindRefresh,
			Hash:      cryptox.FingerprintToken(opaque),
			ExpiresAt: time.Now().Add(time.Hour),
		}))

		_, err := svc.Issue(ctx, refreshGrant(opaque))
		require.ErrorIs(t, err, ErrInvalidSubject)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("user deleted after issuance", func(t *testing.T) {
		u := registerUser(t, s, "gone@example.com")
		pair, err := svc.Issue(ctx, passwordGrant("gone@example.com", testPassword, "offline_access"))
		require.NoError(t, err)

		require.NoError(t, s.Users().DeleteUser(ctx, u.ID))

		_, err = svc.Issue(ctx, refreshGrant(pair.RefreshToken))
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

// slowLookups widens the window between reading a refresh token and
// spending it.
type slowLookups struct {
	store.Tokens
}

func (s slowLookups) GetTokenByHash(ctx context.Context, hash string) (domain.Token, error) {
	time.Sleep(20 * time.Millisecond)
	return s.Tokens.GetTokenByHash(ctx, hash)
}

// brokenRotation fails every rotation without touching the registry.
type brokenRotation struct {
	store.Tokens
}

func (brokenRotation) RotateToken(context.Context, string, ...domain.Token) error {
	return errors.New("registry unavailable")
}

func TestRefreshGrantSpendsTokenOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	registerUser(t, s, "alice@example.com")
	svc := newTokenService(t, s, slowLookups{Tokens: s.Tokens()})

	first, err := svc.Issue(ctx, passwordGrant("alice@example.com", testPassword, "offline_access"))
	require.NoError(t, err)

	const attempts = 5
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Issue(ctx, refreshGrant(first.RefreshToken))
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, ErrInvalidToken)
	}
	require.Equal(t, 1, wins)
}

func TestRefreshGrantKeepsTokenWhenRotationFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	registerUser(t, s, "alice@example.com")
	svc := newTokenService(t, s, nil)

	first, err := svc.Issue(ctx, passwordGrant("alice@example.com", testPassword, "offline_access"))
	require.NoError(t, err)

	broken := *svc
	broken.Tokens = brokenRotation{Tokens: s.Tokens()}
	_, err = broken.Issue(ctx, refreshGrant(first.RefreshToken))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidToken)

	pair, err := svc.Issue(ctx, refreshGrant(first.RefreshToken))
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshToken)
}

func TestClaimRouting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := newTokenService(t, s, nil)
	u := registerUser(t, s, "alice@example.com")

	t.Run("profile scope puts name in the identity token only", func(t *testing.T) {
		pair, err := svc.Issue(ctx, passwordGrant("alice@example.com", testPassword, "openid", "profile"))
		require.NoError(t, err)
		require.NotEmpty(t, pair.IDToken)

		id, err := svc.Keys.Verifier().Verify(pair.IDToken)
		require.NoError(t, err)
		require.Equal(t, u.ID, id.Subject)
		require.Equal(t, "alice@example.com", id.Name)
		require.Empty(t, id.Email)
		require.Empty(t, id.Roles)
		require.Equal(t, []string{testAudience}, []string(id.Audience))
	})

	t.Run("no profile scopes leaves the identity token bare", func(t *testing.T) {
		pair, err := svc.Issue(ctx, passwordGrant("alice@example.com", testPassword, "openid"))
		require.NoError(t, err)

		id, err := svc.Keys.Verifier().Verify(pair.IDToken)
		require.NoError(t, err)
		require.Equal(t, u.ID, id.Subject)
		require.Empty(t, id.Name)
		require.Empty(t, id.Email)
		require.Empty(t, id.Roles)
	})

	t.Run("access token always carries name email and roles", func(t *testing.T) {
		for _, scopes := range [][]string{nil, {"profile"}, {"openid", "email", "roles"}} {
			pair, err := svc.Issue(ctx, passwordGrant("alice@example.com", testPassword, scopes...))
			require.NoError(t, err)

			access, err := svc.Keys.Verifier().Verify(pair.AccessToken)
			require.NoError(t, err)
			require.Equal(t, "alice@example.com", access.Name)
			require.Equal(t, "alice@example.com", access.Email)
			require.Equal(t, []string{"user"}, access.Roles)
		}
	})

	t.Run("identity token audience is the client id", func(t *testing.T) {
		req := passwordGrant("alice@example.com", testPassword, "openid", "email", "roles")
		req.ClientID = "tickbox-web"

		pair, err := svc.Issue(ctx, req)
		require.NoError(t, err)

		id, err := svc.Keys.Verifier().Verify(pair.IDToken)
		require.NoError(t, err)
		require.Equal(t, []string{"tickbox-web"}, []string(id.Audience))
		require.Equal(t, "alice@example.com", id.Email)
		require.Equal(t, []string{"user"}, id.Roles)
	})
}

func TestAccessTokenRegistry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := newTokenService(t, s, nil)
	registerUser(t, s, "alice@example.com")

	pair, err := svc.Issue(ctx, passwordGrant("alice@example.com", testPassword, "offline_access", "openid"))
	require.NoError(t, err)

	access, err := svc.Keys.Verifier().Verify(pair.AccessToken)
	require.NoError(t, err)

	t.Run("issued access token is active", func(t *testing.T) {
		ok, err := svc.IsActive(ctx, access)
		require.NoError(t, err)
		require.True(t, ok)

		info, err := svc.Introspect(ctx, pair.AccessToken)
		require.NoError(t, err)
		require.True(t, info.Active)
		require.Equal(t, domain.TokenKindAccess, info.TokenType)
		require.Equal(t, access.Subject, info.Subject)
		require.Equal(t, "alice@example.com", info.Username)
	})

	t.Run("identity token is never active as an access token", func(t *testing.T) {
		id, err := svc.Keys.Verifier().Verify(pair.IDToken)
		require.NoError(t, err)

		ok, err := svc.IsActive(ctx, id)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("refresh token introspection", func(t *testing.T) {
		info, err := svc.Introspect(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.True(t, info.Active)
		require.Equal(t, domain.TokenKindRefresh, info.TokenType)
	})

	t.Run("revoked tokens are inactive", func(t *testing.T) {
		require.NoError(t, svc.Revoke(ctx, pair.AccessToken))
		require.NoError(t, svc.Revoke(ctx, pair.RefreshToken))

		ok, err := svc.IsActive(ctx, access)
		require.NoError(t, err)
		require.False(t, ok)

		info, err := svc.Introspect(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.False(t, info.Active)

		_, err = svc.Issue(ctx, refreshGrant(pair.RefreshToken))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown tokens", func(t *testing.T) {
		require.NoError(t, svc.Revoke(ctx, "not-a-token"))

		info, err := svc.Introspect(ctx, "not-a-token")
		require.NoError(t, err)
		require.False(t, info.Active)
	})
}
