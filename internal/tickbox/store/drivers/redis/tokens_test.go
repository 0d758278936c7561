package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/domain"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/store"
	"github.com/aussiebroadwan/tickbox/pkg/idx"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestRegistry starts a throwaway Redis container. Tests are skipped when
// no container runtime is available.
func newTestRegistry(t *testing.T) *Tokens {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })

	return NewWithClient(client, "test")
}

func TestTokensRegistry(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	now := time.Now().UTC()

	access := domain.Token{
		ID:        idx.New().String(),
		Kind:      domain.TokenKindAccess,
		Subject:   "user-1",
		Scopes:    []string{"openid"},
		ExpiresAt: now.Add(time.Minute),
		CreatedAt: now,
	}
	refresh := domain.Token{
		ID:        idx.New().String(),
		Kind:      domain.TokenKindRefresh,
		Subject:   "user-1",
		Hash:      "fingerprint",
		Scopes:    []string{"offline_access"},
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	require.NoError(t, r.CreateToken(ctx, access))
	require.NoError(t, r.CreateToken(ctx, refresh))

	t.Run("duplicate id", func(t *testing.T) {
		require.ErrorIs(t, r.CreateToken(ctx, access), store.ErrAlreadyExists)
	})

	t.Run("lookup by id and hash", func(t *testing.T) {
		got, err := r.GetTokenByID(ctx, access.ID)
		require.NoError(t, err)
		require.Equal(t, domain.TokenKindAccess, got.Kind)
		require.True(t, got.Active(now))

		got, err = r.GetTokenByHash(ctx, "fingerprint")
		require.NoError(t, err)
		require.Equal(t, refresh.ID, got.ID)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := r.GetTokenByHash(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("revoke keeps ttl", func(t *testing.T) {
		require.NoError(t, r.RevokeToken(ctx, access.ID))

		got, err := r.GetTokenByID(ctx, access.ID)
		require.NoError(t, err)
		require.True(t, got.Revoked)

		ttl, err := r.client.TTL(ctx, r.tokenKey(access.ID)).Result()
		require.NoError(t, err)
		require.Greater(t, ttl, time.Duration(0))
	})

	t.Run("revoke subject", func(t *testing.T) {
		require.NoError(t, r.RevokeSubjectTokens(ctx, "user-1"))

		got, err := r.GetTokenByID(ctx, refresh.ID)
		require.NoError(t, err)
		require.True(t, got.Revoked)
	})

	t.Run("purge prunes the subject index", func(t *testing.T) {
		require.NoError(t, r.client.Del(ctx, r.tokenKey(access.ID)).Err())

		n, err := r.DeleteExpiredTokens(ctx, time.Now())
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		ids, err := r.client.SMembers(ctx, r.subjectKey("user-1")).Result()
		require.NoError(t, err)
		require.Equal(t, []string{refresh.ID}, ids)
	})
}

func TestRotateTokenSpendsOnce(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	now := time.Now().UTC()

	refresh := func() domain.Token {
		id := idx.New().String()
		return domain.Token{
			ID:        id,
			Kind:      domain.TokenKindRefresh,
			Subject:   "user-2",
			Hash:      "hash-" + id,
			ExpiresAt: now.Add(time.Hour),
			CreatedAt: now,
		}
	}

	old := refresh()
	require.NoError(t, r.CreateToken(ctx, old))

	const attempts = 5
	issued := make([]domain.Token, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := range attempts {
		issued[i] = refresh()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.RotateToken(ctx, old.ID, issued[i])
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, store.ErrTokenSpent)
	}
	require.Equal(t, 1, wins)

	got, err := r.GetTokenByID(ctx, old.ID)
	require.NoError(t, err)
	require.True(t, got.Revoked)

	var registered int
	for _, next := range issued {
		if _, err := r.GetTokenByHash(ctx, next.Hash); err == nil {
			registered++
		}
	}
	require.Equal(t, 1, registered)

	t.Run("missing token", func(t *testing.T) {
		require.ErrorIs(t, r.RotateToken(ctx, "nope", refresh()), store.ErrTokenSpent)
	})
}
