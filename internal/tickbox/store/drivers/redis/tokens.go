// Package redis keeps the token registry in Redis. Entries expire with the
// tokens they describe so the registry never outgrows the live token set.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/domain"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/store"
	"github.com/go-redis/redis/v8"
)

const defaultPrefix = "tickbox"

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // key namespace, defaults to "tickbox"
}

// Tokens implements store.Tokens.
type Tokens struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ store.Tokens = (*Tokens)(nil)

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Tokens, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewWithClient(client, opts.Prefix), nil
}

func NewWithClient(client *redis.Client, prefix string) *Tokens {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Tokens{client: client, prefix: prefix, now: time.Now}
}

func (r *Tokens) Close() error { return r.client.Close() }

func (r *Tokens) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *Tokens) tokenKey(id string) string    { return r.prefix + ":token:" + id }
func (r *Tokens) hashKey(hash string) string   { return r.prefix + ":token-hash:" + hash }
func (r *Tokens) subjectKey(sub string) string { return r.prefix + ":subject:" + sub }

type record struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"sub"`
	Hash      string    `json:"hash,omitempty"`
	Scopes    []string  `json:"scopes,omitempty"`
	ExpiresAt time.Time `json:"exp"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"iat"`
}

func toRecord(t domain.Token) record {
	return record{
		ID:        t.ID,
		Kind:      string(t.Kind),
		Subject:   t.Subject,
		Hash:      t.Hash,
		Scopes:    t.Scopes,
		ExpiresAt: t.ExpiresAt.UTC(),
		Revoked:   t.Revoked,
		CreatedAt: t.CreatedAt.UTC(),
	}
}

func (rec record) token() domain.Token {
	return domain.Token{
		ID:        rec.ID,
		Kind:      domain.TokenKind(rec.Kind),
		Subject:   rec.Subject,
		Hash:      rec.Hash,
		Scopes:    rec.Scopes,
		ExpiresAt: rec.ExpiresAt,
		Revoked:   rec.Revoked,
		CreatedAt: rec.CreatedAt,
	}
}

func (r *Tokens) CreateToken(ctx context.Context, t domain.Token) error {
	ttl := t.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		// Already expired: nothing would ever read it.
		return nil
	}

	data, err := json.Marshal(toRecord(t))
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.tokenKey(t.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if !ok {
		return store.ErrAlreadyExists
	}

	if t.Hash != "" {
		if err := r.client.Set(ctx, r.hashKey(t.Hash), t.ID, ttl).Err(); err != nil {
			return fmt.Errorf("failed to index token hash: %w", err)
		}
	}

	return r.indexSubject(ctx, t, ttl)
}

// indexSubject adds t to its subject's set. The set lives as long as its
// longest lived member.
func (r *Tokens) indexSubject(ctx context.Context, t domain.Token, ttl time.Duration) error {
	subKey := r.subjectKey(t.Subject)
	if err := r.client.SAdd(ctx, subKey, t.ID).Err(); err != nil {
		return fmt.Errorf("failed to index token subject: %w", err)
	}
	current, err := r.client.TTL(ctx, subKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read subject ttl: %w", err)
	}
	if current < ttl {
		if err := r.client.Expire(ctx, subKey, ttl).Err(); err != nil {
			return fmt.Errorf("failed to extend subject ttl: %w", err)
		}
	}
	return nil
}

func (r *Tokens) get(ctx context.Context, id string) (record, error) {
	data, err := r.client.Get(ctx, r.tokenKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return record{}, store.ErrNotFound
		}
		return record{}, fmt.Errorf("failed to get token: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return rec, nil
}

func (r *Tokens) GetTokenByID(ctx context.Context, id string) (domain.Token, error) {
	rec, err := r.get(ctx, id)
	if err != nil {
		return domain.Token{}, err
	}
	return rec.token(), nil
}

func (r *Tokens) GetTokenByHash(ctx context.Context, hash string) (domain.Token, error) {
	id, err := r.client.Get(ctx, r.hashKey(hash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Token{}, store.ErrNotFound
		}
		return domain.Token{}, fmt.Errorf("failed to get token by hash: %w", err)
	}
	return r.GetTokenByID(ctx, id)
}

func (r *Tokens) RevokeToken(ctx context.Context, id string) error {
	rec, err := r.get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if rec.Revoked {
		return nil
	}

	rec.Revoked = true
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	// XX so a token that expired in the meantime is not resurrected.
	if err := r.client.SetXX(ctx, r.tokenKey(id), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// RotateToken watches the entry for id, so a rotation racing this one makes
// the transaction fail instead of spending the token twice.
func (r *Tokens) RotateToken(ctx context.Context, id string, issued ...domain.Token) error {
	now := r.now()
	payloads := make([][]byte, len(issued))
	for i, t := range issued {
		data, err := json.Marshal(toRecord(t))
		if err != nil {
			return fmt.Errorf("failed to marshal token: %w", err)
		}
		payloads[i] = data
	}

	key := r.tokenKey(id)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return store.ErrTokenSpent
		}
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}

		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal token: %w", err)
		}
		if rec.Revoked {
			return store.ErrTokenSpent
		}

		rec.Revoked = true
		revoked, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal token: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetXX(ctx, key, revoked, redis.KeepTTL)
			for i, t := range issued {
				ttl := t.ExpiresAt.Sub(now)
				if ttl <= 0 {
					continue
				}
				pipe.SetNX(ctx, r.tokenKey(t.ID), payloads[i], ttl)
				if t.Hash != "" {
					pipe.Set(ctx, r.hashKey(t.Hash), t.ID, ttl)
				}
			}
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return store.ErrTokenSpent
	}
	if err != nil {
		return err
	}

	for _, t := range issued {
		if ttl := t.ExpiresAt.Sub(now); ttl > 0 {
			if err := r.indexSubject(ctx, t, ttl); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Tokens) RevokeSubjectTokens(ctx context.Context, subject string) error {
	ids, err := r.client.SMembers(ctx, r.subjectKey(subject)).Result()
	if err != nil {
		return fmt.Errorf("failed to list subject tokens: %w", err)
	}

	for _, id := range ids {
		if err := r.RevokeToken(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteExpiredTokens prunes subject index members whose token key has
// already expired. Redis drops the token keys themselves.
func (r *Tokens) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	var removed int64

	iter := r.client.Scan(ctx, 0, r.subjectKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		subKey := iter.Val()

		ids, err := r.client.SMembers(ctx, subKey).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to list subject tokens: %w", err)
		}

		for _, id := range ids {
			n, err := r.client.Exists(ctx, r.tokenKey(id)).Result()
			if err != nil {
				return removed, fmt.Errorf("failed to check token: %w", err)
			}
			if n > 0 {
				continue
			}
			if err := r.client.SRem(ctx, subKey, id).Err(); err != nil {
				return removed, fmt.Errorf("failed to prune token: %w", err)
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan subjects: %w", err)
	}

	return removed, nil
}
