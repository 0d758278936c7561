package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/domain"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/store"
)

type tokensRepo struct {
	q querier
}

const tokenColumns = `id, kind, subject, hash, scopes, expires_at, revoked, created_at`

func scanToken(row rowScanner) (domain.Token, error) {
	var (
		t      domain.Token
		kind   string
		hash   sql.NullString
		scopes string
	)
	if err := row.Scan(&t.ID, &kind, &t.Subject, &hash, &scopes, &t.ExpiresAt, &t.Revoked, &t.CreatedAt); err != nil {
		return domain.Token{}, err
	}
	t.Kind = domain.TokenKind(kind)
	t.Hash = mapNullString(hash)
	t.Scopes = splitScopes(scopes)
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tokens (`+tokenColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Kind), t.Subject, mapStringNull(t.Hash), joinScopes(t.Scopes),
		t.ExpiresAt.UTC(), t.Revoked, t.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *tokensRepo) GetTokenByID(ctx context.Context, id string) (domain.Token, error) {
	t, err := scanToken(r.q.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE id = ?`, id))
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return t, nil
}

func (r *tokensRepo) GetTokenByHash(ctx context.Context, hash string) (domain.Token, error) {
	t, err := scanToken(r.q.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE hash = ?`, hash))
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return t, nil
}

func (r *tokensRepo) RevokeToken(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE tokens SET revoked = 1 WHERE id = ?`, id)
	return err
}

func (r *tokensRepo) RotateToken(ctx context.Context, id string, issued ...domain.Token) error {
	return inTx(ctx, r.q, func(q querier) error {
		res, err := q.ExecContext(ctx, `UPDATE tokens SET revoked = 1 WHERE id = ? AND revoked = 0`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrTokenSpent
		}

		repo := &tokensRepo{q: q}
		for _, t := range issued {
			if err := repo.CreateToken(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *tokensRepo) RevokeSubjectTokens(ctx context.Context, subject string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE tokens SET revoked = 1 WHERE subject = ? AND revoked = 0`, subject)
	return err
}

func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
