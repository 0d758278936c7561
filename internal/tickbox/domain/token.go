package domain

import "time"

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access_token"
	TokenKindRefresh TokenKind = "refresh_token"
)

// Token is a registry entry for an issued token. Access tokens are keyed by
// their jti, refresh tokens are found by the fingerprint of their secret.
type Token struct {
	ID        string
	Kind      TokenKind
	Subject   string
	Hash      string // refresh tokens only
	Scopes    []string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Active reports whether the token can still be used at now.
func (t Token) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// TokenPair is what the token endpoint returns.
type TokenPair struct {
	AccessToken  string
	RefreshToken string // empty unless offline_access was granted
	IDToken      string // empty unless openid was granted
	TokenType    string
	ExpiresIn    time.Duration
	Scope        string // space-delimited
}
