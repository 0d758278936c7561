package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/domain"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/metrics"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/store"
	"github.com/aussiebroadwan/tickbox/pkg/cryptox"
	"github.com/aussiebroadwan/tickbox/pkg/idx"
	"github.com/aussiebroadwan/tickbox/pkg/jwtx"
	"github.com/aussiebroadwan/tickbox/pkg/slogx"
)

const TokenTypeBearer = "Bearer"

type TokenService struct {
	Keys   *jwtx.KeyManager
	Users  store.Users
	Tokens store.Tokens // registry of issued access and refresh tokens

	Issuer      string
	Audience    string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	IdentityTTL time.Duration

	Metrics *metrics.Collector
	Now     func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck runs a verification against a throwaway hash so unknown
// usernames cost as much as wrong passwords.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = cryptox.HashPassword("tickbox-dummy-password")
	})
	_ = cryptox.VerifyPassword(password, dummyHash)
}

// Issue handles a token endpoint request.
func (s *TokenService) Issue(ctx context.Context, req domain.GrantRequest) (*domain.TokenPair, error) {
	var (
		pair *domain.TokenPair
		err  error
	)

	switch req.GrantType {
	case domain.GrantTypePassword:
		pair, err = s.passwordGrant(ctx, req)
	case domain.GrantTypeRefreshToken:
		pair, err = s.refreshGrant(ctx, req)
	default:
		err = ErrUnsupportedGrantType
	}

	outcome := "success"
	if err != nil {
		outcome = outcomeLabel(err)
	}
	s.Metrics.RecordTokenRequest(grantLabel(req.GrantType), outcome)

	return pair, err
}

func (s *TokenService) passwordGrant(ctx context.Context, req domain.GrantRequest) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Users.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, store.ErrNotFound) {
		burnPasswordCheck(req.Password)
		l.Info("password grant for unknown user")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := cryptox.VerifyPassword(req.Password, u.PasswordHash); err != nil {
		l.Info("password grant with wrong password", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, NewPrincipal(u, req.Scopes), req.ClientID)
}

func (s *TokenService) refreshGrant(ctx context.Context, req domain.GrantRequest) (*domain.TokenPair, error) {
	if req.RefreshToken == "" {
		return nil, ErrInvalidToken
	}

	rt, err := s.Tokens.GetTokenByHash(ctx, cryptox.FingerprintToken(req.RefreshToken))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}

	if rt.Kind != domain.TokenKindRefresh || !rt.Active(s.now()) {
		return nil, ErrInvalidToken
	}
	if rt.Subject == "" {
		return nil, ErrInvalidSubject
	}

	u, err := s.Users.GetUserByID(ctx, rt.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	scopes := rt.Scopes
	if len(req.Scopes) > 0 {
		scopes = intersectScopes(req.Scopes, rt.Scopes)
	}

	pair, issued, err := s.mint(NewPrincipal(u, scopes), req.ClientID)
	if err != nil {
		return nil, err
	}

	// Spend the presented token and register its successors atomically.
	if err := s.Tokens.RotateToken(ctx, rt.ID, issued...); err != nil {
		if errors.Is(err, store.ErrTokenSpent) {
			slogx.FromContext(ctx).Info("refresh token already spent", "user_id", u.ID)
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	logIssued(ctx, pair, issued)
	return pair, nil
}

// issue mints and registers the tokens the principal's scopes call for.
func (s *TokenService) issue(ctx context.Context, p Principal, clientID string) (*domain.TokenPair, error) {
	pair, issued, err := s.mint(p, clientID)
	if err != nil {
		return nil, err
	}

	for _, t := range issued {
		if err := s.Tokens.CreateToken(ctx, t); err != nil {
			return nil, fmt.Errorf("register %s: %w", t.Kind, err)
		}
	}

	logIssued(ctx, pair, issued)
	return pair, nil
}

// mint signs the tokens for p and returns the registry entries they need.
// Nothing is stored.
func (s *TokenService) mint(p Principal, clientID string) (*domain.TokenPair, []domain.Token, error) {
	now := s.now()
	scope := strings.Join(p.Scopes, " ")

	jti := idx.NewAt(now).String()
	access := jwtx.NewClaims(s.Issuer, p.Subject, jti, []string{s.Audience}, s.AccessTTL, now)
	access.Scope = scope
	p.project(&access, DestinationAccessToken)

	signed, err := s.Keys.Signer().Sign(access)
	if err != nil {
		return nil, nil, fmt.Errorf("sign access token: %w", err)
	}

	pair := &domain.TokenPair{
		AccessToken: signed,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   s.AccessTTL,
		Scope:       scope,
	}
	issued := []domain.Token{{
		ID:        jti,
		Kind:      domain.TokenKindAccess,
		Subject:   p.Subject,
		Scopes:    p.Scopes,
		ExpiresAt: now.Add(s.AccessTTL),
		CreatedAt: now,
	}}

	if p.HasScope(ScopeOfflineAccess) {
		opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, nil, err
		}
		issued = append(issued, domain.Token{
			ID:        idx.NewAt(now).String(),
			Kind:      domain.TokenKindRefresh,
			Subject:   p.Subject,
			Hash:      cryptox.FingerprintToken(opaque),
			Scopes:    p.Scopes,
			ExpiresAt: now.Add(s.RefreshTTL),
			CreatedAt: now,
		})
		pair.RefreshToken = opaque
	}

	if p.HasScope(ScopeOpenID) {
		aud := clientID
		if aud == "" {
			aud = s.Audience
		}
		identity := jwtx.NewClaims(s.Issuer, p.Subject, idx.NewAt(now).String(), []string{aud}, s.IdentityTTL, now)
		p.project(&identity, DestinationIdentityToken)

		pair.IDToken, err = s.Keys.Signer().Sign(identity)
		if err != nil {
			return nil, nil, fmt.Errorf("sign identity token: %w", err)
		}
	}

	return pair, issued, nil
}

func logIssued(ctx context.Context, pair *domain.TokenPair, issued []domain.Token) {
	slogx.FromContext(ctx).Debug("issued tokens",
		"user_id", issued[0].Subject,
		"scope", pair.Scope,
		"refresh", pair.RefreshToken != "",
		"id_token", pair.IDToken != "",
	)
}

// IsActive reports whether a verified access token is still registered and
// unrevoked. It backs the bearer authentication middleware.
func (s *TokenService) IsActive(ctx context.Context, claims jwtx.Claims) (bool, error) {
	if claims.ID == "" {
		return false, nil
	}

	tok, err := s.Tokens.GetTokenByID(ctx, claims.ID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return tok.Kind == domain.TokenKindAccess &&
		tok.Subject == claims.Subject &&
		tok.Active(s.now()), nil
}

// Revoke revokes an access token (a JWT) or a refresh token (opaque).
// Unknown and already invalid tokens are ignored (RFC 7009 section 2.2).
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	tok, err := s.lookup(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Tokens.RevokeToken(ctx, tok.ID)
}

// Introspection is the registry's view of a token (RFC 7662).
type Introspection struct {
	Active    bool
	TokenType domain.TokenKind
	Subject   string
	Username  string
	Scope     string
	Audience  []string
	Issuer    string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Introspect describes token. Tokens that fail any check come back inactive
// without an error.
func (s *TokenService) Introspect(ctx context.Context, token string) (Introspection, error) {
	tok, err := s.lookup(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return Introspection{}, nil
	}
	if err != nil {
		return Introspection{}, err
	}
	if !tok.Active(s.now()) {
		return Introspection{}, nil
	}

	out := Introspection{
		Active:    true,
		TokenType: tok.Kind,
		Subject:   tok.Subject,
		Scope:     strings.Join(tok.Scopes, " "),
		Issuer:    s.Issuer,
		IssuedAt:  tok.CreatedAt,
		ExpiresAt: tok.ExpiresAt,
	}
	if tok.Kind == domain.TokenKindAccess {
		out.JTI = tok.ID
		out.Audience = []string{s.Audience}
		if claims, err := s.Keys.Verifier().Verify(token); err == nil {
			out.Username = claims.Name
		}
	}
	return out, nil
}

// lookup resolves a presented token to its registry entry: JWTs by jti,
// anything else by fingerprint.
func (s *TokenService) lookup(ctx context.Context, token string) (domain.Token, error) {
	if token == "" {
		return domain.Token{}, store.ErrNotFound
	}

	if claims, err := s.Keys.Verifier().Verify(token); err == nil {
		tok, err := s.Tokens.GetTokenByID(ctx, claims.ID)
		if err != nil {
			return domain.Token{}, err
		}
		if tok.Subject != claims.Subject {
			return domain.Token{}, store.ErrNotFound
		}
		return tok, nil
	}

	return s.Tokens.GetTokenByHash(ctx, cryptox.FingerprintToken(token))
}

func grantLabel(grantType string) string {
	switch grantType {
	case domain.GrantTypePassword, domain.GrantTypeRefreshToken:
		return grantType
	default:
		return "other"
	}
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrUnsupportedGrantType):
		return "unsupported_grant_type"
	default:
		return "error"
	}
}
