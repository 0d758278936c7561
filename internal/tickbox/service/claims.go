package service

import (
	"slices"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/domain"
	"github.com/aussiebroadwan/tickbox/pkg/jwtx"
)

// Scopes a client may be granted.
const (
	ScopeOpenID        = "openid"
	ScopeOfflineAccess = "offline_access"
	ScopeEmail         = "email"
	ScopeProfile       = "profile"
	ScopeRoles         = "roles"
)

var allowedScopes = []string{ScopeOpenID, ScopeOfflineAccess, ScopeEmail, ScopeProfile, ScopeRoles}

// Claim types carried by a Principal.
const (
	ClaimSubject       = "sub"
	ClaimName          = "name"
	ClaimEmail         = "email"
	ClaimRole          = "role"
	ClaimSecurityStamp = "security_stamp"
)

// Destination is a token a claim may be copied into.
type Destination string

const (
	DestinationAccessToken   Destination = "access_token"
	DestinationIdentityToken Destination = "id_token"
)

// destinationRule says whether a claim goes into the access token and which
// scope, if any, also puts it in the identity token.
type destinationRule struct {
	access        bool
	identityScope string
}

var destinationRules = map[string]destinationRule{
	ClaimName:          {access: true, identityScope: ScopeProfile},
	ClaimEmail:         {access: true, identityScope: ScopeEmail},
	ClaimRole:          {access: true, identityScope: ScopeRoles},
	ClaimSecurityStamp: {},
}

// Destinations returns the tokens claimType is copied into given the granted
// scopes. Unknown claim types only reach the access token.
func Destinations(claimType string, scopes []string) []Destination {
	rule, ok := destinationRules[claimType]
	if !ok {
		return []Destination{DestinationAccessToken}
	}

	var out []Destination
	if rule.access {
		out = append(out, DestinationAccessToken)
	}
	if rule.identityScope != "" && slices.Contains(scopes, rule.identityScope) {
		out = append(out, DestinationIdentityToken)
	}
	return out
}

type Claim struct {
	Type  string
	Value string
}

// Principal is the identity a token is issued for. It is rebuilt on every
// issuance and never stored.
type Principal struct {
	Subject string
	Claims  []Claim
	Scopes  []string
}

// NewPrincipal builds the principal for u with the requested scopes narrowed
// to the ones tickbox grants.
func NewPrincipal(u domain.User, requested []string) Principal {
	p := Principal{
		Subject: u.ID,
		Scopes:  GrantedScopes(requested),
	}

	p.Claims = append(p.Claims,
		Claim{Type: ClaimEmail, Value: u.Email},
		Claim{Type: ClaimName, Value: u.Username},
	)
	for _, role := range u.Roles {
		p.Claims = append(p.Claims, Claim{Type: ClaimRole, Value: role})
	}
	p.Claims = append(p.Claims, Claim{Type: ClaimSecurityStamp, Value: u.SecurityStamp})

	return p
}

// GrantedScopes keeps the allowed scopes of requested, deduplicated, in
// request order.
func GrantedScopes(requested []string) []string {
	out := make([]string, 0, len(requested))
	for _, s := range requested {
		if slices.Contains(allowedScopes, s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func (p Principal) HasScope(scope string) bool {
	return slices.Contains(p.Scopes, scope)
}

// project copies every claim routed to dest into c.
func (p Principal) project(c *jwtx.Claims, dest Destination) {
	for _, claim := range p.Claims {
		if !slices.Contains(Destinations(claim.Type, p.Scopes), dest) {
			continue
		}
		switch claim.Type {
		case ClaimName:
			c.Name = claim.Value
		case ClaimEmail:
			c.Email = claim.Value
		case ClaimRole:
			c.Roles = append(c.Roles, claim.Value)
		}
	}
}

// intersectScopes keeps the members of a that are also in b.
func intersectScopes(a, b []string) []string {
	out := make([]string, 0, len(a))
	for _, s := range a {
		if slices.Contains(b, s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
