package domain

// Grant types accepted by the token endpoint.
const (
	GrantTypePassword     = "password"
	GrantTypeRefreshToken = "refresh_token"
)

// GrantRequest is a parsed token endpoint request.
type GrantRequest struct {
	GrantType    string
	Username     string
	Password     string
	RefreshToken string
	Scopes       []string
	ClientID     string
}
