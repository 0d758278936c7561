package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/domain"
	"github.com/aussiebroadwan/tickbox/internal/tickbox/service"
	"github.com/aussiebroadwan/tickbox/pkg/httpx"
	"github.com/aussiebroadwan/tickbox/pkg/slogx"
	"github.com/aussiebroadwan/tickbox/pkg/tickboxsdk"
)

// TokenHandler serves POST /api/Auth/login.
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues tokens using the password or refresh_token grant.
//	@Description	A refresh token is only returned when offline_access is granted, an id_token only when openid is granted.
//	@Tags			Auth
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string						true	"Grant type"	Enums(password, refresh_token)
//	@Param			username		formData	string						false	"Username (required for password grant)"
//	@Param			password		formData	string						false	"Password (required for password grant)"
//	@Param			refresh_token	formData	string						false	"Refresh token (required for refresh_token grant)"
//	@Param			client_id		formData	string						false	"Client identifier, used as the id_token audience"
//	@Param			scope			formData	string						false	"Space-delimited list of scopes"	example(openid offline_access email profile roles)
//	@Success		200				{object}	tickboxsdk.TokenResponse	"access_token, token_type, expires_in, refresh_token, id_token, scope"
//	@Failure		400				{object}	tickboxsdk.ErrorResponse	"error, error_description"
//	@Failure		401				{object}	tickboxsdk.ErrorResponse	"error, error_description"
//	@Failure		429				{object}	tickboxsdk.ErrorResponse	"error, error_description"
//	@Failure		500				{object}	tickboxsdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control				"no-store"
//	@Header			200				{string}	Pragma						"no-cache"
//	@Router			/api/Auth/login [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// 1. Ensure the right content-type
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		tickboxsdk.ErrInvalidContentType.WriteError(w)
		return
	}

	// 2. Parse the form body
	if err := r.ParseForm(); err != nil {
		tickboxsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	req := domain.GrantRequest{
		GrantType:    strings.TrimSpace(r.Form.Get("grant_type")),
		Username:     strings.TrimSpace(r.Form.Get("username")),
		Password:     r.Form.Get("password"),
		RefreshToken: r.Form.Get("refresh_token"),
		Scopes:       httpx.ParseSpaceDelimitedFields(r.Form.Get("scope")),
		ClientID:     strings.TrimSpace(r.Form.Get("client_id")),
	}

	// 3. Issue
	pair, err := h.TokenService.Issue(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			tickboxsdk.ErrInvalidCredentials.WriteError(w)
		case errors.Is(err, service.ErrInvalidSubject):
			tickboxsdk.ErrInvalidSubject.WriteError(w)
		case errors.Is(err, service.ErrInvalidToken):
			tickboxsdk.ErrInvalidRefresh.WriteError(w)
		case errors.Is(err, service.ErrUserNotFound):
			tickboxsdk.ErrUserNotFound.WriteError(w)
		case errors.Is(err, service.ErrUnsupportedGrantType):
			tickboxsdk.ErrUnsupportedGrant.WriteError(w)
		default:
			log.Error("token request failed", "grant_type", req.GrantType, "err", err)
			tickboxsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tickboxsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		RefreshToken: pair.RefreshToken,
		IDToken:      pair.IDToken,
		Scope:        strings.TrimSpace(pair.Scope),
	})
}
