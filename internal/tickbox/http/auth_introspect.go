package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/service"
	"github.com/aussiebroadwan/tickbox/pkg/httpx"
	"github.com/aussiebroadwan/tickbox/pkg/slogx"
	"github.com/aussiebroadwan/tickbox/pkg/tickboxsdk"
)

// IntrospectHandler serves POST /api/Auth/introspect following RFC 7662.
// Callers may only introspect their own tokens; anything else is reported
// inactive.
type IntrospectHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Introspection Endpoint
//	@Description	Returns registry metadata about an access or refresh token owned by the caller (RFC 7662).
//	@Tags			Auth
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Security		BearerAuth
//	@Param			token	formData	string							true	"The token to introspect"
//	@Success		200		{object}	tickboxsdk.IntrospectionResponse	"Token introspection result"
//	@Failure		400		{object}	tickboxsdk.ErrorResponse			"error, error_description"
//	@Failure		401		{object}	tickboxsdk.ErrorResponse			"error, error_description"
//	@Header			200		{string}	Cache-Control					"no-store"
//	@Header			200		{string}	Pragma							"no-cache"
//	@Router			/api/Auth/introspect [post].
func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	token := r.Form.Get("token")
	if token == "" {
		tickboxsdk.ErrMissingParameter.WriteError(w)
		return
	}

	// 3. Look the token up in the registry
	info, err := h.TokenService.Introspect(ctx, token)
	if err != nil {
		log.Error("token introspection failed", "err", err)
		tickboxsdk.ErrServerError.WriteError(w)
		return
	}

	// Per RFC 7662, inactive and foreign tokens look the same
	callerID, _ := httpx.UserID(ctx)
	if !info.Active || info.Subject != callerID {
		httpx.WriteJSON(w, http.StatusOK, tickboxsdk.IntrospectionResponse{Active: false})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tickboxsdk.IntrospectionResponse{
		Active:    true,
		Scope:     info.Scope,
		Username:  info.Username,
		TokenType: string(info.TokenType),
		Exp:       info.ExpiresAt.Unix(),
		Iat:       info.IssuedAt.Unix(),
		Sub:       info.Subject,
		Aud:       info.Audience,
		Iss:       info.Issuer,
		Jti:       info.JTI,
	})
}
