package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/service"
	"github.com/aussiebroadwan/tickbox/pkg/httpx"
	"github.com/aussiebroadwan/tickbox/pkg/slogx"
	"github.com/aussiebroadwan/tickbox/pkg/tickboxsdk"
)

// RevokeHandler serves POST /api/Auth/revoke following RFC 7009. Access
// tokens (JWTs) and refresh tokens are both accepted; token_type_hint is
// not needed to tell them apart. Unknown or already invalid tokens still get
// 200 OK so the endpoint cannot be used to scan for tokens.
type RevokeHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Revocation Endpoint
//	@Description	Revokes an access or refresh token (RFC 7009).
//	@Description	The endpoint is idempotent and returns 200 OK even for invalid/unknown tokens.
//	@Tags			Auth
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			token			formData	string						true	"The token to revoke"
//	@Param			token_type_hint	formData	string						false	"Hint about token type"	Enums(access_token, refresh_token)
//	@Success		200				{object}	map[string]string			"Empty object"
//	@Failure		400				{object}	tickboxsdk.ErrorResponse	"error, error_description"
//	@Failure		429				{object}	tickboxsdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control				"no-store"
//	@Header			200				{string}	Pragma						"no-cache"
//	@Router			/api/Auth/revoke [post].
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	// 3. Revoke. Failures are logged and otherwise invisible to the caller.
	if err := h.TokenService.Revoke(ctx, token); err != nil {
		log.Warn("token revocation failed", "err", err)
	}

	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}
