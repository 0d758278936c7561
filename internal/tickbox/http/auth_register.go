package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/service"
	"github.com/aussiebroadwan/tickbox/pkg/httpx"
	"github.com/aussiebroadwan/tickbox/pkg/slogx"
	"github.com/aussiebroadwan/tickbox/pkg/tickboxsdk"
)

// RegisterHandler serves POST /api/Auth/register.
type RegisterHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Register
//	@Description	Creates an account whose username is the email address. Every broken rule is listed in the response details.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		tickboxsdk.RegisterRequest				true	"Email and password"
//	@Success		200		{object}	map[string]string						"Empty object"
//	@Failure		400		{object}	tickboxsdk.ValidationErrorResponse		"code, message, details"
//	@Failure		415		{string}	string									"Unsupported media type"
//	@Failure		429		{object}	tickboxsdk.ErrorResponse				"error, error_description"
//	@Failure		500		{object}	tickboxsdk.ErrorResponse				"error, error_description"
//	@Router			/api/Auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tickboxsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		tickboxsdk.ErrInvalidJSON.WriteError(w)
		return
	}

	if _, err := h.UserService.Register(ctx, req.Email, req.Password); err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeValidationError(w, err)
			return
		}
		slogx.FromContext(ctx).Error("registration failed", "err", err)
		tickboxsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

const validationMessage = "One or more validation errors occurred."

// writeValidationError renders a *service.ValidationError as a 400.
func writeValidationError(w http.ResponseWriter, err error) {
	resp := tickboxsdk.ValidationErrorResponse{
		Code:    tickboxsdk.ErrorCodeValidation,
		Message: validationMessage,
		Details: []tickboxsdk.ValidationDetail{},
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			resp.Details = append(resp.Details, tickboxsdk.ValidationDetail{
				Field:       f.Field,
				Code:        f.Code,
				Description: f.Description,
			})
		}
	}

	httpx.WriteJSON(w, http.StatusBadRequest, resp)
}
