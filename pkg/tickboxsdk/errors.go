package tickboxsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/tickbox/pkg/httpx"
)

// OAuth2 error codes (RFC 6749, RFC 6750).
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeInvalidToken         = "invalid_token"
	ErrorCodeServerError          = "server_error"
)

// API error codes outside OAuth2.
const (
	ErrorCodeValidation   = "validation_error"
	ErrorCodeUnauthorized = "unauthorized"
	ErrorCodeBadRequest   = "bad_request"
	ErrorCodeNotFound     = "not_found"
)

// OAuth2Error is an error response body plus its status. The server writes
// it, the client parses it back.
type OAuth2Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as a JSON response.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{Error: e.Code, ErrorDescription: e.Description})
}

// NewOAuth2Error builds an error with a custom description.
func NewOAuth2Error(status int, code, description string) *OAuth2Error {
	return &OAuth2Error{StatusCode: status, Code: code, Description: description}
}

// Token endpoint failures. Descriptions are part of the API contract.
var (
	ErrInvalidCredentials = NewOAuth2Error(http.StatusUnauthorized, ErrorCodeInvalidGrant, "Invalid username or password.")
	ErrInvalidRefresh     = NewOAuth2Error(http.StatusUnauthorized, ErrorCodeInvalidGrant, "Invalid refresh token.")
	ErrInvalidSubject     = NewOAuth2Error(http.StatusUnauthorized, ErrorCodeInvalidGrant, "Invalid user ID in refresh token.")
	ErrUserNotFound       = NewOAuth2Error(http.StatusUnauthorized, ErrorCodeInvalidGrant, "User not found.")
	ErrUnsupportedGrant   = NewOAuth2Error(http.StatusBadRequest, ErrorCodeUnsupportedGrantType, "Unsupported grant type.")

	ErrInvalidContentType = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidRequest, "content-type must be application/x-www-form-urlencoded")
	ErrInvalidFormBody    = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid form body")
	ErrMissingParameter   = NewOAuth2Error(http.StatusBadRequest, ErrorCodeInvalidRequest, "the request is missing a required parameter")
	ErrServerError        = NewOAuth2Error(http.StatusInternalServerError, ErrorCodeServerError, "internal server error")
)

// Resource endpoint failures.
var (
	ErrUnauthorized = NewOAuth2Error(http.StatusUnauthorized, ErrorCodeUnauthorized, "")
	ErrBadRequest   = NewOAuth2Error(http.StatusBadRequest, ErrorCodeBadRequest, "")
	ErrNotFound     = NewOAuth2Error(http.StatusNotFound, ErrorCodeNotFound, "")
	ErrInvalidJSON  = NewOAuth2Error(http.StatusBadRequest, ErrorCodeBadRequest, "invalid JSON body")
)

// ValidationError is returned by the client when the server rejected input
// with a list of field errors.
type ValidationError struct {
	StatusCode int
	ValidationErrorResponse
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%d issues)", e.Code, e.Message, len(e.Details))
}

// HasCode reports whether any detail carries code.
func (e *ValidationError) HasCode(code string) bool {
	for _, d := range e.Details {
		if d.Code == code {
			return true
		}
	}
	return false
}

// parseErrorResponse turns a non-2xx response into a typed error.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var valErr ValidationErrorResponse
	if err := json.Unmarshal(body, &valErr); err == nil && valErr.Code == ErrorCodeValidation {
		return &ValidationError{StatusCode: resp.StatusCode, ValidationErrorResponse: valErr}
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &OAuth2Error{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
