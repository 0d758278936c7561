package tickboxsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/tickbox/pkg/jwtx"
)

// API paths.
const (
	PathRegister   = "/api/Auth/register"
	PathToken      = "/api/Auth/login"
	PathRevoke     = "/api/Auth/revoke"
	PathIntrospect = "/api/Auth/introspect"
	PathJWKS       = "/.well-known/jwks.json"
	PathTodos      = "/api/Todos"
	PathLivez      = "/livez"
	PathReadyz     = "/readyz"
)

// Client talks to a tickbox server. Unauthenticated calls live here,
// resource calls take an access token.
type Client struct {
	BaseURL    string
	ClientID   string
	HTTPClient *http.Client
}

// NewClient returns a client with a 10 second timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password string) error {
	resp, err := c.do(ctx, http.MethodPost, PathRegister, "", RegisterRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	return decode(resp, http.StatusOK, nil)
}

// PasswordGrant logs in with a username and password.
func (c *Client) PasswordGrant(ctx context.Context, username, password string, scopes ...string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}
	if len(scopes) > 0 {
		form.Set("scope", strings.Join(scopes, " "))
	}
	return c.token(ctx, form)
}

// RefreshGrant exchanges a refresh token for a new token pair.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string, scopes ...string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	if len(scopes) > 0 {
		form.Set("scope", strings.Join(scopes, " "))
	}
	return c.token(ctx, form)
}

func (c *Client) token(ctx context.Context, form url.Values) (*TokenResponse, error) {
	if c.ClientID != "" {
		form.Set("client_id", c.ClientID)
	}

	resp, err := c.doForm(ctx, PathToken, "", form)
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decode(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Revoke revokes an access or refresh token (RFC 7009).
func (c *Client) Revoke(ctx context.Context, token string) error {
	resp, err := c.doForm(ctx, PathRevoke, "", url.Values{"token": {token}})
	if err != nil {
		return err
	}
	return decode(resp, http.StatusOK, nil)
}

// Introspect asks the server about token, authenticating with accessToken.
func (c *Client) Introspect(ctx context.Context, accessToken, token string) (*IntrospectionResponse, error) {
	resp, err := c.doForm(ctx, PathIntrospect, accessToken, url.Values{"token": {token}})
	if err != nil {
		return nil, err
	}

	var out IntrospectionResponse
	if err := decode(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// JWKS fetches the server's public signing keys.
func (c *Client) JWKS(ctx context.Context) (jwtx.JWKS, error) {
	resp, err := c.do(ctx, http.MethodGet, PathJWKS, "", nil)
	if err != nil {
		return jwtx.JWKS{}, err
	}

	var out jwtx.JWKS
	if err := decode(resp, http.StatusOK, &out); err != nil {
		return jwtx.JWKS{}, err
	}
	return out, nil
}

// VerifyIDToken checks an identity token against the server's published keys.
func (c *Client) VerifyIDToken(ctx context.Context, idToken, issuer, alg string) (jwtx.Claims, error) {
	jwks, err := c.JWKS(ctx)
	if err != nil {
		return jwtx.Claims{}, err
	}

	keys := jwtx.NewKeySet()
	if err := keys.Reset(jwks); err != nil {
		return jwtx.Claims{}, fmt.Errorf("load jwks: %w", err)
	}

	opts := jwtx.VerifyOptions{Issuer: issuer, Leeway: 30 * time.Second}
	if c.ClientID != "" {
		opts.Audience = []string{c.ClientID}
	}
	return jwtx.NewVerifier(keys, alg, opts).Verify(idToken)
}

// Ready reports the server's readiness checks. A degraded server answers
// with an error.
func (c *Client) Ready(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, PathReadyz, "", nil)
	if err != nil {
		return nil, err
	}

	var out HealthResponse
	if err := decode(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTodo adds a todo for the token's owner.
func (c *Client) CreateTodo(ctx context.Context, accessToken, title, body string) (*Todo, error) {
	resp, err := c.do(ctx, http.MethodPost, PathTodos, accessToken, CreateTodoRequest{Title: title, Body: body})
	if err != nil {
		return nil, err
	}

	var out Todo
	if err := decode(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTodos returns one page (1-indexed) of the owner's todos.
func (c *Client) ListTodos(ctx context.Context, accessToken string, page int) ([]Todo, error) {
	resp, err := c.do(ctx, http.MethodGet, PathTodos+"?pageNumber="+strconv.Itoa(page), accessToken, nil)
	if err != nil {
		return nil, err
	}

	var out []Todo
	if err := decode(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTodo overwrites a todo.
func (c *Client) UpdateTodo(ctx context.Context, accessToken, id string, req UpdateTodoRequest) (*Todo, error) {
	resp, err := c.do(ctx, http.MethodPut, PathTodos+"/"+url.PathEscape(id), accessToken, req)
	if err != nil {
		return nil, err
	}

	var out Todo
	if err := decode(resp, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTodo soft deletes a todo.
func (c *Client) DeleteTodo(ctx context.Context, accessToken, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, PathTodos+"/"+url.PathEscape(id), accessToken, nil)
	if err != nil {
		return err
	}
	return decode(resp, http.StatusNoContent, nil)
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, accessToken)
}

func (c *Client) doForm(ctx context.Context, path, accessToken string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req, accessToken)
}

func (c *Client) send(req *http.Request, accessToken string) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// decode reads the response, returning a typed error for any status other
// than want. target may be nil.
func decode(resp *http.Response, want int, target any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != want {
		return parseErrorResponse(resp, body)
	}
	if target == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
