package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// HTTPClient implements Client against the storefront's HTTP/JSON
// backend. Session proof is a bearer token captured from the login
// response (plus any cookies the backend sets); callers above this
// package never see it.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenStore
	logger  zerolog.Logger
}

// Options configures NewHTTPClient.
type Options struct {
	// BaseURL is the backend root, e.g. "http://localhost:8080".
	BaseURL string

	// Timeout bounds each call. Zero means 15 seconds.
	Timeout time.Duration

	// Tokens persists the session proof between invocations. Nil keeps
	// the token in memory only.
	Tokens TokenStore

	// Logger receives call-level debug logging.
	Logger zerolog.Logger
}

// NewHTTPClient builds an HTTPClient. The cookie jar exists so backends
// that issue cookie-based sessions work the same as token-based ones.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL cannot be empty")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base URL %q: %w", opts.BaseURL, err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpc:   &http.Client{Timeout: timeout, Jar: jar},
		tokens:  tokens,
		logger:  opts.Logger,
	}, nil
}

// envelope is the wire shape shared by every backend response.
type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Success bool   `json:"success"`
	Data    *T     `json:"data"`
}

// loginEnvelope additionally captures the bearer token issued on login.
type loginEnvelope struct {
	envelope[json.RawMessage]

	Token string `json:"token"`
}

// Login implements Client.
func (c *HTTPClient) Login(ctx context.Context, req LoginRequest) error {
	resp, err := c.do(ctx, "login", http.MethodPost, "/api/login", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env loginEnvelope
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil {
		return &TransportError{Call: "login", Err: decodeErr}
	}
	if !env.Success {
		return &ApplicationError{Call: "login", Code: env.Code, Message: messageOr(env.Message, "login failed")}
	}
	if env.Token != "" {
		if saveErr := c.tokens.Save(env.Token); saveErr != nil {
			c.logger.Warn().Err(saveErr).Msg("could not persist session token")
		}
	}
	return nil
}

// Logout implements Client. The local session proof is dropped even if
// the backend call fails; a dead token is worthless either way.
func (c *HTTPClient) Logout(ctx context.Context) error {
	_, err := callEmpty(ctx, c, "logout", http.MethodPost, "/api/logout", nil)
	if clearErr := c.tokens.Clear(); clearErr != nil {
		c.logger.Warn().Err(clearErr).Msg("could not clear session token")
	}
	return err
}

// Register implements Client.
func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) error {
	_, err := callEmpty(ctx, c, "register", http.MethodPost, "/api/register", req)
	return err
}

// GetMe implements Client. A null data field with success=true is the
// legitimate "no authenticated user" answer and returns (nil, nil).
func (c *HTTPClient) GetMe(ctx context.Context) (*User, error) {
	return call[User](ctx, c, "get_me", http.MethodGet, "/api/me", nil, false)
}

// UpdateUser implements Client.
func (c *HTTPClient) UpdateUser(ctx context.Context, req UpdateUserRequest) (*User, error) {
	return call[User](ctx, c, "update_user", http.MethodPut, "/api/me", req, true)
}

// GetAllUsers implements Client.
func (c *HTTPClient) GetAllUsers(ctx context.Context) ([]User, error) {
	users, err := call[[]User](ctx, c, "get_all_users", http.MethodGet, "/api/admin/users", nil, true)
	if err != nil {
		return nil, err
	}
	return *users, nil
}

// SearchProducts implements Client. The keyword is trimmed; an empty
// result set is returned as an empty slice, never nil.
func (c *HTTPClient) SearchProducts(ctx context.Context, keyword string) ([]Product, error) {
	path := "/api/product"
	if kw := strings.TrimSpace(keyword); kw != "" {
		path += "?keyword=" + url.QueryEscape(kw)
	}
	products, err := call[[]Product](ctx, c, "search_products", http.MethodGet, path, nil, false)
	if err != nil {
		return nil, err
	}
	if products == nil || *products == nil {
		return []Product{}, nil
	}
	return *products, nil
}

// GetProduct implements Client.
func (c *HTTPClient) GetProduct(ctx context.Context, productID uint) (*Product, error) {
	path := "/api/product/" + strconv.FormatUint(uint64(productID), 10)
	return call[Product](ctx, c, "get_product", http.MethodGet, path, nil, true)
}

// CreateProduct implements Client.
func (c *HTTPClient) CreateProduct(ctx context.Context, payload ProductPayload) (*Product, error) {
	return call[Product](ctx, c, "create_product", http.MethodPost, "/api/product", payload, true)
}

// UpdateProduct implements Client.
func (c *HTTPClient) UpdateProduct(ctx context.Context, productID uint, payload ProductPayload) (*Product, error) {
	path := "/api/product/" + strconv.FormatUint(uint64(productID), 10)
	return call[Product](ctx, c, "update_product", http.MethodPut, path, payload, true)
}

// DeleteProduct implements Client.
func (c *HTTPClient) DeleteProduct(ctx context.Context, productID uint) error {
	path := "/api/product/" + strconv.FormatUint(uint64(productID), 10)
	_, err := callEmpty(ctx, c, "delete_product", http.MethodDelete, path, nil)
	return err
}

// do issues one HTTP request with the session proof attached. Anything
// that prevents reading a response is a TransportError.
func (c *HTTPClient) do(ctx context.Context, callName, method, path string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", callName, err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", callName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token, loadErr := c.tokens.Load(); loadErr == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug().
		Str("component", "api").
		Str("call", callName).
		Str("method", method).
		Str("path", path).
		Msg("issuing backend call")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Call: callName, Err: err}
	}
	return resp, nil
}

// call performs a request and decodes the envelope's data field.
// requireData converts a null data field into an ApplicationError; when
// false, null data yields a nil result (get_me's unauthenticated answer).
func call[T any](ctx context.Context, c *HTTPClient, callName, method, path string, body any, requireData bool) (*T, error) {
	resp, err := c.do(ctx, callName, method, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope[T]
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil {
		return nil, &TransportError{Call: callName, Err: decodeErr}
	}
	if !env.Success {
		return nil, &ApplicationError{Call: callName, Code: env.Code, Message: messageOr(env.Message, callName+" failed")}
	}
	if env.Data == nil {
		if requireData {
			return nil, &ApplicationError{Call: callName, Code: env.Code, Message: messageOr(env.Message, "server returned no data")}
		}
		return nil, nil
	}
	return env.Data, nil
}

// callEmpty performs a request whose success carries no data.
func callEmpty(ctx context.Context, c *HTTPClient, callName, method, path string, body any) (struct{}, error) {
	resp, err := c.do(ctx, callName, method, path, body)
	if err != nil {
		return struct{}{}, err
	}
	defer resp.Body.Close()

	var env envelope[json.RawMessage]
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil {
		return struct{}{}, &TransportError{Call: callName, Err: decodeErr}
	}
	if !env.Success {
		return struct{}{}, &ApplicationError{Call: callName, Code: env.Code, Message: messageOr(env.Message, callName+" failed")}
	}
	return struct{}{}, nil
}

// messageOr returns msg, or fallback when the backend sent none.
func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}

var _ Client = (*HTTPClient)(nil)
