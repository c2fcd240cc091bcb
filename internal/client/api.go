// Package client is the browser-side half of the session model expressed as
// a Go client: an HTTP client for the auth API, the session controller that
// owns local session state and route decisions, and the idle-logout machine.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/todo-auth/internal/api/dto"
	"github.com/spec-kit/todo-auth/internal/domain"
)

// API is the server surface the session controller depends on.
type API interface {
	// Session is the whoami query; nil means anonymous.
	Session(ctx context.Context) (*domain.Session, error)
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Register(ctx context.Context, req dto.UserRegisterRequest) (*domain.Session, error)
	Logout(ctx context.Context) error
	// ResetCookies drops every cookie held for the server.
	ResetCookies()
}

// APIError is a decoded error envelope.
type APIError struct {
	Status     int
	Code       string
	Message    string
	FormErrors map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// CodeOf returns the server error code carried by err, or "".
func CodeOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// resettableJar is an http.CookieJar that can be emptied while requests
// are in flight on other goroutines.
type resettableJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newResettableJar() *resettableJar {
	j := &resettableJar{}
	j.Reset()
	return j
}

func (j *resettableJar) Reset() {
	jar, _ := cookiejar.New(nil)
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}

func (j *resettableJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *resettableJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

// HTTPClient talks to the auth API over HTTP, keeping the token cookie in a jar.
type HTTPClient struct {
	baseURL *url.URL
	cookie  string
	jar     *resettableJar
	http    *http.Client
}

// NewHTTPClient creates a client for the server at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", baseURL)
	}
	jar := newResettableJar()
	return &HTTPClient{
		baseURL: u,
		cookie:  "token",
		jar:     jar,
		http:    &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

// ResetCookies drops every cookie. It is safe to call while other requests run.
func (c *HTTPClient) ResetCookies() {
	c.jar.Reset()
}

// Token returns the session token currently held, or "".
func (c *HTTPClient) Token() string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == c.cookie {
			return ck.Value
		}
	}
	return ""
}

// SetToken seeds the jar with a previously saved token.
func (c *HTTPClient) SetToken(token string) {
	if token == "" {
		return
	}
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{Name: c.cookie, Value: token, Path: "/"}})
}

func (c *HTTPClient) Session(ctx context.Context) (*domain.Session, error) {
	var sess *domain.Session
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	var sess domain.Session
	req := dto.UserLoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) Register(ctx context.Context, req dto.UserRegisterRequest) (*domain.Session, error) {
	var sess domain.Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Me returns the current user record.
func (c *HTTPClient) Me(ctx context.Context) (*dto.UserResponse, error) {
	var user dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code       string            `json:"code"`
		Message    string            `json:"message"`
		FormErrors map[string]string `json:"formErrors"`
	} `json:"error"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Code: "SERVER_ERROR", Message: http.StatusText(resp.StatusCode)}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.FormErrors = env.Error.FormErrors
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
