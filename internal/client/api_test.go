package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/todo-auth/internal/api/dto"
	"github.com/spec-kit/todo-auth/internal/domain"
)

func newStubServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "tok-1", Path: "/", HttpOnly: true})
		_, _ = w.Write([]byte(`{"data":{"id":"u1","role":"USER","iat":1,"exp":2}}`))
	})
	mux.HandleFunc("/api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("token"); err == nil && c.Value == "tok-1" {
			_, _ = w.Write([]byte(`{"data":{"id":"u1","role":"USER","iat":1,"exp":2}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":null}`))
	})
	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"FORM_ERRORS","message":"There were one or more form errors.","formErrors":{"email":"A user with that email already exists."}}}`))
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_LoginCarriesCookie(t *testing.T) {
	srv := newStubServer(t)
	c, err := NewHTTPClient(srv.URL, 5*time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	sess, err := c.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	sess, err = c.Login(ctx, "dave@x.com", "abcde")
	require.NoError(t, err)
	assert.Equal(t, domain.Session{ID: "u1", Role: domain.RoleUser, IssuedAt: 1, ExpiresAt: 2}, *sess)
	assert.Equal(t, "tok-1", c.Token())

	sess, err = c.Session(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)

	c.ResetCookies()
	assert.Empty(t, c.Token())
	c.SetToken("tok-1")
	sess, err = c.Session(ctx)
	require.NoError(t, err)
	assert.NotNil(t, sess)
}

func TestHTTPClient_DecodesErrors(t *testing.T) {
	srv := newStubServer(t)
	c, err := NewHTTPClient(srv.URL, 5*time.Second)
	require.NoError(t, err)

	_, err = c.Register(context.Background(), dto.UserRegisterRequest{Email: "dave@x.com"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "FORM_ERRORS", apiErr.Code)
	assert.Equal(t, "A user with that email already exists.", apiErr.FormErrors["email"])

	err = c.Logout(context.Background())
	assert.Equal(t, "SERVER_ERROR", CodeOf(err))
}

func TestNewHTTPClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewHTTPClient("localhost", time.Second)
	assert.Error(t, err)
}

func TestHTTPClient_ResetCookiesWhileRequestsRun(t *testing.T) {
	srv := newStubServer(t)
	c, err := NewHTTPClient(srv.URL, 5*time.Second)
	require.NoError(t, err)
	jar := c.http.Jar
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = c.Login(ctx, "dave@x.com", "abcde")
			_, _ = c.Session(ctx)
		}()
		go func() {
			defer wg.Done()
			c.ResetCookies()
			_ = c.Token()
		}()
	}
	wg.Wait()

	assert.Same(t, jar, c.http.Jar)
	c.ResetCookies()
	assert.Empty(t, c.Token())
	_, err = c.Login(ctx, "dave@x.com", "abcde")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", c.Token())
}
