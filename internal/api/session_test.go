package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginForm = `<html><body><form method="post">
<input type="hidden" name="csrfmiddlewaretoken" value="login-token">
<input name="email"><input name="password" type="password">
</form></body></html>`

func loginRouter(t *testing.T, twoFactor bool) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	router.HandleFunc("/login/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(loginForm))
	}).Methods(http.MethodGet)
	router.HandleFunc("/login/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "login-token", r.PostForm.Get("csrfmiddlewaretoken"))
		if r.PostForm.Get("password") != "secret" {
			_, _ = w.Write([]byte(`<ul class="errorlist nonfield"><li>Please enter a correct email and password.</li></ul>`))
			return
		}
		if twoFactor {
			http.Redirect(w, r, "/login/2fa/", http.StatusFound)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "fresh-session", Path: "/"})
		http.Redirect(w, r, "/records/", http.StatusFound)
	}).Methods(http.MethodPost)
	router.HandleFunc("/login/2fa/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<form><input type="hidden" name="csrfmiddlewaretoken" value="code-token"><input name="code"></form>`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/login/2fa/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "AB12C" {
			_, _ = w.Write([]byte(`<div class="invalid-feedback">Wrong code.</div>`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "2fa-session", Path: "/"})
		http.Redirect(w, r, "/records/", http.StatusFound)
	}).Methods(http.MethodPost)
	router.HandleFunc("/records/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>records</html>"))
	})
	router.HandleFunc("/logout/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login/", http.StatusFound)
	})
	return router
}

func newBareClient(t *testing.T, router *mux.Router) *Client {
	t.Helper()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	return client
}

func TestLoginStoresSession(t *testing.T) {
	client := newBareClient(t, loginRouter(t, false))

	state, err := client.Login(context.Background(), LoginInput{Email: "op@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, LoginDone, state)
	assert.Equal(t, "fresh-session", client.SessionID())
	assert.Equal(t, "login-token", client.CSRFToken())
}

func TestLoginRejectedCarriesPageErrors(t *testing.T) {
	client := newBareClient(t, loginRouter(t, false))

	_, err := client.Login(context.Background(), LoginInput{Email: "op@example.com", Password: "nope"})
	var le *LoginError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, []string{"Please enter a correct email and password."}, le.Messages)
	assert.Empty(t, client.SessionID())
}

func TestLoginWithTwoFactor(t *testing.T) {
	client := newBareClient(t, loginRouter(t, true))

	state, err := client.Login(context.Background(), LoginInput{Email: "op@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, LoginNeedsCode, state)

	err = client.ConfirmTwoFactor(context.Background(), "WRONG")
	var le *LoginError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, []string{"Wrong code."}, le.Messages)

	require.NoError(t, client.ConfirmTwoFactor(context.Background(), " AB12C "))
	assert.Equal(t, "2fa-session", client.SessionID())
	assert.Equal(t, "code-token", client.CSRFToken())
}

func TestLogoutForgetsSession(t *testing.T) {
	router := loginRouter(t, false)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, WithSession("old", "tok"))
	require.NoError(t, err)
	require.Equal(t, "old", client.SessionID())

	require.NoError(t, client.Logout(context.Background()))
	assert.Empty(t, client.SessionID())
	assert.Empty(t, client.CSRFToken())
}

func TestFetchCSRFRedirectedToLogin(t *testing.T) {
	router := loginRouter(t, false)
	router.HandleFunc("/profile/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login/", http.StatusFound)
	})
	client := newBareClient(t, router)

	_, err := client.FetchCSRF(context.Background(), "/profile/")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
