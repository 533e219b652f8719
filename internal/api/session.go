package api

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-faster/errors"
)

// LoginState is where the service left us after a login attempt.
type LoginState int

const (
	LoginDone LoginState = iota
	LoginNeedsCode
)

const (
	loginPage      = "/login/"
	loginCodePage  = "/login/2fa/"
	logoutPage     = "/logout/"
	defaultCSRFSrc = "/profile/"
)

// LoginInput is the login form.
type LoginInput struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// TwoFactorInput is the second login step.
type TwoFactorInput struct {
	Code string `form:"code"`
}

// LoginError carries the messages the login page rendered.
type LoginError struct {
	Messages []string
}

func (e *LoginError) Error() string {
	if len(e.Messages) == 0 {
		return "login rejected"
	}
	return "login rejected: " + strings.Join(e.Messages, "; ")
}

// SessionID returns the current session cookie value.
func (c *Client) SessionID() string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == sessionCookie {
			return ck.Value
		}
	}
	return ""
}

// CSRFToken returns the token sent with unsafe requests.
func (c *Client) CSRFToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.csrf
}

func (c *Client) setCSRF(token string) {
	c.mu.Lock()
	c.csrf = token
	c.mu.Unlock()
}

func (c *Client) restore(sessionID, csrfToken string) {
	var cookies []*http.Cookie
	if sessionID != "" {
		cookies = append(cookies, &http.Cookie{Name: sessionCookie, Value: sessionID, Path: "/"})
	}
	if csrfToken != "" {
		cookies = append(cookies, &http.Cookie{Name: csrfCookie, Value: csrfToken, Path: "/"})
		c.setCSRF(csrfToken)
	}
	if len(cookies) > 0 {
		c.jar.SetCookies(c.baseURL, cookies)
	}
}

// captureCSRFCookie keeps the header token in step with a rotated cookie.
func (c *Client) captureCSRFCookie() {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == csrfCookie && ck.Value != "" {
			c.setCSRF(ck.Value)
			return
		}
	}
}

// FetchCSRF loads an HTML page and takes the token from its hidden form
// field, falling back to the csrftoken cookie.
func (c *Client) FetchCSRF(ctx context.Context, page string) (string, error) {
	if page == "" {
		page = defaultCSRFSrc
	}
	resp, err := c.do(ctx, http.MethodGet, page, nil)
	if err != nil {
		return "", err
	}
	if isLoginPath(resp.finalPath) && !isLoginPath(page) {
		return "", ErrNotAuthenticated
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.body))
	if err != nil {
		return "", errors.Wrap(err, "parse page")
	}
	if token, ok := doc.Find("input[name=" + csrfField + "]").First().Attr("value"); ok && strings.TrimSpace(token) != "" {
		c.setCSRF(strings.TrimSpace(token))
		return c.CSRFToken(), nil
	}
	if token := c.CSRFToken(); token != "" {
		return token, nil
	}
	return "", errors.Errorf("no csrf token on %s", page)
}

func (c *Client) ensureCSRF(ctx context.Context, page string) error {
	if c.CSRFToken() != "" {
		return nil
	}
	_, err := c.FetchCSRF(ctx, page)
	return err
}

// Login signs in with email and password. When the account has 2FA enabled
// the service mails a code and LoginNeedsCode is returned.
func (c *Client) Login(ctx context.Context, input LoginInput) (LoginState, error) {
	if _, err := c.FetchCSRF(ctx, loginPage); err != nil {
		return LoginDone, errors.Wrap(err, "open login page")
	}
	return c.postLoginForm(ctx, loginPage, input)
}

// ConfirmTwoFactor finishes a login that returned LoginNeedsCode.
func (c *Client) ConfirmTwoFactor(ctx context.Context, code string) error {
	if _, err := c.FetchCSRF(ctx, loginCodePage); err != nil {
		return errors.Wrap(err, "open 2fa page")
	}
	state, err := c.postLoginForm(ctx, loginCodePage, TwoFactorInput{Code: strings.TrimSpace(code)})
	if err != nil {
		return err
	}
	if state == LoginNeedsCode {
		return &LoginError{Messages: []string{"code was not accepted"}}
	}
	return nil
}

func (c *Client) postLoginForm(ctx context.Context, page string, payload any) (LoginState, error) {
	values, err := c.Encode(payload)
	if err != nil {
		return LoginDone, err
	}
	values.Set(csrfField, c.CSRFToken())

	resp, err := c.do(ctx, http.MethodPost, page, values)
	if err != nil {
		return LoginDone, err
	}
	if resp.status >= 500 {
		return LoginDone, &TransportError{Method: http.MethodPost, Path: page, Status: resp.status, RequestID: resp.requestID, Err: errors.Errorf("HTTP %d", resp.status)}
	}

	switch {
	case resp.finalPath == loginCodePage && page != loginCodePage:
		return LoginNeedsCode, nil
	case resp.finalPath == page:
		// The form was rendered again, so it carries the reasons.
		return LoginDone, &LoginError{Messages: pageErrors(resp.body)}
	}
	if c.SessionID() == "" {
		return LoginDone, &LoginError{Messages: []string{"no session cookie issued"}}
	}
	return LoginDone, nil
}

// Logout ends the session on the service and forgets local cookies.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, logoutPage, nil)
	c.jar.SetCookies(c.baseURL, []*http.Cookie{
		{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1},
		{Name: csrfCookie, Value: "", Path: "/", MaxAge: -1},
	})
	c.setCSRF("")
	return err
}

// pageErrors collects Django form error text from a rendered page.
func pageErrors(body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	doc.Find(".errorlist li, .invalid-feedback, .alert-danger").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		out = append(out, text)
	})
	return out
}
