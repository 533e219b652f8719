package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/form"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"

	"github.com/gravitrone/repack/cli/internal/logging"
)

const (
	sessionCookie = "sessionid"
	csrfCookie    = "csrftoken"
	csrfField     = "csrfmiddlewaretoken"
	csrfHeader    = "X-CSRFToken"
	requestHeader = "X-Request-ID"
)

// Client wraps HTTP calls to the Repacking web service. It keeps the Django
// session and CSRF cookies in a jar, so one Client is one logged-in browser.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        http.CookieJar
	encoder    *form.Encoder
	logger     logrus.FieldLogger

	mu   sync.Mutex
	csrf string
}

// Option customises a Client.
type Option func(*Client)

// WithLogger routes request logs to logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout bounds every round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithSession restores a stored session cookie and CSRF token.
func WithSession(sessionID, csrfToken string) Option {
	return func(c *Client) {
		c.restore(sessionID, csrfToken)
	}
}

// WithTransport swaps the round tripper, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q is not absolute", baseURL)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "cookie jar")
	}
	c := &Client{
		baseURL: u,
		jar:     jar,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		encoder: form.NewEncoder(),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// response is a fully read HTTP response.
type response struct {
	status    int
	body      []byte
	finalPath string
	header    http.Header
	requestID string
}

func (r *response) isJSON() bool {
	ct := r.header.Get("Content-Type")
	if strings.Contains(ct, "json") {
		return true
	}
	trimmed := strings.TrimSpace(string(r.body))
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// do executes an HTTP request and returns the read response. Only transport
// problems are errors here; callers decide what a status code means.
func (c *Client) do(ctx context.Context, method, path string, values url.Values) (*response, error) {
	target := c.resolve(path)
	requestID := uuid.NewString()

	var body io.Reader
	if values != nil {
		body = strings.NewReader(values.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, RequestID: requestID, Err: errors.Wrap(err, "create request")}
	}
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.baseURL.String()+"/")
	req.Header.Set(requestHeader, requestID)
	if method != http.MethodGet {
		if token := c.CSRFToken(); token != "" {
			req.Header.Set(csrfHeader, token)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"method":     method,
			"path":       path,
			"request_id": requestID,
		}).WithError(err).Debug("request failed")
		return nil, &TransportError{Method: method, Path: path, RequestID: requestID, Err: errors.Wrap(err, "request failed")}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Status: resp.StatusCode, RequestID: requestID, Err: errors.Wrap(err, "read response")}
	}

	finalPath := path
	if resp.Request != nil && resp.Request.URL != nil {
		finalPath = resp.Request.URL.Path
	}
	c.logger.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"final_path": finalPath,
		"request_id": requestID,
		"elapsed":    time.Since(started).Round(time.Millisecond),
	}).Debug("request done")

	c.captureCSRFCookie()

	return &response{
		status:    resp.StatusCode,
		body:      data,
		finalPath: finalPath,
		header:    resp.Header,
		requestID: requestID,
	}, nil
}

// getJSON performs a GET and decodes a JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if isLoginPath(resp.finalPath) && !isLoginPath(path) {
		return ErrNotAuthenticated
	}
	if resp.status >= 400 {
		return &TransportError{Method: http.MethodGet, Path: path, Status: resp.status, RequestID: resp.requestID, Err: errors.Errorf("HTTP %d: %s", resp.status, snippet(resp.body))}
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &TransportError{Method: http.MethodGet, Path: path, Status: resp.status, RequestID: resp.requestID, Err: errors.Wrap(err, "decode response")}
	}
	return nil
}

// Encode turns a tagged form struct into url values. url.Values and
// map[string][]string pass through untouched.
func (c *Client) Encode(payload any) (url.Values, error) {
	switch v := payload.(type) {
	case nil:
		return url.Values{}, nil
	case url.Values:
		return cloneValues(v), nil
	case map[string][]string:
		return cloneValues(v), nil
	}
	values, err := c.encoder.Encode(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode form")
	}
	return values, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL.String() + path
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func isLoginPath(path string) bool {
	return path == "/login" || strings.HasPrefix(path, "/login/")
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
