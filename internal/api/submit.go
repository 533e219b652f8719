package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
)

// Submit posts payload to a form endpoint and decodes the result. A body that
// is not JSON is a *TransportError even when the status looks fine; an HTTP
// 400 carrying JSON is a normal Result with Success false.
func (c *Client) Submit(ctx context.Context, ep Endpoint, payload any) (*Result, error) {
	values, err := c.Encode(payload)
	if err != nil {
		return nil, err
	}
	if err := c.ensureCSRF(ctx, ep.Page); err != nil {
		return nil, err
	}
	if token := c.CSRFToken(); token != "" {
		values.Set(csrfField, token)
	}

	method := ep.Method
	if method == "" {
		method = http.MethodPost
	}
	resp, err := c.do(ctx, method, ep.Path, values)
	if err != nil {
		return nil, err
	}
	if isLoginPath(resp.finalPath) {
		return nil, ErrNotAuthenticated
	}
	if resp.status >= 500 || !resp.isJSON() {
		return nil, &TransportError{
			Method:    method,
			Path:      ep.Path,
			Status:    resp.status,
			RequestID: resp.requestID,
			Err:       errors.Errorf("unexpected response: %s", snippet(resp.body)),
		}
	}

	var result Result
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return nil, &TransportError{Method: method, Path: ep.Path, Status: resp.status, RequestID: resp.requestID, Err: errors.Wrap(err, "decode result")}
	}
	result.RequestID = resp.requestID
	return &result, nil
}
