package api

import (
	"github.com/sirupsen/logrus"

	"github.com/gravitrone/repack/cli/internal/config"
)

// DefaultBaseURL is used when the config leaves base_url empty.
const DefaultBaseURL = "http://localhost:8000"

// NewFromConfig builds a client for cfg, restoring its stored session.
func NewFromConfig(cfg *config.Config, logger logrus.FieldLogger) (*Client, error) {
	baseURL := DefaultBaseURL
	if cfg != nil && cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	opts := []Option{WithLogger(logger), WithTimeout(cfg.HTTPTimeout())}
	if cfg != nil {
		opts = append(opts, WithSession(cfg.SessionID, cfg.CSRFToken))
	}
	return NewClient(baseURL, opts...)
}

// SaveSession copies the client's cookies into cfg.
func (c *Client) SaveSession(cfg *config.Config) {
	cfg.SessionID = c.SessionID()
	cfg.CSRFToken = c.CSRFToken()
}
