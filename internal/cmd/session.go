package cmd

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/gravitrone/repack/cli/internal/api"
	"github.com/gravitrone/repack/cli/internal/config"
	"github.com/gravitrone/repack/cli/internal/logging"
)

// session is a loaded config with a logged-in client.
type session struct {
	cfg    *config.Config
	client *api.Client
	logger *logrus.Logger
	closer io.Closer
}

func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "not logged in")
	}
	if cfg.SessionID == "" {
		return nil, errors.New("not logged in: run `repack login`")
	}
	return newSession(cfg)
}

func newSession(cfg *config.Config) (*session, error) {
	logger, closer, err := logging.New(cfg.ResolvedLogPath(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	client, err := api.NewFromConfig(cfg, logger)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	return &session{cfg: cfg, client: client, logger: logger, closer: closer}, nil
}

// Close persists a rotated CSRF token and closes the log file.
func (s *session) Close() error {
	var saveErr error
	if token := s.client.CSRFToken(); token != "" && token != s.cfg.CSRFToken {
		s.cfg.CSRFToken = token
		saveErr = s.cfg.Save()
	}
	closeErr := s.closer.Close()
	if saveErr != nil {
		return errors.Wrap(saveErr, "save config")
	}
	return closeErr
}
