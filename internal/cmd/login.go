package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/gravitrone/repack/cli/internal/api"
	"github.com/gravitrone/repack/cli/internal/config"
)

// LoginOptions are the inputs of RunLogin. Blank fields are prompted for.
type LoginOptions struct {
	BaseURL  string
	Email    string
	Password string
}

// RunLogin signs in, asks for the emailed code when the account uses 2FA,
// and persists the session to the config file.
func RunLogin(cmd *cobra.Command, opts LoginOptions, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		cfg = &config.Config{BaseURL: api.DefaultBaseURL}
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Email != "" {
		cfg.Email = opts.Email
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Email) == "" {
		if cfg.Email, err = prompter.Ask("email", false); err != nil {
			return err
		}
	}
	password := opts.Password
	if password == "" {
		if password, err = prompter.Ask("password", true); err != nil {
			return err
		}
	}

	cfg.ClearSession()
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer s.closer.Close()

	ctx := cmd.Context()
	state, err := s.client.Login(ctx, api.LoginInput{Email: strings.TrimSpace(cfg.Email), Password: password})
	if err != nil {
		return errors.Wrap(err, "login failed")
	}
	if state == api.LoginNeedsCode {
		fmt.Fprintln(out, "a confirmation code was sent to your email")
		code, err := prompter.Ask("code", false)
		if err != nil {
			return err
		}
		if err := s.client.ConfirmTwoFactor(ctx, code); err != nil {
			return errors.Wrap(err, "login failed")
		}
	}

	s.client.SaveSession(cfg)
	if err := cfg.Save(); err != nil {
		return errors.Wrap(err, "save config")
	}
	s.logger.WithField("email", cfg.Email).Info("logged in")

	fmt.Fprintf(out, "logged in as %s\n", cfg.Email)
	fmt.Fprintf(out, "config saved to %s\n", config.Path())
	return nil
}

// LoginCmd returns the `repack login` command.
func LoginCmd() *cobra.Command {
	var opts LoginOptions
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a Repacking server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Password = os.Getenv("REPACK_PASSWORD")
			return RunLogin(cmd, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.BaseURL, "url", "", "server URL")
	cmd.Flags().StringVarP(&opts.Email, "email", "e", "", "account email")
	return cmd
}

// LogoutCmd returns the `repack logout` command.
func LogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.closer.Close()

			if err := s.client.Logout(cmd.Context()); err != nil {
				s.logger.WithError(err).Warn("logout request failed")
			}
			s.cfg.ClearSession()
			if err := s.cfg.Save(); err != nil {
				return errors.Wrap(err, "save config")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}
