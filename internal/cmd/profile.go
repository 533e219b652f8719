package cmd

import (
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/gravitrone/repack/cli/internal/forms"
)

// ProfileCmd returns the `repack profile` command group.
func ProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Edit account information, password and 2FA",
	}
	cmd.AddCommand(profileInfoCmd())
	cmd.AddCommand(profilePasswordCmd())
	cmd.AddCommand(profileSecurityCmd())
	return cmd
}

func profileInfoCmd() *cobra.Command {
	var form forms.ProfileForm
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Update name and email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := forms.ValidateProfile(form); err != nil {
				return err
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			con := newConsole(cmd.OutOrStdout())
			ctrl := forms.NewProfileController(s.client, con.view(), forms.WithLogger(s.logger))
			outcome := ctrl.Submit(cmd.Context(), form)
			if outcome.OK() && form.Email != s.cfg.Email {
				s.cfg.Email = form.Email
				if err := s.cfg.Save(); err != nil {
					return errors.Wrap(err, "save config")
				}
			}
			return outcomeError("profile", outcome)
		},
	}
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&form.MiddleName, "middle-name", "", "middle name")
	cmd.Flags().StringVar(&form.Email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func profilePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var form forms.PasswordForm
			var err error
			if form.CurrentPassword, err = prompter.Ask("current password", true); err != nil {
				return err
			}
			if form.Password, err = prompter.Ask("new password", true); err != nil {
				return err
			}
			if form.RePassword, err = prompter.Ask("repeat new password", true); err != nil {
				return err
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			con := newConsole(cmd.OutOrStdout())
			ctrl := forms.NewPasswordController(s.client, con.view(), forms.WithLogger(s.logger))
			return outcomeError("password", ctrl.Submit(cmd.Context(), form))
		},
	}
}

func profileSecurityCmd() *cobra.Command {
	var enable, disable bool
	cmd := &cobra.Command{
		Use:   "security",
		Short: "Turn two-factor authentication on or off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			con := newConsole(cmd.OutOrStdout())
			ctrl := forms.NewSecurityController(s.client, con.view(), forms.WithLogger(s.logger))
			return outcomeError("security", ctrl.Submit(cmd.Context(), forms.SecurityForm{TwoFactorAuth: enable && !disable}))
		},
	}
	cmd.Flags().BoolVar(&enable, "enable", false, "require an emailed code at login")
	cmd.Flags().BoolVar(&disable, "disable", false, "sign in with password only")
	cmd.MarkFlagsMutuallyExclusive("enable", "disable")
	cmd.MarkFlagsOneRequired("enable", "disable")
	return cmd
}
