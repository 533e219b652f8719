package forms

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/gravitrone/repack/cli/internal/api"
	"github.com/gravitrone/repack/cli/internal/records"
)

var (
	profileSuccess  = successAlert{title: "Profile information", text: "Profile updated successfully."}
	passwordSuccess = successAlert{title: "Change password", text: "Password changed successfully."}
	securitySuccess = successAlert{title: "Security", text: "Security settings updated successfully."}
)

const (
	msgPasswordsEqual    = "passwords must not be equal"
	msgPasswordsMismatch = "passwords do not match"
)

// ProfileForm is the basic account information form.
type ProfileForm struct {
	LastName   string `form:"last_name" validate:"omitempty,max=150"`
	FirstName  string `form:"first_name" validate:"omitempty,max=150"`
	MiddleName string `form:"middle_name" validate:"omitempty,max=150"`
	Email      string `form:"email" validate:"required,email"`
}

// PasswordForm changes the account password.
type PasswordForm struct {
	CurrentPassword string `form:"current_password"`
	Password        string `form:"password" validate:"nefield=CurrentPassword"`
	RePassword      string `form:"re_password" validate:"eqfield=Password"`
}

// SecurityForm toggles two-factor authentication.
type SecurityForm struct {
	TwoFactorAuth bool `form:"two_factor_auth"`
}

// ProfileController submits ProfileForm and follows the redirect the service
// may answer with.
type ProfileController struct {
	*controller
}

func NewProfileController(s Submitter, view View, opts ...Option) *ProfileController {
	c := newController(api.ProfileInfo, s, view, profileSuccess, opts)
	c.follow = true
	return &ProfileController{controller: c}
}

// Submit sends the form. Field checks are left to the service.
func (c *ProfileController) Submit(ctx context.Context, form ProfileForm) Outcome {
	if !c.acquire() {
		return OutcomeBusy
	}
	defer c.release()

	c.view.clearFields()
	return c.send(ctx, form, nil)
}

// ValidateProfile runs the local checks a command line caller wants before
// sending; the interactive form skips them.
func ValidateProfile(form ProfileForm) error {
	if err := records.Validator().Struct(form); err != nil {
		return errors.Wrap(err, "invalid profile")
	}
	return nil
}

// PasswordController submits PasswordForm after the local guard passes.
type PasswordController struct {
	*controller
}

func NewPasswordController(s Submitter, view View, opts ...Option) *PasswordController {
	return &PasswordController{controller: newController(api.ChangePassword, s, view, passwordSuccess, opts)}
}

// Submit checks that the new password differs from the current one, then
// that it was repeated correctly. Either failure marks the two fields
// involved and sends nothing.
func (c *PasswordController) Submit(ctx context.Context, form PasswordForm) Outcome {
	if !c.acquire() {
		return OutcomeBusy
	}
	defer c.release()

	c.view.clearFields()
	if fields, msg := checkPasswords(form); len(fields) > 0 {
		for _, field := range fields {
			c.view.fieldError(field, msg)
		}
		c.logger.WithField("form", c.endpoint.Name).Debug(msg)
		return OutcomeInvalid
	}

	return c.send(ctx, form, func(*api.Result) {
		if c.view.Passwords != nil {
			c.view.Passwords.ClearPasswords()
		}
	})
}

func checkPasswords(form PasswordForm) ([]string, string) {
	err := records.Validator().Struct(form)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, ""
	}
	for _, fe := range verrs {
		if fe.Tag() == "nefield" {
			return []string{"current_password", "password"}, msgPasswordsEqual
		}
	}
	for _, fe := range verrs {
		if fe.Tag() == "eqfield" {
			return []string{"password", "re_password"}, msgPasswordsMismatch
		}
	}
	return nil, ""
}

// SecurityController submits SecurityForm.
type SecurityController struct {
	*controller
}

func NewSecurityController(s Submitter, view View, opts ...Option) *SecurityController {
	return &SecurityController{controller: newController(api.Security, s, view, securitySuccess, opts)}
}

func (c *SecurityController) Submit(ctx context.Context, form SecurityForm) Outcome {
	if !c.acquire() {
		return OutcomeBusy
	}
	defer c.release()

	c.view.clearFields()
	return c.send(ctx, form, nil)
}
