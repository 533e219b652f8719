package ui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/gravitrone/repack/cli/internal/api"
	"github.com/gravitrone/repack/cli/internal/config"
	"github.com/gravitrone/repack/cli/internal/forms"
	"github.com/gravitrone/repack/cli/internal/ui/components"
)

// --- Profile Sections ---

const (
	sectionInfo     = 0
	sectionPassword = 1
	sectionSecurity = 2
	sectionCount    = 3
)

var sectionNames = []string{"Information", "Password", "Security"}

type profileField struct {
	name   string
	label  string
	value  string
	secret bool
}

// --- Profile Model ---

// ProfileModel edits the account forms: basic information, password and
// two-factor authentication.
type ProfileModel struct {
	ctx    context.Context
	config *config.Config
	fb     *feedback

	info     *forms.ProfileController
	password *forms.PasswordController
	security *forms.SecurityController

	section    int
	focus      int
	infoFields []profileField
	passFields []profileField
	twoFactor  bool

	pendingEmail string
	inflight     map[string]int
	frame        int
	enabled      bool

	width  int
	height int
}

// NewProfileModel builds the profile tab.
func NewProfileModel(ctx context.Context, client *api.Client, cfg *config.Config, fb *feedback, logger logrus.FieldLogger) ProfileModel {
	m := ProfileModel{
		ctx:     ctx,
		config:  cfg,
		fb:      fb,
		enabled: client != nil,
		infoFields: []profileField{
			{name: "last_name", label: "Last name"},
			{name: "first_name", label: "First name"},
			{name: "middle_name", label: "Middle name"},
			{name: "email", label: "Email"},
		},
		passFields: []profileField{
			{name: "current_password", label: "Current password", secret: true},
			{name: "password", label: "New password", secret: true},
			{name: "re_password", label: "Repeat new password", secret: true},
		},
		inflight: map[string]int{},
	}
	if client != nil {
		m.info = forms.NewProfileController(client, fb.formView(api.ProfileInfo.Name), forms.WithLogger(logger))
		m.password = forms.NewPasswordController(client, fb.formView(api.ChangePassword.Name), forms.WithLogger(logger))
		m.security = forms.NewSecurityController(client, fb.formView(api.Security.Name), forms.WithLogger(logger))
	}
	if cfg != nil {
		m.infoFields[3].value = cfg.Email
	}
	return m
}

func (m ProfileModel) Init() tea.Cmd {
	return nil
}

func (m ProfileModel) Update(msg tea.Msg) (ProfileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case submitDoneMsg:
		if !isProfileForm(msg.form) {
			return m, nil
		}
		if m.inflight[msg.form] > 0 {
			m.inflight[msg.form]--
		}
		if msg.form == api.ChangePassword.Name && m.fb.takePasswordsCleared() {
			for i := range m.passFields {
				m.passFields[i].value = ""
			}
		}
		if msg.form == api.ProfileInfo.Name && msg.outcome.OK() {
			email := m.pendingEmail
			m.pendingEmail = ""
			return m, m.rememberEmail(email)
		}
		return m, nil

	case spinnerTickMsg:
		if !isProfileForm(msg.form) {
			return m, nil
		}
		m.frame++
		if m.inflight[msg.form] > 0 || m.fb.isSpinning(msg.form) {
			return m, spinnerTick(msg.form)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case isNextSection(msg):
			m.section = (m.section + 1) % sectionCount
			m.focus = 0
			return m, nil
		case isPrevSection(msg):
			m.section = (m.section - 1 + sectionCount) % sectionCount
			m.focus = 0
			return m, nil
		case isSubmit(msg):
			return m.submit()
		}

		if m.section == sectionSecurity {
			if isSpace(msg) {
				m.twoFactor = !m.twoFactor
			}
			return m, nil
		}

		fields := m.fields()
		switch {
		case isDown(msg):
			m.focus = (m.focus + 1) % len(fields)
		case isUp(msg):
			m.focus = (m.focus - 1 + len(fields)) % len(fields)
		case isKey(msg, "backspace"):
			f := &fields[m.focus]
			if r := []rune(f.value); len(r) > 0 {
				f.value = string(r[:len(r)-1])
			}
		case isKey(msg, "ctrl+u"):
			fields[m.focus].value = ""
		default:
			if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
				fields[m.focus].value += string(msg.Runes)
			}
		}
	}
	return m, nil
}

// fields returns the editable fields of the active section. The slice
// shares its backing array with the model.
func (m ProfileModel) fields() []profileField {
	if m.section == sectionPassword {
		return m.passFields
	}
	return m.infoFields
}

func (m ProfileModel) value(fields []profileField, name string) string {
	for _, f := range fields {
		if f.name == name {
			return f.value
		}
	}
	return ""
}

func (m ProfileModel) submit() (ProfileModel, tea.Cmd) {
	if !m.enabled {
		return m, nil
	}
	ctx := m.ctx
	var form string
	var run tea.Cmd
	switch m.section {
	case sectionInfo:
		form = api.ProfileInfo.Name
		input := forms.ProfileForm{
			LastName:   strings.TrimSpace(m.value(m.infoFields, "last_name")),
			FirstName:  strings.TrimSpace(m.value(m.infoFields, "first_name")),
			MiddleName: strings.TrimSpace(m.value(m.infoFields, "middle_name")),
			Email:      strings.TrimSpace(m.value(m.infoFields, "email")),
		}
		m.pendingEmail = input.Email
		c := m.info
		run = func() tea.Msg {
			return submitDoneMsg{form: form, outcome: c.Submit(ctx, input)}
		}
	case sectionPassword:
		form = api.ChangePassword.Name
		input := forms.PasswordForm{
			CurrentPassword: m.value(m.passFields, "current_password"),
			Password:        m.value(m.passFields, "password"),
			RePassword:      m.value(m.passFields, "re_password"),
		}
		c := m.password
		run = func() tea.Msg {
			return submitDoneMsg{form: form, outcome: c.Submit(ctx, input)}
		}
	case sectionSecurity:
		form = api.Security.Name
		input := forms.SecurityForm{TwoFactorAuth: m.twoFactor}
		c := m.security
		run = func() tea.Msg {
			return submitDoneMsg{form: form, outcome: c.Submit(ctx, input)}
		}
	}
	m.inflight[form]++
	return m, tea.Batch(run, spinnerTick(form))
}

func (m ProfileModel) rememberEmail(email string) tea.Cmd {
	cfg := m.config
	if cfg == nil || email == "" || email == cfg.Email {
		return nil
	}
	return func() tea.Msg {
		cfg.Email = email
		if err := cfg.Save(); err != nil {
			return errMsg{errors.Wrap(err, "save config")}
		}
		return nil
	}
}

// dirty reports whether any password buffer holds input.
func (m ProfileModel) dirty() bool {
	for _, f := range m.passFields {
		if f.value != "" {
			return true
		}
	}
	for _, n := range m.inflight {
		if n > 0 {
			return true
		}
	}
	return false
}

// --- View ---

func (m ProfileModel) View() string {
	var b strings.Builder
	b.WriteString(m.renderSections())
	b.WriteString("\n\n")

	form := m.activeForm()
	switch m.section {
	case sectionSecurity:
		mark := "[ ]"
		if m.twoFactor {
			mark = "[X]"
		}
		b.WriteString(SelectedStyle.Render("> Two-factor authentication:"))
		b.WriteString("\n")
		b.WriteString(NormalStyle.Render("  " + mark + " send a login code by email"))
		if text, invalid := m.fb.fieldError(form, "two_factor_auth"); invalid {
			b.WriteString("\n")
			b.WriteString(ErrorStyle.Render("  " + components.SanitizeOneLine(text)))
		}
	default:
		fields := m.fields()
		for i, f := range fields {
			value := f.value
			if f.secret {
				value = strings.Repeat("•", len([]rune(f.value)))
			}
			value = components.SanitizeOneLine(value)
			if i == m.focus {
				b.WriteString(SelectedStyle.Render("> " + f.label + ":"))
				b.WriteString("\n")
				b.WriteString(NormalStyle.Render("  " + value))
				b.WriteString(AccentStyle.Render("█"))
			} else {
				b.WriteString(MutedStyle.Render("  " + f.label + ":"))
				b.WriteString("\n")
				if value == "" {
					value = "-"
				}
				b.WriteString(NormalStyle.Render("  " + value))
			}
			if text, invalid := m.fb.fieldError(form, f.name); invalid {
				b.WriteString("\n")
				lines := strings.Split(components.SanitizeText(text), "\n")
				for j, line := range lines {
					lines[j] = ErrorStyle.Render("  " + line)
				}
				b.WriteString(strings.Join(lines, "\n"))
			}
			if i < len(fields)-1 {
				b.WriteString("\n\n")
			}
		}
	}

	if m.fb.isSpinning(form) {
		b.WriteString("\n\n")
		b.WriteString(AccentStyle.Render(spinnerFrame(m.frame) + " saving"))
	}
	return components.Indent(components.TitledBox("Profile", b.String(), m.width), 1)
}

func (m ProfileModel) renderSections() string {
	parts := make([]string, len(sectionNames))
	for i, name := range sectionNames {
		if i == m.section {
			parts[i] = AccentStyle.Render("[" + name + "]")
		} else {
			parts[i] = MutedStyle.Render(" " + name + " ")
		}
	}
	return strings.Join(parts, " ")
}

func (m ProfileModel) activeForm() string {
	switch m.section {
	case sectionPassword:
		return api.ChangePassword.Name
	case sectionSecurity:
		return api.Security.Name
	}
	return api.ProfileInfo.Name
}

func isProfileForm(form string) bool {
	switch form {
	case api.ProfileInfo.Name, api.ChangePassword.Name, api.Security.Name:
		return true
	}
	return false
}
