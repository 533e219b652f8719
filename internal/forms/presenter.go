package forms

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Severity classifies an alert.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// ParseSeverity maps a server-provided message type onto a Severity.
// Unknown types are shown as info.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeveritySuccess:
		return SeveritySuccess
	case SeverityWarning:
		return SeverityWarning
	case SeverityError:
		return SeverityError
	}
	return SeverityInfo
}

// AlertPresenter shows a transient notification.
type AlertPresenter interface {
	ShowAlert(title, text string, severity Severity)
}

// FieldErrorRenderer shows inline errors for the fields of a single form.
type FieldErrorRenderer interface {
	ClearFieldErrors()
	MarkInvalid(field string)
	SetFeedback(field, text string)
}

// Spinner is the loading indicator of a form.
type Spinner interface {
	ShowSpinner()
	HideSpinner()
}

// Navigator follows a redirect returned by the service.
type Navigator interface {
	Navigate(target string)
}

// PasswordResetter empties password inputs.
type PasswordResetter interface {
	ClearPasswords()
}

// View bundles the collaborators a controller reports to. Only Alerts is
// required; the other slots are skipped when nil.
type View struct {
	Alerts    AlertPresenter
	Fields    FieldErrorRenderer
	Spinner   Spinner
	Navigator Navigator
	Passwords PasswordResetter
}

func (v View) alert(title, text string, severity Severity) {
	if v.Alerts != nil {
		v.Alerts.ShowAlert(title, text, severity)
	}
}

func (v View) clearFields() {
	if v.Fields != nil {
		v.Fields.ClearFieldErrors()
	}
}

func (v View) fieldError(field, text string) {
	if v.Fields == nil {
		return
	}
	v.Fields.MarkInvalid(field)
	v.Fields.SetFeedback(field, text)
}

func (v View) showSpinner() {
	if v.Spinner != nil {
		v.Spinner.ShowSpinner()
	}
}

func (v View) hideSpinner() {
	if v.Spinner != nil {
		v.Spinner.HideSpinner()
	}
}

var policy = bluemonday.StrictPolicy()

// Clean strips markup from a server message so it is safe to print.
func Clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}

// JoinMessages renders a field's messages one per line.
func JoinMessages(messages []string) string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		if m = Clean(m); m != "" {
			out = append(out, m)
		}
	}
	return strings.Join(out, "\n")
}
