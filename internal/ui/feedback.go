package ui

import (
	"sort"
	"sync"

	"github.com/gravitrone/repack/cli/internal/forms"
)

type pendingAlert struct {
	title    string
	text     string
	severity forms.Severity
}

// feedback collects what controllers report from their command goroutines.
// Models hold a pointer to it and drain it when a submission finishes.
type feedback struct {
	mu       sync.Mutex
	alerts   []pendingAlert
	fields   map[string]map[string]string
	invalid  map[string]map[string]bool
	spinning map[string]bool
	redirect string
	cleared  bool
	repaint  bool
	counted  bool
}

func newFeedback() *feedback {
	return &feedback{
		fields:   map[string]map[string]string{},
		invalid:  map[string]map[string]bool{},
		spinning: map[string]bool{},
	}
}

// formView wires a controller of the named form to this sink.
func (f *feedback) formView(form string) forms.View {
	return forms.View{
		Alerts:    f,
		Fields:    fieldScope{f: f, form: form},
		Spinner:   spinnerScope{f: f, form: form},
		Navigator: f,
		Passwords: f,
	}
}

func (f *feedback) ShowAlert(title, text string, severity forms.Severity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, pendingAlert{title: title, text: text, severity: severity})
}

func (f *feedback) Navigate(target string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redirect = target
}

func (f *feedback) ClearPasswords() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = true
}

// RenderRecords and UpdateSelectedCount make feedback a records.Renderer.
func (f *feedback) RenderRecords() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repaint = true
}

func (f *feedback) UpdateSelectedCount() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counted = true
}

func (f *feedback) takeAlerts() []pendingAlert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.alerts
	f.alerts = nil
	return out
}

func (f *feedback) takeRedirect() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	target := f.redirect
	f.redirect = ""
	return target
}

func (f *feedback) takePasswordsCleared() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	cleared := f.cleared
	f.cleared = false
	return cleared
}

// takeRepaint reports whether the list or the counter changed since the
// last call.
func (f *feedback) takeRepaint() (rows bool, count bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, count = f.repaint, f.counted
	f.repaint, f.counted = false, false
	return rows, count
}

func (f *feedback) fieldError(form, field string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields[form][field], f.invalid[form][field]
}

// invalidFields lists the fields of form marked invalid, sorted by name.
func (f *feedback) invalidFields(form string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.invalid[form]))
	for name := range f.invalid[form] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *feedback) hasFieldErrors(form string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.invalid[form]) > 0
}

func (f *feedback) isSpinning(form string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spinning[form]
}

func (f *feedback) anySpinning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, on := range f.spinning {
		if on {
			return true
		}
	}
	return false
}

// fieldScope is the FieldErrorRenderer of one form.
type fieldScope struct {
	f    *feedback
	form string
}

func (s fieldScope) ClearFieldErrors() {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	delete(s.f.fields, s.form)
	delete(s.f.invalid, s.form)
}

func (s fieldScope) MarkInvalid(field string) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if s.f.invalid[s.form] == nil {
		s.f.invalid[s.form] = map[string]bool{}
	}
	s.f.invalid[s.form][field] = true
}

func (s fieldScope) SetFeedback(field, text string) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if s.f.fields[s.form] == nil {
		s.f.fields[s.form] = map[string]string{}
	}
	s.f.fields[s.form][field] = text
}

type spinnerScope struct {
	f    *feedback
	form string
}

func (s spinnerScope) ShowSpinner() {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.spinning[s.form] = true
}

func (s spinnerScope) HideSpinner() {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.spinning[s.form] = false
}
