package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/gravitrone/repack/cli/internal/api"
	"github.com/gravitrone/repack/cli/internal/config"
	"github.com/gravitrone/repack/cli/internal/forms"
	"github.com/gravitrone/repack/cli/internal/logging"
	"github.com/gravitrone/repack/cli/internal/ui/components"
)

// --- Tab Constants ---

const (
	tabRecords = 0
	tabProfile = 1
	tabCount   = 2
)

var tabNames = []string{"Records", "Profile"}

// formRecords scopes the feedback of the three records controllers, which
// share one table.
const formRecords = "records"

const toastTTL = 2500 * time.Millisecond

// --- Messages ---

type errMsg struct{ err error }
type clearToastMsg struct{ seq int }

// submitDoneMsg is returned by a controller command once Submit returns.
type submitDoneMsg struct {
	form    string
	outcome forms.Outcome
}

type spinnerTickMsg struct{ form string }

type appToast struct {
	seq      int
	severity forms.Severity
	title    string
	text     string
}

// --- App Model ---

// App is the root TUI model that routes between tabs.
type App struct {
	client *api.Client
	config *config.Config
	logger logrus.FieldLogger
	fb     *feedback

	tab               int
	tabNav            bool
	width             int
	height            int
	err               string
	showRecoveryHints bool
	recoveryCommand   string
	helpOpen          bool
	quitConfirm       bool

	toast    *appToast
	toastSeq int

	records RecordsModel
	profile ProfileModel
}

// NewApp creates the root application model. A nil ctx or logger is allowed.
func NewApp(ctx context.Context, client *api.Client, cfg *config.Config, logger logrus.FieldLogger) App {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	fb := newFeedback()
	return App{
		client:          client,
		config:          cfg,
		logger:          logger,
		fb:              fb,
		tab:             tabRecords,
		tabNav:          true,
		recoveryCommand: "repack login",
		records:         NewRecordsModel(ctx, client, cfg, fb, logger),
		profile:         NewProfileModel(ctx, client, cfg, fb, logger),
	}
}

func (a App) Init() tea.Cmd {
	return a.records.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.records.width = msg.Width
		a.records.height = msg.Height
		a.profile.width = msg.Width
		a.profile.height = msg.Height
		return a, nil

	case errMsg:
		a.err = msg.err.Error()
		a.showRecoveryHints = errors.Is(msg.err, api.ErrNotAuthenticated)
		if a.showRecoveryHints {
			a.err = "Your session has expired."
		}
		a.logger.WithError(msg.err).Warn("tui action failed")
		return a, nil

	case clearToastMsg:
		if a.toast != nil && a.toast.seq == msg.seq {
			a.toast = nil
		}
		return a, nil

	case roomsLoadedMsg, recordsLoadedMsg, recordsFailedMsg:
		var cmd tea.Cmd
		a.records, cmd = a.records.Update(msg)
		return a, cmd

	case spinnerTickMsg:
		var cmd tea.Cmd
		if msg.form == formRecords {
			a.records, cmd = a.records.Update(msg)
		} else {
			a.profile, cmd = a.profile.Update(msg)
		}
		return a, cmd

	case submitDoneMsg:
		var cmd tea.Cmd
		if msg.form == formRecords {
			a.records, cmd = a.records.Update(msg)
		} else {
			a.profile, cmd = a.profile.Update(msg)
		}
		return a, tea.Batch(cmd, a.drainFeedback())

	case tea.KeyMsg:
		if a.quitConfirm {
			switch {
			case isKey(msg, "y"):
				return a, tea.Quit
			case isKey(msg, "n"), isBack(msg):
				a.quitConfirm = false
			}
			return a, nil
		}
		if a.helpOpen {
			if isBack(msg) || isKey(msg, "?") {
				a.helpOpen = false
			}
			return a, nil
		}
		if a.showRecoveryHints && isKey(msg, "c") {
			return a, a.setToast(forms.SeverityInfo, "Login", a.recoveryCommand)
		}
		if a.err != "" {
			a.err = ""
			a.showRecoveryHints = false
		}

		if isKey(msg, "ctrl+c") {
			return a.quit()
		}
		if !a.capturesText() {
			if isKey(msg, "?") {
				a.helpOpen = true
				return a, nil
			}
			if isQuit(msg) {
				return a.quit()
			}
			if idx, ok := tabIndexForKey(msg.String()); ok {
				return a.switchTab(idx)
			}
		}

		// Arrow tab navigation until user enters content with Down
		if a.tabNav {
			if isKey(msg, "left") {
				return a.switchTab((a.tab - 1 + tabCount) % tabCount)
			}
			if isKey(msg, "right") {
				return a.switchTab((a.tab + 1) % tabCount)
			}
			if isDown(msg) {
				a.tabNav = false
				return a, nil
			}

			// Any other key exits tab nav so the active tab can handle it.
			a.tabNav = false
		} else if isUp(msg) && a.canExitToTabNav() {
			a.tabNav = true
			return a, nil
		}
	}

	// Delegate to active tab
	var cmd tea.Cmd
	switch a.tab {
	case tabRecords:
		a.records, cmd = a.records.Update(msg)
	case tabProfile:
		a.profile, cmd = a.profile.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	banner := centerBlockUniform(RenderBanner(), a.width)
	tabs := centerBlockUniform(a.renderTabs(), a.width)

	var content string
	switch {
	case a.quitConfirm:
		content = a.renderQuitConfirm()
	case a.helpOpen:
		content = a.renderHelp()
	case a.tab == tabRecords:
		content = a.records.View()
	case a.tab == tabProfile:
		content = a.profile.View()
	}
	content = centerBlockUniform(content, a.width)

	hints := components.StatusBar(a.statusHints(), a.width)

	feedback := ""
	if a.err != "" {
		message := a.err
		if a.showRecoveryHints {
			message += "\n\nRecovery: run " + a.recoveryCommand + "  [c] show command"
		}
		feedback = "\n\n" + centerBlockUniform(components.ErrorBox("Error", message, a.width), a.width)
	} else if a.toast != nil {
		feedback = "\n\n" + centerBlockUniform(a.renderToast(), a.width)
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n\n\n%s%s", banner, tabs, content, hints, feedback)
}

func (a App) switchTab(newTab int) (App, tea.Cmd) {
	oldTab := a.tab
	a.tab = newTab
	if oldTab != newTab && newTab == tabRecords && a.records.vm.Len() == 0 {
		return a, a.records.Init()
	}
	return a, nil
}

func (a App) quit() (App, tea.Cmd) {
	if a.hasUnsaved() {
		a.quitConfirm = true
		return a, nil
	}
	return a, tea.Quit
}

// capturesText reports whether printable keys belong to a text field.
func (a App) capturesText() bool {
	return a.tab == tabProfile && !a.tabNav && a.profile.section != sectionSecurity
}

func (a App) hasUnsaved() bool {
	return a.records.dirty() || a.profile.dirty()
}

func (a App) canExitToTabNav() bool {
	switch a.tab {
	case tabRecords:
		if a.records.picking || a.records.confirming {
			return false
		}
		return a.records.list.Selected() == 0
	case tabProfile:
		return a.profile.focus == 0
	}
	return false
}

// drainFeedback turns queued controller alerts into a toast. The most severe
// alert wins when several arrive together.
func (a *App) drainFeedback() tea.Cmd {
	alerts := a.fb.takeAlerts()
	if target := a.fb.takeRedirect(); target != "" {
		alerts = append(alerts, pendingAlert{
			title:    "Redirected",
			text:     "The service moved on to " + target,
			severity: forms.SeverityInfo,
		})
	}
	if len(alerts) == 0 {
		return nil
	}
	pick := alerts[len(alerts)-1]
	for _, alert := range alerts {
		if severityRank(alert.severity) > severityRank(pick.severity) {
			pick = alert
		}
	}
	return a.setToast(pick.severity, pick.title, pick.text)
}

func severityRank(s forms.Severity) int {
	switch s {
	case forms.SeverityError:
		return 3
	case forms.SeverityWarning:
		return 2
	case forms.SeveritySuccess:
		return 1
	}
	return 0
}

func (a *App) setToast(severity forms.Severity, title, text string) tea.Cmd {
	a.toastSeq++
	seq := a.toastSeq
	a.toast = &appToast{
		seq:      seq,
		severity: severity,
		title:    components.SanitizeOneLine(title),
		text:     components.SanitizeText(text),
	}
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return clearToastMsg{seq: seq}
	})
}

func (a App) renderToast() string {
	if a.toast == nil {
		return ""
	}
	if a.toast.severity == forms.SeverityError {
		return components.ErrorBox(a.toast.title, a.toast.text, a.width)
	}
	return components.NoticeBox(string(a.toast.severity), a.toast.title, a.toast.text, a.width)
}

func (a App) renderTabs() string {
	segments := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		if i == a.tab {
			segments = append(segments, TabActiveStyle.Render(name))
		} else {
			segments = append(segments, TabInactiveStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, segments...)
}

func (a App) statusHints() []components.KeyHint {
	if a.quitConfirm {
		return components.Hints("y", "Confirm", "n", "Cancel")
	}
	if a.helpOpen {
		return components.Hints("esc", "Back")
	}
	hints := a.statusHintsForTab()
	if a.showRecoveryHints {
		hints = append(hints, components.KeyHint{Key: "c", Desc: "Command"})
	}
	return hints
}

func (a App) statusHintsForTab() []components.KeyHint {
	base := components.Hints("1-2", "Tabs", "?", "Help", "q", "Quit")

	switch a.tab {
	case tabRecords:
		switch {
		case a.records.confirming:
			return append(base, components.Hints("y", "Confirm", "n", "Cancel")...)
		case a.records.picking:
			return append(base, components.Hints("↑/↓", "Move", "enter", "Open", "esc", "Back")...)
		}
		return append(base, components.Hints(
			"space", "Select",
			"b", "All",
			"esc", "Clear",
			"p", "Process",
			"t", "Terminate",
			"u", "Upload",
			"r", "Refresh",
			"o", "Room",
		)...)
	case tabProfile:
		// Letters type into the fields here, so quitting needs ctrl+c.
		hints := components.Hints("ctrl+c", "Quit", "tab", "Section", "enter", "Save")
		if a.profile.section == sectionSecurity {
			return append(hints, components.KeyHint{Key: "space", Desc: "Toggle"})
		}
		return append(hints, components.Hints("↑/↓", "Field", "ctrl+u", "Clear")...)
	}
	return base
}

func (a App) renderHelp() string {
	body := MutedStyle.Render("esc to close") + "\n\n" + components.HelpLines(a.statusHintsForTab())
	return components.Indent(components.TitledBox("Help", body, a.width), 1)
}

func (a App) renderQuitConfirm() string {
	body := "A submission is pending or a form has input. Quit anyway?"
	return components.Indent(components.ConfirmDialog("Quit", body), 1)
}

// --- Spinner ---

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func spinnerFrame(i int) string {
	if i < 0 {
		i = -i
	}
	return spinnerFrames[i%len(spinnerFrames)]
}

func spinnerTick(form string) tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{form: form}
	})
}

// --- Layout ---

func centerBlockUniform(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	maxWidth := 0
	for _, line := range lines {
		w := lipgloss.Width(line)
		if w > maxWidth {
			maxWidth = w
		}
	}
	if maxWidth <= 0 || maxWidth >= width {
		return s
	}
	pad := (width - maxWidth) / 2
	if pad <= 0 {
		return s
	}
	prefix := strings.Repeat(" ", pad)
	for i := range lines {
		if lines[i] != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func tabIndexForKey(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	idx := int(key[0] - '1')
	if idx >= tabCount {
		return 0, false
	}
	return idx, true
}
