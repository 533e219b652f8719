package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/repack/cli/internal/api"
	"github.com/gravitrone/repack/cli/internal/forms"
	"github.com/gravitrone/repack/cli/internal/ui/components"
)

func TestAppViewShowsBannerAndTabs(t *testing.T) {
	app := loadedApp(t, roomRouter(t))
	app, _ = update(t, app, tea.WindowSizeMsg{Width: 140, Height: 50})

	out := components.SanitizeText(app.View())
	assert.Contains(t, out, "Recordings Repacking")
	assert.Contains(t, out, "Records")
	assert.Contains(t, out, "Profile")
	assert.Contains(t, out, ridA)
	assert.Equal(t, 140, app.records.width)
	assert.Equal(t, 140, app.profile.width)
}

func TestAppTabSwitching(t *testing.T) {
	app := loadedApp(t, roomRouter(t))

	app, _ = update(t, app, keyRune('2'))
	assert.Equal(t, tabProfile, app.tab)

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, tabRecords, app.tab)

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, tabProfile, app.tab)

	app, _ = update(t, app, keyRune('1'))
	assert.Equal(t, tabRecords, app.tab)
}

func TestAppDownEntersContentAndUpReturnsToTabs(t *testing.T) {
	app := loadedApp(t, roomRouter(t))
	require.True(t, app.tabNav)

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyDown})
	assert.False(t, app.tabNav)
	assert.Equal(t, 0, app.records.list.Selected())

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, app.records.list.Selected())

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyUp})
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyUp})
	assert.True(t, app.tabNav)
}

func TestAppProfileTypingDoesNotSwitchTabs(t *testing.T) {
	app := loadedApp(t, roomRouter(t))
	app, _ = update(t, app, keyRune('2'))
	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyDown})

	for _, r := range "q1?" {
		app, _ = update(t, app, keyRune(r))
	}
	assert.Equal(t, tabProfile, app.tab)
	assert.False(t, app.helpOpen)
	assert.Equal(t, "q1?", app.profile.infoFields[0].value)
}

func TestAppQuitWhenClean(t *testing.T) {
	app := loadedApp(t, roomRouter(t))

	_, cmd := update(t, app, keyRune('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAppQuitConfirmsWithPendingInput(t *testing.T) {
	app := loadedApp(t, roomRouter(t))
	app.profile.passFields[0].value = "secret"

	app, cmd := update(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Nil(t, cmd)
	require.True(t, app.quitConfirm)
	assert.Contains(t, components.SanitizeText(app.View()), "Quit anyway?")

	app, _ = update(t, app, keyRune('n'))
	assert.False(t, app.quitConfirm)

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})
	_, cmd = update(t, app, keyRune('y'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAppHelpOverlay(t *testing.T) {
	app := loadedApp(t, roomRouter(t))
	app.width = 120

	app, _ = update(t, app, keyRune('?'))
	require.True(t, app.helpOpen)
	out := components.SanitizeText(app.View())
	assert.Contains(t, out, "Help")
	assert.Contains(t, out, "Terminate")

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, app.helpOpen)
}

func TestAppNotAuthenticatedShowsRecovery(t *testing.T) {
	app := NewApp(testContext(t), nil, nil, nil)
	app.width = 120

	app, _ = update(t, app, errMsg{errors.Wrap(api.ErrNotAuthenticated, "list records")})
	assert.True(t, app.showRecoveryHints)
	out := components.SanitizeText(app.View())
	assert.Contains(t, out, "session has expired")
	assert.Contains(t, out, "repack login")

	app, cmd := update(t, app, keyRune('c'))
	require.NotNil(t, cmd)
	require.NotNil(t, app.toast)
	assert.Equal(t, "repack login", app.toast.text)
}

func TestAppPlainErrorClearsOnKey(t *testing.T) {
	app := NewApp(testContext(t), nil, nil, nil)

	app, _ = update(t, app, errMsg{errors.New("boom")})
	assert.Equal(t, "boom", app.err)
	assert.False(t, app.showRecoveryHints)

	app, _ = update(t, app, tea.KeyMsg{Type: tea.KeyDown})
	assert.Empty(t, app.err)
}

func TestAppSubmitDoneRaisesToast(t *testing.T) {
	app := loadedApp(t, roomRouter(t))

	_, cmd := update(t, app, keyRune('p'))
	done := findMsg[submitDoneMsg](t, collect(cmd))
	assert.Equal(t, forms.OutcomeAborted, done.outcome)

	app, cmd = update(t, app, done)
	require.NotNil(t, cmd)
	require.NotNil(t, app.toast)
	assert.Equal(t, "Processing", app.toast.title)
	assert.Equal(t, "No recordings selected for processing.", app.toast.text)
	assert.Equal(t, forms.SeverityWarning, app.toast.severity)

	app.width = 120
	assert.Contains(t, components.SanitizeText(app.View()), "No recordings selected for processing.")
}

func TestAppDrainPrefersErrors(t *testing.T) {
	app := NewApp(testContext(t), nil, nil, nil)
	app.fb.ShowAlert("Success", "done", forms.SeveritySuccess)
	app.fb.ShowAlert("Recordings", "bad ids", forms.SeverityError)
	app.fb.ShowAlert("Note", "fyi", forms.SeverityInfo)

	require.NotNil(t, app.drainFeedback())
	assert.Equal(t, "bad ids", app.toast.text)
	assert.Empty(t, app.fb.takeAlerts())
}

func TestAppRedirectBecomesToast(t *testing.T) {
	app := NewApp(testContext(t), nil, nil, nil)
	app.fb.Navigate("/profile/")

	require.NotNil(t, app.drainFeedback())
	assert.Contains(t, app.toast.text, "/profile/")
	assert.Nil(t, app.drainFeedback())
}

func TestAppStaleToastTimerKeepsNewerToast(t *testing.T) {
	app := NewApp(testContext(t), nil, nil, nil)
	app.setToast(forms.SeverityInfo, "One", "first")
	app.setToast(forms.SeverityInfo, "Two", "second")

	app, _ = update(t, app, clearToastMsg{seq: 1})
	require.NotNil(t, app.toast)
	assert.Equal(t, "second", app.toast.text)

	app, _ = update(t, app, clearToastMsg{seq: 2})
	assert.Nil(t, app.toast)
}

func TestAppErrorToastUsesErrorBox(t *testing.T) {
	app := NewApp(testContext(t), nil, nil, nil)
	app.width = 100
	app.setToast(forms.SeverityError, "Error", "An error occurred, please try again later.")

	out := components.SanitizeText(app.renderToast())
	assert.Contains(t, out, "An error occurred")
	assert.True(t, strings.Contains(out, "Error"))
}

func TestCenterBlockUniformPadsShortLines(t *testing.T) {
	out := centerBlockUniform("hi\nworld", 15)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "     hi", lines[0])
	assert.Equal(t, "     world", lines[1])

	assert.Equal(t, "0123456789", centerBlockUniform("0123456789", 5))
	assert.Equal(t, "x", centerBlockUniform("x", 0))
}

func TestSpinnerFrameWraps(t *testing.T) {
	assert.Equal(t, spinnerFrames[0], spinnerFrame(len(spinnerFrames)))
	assert.Equal(t, spinnerFrames[1], spinnerFrame(-1))
}
