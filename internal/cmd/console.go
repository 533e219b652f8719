package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gravitrone/repack/cli/internal/forms"
	"github.com/gravitrone/repack/cli/internal/records"
	"github.com/gravitrone/repack/cli/internal/ui/components"
)

const consoleWidth = 110

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3f866b")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d4a15a")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d1606b")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f57b4")).Bold(true)
	fieldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d1606b"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ba0bf"))
)

func severityStyle(s forms.Severity) lipgloss.Style {
	switch s {
	case forms.SeveritySuccess:
		return successStyle
	case forms.SeverityWarning:
		return warningStyle
	case forms.SeverityError:
		return errorStyle
	}
	return infoStyle
}

// console prints controller feedback line by line. It satisfies every
// presenter the forms package knows about plus records.Renderer.
type console struct {
	out     io.Writer
	vm      *records.ViewModel
	invalid map[string]bool
}

func newConsole(out io.Writer) *console {
	return &console{out: out, invalid: map[string]bool{}}
}

func (c *console) view() forms.View {
	return forms.View{Alerts: c, Fields: c, Spinner: c, Navigator: c, Passwords: c}
}

func (c *console) ShowAlert(title, text string, severity forms.Severity) {
	label := severityStyle(severity).Render(string(severity))
	fmt.Fprintf(c.out, "%s %s: %s\n", label, components.SanitizeOneLine(title), components.SanitizeText(text))
}

func (c *console) ClearFieldErrors() {
	c.invalid = map[string]bool{}
}

func (c *console) MarkInvalid(field string) {
	c.invalid[field] = true
}

func (c *console) SetFeedback(field, text string) {
	lines := strings.Split(components.SanitizeText(text), "\n")
	fmt.Fprintf(c.out, "  %s %s\n", fieldStyle.Render(field+":"), lines[0])
	for _, line := range lines[1:] {
		fmt.Fprintf(c.out, "  %s %s\n", strings.Repeat(" ", len(field)+1), line)
	}
}

// Invalid lists the fields marked in the last submission.
func (c *console) Invalid() []string {
	out := make([]string, 0, len(c.invalid))
	for field := range c.invalid {
		out = append(out, field)
	}
	return out
}

func (c *console) ShowSpinner() {
	fmt.Fprintln(c.out, mutedStyle.Render("working..."))
}

func (c *console) HideSpinner() {}

func (c *console) Navigate(target string) {
	fmt.Fprintf(c.out, "redirected to %s\n", components.SanitizeOneLine(target))
}

func (c *console) ClearPasswords() {}

func (c *console) RenderRecords() {
	if c.vm == nil {
		return
	}
	fmt.Fprintln(c.out, recordsTable(c.vm.Records(), c.vm.IsSelected, consoleWidth))
}

func (c *console) UpdateSelectedCount() {
	if c.vm == nil {
		return
	}
	fmt.Fprintln(c.out, mutedStyle.Render("selected: "+strconv.Itoa(c.vm.SelectedCount())))
}

var recordColumns = []components.TableColumn{
	{Header: "", Width: 3},
	{Header: "Recording", Width: 56},
	{Header: "Status", Width: 14},
	{Header: "Created", Width: 17},
	{Header: "Length", Width: 10},
}

func recordsTable(list []records.Record, selected func(records.ID) bool, width int) string {
	if len(list) == 0 {
		return mutedStyle.Render("no recordings")
	}
	rows := make([][]string, len(list))
	for i, r := range list {
		mark := "[ ]"
		if selected != nil && selected(r.ID) {
			mark = "[X]"
		}
		rows[i] = []string{mark, r.ID.String(), r.Status.Label(), formatTime(r.Created), formatDuration(r)}
	}
	return components.TableGrid(recordColumns, rows, width)
}

func formatTime(t records.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatDuration(r records.Record) string {
	d := r.Duration()
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
