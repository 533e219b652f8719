package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	hintDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ba0bf"))
	keyCapStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#16161d")).
			Background(lipgloss.Color("#888ba4")).
			Bold(true).
			Padding(0, 1)
	segmentStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#273540")).
			Padding(0, 1).
			MarginRight(1)
	statusBarStyle = lipgloss.NewStyle().
			PaddingLeft(2)
)

// KeyHint pairs a key with what it does in the current view.
type KeyHint struct {
	Key  string
	Desc string
}

// Hints builds hints from key, description pairs. A trailing key without a
// description is dropped.
func Hints(pairs ...string) []KeyHint {
	out := make([]KeyHint, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, KeyHint{Key: pairs[i], Desc: pairs[i+1]})
	}
	return out
}

// Render draws the hint as a description followed by a key cap.
func (h KeyHint) Render() string {
	return hintDescStyle.Render(SanitizeOneLine(h.Desc)+" ") + keyCapStyle.Render(SanitizeOneLine(h.Key))
}

// StatusBar lays the hints out as boxed segments. Segments wrap onto extra
// rows when width is too narrow, and each row is centred.
func StatusBar(hints []KeyHint, width int) string {
	if len(hints) == 0 {
		return ""
	}
	segments := make([]string, len(hints))
	for i, h := range hints {
		segments[i] = segmentStyle.Render(h.Render())
	}
	if width <= 0 {
		return statusBarStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, segments...))
	}

	rows := packRows(segments, width)
	widest := 0
	for _, row := range rows {
		widest = max(widest, lipgloss.Width(row))
	}
	row := lipgloss.NewStyle().Width(widest).Align(lipgloss.Center)
	for i := range rows {
		rows[i] = row.Render(rows[i])
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// HelpLines renders one aligned "key  description" line per hint for the
// help overlay.
func HelpLines(hints []KeyHint) string {
	keyWidth := 0
	for _, h := range hints {
		keyWidth = max(keyWidth, lipgloss.Width(SanitizeOneLine(h.Key)))
	}
	lines := make([]string, len(hints))
	for i, h := range hints {
		key := boxLabelStyle.Render(padRight(SanitizeOneLine(h.Key), keyWidth))
		lines[i] = "  " + key + "  " + hintDescStyle.Render(SanitizeOneLine(h.Desc))
	}
	return strings.Join(lines, "\n")
}

// packRows fills each row greedily; a segment wider than width gets a row
// of its own.
func packRows(segments []string, width int) []string {
	var rows []string
	start, used := 0, 0
	for i, seg := range segments {
		w := lipgloss.Width(seg)
		if i > start && used+w > width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, segments[start:i]...))
			start, used = i, 0
		}
		used += w
	}
	if start < len(segments) {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, segments[start:]...))
	}
	return rows
}
