package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TableColumn is one column of a TableGrid. Width excludes separators.
// The first Flex column absorbs any difference between the summed widths
// and the table width; without one the last column does.
type TableColumn struct {
	Header string
	Width  int
	Align  lipgloss.Position
	Flex   bool
}

// Rows are indented by this many columns.
const gridIndent = 2

var (
	gridLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#273540"))
	gridHeaderStyle = boxLabelStyle.Bold(true)
	gridActiveRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#d7d9da")).
				Background(lipgloss.Color("#1f2530")).
				Bold(true)
	gridActiveSepStyle = gridLineStyle.
				Background(lipgloss.Color("#1f2530"))
	gridMarkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d1606b")).
			Bold(true)
)

// TableGrid renders rows under a header and a rule, columns split by the
// rounded border's vertical glyph. Every line is exactly tableWidth wide.
func TableGrid(columns []TableColumn, rows [][]string, tableWidth int) string {
	return TableGridWithActiveRow(columns, rows, tableWidth, -1)
}

// TableGridWithActiveRow is TableGrid with rows[activeRow] highlighted as
// the cursor row. A negative activeRow highlights nothing.
func TableGridWithActiveRow(columns []TableColumn, rows [][]string, tableWidth int, activeRow int) string {
	if tableWidth <= 0 {
		return ""
	}
	if len(columns) == 0 {
		return padRight("", tableWidth)
	}

	glyphs := lipgloss.RoundedBorder()
	sep, rule, cross := orDefault(glyphs.Left, "|"), orDefault(glyphs.Top, "-"), orDefault(glyphs.Middle, "+")
	cols := fitGridColumns(columns, lipgloss.Width(sep), tableWidth)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = SanitizeOneLine(c.Header)
	}

	out := make([]string, 0, len(rows)+2)
	out = append(out, renderGridLine(cols, header, sep, tableWidth, headerLine))
	out = append(out, renderGridRule(cols, cross, rule, tableWidth))
	for i, row := range rows {
		kind := dataLine
		if i == activeRow {
			kind = activeLine
		}
		out = append(out, renderGridLine(cols, row, sep, tableWidth, kind))
	}
	return strings.Join(out, "\n")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// fitGridColumns sizes columns so that they and their separators fill
// tableWidth minus the indent.
func fitGridColumns(columns []TableColumn, sepWidth, tableWidth int) []TableColumn {
	fitted := make([]TableColumn, len(columns))
	copy(fitted, columns)

	avail := max(tableWidth-gridIndent, len(fitted))
	used := max(sepWidth, 1) * (len(fitted) - 1)
	flex := -1
	for i := range fitted {
		fitted[i].Width = max(fitted[i].Width, 1)
		used += fitted[i].Width
		if fitted[i].Flex && flex < 0 {
			flex = i
		}
	}
	if flex < 0 {
		flex = len(fitted) - 1
	}
	fitted[flex].Width = max(fitted[flex].Width+avail-used, 1)
	return fitted
}

type lineKind int

const (
	dataLine lineKind = iota
	headerLine
	activeLine
)

// renderGridLine draws one header or data line. Plain data lines get their
// selection markers ("[X]") coloured.
func renderGridLine(columns []TableColumn, cells []string, sep string, tableWidth int, kind lineKind) string {
	sepStyle := gridLineStyle
	if kind == activeLine {
		sepStyle = gridActiveSepStyle
	}
	styledSep := sepStyle.Inline(true).Render(sep)

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gridIndent))
	for i, col := range columns {
		if i > 0 {
			b.WriteString(styledSep)
		}
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		cell := renderGridCell(text, col.Width, col.Align)
		switch kind {
		case headerLine:
			cell = gridHeaderStyle.Inline(true).Render(cell)
		case activeLine:
			cell = gridActiveRowStyle.Inline(true).Render(cell)
		default:
			cell = colorMarks(cell)
		}
		b.WriteString(cell)
	}
	return padRight(b.String(), tableWidth)
}

func renderGridRule(columns []TableColumn, cross, rule string, tableWidth int) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = strings.Repeat(rule, max(col.Width, 1))
	}
	line := strings.Repeat(" ", gridIndent) + strings.Join(parts, cross)
	return gridLineStyle.Inline(true).Render(padRight(line, tableWidth))
}

// renderGridCell clamps text to width and pads it according to align.
func renderGridCell(text string, width int, align lipgloss.Position) string {
	if width <= 0 {
		return ""
	}
	clamped := ClampTextWidth(text, width)
	if lipgloss.Width(clamped) >= width {
		return truncateRunes(clamped, width)
	}
	pad := width - lipgloss.Width(clamped)
	switch align {
	case lipgloss.Right:
		return strings.Repeat(" ", pad) + clamped
	case lipgloss.Center:
		return strings.Repeat(" ", pad/2) + clamped + strings.Repeat(" ", pad-pad/2)
	}
	return clamped + strings.Repeat(" ", pad)
}

func colorMarks(cell string) string {
	return strings.NewReplacer(
		"[X]", gridMarkStyle.Render("[X]"),
		"[x]", gridMarkStyle.Render("[x]"),
	).Replace(cell)
}
