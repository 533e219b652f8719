package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const bannerArt = `
 ███████████   ██████████ ███████████    █████████     █████████  █████   ████
░░███░░░░░███ ░░███░░░░░█░░███░░░░░███  ███░░░░░███   ███░░░░░███░░███   ███░
 ░███    ░███  ░███  █ ░  ░███    ░███ ░███    ░███  ███     ░░░  ░███  ███
 ░██████████   ░██████    ░██████████  ░███████████ ░███          ░███████
 ░███░░░░░███  ░███░░█    ░███░░░░░░   ░███░░░░░███ ░███          ░███░░███
 ░███    ░███  ░███ ░   █ ░███         ░███    ░███ ░░███     ███ ░███ ░░███
 █████   █████ ██████████ █████        █████   █████ ░░█████████  █████ ░░████
░░░░░   ░░░░░ ░░░░░░░░░░ ░░░░░        ░░░░░   ░░░░░   ░░░░░░░░░  ░░░░░   ░░░░`

const bannerSubtitle = "Recordings Repacking • Command-Line Interface"

// RenderBanner returns the two-tone ASCII banner with its subtitle.
func RenderBanner() string {
	lines := splitLines(bannerArt)

	maxWidth := 0
	for _, line := range lines {
		if w := lipgloss.Width(line); w > maxWidth {
			maxWidth = w
		}
	}

	var rendered strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		rendered.WriteString(renderBannerLine(line))
		rendered.WriteString("\n")
	}

	subtitleWidth := lipgloss.Width(bannerSubtitle)
	blockWidth := maxWidth
	if blockWidth < subtitleWidth {
		blockWidth = subtitleWidth
	}

	subtitle := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Width(blockWidth).
		Align(lipgloss.Center).
		Render(bannerSubtitle)

	underline := lipgloss.NewStyle().
		Foreground(ColorBorder).
		Width(blockWidth).
		Align(lipgloss.Center).
		Render(strings.Repeat("─", subtitleWidth))

	return "\n" + rendered.String() + "\n" + subtitle + "\n" + underline + "\n"
}

// renderBannerLine paints solid blocks in the primary color and the shade
// glyphs in the accent color.
func renderBannerLine(line string) string {
	var b strings.Builder
	var run strings.Builder
	shade := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if shade {
			b.WriteString(BannerAccentStyle.Render(run.String()))
		} else {
			b.WriteString(BannerStyle.Render(run.String()))
		}
		run.Reset()
	}
	for _, r := range line {
		isShade := r == '░'
		if isShade != shade {
			flush()
			shade = isShade
		}
		run.WriteRune(r)
	}
	flush()
	return b.String()
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
