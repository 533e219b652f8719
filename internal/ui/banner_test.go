package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gravitrone/repack/cli/internal/ui/components"
)

func TestSplitLinesSplitsOnNewlines(t *testing.T) {
	lines := splitLines("a\nb\nc")
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}

func TestRenderBannerIncludesSubtitleAndNoOSC(t *testing.T) {
	out := RenderBanner()
	assert.NotContains(t, out, "\x1b]")

	clean := components.SanitizeText(out)
	assert.Contains(t, clean, "Recordings Repacking")
	assert.Contains(t, clean, "Command-Line Interface")
	assert.Contains(t, clean, "─")
}

func TestRenderBannerLineKeepsEveryGlyph(t *testing.T) {
	line := "░░███ ░█"
	out := components.SanitizeText(renderBannerLine(line))
	assert.Equal(t, line, out)
}
