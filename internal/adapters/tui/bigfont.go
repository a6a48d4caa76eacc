package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// glyphRows is the height of every big-clock glyph.
const glyphRows = 5

// minBigClockWidth is the narrowest terminal that gets the big clock.
const minBigClockWidth = 40

// glyphs holds a block-letter face for each character a countdown uses.
var glyphs = map[rune][glyphRows]string{
	'0': {"▄▀▀▀▄", "█   █", "█   █", "█   █", "▀▄▄▄▀"},
	'1': {"  ▄█ ", "   █ ", "   █ ", "   █ ", "  ▄█▄"},
	'2': {"▄▀▀▀▄", "    █", "  ▄▀ ", "▄▀   ", "█▄▄▄▄"},
	'3': {"▄▀▀▀▄", "    █", "  ▀▀▄", "    █", "▀▄▄▄▀"},
	'4': {"█   █", "█   █", "▀▀▀▀█", "    █", "    █"},
	'5': {"█▀▀▀▀", "█    ", "▀▀▀▀▄", "    █", "▀▄▄▄▀"},
	'6': {"▄▀▀▀ ", "█    ", "█▀▀▀▄", "█   █", "▀▄▄▄▀"},
	'7': {"▀▀▀▀█", "   █ ", "  █  ", " █   ", " █   "},
	'8': {"▄▀▀▀▄", "█   █", "▄▀▀▀▄", "█   █", "▀▄▄▄▀"},
	'9': {"▄▀▀▀▄", "█   █", "▀▄▄▄█", "    █", " ▄▄▄▀"},
	':': {"   ", " ▀ ", "   ", " ▀ ", "   "},
}

// renderBigClock draws a countdown such as "24:59" in block letters. Narrow
// terminals get a single bold line instead.
func renderBigClock(face string, color lipgloss.Color, width int) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(color)
	if width < minBigClockWidth {
		return style.Render(face)
	}

	var rows [glyphRows][]string
	for _, ch := range face {
		g, ok := glyphs[ch]
		if !ok {
			continue
		}
		for i := range rows {
			rows[i] = append(rows[i], g[i])
		}
	}

	out := make([]string, glyphRows)
	for i, parts := range rows {
		out[i] = style.Render(strings.Join(parts, " "))
	}
	return strings.Join(out, "\n")
}
