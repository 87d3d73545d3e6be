package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dgnsrekt/readaloud/tts/document"
)

const gutterWidth = 2

var (
	yellow = lipgloss.AdaptiveColor{Light: "#FFE680", Dark: "#6B5B00"}

	emphasisStyle = lipgloss.NewStyle().
			Background(yellow).
			Bold(true)

	markerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#89F0CB"})

	caretStyle = lipgloss.NewStyle().Reverse(true)
)

// useMonochromeStyles swaps colors for attributes on terminals without color.
func useMonochromeStyles(p termenv.Profile) {
	if p != termenv.Ascii {
		return
	}
	emphasisStyle = lipgloss.NewStyle().Reverse(true)
	markerStyle = lipgloss.NewStyle().Bold(true)
	caretStyle = lipgloss.NewStyle().Underline(true)
}

// render draws lines of doc with the emphasized range, the paragraph marker
// and, when caret is non-negative, the caret.
func render(doc *document.Document, lines []line, caret int) string {
	text := []rune(doc.Text())
	emph, hasEmph := doc.Emphasis()
	marker := doc.Marker()

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if l.segment == marker {
			b.WriteString(markerStyle.Render("▍"))
			b.WriteString(strings.Repeat(" ", gutterWidth-1))
		} else {
			b.WriteString(strings.Repeat(" ", gutterWidth))
		}

		if l.end > len(text) {
			break
		}
		row := text[l.start:l.end]
		for j := 0; j < len(row); {
			off := l.start + j
			switch {
			case off == caret:
				b.WriteString(caretStyle.Render(string(row[j])))
				j++
			case hasEmph && off >= emph.Start && off < emph.End():
				end := min(emph.End()-l.start, len(row))
				if caret > off && caret < l.start+end {
					end = caret - l.start
				}
				b.WriteString(emphasisStyle.Render(string(row[j:end])))
				j = end
			default:
				end := len(row)
				if hasEmph && emph.Start > off && emph.Start < l.start+end {
					end = emph.Start - l.start
				}
				if caret > off && caret < l.start+end {
					end = caret - l.start
				}
				b.WriteString(string(row[j:end]))
				j = end
			}
		}
	}
	return b.String()
}
