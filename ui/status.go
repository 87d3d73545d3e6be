package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/readaloud/tts"
)

const ellipsis = "…"

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(lipgloss.Color("#6B50FF")).
			Bold(true).
			Render

	statusBarScrollPosStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}).
				Background(statusBarBg).
				Render

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(red).
				Render
)

// statusInfo is everything the status bar shows.
type statusInfo struct {
	state   tts.StateType
	stats   tts.Stats
	params  tts.Params
	note    string // file name or source
	message string // transient message replacing the note
	isError bool
	percent float64
}

// stateLabel returns the icon and name of s.
func stateLabel(s tts.StateType) string {
	switch s {
	case tts.StateSpeaking:
		return "▶ Speaking"
	case tts.StatePaused:
		return "⏸ Paused"
	default:
		return "■ Idle"
	}
}

// countsNote formats the document census as total(readable).
func countsNote(st tts.Stats) string {
	return fmt.Sprintf("%s(%s)", humanize.Comma(int64(st.Total)), humanize.Comma(int64(st.Readable)))
}

// progressNote formats elapsed time, rate and ETA.
func progressNote(st tts.Stats) string {
	rate, eta := "--", "--:--"
	if st.Rate > 0 {
		rate, eta = humanize.Comma(int64(st.Rate)), st.ETA
	}
	return fmt.Sprintf("%s · %s/min · ETA %s", st.Elapsed, rate, eta)
}

// paramsNote formats the voice parameters.
func paramsNote(p tts.Params) string {
	s := fmt.Sprintf("%.1fx", p.Rate)
	if p.Pitch != 1 {
		s += fmt.Sprintf(" pitch %.1f", p.Pitch)
	}
	if p.Volume != 1 {
		s += fmt.Sprintf(" vol %d%%", int(math.Round(p.Volume*100)))
	}
	if p.Voice != "" {
		s += " " + p.Voice
	}
	return s
}

// statusBarView renders a single status line width cells wide.
func statusBarView(width int, s statusInfo) string {
	logo := logoStyle(" " + stateLabel(s.state) + " ")

	scrollPercent := statusBarScrollPosStyle(fmt.Sprintf(" %3.f%% ", math.Max(0, math.Min(1, s.percent))*100))
	helpNote := statusBarHelpStyle(" ? Help ")

	var note string
	switch {
	case s.message != "":
		note = s.message
	case s.state == tts.StateIdle:
		note = countsNote(s.stats)
		if s.note != "" {
			note = s.note + " · " + note
		}
	default:
		note = progressNote(s.stats)
	}
	note += " · " + paramsNote(s.params)

	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(scrollPercent)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)

	style := statusBarNoteStyle
	switch {
	case s.message != "" && s.isError:
		style = statusBarErrorStyle
	case s.message != "":
		style = statusBarMessageStyle
	}
	note = style(note)

	padding := max(0,
		width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(scrollPercent)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := style(strings.Repeat(" ", padding))

	return logo + note + emptySpace + scrollPercent + helpNote
}
