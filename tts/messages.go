package tts

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/readaloud/tts/document"
)

// Messages for Bubble Tea communication between the controller and the UI.

// StateChangedMsg indicates the playback state has changed.
type StateChangedMsg struct {
	State     StateType
	PrevState StateType
	Session   SessionID
	Reason    string // Why playback ended: user, complete, error or dispose
}

// StatsMsg carries refreshed statistics.
type StatsMsg struct {
	Stats Stats
}

// HighlightMsg indicates the emphasized range moved.
type HighlightMsg struct {
	Session SessionID
	Range   document.Range
	Segment int
}

// RestartedMsg indicates a parameter change replaced the engine session.
type RestartedMsg struct {
	Session SessionID
	Offset  int
	Params  Params
}

// ParamsChangedMsg indicates new parameters were accepted.
type ParamsChangedMsg struct {
	Params  Params
	Pending bool // A restart is scheduled to apply them
}

// NoticeMsg is a user-visible problem.
type NoticeMsg struct {
	Err         error
	Recoverable bool
}

// noticeFor turns a command error into a notice. An unavailable engine was
// already reported by Init and is not repeated.
func noticeFor(err error) tea.Msg {
	if err == nil || errors.Is(err, ErrEngineUnavailable) {
		return nil
	}
	return NoticeMsg{Err: err, Recoverable: IsRecoverableError(err)}
}

// PlayCmd creates a command that starts reading at caret.
func PlayCmd(c *Controller, caret int) tea.Cmd {
	return func() tea.Msg {
		return noticeFor(c.Play(caret))
	}
}

// ToggleCmd creates a command that plays, pauses or resumes.
func ToggleCmd(c *Controller, caret int) tea.Cmd {
	return func() tea.Msg {
		return noticeFor(c.Toggle(caret))
	}
}

// PauseCmd creates a command that pauses reading.
func PauseCmd(c *Controller) tea.Cmd {
	return func() tea.Msg {
		c.Pause()
		return nil
	}
}

// ResumeCmd creates a command that resumes reading.
func ResumeCmd(c *Controller) tea.Cmd {
	return func() tea.Msg {
		c.Resume()
		return nil
	}
}

// StopCmd creates a command that stops reading.
func StopCmd(c *Controller) tea.Cmd {
	return func() tea.Msg {
		c.Stop()
		return nil
	}
}

// SetParameterCmd creates a command that changes one voice parameter.
func SetParameterCmd(c *Controller, name, value string) tea.Cmd {
	return func() tea.Msg {
		return noticeFor(c.SetParameter(name, value))
	}
}

// AdjustCmd creates a command that nudges a numeric parameter by delta.
func AdjustCmd(c *Controller, name string, delta float64) tea.Cmd {
	return func() tea.Msg {
		return noticeFor(c.Adjust(name, delta))
	}
}
