// Package ui provides the terminal surface for reading a document aloud.
package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/termenv"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/document"
	ttssync "github.com/dgnsrekt/readaloud/tts/sync"
)

// NewProgram returns a new Tea program reading through c. Controller
// notifications are delivered to the program; ctx bounds the controller.
func NewProgram(ctx context.Context, cfg Config, c *tts.Controller) *tea.Program {
	log.Debug("Starting readaloud", "path", cfg.Path, "mouse", cfg.EnableMouse)

	useMonochromeStyles(termenv.EnvColorProfile())

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	m := newModel(ctx, cfg, c)
	p := tea.NewProgram(m, opts...)
	c.OnNotify(p.Send)
	return p
}

type model struct {
	ctx      context.Context
	cfg      Config
	ctrl     *tts.Controller
	doc      *document.Document
	scroller *scroller
	watcher  *fsnotify.Watcher

	viewport viewport.Model
	help     help.Model
	showHelp bool
	width    int
	height   int

	lines       []line
	revision    uint64
	layoutWidth int
	caret       int

	scrollTarget int
	scrolling    bool

	state         tts.StateType
	stats         tts.Stats
	params        tts.Params
	note          string
	pendingReload bool

	statusMessage   string
	statusError     bool
	statusMessageID int
}

func newModel(ctx context.Context, cfg Config, c *tts.Controller) model {
	if cfg.ScrollSteps <= 0 {
		cfg.ScrollSteps = 6
	}
	if cfg.Step <= 0 {
		cfg.Step = 0.1
	}

	m := model{
		ctx:      ctx,
		cfg:      cfg,
		ctrl:     c,
		doc:      c.Document(),
		scroller: newScroller(),
		viewport: viewport.New(0, 0),
		help:     help.New(),
		state:    c.State(),
		stats:    c.Stats(),
		params:   c.Params(),
		revision: ^uint64(0),
	}
	if cfg.Path != "" {
		m.note = filepath.Base(cfg.Path)
		if cfg.Watch {
			m.watcher = newWatcher()
		}
	}
	c.SetScroller(m.scroller)
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.scroller.wait, m.initController}
	if m.watcher != nil {
		cmds = append(cmds, watchFile(m.watcher, m.cfg.Path))
	}
	return tea.Batch(cmds...)
}

// initController reports engine problems through the notifier.
func (m model) initController() tea.Msg {
	if err := m.ctrl.Init(m.ctx); err != nil {
		log.Error("controller init failed", "error", err)
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			m.refresh()
			return m, cmd
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.caret = offsetAt(m.doc, m.lines, msg.Y+m.viewport.YOffset, msg.X-gutterWidth)
			m.refresh()
			return m, nil
		}

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.setSize()
		m.refresh()
		return m, nil

	case tts.StateChangedMsg:
		m.state = msg.State
		if msg.State == tts.StateIdle {
			if msg.Reason == "complete" {
				m.caret = 0
				cmds = append(cmds, m.showStatusMessage("Finished reading", false))
			}
			if m.pendingReload && m.cfg.Path != "" {
				m.pendingReload = false
				cmds = append(cmds, loadDocument(m.cfg.Path, m.cfg.MaxDocumentLength))
			}
		}
		m.stats = m.ctrl.Stats()
		m.refresh()

	case tts.HighlightMsg:
		m.caret = msg.Range.Start
		m.refresh()

	case tts.StatsMsg:
		m.stats = msg.Stats

	case tts.ParamsChangedMsg:
		m.params = msg.Params

	case tts.RestartedMsg:
		m.params = msg.Params

	case tts.NoticeMsg:
		cmds = append(cmds, m.showStatusMessage(noticeText(msg.Err), true))

	case scrollMsg:
		total := len(m.lines)
		m.scrollTarget = scrollTarget(msg.row, m.viewport.YOffset, m.viewport.Height, total, msg.block)
		cmds = append(cmds, m.scroller.wait)
		if !m.scrolling && m.scrollTarget != m.viewport.YOffset {
			m.scrolling = true
			cmds = append(cmds, scrollTick(m.cfg.ScrollInterval))
		}
		return m, tea.Batch(cmds...)

	case scrollTickMsg:
		m.viewport.SetYOffset(scrollStep(m.viewport.YOffset, m.scrollTarget, m.cfg.ScrollSteps))
		if m.viewport.YOffset == m.scrollTarget || (m.viewport.AtBottom() && m.scrollTarget > m.viewport.YOffset) {
			m.scrolling = false
			return m, nil
		}
		return m, scrollTick(m.cfg.ScrollInterval)

	// The file was changed on disk
	case reloadMsg:
		cmds = append(cmds, watchFile(m.watcher, m.cfg.Path))
		if m.state != tts.StateIdle {
			m.pendingReload = true
			return m, tea.Batch(cmds...)
		}
		cmds = append(cmds, loadDocument(m.cfg.Path, m.cfg.MaxDocumentLength))
		return m, tea.Batch(cmds...)

	case editorFinishedMsg:
		return m, editedDocument(msg, m.cfg.Path, m.cfg.MaxDocumentLength)

	case documentLoadedMsg:
		if msg.err != nil {
			return m, m.showStatusMessage("Unable to load document: "+msg.err.Error(), true)
		}
		return m, setDocument(m.ctrl, msg)

	case documentSetMsg:
		if msg.err != nil {
			return m, m.showStatusMessage(noticeText(msg.err), true)
		}
		m.doc = msg.doc
		m.note = msg.note
		if m.caret >= m.doc.Len() {
			m.caret = 0
		}
		m.stats = m.ctrl.Stats()
		m.refresh()
		return m, m.showStatusMessage("Loaded "+msg.note, false)

	case statusMessageTimeoutMsg:
		if msg.id == m.statusMessageID {
			m.statusMessage = ""
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey runs the binding for msg. Unhandled keys go to the viewport.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	idle := m.state == tts.StateIdle
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit, true
	case key.Matches(msg, keys.Toggle):
		return tts.ToggleCmd(m.ctrl, m.caret), true
	case key.Matches(msg, keys.Stop):
		if idle {
			return nil, true
		}
		return tts.StopCmd(m.ctrl), true
	case key.Matches(msg, keys.CaretLeft):
		m.moveCaret(prevWord([]rune(m.doc.Text()), m.caret))
		return nil, true
	case key.Matches(msg, keys.CaretRight):
		m.moveCaret(nextWord([]rune(m.doc.Text()), m.caret))
		return nil, true
	case key.Matches(msg, keys.Top):
		m.caret = 0
		m.viewport.GotoTop()
		return nil, true
	case key.Matches(msg, keys.Bottom):
		text := []rune(m.doc.Text())
		m.caret = prevWord(text, len(text))
		m.viewport.GotoBottom()
		return nil, true
	case key.Matches(msg, keys.Faster):
		return tts.AdjustCmd(m.ctrl, "rate", m.cfg.Step), true
	case key.Matches(msg, keys.Slower):
		return tts.AdjustCmd(m.ctrl, "rate", -m.cfg.Step), true
	case key.Matches(msg, keys.PitchUp):
		return tts.AdjustCmd(m.ctrl, "pitch", m.cfg.Step), true
	case key.Matches(msg, keys.PitchDown):
		return tts.AdjustCmd(m.ctrl, "pitch", -m.cfg.Step), true
	case key.Matches(msg, keys.Louder):
		return tts.AdjustCmd(m.ctrl, "volume", m.cfg.Step), true
	case key.Matches(msg, keys.Quieter):
		return tts.AdjustCmd(m.ctrl, "volume", -m.cfg.Step), true
	case key.Matches(msg, keys.Voice):
		voice, ok := nextVoice(m.ctrl.Voices(), m.params.Voice)
		if !ok {
			return m.showStatusMessage("No voices available", true), true
		}
		return tea.Batch(
			tts.SetParameterCmd(m.ctrl, "voice", voice.ID),
			m.showStatusMessage("Voice: "+voice.String(), false),
		), true
	case key.Matches(msg, keys.Edit):
		if !idle {
			return m.showStatusMessage(noticeText(tts.ErrDocumentLocked), true), true
		}
		return openEditor(m.cfg.Path, m.doc), true
	case key.Matches(msg, keys.Reload):
		if m.cfg.Path == "" {
			return nil, true
		}
		if !idle {
			return m.showStatusMessage(noticeText(tts.ErrDocumentLocked), true), true
		}
		return loadDocument(m.cfg.Path, m.cfg.MaxDocumentLength), true
	case key.Matches(msg, keys.Paste):
		if !idle {
			return m.showStatusMessage(noticeText(tts.ErrDocumentLocked), true), true
		}
		return pasteDocument(m.cfg.MaxDocumentLength), true
	case key.Matches(msg, keys.Copy):
		if err := copyDocument(m.doc); err != nil {
			log.Debug("native clipboard unavailable", "error", err)
		}
		return m.showStatusMessage("Copied contents", false), true
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		m.setSize()
		return nil, true
	}
	return nil, false
}

// moveCaret sets the caret and keeps its row visible.
func (m *model) moveCaret(offset int) {
	m.caret = offset
	m.relayout()
	row := lineOf(m.lines, offset)
	m.viewport.SetYOffset(scrollTarget(row, m.viewport.YOffset, m.viewport.Height, len(m.lines), ttssync.BlockNearest))
}

func (m *model) setSize() {
	m.viewport.Width = m.width
	m.viewport.Height = m.height - statusBarHeight
	if m.showHelp {
		m.viewport.Height -= strings.Count(m.helpView(), "\n") + 1
	}
	m.viewport.Height = max(m.viewport.Height, 1)
}

// textWidth is the wrap width of the document.
func (m model) textWidth() int {
	w := m.width - gutterWidth
	if m.cfg.MaxWidth > 0 {
		w = min(w, int(m.cfg.MaxWidth)) //nolint:gosec
	}
	return max(w, 1)
}

// relayout rewraps the document when its text or the width changed.
func (m *model) relayout() {
	if rev := m.doc.Revision(); rev != m.revision || m.textWidth() != m.layoutWidth {
		m.revision = rev
		m.layoutWidth = m.textWidth()
		m.lines = layout(m.doc, m.layoutWidth)
	}
	m.scroller.setLayout(m.lines, m.viewport.Height)
}

// refresh redraws the document into the viewport.
func (m *model) refresh() {
	if m.width == 0 {
		return
	}
	m.relayout()
	caret := -1
	if m.state == tts.StateIdle {
		caret = m.caret
	}
	m.viewport.SetContent(render(m.doc, m.lines, caret))
}

func (m model) View() string {
	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	b.WriteString(statusBarView(m.width, statusInfo{
		state:   m.state,
		stats:   m.stats,
		params:  m.params,
		note:    m.note,
		message: m.statusMessage,
		isError: m.statusError,
		percent: m.viewport.ScrollPercent(),
	}))
	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}
	return b.String()
}

// nextVoice returns the voice after current, wrapping around.
func nextVoice(voices []tts.Voice, current string) (tts.Voice, bool) {
	if len(voices) == 0 {
		return tts.Voice{}, false
	}
	for i, v := range voices {
		if v.ID == current {
			return voices[(i+1)%len(voices)], true
		}
	}
	return voices[0], true
}

// noticeText turns controller errors into short status messages.
func noticeText(err error) string {
	switch {
	case errors.Is(err, tts.ErrEmptyInput):
		return "Nothing to read"
	case errors.Is(err, tts.ErrDocumentLocked):
		return "Stop reading to change the document"
	case err == nil:
		return ""
	}
	return err.Error()
}
