package ui

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/fsnotify/fsnotify"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/termenv"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/document"
)

const (
	statusBarHeight      = 1
	statusMessageTimeout = time.Second * 3
)

var helpViewStyle = lipgloss.NewStyle().
	Foreground(statusBarNoteFg).
	Background(lipgloss.AdaptiveColor{Light: "#f2f2f2", Dark: "#1B1B1B"}).
	Render

type (
	reloadMsg struct{}

	documentLoadedMsg struct {
		doc  *document.Document
		note string
		err  error
	}

	documentSetMsg documentLoadedMsg

	editorFinishedMsg struct {
		path string
		temp bool
		err  error
	}

	statusMessageTimeoutMsg struct{ id int }
)

// showStatusMessage displays msg in the status bar for a few seconds.
func (m *model) showStatusMessage(msg string, isError bool) tea.Cmd {
	m.statusMessageID++
	m.statusMessage = msg
	m.statusError = isError
	id := m.statusMessageID
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{id}
	})
}

func (m model) helpView() string {
	s := "\n" + m.help.FullHelpView(keys.FullHelp())
	s = indent.String(s, 2)

	// Fill up empty cells with spaces for background coloring
	if m.width > 0 {
		lines := strings.Split(s, "\n")
		for i := 0; i < len(lines); i++ {
			l := runewidth.StringWidth(lines[i])
			n := max(m.width-l, 0)
			lines[i] += strings.Repeat(" ", n)
		}
		s = strings.Join(lines, "\n")
	}
	return helpViewStyle(s)
}

// copyDocument copies the document text using OSC 52 and the native
// clipboard.
func copyDocument(doc *document.Document) error {
	text := strings.Join(doc.Paragraphs(), "\n\n")
	termenv.Copy(text)
	return clipboard.WriteAll(text)
}

// COMMANDS

func loadDocument(path string, limit int) tea.Cmd {
	return func() tea.Msg {
		doc, err := document.Load(path, limit)
		if err != nil {
			log.Error("unable to load document", "path", path, "error", err)
		}
		return documentLoadedMsg{doc: doc, note: filepath.Base(path), err: err}
	}
}

// setDocument hands a loaded document to the controller. It runs as a
// command because the controller notifies the program synchronously.
func setDocument(c *tts.Controller, msg documentLoadedMsg) tea.Cmd {
	return func() tea.Msg {
		msg.err = c.SetDocument(msg.doc)
		return documentSetMsg(msg)
	}
}

func pasteDocument(limit int) tea.Cmd {
	return func() tea.Msg {
		doc, err := document.FromClipboard(limit)
		return documentLoadedMsg{doc: doc, note: "clipboard", err: err}
	}
}

// openEditor edits the document at path, or a plain text copy of doc when the
// document has no editable source.
func openEditor(path string, doc *document.Document) tea.Cmd {
	temp := path == "" || strings.EqualFold(filepath.Ext(path), ".epub")
	if temp {
		f, err := os.CreateTemp("", "readaloud-*.txt")
		if err != nil {
			return func() tea.Msg { return editorFinishedMsg{err: err} }
		}
		_, err = f.WriteString(strings.Join(doc.Paragraphs(), "\n\n"))
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return func() tea.Msg { return editorFinishedMsg{path: f.Name(), temp: true, err: err} }
		}
		path = f.Name()
	}

	cb := func(err error) tea.Msg {
		return editorFinishedMsg{path: path, temp: temp, err: err}
	}
	cmd, err := editor.Cmd("readaloud", path)
	if err != nil {
		return func() tea.Msg { return cb(err) }
	}
	log.Info("opening editor", "file", path)
	return tea.ExecProcess(cmd, cb)
}

// editedDocument loads the result of an editor session.
func editedDocument(msg editorFinishedMsg, source string, limit int) tea.Cmd {
	return func() tea.Msg {
		if msg.temp {
			defer os.Remove(msg.path) //nolint:errcheck
		}
		if msg.err != nil {
			return documentLoadedMsg{err: msg.err}
		}
		if msg.temp {
			data, err := os.ReadFile(msg.path)
			if err != nil {
				return documentLoadedMsg{err: err}
			}
			note := "edited"
			if source != "" {
				note = filepath.Base(source) + " (edited)"
			}
			return documentLoadedMsg{doc: document.FromText(string(data), limit), note: note}
		}
		return loadDocument(msg.path, limit)()
	}
}

func newWatcher() *fsnotify.Watcher {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("error creating fsnotify watcher", "error", err)
		return nil
	}
	return w
}

// watchFile blocks until path is written or recreated.
func watchFile(w *fsnotify.Watcher, path string) tea.Cmd {
	return func() tea.Msg {
		dir := filepath.Dir(path)
		if err := w.Add(dir); err != nil {
			log.Error("error adding dir to fsnotify watcher", "error", err)
			return nil
		}
		log.Info("fsnotify watching dir", "dir", dir)

		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return nil
				}
				if event.Name != path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
				return reloadMsg{}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				log.Debug("fsnotify error", "dir", dir, "error", err)
			}
		}
	}
}
