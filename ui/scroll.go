package ui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/readaloud/tts/document"
	ttssync "github.com/dgnsrekt/readaloud/tts/sync"
)

type (
	// scrollMsg asks the view to bring row into view.
	scrollMsg struct {
		row   int
		block ttssync.Block
	}
	scrollTickMsg struct{}
)

// scroller answers layout questions for the controller from any goroutine
// and forwards scroll requests to the program. Only the latest request is
// kept.
type scroller struct {
	mu     sync.Mutex
	lines  []line
	height int

	requests chan scrollMsg
}

func newScroller() *scroller {
	return &scroller{requests: make(chan scrollMsg, 1)}
}

func (s *scroller) setLayout(lines []line, height int) {
	s.mu.Lock()
	s.lines = lines
	s.height = height
	s.mu.Unlock()
}

// Locate implements sync.Scroller. Positions are rows from the top of the
// document.
func (s *scroller) Locate(r document.Range) (top, viewport int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 || s.height <= 0 {
		return 0, 0, false
	}
	return lineOf(s.lines, r.Start), s.height, true
}

// ScrollTo implements sync.Scroller.
func (s *scroller) ScrollTo(r document.Range, block ttssync.Block) {
	s.mu.Lock()
	req := scrollMsg{row: lineOf(s.lines, r.Start), block: block}
	s.mu.Unlock()

	for {
		select {
		case s.requests <- req:
			return
		default:
			select {
			case <-s.requests:
			default:
			}
		}
	}
}

// wait returns the next scroll request.
func (s *scroller) wait() tea.Msg {
	return <-s.requests
}

// scrollTarget returns the top row that shows row according to block.
func scrollTarget(row, top, height, total int, block ttssync.Block) int {
	target := top
	switch block {
	case ttssync.BlockCenter:
		target = row - height/2
	default:
		if row < top {
			target = row
		} else if row >= top+height {
			target = row - height + 1
		}
	}
	return min(max(target, 0), max(total-height, 0))
}

// scrollStep moves from toward to by a fraction of the distance, at least one
// row.
func scrollStep(from, to, steps int) int {
	d := to - from
	if d == 0 {
		return from
	}
	step := d / max(steps, 1)
	if step == 0 {
		if d > 0 {
			step = 1
		} else {
			step = -1
		}
	}
	return from + step
}

func scrollTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return scrollTickMsg{} })
}
