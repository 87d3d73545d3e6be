// Package sync keeps the emphasized range of a document in step with the
// position reported by the speech engine.
package sync

import (
	"sync"

	"github.com/dgnsrekt/readaloud/tts/document"
	"github.com/dgnsrekt/readaloud/tts/stats"
)

// Block selects how a range is brought into view.
type Block int

const (
	// BlockNearest scrolls the minimum needed to make the range visible.
	BlockNearest Block = iota
	// BlockCenter scrolls the range to the vertical center.
	BlockCenter
)

func (b Block) String() string {
	if b == BlockCenter {
		return "center"
	}
	return "nearest"
}

// Scroller is the display surface showing the document.
type Scroller interface {
	// Locate returns the vertical position of r measured from the top of the
	// document and the viewport height, in the surface's units.
	Locate(r document.Range) (top, viewport int, ok bool)
	// ScrollTo brings r into view. Implementations animate the scroll and
	// must not block.
	ScrollTo(r document.Range, block Block)
}

// Result describes one highlight update.
type Result struct {
	Range        document.Range
	Segment      int
	SegmentMoved bool
	Units        int
	Block        Block
	Scrolled     bool
	Stats        stats.Snapshot
	StatsChanged bool
}

// Manager applies engine progress to the document.
type Manager struct {
	mu        sync.Mutex
	doc       *document.Document
	ledger    *stats.Ledger
	estimator *stats.Estimator
	scroller  Scroller

	segment int // segment carrying the paragraph marker, -1 for none
	counted int // furthest offset whose readable units are in the ledger
}

// NewManager creates a Manager for doc feeding ledger and estimator.
func NewManager(doc *document.Document, ledger *stats.Ledger, estimator *stats.Estimator) *Manager {
	return &Manager{
		doc:       doc,
		ledger:    ledger,
		estimator: estimator,
		segment:   -1,
	}
}

// SetScroller attaches the display surface. nil disables scrolling.
func (m *Manager) SetScroller(s Scroller) {
	m.mu.Lock()
	m.scroller = s
	m.mu.Unlock()
}

// SetDocument switches to a new document and resets tracking.
func (m *Manager) SetDocument(doc *document.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc
	m.segment = -1
	m.counted = 0
}

// Highlight emphasizes the unit at (offset, length). The previous emphasis is
// always cleared first. An offset past the end of the document returns
// document.ErrOutOfRange and leaves nothing emphasized.
func (m *Manager) Highlight(offset, length int) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.doc.ClearEmphasis()

	r, seg, err := m.doc.ResolveRange(offset, length)
	if err != nil {
		return Result{}, err
	}
	r, err = m.doc.Emphasize(r)
	if err != nil {
		return Result{}, err
	}

	res := Result{Range: r, Segment: seg}

	if seg != m.segment {
		m.doc.MarkSegment(seg)
		m.segment = seg
		res.SegmentMoved = true
	}

	if m.scroller != nil {
		if top, viewport, ok := m.scroller.Locate(r); ok {
			res.Block = BlockNearest
			if top > viewport/2 {
				res.Block = BlockCenter
			}
			m.scroller.ScrollTo(r, res.Block)
			res.Scrolled = true
		}
	}

	if r.End() > m.counted {
		from := max(r.Start, m.counted)
		res.Units = m.doc.ReadableIn(document.Range{Start: from, Length: r.End() - from})
		m.counted = r.End()
		m.ledger.AddUnits(res.Units)
	}

	res.Stats, res.StatsChanged = m.estimator.Recompute()
	return res, nil
}

// Clear removes the emphasis and the paragraph marker.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc.ClearEmphasis()
	m.doc.MarkSegment(-1)
	m.segment = -1
}

// Reset clears the display and forgets which units were counted.
func (m *Manager) Reset() {
	m.Clear()
	m.mu.Lock()
	m.counted = 0
	m.mu.Unlock()
}
