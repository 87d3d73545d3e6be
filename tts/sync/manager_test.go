package sync

import (
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/readaloud/internal/clock"
	"github.com/dgnsrekt/readaloud/tts/document"
	"github.com/dgnsrekt/readaloud/tts/stats"
)

type scrollCall struct {
	r     document.Range
	block Block
}

// fakeScroller places every segment on its own line.
type fakeScroller struct {
	doc      *document.Document
	viewport int
	calls    []scrollCall
}

func (s *fakeScroller) Locate(r document.Range) (int, int, bool) {
	pos, err := s.doc.Resolve(r.Start)
	if err != nil {
		return 0, 0, false
	}
	return pos.Segment, s.viewport, true
}

func (s *fakeScroller) ScrollTo(r document.Range, block Block) {
	s.calls = append(s.calls, scrollCall{r, block})
}

func newTestManager(paragraphs ...string) (*Manager, *document.Document, *stats.Ledger, *clock.Fake) {
	c := clock.NewFake(time.Unix(0, 0))
	doc := document.New(paragraphs)
	ledger := stats.NewLedger(c)
	est := stats.NewEstimator(ledger)
	est.SetTotal(doc.Counts().Readable)
	return NewManager(doc, ledger, est), doc, ledger, c
}

func TestHighlightFirstWord(t *testing.T) {
	m, doc, ledger, _ := newTestManager("Hello world. Second sentence.")

	res, err := m.Highlight(0, 5)
	if err != nil {
		t.Fatalf("Highlight() error = %v", err)
	}
	if res.Range != (document.Range{Start: 0, Length: 5}) {
		t.Errorf("Range = %v, want (0,5)", res.Range)
	}
	runs := doc.Runs(0)
	if len(runs) == 0 || !runs[0].Emphasized || runs[0].Text != "Hello" {
		t.Errorf("Runs(0) = %+v, want emphasized Hello first", runs)
	}
	if ledger.Units() != 5 {
		t.Errorf("Units() = %d, want 5", ledger.Units())
	}
	if res.Stats.Rate != 0 || res.Stats.ETA != "00:00" {
		t.Errorf("Stats = %+v, want undefined rate while E == 0", res.Stats)
	}
}

func TestHighlightReplacesPrevious(t *testing.T) {
	m, doc, _, _ := newTestManager("one two three")

	m.Highlight(0, 3)
	m.Highlight(4, 3)

	got, ok := doc.Emphasis()
	if !ok || got != (document.Range{Start: 4, Length: 3}) {
		t.Errorf("Emphasis() = %v, %v, want (4,3)", got, ok)
	}
}

func TestHighlightClipsToSegment(t *testing.T) {
	m, _, _, _ := newTestManager("Hello wor", "ld again")

	res, err := m.Highlight(6, 5)
	if err != nil {
		t.Fatalf("Highlight() error = %v", err)
	}
	if res.Range != (document.Range{Start: 6, Length: 3}) || res.Segment != 0 {
		t.Errorf("Highlight(6, 5) = %v in segment %d, want (6,3) in 0", res.Range, res.Segment)
	}
}

func TestHighlightMovesParagraphMarker(t *testing.T) {
	m, doc, _, _ := newTestManager("First para.", "Second para.")

	res, _ := m.Highlight(0, 5)
	if !res.SegmentMoved || doc.Marker() != 0 {
		t.Errorf("marker = %d moved %v, want 0 true", doc.Marker(), res.SegmentMoved)
	}

	res, _ = m.Highlight(6, 5)
	if res.SegmentMoved {
		t.Error("SegmentMoved = true within the same segment")
	}

	res, _ = m.Highlight(11, 6)
	if !res.SegmentMoved || doc.Marker() != 1 {
		t.Errorf("marker = %d moved %v, want 1 true", doc.Marker(), res.SegmentMoved)
	}
}

func TestHighlightOutOfRange(t *testing.T) {
	m, doc, _, _ := newTestManager("abc")
	m.Highlight(0, 3)

	_, err := m.Highlight(3, 1)
	if !errors.Is(err, document.ErrOutOfRange) {
		t.Fatalf("Highlight(past end) error = %v, want ErrOutOfRange", err)
	}
	if _, ok := doc.Emphasis(); ok {
		t.Error("emphasis left behind after out of range update")
	}
}

func TestHighlightScrollBlock(t *testing.T) {
	m, doc, _, _ := newTestManager("a", "b", "c", "d", "e", "f")
	s := &fakeScroller{doc: doc, viewport: 4}
	m.SetScroller(s)

	tests := []struct {
		offset int
		want   Block
	}{
		{0, BlockNearest},
		{2, BlockNearest},
		{3, BlockCenter},
		{5, BlockCenter},
	}

	for _, tt := range tests {
		res, err := m.Highlight(tt.offset, 1)
		if err != nil {
			t.Fatalf("Highlight(%d) error = %v", tt.offset, err)
		}
		if !res.Scrolled || res.Block != tt.want {
			t.Errorf("Highlight(%d) block = %v scrolled %v, want %v", tt.offset, res.Block, res.Scrolled, tt.want)
		}
	}
	if len(s.calls) != len(tests) {
		t.Errorf("ScrollTo calls = %d, want %d", len(s.calls), len(tests))
	}
}

func TestHighlightCountsReadableOnce(t *testing.T) {
	m, _, ledger, _ := newTestManager("It's 42, ok!")

	m.Highlight(0, 4)
	if got := ledger.Units(); got != 3 {
		t.Errorf("Units() after It's = %d, want 3", got)
	}
	m.Highlight(5, 3)
	if got := ledger.Units(); got != 5 {
		t.Errorf("Units() after 42, = %d, want 5", got)
	}

	// A restart re-reports the last unit.
	m.Highlight(5, 3)
	if got := ledger.Units(); got != 5 {
		t.Errorf("Units() after repeat = %d, want 5", got)
	}

	m.Reset()
	m.Highlight(5, 3)
	if got := ledger.Units(); got != 7 {
		t.Errorf("Units() after Reset = %d, want 7", got)
	}
}

func TestClear(t *testing.T) {
	m, doc, _, _ := newTestManager("alpha beta")
	original := doc.Text()
	m.Highlight(6, 4)

	m.Clear()
	if _, ok := doc.Emphasis(); ok {
		t.Error("Emphasis() set after Clear")
	}
	if doc.Marker() != -1 {
		t.Errorf("Marker() = %d after Clear, want -1", doc.Marker())
	}
	if doc.Text() != original {
		t.Errorf("Text() = %q, want %q", doc.Text(), original)
	}
}

func TestStatsRecomputedOnHighlight(t *testing.T) {
	m, _, ledger, c := newTestManager("abcdefghij")
	ledger.Start()

	var res Result
	for i := 0; i < 5; i++ {
		c.Advance(time.Second)
		res, _ = m.Highlight(i, 1)
	}
	if res.Stats.Rate != 60 || res.Stats.ETA != "00:05" {
		t.Errorf("Stats = %+v, want rate 60 ETA 00:05", res.Stats)
	}
}
