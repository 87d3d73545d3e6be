// Package document holds the paragraph-segmented text being read aloud and
// maps between flat character offsets and segment positions.
//
// All offsets and lengths are measured in runes of the flat text, which is the
// concatenation of every segment without separators.
package document

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
)

var (
	// ErrOutOfRange is returned when an offset lies beyond the document.
	ErrOutOfRange = errors.New("offset out of range")
	// ErrReadOnly is returned when editing a document locked for playback.
	ErrReadOnly = errors.New("document is read-only")
)

// Position addresses a character inside a segment.
type Position struct {
	Segment int
	Index   int
}

// Range is a span of the flat text.
type Range struct {
	Start  int
	Length int
}

// End returns the offset one past the last character of r.
func (r Range) End() int { return r.Start + r.Length }

// Empty reports whether r covers no characters.
func (r Range) Empty() bool { return r.Length <= 0 }

func (r Range) String() string { return fmt.Sprintf("(%d,%d)", r.Start, r.Length) }

// Counts is the character census shown to the user.
type Counts struct {
	Total    int // flat text length
	Readable int // letters and digits
}

// Run is a slice of one segment with uniform emphasis.
type Run struct {
	Text       string
	Emphasized bool
}

// Document is an ordered list of paragraph segments.
//
// Emphasis is kept beside the text rather than inside it, so clearing it
// always restores the original characters.
type Document struct {
	mu       sync.RWMutex
	segments [][]rune
	ends     []int // cumulative end offset of each segment

	emphasis    Range
	hasEmphasis bool
	marker      int

	editable bool
	revision uint64
}

// New creates an editable document from paragraphs. Empty paragraphs are kept
// as zero-length segments.
func New(paragraphs []string) *Document {
	d := &Document{marker: -1, editable: true}
	d.setSegments(paragraphs)
	return d
}

func (d *Document) setSegments(paragraphs []string) {
	d.segments = make([][]rune, len(paragraphs))
	d.ends = make([]int, len(paragraphs))
	total := 0
	for i, p := range paragraphs {
		d.segments[i] = []rune(p)
		total += len(d.segments[i])
		d.ends[i] = total
	}
	d.hasEmphasis = false
	d.emphasis = Range{}
	d.marker = -1
	d.revision++
}

// Replace swaps the document content. It fails with ErrReadOnly while the
// document is locked for playback.
func (d *Document) Replace(paragraphs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.editable {
		return ErrReadOnly
	}
	d.setSegments(paragraphs)
	return nil
}

// SetEditable locks or unlocks the document for editing.
func (d *Document) SetEditable(editable bool) {
	d.mu.Lock()
	d.editable = editable
	d.mu.Unlock()
}

// Editable reports whether Replace is currently allowed.
func (d *Document) Editable() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.editable
}

// Revision increases on every content change.
func (d *Document) Revision() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.revision
}

// Len returns the length of the flat text.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lenLocked()
}

func (d *Document) lenLocked() int {
	if len(d.ends) == 0 {
		return 0
	}
	return d.ends[len(d.ends)-1]
}

// SegmentCount returns the number of segments.
func (d *Document) SegmentCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.segments)
}

// Segment returns the text of segment i.
func (d *Document) Segment(i int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.segments) {
		return ""
	}
	return string(d.segments[i])
}

// Paragraphs returns a copy of every segment's text.
func (d *Document) Paragraphs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.segments))
	for i, s := range d.segments {
		out[i] = string(s)
	}
	return out
}

// Text returns the flat text.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var b strings.Builder
	for _, s := range d.segments {
		b.WriteString(string(s))
	}
	return b.String()
}

// TextFrom returns the flat text starting at offset. Offsets outside the
// document yield an empty string.
func (d *Document) TextFrom(offset int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if offset < 0 || offset >= d.lenLocked() {
		return ""
	}
	var b strings.Builder
	for i, s := range d.segments {
		start := d.ends[i] - len(s)
		switch {
		case d.ends[i] <= offset:
			continue
		case start >= offset:
			b.WriteString(string(s))
		default:
			b.WriteString(string(s[offset-start:]))
		}
	}
	return b.String()
}

// Resolve maps a flat offset to the earliest segment whose cumulative end
// exceeds it. An offset on a boundary belongs to the start of the next
// segment. Offsets outside [0, Len()) fail with ErrOutOfRange.
func (d *Document) Resolve(offset int) (Position, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.resolveLocked(offset)
}

func (d *Document) resolveLocked(offset int) (Position, error) {
	if offset < 0 {
		return Position{}, fmt.Errorf("%w: %d", ErrOutOfRange, offset)
	}
	for i, end := range d.ends {
		if end > offset {
			start := end - len(d.segments[i])
			return Position{Segment: i, Index: offset - start}, nil
		}
	}
	return Position{}, fmt.Errorf("%w: %d >= %d", ErrOutOfRange, offset, d.lenLocked())
}

// ToFlatOffset is the inverse of Resolve. Index may equal the segment length
// to address the position just after its last character.
func (d *Document) ToFlatOffset(p Position) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if p.Segment < 0 || p.Segment >= len(d.segments) {
		return 0, fmt.Errorf("%w: segment %d", ErrOutOfRange, p.Segment)
	}
	seg := d.segments[p.Segment]
	if p.Index < 0 || p.Index > len(seg) {
		return 0, fmt.Errorf("%w: index %d in segment %d", ErrOutOfRange, p.Index, p.Segment)
	}
	return d.ends[p.Segment] - len(seg) + p.Index, nil
}

// SegmentBounds returns the flat range covered by segment i.
func (d *Document) SegmentBounds(i int) (Range, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.segmentBoundsLocked(i)
}

func (d *Document) segmentBoundsLocked(i int) (Range, error) {
	if i < 0 || i >= len(d.segments) {
		return Range{}, fmt.Errorf("%w: segment %d", ErrOutOfRange, i)
	}
	n := len(d.segments[i])
	return Range{Start: d.ends[i] - n, Length: n}, nil
}

// ResolveRange resolves the start of (offset, length) and clips the span so
// it never leaves the owning segment. A non-positive length extends to the
// end of the word at offset.
func (d *Document) ResolveRange(offset, length int) (Range, int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.resolveRangeLocked(offset, length)
}

func (d *Document) resolveRangeLocked(offset, length int) (Range, int, error) {
	pos, err := d.resolveLocked(offset)
	if err != nil {
		return Range{}, -1, err
	}
	seg := d.segments[pos.Segment]
	if length <= 0 {
		length = 0
		for i := pos.Index; i < len(seg) && !unicode.IsSpace(seg[i]); i++ {
			length++
		}
		if length == 0 {
			length = 1
		}
	}
	if room := len(seg) - pos.Index; length > room {
		length = room
	}
	return Range{Start: offset, Length: length}, pos.Segment, nil
}

// Emphasize marks r as the single emphasized range, replacing any previous
// one. The range is clipped to the segment owning its start.
func (d *Document) Emphasize(r Range) (Range, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	clipped, _, err := d.resolveRangeLocked(r.Start, r.Length)
	if err != nil {
		return Range{}, err
	}
	d.emphasis = clipped
	d.hasEmphasis = true
	return clipped, nil
}

// ClearEmphasis removes the emphasized range.
func (d *Document) ClearEmphasis() {
	d.mu.Lock()
	d.hasEmphasis = false
	d.emphasis = Range{}
	d.mu.Unlock()
}

// Emphasis returns the emphasized range, if any.
func (d *Document) Emphasis() (Range, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.emphasis, d.hasEmphasis
}

// MarkSegment moves the current-paragraph marker to segment i. A negative i
// removes it.
func (d *Document) MarkSegment(i int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.segments) {
		i = -1
	}
	d.marker = i
}

// Marker returns the marked segment or -1.
func (d *Document) Marker() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.marker
}

// Runs splits segment i into plain and emphasized runs. Joining the run texts
// always yields the segment text.
func (d *Document) Runs(i int) []Run {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if i < 0 || i >= len(d.segments) {
		return nil
	}
	seg := d.segments[i]
	if len(seg) == 0 {
		return nil
	}
	if !d.hasEmphasis {
		return []Run{{Text: string(seg)}}
	}

	start := d.ends[i] - len(seg)
	lo := d.emphasis.Start - start
	hi := d.emphasis.End() - start
	if hi <= 0 || lo >= len(seg) {
		return []Run{{Text: string(seg)}}
	}
	lo = max(lo, 0)
	hi = min(hi, len(seg))

	var runs []Run
	if lo > 0 {
		runs = append(runs, Run{Text: string(seg[:lo])})
	}
	runs = append(runs, Run{Text: string(seg[lo:hi]), Emphasized: true})
	if hi < len(seg) {
		runs = append(runs, Run{Text: string(seg[hi:])})
	}
	return runs
}

// IsReadable reports whether r counts toward reading speed.
func IsReadable(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// CountReadable counts letters and digits in s.
func CountReadable(s string) int {
	n := 0
	for _, r := range s {
		if IsReadable(r) {
			n++
		}
	}
	return n
}

// ReadableIn counts letters and digits inside r.
func (d *Document) ReadableIn(r Range) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for i, seg := range d.segments {
		start := d.ends[i] - len(seg)
		if d.ends[i] <= r.Start || start >= r.End() {
			continue
		}
		lo := max(r.Start-start, 0)
		hi := min(r.End()-start, len(seg))
		for _, c := range seg[lo:hi] {
			if IsReadable(c) {
				n++
			}
		}
	}
	return n
}

// ReadableFrom counts letters and digits from offset to the end.
func (d *Document) ReadableFrom(offset int) int {
	return d.ReadableIn(Range{Start: max(offset, 0), Length: d.Len()})
}

// Counts returns the document census.
func (d *Document) Counts() Counts {
	return Counts{Total: d.Len(), Readable: d.ReadableFrom(0)}
}

// IsBlank reports whether the document has no non-whitespace content.
func (d *Document) IsBlank() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, seg := range d.segments {
		for _, r := range seg {
			if !unicode.IsSpace(r) {
				return false
			}
		}
	}
	return true
}
