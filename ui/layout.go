package ui

import (
	"sort"
	"unicode"

	runewidth "github.com/mattn/go-runewidth"

	"github.com/dgnsrekt/readaloud/tts/document"
)

// line is one wrapped display row covering [start, end) of the flat text.
type line struct {
	segment int
	start   int
	end     int
}

// layout wraps every segment of doc at width display cells. Breaks fall after
// spaces; words wider than the line are split. Empty segments get one row.
func layout(doc *document.Document, width int) []line {
	width = max(width, 1)
	var (
		lines  []line
		offset int
	)
	for i, text := range doc.Paragraphs() {
		runes := []rune(text)
		if len(runes) == 0 {
			lines = append(lines, line{segment: i, start: offset, end: offset})
			continue
		}
		for _, r := range wrapRunes(runes, width) {
			lines = append(lines, line{segment: i, start: offset + r[0], end: offset + r[1]})
		}
		offset += len(runes)
	}
	return lines
}

// wrapRunes returns [start, end) pairs of runes for each row.
func wrapRunes(runes []rune, width int) [][2]int {
	var (
		rows      [][2]int
		start     int
		cells     int
		lastBreak = -1
	)
	for i := 0; i < len(runes); i++ {
		w := runewidth.RuneWidth(runes[i])
		if cells+w > width && i > start {
			end := i
			if lastBreak > start {
				end = lastBreak
			}
			rows = append(rows, [2]int{start, end})
			start, lastBreak = end, -1
			cells = runewidth.StringWidth(string(runes[start:i]))
		}
		cells += w
		if unicode.IsSpace(runes[i]) {
			lastBreak = i + 1
		}
	}
	return append(rows, [2]int{start, len(runes)})
}

// lineOf returns the row holding offset. Offsets past the end map to the
// last row.
func lineOf(lines []line, offset int) int {
	if len(lines) == 0 {
		return 0
	}
	i := sort.Search(len(lines), func(i int) bool { return lines[i].end > offset })
	if i == len(lines) {
		return len(lines) - 1
	}
	return i
}

// offsetAt maps a row and a display column to a flat offset.
func offsetAt(doc *document.Document, lines []line, row, col int) int {
	if len(lines) == 0 {
		return 0
	}
	row = min(max(row, 0), len(lines)-1)
	l := lines[row]
	text := []rune(doc.TextFrom(l.start))
	cells := 0
	for i := 0; i < l.end-l.start && i < len(text); i++ {
		cells += runewidth.RuneWidth(text[i])
		if cells > col {
			return l.start + i
		}
	}
	return max(l.end-1, l.start)
}

// nextWord returns the start of the word after offset.
func nextWord(text []rune, offset int) int {
	i := min(max(offset, 0), len(text))
	for i < len(text) && !unicode.IsSpace(text[i]) {
		i++
	}
	for i < len(text) && unicode.IsSpace(text[i]) {
		i++
	}
	if i >= len(text) {
		return offset
	}
	return i
}

// prevWord returns the start of the word holding offset, or of the previous
// word when offset already sits on a word start.
func prevWord(text []rune, offset int) int {
	i := min(offset, len(text))
	for i > 0 && unicode.IsSpace(text[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(text[i-1]) {
		i--
	}
	return max(i, 0)
}
