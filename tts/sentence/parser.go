// Package sentence splits utterance text into sentences and words measured in
// rune offsets, so engines can report progress against the flat document.
package sentence

import (
	"strings"
	"unicode"
)

// Span is a run of text. Start and End are rune offsets, End exclusive.
type Span struct {
	Start int
	End   int
	Text  string
}

// Len returns the span length in runes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Parser finds sentence boundaries in plain text.
type Parser struct {
	// Common abbreviations that don't end sentences
	abbreviations map[string]bool
}

// NewParser creates a parser with the default abbreviation list.
func NewParser() *Parser {
	return &Parser{abbreviations: makeAbbreviationMap()}
}

// Sentences splits text into sentences. Leading whitespace is excluded from
// each span. Spans with nothing readable (stray punctuation) are merged into
// the preceding sentence.
func (p *Parser) Sentences(text string) []Span {
	runes := []rune(text)
	var spans []Span

	emit := func(start, end int) {
		for start < end && unicode.IsSpace(runes[start]) {
			start++
		}
		if start >= end {
			return
		}
		if !hasReadable(runes[start:end]) && len(spans) > 0 {
			last := &spans[len(spans)-1]
			last.End = end
			last.Text = string(runes[last.Start:end])
			return
		}
		spans = append(spans, Span{Start: start, End: end, Text: string(runes[start:end])})
	}

	lastStart := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}

		punctEnd := i + 1
		for punctEnd < len(runes) && isTerminal(runes[punctEnd]) {
			punctEnd++
		}
		// Closing quotes and brackets belong to the sentence
		for punctEnd < len(runes) && isCloser(runes[punctEnd]) {
			punctEnd++
		}

		if p.isSentenceEnd(runes, i) {
			emit(lastStart, punctEnd)
			lastStart = punctEnd
			i = punctEnd - 1
		}
	}
	if lastStart < len(runes) {
		emit(lastStart, len(runes))
	}
	return spans
}

// Words splits text into whitespace-delimited spans.
func Words(text string) []Span {
	var out []Span
	start := -1
	i := 0
	var b strings.Builder
	for _, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, Span{Start: start, End: i, Text: b.String()})
				b.Reset()
				start = -1
			}
		} else {
			if start < 0 {
				start = i
			}
			b.WriteRune(r)
		}
		i++
	}
	if start >= 0 {
		out = append(out, Span{Start: start, End: i, Text: b.String()})
	}
	return out
}

// isSentenceEnd reports whether the terminal punctuation at pos ends a
// sentence.
func (p *Parser) isSentenceEnd(runes []rune, pos int) bool {
	punct := runes[pos]

	// The word ending at pos, punctuation included
	start := pos - 1
	for start >= 0 && !unicode.IsSpace(runes[start]) {
		start--
	}
	wordBefore := strings.ToLower(strings.TrimLeft(string(runes[start+1:pos+1]), `"'([`))

	if punct == '.' && wordBefore != "" {
		bare := strings.TrimSuffix(wordBefore, ".")
		if p.abbreviations[bare] || p.abbreviations[wordBefore] {
			return false
		}
		// Ph.D., U.S. and ellipses
		if strings.Count(wordBefore, ".") > 1 {
			return false
		}
		// A single capital initial followed by another: "J. R. R."
		if len([]rune(bare)) == 1 && unicode.IsUpper(runes[pos-1]) && isInitialAt(runes, pos+2) {
			return false
		}
	}

	if punct == '.' && pos > 0 && pos+1 < len(runes) {
		// 3.14
		if unicode.IsDigit(runes[pos-1]) && unicode.IsDigit(runes[pos+1]) {
			return false
		}
		// Wait...
		if runes[pos+1] == '.' {
			return false
		}
	}

	next := pos + 1
	for next < len(runes) && isCloser(runes[next]) {
		next++
	}
	if next >= len(runes) {
		return true
	}
	if !unicode.IsSpace(runes[next]) {
		return false
	}
	for next < len(runes) && unicode.IsSpace(runes[next]) {
		next++
	}
	if next >= len(runes) {
		return true
	}

	r := runes[next]
	if unicode.IsUpper(r) || unicode.IsDigit(r) || r == '"' || r == '\'' || r == '(' {
		return true
	}
	// Be lenient with ! and ?
	return punct == '!' || punct == '?'
}

// isInitialAt reports whether runes[pos:] starts with "X." followed by space
// or the end of text.
func isInitialAt(runes []rune, pos int) bool {
	if pos+1 >= len(runes) || !unicode.IsUpper(runes[pos]) || runes[pos+1] != '.' {
		return false
	}
	return pos+2 >= len(runes) || unicode.IsSpace(runes[pos+2])
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func isCloser(r rune) bool {
	return r == '"' || r == '\'' || r == ')' || r == ']' || r == '”' || r == '’'
}

func hasReadable(runes []rune) bool {
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// makeAbbreviationMap creates a map of common abbreviations.
func makeAbbreviationMap() map[string]bool {
	abbrevs := []string{
		"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "st",
		"ph.d", "m.d", "b.a", "m.a", "b.s",
		"llc", "inc", "ltd", "co", "corp",
		"i.e", "e.g", "etc", "vs", "cf", "al", "approx", "fig", "no",
		"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
		"mon", "tue", "wed", "thu", "fri", "sat", "sun",
		"rd", "ave", "blvd", "ln", "ct",
		"u.s", "u.k", "u.n", "e.u", "n.y", "l.a",
		"ft", "lbs", "oz", "kg", "km", "cm", "mm", "mi", "yd",
		"hr", "hrs", "min", "mins", "sec", "secs",
	}

	m := make(map[string]bool, len(abbrevs)*2)
	for _, abbrev := range abbrevs {
		m[abbrev] = true
		m[abbrev+"."] = true
	}
	return m
}
