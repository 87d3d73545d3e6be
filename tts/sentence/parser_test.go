package sentence

import (
	"testing"
)

func texts(spans []Span) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Text
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSentences(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple sentences",
			input:    "Hello world. How are you? I'm fine!",
			expected: []string{"Hello world.", "How are you?", "I'm fine!"},
		},
		{
			name:     "sentences with newlines",
			input:    "First sentence.\nSecond sentence.\nThird sentence.",
			expected: []string{"First sentence.", "Second sentence.", "Third sentence."},
		},
		{
			name:     "sentences with multiple spaces",
			input:    "First.  Second.   Third.",
			expected: []string{"First.", "Second.", "Third."},
		},
		{
			name:     "sentence with ellipsis",
			input:    "Wait... I'm thinking. Done!",
			expected: []string{"Wait... I'm thinking.", "Done!"},
		},
		{
			name:     "mixed punctuation",
			input:    "Really? Yes! Of course. Why not?!",
			expected: []string{"Really?", "Yes!", "Of course.", "Why not?!"},
		},
		{
			name:     "quoted sentences",
			input:    `She said "Hello." Then she left.`,
			expected: []string{`She said "Hello."`, "Then she left."},
		},
		{
			name:     "abbreviations",
			input:    "Dr. Smith met Mrs. Jones. They talked.",
			expected: []string{"Dr. Smith met Mrs. Jones.", "They talked."},
		},
		{
			name:     "decimal numbers",
			input:    "It costs 3.50 today. Cheap.",
			expected: []string{"It costs 3.50 today.", "Cheap."},
		},
		{
			name:     "no terminal punctuation",
			input:    "just some words",
			expected: []string{"just some words"},
		},
		{
			name:     "lowercase after period",
			input:    "See fig. three for details.",
			expected: []string{"See fig. three for details."},
		},
		{
			name:     "stray punctuation merged",
			input:    "Done! !",
			expected: []string{"Done! !"},
		},
		{
			name:     "empty",
			input:    "   ",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := texts(parser.Sentences(tt.input))
			if !equal(got, tt.expected) {
				t.Errorf("Sentences(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSentenceOffsetsAreRunes(t *testing.T) {
	parser := NewParser()
	input := "Ça va. Très bien."
	spans := parser.Sentences(input)
	if len(spans) != 2 {
		t.Fatalf("Sentences() = %v, want 2 spans", spans)
	}

	runes := []rune(input)
	for _, s := range spans {
		if got := string(runes[s.Start:s.End]); got != s.Text {
			t.Errorf("runes[%d:%d] = %q, want %q", s.Start, s.End, got, s.Text)
		}
	}
	if spans[1].Start != 7 {
		t.Errorf("second sentence starts at %d, want 7", spans[1].Start)
	}
}

func TestWords(t *testing.T) {
	got := Words("  Héllo world.\nnext ")
	want := []Span{
		{Start: 2, End: 7, Text: "Héllo"},
		{Start: 8, End: 14, Text: "world."},
		{Start: 15, End: 19, Text: "next"},
	}
	if len(got) != len(want) {
		t.Fatalf("Words() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Words()[%d] = %v, want %v", i, got[i], want[i])
		}
		if got[i].Len() != want[i].End-want[i].Start {
			t.Errorf("Len() = %d", got[i].Len())
		}
	}
}
