package tts

import (
	"strings"
	"testing"
)

func TestGroupVoices(t *testing.T) {
	voices := []Voice{
		{ID: "amy", Language: "en-US"},
		{ID: "siwis", Language: "fr-FR"},
		{ID: "mystery"},
		{ID: "alan", Language: "en_GB"},
		{ID: "ryan", Language: "en-US"},
	}

	groups := GroupVoices(voices)

	wantLocales := []string{"en-GB", "en-US", "fr-FR", ""}
	if len(groups) != len(wantLocales) {
		t.Fatalf("GroupVoices() returned %d groups, want %d", len(groups), len(wantLocales))
	}
	for i, want := range wantLocales {
		if groups[i].Locale != want {
			t.Errorf("groups[%d].Locale = %q, want %q", i, groups[i].Locale, want)
		}
	}

	us := groups[1]
	if len(us.Voices) != 2 || us.Voices[0].ID != "amy" || us.Voices[1].ID != "ryan" {
		t.Errorf("en-US voices = %v, want [amy ryan]", us.Voices)
	}
	if !strings.Contains(us.Name, "English") {
		t.Errorf("en-US name = %q, want it to mention English", us.Name)
	}
	if groups[3].Name != "Other" {
		t.Errorf("unknown locale name = %q, want Other", groups[3].Name)
	}
}

func TestGroupVoicesEmpty(t *testing.T) {
	if got := GroupVoices(nil); len(got) != 0 {
		t.Errorf("GroupVoices(nil) = %v, want empty", got)
	}
}

func TestFilterVoices(t *testing.T) {
	voices := []Voice{
		{ID: "mock-en-us", Name: "Mock Ava", Language: "en-US"},
		{ID: "mock-en-gb", Name: "Mock Oliver", Language: "en-GB"},
		{ID: "mock-fr-fr", Name: "Mock Chloé", Language: "fr-FR"},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"mock-en-us", "mock-en-gb", "mock-fr-fr"}},
		{"oliv", []string{"mock-en-gb"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := FilterVoices(voices, tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("FilterVoices(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("FilterVoices(%q)[%d] = %q, want %q", tt.query, i, got[i].ID, id)
				}
			}
		})
	}
}
