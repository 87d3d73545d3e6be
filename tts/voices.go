package tts

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// VoiceGroup is the set of voices sharing one locale.
type VoiceGroup struct {
	Locale string // Canonical BCP 47 tag, empty when unknown
	Name   string // English display name of the locale
	Voices []Voice
}

// GroupVoices groups voices by locale, sorted by locale tag. Voices keep
// their order within a group. Voices without a parseable language are
// collected in a trailing group with an empty locale.
func GroupVoices(voices []Voice) []VoiceGroup {
	namer := display.English.Tags()
	index := make(map[string]int)
	var groups []VoiceGroup

	for _, v := range voices {
		locale, name := "", "Other"
		if tag, err := language.Parse(v.Language); err == nil && v.Language != "" {
			locale = tag.String()
			if n := namer.Name(tag); n != "" {
				name = n
			} else {
				name = locale
			}
		}
		i, ok := index[locale]
		if !ok {
			i = len(groups)
			index[locale] = i
			groups = append(groups, VoiceGroup{Locale: locale, Name: name})
		}
		groups[i].Voices = append(groups[i].Voices, v)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Locale, groups[j].Locale
		if a == "" || b == "" {
			return b == "" && a != ""
		}
		return strings.ToLower(a) < strings.ToLower(b)
	})
	return groups
}

type voiceSource []Voice

func (s voiceSource) String(i int) string {
	v := s[i]
	return v.ID + " " + v.Name + " " + v.Language
}

func (s voiceSource) Len() int { return len(s) }

// FilterVoices returns the voices fuzzily matching query, best match first.
// An empty query returns every voice.
func FilterVoices(voices []Voice, query string) []Voice {
	query = strings.TrimSpace(query)
	if query == "" {
		return voices
	}
	matches := fuzzy.FindFrom(query, voiceSource(voices))
	out := make([]Voice, 0, len(matches))
	for _, m := range matches {
		out = append(out, voices[m.Index])
	}
	return out
}
