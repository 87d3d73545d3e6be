package tts

import (
	"fmt"
	"strings"
)

// SessionID identifies one engine utterance. Ids increase monotonically for
// the life of a Controller, so callbacks tagged with an older id are stale.
type SessionID uint64

// UnitKind classifies a progress notification.
type UnitKind int

const (
	// UnitWord is reported at the start of each spoken word.
	UnitWord UnitKind = iota
	// UnitSentence is reported at the start of each spoken sentence.
	UnitSentence
	// UnitOther covers anything else an engine reports. It is ignored.
	UnitOther
)

func (k UnitKind) String() string {
	switch k {
	case UnitWord:
		return "word"
	case UnitSentence:
		return "sentence"
	default:
		return "other"
	}
}

// Params are the voice settings applied to a session.
type Params struct {
	Voice  string  // Voice identifier, empty for the engine default
	Rate   float64 // Speed multiplier (0.1 to 10.0)
	Pitch  float64 // Pitch multiplier (0.0 to 2.0)
	Volume float64 // Volume (0.0 to 1.0)
}

// DefaultParams returns normal speed, pitch and full volume.
func DefaultParams() Params {
	return Params{Rate: 1.0, Pitch: 1.0, Volume: 1.0}
}

// Validate checks every field against its allowed range.
func (p Params) Validate() error {
	if p.Rate < 0.1 || p.Rate > 10.0 {
		return fmt.Errorf("%w: rate must be between 0.1 and 10.0, got %.2f", ErrInvalidParameter, p.Rate)
	}
	if p.Pitch < 0.0 || p.Pitch > 2.0 {
		return fmt.Errorf("%w: pitch must be between 0.0 and 2.0, got %.2f", ErrInvalidParameter, p.Pitch)
	}
	if p.Volume < 0.0 || p.Volume > 1.0 {
		return fmt.Errorf("%w: volume must be between 0.0 and 1.0, got %.2f", ErrInvalidParameter, p.Volume)
	}
	return nil
}

// Utterance is the text handed to an engine for one session.
type Utterance struct {
	Session SessionID
	Text    string
	Params  Params
}

// Voice describes a voice offered by an engine.
type Voice struct {
	ID       string // Engine-specific identifier
	Name     string // Human-readable name
	Language string // BCP 47 tag (e.g. "en-US")
	Gender   string // "male", "female" or "neutral"
}

func (v Voice) String() string {
	var b strings.Builder
	b.WriteString(v.Name)
	if v.Language != "" {
		b.WriteString(" (")
		b.WriteString(v.Language)
		b.WriteString(")")
	}
	return b.String()
}

// Listener receives engine notifications. Offsets and lengths are in runes of
// the utterance text.
type Listener interface {
	OnProgress(id SessionID, start, length int, kind UnitKind)
	OnComplete(id SessionID)
	OnError(id SessionID, err error)
}

// Engine is the external speech capability.
//
// Implementations must never call the Listener from inside Begin, Pause,
// Resume or Cancel, and must not hold their own locks while calling it.
// Cancel returns without waiting for in-flight work to drain.
type Engine interface {
	// Available reports why the engine cannot speak, or nil.
	Available() error
	// Voices lists the voices the engine offers.
	Voices() []Voice
	// Begin starts speaking u, reporting to l.
	Begin(u Utterance, l Listener) error
	// Pause suspends the session.
	Pause(id SessionID) error
	// Resume continues a suspended session.
	Resume(id SessionID) error
	// Cancel abandons the session.
	Cancel(id SessionID) error
}
