package engines

import (
	"context"
	"errors"
	"testing"

	"github.com/dgnsrekt/readaloud/tts"
)

func TestFallbackSwitchesAfterFailures(t *testing.T) {
	primary := &fakeSynth{name: "primary", err: errors.New("primary engine failure")}
	secondary := &fakeSynth{name: "secondary"}
	f := NewFallback(primary, secondary, 2)
	ctx := context.Background()

	if _, err := f.Synthesize(ctx, "test 1", tts.DefaultParams()); err == nil {
		t.Error("first Synthesize() = nil, want primary failure")
	}

	clip, err := f.Synthesize(ctx, "test 2", tts.DefaultParams())
	if err != nil {
		t.Fatalf("second Synthesize() error = %v, want fallback audio", err)
	}
	if len(clip.PCM) == 0 {
		t.Error("second Synthesize() returned no audio")
	}

	want := "using fallback secondary (primary failed 2 times)"
	if got := f.Status(); got != want {
		t.Errorf("Status() = %q, want %q", got, want)
	}

	if _, err := f.Synthesize(ctx, "test 3", tts.DefaultParams()); err != nil {
		t.Errorf("third Synthesize() error = %v", err)
	}
	if got := len(primary.Calls()); got != 2 {
		t.Errorf("primary calls = %d, want 2", got)
	}
	if got := f.Voices()[0].ID; got != "secondary-voice" {
		t.Errorf("Voices()[0].ID = %q, want secondary-voice", got)
	}

	f.Reset()
	if got := f.Status(); got != "using primary primary (failures: 0/2)" {
		t.Errorf("Status() after Reset = %q", got)
	}
}

func TestFallbackRecovers(t *testing.T) {
	primary := &fakeSynth{name: "primary", err: errors.New("flaky")}
	f := NewFallback(primary, &fakeSynth{name: "secondary"}, 3)

	if _, err := f.Synthesize(context.Background(), "a", tts.DefaultParams()); err == nil {
		t.Fatal("Synthesize() = nil, want error")
	}

	primary.mu.Lock()
	primary.err = nil
	primary.mu.Unlock()

	if _, err := f.Synthesize(context.Background(), "b", tts.DefaultParams()); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if got := f.Status(); got != "using primary primary (failures: 0/3)" {
		t.Errorf("Status() = %q", got)
	}
}

func TestFallbackAvailable(t *testing.T) {
	tests := []struct {
		name        string
		primary     error
		secondary   error
		wantErr     bool
		wantVoiceID string
	}{
		{"primary ok", nil, nil, false, "primary-voice"},
		{"primary missing", errors.New("no piper"), nil, false, "secondary-voice"},
		{"both missing", errors.New("no piper"), errors.New("offline"), true, "primary-voice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFallback(
				&fakeSynth{name: "primary", unavai: tt.primary},
				&fakeSynth{name: "secondary", unavai: tt.secondary},
				0,
			)
			err := f.Available()
			if (err != nil) != tt.wantErr {
				t.Errorf("Available() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := f.Voices()[0].ID; got != tt.wantVoiceID {
				t.Errorf("Voices()[0].ID = %q, want %q", got, tt.wantVoiceID)
			}
		})
	}
}

func TestFallbackName(t *testing.T) {
	f := NewFallback(&fakeSynth{name: "piper"}, &fakeSynth{name: "gtts"}, 0)
	if got := f.Name(); got != "piper|gtts" {
		t.Errorf("Name() = %q, want piper|gtts", got)
	}
}
