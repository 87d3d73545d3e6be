package gtts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/dgnsrekt/readaloud/tts"
)

func TestArgs(t *testing.T) {
	g := New(Config{Voice: "en-GB"})

	tests := []struct {
		name  string
		voice string
		rate  float64
		want  string
	}{
		{"default voice", "", 1, "--lang en --tld co.uk --output - -"},
		{"explicit voice", "fr-CA", 1, "--lang fr --tld ca --output - -"},
		{"slow", "en-US", 0.5, "--lang en --tld com --slow --output - -"},
		{"fast is normal", "en-US", 2, "--lang en --tld com --output - -"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := g.args(tts.Params{Voice: tt.voice, Rate: tt.rate})
			if err != nil {
				t.Fatalf("args() error = %v", err)
			}
			if got := strings.Join(args, " "); got != tt.want {
				t.Errorf("args() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := g.args(tts.Params{Voice: "xx-XX"}); !errors.Is(err, tts.ErrVoiceNotFound) {
		t.Errorf("args(xx-XX) error = %v, want ErrVoiceNotFound", err)
	}
}

func TestVoices(t *testing.T) {
	voices := New(Config{}).Voices()
	if len(voices) != len(accents) {
		t.Fatalf("len(Voices()) = %d, want %d", len(voices), len(accents))
	}
	for _, v := range voices {
		if v.ID != v.Language {
			t.Errorf("voice %q has language %q", v.ID, v.Language)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := decodeMP3([]byte("not an mp3")); err == nil {
		t.Error("decodeMP3(garbage) = nil, want error")
	}
}

func TestSynthesizeRunsCLI(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	dir := t.TempDir()
	binary := filepath.Join(dir, "gtts-cli")
	script := "#!/bin/sh\ncat > \"$0.stdin\"\necho garbage\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	g := New(Config{Binary: binary})
	if err := g.Available(); err != nil {
		t.Fatalf("Available() error = %v", err)
	}
	_, err := g.Synthesize(context.Background(), "Bonjour.", tts.DefaultParams())
	if err == nil || !strings.Contains(err.Error(), "decode mp3") {
		t.Errorf("Synthesize() error = %v, want decode error", err)
	}

	stdin, err := os.ReadFile(binary + ".stdin")
	if err != nil {
		t.Fatal(err)
	}
	if string(stdin) != "Bonjour." {
		t.Errorf("stdin = %q, want %q", stdin, "Bonjour.")
	}
}

func TestSynthesizeEmpty(t *testing.T) {
	if _, err := New(Config{}).Synthesize(context.Background(), "", tts.DefaultParams()); !errors.Is(err, tts.ErrEmptyInput) {
		t.Errorf("Synthesize(\"\") error = %v, want ErrEmptyInput", err)
	}
}
