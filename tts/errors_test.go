package tts

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRecoverableError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		recoverable bool
	}{
		// Non-recoverable errors
		{"engine unavailable", ErrEngineUnavailable, false},
		{"wrapped engine unavailable", fmt.Errorf("piper: %w", ErrEngineUnavailable), false},
		{"disposed", ErrDisposed, false},

		// Recoverable errors
		{"voice not found", ErrVoiceNotFound, true},
		{"document locked", ErrDocumentLocked, true},
		{"invalid parameter", ErrInvalidParameter, true},

		// Nil error is recoverable
		{"nil error", nil, true},

		// Unknown error is recoverable by default
		{"unknown error", errors.New("unknown"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecoverableError(tt.err); got != tt.recoverable {
				t.Errorf("IsRecoverableError(%v) = %v, want %v", tt.err, got, tt.recoverable)
			}
		})
	}
}

func TestTTSError(t *testing.T) {
	base := errors.New("device lost")
	err := NewTTSError(base, "engine", "speak").WithSession(7)

	if got, want := err.Error(), "engine speak: device lost"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, base) {
		t.Error("errors.Is(TTSError, base) = false, want true")
	}
	if !err.IsRecoverable() {
		t.Error("IsRecoverable() = false, want true")
	}
	if err.Session != 7 {
		t.Errorf("Session = %d, want 7", err.Session)
	}
	if err.Severity != SeverityError {
		t.Errorf("Severity = %v, want %v", err.Severity, SeverityError)
	}
	if err.Time.IsZero() {
		t.Error("Time is zero")
	}

	var target *TTSError
	if !errors.As(fmt.Errorf("notice: %w", err), &target) || target.Action != "speak" {
		t.Errorf("errors.As() = %v, want the TTSError", target)
	}

	if err.WithSeverity(SeverityCritical).Severity != SeverityCritical {
		t.Error("WithSeverity() did not set severity")
	}
}

func TestTTSErrorMessages(t *testing.T) {
	tests := []struct {
		err  *TTSError
		want string
	}{
		{&TTSError{}, "unknown speech error"},
		{&TTSError{Err: ErrVoiceNotFound}, "requested voice not found"},
		{&TTSError{Err: ErrVoiceNotFound, Component: "engine", Action: "begin"}, "engine begin: requested voice not found"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestErrorUniqueness(t *testing.T) {
	all := []error{
		ErrEmptyInput, ErrDocumentLocked, ErrStaleCallback,
		ErrEngineUnavailable, ErrVoiceNotFound, ErrSessionNotFound,
		ErrNotInitialized, ErrDisposed,
		ErrUnknownParameter, ErrInvalidParameter,
	}
	seen := make(map[string]bool)
	for _, err := range all {
		if seen[err.Error()] {
			t.Errorf("duplicate error message %q", err)
		}
		seen[err.Error()] = true
	}
}

func TestErrorSeverity(t *testing.T) {
	tests := []struct {
		s    ErrorSeverity
		want string
	}{
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{ErrorSeverity(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("ErrorSeverity(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}
