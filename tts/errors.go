package tts

import (
	"errors"
	"time"
)

// Common errors for the playback engine.
var (
	// Playback errors
	ErrEmptyInput     = errors.New("nothing to read: the document is empty")
	ErrDocumentLocked = errors.New("document cannot change while reading")
	ErrStaleCallback  = errors.New("callback from a superseded session")

	// Engine errors
	ErrEngineUnavailable = errors.New("speech engine is not available")
	ErrVoiceNotFound     = errors.New("requested voice not found")
	ErrSessionNotFound   = errors.New("no such engine session")

	// Controller errors
	ErrNotInitialized = errors.New("controller not initialized")
	ErrDisposed       = errors.New("controller has been disposed")

	// Parameter errors
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// IsRecoverableError reports whether the user can retry after err.
func IsRecoverableError(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrEngineUnavailable),
		errors.Is(err, ErrDisposed):
		return false
	}
	return true
}

// ErrorSeverity represents the severity of an error.
type ErrorSeverity int

const (
	// SeverityInfo is for informational notices.
	SeverityInfo ErrorSeverity = iota
	// SeverityWarning is for problems that do not stop playback.
	SeverityWarning
	// SeverityError is for failures that end playback.
	SeverityError
	// SeverityCritical is for failures that make playback impossible.
	SeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// TTSError adds where and when to an engine failure.
type TTSError struct {
	Err       error         // The underlying error
	Component string        // Component that failed (engine, controller)
	Action    string        // Action being performed (begin, pause, ...)
	Session   SessionID     // Session the failure belongs to
	Severity  ErrorSeverity // Severity of the error
	Time      time.Time     // When the error occurred
}

// Error implements the error interface.
func (e *TTSError) Error() string {
	if e.Err == nil {
		return "unknown speech error"
	}
	if e.Action == "" {
		return e.Err.Error()
	}
	return e.Component + " " + e.Action + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *TTSError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether the user can retry.
func (e *TTSError) IsRecoverable() bool {
	return IsRecoverableError(e.Err)
}

// NewTTSError wraps err with the failing component and action.
func NewTTSError(err error, component, action string) *TTSError {
	return &TTSError{
		Err:       err,
		Component: component,
		Action:    action,
		Severity:  SeverityError,
		Time:      time.Now(),
	}
}

// WithSeverity sets the error severity.
func (e *TTSError) WithSeverity(severity ErrorSeverity) *TTSError {
	e.Severity = severity
	return e
}

// WithSession records the session the error belongs to.
func (e *TTSError) WithSession(id SessionID) *TTSError {
	e.Session = id
	return e
}
