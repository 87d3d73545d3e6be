package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	// Source file, empty for stdin or clipboard documents
	Path string
	// Cap applied when the document is reloaded or pasted
	MaxDocumentLength int

	MaxWidth    uint `env:"READALOUD_WIDTH" envDefault:"100"`
	EnableMouse bool `env:"READALOUD_MOUSE"`
	Watch       bool `env:"READALOUD_WATCH" envDefault:"true"`

	// Scroll animation
	ScrollSteps    int           `env:"READALOUD_SCROLL_STEPS" envDefault:"6"`
	ScrollInterval time.Duration `env:"READALOUD_SCROLL_INTERVAL" envDefault:"16ms"`

	// Parameter step for the adjust keys
	Step float64 `env:"READALOUD_STEP" envDefault:"0.1"`
}
