package tui

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/evanschultz/gantry/internal/timeline"
)

// Option configures a Model.
type Option func(*Model)

// WithLogger routes model diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithZoom sets the initial timeline zoom and its step factors.
func WithZoom(pixelsPerDay, inFactor, outFactor float64) Option {
	return func(m *Model) {
		m.zoom = timeline.NewZoomWithSteps(pixelsPerDay, inFactor, outFactor)
	}
}

// WithKeyConfig applies key binding overrides.
func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

// WithProject selects the project shown first.
func WithProject(projectID string) Option {
	return func(m *Model) {
		m.pendingProjectID = projectID
	}
}

// WithClock sets the clock used to place the today marker on the timeline.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}
