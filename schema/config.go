package schema

import (
	"errors"
	"time"
)

// ConsoleConfig defines defaults and limits for the core console service.
type ConsoleConfig struct {
	// TranscriptCapacity bounds the transcript in bytes after line-ending
	// normalization.
	TranscriptCapacity int
	// LineEnding replaces each logical newline at append time.
	LineEnding LineEnding
	// StatusText is the fixed line the producer appends each interval.
	StatusText string
	// ProducerInterval is the fixed producer period. Not adjustable at
	// runtime.
	ProducerInterval time.Duration
	// ShutdownTimeout bounds the wait for the producer to acknowledge a
	// stop.
	ShutdownTimeout time.Duration
	// QueueSize bounds the pending event queue.
	QueueSize int
}

// DefaultTranscriptCapacity is the default transcript bound in bytes.
const DefaultTranscriptCapacity = 10240

// DefaultStatusText is the line the producer appends each interval.
const DefaultStatusText = "running"

// DefaultProducerInterval is the fixed producer period.
const DefaultProducerInterval = time.Second

// DefaultShutdownTimeout bounds the producer stop wait.
const DefaultShutdownTimeout = 5 * time.Second

// DefaultQueueSize is the default pending event bound.
const DefaultQueueSize = 64

// NormalizeConsoleConfig applies defaults and validates the config.
func NormalizeConsoleConfig(cfg ConsoleConfig) (ConsoleConfig, error) {
	if cfg.TranscriptCapacity <= 0 {
		cfg.TranscriptCapacity = DefaultTranscriptCapacity
	}
	if cfg.LineEnding == "" {
		cfg.LineEnding = DefaultLineEnding
	}
	if cfg.StatusText == "" {
		cfg.StatusText = DefaultStatusText
	}
	if cfg.ProducerInterval <= 0 {
		cfg.ProducerInterval = DefaultProducerInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if err := ValidateLineEnding(cfg.LineEnding); err != nil {
		return ConsoleConfig{}, err
	}
	if err := ValidateStatusText(cfg.StatusText); err != nil {
		return ConsoleConfig{}, err
	}
	if cfg.TranscriptCapacity < len(cfg.StatusText)+len(cfg.LineEnding) {
		return ConsoleConfig{}, errors.New("transcript capacity must fit one status line")
	}
	return cfg, nil
}
