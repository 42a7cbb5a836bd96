package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/rasterdoc/internal/engine"
	"github.com/dshills/rasterdoc/internal/engine/chunk"
	"github.com/dshills/rasterdoc/internal/logging"
	"github.com/dshills/rasterdoc/internal/render"
)

// Config holds every rasterdoc setting.
type Config struct {
	History HistoryConfig `yaml:"history" toml:"history"`
	Tiles   TilesConfig   `yaml:"tiles" toml:"tiles"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Render  RenderConfig  `yaml:"render" toml:"render"`
}

// HistoryConfig configures undo history.
type HistoryConfig struct {
	// MaxEntries bounds the undo stack.
	MaxEntries int `yaml:"max_entries" toml:"max_entries"`
	// ManualBoundaries keeps undo packets open until an explicit boundary.
	ManualBoundaries bool `yaml:"manual_boundaries" toml:"manual_boundaries"`
}

// TilesConfig configures chunk storage.
type TilesConfig struct {
	// ChunkBudget limits live chunks. Zero means unlimited.
	ChunkBudget int `yaml:"chunk_budget" toml:"chunk_budget"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// RenderConfig configures previews and redraw tracking.
type RenderConfig struct {
	// PreviewWorkers bounds concurrent pyramid derivations.
	PreviewWorkers int `yaml:"preview_workers" toml:"preview_workers"`
	// PreviewResolution is the pyramid level warmed for previews.
	PreviewResolution string `yaml:"preview_resolution" toml:"preview_resolution"`
	// FullRedrawThreshold is the share of dirty canvas chunks that triggers
	// a full redraw.
	FullRedrawThreshold float64 `yaml:"full_redraw_threshold" toml:"full_redraw_threshold"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		History: HistoryConfig{
			MaxEntries: engine.DefaultMaxUndoEntries,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Render: RenderConfig{
			PreviewWorkers:      render.DefaultPreviewWorkers,
			PreviewResolution:   chunk.Quarter.String(),
			FullRedrawThreshold: render.DefaultFullRedrawThreshold,
		},
	}
}

// Validate checks every setting and joins all problems found.
func (c Config) Validate() error {
	var errs []error
	if c.History.MaxEntries <= 0 {
		errs = append(errs, &ValidationError{Field: "history.max_entries", Message: "must be positive"})
	}
	if c.Tiles.ChunkBudget < 0 {
		errs = append(errs, &ValidationError{Field: "tiles.chunk_budget", Message: "must not be negative"})
	}
	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		errs = append(errs, &ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown level %q", c.Logging.Level),
		})
	}
	if c.Render.PreviewWorkers <= 0 {
		errs = append(errs, &ValidationError{Field: "render.preview_workers", Message: "must be positive"})
	}
	if !validResolution(c.Render.PreviewResolution) {
		errs = append(errs, &ValidationError{
			Field:   "render.preview_resolution",
			Message: fmt.Sprintf("unknown resolution %q", c.Render.PreviewResolution),
		})
	}
	if t := c.Render.FullRedrawThreshold; t <= 0 || t > 1 {
		errs = append(errs, &ValidationError{Field: "render.full_redraw_threshold", Message: "must be in (0,1]"})
	}
	return errors.Join(errs...)
}

func validResolution(s string) bool {
	s = strings.ToLower(s)
	for _, r := range chunk.Resolutions {
		if r.String() == s {
			return true
		}
	}
	return false
}

// LogLevel returns the configured level, or info if it does not parse.
func (c Config) LogLevel() logging.Level {
	if l, ok := logging.ParseLevel(c.Logging.Level); ok {
		return l
	}
	return logging.LevelInfo
}

// PreviewResolution returns the pyramid level warmed for previews.
func (c Config) PreviewResolution() chunk.Resolution {
	return chunk.ParseResolution(strings.ToLower(c.Render.PreviewResolution))
}

// TrackerOptions converts the history and tile settings to tracker options.
func (c Config) TrackerOptions() []engine.Option {
	opts := []engine.Option{engine.WithMaxUndoEntries(c.History.MaxEntries)}
	if c.Tiles.ChunkBudget > 0 {
		opts = append(opts, engine.WithChunkBudget(c.Tiles.ChunkBudget))
	}
	if c.History.ManualBoundaries {
		opts = append(opts, engine.WithManualBoundaries())
	}
	return opts
}

// GathererOptions converts the render settings to gatherer options.
func (c Config) GathererOptions() []render.GathererOption {
	return []render.GathererOption{render.WithFullRedrawThreshold(c.Render.FullRedrawThreshold)}
}
