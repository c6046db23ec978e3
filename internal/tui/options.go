package tui

import (
	"time"

	"github.com/hylla/anteck/internal/app"
)

// RenderConfig controls note preview rendering.
type RenderConfig struct {
	Style     string
	WordWrap  int
	CacheSize int
}

type Option func(*Model)

func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Style:     "auto",
		WordWrap:  80,
		CacheSize: 64,
	}
}

func WithRenderConfig(cfg RenderConfig) Option {
	return func(m *Model) {
		if cfg.Style == "" {
			cfg.Style = "auto"
		}
		if cfg.CacheSize < 1 {
			cfg.CacheSize = 1
		}
		m.renderCfg = cfg
	}
}

// EditorConfig controls the note editing surface: list auto-conversion,
// indent step, and how long after the last keystroke deferred saves flush.
type EditorConfig struct {
	AutoList     bool
	IndentWidth  int
	SaveDebounce time.Duration
}

func DefaultEditorConfig() EditorConfig {
	return EditorConfig{
		AutoList:     true,
		IndentWidth:  2,
		SaveDebounce: 250 * time.Millisecond,
	}
}

func WithEditorConfig(cfg EditorConfig) Option {
	return func(m *Model) {
		if cfg.IndentWidth < 1 {
			cfg.IndentWidth = 2
		}
		if cfg.SaveDebounce < 0 {
			cfg.SaveDebounce = 0
		}
		m.editorCfg = cfg
	}
}

func WithDefaultDeleteMode(mode app.DeleteMode) Option {
	return func(m *Model) {
		switch mode {
		case app.DeleteModeArchive, app.DeleteModeHard:
			m.defaultDeleteMode = mode
		}
	}
}
