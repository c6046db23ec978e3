package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type DeleteMode string

const (
	DeleteModeArchive DeleteMode = "archive"
	DeleteModeHard    DeleteMode = "hard"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Delete   DeleteConfig   `toml:"delete"`
	Editor   EditorConfig   `toml:"editor"`
	Render   RenderConfig   `toml:"render"`
	Logging  LoggingConfig  `toml:"logging"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type DeleteConfig struct {
	DefaultMode DeleteMode `toml:"default_mode"`
}

type EditorConfig struct {
	AutoList       bool `toml:"auto_list"`
	IndentWidth    int  `toml:"indent_width"`
	SaveDebounceMS int  `toml:"save_debounce_ms"`
}

type RenderConfig struct {
	Style     string `toml:"style"` // auto | dark | light | notty
	WordWrap  int    `toml:"word_wrap"`
	CacheSize int    `toml:"cache_size"`
}

type LoggingConfig struct {
	Level string `toml:"level"` // debug | info | warn | error
	File  string `toml:"file"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Delete: DeleteConfig{
			DefaultMode: DeleteModeArchive,
		},
		Editor: EditorConfig{
			AutoList:       true,
			IndentWidth:    2,
			SaveDebounceMS: 250,
		},
		Render: RenderConfig{
			Style:     "auto",
			WordWrap:  80,
			CacheSize: 64,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	switch c.Delete.DefaultMode {
	case DeleteModeArchive, DeleteModeHard:
	default:
		return fmt.Errorf("invalid delete.default_mode: %q", c.Delete.DefaultMode)
	}

	if c.Editor.IndentWidth < 1 || c.Editor.IndentWidth > 8 {
		return fmt.Errorf("editor.indent_width must be between 1 and 8, got %d", c.Editor.IndentWidth)
	}
	if c.Editor.SaveDebounceMS < 0 {
		return fmt.Errorf("editor.save_debounce_ms must be >= 0, got %d", c.Editor.SaveDebounceMS)
	}

	switch strings.TrimSpace(strings.ToLower(c.Render.Style)) {
	case "auto", "dark", "light", "notty":
	default:
		return fmt.Errorf("invalid render.style: %q", c.Render.Style)
	}
	if c.Render.WordWrap < 0 {
		return fmt.Errorf("render.word_wrap must be >= 0, got %d", c.Render.WordWrap)
	}
	if c.Render.CacheSize < 1 {
		return fmt.Errorf("render.cache_size must be >= 1, got %d", c.Render.CacheSize)
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
