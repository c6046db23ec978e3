package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/glamour"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/hylla/anteck/internal/adapters/storage/sqlite"
	"github.com/hylla/anteck/internal/app"
	"github.com/hylla/anteck/internal/codec/markdown"
	"github.com/hylla/anteck/internal/config"
	"github.com/hylla/anteck/internal/platform"
	"github.com/hylla/anteck/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("anteck", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath string
		dbPath     string
		appName    string
		devMode    bool
		showVer    bool
	)
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("ANTECK_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("ANTECK_APP_NAME")); envApp != "" {
		appName = envApp
	} else {
		appName = "anteck"
	}
	fs.StringVar(&configPath, "config", "", "path to config TOML")
	fs.StringVar(&dbPath, "db", "", "path to sqlite database")
	fs.StringVar(&appName, "app", appName, "application name for config/data path resolution")
	fs.BoolVar(&devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	fs.BoolVar(&showVer, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		_, _ = fmt.Fprintf(stdout, "anteck %s\n", version)
		return nil
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: appName,
		DevMode: devMode,
	})
	if err != nil {
		return err
	}

	command := firstArg(fs.Args())
	switch command {
	case "paths":
		_, _ = fmt.Fprintf(stdout, "app: %s\n", appName)
		_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", devMode)
		_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
		_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
		_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
		return nil
	case "", "export", "import", "render":
		// Continue.
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	dbOverridden := strings.TrimSpace(dbPath) != ""
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("ANTECK_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("ANTECK_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, closeLog, err := newRuntimeLogger(stderr, appName, cfg.Logging)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	defer closeLog()
	if command == "" {
		// Keep TUI rendering clean while the program owns the terminal.
		logger.SetOutput(io.Discard)
	}

	logger.Info("startup configuration resolved", "app", appName, "dev_mode", devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)

	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("sqlite close failed", "db_path", cfg.Database.Path, "err", closeErr)
		}
	}()
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path)

	saveDebounce := time.Duration(cfg.Editor.SaveDebounceMS) * time.Millisecond
	svc := app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{
		DefaultDeleteMode: app.DeleteMode(cfg.Delete.DefaultMode),
		SaveDebounce:      saveDebounce,
	})

	switch command {
	case "export":
		if err := runExport(ctx, svc, fs.Args()[1:], stdout); err != nil {
			logger.Error("export failed", "err", err)
			return fmt.Errorf("run export command: %w", err)
		}
		return nil
	case "import":
		if err := runImport(ctx, svc, fs.Args()[1:], stdout); err != nil {
			logger.Error("import failed", "err", err)
			return fmt.Errorf("run import command: %w", err)
		}
		return nil
	case "render":
		if err := runRender(ctx, svc, cfg.Render, fs.Args()[1:], stdout); err != nil {
			logger.Error("render failed", "err", err)
			return fmt.Errorf("run render command: %w", err)
		}
		return nil
	}

	m := tui.NewModel(
		svc,
		tui.WithDefaultDeleteMode(app.DeleteMode(cfg.Delete.DefaultMode)),
		tui.WithRenderConfig(tui.RenderConfig{
			Style:     cfg.Render.Style,
			WordWrap:  cfg.Render.WordWrap,
			CacheSize: cfg.Render.CacheSize,
		}),
		tui.WithEditorConfig(tui.EditorConfig{
			AutoList:     cfg.Editor.AutoList,
			IndentWidth:  cfg.Editor.IndentWidth,
			SaveDebounce: saveDebounce,
		}),
	)
	logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		return fmt.Errorf("run tui program: %w", err)
	}
	return nil
}

// runExport runs the requested command flow.
func runExport(ctx context.Context, svc *app.Service, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("anteck export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var outPath string
	fs.StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse export flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected export arguments: %v", fs.Args())
	}

	encoded, err := svc.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// runImport runs the requested command flow.
func runImport(ctx context.Context, svc *app.Service, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("anteck import", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var inPath string
	fs.StringVar(&inPath, "in", "", "input snapshot JSON file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse import flags: %w", err)
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected import arguments: %v", fs.Args())
	}
	if inPath == "" {
		return errors.New("--in is required")
	}

	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	created, err := svc.ImportSnapshot(ctx, content)
	if err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "imported %d task(s)\n", created)
	return nil
}

// runRender prints one task's note as terminal-styled markdown.
func runRender(ctx context.Context, svc *app.Service, render config.RenderConfig, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("anteck render", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		taskID string
		plain  bool
	)
	fs.StringVar(&taskID, "task", "", "task id to render")
	fs.BoolVar(&plain, "plain", false, "emit raw markdown without terminal styling")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse render flags: %w", err)
	}
	if taskID == "" {
		return errors.New("--task is required")
	}

	sess, err := svc.OpenNote(ctx, taskID)
	if err != nil {
		return fmt.Errorf("open note: %w", err)
	}
	text := markdown.Encode(sess.Document())

	if plain {
		_, _ = fmt.Fprint(stdout, text)
		return nil
	}

	style := render.Style
	if style == "" || style == "auto" {
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(render.WordWrap),
	)
	if err != nil {
		return fmt.Errorf("build renderer: %w", err)
	}
	rendered, err := renderer.Render(text)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, _ = fmt.Fprint(stdout, rendered)
	return nil
}

// newRuntimeLogger configures the runtime logger from config state. The
// returned close func flushes the optional log file sink.
func newRuntimeLogger(stderr io.Writer, appName string, cfg config.LoggingConfig) (*charmLog.Logger, func(), error) {
	levelText := cfg.Level
	if strings.TrimSpace(levelText) == "" {
		levelText = "info"
	}
	level, err := charmLog.ParseLevel(levelText)
	if err != nil {
		return nil, nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}

	out := stderr
	closeFn := func() {}
	if path := strings.TrimSpace(cfg.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		logFile, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = logFile
		closeFn = func() { _ = logFile.Close() }
	}

	logger := charmLog.NewWithOptions(out, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})
	return logger, closeFn, nil
}

// firstArg handles first arg.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
