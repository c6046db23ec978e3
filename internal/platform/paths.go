package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Paths holds the resolved on-disk locations for one app instance.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
}

// Options selects which app instance to resolve paths for. DevMode keeps a
// development database separate from the daily-driver one.
type Options struct {
	AppName string
	DevMode bool
}

// DefaultPaths resolves paths for the stock app name.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{AppName: "anteck"})
}

// DefaultPathsWithOptions resolves config and data locations from the host
// environment, honoring XDG overrides on Linux and the native conventions
// on macOS and Windows.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	appName := strings.TrimSpace(opts.AppName)
	if appName == "" {
		appName = "anteck"
	}
	if opts.DevMode {
		appName += "-dev"
	}

	configBase, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataBase, err := defaultDataBase(configBase)
	if err != nil {
		return Paths{}, err
	}
	return Resolve(runtime.GOOS, os.Getenv, configBase, dataBase, appName)
}

// defaultDataBase picks the pre-override data root for the current OS.
func defaultDataBase(configBase string) (string, error) {
	switch runtime.GOOS {
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("user home dir: %w", err)
		}
		return filepath.Join(home, ".local", "share"), nil
	case "windows":
		if v := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); v != "" {
			return v, nil
		}
	}
	return configBase, nil
}

// Resolve computes app paths from explicit inputs. The lookup func supplies
// environment overrides, which keeps the logic testable per OS.
func Resolve(goos string, lookup func(string) string, configBase, dataBase, appName string) (Paths, error) {
	if configBase == "" || dataBase == "" {
		return Paths{}, fmt.Errorf("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, fmt.Errorf("empty app name")
	}
	if lookup == nil {
		lookup = func(string) string { return "" }
	}

	switch goos {
	case "linux":
		if v := lookup("XDG_CONFIG_HOME"); v != "" {
			configBase = v
		}
		if v := lookup("XDG_DATA_HOME"); v != "" {
			dataBase = v
		}
	case "windows":
		if v := lookup("APPDATA"); v != "" {
			configBase = v
		}
		if v := lookup("LOCALAPPDATA"); v != "" {
			dataBase = v
		}
	}
	// macOS and everything else keep the os.UserConfigDir defaults.

	dataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(configBase, appName, "config.toml"),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, appName+".db"),
	}, nil
}
