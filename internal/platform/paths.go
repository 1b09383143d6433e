// Package platform resolves where gantry keeps its config, database and logs.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	defaultAppName = "gantry"
	// HomeEnv points every gantry path at one directory, bypassing OS conventions.
	HomeEnv = "GANTRY_HOME"
)

// Paths holds the resolved on-disk locations for one app name.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	LogDir     string
}

// Options selects the app name and environment paths resolve against.
type Options struct {
	AppName string
	// DevMode appends "-dev" to the app directory so dev builds never touch real data.
	DevMode bool
	// Getenv replaces os.Getenv when set.
	Getenv func(string) string
}

// Bases are the per-user config and data roots that app directories hang off.
type Bases struct {
	Config string
	Data   string
}

// DefaultPaths returns the production paths for gantry.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{})
}

// DefaultPathsWithOptions resolves paths for the current OS and user.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	name := AppDirName(opts.AppName, opts.DevMode)

	if home := strings.TrimSpace(getenv(HomeEnv)); home != "" {
		return PathsUnder(Bases{Config: home, Data: home}, name)
	}
	bases, err := userBases(runtime.GOOS, getenv)
	if err != nil {
		return Paths{}, err
	}
	return PathsUnder(bases, name)
}

// AppDirName is the directory and file stem used for appName.
func AppDirName(appName string, devMode bool) string {
	name := strings.TrimSpace(appName)
	if name == "" {
		name = defaultAppName
	}
	if devMode {
		name += "-dev"
	}
	return name
}

// ResolveBases picks the config and data roots for goos. fallback holds the values used when the
// OS-specific variables are unset.
func ResolveBases(goos string, getenv func(string) string, fallback Bases) Bases {
	out := fallback
	lookup := func(key string) string { return strings.TrimSpace(getenv(key)) }
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		if v := lookup("XDG_CONFIG_HOME"); v != "" {
			out.Config = v
		}
		if v := lookup("XDG_DATA_HOME"); v != "" {
			out.Data = v
		}
	case "windows":
		if v := lookup("APPDATA"); v != "" {
			out.Config = v
		}
		if v := lookup("LOCALAPPDATA"); v != "" {
			out.Data = v
		}
	}
	return out
}

// PathsUnder lays out the app directories below bases.
func PathsUnder(bases Bases, appDir string) (Paths, error) {
	if strings.TrimSpace(bases.Config) == "" || strings.TrimSpace(bases.Data) == "" {
		return Paths{}, errors.New("empty base dirs")
	}
	appDir = strings.TrimSpace(appDir)
	if appDir == "" {
		return Paths{}, errors.New("empty app name")
	}
	configDir := filepath.Join(bases.Config, appDir)
	dataDir := filepath.Join(bases.Data, appDir)
	return Paths{
		ConfigPath: filepath.Join(configDir, "config.toml"),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, appDir+".db"),
		LogDir:     filepath.Join(dataDir, "logs"),
	}, nil
}

func userBases(goos string, getenv func(string) string) (Bases, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Bases{}, fmt.Errorf("user config dir: %w", err)
	}
	fallback := Bases{Config: configDir, Data: configDir}
	if goos == "linux" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Bases{}, fmt.Errorf("user home dir: %w", err)
		}
		fallback.Data = filepath.Join(home, ".local", "share")
	}
	return ResolveBases(goos, getenv, fallback), nil
}
