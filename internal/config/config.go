package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the full on-disk configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Grid     GridConfig     `toml:"grid"`
	Timeline TimelineConfig `toml:"timeline"`
	Server   ServerConfig   `toml:"server"`
	Keys     KeysConfig     `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig controls the logfmt file sink used in dev mode.
type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type GridConfig struct {
	MinColumnWidth int            `toml:"min_column_width"`
	TaskColumns    []ColumnConfig `toml:"task_columns"`
	IssueColumns   []ColumnConfig `toml:"issue_columns"`
}

// ColumnConfig overrides the default label or width of one grid column.
type ColumnConfig struct {
	Key   string `toml:"key"`
	Label string `toml:"label"`
	Width int    `toml:"width"`
}

type TimelineConfig struct {
	DefaultZoom   float64 `toml:"default_zoom"`
	ZoomInFactor  float64 `toml:"zoom_in_factor"`
	ZoomOutFactor float64 `toml:"zoom_out_factor"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// KeysConfig overrides TUI key bindings. Blank values keep the defaults.
type KeysConfig struct {
	Filter     string `toml:"filter"`
	BulkUpdate string `toml:"bulk_update"`
	CopyIDs    string `toml:"copy_ids"`
	ZoomIn     string `toml:"zoom_in"`
	ZoomOut    string `toml:"zoom_out"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".gantry/log",
			},
		},
		Grid: GridConfig{
			MinColumnWidth: 80,
		},
		Timeline: TimelineConfig{
			DefaultZoom:   40,
			ZoomInFactor:  1.25,
			ZoomOutFactor: 0.8,
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:5437",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
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
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if _, err := charmLog.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if c.Grid.MinColumnWidth < 1 {
		return fmt.Errorf("grid.min_column_width must be >= 1")
	}
	for name, cols := range map[string][]ColumnConfig{
		"task_columns":  c.Grid.TaskColumns,
		"issue_columns": c.Grid.IssueColumns,
	} {
		seen := map[string]struct{}{}
		for idx, col := range cols {
			key := strings.TrimSpace(col.Key)
			if key == "" {
				return fmt.Errorf("grid.%s[%d].key is required", name, idx)
			}
			if col.Width < 0 {
				return fmt.Errorf("grid.%s[%d].width must be >= 0", name, idx)
			}
			if _, ok := seen[key]; ok {
				return fmt.Errorf("grid.%s[%d].key is duplicated: %s", name, idx, key)
			}
			seen[key] = struct{}{}
		}
	}

	if c.Timeline.DefaultZoom <= 0 {
		return fmt.Errorf("timeline.default_zoom must be > 0")
	}
	if c.Timeline.ZoomInFactor <= 1 {
		return fmt.Errorf("timeline.zoom_in_factor must be > 1")
	}
	if c.Timeline.ZoomOutFactor <= 0 || c.Timeline.ZoomOutFactor >= 1 {
		return fmt.Errorf("timeline.zoom_out_factor must be in (0, 1)")
	}

	if strings.TrimSpace(c.Server.HTTPBind) == "" {
		return errors.New("server.http_bind is required")
	}
	for name, endpoint := range map[string]string{
		"api_endpoint": c.Server.APIEndpoint,
		"mcp_endpoint": c.Server.MCPEndpoint,
	} {
		if !strings.HasPrefix(strings.TrimSpace(endpoint), "/") {
			return fmt.Errorf("server.%s must start with /: %q", name, endpoint)
		}
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
