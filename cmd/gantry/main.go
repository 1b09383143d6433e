package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/evanschultz/gantry/internal/adapters/storage/sqlite"
	"github.com/evanschultz/gantry/internal/app"
	"github.com/evanschultz/gantry/internal/config"
	"github.com/evanschultz/gantry/internal/platform"
)

var version = "dev"

// program is the slice of *tea.Program the TUI command drives.
type program interface {
	Run() (tea.Model, error)
}

var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(ctx, root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// run executes one command line without fang's styled output.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	opts := &globalOptions{appName: "gantry", devMode: version == "dev"}
	if envApp := strings.TrimSpace(os.Getenv("GANTRY_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}
	if envDev, ok := parseBoolEnv("GANTRY_DEV_MODE"); ok {
		opts.devMode = envDev
	}

	var projectID string
	root := &cobra.Command{
		Use:           "gantry",
		Short:         "Project board with data grids and a timeline",
		Long:          "gantry opens a terminal board for projects, tasks and issues. Subcommands seed demo data, print timelines, manage grid layouts and serve the REST and MCP APIs.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(opts, projectID, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.Flags().StringVar(&projectID, "project", "", "project id to open first")

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCommand(opts),
		newSeedCommand(opts, stderr),
		newTimelineCommand(opts, stderr),
		newLayoutCommand(opts, stderr),
		newServeCommand(opts, stderr),
	)
	return root
}

// runtimeEnv is the resolved state one command runs against.
type runtimeEnv struct {
	appName string
	cfg     config.Config
	logger  *runtimeLogger
	repo    *sqlite.Repository
	svc     *app.Service
}

// openRuntime resolves paths and config, starts logging and opens the store.
// quietConsole routes runtime logs to the dev file only.
func openRuntime(opts *globalOptions, stderr io.Writer, command string, quietConsole bool) (*runtimeEnv, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("GANTRY_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(opts.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("GANTRY_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if quietConsole {
		logger.SetConsoleEnabled(false)
	}
	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	if err := config.EnsureConfigDir(cfg.Database.Path); err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	logger.Debug("sqlite repository ready", "db_path", cfg.Database.Path)

	svc := app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{
		Logger:         logger.Component("grid"),
		MinColumnWidth: cfg.Grid.MinColumnWidth,
		TaskColumns:    columnOverrides(cfg.Grid.TaskColumns),
		IssueColumns:   columnOverrides(cfg.Grid.IssueColumns),
		DefaultZoom:    cfg.Timeline.DefaultZoom,
	})

	return &runtimeEnv{
		appName: opts.appName,
		cfg:     cfg,
		logger:  logger,
		repo:    repo,
		svc:     svc,
	}, nil
}

// Close releases the store and the log file. Close errors surface on the console only when it is live.
func (e *runtimeEnv) Close(stderr io.Writer) {
	if e == nil {
		return
	}
	if err := e.repo.Close(); err != nil {
		e.logger.Warn("sqlite close failed", "db_path", e.cfg.Database.Path, "err", err)
	}
	if err := e.logger.Close(); err != nil && e.logger.shouldLogToSink(e.logger.consoleSink) {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

func columnOverrides(cols []config.ColumnConfig) []app.ColumnOverride {
	if len(cols) == 0 {
		return nil
	}
	out := make([]app.ColumnOverride, 0, len(cols))
	for _, c := range cols {
		out = append(out, app.ColumnOverride{Key: c.Key, Label: c.Label, Width: c.Width})
	}
	return out
}

// parseBoolEnv parses one boolean environment variable. ok is false when unset or invalid.
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
