package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"gopkg.in/yaml.v3"

	serveradapter "github.com/evanschultz/gantry/internal/adapters/server"
	"github.com/evanschultz/gantry/internal/adapters/server/common"
	"github.com/evanschultz/gantry/internal/config"
	"github.com/evanschultz/gantry/internal/grid"
	"github.com/evanschultz/gantry/internal/tui"
)

// TestMain keeps command tests on production paths without dev-file logging.
func TestMain(m *testing.M) {
	_ = os.Setenv("GANTRY_DEV_MODE", "false")
	os.Exit(m.Run())
}

// fakeProgram records the model it was built with and returns runErr.
type fakeProgram struct {
	model  tea.Model
	runErr error
}

// Run implements program.
func (p *fakeProgram) Run() (tea.Model, error) {
	return p.model, p.runErr
}

// isolate points every path lookup and the database at fresh temp dirs.
func isolate(t *testing.T) []string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	t.Setenv("GANTRY_CONFIG", "")
	t.Setenv("GANTRY_DB_PATH", "")
	return []string{
		"--config", filepath.Join(base, "missing.toml"),
		"--db", filepath.Join(base, "db", "gantry.db"),
	}
}

// runOK runs one command line and fails the test on error.
func runOK(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run %v: %v\nstderr:\n%s", args, err, stderr.String())
	}
	return stdout.String()
}

// TestRunPathsCommand verifies path resolution output.
func TestRunPathsCommand(t *testing.T) {
	isolate(t)
	out := runOK(t, "--app", "gantry-test", "paths")
	for _, want := range []string{"app: gantry-test", "dev_mode: false", "config: ", "db: ", "log_dir: "} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in paths output\n%s", want, out)
		}
	}
	if !strings.Contains(out, "gantry-test") {
		t.Fatalf("expected app-specific paths, got\n%s", out)
	}
}

// TestRunDevFlagSwitchesPaths verifies --dev resolves <app>-dev paths.
func TestRunDevFlagSwitchesPaths(t *testing.T) {
	isolate(t)
	out := runOK(t, "--dev", "paths")
	if !strings.Contains(out, "dev_mode: true") || !strings.Contains(out, "gantry-dev") {
		t.Fatalf("expected dev paths, got\n%s", out)
	}
}

// TestRunSeedIsIdempotent verifies seeding only fills an empty database.
func TestRunSeedIsIdempotent(t *testing.T) {
	flags := isolate(t)
	first := runOK(t, append(flags, "seed")...)
	if !strings.Contains(first, "seeded project Website Redesign") {
		t.Fatalf("unexpected first seed output %q", first)
	}
	second := runOK(t, append(flags, "seed")...)
	if !strings.Contains(second, "already has projects") || !strings.Contains(second, "Website Redesign") {
		t.Fatalf("unexpected second seed output %q", second)
	}
}

// TestRunTimelineFormats verifies table, JSON and YAML timeline output.
func TestRunTimelineFormats(t *testing.T) {
	flags := isolate(t)
	runOK(t, append(flags, "seed")...)

	table := runOK(t, append(flags, "timeline")...)
	for _, want := range []string{"daily", "40 px/day", "Design Mockups", "Launch", "milestone"} {
		if !strings.Contains(table, want) {
			t.Fatalf("expected %q in timeline table\n%s", want, table)
		}
	}
	if strings.Contains(table, "Analytics Plan") {
		t.Fatalf("undated task must not get a bar\n%s", table)
	}

	var chart common.Timeline
	if err := json.Unmarshal([]byte(runOK(t, append(flags, "timeline", "--format", "json")...)), &chart); err != nil {
		t.Fatalf("decode timeline json: %v", err)
	}
	if chart.Granularity != "daily" || chart.PixelsPerDay != 40 {
		t.Fatalf("unexpected chart header %+v", chart)
	}
	if len(chart.Bars) != 6 {
		t.Fatalf("expected 6 bars, got %d", len(chart.Bars))
	}

	var monthly common.Timeline
	if err := yaml.Unmarshal([]byte(runOK(t, append(flags, "timeline", "--zoom", "10", "-o", "yaml")...)), &monthly); err != nil {
		t.Fatalf("decode timeline yaml: %v", err)
	}
	if monthly.Granularity != "monthly" || monthly.PixelsPerDay != 10 {
		t.Fatalf("unexpected monthly chart %+v", monthly)
	}
	if monthly.ProjectID != chart.ProjectID {
		t.Fatalf("expected default project %q, got %q", chart.ProjectID, monthly.ProjectID)
	}
}

// TestRunTimelineErrors verifies argument and data errors.
func TestRunTimelineErrors(t *testing.T) {
	flags := isolate(t)
	var out bytes.Buffer
	if err := run(context.Background(), append(flags, "timeline"), &out, &out); err == nil || !strings.Contains(err.Error(), "no projects") {
		t.Fatalf("expected no projects error, got %v", err)
	}
	if err := run(context.Background(), append(flags, "timeline", "-o", "xml"), &out, &out); err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected format error, got %v", err)
	}
	runOK(t, append(flags, "seed")...)
	if err := run(context.Background(), append(flags, "timeline", "--project", "missing"), &out, &out); err == nil {
		t.Fatal("expected unknown project error")
	}
}

// TestRunLayoutShowAndReset verifies layout inspection and reset.
func TestRunLayoutShowAndReset(t *testing.T) {
	flags := isolate(t)

	var layout grid.Layout
	if err := json.Unmarshal([]byte(runOK(t, append(flags, "layout", "show", "tasks", "-o", "json")...)), &layout); err != nil {
		t.Fatalf("decode layout json: %v", err)
	}
	if len(layout.Order) != 7 || layout.Order[0] != "title" || layout.Widths["title"] != 240 {
		t.Fatalf("unexpected default task layout %+v", layout)
	}

	table := runOK(t, append(flags, "layout", "show", "issues")...)
	if !strings.Contains(table, "COLUMN") || !strings.Contains(table, "260") {
		t.Fatalf("unexpected issue layout table\n%s", table)
	}

	if out := runOK(t, append(flags, "layout", "reset", "tasks")...); !strings.Contains(out, "layout tasks reset") {
		t.Fatalf("unexpected reset output %q", out)
	}

	var buf bytes.Buffer
	if err := run(context.Background(), append(flags, "layout", "show", "boards"), &buf, &buf); err == nil {
		t.Fatal("expected unknown grid error")
	}
	if err := run(context.Background(), append(flags, "layout", "reset"), &buf, &buf); err == nil {
		t.Fatal("expected missing argument error")
	}
}

// TestRunConfigColumnOverrides verifies configured column defaults reach the grids.
func TestRunConfigColumnOverrides(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	dbPath := filepath.Join(dir, "gantry.db")
	content := "[database]\npath = \"" + dbPath + "\"\n\n[[grid.task_columns]]\nkey = \"title\"\nlabel = \"Name\"\nwidth = 300\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var layout grid.Layout
	if err := yaml.Unmarshal([]byte(runOK(t, "--config", cfgPath, "layout", "show", "tasks", "-o", "yaml")), &layout); err != nil {
		t.Fatalf("decode layout yaml: %v", err)
	}
	if layout.Widths["title"] != 300 {
		t.Fatalf("expected configured title width 300, got %+v", layout.Widths)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database at configured path: %v", err)
	}
}

// TestRunServeUsesConfigAndFlags verifies serve wiring without binding a socket.
func TestRunServeUsesConfigAndFlags(t *testing.T) {
	flags := isolate(t)
	orig := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = orig })

	var (
		gotCfg  serveradapter.Config
		gotDeps serveradapter.Dependencies
	)
	serveCommandRunner = func(_ context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
		gotCfg = cfg
		gotDeps = deps
		return nil
	}

	runOK(t, append(flags, "serve", "--http", "127.0.0.1:9999")...)
	if gotCfg.HTTPBind != "127.0.0.1:9999" {
		t.Fatalf("expected bind override, got %q", gotCfg.HTTPBind)
	}
	if gotCfg.APIEndpoint != "/api/v1" || gotCfg.MCPEndpoint != "/mcp" {
		t.Fatalf("expected configured endpoints, got %+v", gotCfg)
	}
	if gotCfg.ServerName != "gantry" || gotCfg.ServerVersion != version {
		t.Fatalf("unexpected server identity %+v", gotCfg)
	}
	if gotDeps.Service == nil || gotDeps.Logger == nil {
		t.Fatalf("expected service and logger dependencies, got %+v", gotDeps)
	}
}

// TestRunServePropagatesErrors verifies serve failures are wrapped.
func TestRunServePropagatesErrors(t *testing.T) {
	flags := isolate(t)
	orig := serveCommandRunner
	t.Cleanup(func() { serveCommandRunner = orig })
	serveCommandRunner = func(context.Context, serveradapter.Config, serveradapter.Dependencies) error {
		return errors.New("address in use")
	}

	var out bytes.Buffer
	err := run(context.Background(), append(flags, "serve"), &out, &out)
	if err == nil || !strings.Contains(err.Error(), "run serve command: address in use") {
		t.Fatalf("expected wrapped serve error, got %v", err)
	}
}

// TestRunTUIUsesProgramFactory verifies the default command builds the board model.
func TestRunTUIUsesProgramFactory(t *testing.T) {
	flags := isolate(t)
	orig := programFactory
	t.Cleanup(func() { programFactory = orig })

	var built tea.Model
	programFactory = func(m tea.Model) program {
		built = m
		return &fakeProgram{model: m}
	}

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), flags, &stdout, &stderr); err != nil {
		t.Fatalf("run tui: %v", err)
	}
	if _, ok := built.(tui.Model); !ok {
		t.Fatalf("expected tui.Model, got %T", built)
	}
	if stderr.Len() != 0 {
		t.Fatalf("expected muted console while the board runs, got %q", stderr.String())
	}

	if err := run(context.Background(), append(flags, "--project", "p-missing"), &stdout, &stderr); err != nil {
		t.Fatalf("run tui with --project: %v", err)
	}

	programFactory = func(m tea.Model) program {
		return &fakeProgram{model: m, runErr: errors.New("no tty")}
	}
	err := run(context.Background(), flags, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "run tui program: no tty") {
		t.Fatalf("expected wrapped program error, got %v", err)
	}
}

// TestRunRejectsUnknownCommand verifies cobra argument validation.
func TestRunRejectsUnknownCommand(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	if err := run(context.Background(), []string{"bogus"}, &out, &out); err == nil {
		t.Fatal("expected unknown command error")
	}
}

// TestRunVersionFlag verifies the version flag output.
func TestRunVersionFlag(t *testing.T) {
	isolate(t)
	if out := runOK(t, "--version"); !strings.Contains(out, version) {
		t.Fatalf("expected version in output, got %q", out)
	}
}

// TestRuntimeLoggerDevFileSink verifies dev-mode file logging and component sinks.
func TestRuntimeLoggerDevFileSink(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	now := func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	logger, err := newRuntimeLogger(&console, "gantry test", true, config.LoggingConfig{
		Level:   "debug",
		DevFile: config.DevFileConfig{Enabled: true, Dir: dir},
	}, now)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	want := filepath.Join(dir, "gantry-test-20260310.log")
	if logger.DevLogPath() != want {
		t.Fatalf("unexpected dev log path %q, want %q", logger.DevLogPath(), want)
	}

	logger.Info("visible", "k", "v")
	logger.SetConsoleEnabled(false)
	logger.Warn("file only")
	logger.Component("grid").Info("from component")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !strings.Contains(console.String(), "visible") || strings.Contains(console.String(), "file only") {
		t.Fatalf("unexpected console output %q", console.String())
	}
	if strings.Contains(console.String(), "from component") {
		t.Fatalf("component logger wrote to muted console %q", console.String())
	}
	content, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read dev log: %v", err)
	}
	for _, line := range []string{"visible", "file only", "from component", "gantry test/grid"} {
		if !strings.Contains(string(content), line) {
			t.Fatalf("expected %q in dev log\n%s", line, content)
		}
	}
}

// TestRuntimeLoggerEdgeCases verifies level parsing and sinkless behavior.
func TestRuntimeLoggerEdgeCases(t *testing.T) {
	if _, err := newRuntimeLogger(nil, "gantry", false, config.LoggingConfig{Level: "loud"}, nil); err == nil {
		t.Fatal("expected invalid level error")
	}

	logger, err := newRuntimeLogger(nil, "gantry", false, config.LoggingConfig{Level: "info", DevFile: config.DevFileConfig{Enabled: true}}, nil)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}
	if logger.DevLogPath() != "" {
		t.Fatalf("expected no dev file outside dev mode, got %q", logger.DevLogPath())
	}
	logger.SetConsoleEnabled(false)
	if logger.Component("tui") == nil {
		t.Fatal("expected discarding component logger")
	}

	var nilLogger *runtimeLogger
	nilLogger.Info("ignored")
	if nilLogger.Close() != nil || nilLogger.DevLogPath() != "" {
		t.Fatal("expected nil logger to be inert")
	}
}

// TestSanitizeLogFileStem verifies app names become safe file stems.
func TestSanitizeLogFileStem(t *testing.T) {
	cases := map[string]string{
		"gantry":        "gantry",
		" my app ":      "my-app",
		"team/board:v2": "team-board-v2",
		"///":           "gantry",
		"":              "gantry",
	}
	for in, want := range cases {
		if got := sanitizeLogFileStem(in); got != want {
			t.Fatalf("sanitizeLogFileStem(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestWorkspaceRootFrom verifies marker discovery walks up to go.mod.
func TestWorkspaceRootFrom(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatalf("write go.mod: %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if got := workspaceRootFrom(nested); got != root {
		t.Fatalf("workspaceRootFrom() = %q, want %q", got, root)
	}
	if got := workspaceRootFrom(""); got != "." {
		t.Fatalf("workspaceRootFrom(\"\") = %q, want \".\"", got)
	}
}

// TestParseBoolEnv verifies boolean env parsing.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("GANTRY_TEST_BOOL", "true")
	if v, ok := parseBoolEnv("GANTRY_TEST_BOOL"); !ok || !v {
		t.Fatalf("expected true, got %t %t", v, ok)
	}
	t.Setenv("GANTRY_TEST_BOOL", "nope")
	if _, ok := parseBoolEnv("GANTRY_TEST_BOOL"); ok {
		t.Fatal("expected invalid value to be ignored")
	}
	t.Setenv("GANTRY_TEST_BOOL", "")
	if _, ok := parseBoolEnv("GANTRY_TEST_BOOL"); ok {
		t.Fatal("expected unset value to be ignored")
	}
}
