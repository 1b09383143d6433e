package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	serveradapter "github.com/evanschultz/gantry/internal/adapters/server"
	"github.com/evanschultz/gantry/internal/adapters/server/common"
	"github.com/evanschultz/gantry/internal/app"
	"github.com/evanschultz/gantry/internal/platform"
	"github.com/evanschultz/gantry/internal/tui"
)

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func runTUI(opts *globalOptions, projectID string, stderr io.Writer) error {
	env, err := openRuntime(opts, stderr, "tui", true)
	if err != nil {
		return err
	}
	defer env.Close(stderr)

	keys := env.cfg.Keys
	model := tui.NewModel(env.svc,
		tui.WithLogger(env.logger.Component("tui")),
		tui.WithProject(projectID),
		tui.WithZoom(env.cfg.Timeline.DefaultZoom, env.cfg.Timeline.ZoomInFactor, env.cfg.Timeline.ZoomOutFactor),
		tui.WithKeyConfig(tui.KeyConfig{
			Filter:     keys.Filter,
			BulkUpdate: keys.BulkUpdate,
			CopyIDs:    keys.CopyIDs,
			ZoomIn:     keys.ZoomIn,
			ZoomOut:    keys.ZoomOut,
		}),
	)
	env.logger.Info("command flow start", "command", "tui")
	if _, err := programFactory(model).Run(); err != nil {
		env.logger.Error("tui program failed", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	env.logger.Info("command flow complete", "command", "tui")
	return nil
}

func newPathsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and database paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{
				AppName: opts.appName,
				DevMode: opts.devMode,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

func newSeedCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo workspace when the database is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openRuntime(opts, stderr, "seed", false)
			if err != nil {
				return err
			}
			defer env.Close(stderr)

			project, created, err := env.svc.SeedDemo(cmd.Context())
			if err != nil {
				return fmt.Errorf("seed demo data: %w", err)
			}
			if !created {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "database already has projects; first is %s (%s)\n", project.Name, project.ID)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded project %s (%s)\n", project.Name, project.ID)
			return nil
		},
	}
}

func newTimelineCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var (
		projectID string
		zoom      float64
		format    string
	)
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Print the task timeline geometry for one project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			env, err := openRuntime(opts, stderr, "timeline", false)
			if err != nil {
				return err
			}
			defer env.Close(stderr)

			adapter := common.NewAppServiceAdapter(env.svc)
			if strings.TrimSpace(projectID) == "" {
				projects, err := adapter.ListProjects(cmd.Context(), common.ListProjectsRequest{})
				if err != nil {
					return err
				}
				if len(projects) == 0 {
					return fmt.Errorf("no projects; run %q first", "gantry seed")
				}
				projectID = projects[0].ID
			}
			chart, err := adapter.Timeline(cmd.Context(), common.TimelineRequest{ProjectID: projectID, PixelsPerDay: zoom})
			if err != nil {
				return err
			}
			return writeTimeline(cmd.OutOrStdout(), chart, format)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id (defaults to the first project)")
	cmd.Flags().Float64Var(&zoom, "zoom", 0, "pixels per day (defaults to timeline.default_zoom)")
	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table, json or yaml")
	return cmd
}

func newLayoutCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Inspect or reset persisted grid layouts",
	}

	var format string
	show := &cobra.Command{
		Use:       "show <tasks|issues>",
		Short:     "Print the effective layout of one grid",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{app.TaskGridID, app.IssueGridID},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			env, err := openRuntime(opts, stderr, "layout show", false)
			if err != nil {
				return err
			}
			defer env.Close(stderr)

			layout, err := common.NewAppServiceAdapter(env.svc).GetLayout(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				return writeJSON(out, layout)
			case formatYAML:
				return writeYAML(out, layout)
			}
			rows := make([][]string, 0, len(layout.Order))
			for idx, key := range layout.Order {
				rows = append(rows, []string{strconv.Itoa(idx + 1), key, strconv.Itoa(layout.Widths[key]), layout.Filters[key]})
			}
			_, _ = fmt.Fprintln(out, renderTable([]string{"#", "COLUMN", "WIDTH", "FILTER"}, rows))
			return nil
		},
	}
	show.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table, json or yaml")

	reset := &cobra.Command{
		Use:       "reset <tasks|issues>",
		Short:     "Drop the persisted layout of one grid",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{app.TaskGridID, app.IssueGridID},
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openRuntime(opts, stderr, "layout reset", false)
			if err != nil {
				return err
			}
			defer env.Close(stderr)

			if err := common.NewAppServiceAdapter(env.svc).ResetLayout(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "layout %s reset\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(show, reset)
	return cmd
}

func newServeCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var bind, apiEndpoint, mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and MCP tools over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openRuntime(opts, stderr, "serve", false)
			if err != nil {
				return err
			}
			defer env.Close(stderr)

			cfg := serveradapter.Config{
				HTTPBind:      firstNonEmpty(bind, env.cfg.Server.HTTPBind),
				APIEndpoint:   firstNonEmpty(apiEndpoint, env.cfg.Server.APIEndpoint),
				MCPEndpoint:   firstNonEmpty(mcpEndpoint, env.cfg.Server.MCPEndpoint),
				ServerName:    env.appName,
				ServerVersion: version,
			}
			env.logger.Info("command flow start", "command", "serve", "bind", cfg.HTTPBind)
			if err := serveCommandRunner(cmd.Context(), cfg, serveradapter.Dependencies{
				Service: common.NewAppServiceAdapter(env.svc),
				Logger:  env.logger.Component("http"),
			}); err != nil {
				env.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			env.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "http", "", "listen address (defaults to server.http_bind)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "REST base path (defaults to server.api_endpoint)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP endpoint path (defaults to server.mcp_endpoint)")
	return cmd
}

func writeTimeline(out io.Writer, chart common.Timeline, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(out, chart)
	case formatYAML:
		return writeYAML(out, chart)
	}
	_, _ = fmt.Fprintf(out, "project %s • %s • %g px/day • %s to %s\n",
		chart.ProjectID, chart.Granularity, chart.PixelsPerDay, chart.Start, chart.End)
	rows := make([][]string, 0, len(chart.Bars))
	for _, bar := range chart.Bars {
		rows = append(rows, []string{
			strconv.Itoa(bar.Row),
			bar.Label,
			bar.Kind,
			orDash(bar.Start),
			orDash(bar.Due),
			strconv.FormatFloat(bar.X, 'f', 1, 64),
			strconv.FormatFloat(bar.Width, 'f', 1, 64),
		})
	}
	_, _ = fmt.Fprintln(out, renderTable([]string{"ROW", "TASK", "KIND", "START", "DUE", "X", "WIDTH"}, rows))
	return nil
}

// renderTable draws rows with a rounded border and a bold header.
func renderTable(headers []string, rows [][]string) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		String()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unsupported format %q (want table, json or yaml)", format)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
