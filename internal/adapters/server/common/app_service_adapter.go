package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanschultz/gantry/internal/app"
	"github.com/evanschultz/gantry/internal/domain"
	"github.com/evanschultz/gantry/internal/grid"
	"github.com/evanschultz/gantry/internal/timeline"
)

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// ListProjects lists projects, restricted to one member's view when MemberID is set.
func (a *AppServiceAdapter) ListProjects(ctx context.Context, in ListProjectsRequest) ([]Project, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	var (
		projects []domain.Project
		err      error
	)
	if memberID := strings.TrimSpace(in.MemberID); memberID != "" {
		projects, err = a.service.VisibleProjects(ctx, memberID)
	} else {
		projects, err = a.service.ListProjects(ctx, in.IncludeArchived)
	}
	if err != nil {
		return nil, mapAppError("list projects", err)
	}
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, convertProject(p))
	}
	return out, nil
}

// ArchiveProject hides one project from default listings.
func (a *AppServiceAdapter) ArchiveProject(ctx context.Context, projectID string) (Project, error) {
	if err := a.ready(); err != nil {
		return Project{}, err
	}
	if strings.TrimSpace(projectID) == "" {
		return Project{}, fmt.Errorf("project_id is required: %w", ErrInvalidRequest)
	}
	project, err := a.service.ArchiveProject(ctx, projectID)
	if err != nil {
		return Project{}, mapAppError("archive project", err)
	}
	return convertProject(project), nil
}

// DeleteTask removes one task row.
func (a *AppServiceAdapter) DeleteTask(ctx context.Context, taskID string) error {
	if err := a.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(taskID) == "" {
		return fmt.Errorf("task_id is required: %w", ErrInvalidRequest)
	}
	return mapAppError("delete task", a.service.DeleteTask(ctx, taskID))
}

// ListTasks lists one project's tasks through the task grid filter engine.
func (a *AppServiceAdapter) ListTasks(ctx context.Context, in ListRecordsRequest) ([]Task, error) {
	members, err := a.prepareList(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	schema := app.TaskGridSchema(members)
	if err := checkFilterKeys(in.Filters, schema.Has); err != nil {
		return nil, err
	}
	tasks, err := a.service.ListTasks(ctx, in.ProjectID)
	if err != nil {
		return nil, mapAppError("list tasks", err)
	}
	return convertTasks(grid.Apply(schema, tasks, in.Filters), members), nil
}

// ListIssues lists one project's issues through the issue grid filter engine.
func (a *AppServiceAdapter) ListIssues(ctx context.Context, in ListRecordsRequest) ([]Issue, error) {
	members, err := a.prepareList(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	schema := app.IssueGridSchema(members)
	if err := checkFilterKeys(in.Filters, schema.Has); err != nil {
		return nil, err
	}
	issues, err := a.service.ListIssues(ctx, in.ProjectID)
	if err != nil {
		return nil, mapAppError("list issues", err)
	}
	filtered := grid.Apply(schema, issues, in.Filters)
	out := make([]Issue, 0, len(filtered))
	for _, issue := range filtered {
		out = append(out, convertIssue(issue, members))
	}
	return out, nil
}

// BulkUpdateTasks applies one field update set to every listed task.
func (a *AppServiceAdapter) BulkUpdateTasks(ctx context.Context, in BulkUpdateRequest) ([]Task, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if len(in.IDs) == 0 || len(in.Updates) == 0 {
		return nil, fmt.Errorf("bulk update tasks: ids and updates are required: %w", ErrInvalidRequest)
	}
	tasks, err := a.service.BulkUpdateTasks(ctx, in.IDs, in.Updates)
	if err != nil {
		return nil, mapAppError("bulk update tasks", err)
	}
	members, err := a.members(ctx)
	if err != nil {
		return nil, err
	}
	return convertTasks(tasks, members), nil
}

// BulkUpdateIssues applies one field update set to every listed issue.
func (a *AppServiceAdapter) BulkUpdateIssues(ctx context.Context, in BulkUpdateRequest) ([]Issue, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if len(in.IDs) == 0 || len(in.Updates) == 0 {
		return nil, fmt.Errorf("bulk update issues: ids and updates are required: %w", ErrInvalidRequest)
	}
	issues, err := a.service.BulkUpdateIssues(ctx, in.IDs, in.Updates)
	if err != nil {
		return nil, mapAppError("bulk update issues", err)
	}
	members, err := a.members(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, convertIssue(issue, members))
	}
	return out, nil
}

// Timeline lays out one project's tasks as a Gantt chart.
func (a *AppServiceAdapter) Timeline(ctx context.Context, in TimelineRequest) (Timeline, error) {
	if err := a.ready(); err != nil {
		return Timeline{}, err
	}
	if in.PixelsPerDay < 0 {
		return Timeline{}, fmt.Errorf("timeline: zoom must be positive: %w", ErrInvalidRequest)
	}
	projectID := strings.TrimSpace(in.ProjectID)
	if _, err := a.service.GetProject(ctx, projectID); err != nil {
		return Timeline{}, mapAppError("timeline", err)
	}
	chart, err := a.service.TaskTimeline(ctx, projectID, in.PixelsPerDay)
	if err != nil {
		return Timeline{}, mapAppError("timeline", err)
	}
	return convertChart(projectID, chart), nil
}

// GetLayout returns the effective layout of one grid.
func (a *AppServiceAdapter) GetLayout(ctx context.Context, gridID string) (grid.Layout, error) {
	if err := a.ready(); err != nil {
		return grid.Layout{}, err
	}
	layout, err := a.service.EffectiveGridLayout(ctx, gridID)
	if err != nil {
		return grid.Layout{}, mapAppError("get layout", err)
	}
	return layout, nil
}

// SaveLayout replaces one grid's persisted layout.
func (a *AppServiceAdapter) SaveLayout(ctx context.Context, gridID string, layout grid.Layout) error {
	if err := a.ready(); err != nil {
		return err
	}
	if err := checkGridID(gridID); err != nil {
		return err
	}
	for key, width := range layout.Widths {
		if width <= 0 {
			return fmt.Errorf("save layout: width for %q must be positive: %w", key, ErrInvalidRequest)
		}
	}
	return mapAppError("save layout", a.service.SaveGridLayout(ctx, gridID, layout))
}

// ResetLayout discards one grid's persisted layout.
func (a *AppServiceAdapter) ResetLayout(ctx context.Context, gridID string) error {
	if err := a.ready(); err != nil {
		return err
	}
	if err := checkGridID(gridID); err != nil {
		return err
	}
	return mapAppError("reset layout", a.service.ResetGridLayout(ctx, gridID))
}

// ready reports a misconfigured adapter.
func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	return nil
}

// prepareList checks the project exists and loads the member directory.
func (a *AppServiceAdapter) prepareList(ctx context.Context, projectID string) (map[string]domain.Member, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("project_id is required: %w", ErrInvalidRequest)
	}
	if _, err := a.service.GetProject(ctx, projectID); err != nil {
		return nil, mapAppError("get project", err)
	}
	return a.members(ctx)
}

// members loads the member directory keyed by id.
func (a *AppServiceAdapter) members(ctx context.Context) (map[string]domain.Member, error) {
	list, err := a.service.ListMembers(ctx)
	if err != nil {
		return nil, mapAppError("list members", err)
	}
	out := make(map[string]domain.Member, len(list))
	for _, m := range list {
		out[m.ID] = m
	}
	return out, nil
}

// checkFilterKeys rejects filters on columns the grid does not have.
func checkFilterKeys(filters grid.FilterMap, known func(string) bool) error {
	for key := range filters {
		if !known(key) {
			return fmt.Errorf("unknown filter column %q: %w", key, ErrInvalidRequest)
		}
	}
	return nil
}

// checkGridID rejects grid ids outside the task and issue grids.
func checkGridID(gridID string) error {
	switch strings.TrimSpace(gridID) {
	case app.TaskGridID, app.IssueGridID:
		return nil
	default:
		return fmt.Errorf("grid %q: %w", gridID, ErrNotFound)
	}
}

// mapAppError maps app and domain errors onto transport error classes.
func mapAppError(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case app.IsValidationError(err):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

// convertProject maps one domain project to its transport shape.
func convertProject(p domain.Project) Project {
	return Project{
		ID:          p.ID,
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		MemberIDs:   append([]string(nil), p.MemberIDs...),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		ArchivedAt:  p.ArchivedAt,
	}
}

// convertTasks maps domain tasks to transport rows with resolved assignee names.
func convertTasks(tasks []domain.Task, members map[string]domain.Member) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Task{
			ID:          t.ID,
			ProjectID:   t.ProjectID,
			Type:        string(t.Type),
			Title:       t.Title,
			Description: t.Description,
			Status:      string(t.Status),
			Priority:    string(t.Priority),
			AssigneeID:  t.AssigneeID,
			Assignee:    displayName(members, t.AssigneeID),
			Start:       domain.FormatDate(t.StartAt),
			Due:         domain.FormatDate(t.DueAt),
			UpdatedAt:   t.UpdatedAt,
		})
	}
	return out
}

// convertIssue maps one domain issue to its transport row.
func convertIssue(i domain.Issue, members map[string]domain.Member) Issue {
	return Issue{
		ID:          i.ID,
		ProjectID:   i.ProjectID,
		Title:       i.Title,
		Description: i.Description,
		Status:      string(i.Status),
		Priority:    string(i.Priority),
		Severity:    string(i.Severity),
		ReporterID:  i.ReporterID,
		Reporter:    displayName(members, i.ReporterID),
		AssigneeID:  i.AssigneeID,
		Assignee:    displayName(members, i.AssigneeID),
		Reported:    i.ReportedAt.UTC().Format(domain.DateLayout),
		UpdatedAt:   i.UpdatedAt,
	}
}

// convertChart maps computed chart geometry to its transport shape.
func convertChart(projectID string, chart timeline.Chart) Timeline {
	out := Timeline{
		ProjectID:    projectID,
		Granularity:  chart.Granularity.String(),
		PixelsPerDay: chart.PixelsPerDay,
		Start:        chart.Start.Format(domain.DateLayout),
		End:          chart.End.Format(domain.DateLayout),
		Width:        chart.Width,
		Columns:      make([]TimelineColumn, 0, len(chart.Columns)),
		Bars:         make([]TimelineBar, 0, len(chart.Bars)),
	}
	for _, col := range chart.Columns {
		out.Columns = append(out.Columns, TimelineColumn{
			Start: col.Start.Format(domain.DateLayout),
			Days:  col.Days,
			X:     col.X,
			Width: col.Width,
			Label: col.Label,
		})
	}
	for _, bar := range chart.Bars {
		out.Bars = append(out.Bars, TimelineBar{
			ID:    bar.ID,
			Label: bar.Label,
			Kind:  string(bar.Kind),
			Row:   bar.Row,
			X:     bar.X,
			Width: bar.Width,
			Start: bar.Start.Format(domain.DateLayout),
			Due:   bar.Due.Format(domain.DateLayout),
		})
	}
	return out
}

// displayName resolves a member id to its name. Unknown ids are returned as-is.
func displayName(members map[string]domain.Member, id string) string {
	if id == "" {
		return ""
	}
	if m, ok := members[id]; ok {
		return m.Name
	}
	return id
}
