package app

import (
	"context"
	"strings"

	"github.com/evanschultz/gantry/internal/domain"
	"github.com/evanschultz/gantry/internal/grid"
)

// Grid layout keys.
const (
	TaskGridID  = "tasks"
	IssueGridID = "issues"
)

// ColumnOverride replaces the label or width of one default column. Zero fields keep the default.
type ColumnOverride struct {
	Key   string
	Label string
	Width int
}

// TaskGridSchema registers the task grid columns. members resolves assignee names and may be nil.
func TaskGridSchema(members map[string]domain.Member) *grid.Schema[domain.Task] {
	return grid.NewSchema(
		func(t domain.Task) string { return t.ID },
		grid.Field[domain.Task]{
			Column: grid.Column{Key: "title", Label: "Title", Width: 240, FilterKind: grid.FilterText},
			Value:  func(t domain.Task) string { return t.Title },
		},
		grid.Field[domain.Task]{
			Column: grid.Column{Key: "type", Label: "Type", Width: 100, FilterKind: grid.FilterEnum},
			Value:  func(t domain.Task) string { return string(t.Type) },
		},
		grid.Field[domain.Task]{
			Column: grid.Column{Key: "status", Label: "Status", Width: 120, FilterKind: grid.FilterEnum},
			Value:  func(t domain.Task) string { return string(t.Status) },
		},
		grid.Field[domain.Task]{
			Column: grid.Column{Key: "priority", Label: "Priority", Width: 100, FilterKind: grid.FilterEnum},
			Value:  func(t domain.Task) string { return string(t.Priority) },
		},
		grid.Field[domain.Task]{
			Column: grid.Column{Key: "assignee", Label: "Assignee", Width: 140, FilterKind: grid.FilterEnum},
			Value:  func(t domain.Task) string { return memberName(members, t.AssigneeID) },
		},
		grid.Field[domain.Task]{
			Column: grid.Column{Key: "start", Label: "Start", Width: 110, FilterKind: grid.FilterDate},
			Value:  func(t domain.Task) string { return domain.FormatDate(t.StartAt) },
		},
		grid.Field[domain.Task]{
			Column: grid.Column{Key: "due", Label: "Due", Width: 110, FilterKind: grid.FilterDate},
			Value:  func(t domain.Task) string { return domain.FormatDate(t.DueAt) },
		},
	)
}

// IssueGridSchema registers the issue log columns. members resolves reporter and assignee names.
func IssueGridSchema(members map[string]domain.Member) *grid.Schema[domain.Issue] {
	return grid.NewSchema(
		func(i domain.Issue) string { return i.ID },
		grid.Field[domain.Issue]{
			Column: grid.Column{Key: "title", Label: "Title", Width: 260, FilterKind: grid.FilterText},
			Value:  func(i domain.Issue) string { return i.Title },
		},
		grid.Field[domain.Issue]{
			Column: grid.Column{Key: "status", Label: "Status", Width: 120, FilterKind: grid.FilterEnum},
			Value:  func(i domain.Issue) string { return string(i.Status) },
		},
		grid.Field[domain.Issue]{
			Column: grid.Column{Key: "priority", Label: "Priority", Width: 100, FilterKind: grid.FilterEnum},
			Value:  func(i domain.Issue) string { return string(i.Priority) },
		},
		grid.Field[domain.Issue]{
			Column: grid.Column{Key: "severity", Label: "Severity", Width: 100, FilterKind: grid.FilterEnum},
			Value:  func(i domain.Issue) string { return string(i.Severity) },
		},
		grid.Field[domain.Issue]{
			Column: grid.Column{Key: "reporter", Label: "Reporter", Width: 140, FilterKind: grid.FilterEnum},
			Value:  func(i domain.Issue) string { return memberName(members, i.ReporterID) },
		},
		grid.Field[domain.Issue]{
			Column: grid.Column{Key: "assignee", Label: "Assignee", Width: 140, FilterKind: grid.FilterEnum},
			Value:  func(i domain.Issue) string { return memberName(members, i.AssigneeID) },
		},
		grid.Field[domain.Issue]{
			Column: grid.Column{Key: "reported", Label: "Reported", Width: 110, FilterKind: grid.FilterDate},
			Value:  func(i domain.Issue) string { return i.ReportedAt.UTC().Format(domain.DateLayout) },
		},
	)
}

// ApplyColumnOverrides returns cols with matching overrides applied. Overrides for unknown keys are ignored.
func ApplyColumnOverrides(cols []grid.Column, overrides []ColumnOverride) []grid.Column {
	out := make([]grid.Column, len(cols))
	copy(out, cols)
	for _, o := range overrides {
		key := strings.TrimSpace(o.Key)
		for idx := range out {
			if out[idx].Key != key {
				continue
			}
			if label := strings.TrimSpace(o.Label); label != "" {
				out[idx].Label = label
			}
			if o.Width > 0 {
				out[idx].Width = o.Width
			}
		}
	}
	return out
}

// GridOptions holds the view-side hooks for a grid controller.
type GridOptions struct {
	Capture grid.PointerCapture
	// OnEdit receives row clicks. OnBulkUpdate replaces the default bulk handler, which writes
	// through the service and logs failures.
	OnEdit       func(string)
	OnBulkUpdate func([]string, grid.FieldUpdates)
}

// TaskGrid builds a controller over the project's tasks with the persisted task layout applied.
func (s *Service) TaskGrid(ctx context.Context, projectID string, opts GridOptions) (*grid.Controller[domain.Task], error) {
	members, err := s.memberDirectory(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	schema := TaskGridSchema(members)
	onBulk := opts.OnBulkUpdate
	if onBulk == nil {
		onBulk = func(ids []string, updates grid.FieldUpdates) {
			if _, err := s.BulkUpdateTasks(ctx, ids, updates); err != nil {
				s.logger.Error("bulk task update failed", "count", len(ids), "err", err)
			}
		}
	}
	c := grid.NewController(grid.Config[domain.Task]{
		GridID:       TaskGridID,
		Schema:       schema,
		Defaults:     ApplyColumnOverrides(schema.Columns(), s.taskColumns),
		MinWidth:     s.minColumnWidth,
		Store:        s.LayoutStore(ctx),
		Capture:      opts.Capture,
		Logger:       s.logger,
		OnEdit:       editByID(opts.OnEdit, func(t domain.Task) string { return t.ID }),
		OnBulkUpdate: onBulk,
	})
	c.SetRecords(tasks)
	return c, nil
}

// IssueGrid builds a controller over the project's issues with the persisted issue layout applied.
func (s *Service) IssueGrid(ctx context.Context, projectID string, opts GridOptions) (*grid.Controller[domain.Issue], error) {
	members, err := s.memberDirectory(ctx)
	if err != nil {
		return nil, err
	}
	issues, err := s.ListIssues(ctx, projectID)
	if err != nil {
		return nil, err
	}
	schema := IssueGridSchema(members)
	onBulk := opts.OnBulkUpdate
	if onBulk == nil {
		onBulk = func(ids []string, updates grid.FieldUpdates) {
			if _, err := s.BulkUpdateIssues(ctx, ids, updates); err != nil {
				s.logger.Error("bulk issue update failed", "count", len(ids), "err", err)
			}
		}
	}
	c := grid.NewController(grid.Config[domain.Issue]{
		GridID:       IssueGridID,
		Schema:       schema,
		Defaults:     ApplyColumnOverrides(schema.Columns(), s.issueColumns),
		MinWidth:     s.minColumnWidth,
		Store:        s.LayoutStore(ctx),
		Capture:      opts.Capture,
		Logger:       s.logger,
		OnEdit:       editByID(opts.OnEdit, func(i domain.Issue) string { return i.ID }),
		OnBulkUpdate: onBulk,
	})
	c.SetRecords(issues)
	return c, nil
}

// editByID adapts an id callback to a record callback.
func editByID[R any](fn func(string), id func(R) string) func(R) {
	if fn == nil {
		return nil
	}
	return func(record R) { fn(id(record)) }
}

// memberName resolves a member id to its display name, falling back to the id.
func memberName(members map[string]domain.Member, id string) string {
	if id == "" {
		return ""
	}
	if m, ok := members[id]; ok {
		return m.Name
	}
	return id
}
