package common

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/evanschultz/gantry/internal/adapters/storage/sqlite"
	"github.com/evanschultz/gantry/internal/app"
	"github.com/evanschultz/gantry/internal/domain"
	"github.com/evanschultz/gantry/internal/grid"
)

// newSeededAdapter builds an adapter over an in-memory store holding the demo workspace.
func newSeededAdapter(t *testing.T) (*AppServiceAdapter, *app.Service, domain.Project) {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	n := 0
	idGen := func() string {
		n++
		return fmt.Sprintf("id-%02d", n)
	}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := app.NewService(repo, idGen, func() time.Time { return now }, app.ServiceConfig{})
	project, created, err := svc.SeedDemo(context.Background())
	if err != nil || !created {
		t.Fatalf("SeedDemo() = %t, %v", created, err)
	}
	return NewAppServiceAdapter(svc), svc, project
}

// memberByRole returns the first member holding role.
func memberByRole(t *testing.T, svc *app.Service, role domain.Role) domain.Member {
	t.Helper()
	members, err := svc.ListMembers(context.Background())
	if err != nil {
		t.Fatalf("ListMembers() error = %v", err)
	}
	for _, m := range members {
		if m.Role == role {
			return m
		}
	}
	t.Fatalf("no member with role %q", role)
	return domain.Member{}
}

func TestAdapterListTasksAppliesGridFilters(t *testing.T) {
	adapter, _, project := newSeededAdapter(t)
	ctx := context.Background()

	all, err := adapter.ListTasks(ctx, ListRecordsRequest{ProjectID: project.ID})
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(all) != 7 {
		t.Fatalf("ListTasks() = %d rows, want 7", len(all))
	}

	inProgress, err := adapter.ListTasks(ctx, ListRecordsRequest{
		ProjectID: project.ID,
		Filters:   grid.FilterMap{"status": "In Progress"},
	})
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(inProgress) != 2 {
		t.Fatalf("status filter = %d rows, want 2", len(inProgress))
	}

	// Assignee filters match the resolved display name.
	dee, err := adapter.ListTasks(ctx, ListRecordsRequest{
		ProjectID: project.ID,
		Filters:   grid.FilterMap{"assignee": "Dee Dev", "title": "design"},
	})
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(dee) != 1 || dee[0].Title != "Design Mockups" || dee[0].Assignee != "Dee Dev" {
		t.Fatalf("combined filter = %#v", dee)
	}
	if dee[0].Start == "" || dee[0].Due == "" {
		t.Fatalf("dates not formatted: %#v", dee[0])
	}

	if _, err := adapter.ListTasks(ctx, ListRecordsRequest{ProjectID: project.ID, Filters: grid.FilterMap{"colour": "red"}}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := adapter.ListTasks(ctx, ListRecordsRequest{ProjectID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := adapter.ListTasks(ctx, ListRecordsRequest{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestAdapterListIssuesAndBulkUpdate(t *testing.T) {
	adapter, _, project := newSeededAdapter(t)
	ctx := context.Background()

	open, err := adapter.ListIssues(ctx, ListRecordsRequest{ProjectID: project.ID, Filters: grid.FilterMap{"status": "Open"}})
	if err != nil {
		t.Fatalf("ListIssues() error = %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("open issues = %d, want 2", len(open))
	}
	ids := []string{open[0].ID, open[1].ID}

	updated, err := adapter.BulkUpdateIssues(ctx, BulkUpdateRequest{IDs: ids, Updates: grid.FieldUpdates{"status": "Closed", "assignee": "mo manager"}})
	if err != nil {
		t.Fatalf("BulkUpdateIssues() error = %v", err)
	}
	for _, issue := range updated {
		if issue.Status != "Closed" || issue.Assignee != "Mo Manager" {
			t.Fatalf("unexpected updated issue %#v", issue)
		}
	}

	if _, err := adapter.BulkUpdateIssues(ctx, BulkUpdateRequest{IDs: ids, Updates: grid.FieldUpdates{"status": "Exploded"}}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := adapter.BulkUpdateIssues(ctx, BulkUpdateRequest{IDs: ids}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for empty updates, got %v", err)
	}
}

func TestAdapterBulkUpdateTasks(t *testing.T) {
	adapter, _, project := newSeededAdapter(t)
	ctx := context.Background()

	rows, err := adapter.ListTasks(ctx, ListRecordsRequest{ProjectID: project.ID, Filters: grid.FilterMap{"type": "task", "status": "To Do"}})
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	updated, err := adapter.BulkUpdateTasks(ctx, BulkUpdateRequest{IDs: ids, Updates: grid.FieldUpdates{"priority": "Critical"}})
	if err != nil {
		t.Fatalf("BulkUpdateTasks() error = %v", err)
	}
	if len(updated) != len(ids) {
		t.Fatalf("updated = %d, want %d", len(updated), len(ids))
	}

	critical, _ := adapter.ListTasks(ctx, ListRecordsRequest{ProjectID: project.ID, Filters: grid.FilterMap{"priority": "Critical"}})
	// The Launch milestone was already critical.
	if len(critical) != len(ids)+1 {
		t.Fatalf("critical rows = %d, want %d", len(critical), len(ids)+1)
	}

	if _, err := adapter.BulkUpdateTasks(ctx, BulkUpdateRequest{IDs: []string{"missing"}, Updates: grid.FieldUpdates{"priority": "Low"}}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := adapter.BulkUpdateTasks(ctx, BulkUpdateRequest{IDs: ids, Updates: grid.FieldUpdates{"notes": "x"}}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestAdapterTimeline(t *testing.T) {
	adapter, _, project := newSeededAdapter(t)
	ctx := context.Background()

	chart, err := adapter.Timeline(ctx, TimelineRequest{ProjectID: project.ID})
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if chart.Granularity != "daily" || chart.PixelsPerDay != 40 {
		t.Fatalf("granularity = %s at %v", chart.Granularity, chart.PixelsPerDay)
	}
	if len(chart.Bars) != 6 {
		t.Fatalf("bars = %d, want 6", len(chart.Bars))
	}
	if chart.Bars[0].Label != "Design Mockups" || chart.Bars[0].Row != 0 {
		t.Fatalf("first bar = %#v", chart.Bars[0])
	}

	monthly, err := adapter.Timeline(ctx, TimelineRequest{ProjectID: project.ID, PixelsPerDay: 5})
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if monthly.Granularity != "monthly" || monthly.Columns[0].Start[8:] != "01" {
		t.Fatalf("monthly chart = %s starting %s", monthly.Granularity, monthly.Columns[0].Start)
	}

	if _, err := adapter.Timeline(ctx, TimelineRequest{ProjectID: project.ID, PixelsPerDay: -1}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := adapter.Timeline(ctx, TimelineRequest{ProjectID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdapterLayoutLifecycle(t *testing.T) {
	adapter, _, _ := newSeededAdapter(t)
	ctx := context.Background()

	layout, err := adapter.GetLayout(ctx, app.TaskGridID)
	if err != nil {
		t.Fatalf("GetLayout() error = %v", err)
	}
	if layout.Order[0] != "title" || layout.Widths["title"] != 240 {
		t.Fatalf("default layout = %#v", layout)
	}

	saved := grid.Layout{
		Widths:  map[string]int{"due": 150},
		Order:   []string{"due", "title"},
		Filters: map[string]string{"status": "Done"},
	}
	if err := adapter.SaveLayout(ctx, app.TaskGridID, saved); err != nil {
		t.Fatalf("SaveLayout() error = %v", err)
	}
	layout, _ = adapter.GetLayout(ctx, app.TaskGridID)
	if !slices.Equal(layout.Order[:2], []string{"due", "title"}) || layout.Widths["due"] != 150 || layout.Filters["status"] != "Done" {
		t.Fatalf("merged layout = %#v", layout)
	}

	if err := adapter.ResetLayout(ctx, app.TaskGridID); err != nil {
		t.Fatalf("ResetLayout() error = %v", err)
	}
	layout, _ = adapter.GetLayout(ctx, app.TaskGridID)
	if layout.Order[0] != "title" || len(layout.Filters) != 0 {
		t.Fatalf("layout after reset = %#v", layout)
	}

	if err := adapter.SaveLayout(ctx, "boards", saved); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := adapter.SaveLayout(ctx, app.IssueGridID, grid.Layout{Widths: map[string]int{"title": 0}}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := adapter.GetLayout(ctx, "boards"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdapterListProjectsByMember(t *testing.T) {
	adapter, svc, project := newSeededAdapter(t)
	ctx := context.Background()

	all, err := adapter.ListProjects(ctx, ListProjectsRequest{})
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(all) != 1 || all[0].ID != project.ID || all[0].Slug != "website-redesign" {
		t.Fatalf("ListProjects() = %#v", all)
	}

	cases := []struct {
		role domain.Role
		want int
	}{
		{role: domain.RoleAdmin, want: 1},
		{role: domain.RoleManager, want: 1},
		{role: domain.RoleMember, want: 1},
		{role: domain.RoleViewer, want: 0},
	}
	for _, tc := range cases {
		member := memberByRole(t, svc, tc.role)
		got, err := adapter.ListProjects(ctx, ListProjectsRequest{MemberID: member.ID})
		if err != nil {
			t.Fatalf("ListProjects(%s) error = %v", tc.role, err)
		}
		if len(got) != tc.want {
			t.Fatalf("ListProjects(%s) = %d, want %d", tc.role, len(got), tc.want)
		}
	}

	if _, err := adapter.ListProjects(ctx, ListProjectsRequest{MemberID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdapterArchiveProjectAndDeleteTask(t *testing.T) {
	adapter, _, project := newSeededAdapter(t)
	ctx := context.Background()

	archived, err := adapter.ArchiveProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("ArchiveProject() error = %v", err)
	}
	if archived.ArchivedAt == nil {
		t.Fatal("expected archived timestamp")
	}
	if active, err := adapter.ListProjects(ctx, ListProjectsRequest{}); err != nil || len(active) != 0 {
		t.Fatalf("ListProjects() = %d, %v; want archived project hidden", len(active), err)
	}
	if all, err := adapter.ListProjects(ctx, ListProjectsRequest{IncludeArchived: true}); err != nil || len(all) != 1 {
		t.Fatalf("ListProjects(include archived) = %d, %v", len(all), err)
	}
	if _, err := adapter.ArchiveProject(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := adapter.ArchiveProject(ctx, " "); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}

	tasks, err := adapter.ListTasks(ctx, ListRecordsRequest{ProjectID: project.ID})
	if err != nil || len(tasks) == 0 {
		t.Fatalf("ListTasks() = %d, %v", len(tasks), err)
	}
	if err := adapter.DeleteTask(ctx, tasks[0].ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	after, err := adapter.ListTasks(ctx, ListRecordsRequest{ProjectID: project.ID})
	if err != nil || len(after) != len(tasks)-1 {
		t.Fatalf("ListTasks() after delete = %d, %v", len(after), err)
	}
	if err := adapter.DeleteTask(ctx, tasks[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := adapter.DeleteTask(ctx, ""); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
