// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/evanschultz/gantry/internal/grid"
)

// ErrInvalidRequest reports malformed or rejected transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ListProjectsRequest stores transport input for project listing.
type ListProjectsRequest struct {
	IncludeArchived bool
	// MemberID restricts the list to projects the member may view.
	MemberID string
}

// ListRecordsRequest stores transport input for filtered task or issue listing.
type ListRecordsRequest struct {
	ProjectID string
	Filters   grid.FilterMap
}

// TimelineRequest stores transport input for Gantt layout queries.
type TimelineRequest struct {
	ProjectID string
	// PixelsPerDay uses the configured default zoom when zero.
	PixelsPerDay float64
}

// BulkUpdateRequest stores transport input for bulk field updates.
type BulkUpdateRequest struct {
	IDs     []string          `json:"ids"`
	Updates grid.FieldUpdates `json:"updates"`
}

// Project is the transport shape of one project.
type Project struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	OwnerID     string     `json:"owner_id,omitempty"`
	MemberIDs   []string   `json:"member_ids,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// Task is the transport shape of one task row. Dates use YYYY-MM-DD.
type Task struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	AssigneeID  string    `json:"assignee_id,omitempty"`
	Assignee    string    `json:"assignee,omitempty"`
	Start       string    `json:"start,omitempty"`
	Due         string    `json:"due,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Issue is the transport shape of one issue row.
type Issue struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Severity    string    `json:"severity"`
	ReporterID  string    `json:"reporter_id,omitempty"`
	Reporter    string    `json:"reporter,omitempty"`
	AssigneeID  string    `json:"assignee_id,omitempty"`
	Assignee    string    `json:"assignee,omitempty"`
	Reported    string    `json:"reported"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TimelineColumn is one chart header cell.
type TimelineColumn struct {
	Start string  `json:"start" yaml:"start"`
	Days  int     `json:"days" yaml:"days"`
	X     float64 `json:"x" yaml:"x"`
	Width float64 `json:"width" yaml:"width"`
	Label string  `json:"label" yaml:"label"`
}

// TimelineBar is the geometry of one task or milestone.
type TimelineBar struct {
	ID    string  `json:"id" yaml:"id"`
	Label string  `json:"label" yaml:"label"`
	Kind  string  `json:"kind" yaml:"kind"`
	Row   int     `json:"row" yaml:"row"`
	X     float64 `json:"x" yaml:"x"`
	Width float64 `json:"width" yaml:"width"`
	Start string  `json:"start" yaml:"start"`
	Due   string  `json:"due" yaml:"due"`
}

// Timeline is the transport shape of one computed chart.
type Timeline struct {
	ProjectID    string           `json:"project_id" yaml:"project_id"`
	Granularity  string           `json:"granularity" yaml:"granularity"`
	PixelsPerDay float64          `json:"pixels_per_day" yaml:"pixels_per_day"`
	Start        string           `json:"start" yaml:"start"`
	End          string           `json:"end" yaml:"end"`
	Width        float64          `json:"width" yaml:"width"`
	Columns      []TimelineColumn `json:"columns" yaml:"columns"`
	Bars         []TimelineBar    `json:"bars" yaml:"bars"`
}

// ProjectService lists and archives projects.
type ProjectService interface {
	ListProjects(context.Context, ListProjectsRequest) ([]Project, error)
	ArchiveProject(ctx context.Context, projectID string) (Project, error)
}

// TaskService lists, bulk-updates and deletes task rows.
type TaskService interface {
	ListTasks(context.Context, ListRecordsRequest) ([]Task, error)
	BulkUpdateTasks(context.Context, BulkUpdateRequest) ([]Task, error)
	DeleteTask(ctx context.Context, taskID string) error
}

// IssueService lists and bulk-updates issue rows.
type IssueService interface {
	ListIssues(context.Context, ListRecordsRequest) ([]Issue, error)
	BulkUpdateIssues(context.Context, BulkUpdateRequest) ([]Issue, error)
}

// TimelineService computes Gantt layouts.
type TimelineService interface {
	Timeline(context.Context, TimelineRequest) (Timeline, error)
}

// LayoutService reads and writes persisted grid layouts.
type LayoutService interface {
	GetLayout(ctx context.Context, gridID string) (grid.Layout, error)
	SaveLayout(ctx context.Context, gridID string, layout grid.Layout) error
	ResetLayout(ctx context.Context, gridID string) error
}

// Service is the full surface both transports serve.
type Service interface {
	ProjectService
	TaskService
	IssueService
	TimelineService
	LayoutService
}
