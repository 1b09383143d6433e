package domain

import (
	"slices"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for start and due dates in field updates.
const DateLayout = "2006-01-02"

// Priority ranks tasks and issues.
type Priority string

// PriorityLow and related constants define priorities.
const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Priorities returns the valid priorities in ascending rank.
func Priorities() []Priority {
	return slices.Clone(validPriorities)
}

// TaskType separates schedulable work from zero-length milestones.
type TaskType string

// TaskTypeTask and related constants define task types.
const (
	TaskTypeTask      TaskType = "task"
	TaskTypeMilestone TaskType = "milestone"
)

var validTaskTypes = []TaskType{TaskTypeTask, TaskTypeMilestone}

// TaskStatus is a task's workflow state.
type TaskStatus string

// TaskStatusTodo and related constants define task statuses.
const (
	TaskStatusTodo       TaskStatus = "To Do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusReview     TaskStatus = "Review"
	TaskStatusDone       TaskStatus = "Done"
)

var validTaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone}

// TaskStatuses returns the valid task statuses in workflow order.
func TaskStatuses() []TaskStatus {
	return slices.Clone(validTaskStatuses)
}

// Task represents task data used by this package.
type Task struct {
	ID          string
	ProjectID   string
	Type        TaskType
	Title       string
	Description string
	Status      TaskStatus
	Priority    Priority
	AssigneeID  string
	StartAt     *time.Time
	DueAt       *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskInput holds input values for task operations.
type TaskInput struct {
	ID          string
	ProjectID   string
	Type        TaskType
	Title       string
	Description string
	Status      TaskStatus
	Priority    Priority
	AssigneeID  string
	StartAt     *time.Time
	DueAt       *time.Time
}

// NewTask constructs a new value for this package.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.AssigneeID = strings.TrimSpace(in.AssigneeID)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.ProjectID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.Type == "" {
		in.Type = TaskTypeTask
	}
	if !slices.Contains(validTaskTypes, in.Type) {
		return Task{}, ErrInvalidTaskType
	}
	if in.Status == "" {
		in.Status = TaskStatusTodo
	}
	if !slices.Contains(validTaskStatuses, in.Status) {
		return Task{}, ErrInvalidStatus
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !slices.Contains(validPriorities, in.Priority) {
		return Task{}, ErrInvalidPriority
	}

	start, due := normalizeDate(in.StartAt), normalizeDate(in.DueAt)
	if in.Type == TaskTypeMilestone {
		start, due = milestoneDates(start, due)
	}
	if err := checkDateRange(start, due); err != nil {
		return Task{}, err
	}

	return Task{
		ID:          in.ID,
		ProjectID:   in.ProjectID,
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		AssigneeID:  in.AssigneeID,
		StartAt:     start,
		DueAt:       due,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// UpdateDetails updates the free-text fields.
func (t *Task) UpdateDetails(title, description string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	t.Title = title
	t.Description = strings.TrimSpace(description)
	t.UpdatedAt = now.UTC()
	return nil
}

// Reschedule replaces the start and due dates.
func (t *Task) Reschedule(start, due *time.Time, now time.Time) error {
	start, due = normalizeDate(start), normalizeDate(due)
	if t.Type == TaskTypeMilestone {
		start, due = milestoneDates(start, due)
	}
	if err := checkDateRange(start, due); err != nil {
		return err
	}
	t.StartAt = start
	t.DueAt = due
	t.UpdatedAt = now.UTC()
	return nil
}

// ApplyField sets one field by its grid key. Keys: title, status, priority, assignee, type, start, due.
// An empty start or due value clears the date.
func (t *Task) ApplyField(key, value string, now time.Time) error {
	value = strings.TrimSpace(value)
	switch key {
	case "title":
		return t.UpdateDetails(value, t.Description, now)
	case "status":
		status := TaskStatus(value)
		if !slices.Contains(validTaskStatuses, status) {
			return ErrInvalidStatus
		}
		t.Status = status
	case "priority":
		priority := Priority(value)
		if !slices.Contains(validPriorities, priority) {
			return ErrInvalidPriority
		}
		t.Priority = priority
	case "assignee":
		t.AssigneeID = value
	case "type":
		kind := TaskType(value)
		if !slices.Contains(validTaskTypes, kind) {
			return ErrInvalidTaskType
		}
		t.Type = kind
		return t.Reschedule(t.StartAt, t.DueAt, now)
	case "start", "due":
		return t.ApplyDates(map[string]string{key: value}, now)
	default:
		return ErrUnknownField
	}
	t.UpdatedAt = now.UTC()
	return nil
}

// ApplyDates sets the start and due keys present in updates together, so the range is checked
// once against the final dates. A milestone collapses onto the date that was written, due winning
// when both are set. Blank values clear the date.
func (t *Task) ApplyDates(updates map[string]string, now time.Time) error {
	rawStart, hasStart := updates["start"]
	rawDue, hasDue := updates["due"]
	if !hasStart && !hasDue {
		return nil
	}
	start, due := t.StartAt, t.DueAt
	if hasStart {
		date, err := ParseDate(rawStart)
		if err != nil {
			return err
		}
		start = date
	}
	if hasDue {
		date, err := ParseDate(rawDue)
		if err != nil {
			return err
		}
		due = date
	}
	if t.Type == TaskTypeMilestone {
		day := start
		if hasDue && (due != nil || !hasStart) {
			day = due
		}
		start, due = day, day
	}
	return t.Reschedule(start, due, now)
}

// ParseDate parses a DateLayout value. Blank input yields nil.
func ParseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	ts, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &ts, nil
}

// FormatDate renders an optional date with DateLayout.
func FormatDate(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format(DateLayout)
}

// normalizeDate truncates to the UTC calendar day.
func normalizeDate(ts *time.Time) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	u := ts.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}

// milestoneDates collapses a milestone onto a single day.
func milestoneDates(start, due *time.Time) (*time.Time, *time.Time) {
	switch {
	case due != nil:
		day := *due
		return &day, due
	case start != nil:
		day := *start
		return start, &day
	default:
		return nil, nil
	}
}

// checkDateRange rejects a start date after the due date.
func checkDateRange(start, due *time.Time) error {
	if start != nil && due != nil && start.After(*due) {
		return ErrInvalidDateRange
	}
	return nil
}
