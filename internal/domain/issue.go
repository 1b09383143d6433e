package domain

import (
	"slices"
	"strings"
	"time"
)

// IssueStatus is an issue's triage state.
type IssueStatus string

// IssueStatusOpen and related constants define issue statuses.
const (
	IssueStatusOpen       IssueStatus = "Open"
	IssueStatusInProgress IssueStatus = "In Progress"
	IssueStatusResolved   IssueStatus = "Resolved"
	IssueStatusClosed     IssueStatus = "Closed"
)

var validIssueStatuses = []IssueStatus{IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed}

// Severity grades an issue's impact.
type Severity string

// SeverityMinor and related constants define issue severities.
const (
	SeverityMinor    Severity = "Minor"
	SeverityMajor    Severity = "Major"
	SeverityCritical Severity = "Critical"
	SeverityBlocker  Severity = "Blocker"
)

var validSeverities = []Severity{SeverityMinor, SeverityMajor, SeverityCritical, SeverityBlocker}

// IssueStatuses returns the valid issue statuses.
func IssueStatuses() []IssueStatus {
	return slices.Clone(validIssueStatuses)
}

// Issue is a reported problem attached to a project.
type Issue struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Status      IssueStatus
	Priority    Priority
	Severity    Severity
	ReporterID  string
	AssigneeID  string
	ReportedAt  time.Time
	UpdatedAt   time.Time
}

// IssueInput holds input values for issue operations.
type IssueInput struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Status      IssueStatus
	Priority    Priority
	Severity    Severity
	ReporterID  string
	AssigneeID  string
}

// NewIssue constructs a new issue reported at now.
func NewIssue(in IssueInput, now time.Time) (Issue, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.Title = strings.TrimSpace(in.Title)
	if in.ID == "" || in.ProjectID == "" {
		return Issue{}, ErrInvalidID
	}
	if in.Title == "" {
		return Issue{}, ErrInvalidTitle
	}
	if in.Status == "" {
		in.Status = IssueStatusOpen
	}
	if !slices.Contains(validIssueStatuses, in.Status) {
		return Issue{}, ErrInvalidStatus
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !slices.Contains(validPriorities, in.Priority) {
		return Issue{}, ErrInvalidPriority
	}
	if in.Severity == "" {
		in.Severity = SeverityMinor
	}
	if !slices.Contains(validSeverities, in.Severity) {
		return Issue{}, ErrInvalidSeverity
	}
	return Issue{
		ID:          in.ID,
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Status:      in.Status,
		Priority:    in.Priority,
		Severity:    in.Severity,
		ReporterID:  strings.TrimSpace(in.ReporterID),
		AssigneeID:  strings.TrimSpace(in.AssigneeID),
		ReportedAt:  now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// ApplyField sets one field by its grid key. Keys: title, status, priority, severity, assignee.
func (i *Issue) ApplyField(key, value string, now time.Time) error {
	value = strings.TrimSpace(value)
	switch key {
	case "title":
		if value == "" {
			return ErrInvalidTitle
		}
		i.Title = value
	case "status":
		status := IssueStatus(value)
		if !slices.Contains(validIssueStatuses, status) {
			return ErrInvalidStatus
		}
		i.Status = status
	case "priority":
		priority := Priority(value)
		if !slices.Contains(validPriorities, priority) {
			return ErrInvalidPriority
		}
		i.Priority = priority
	case "severity":
		severity := Severity(value)
		if !slices.Contains(validSeverities, severity) {
			return ErrInvalidSeverity
		}
		i.Severity = severity
	case "assignee":
		i.AssigneeID = value
	default:
		return ErrUnknownField
	}
	i.UpdatedAt = now.UTC()
	return nil
}
