package app

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/evanschultz/gantry/internal/domain"
	"github.com/evanschultz/gantry/internal/grid"
)

var (
	taskUpdateKeys  = []string{"title", "type", "status", "priority", "assignee", "start", "due"}
	issueUpdateKeys = []string{"title", "status", "priority", "severity", "assignee"}
)

// BulkUpdateTasks applies updates to every task in ids. All tasks are validated before any is written,
// and the writes land in one repository batch: either every task is stored or none is.
// start and due are applied together so a move is checked against the final range.
// An empty selection or update set is a no-op.
func (s *Service) BulkUpdateTasks(ctx context.Context, ids []string, updates grid.FieldUpdates) ([]domain.Task, error) {
	keys, err := updateKeys(updates, taskUpdateKeys)
	if err != nil || len(ids) == 0 || len(keys) == 0 {
		return nil, err
	}
	updates, err = s.resolveAssignee(ctx, updates)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	out := make([]domain.Task, 0, len(ids))
	for _, id := range ids {
		task, err := s.repo.GetTask(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load task %q: %w", id, err)
		}
		dates := map[string]string{}
		for _, key := range keys {
			if key == "start" || key == "due" {
				dates[key] = updates[key]
				continue
			}
			if err := task.ApplyField(key, updates[key], now); err != nil {
				return nil, fmt.Errorf("task %q field %q: %w", id, key, err)
			}
		}
		if err := task.ApplyDates(dates, now); err != nil {
			return nil, fmt.Errorf("task %q dates: %w", id, err)
		}
		out = append(out, task)
	}
	if err := s.repo.UpdateTasks(ctx, out...); err != nil {
		return nil, err
	}
	s.logger.Info("bulk task update", "count", len(out), "fields", strings.Join(keys, ","))
	return out, nil
}

// BulkUpdateIssues applies updates to every issue in ids with the same semantics as BulkUpdateTasks.
func (s *Service) BulkUpdateIssues(ctx context.Context, ids []string, updates grid.FieldUpdates) ([]domain.Issue, error) {
	keys, err := updateKeys(updates, issueUpdateKeys)
	if err != nil || len(ids) == 0 || len(keys) == 0 {
		return nil, err
	}
	updates, err = s.resolveAssignee(ctx, updates)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	out := make([]domain.Issue, 0, len(ids))
	for _, id := range ids {
		issue, err := s.repo.GetIssue(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load issue %q: %w", id, err)
		}
		for _, key := range keys {
			if err := issue.ApplyField(key, updates[key], now); err != nil {
				return nil, fmt.Errorf("issue %q field %q: %w", id, key, err)
			}
		}
		out = append(out, issue)
	}
	if err := s.repo.UpdateIssues(ctx, out...); err != nil {
		return nil, err
	}
	s.logger.Info("bulk issue update", "count", len(out), "fields", strings.Join(keys, ","))
	return out, nil
}

// updateKeys returns the update keys in a stable order, rejecting keys outside allowed.
func updateKeys(updates grid.FieldUpdates, allowed []string) ([]string, error) {
	keys := make([]string, 0, len(updates))
	for key := range updates {
		if !slices.Contains(allowed, key) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, key)
		}
		keys = append(keys, key)
	}
	// type before start and due: dates land on the final task type.
	slices.SortFunc(keys, func(a, b string) int {
		return slices.Index(allowed, a) - slices.Index(allowed, b)
	})
	return keys, nil
}

// resolveAssignee maps an assignee given by display name to its member id.
func (s *Service) resolveAssignee(ctx context.Context, updates grid.FieldUpdates) (grid.FieldUpdates, error) {
	raw, ok := updates["assignee"]
	value := strings.TrimSpace(raw)
	if !ok || value == "" {
		return updates, nil
	}
	members, err := s.repo.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.ID == value || strings.EqualFold(m.Name, value) {
			out := maps.Clone(updates)
			out["assignee"] = m.ID
			return out, nil
		}
	}
	return nil, fmt.Errorf("assignee %q: %w", value, ErrNotFound)
}

// IsValidationError reports whether err came from domain validation or an unknown field.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrUnknownField,
		domain.ErrInvalidID,
		domain.ErrInvalidName,
		domain.ErrInvalidTitle,
		domain.ErrInvalidPriority,
		domain.ErrInvalidStatus,
		domain.ErrInvalidSeverity,
		domain.ErrInvalidTaskType,
		domain.ErrInvalidRole,
		domain.ErrInvalidDate,
		domain.ErrInvalidDateRange,
		domain.ErrUnknownField,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
