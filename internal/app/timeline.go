package app

import (
	"context"

	"github.com/evanschultz/gantry/internal/domain"
	"github.com/evanschultz/gantry/internal/timeline"
)

// TaskTimeline lays out the project's tasks as a Gantt chart. A non-positive zoom uses the configured default.
func (s *Service) TaskTimeline(ctx context.Context, projectID string, pixelsPerDay float64) (timeline.Chart, error) {
	tasks, err := s.ListTasks(ctx, projectID)
	if err != nil {
		return timeline.Chart{}, err
	}
	if pixelsPerDay <= 0 {
		pixelsPerDay = s.DefaultZoom()
	}
	return timeline.Layout(TimelineItems(tasks), pixelsPerDay, s.clock()), nil
}

// DefaultZoom returns the configured initial pixels-per-day.
func (s *Service) DefaultZoom() float64 {
	if s.defaultZoom <= 0 {
		return timeline.DefaultPixelsPerDay
	}
	return timeline.Clamp(s.defaultZoom)
}

// TimelineItems converts tasks to chart items.
func TimelineItems(tasks []domain.Task) []timeline.Item {
	out := make([]timeline.Item, 0, len(tasks))
	for _, t := range tasks {
		item := timeline.Item{ID: t.ID, Label: t.Title, Kind: timeline.KindTask}
		if t.Type == domain.TaskTypeMilestone {
			item.Kind = timeline.KindMilestone
		}
		if t.StartAt != nil {
			item.Start = *t.StartAt
		}
		if t.DueAt != nil {
			item.Due = *t.DueAt
		}
		out = append(out, item)
	}
	return out
}
