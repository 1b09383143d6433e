package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanschultz/gantry/internal/domain"
	"github.com/evanschultz/gantry/internal/grid"
)

// layoutStore adapts the repository to the grid's synchronous layout persistence port.
type layoutStore struct {
	ctx  context.Context
	repo Repository
}

// LayoutStore returns a grid.LayoutStore bound to ctx.
func (s *Service) LayoutStore(ctx context.Context) grid.LayoutStore {
	return layoutStore{ctx: ctx, repo: s.repo}
}

// LoadLayout loads one grid layout.
func (l layoutStore) LoadLayout(gridID string) (grid.Layout, error) {
	layout, err := l.repo.GetGridLayout(l.ctx, gridID)
	if errors.Is(err, ErrNotFound) {
		return grid.Layout{}, grid.ErrLayoutNotFound
	}
	return layout, err
}

// SaveLayout saves one grid layout.
func (l layoutStore) SaveLayout(gridID string, layout grid.Layout) error {
	return l.repo.SaveGridLayout(l.ctx, gridID, layout)
}

// GetGridLayout returns the persisted layout for gridID.
func (s *Service) GetGridLayout(ctx context.Context, gridID string) (grid.Layout, error) {
	gridID = strings.TrimSpace(gridID)
	if gridID == "" {
		return grid.Layout{}, domain.ErrInvalidID
	}
	return s.repo.GetGridLayout(ctx, gridID)
}

// SaveGridLayout replaces the persisted layout for gridID.
func (s *Service) SaveGridLayout(ctx context.Context, gridID string, layout grid.Layout) error {
	gridID = strings.TrimSpace(gridID)
	if gridID == "" {
		return domain.ErrInvalidID
	}
	return s.repo.SaveGridLayout(ctx, gridID, layout)
}

// ResetGridLayout removes the persisted layout so the grid falls back to its defaults.
func (s *Service) ResetGridLayout(ctx context.Context, gridID string) error {
	gridID = strings.TrimSpace(gridID)
	if gridID == "" {
		return domain.ErrInvalidID
	}
	err := s.repo.DeleteGridLayout(ctx, gridID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// EffectiveGridLayout returns the layout gridID opens with: configured defaults merged with any
// persisted widths, order and filters.
func (s *Service) EffectiveGridLayout(ctx context.Context, gridID string) (grid.Layout, error) {
	gridID = strings.TrimSpace(gridID)
	var c interface{ Layout() grid.Layout }
	switch gridID {
	case TaskGridID:
		schema := TaskGridSchema(nil)
		c = grid.NewController(grid.Config[domain.Task]{
			GridID:   gridID,
			Schema:   schema,
			Defaults: ApplyColumnOverrides(schema.Columns(), s.taskColumns),
			MinWidth: s.minColumnWidth,
			Store:    s.LayoutStore(ctx),
			Logger:   s.logger,
		})
	case IssueGridID:
		schema := IssueGridSchema(nil)
		c = grid.NewController(grid.Config[domain.Issue]{
			GridID:   gridID,
			Schema:   schema,
			Defaults: ApplyColumnOverrides(schema.Columns(), s.issueColumns),
			MinWidth: s.minColumnWidth,
			Store:    s.LayoutStore(ctx),
			Logger:   s.logger,
		})
	default:
		return grid.Layout{}, fmt.Errorf("grid %q: %w", gridID, ErrNotFound)
	}
	return c.Layout(), nil
}
