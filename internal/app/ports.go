package app

import (
	"context"

	"github.com/evanschultz/gantry/internal/domain"
	"github.com/evanschultz/gantry/internal/grid"
)

// Repository represents repository data used by this package.
type Repository interface {
	CreateProject(context.Context, domain.Project) error
	UpdateProject(context.Context, domain.Project) error
	GetProject(context.Context, string) (domain.Project, error)
	ListProjects(context.Context, bool) ([]domain.Project, error)

	CreateMember(context.Context, domain.Member) error
	GetMember(context.Context, string) (domain.Member, error)
	ListMembers(context.Context) ([]domain.Member, error)

	CreateTask(context.Context, domain.Task) error
	// UpdateTasks writes every task or none.
	UpdateTasks(context.Context, ...domain.Task) error
	GetTask(context.Context, string) (domain.Task, error)
	ListTasks(context.Context, string) ([]domain.Task, error)
	DeleteTask(context.Context, string) error

	CreateIssue(context.Context, domain.Issue) error
	// UpdateIssues writes every issue or none.
	UpdateIssues(context.Context, ...domain.Issue) error
	GetIssue(context.Context, string) (domain.Issue, error)
	ListIssues(context.Context, string) ([]domain.Issue, error)

	GetGridLayout(context.Context, string) (grid.Layout, error)
	SaveGridLayout(context.Context, string, grid.Layout) error
	DeleteGridLayout(context.Context, string) error
}
