package app

import (
	"context"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/evanschultz/gantry/internal/domain"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Logger         *log.Logger
	MinColumnWidth int
	TaskColumns    []ColumnOverride
	IssueColumns   []ColumnOverride
	DefaultZoom    float64
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service represents service data used by this package.
type Service struct {
	repo           Repository
	idGen          IDGenerator
	clock          Clock
	logger         *log.Logger
	minColumnWidth int
	taskColumns    []ColumnOverride
	issueColumns   []ColumnOverride
	defaultZoom    float64
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Service{
		repo:           repo,
		idGen:          idGen,
		clock:          clock,
		logger:         logger,
		minColumnWidth: cfg.MinColumnWidth,
		taskColumns:    slices.Clone(cfg.TaskColumns),
		issueColumns:   slices.Clone(cfg.IssueColumns),
		defaultZoom:    cfg.DefaultZoom,
	}
}

// CreateProjectInput holds input values for create project operations.
type CreateProjectInput struct {
	Name        string
	Description string
	OwnerID     string
	MemberIDs   []string
}

// CreateProject creates project.
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (domain.Project, error) {
	now := s.clock()
	project, err := domain.NewProject(s.idGen(), in.Name, in.Description, now)
	if err != nil {
		return domain.Project{}, err
	}
	if strings.TrimSpace(in.OwnerID) != "" {
		if err := project.SetOwner(in.OwnerID, now); err != nil {
			return domain.Project{}, err
		}
	}
	project.SetMembers(in.MemberIDs, now)
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// GetProject returns one project.
func (s *Service) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	return s.repo.GetProject(ctx, strings.TrimSpace(projectID))
}

// ListProjects lists projects.
func (s *Service) ListProjects(ctx context.Context, includeArchived bool) ([]domain.Project, error) {
	return s.repo.ListProjects(ctx, includeArchived)
}

// ArchiveProject stamps the project archived. Archiving twice keeps the first timestamp.
func (s *Service) ArchiveProject(ctx context.Context, projectID string) (domain.Project, error) {
	project, err := s.repo.GetProject(ctx, strings.TrimSpace(projectID))
	if err != nil {
		return domain.Project{}, err
	}
	project.Archive(s.clock())
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// VisibleProjects lists the active projects the member may see.
func (s *Service) VisibleProjects(ctx context.Context, memberID string) ([]domain.Project, error) {
	member, err := s.repo.GetMember(ctx, strings.TrimSpace(memberID))
	if err != nil {
		return nil, err
	}
	projects, err := s.repo.ListProjects(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(projects))
	for _, project := range projects {
		if domain.CanView(member, project) {
			out = append(out, project)
		}
	}
	return out, nil
}

// CreateMemberInput holds input values for create member operations.
type CreateMemberInput struct {
	Name  string
	Email string
	Role  domain.Role
}

// CreateMember creates member.
func (s *Service) CreateMember(ctx context.Context, in CreateMemberInput) (domain.Member, error) {
	member, err := domain.NewMember(s.idGen(), in.Name, in.Email, in.Role, s.clock())
	if err != nil {
		return domain.Member{}, err
	}
	if err := s.repo.CreateMember(ctx, member); err != nil {
		return domain.Member{}, err
	}
	return member, nil
}

// ListMembers lists members.
func (s *Service) ListMembers(ctx context.Context) ([]domain.Member, error) {
	return s.repo.ListMembers(ctx)
}

// memberDirectory indexes members by id.
func (s *Service) memberDirectory(ctx context.Context) (map[string]domain.Member, error) {
	members, err := s.repo.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Member, len(members))
	for _, m := range members {
		out[m.ID] = m
	}
	return out, nil
}

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	ProjectID   string
	Type        domain.TaskType
	Title       string
	Description string
	Status      domain.TaskStatus
	Priority    domain.Priority
	AssigneeID  string
	StartAt     *time.Time
	DueAt       *time.Time
}

// CreateTask creates task.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	if _, err := s.repo.GetProject(ctx, in.ProjectID); err != nil {
		return domain.Task{}, err
	}
	task, err := domain.NewTask(domain.TaskInput{
		ID:          s.idGen(),
		ProjectID:   in.ProjectID,
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		AssigneeID:  in.AssigneeID,
		StartAt:     in.StartAt,
		DueAt:       in.DueAt,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	return s.repo.GetTask(ctx, strings.TrimSpace(taskID))
}

// ListTasks lists a project's tasks.
func (s *Service) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	return s.repo.ListTasks(ctx, strings.TrimSpace(projectID))
}

// DeleteTask deletes task.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	return s.repo.DeleteTask(ctx, strings.TrimSpace(taskID))
}

// CreateIssueInput holds input values for create issue operations.
type CreateIssueInput struct {
	ProjectID   string
	Title       string
	Description string
	Status      domain.IssueStatus
	Priority    domain.Priority
	Severity    domain.Severity
	ReporterID  string
	AssigneeID  string
}

// CreateIssue creates issue.
func (s *Service) CreateIssue(ctx context.Context, in CreateIssueInput) (domain.Issue, error) {
	if _, err := s.repo.GetProject(ctx, in.ProjectID); err != nil {
		return domain.Issue{}, err
	}
	issue, err := domain.NewIssue(domain.IssueInput{
		ID:          s.idGen(),
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Severity:    in.Severity,
		ReporterID:  in.ReporterID,
		AssigneeID:  in.AssigneeID,
	}, s.clock())
	if err != nil {
		return domain.Issue{}, err
	}
	if err := s.repo.CreateIssue(ctx, issue); err != nil {
		return domain.Issue{}, err
	}
	return issue, nil
}

// ListIssues lists a project's issues.
func (s *Service) ListIssues(ctx context.Context, projectID string) ([]domain.Issue, error) {
	return s.repo.ListIssues(ctx, strings.TrimSpace(projectID))
}
