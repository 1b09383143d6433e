package app

import (
	"context"
	"time"

	"github.com/evanschultz/gantry/internal/domain"
)

// SeedDemo creates a demo workspace when no project exists. It returns the first project and whether
// anything was created.
func (s *Service) SeedDemo(ctx context.Context) (domain.Project, bool, error) {
	projects, err := s.repo.ListProjects(ctx, false)
	if err != nil {
		return domain.Project{}, false, err
	}
	if len(projects) > 0 {
		return projects[0], false, nil
	}

	members := map[string]domain.Member{}
	for _, in := range []CreateMemberInput{
		{Name: "Ada Admin", Email: "ada@example.com", Role: domain.RoleAdmin},
		{Name: "Mo Manager", Email: "mo@example.com", Role: domain.RoleManager},
		{Name: "Dee Dev", Email: "dee@example.com", Role: domain.RoleMember},
		{Name: "Vic Viewer", Email: "vic@example.com", Role: domain.RoleViewer},
	} {
		m, err := s.CreateMember(ctx, in)
		if err != nil {
			return domain.Project{}, false, err
		}
		members[string(m.Role)] = m
	}

	project, err := s.CreateProject(ctx, CreateProjectInput{
		Name:        "Website Redesign",
		Description: "Refresh the marketing site and ship the new onboarding flow.",
		OwnerID:     members["manager"].ID,
		MemberIDs:   []string{members["member"].ID},
	})
	if err != nil {
		return domain.Project{}, false, err
	}

	today := s.clock().UTC().Truncate(24 * time.Hour)
	day := func(offset int) *time.Time {
		ts := today.AddDate(0, 0, offset)
		return &ts
	}
	dev, mgr := members["member"].ID, members["manager"].ID
	for _, in := range []CreateTaskInput{
		{Title: "Design Mockups", Status: domain.TaskStatusDone, Priority: domain.PriorityHigh, AssigneeID: dev, StartAt: day(-14), DueAt: day(-4), Description: "Wireframes and **high fidelity** mockups for every page."},
		{Title: "Content Audit", Status: domain.TaskStatusInProgress, Priority: domain.PriorityMedium, AssigneeID: mgr, StartAt: day(-7), DueAt: day(3)},
		{Title: "Frontend Build", Status: domain.TaskStatusInProgress, Priority: domain.PriorityHigh, AssigneeID: dev, StartAt: day(-3), DueAt: day(18)},
		{Title: "Design Sign-off", Type: domain.TaskTypeMilestone, Priority: domain.PriorityHigh, DueAt: day(-3)},
		{Title: "QA Pass", Priority: domain.PriorityMedium, AssigneeID: dev, StartAt: day(19), DueAt: day(26)},
		{Title: "Launch", Type: domain.TaskTypeMilestone, Priority: domain.PriorityCritical, DueAt: day(28)},
		{Title: "Analytics Plan", Priority: domain.PriorityLow},
	} {
		in.ProjectID = project.ID
		if _, err := s.CreateTask(ctx, in); err != nil {
			return domain.Project{}, false, err
		}
	}
	for _, in := range []CreateIssueInput{
		{Title: "Hero image blurry on retina", Priority: domain.PriorityMedium, Severity: domain.SeverityMinor, ReporterID: members["viewer"].ID, AssigneeID: dev},
		{Title: "Signup form loses input on back", Priority: domain.PriorityHigh, Severity: domain.SeverityMajor, ReporterID: mgr, AssigneeID: dev},
		{Title: "Checkout 500s for EU cards", Status: domain.IssueStatusInProgress, Priority: domain.PriorityCritical, Severity: domain.SeverityBlocker, ReporterID: mgr},
		{Title: "Typo in footer", Status: domain.IssueStatusResolved, Priority: domain.PriorityLow, ReporterID: dev},
	} {
		in.ProjectID = project.ID
		if _, err := s.CreateIssue(ctx, in); err != nil {
			return domain.Project{}, false, err
		}
	}
	s.logger.Info("seeded demo workspace", "project", project.Name)
	return project, true, nil
}
