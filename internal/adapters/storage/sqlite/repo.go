package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/gantry/internal/app"
	"github.com/evanschultz/gantry/internal/domain"
	"github.com/evanschultz/gantry/internal/grid"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository represents repository data used by this package.
type Repository struct {
	db *sql.DB
}

// Open opens the requested operation.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// Every pooled connection would get its own empty in-memory database.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			owner_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS members (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'member',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS project_members (
			project_id TEXT NOT NULL,
			member_id TEXT NOT NULL,
			PRIMARY KEY(project_id, member_id),
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'task',
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			priority TEXT NOT NULL,
			assignee_id TEXT NOT NULL DEFAULT '',
			start_at TEXT,
			due_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS issues (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			priority TEXT NOT NULL,
			severity TEXT NOT NULL DEFAULT 'Minor',
			reporter_id TEXT NOT NULL DEFAULT '',
			assignee_id TEXT NOT NULL DEFAULT '',
			reported_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS grid_layouts (
			grid_id TEXT PRIMARY KEY,
			layout_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project_id)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateProject creates project.
func (r *Repository) CreateProject(ctx context.Context, p domain.Project) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO projects(id, slug, name, description, owner_id, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Slug, p.Name, p.Description, p.OwnerID, ts(p.CreatedAt), ts(p.UpdatedAt), nullableTS(p.ArchivedAt)); err != nil {
		return err
	}
	if err = replaceProjectMembers(ctx, tx, p.ID, p.MemberIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateProject updates state for the requested operation.
func (r *Repository) UpdateProject(ctx context.Context, p domain.Project) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE projects
		SET slug = ?, name = ?, description = ?, owner_id = ?, updated_at = ?, archived_at = ?
		WHERE id = ?
	`, p.Slug, p.Name, p.Description, p.OwnerID, ts(p.UpdatedAt), nullableTS(p.ArchivedAt), p.ID)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	if err = replaceProjectMembers(ctx, tx, p.ID, p.MemberIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// GetProject returns project.
func (r *Repository) GetProject(ctx context.Context, id string) (domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, description, owner_id, created_at, updated_at, archived_at
		FROM projects
		WHERE id = ?
	`, id)
	p, err := scanProject(row)
	if err != nil {
		return domain.Project{}, err
	}
	p.MemberIDs, err = r.listProjectMembers(ctx, p.ID)
	if err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// ListProjects lists projects.
func (r *Repository) ListProjects(ctx context.Context, includeArchived bool) ([]domain.Project, error) {
	query := `
		SELECT id, slug, name, description, owner_id, created_at, updated_at, archived_at
		FROM projects
	`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	out := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for idx := range out {
		members, err := r.listProjectMembers(ctx, out[idx].ID)
		if err != nil {
			return nil, err
		}
		out[idx].MemberIDs = members
	}
	return out, nil
}

// listProjectMembers returns the member ids of one project.
func (r *Repository) listProjectMembers(ctx context.Context, projectID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT member_id FROM project_members WHERE project_id = ? ORDER BY member_id ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// replaceProjectMembers rewrites one project's membership rows.
func replaceProjectMembers(ctx context.Context, execer execerContext, projectID string, memberIDs []string) error {
	if _, err := execer.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = ?`, projectID); err != nil {
		return err
	}
	for _, memberID := range memberIDs {
		if _, err := execer.ExecContext(ctx, `
			INSERT INTO project_members(project_id, member_id) VALUES (?, ?)
		`, projectID, memberID); err != nil {
			return err
		}
	}
	return nil
}

// CreateMember creates member.
func (r *Repository) CreateMember(ctx context.Context, m domain.Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members(id, name, email, role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Email, string(m.Role), ts(m.CreatedAt))
	return err
}

// GetMember returns member.
func (r *Repository) GetMember(ctx context.Context, id string) (domain.Member, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, created_at FROM members WHERE id = ?
	`, id)
	return scanMember(row)
}

// ListMembers lists members.
func (r *Repository) ListMembers(ctx context.Context) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, role, created_at FROM members ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// taskColumns lists the tasks table columns in scan order.
const taskColumns = `id, project_id, type, title, description, status, priority, assignee_id, start_at, due_at, created_at, updated_at`

// CreateTask creates task.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks(`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.ProjectID, string(t.Type), t.Title, t.Description, string(t.Status), string(t.Priority), t.AssigneeID,
		nullableTS(t.StartAt), nullableTS(t.DueAt), ts(t.CreatedAt), ts(t.UpdatedAt),
	)
	return err
}

// UpdateTasks writes tasks in one transaction. A missing row rolls back the whole batch.
func (r *Repository) UpdateTasks(ctx context.Context, tasks ...domain.Task) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, t := range tasks {
		res, err := tx.ExecContext(ctx, `
			UPDATE tasks
			SET type = ?, title = ?, description = ?, status = ?, priority = ?, assignee_id = ?, start_at = ?, due_at = ?, updated_at = ?
			WHERE id = ?
		`,
			string(t.Type), t.Title, t.Description, string(t.Status), string(t.Priority), t.AssigneeID,
			nullableTS(t.StartAt), nullableTS(t.DueAt), ts(t.UpdatedAt), t.ID,
		)
		if err != nil {
			return err
		}
		if err := translateNoRows(res); err != nil {
			return fmt.Errorf("task %q: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// GetTask returns task.
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListTasks lists tasks.
func (r *Repository) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id = ?
		ORDER BY created_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// DeleteTask deletes task.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// issueColumns lists the issues table columns in scan order.
const issueColumns = `id, project_id, title, description, status, priority, severity, reporter_id, assignee_id, reported_at, updated_at`

// CreateIssue creates issue.
func (r *Repository) CreateIssue(ctx context.Context, i domain.Issue) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO issues(`+issueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		i.ID, i.ProjectID, i.Title, i.Description, string(i.Status), string(i.Priority), string(i.Severity),
		i.ReporterID, i.AssigneeID, ts(i.ReportedAt), ts(i.UpdatedAt),
	)
	return err
}

// UpdateIssues writes issues in one transaction. A missing row rolls back the whole batch.
func (r *Repository) UpdateIssues(ctx context.Context, issues ...domain.Issue) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, i := range issues {
		res, err := tx.ExecContext(ctx, `
			UPDATE issues
			SET title = ?, description = ?, status = ?, priority = ?, severity = ?, reporter_id = ?, assignee_id = ?, updated_at = ?
			WHERE id = ?
		`,
			i.Title, i.Description, string(i.Status), string(i.Priority), string(i.Severity),
			i.ReporterID, i.AssigneeID, ts(i.UpdatedAt), i.ID,
		)
		if err != nil {
			return err
		}
		if err := translateNoRows(res); err != nil {
			return fmt.Errorf("issue %q: %w", i.ID, err)
		}
	}
	return tx.Commit()
}

// GetIssue returns issue.
func (r *Repository) GetIssue(ctx context.Context, id string) (domain.Issue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	return scanIssue(row)
}

// ListIssues lists issues.
func (r *Repository) ListIssues(ctx context.Context, projectID string) ([]domain.Issue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE project_id = ?
		ORDER BY reported_at DESC, id ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, issue)
	}
	return out, rows.Err()
}

// GetGridLayout returns the persisted layout for one grid.
func (r *Repository) GetGridLayout(ctx context.Context, gridID string) (grid.Layout, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT layout_json FROM grid_layouts WHERE grid_id = ?`, gridID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return grid.Layout{}, app.ErrNotFound
	}
	if err != nil {
		return grid.Layout{}, err
	}
	return grid.DecodeLayout([]byte(raw))
}

// SaveGridLayout upserts the persisted layout for one grid.
func (r *Repository) SaveGridLayout(ctx context.Context, gridID string, layout grid.Layout) error {
	raw, err := grid.EncodeLayout(layout)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO grid_layouts(grid_id, layout_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(grid_id) DO UPDATE SET layout_json = excluded.layout_json, updated_at = excluded.updated_at
	`, gridID, string(raw), ts(time.Now()))
	return err
}

// DeleteGridLayout removes the persisted layout for one grid.
func (r *Repository) DeleteGridLayout(ctx context.Context, gridID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grid_layouts WHERE grid_id = ?`, gridID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// scanner represents a row scanner shared by sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// execerContext represents a write-only DB contract used by DB and Tx implementations.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// scanProject handles scan project.
func scanProject(s scanner) (domain.Project, error) {
	var (
		p          domain.Project
		createdRaw string
		updatedRaw string
		archived   sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.OwnerID, &createdRaw, &updatedRaw, &archived); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Project{}, app.ErrNotFound
		}
		return domain.Project{}, err
	}
	p.MemberIDs = []string{}
	p.CreatedAt = parseTS(createdRaw)
	p.UpdatedAt = parseTS(updatedRaw)
	p.ArchivedAt = parseNullTS(archived)
	return p, nil
}

// scanMember handles scan member.
func scanMember(s scanner) (domain.Member, error) {
	var (
		m          domain.Member
		role       string
		createdRaw string
	)
	if err := s.Scan(&m.ID, &m.Name, &m.Email, &role, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Member{}, app.ErrNotFound
		}
		return domain.Member{}, err
	}
	m.Role = domain.Role(role)
	if m.Role == "" {
		m.Role = domain.RoleMember
	}
	m.CreatedAt = parseTS(createdRaw)
	return m, nil
}

// scanTask handles scan task.
func scanTask(s scanner) (domain.Task, error) {
	var (
		t          domain.Task
		kind       string
		status     string
		priority   string
		startRaw   sql.NullString
		dueRaw     sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(
		&t.ID,
		&t.ProjectID,
		&kind,
		&t.Title,
		&t.Description,
		&status,
		&priority,
		&t.AssigneeID,
		&startRaw,
		&dueRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	t.Type = domain.TaskType(kind)
	if t.Type == "" {
		t.Type = domain.TaskTypeTask
	}
	t.Status = domain.TaskStatus(status)
	t.Priority = domain.Priority(priority)
	t.StartAt = parseNullTS(startRaw)
	t.DueAt = parseNullTS(dueRaw)
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	return t, nil
}

// scanIssue handles scan issue.
func scanIssue(s scanner) (domain.Issue, error) {
	var (
		i           domain.Issue
		status      string
		priority    string
		severity    string
		reportedRaw string
		updatedRaw  string
	)
	if err := s.Scan(
		&i.ID,
		&i.ProjectID,
		&i.Title,
		&i.Description,
		&status,
		&priority,
		&severity,
		&i.ReporterID,
		&i.AssigneeID,
		&reportedRaw,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Issue{}, app.ErrNotFound
		}
		return domain.Issue{}, err
	}
	i.Status = domain.IssueStatus(status)
	i.Priority = domain.Priority(priority)
	i.Severity = domain.Severity(severity)
	i.ReportedAt = parseTS(reportedRaw)
	i.UpdatedAt = parseTS(updatedRaw)
	return i, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTS handles nullable ts.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// parseNullTS parses input into a normalized form.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}
