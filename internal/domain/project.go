package domain

import (
	"slices"
	"strings"
	"time"
)

// Project groups tasks and issues. Owner and members control who sees it.
type Project struct {
	ID          string
	Slug        string
	Name        string
	Description string
	OwnerID     string
	MemberIDs   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time
}

// NewProject validates id and name and returns an unowned, unarchived project.
func NewProject(id, name, description string, now time.Time) (Project, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return Project{}, ErrInvalidID
	}
	if name == "" {
		return Project{}, ErrInvalidName
	}

	return Project{
		ID:          id,
		Slug:        normalizeSlug(name),
		Name:        name,
		Description: strings.TrimSpace(description),
		MemberIDs:   []string{},
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// SetOwner sets the owning member.
func (p *Project) SetOwner(memberID string, now time.Time) error {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return ErrInvalidID
	}
	p.OwnerID = memberID
	p.UpdatedAt = now.UTC()
	return nil
}

// SetMembers replaces the project membership list.
func (p *Project) SetMembers(memberIDs []string, now time.Time) {
	p.MemberIDs = normalizeIDs(memberIDs)
	p.UpdatedAt = now.UTC()
}

// HasMember reports whether memberID owns or belongs to the project.
func (p Project) HasMember(memberID string) bool {
	if memberID == "" {
		return false
	}
	return p.OwnerID == memberID || slices.Contains(p.MemberIDs, memberID)
}

// Archive hides the project from default listings.
func (p *Project) Archive(now time.Time) {
	ts := now.UTC()
	p.ArchivedAt = &ts
	p.UpdatedAt = ts
}

// normalizeSlug lowercases s and joins its ASCII letter and digit runs with single dashes.
func normalizeSlug(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	return strings.Join(words, "-")
}

// normalizeIDs trims, dedupes and sorts ids.
func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]struct{}{}
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
