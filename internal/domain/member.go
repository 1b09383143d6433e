package domain

import (
	"slices"
	"strings"
	"time"
)

// Role controls which projects a member can see.
type Role string

// RoleAdmin and related constants define workspace roles.
const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
	RoleViewer  Role = "viewer"
)

var validRoles = []Role{RoleAdmin, RoleManager, RoleMember, RoleViewer}

// Member is a workspace user.
type Member struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// NewMember constructs a member, defaulting the role to member.
func NewMember(id, name, email string, role Role, now time.Time) (Member, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return Member{}, ErrInvalidID
	}
	if name == "" {
		return Member{}, ErrInvalidName
	}
	if role == "" {
		role = RoleMember
	}
	role = Role(strings.ToLower(strings.TrimSpace(string(role))))
	if !slices.Contains(validRoles, role) {
		return Member{}, ErrInvalidRole
	}
	return Member{
		ID:        id,
		Name:      name,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Role:      role,
		CreatedAt: now.UTC(),
	}, nil
}

// CanView reports whether member may see project: admins see everything, others only the projects
// they own or belong to.
func CanView(member Member, project Project) bool {
	return member.Role == RoleAdmin || project.HasMember(member.ID)
}
