package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Roles a user can hold within a team. The onboarding form picks one.
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Permission names. PermissionManageSubscription is granted to every
// provisioning user regardless of role.
const (
	PermissionManageSubscription = "manage_kover_subscription"
	PermissionManageTeam         = "manage_team"
	PermissionManageModules      = "manage_modules"
	PermissionViewAuditLog       = "view_audit_log"
)

var (
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidPermission = errors.New("invalid permission")
	ErrInvalidSubject    = errors.New("invalid subject")
	ErrForbidden         = errors.New("forbidden")
)

// Service is the role/permission store. Roles and direct permission grants
// are scoped to a team.
type Service interface {
	AssignRole(ctx context.Context, userID, teamID snowflake.ID, role string) error
	GrantPermission(ctx context.Context, userID, teamID snowflake.ID, permission string) error
	Authorize(ctx context.Context, userID, teamID snowflake.ID, permission string) error
	RolesFor(ctx context.Context, userID, teamID snowflake.ID) ([]string, error)
}

// ValidRole reports whether the role is one the platform knows about.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleManager, RoleStaff:
		return true
	}
	return false
}
