package authorization_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/koverhq/kover/internal/authorization"
	"github.com/koverhq/kover/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) (authorization.Service, *snowflake.Node) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)

	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := authorization.NewService(authorization.Params{
		Log:      zap.NewNop(),
		Enforcer: enforcer,
	})
	return svc, node
}

func TestAssignRoleGrantsRolePermissions(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()
	userID, teamID := node.Generate(), node.Generate()

	require.NoError(t, svc.AssignRole(ctx, userID, teamID, authorization.RoleOwner))
	require.NoError(t, svc.Authorize(ctx, userID, teamID, authorization.PermissionManageTeam))

	roles, err := svc.RolesFor(ctx, userID, teamID)
	require.NoError(t, err)
	require.Equal(t, []string{authorization.RoleOwner}, roles)
}

func TestAssignRoleReplacesPreviousRole(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()
	userID, teamID := node.Generate(), node.Generate()

	require.NoError(t, svc.AssignRole(ctx, userID, teamID, authorization.RoleOwner))
	require.NoError(t, svc.AssignRole(ctx, userID, teamID, authorization.RoleStaff))

	roles, err := svc.RolesFor(ctx, userID, teamID)
	require.NoError(t, err)
	require.Equal(t, []string{authorization.RoleStaff}, roles)

	// Staff lost the owner-only permission with the role swap.
	err = svc.Authorize(ctx, userID, teamID, authorization.PermissionManageTeam)
	require.ErrorIs(t, err, authorization.ErrForbidden)
}

func TestAssignRoleRejectsUnknownRole(t *testing.T) {
	svc, node := newService(t)

	err := svc.AssignRole(context.Background(), node.Generate(), node.Generate(), "superuser")
	require.ErrorIs(t, err, authorization.ErrInvalidRole)
}

func TestAuthorizeDeniesAcrossTeams(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()
	userID := node.Generate()
	home, other := node.Generate(), node.Generate()

	require.NoError(t, svc.AssignRole(ctx, userID, home, authorization.RoleOwner))

	require.NoError(t, svc.Authorize(ctx, userID, home, authorization.PermissionManageTeam))
	err := svc.Authorize(ctx, userID, other, authorization.PermissionManageTeam)
	require.ErrorIs(t, err, authorization.ErrForbidden)
}

func TestGrantPermissionIsDirect(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()
	userID, teamID := node.Generate(), node.Generate()

	// A direct grant works without any role.
	require.NoError(t, svc.GrantPermission(ctx, userID, teamID, authorization.PermissionManageSubscription))
	require.NoError(t, svc.Authorize(ctx, userID, teamID, authorization.PermissionManageSubscription))

	err := svc.Authorize(ctx, userID, teamID, authorization.PermissionManageTeam)
	require.ErrorIs(t, err, authorization.ErrForbidden)
}

func TestGrantPermissionIdempotent(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()
	userID, teamID := node.Generate(), node.Generate()

	require.NoError(t, svc.GrantPermission(ctx, userID, teamID, authorization.PermissionManageSubscription))
	require.NoError(t, svc.GrantPermission(ctx, userID, teamID, authorization.PermissionManageSubscription))
	require.NoError(t, svc.Authorize(ctx, userID, teamID, authorization.PermissionManageSubscription))
}
