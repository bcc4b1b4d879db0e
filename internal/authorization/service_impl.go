package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/koverhq/kover/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedRolePolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) AssignRole(ctx context.Context, userID, teamID snowflake.ID, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	subject, dom, err := subjectAndDomain(userID, teamID)
	if err != nil {
		return err
	}

	// A user carries one role per team; replace any previous one.
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", dom)
	if err != nil {
		return err
	}
	roleName := fmt.Sprintf("role:%s", role)
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(params...); err != nil {
			return err
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, dom)
	if err != nil {
		return err
	}
	if !has {
		if _, err := s.enforcer.AddGroupingPolicy(subject, roleName, dom); err != nil {
			return err
		}
	}
	return nil
}

func (s *ServiceImpl) GrantPermission(ctx context.Context, userID, teamID snowflake.ID, permission string) error {
	permission = strings.TrimSpace(permission)
	if permission == "" {
		return ErrInvalidPermission
	}
	subject, dom, err := subjectAndDomain(userID, teamID)
	if err != nil {
		return err
	}

	has, err := s.enforcer.HasPolicy(subject, dom, permission)
	if err != nil {
		return err
	}
	if !has {
		if _, err := s.enforcer.AddPolicy(subject, dom, permission); err != nil {
			return err
		}
	}
	return nil
}

func (s *ServiceImpl) Authorize(ctx context.Context, userID, teamID snowflake.ID, permission string) error {
	permission = strings.TrimSpace(permission)
	if permission == "" {
		return ErrInvalidPermission
	}
	subject, dom, err := subjectAndDomain(userID, teamID)
	if err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, dom, permission)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, userID, teamID, permission)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) RolesFor(ctx context.Context, userID, teamID snowflake.ID) ([]string, error) {
	subject, dom, err := subjectAndDomain(userID, teamID)
	if err != nil {
		return nil, err
	}

	rules, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", dom)
	if err != nil {
		return nil, err
	}
	roles := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 2 {
			continue
		}
		roles = append(roles, strings.TrimPrefix(rule[1], "role:"))
	}
	return roles, nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, userID, teamID snowflake.ID, permission string) {
	if s.auditSvc == nil {
		return
	}
	s.auditSvc.Log(ctx, userID, "authorization.denied", map[string]any{
		"team_id":    teamID.String(),
		"permission": permission,
	})
}

func subjectAndDomain(userID, teamID snowflake.ID) (string, string, error) {
	if userID == 0 || teamID == 0 {
		return "", "", ErrInvalidSubject
	}
	return fmt.Sprintf("user:%s", userID.String()), fmt.Sprintf("team:%s", teamID.String()), nil
}

func seedRolePolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:owner", "*", PermissionManageTeam},
		{"role:owner", "*", PermissionManageModules},
		{"role:owner", "*", PermissionViewAuditLog},

		{"role:manager", "*", PermissionManageModules},
		{"role:manager", "*", PermissionViewAuditLog},
	}

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
