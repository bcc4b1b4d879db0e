package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/koverhq/kover/internal/audit/domain"
	authdomain "github.com/koverhq/kover/internal/auth/domain"
	"github.com/koverhq/kover/internal/authorization"
	"github.com/koverhq/kover/internal/events"
	modulesdomain "github.com/koverhq/kover/internal/modules/domain"
	"github.com/koverhq/kover/internal/onboarding/domain"
	plandomain "github.com/koverhq/kover/internal/plan/domain"
	referencedomain "github.com/koverhq/kover/internal/reference/domain"
	subscriptiondomain "github.com/koverhq/kover/internal/subscription/domain"
	"github.com/koverhq/kover/pkg/db"
	"github.com/koverhq/kover/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          domain.Repository
	Users         authdomain.Repository
	Plans         plandomain.Service
	Subscriptions subscriptiondomain.Service
	Reference     referencedomain.Repository
	Authz         authorization.Service
	Queue         modulesdomain.Queue
	Publisher     events.Publisher
	Audit         auditdomain.Service
	Metrics       *telemetry.Metrics `optional:"true"`
}

type provisionerImpl struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          domain.Repository
	users         authdomain.Repository
	plans         plandomain.Service
	subscriptions subscriptiondomain.Service
	reference     referencedomain.Repository
	authz         authorization.Service
	queue         modulesdomain.Queue
	publisher     events.Publisher
	audit         auditdomain.Service
	metrics       *telemetry.Metrics
}

func NewProvisioner(p Params) domain.Provisioner {
	return &provisionerImpl{
		db:            p.DB,
		log:           p.Log.Named("onboarding.provisioner"),
		genID:         p.GenID,
		repo:          p.Repo,
		users:         p.Users,
		plans:         p.Plans,
		subscriptions: p.Subscriptions,
		reference:     p.Reference,
		authz:         p.Authz,
		queue:         p.Queue,
		publisher:     p.Publisher,
		audit:         p.Audit,
		metrics:       p.Metrics,
	}
}

// Provision creates the whole tenant in one transaction. Enqueueing the
// module install and publishing the provisioned event happen only after the
// transaction commits, so a rollback never leaves orphaned jobs or phantom
// events.
func (p *provisionerImpl) Provision(ctx context.Context, userID snowflake.ID, form domain.OnboardingForm) (*domain.ProvisionResult, error) {
	started := time.Now()

	user, err := p.validate(ctx, userID, &form)
	if err != nil {
		return nil, err
	}

	planTag := plandomain.ResolveTag(form.Rooms, form.BillingCycle)

	now := time.Now().UTC()
	team := &domain.Team{
		ID:        p.genID.Generate(),
		Name:      form.Name,
		OwnerID:   user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var result domain.ProvisionResult
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := p.repo.WithTx(tx)
		if err := repo.CreateTeam(ctx, team); err != nil {
			return err
		}

		plan, err := p.plans.GetByTag(ctx, planTag)
		if err != nil {
			return err
		}

		// The subscription service owns trial-status semantics.
		sub, err := p.subscriptions.WithTx(tx).Create(ctx, subscriptiondomain.CreateSubscriptionRequest{
			TeamID:    team.ID,
			PlanID:    plan.ID,
			TrialDays: plan.TrialDays,
		})
		if err != nil {
			return err
		}

		company := &domain.Company{
			ID:         p.genID.Generate(),
			TeamID:     team.ID,
			OwnerID:    user.ID,
			Name:       form.Name,
			Slug:       slug.Make(form.Name),
			Type:       form.Type,
			Rooms:      form.Rooms,
			City:       form.City,
			CountryID:  form.CountryID,
			CurrencyID: form.CurrencyID,
			Website:    form.Website,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := repo.CreateCompany(ctx, company); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrWebsiteTaken
			}
			return err
		}

		err = p.users.WithTx(tx).UpdateFields(ctx, user.ID, map[string]any{
			"company_id":  company.ID,
			"team_id":     team.ID,
			"language_id": form.LanguageID,
		})
		if err != nil {
			return err
		}

		// Role and permission grants run last so any earlier failure keeps
		// the policy store untouched.
		if err := p.authz.AssignRole(ctx, user.ID, team.ID, form.Role); err != nil {
			return err
		}
		if err := p.authz.GrantPermission(ctx, user.ID, team.ID, authorization.PermissionManageSubscription); err != nil {
			return err
		}

		result = domain.ProvisionResult{
			Team:         team,
			Company:      company,
			Subscription: sub,
			PlanTag:      planTag,
		}
		return nil
	})
	if err != nil {
		p.metrics.Provisioning("failure")
		p.log.Error("tenant provisioning failed",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("plan_tag", planTag),
		)
		return nil, err
	}

	p.afterCommit(ctx, user, &result)

	p.metrics.Provisioning("success")
	p.metrics.ObserveProvisionDuration(time.Since(started).Seconds())
	return &result, nil
}

// afterCommit flushes the deferred actions. All of them are best-effort: the
// tenant is already committed, so failures are logged, never returned.
func (p *provisionerImpl) afterCommit(ctx context.Context, user *authdomain.User, result *domain.ProvisionResult) {
	if err := p.queue.Enqueue(ctx, result.Company.ID, user.ID); err != nil {
		p.log.Error("failed to enqueue module install",
			zap.Error(err),
			zap.String("company_id", result.Company.ID.String()),
		)
	}

	payload := events.CompanyProvisionedPayload{
		CompanyID:      result.Company.ID.String(),
		TeamID:         result.Team.ID.String(),
		SubscriptionID: result.Subscription.ID.String(),
		PlanTag:        result.PlanTag,
	}
	if err := p.publisher.Publish(ctx, events.CompanyProvisionedTopic, payload); err != nil {
		p.log.Error("failed to publish provisioned event",
			zap.Error(err),
			zap.String("company_id", result.Company.ID.String()),
		)
	}

	p.audit.Log(ctx, user.ID, "company.provisioned", map[string]any{
		"company_id": result.Company.ID.String(),
		"team_id":    result.Team.ID.String(),
		"plan_tag":   result.PlanTag,
	})
}

func (p *provisionerImpl) validate(ctx context.Context, userID snowflake.ID, form *domain.OnboardingForm) (*authdomain.User, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	user, err := p.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.CompanyID != nil {
		return nil, domain.ErrAlreadyOnboard
	}

	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		return nil, domain.ErrInvalidName
	}
	if form.Rooms <= 0 {
		return nil, domain.ErrInvalidCapacity
	}
	if !authorization.ValidRole(form.Role) {
		return nil, authorization.ErrInvalidRole
	}
	if form.Website != nil {
		trimmed := strings.TrimSpace(*form.Website)
		if trimmed == "" {
			form.Website = nil
		} else {
			form.Website = &trimmed
		}
	}

	ok, err := p.reference.CountryExists(ctx, form.CountryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidCountry
	}
	ok, err = p.reference.CurrencyExists(ctx, form.CurrencyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidCurrency
	}
	ok, err = p.reference.LanguageExists(ctx, form.LanguageID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidLanguage
	}

	return user, nil
}

func (p *provisionerImpl) WebsiteExists(ctx context.Context, website string) (bool, error) {
	return p.repo.WebsiteExists(ctx, website)
}
