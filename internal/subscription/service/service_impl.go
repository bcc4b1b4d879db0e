package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/koverhq/kover/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	Repo  domain.Repository
	GenID *snowflake.Node
}

type serviceImpl struct {
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func NewService(p Params) domain.Service {
	return &serviceImpl{
		log:   p.Log.Named("subscription.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req domain.CreateSubscriptionRequest) (*domain.Subscription, error) {
	now := time.Now().UTC()
	sub := &domain.Subscription{
		ID:        s.genID.Generate(),
		TeamID:    req.TeamID,
		PlanID:    req.PlanID,
		Status:    domain.SubscriptionStatusActive,
		StartAt:   now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.TrialDays > 0 {
		trialEnd := now.AddDate(0, 0, req.TrialDays)
		sub.Status = domain.SubscriptionStatusTrialing
		sub.TrialEndsAt = &trialEnd
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *serviceImpl) GetByTeam(ctx context.Context, teamID snowflake.ID) (*domain.Subscription, error) {
	return s.repo.FindByTeam(ctx, teamID)
}

func (s *serviceImpl) WithTx(tx *gorm.DB) domain.Service {
	return &serviceImpl{
		log:   s.log,
		repo:  s.repo.WithTx(tx),
		genID: s.genID,
	}
}
