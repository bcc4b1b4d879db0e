package service

import (
	"context"

	"github.com/koverhq/kover/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo domain.Repository
}

type serviceImpl struct {
	log  *zap.Logger
	repo domain.Repository
}

func NewService(p Params) domain.Service {
	return &serviceImpl{
		log:  p.Log.Named("plan.service"),
		repo: p.Repo,
	}
}

func (s *serviceImpl) GetByTag(ctx context.Context, tag string) (*domain.Plan, error) {
	return s.repo.FindByTag(ctx, tag)
}

func (s *serviceImpl) List(ctx context.Context) ([]domain.Plan, error) {
	return s.repo.List(ctx)
}
