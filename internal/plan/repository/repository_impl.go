package repository

import (
	"context"
	"errors"

	"github.com/koverhq/kover/internal/plan/domain"
	"gorm.io/gorm"
)

type repositoryImpl struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) FindByTag(ctx context.Context, tag string) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.db.WithContext(ctx).Where("tag = ?", tag).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repositoryImpl) List(ctx context.Context) ([]domain.Plan, error) {
	var plans []domain.Plan
	if err := r.db.WithContext(ctx).Order("tag asc").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repositoryImpl) Create(ctx context.Context, plan *domain.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}
