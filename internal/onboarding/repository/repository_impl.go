package repository

import (
	"context"
	"strings"

	"github.com/koverhq/kover/internal/onboarding/domain"
	"gorm.io/gorm"
)

type repositoryImpl struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) domain.Repository {
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateTeam(ctx context.Context, team *domain.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *repositoryImpl) CreateCompany(ctx context.Context, company *domain.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *repositoryImpl) WebsiteExists(ctx context.Context, website string) (bool, error) {
	website = strings.TrimSpace(website)
	if website == "" {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Company{}).
		Where("website = ?", website).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
