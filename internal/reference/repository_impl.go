package reference

import (
	"context"

	"github.com/koverhq/kover/internal/reference/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) ListCountries(ctx context.Context) ([]domain.Country, error) {
	var countries []domain.Country
	err := r.db.WithContext(ctx).Order("name asc").Find(&countries).Error
	if err != nil {
		return nil, err
	}
	return countries, nil
}

func (r *repository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	var currencies []domain.Currency
	err := r.db.WithContext(ctx).Order("code asc").Find(&currencies).Error
	if err != nil {
		return nil, err
	}
	return currencies, nil
}

func (r *repository) ListLanguages(ctx context.Context) ([]domain.Language, error) {
	var languages []domain.Language
	err := r.db.WithContext(ctx).Order("name asc").Find(&languages).Error
	if err != nil {
		return nil, err
	}
	return languages, nil
}

func (r *repository) CountryExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, &domain.Country{}, id)
}

func (r *repository) CurrencyExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, &domain.Currency{}, id)
}

func (r *repository) LanguageExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, &domain.Language{}, id)
}

func (r *repository) exists(ctx context.Context, model any, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
