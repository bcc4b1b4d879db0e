// Package seed bootstraps the plan catalog and onboarding reference data so
// a fresh install is usable out of the box.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/koverhq/kover/internal/plan/domain"
	planrepository "github.com/koverhq/kover/internal/plan/repository"
	referencedomain "github.com/koverhq/kover/internal/reference/domain"
	"gorm.io/gorm"
)

// EnsurePlans seeds the four resolvable plans. Existing rows are left alone.
func EnsurePlans(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	plans := []plandomain.Plan{
		{Tag: "starter-monthly", Name: "Starter Monthly", Tier: plandomain.TierStarter, Cycle: plandomain.CycleMonthly, AmountCent: 2900, Currency: "USD", TrialDays: 14},
		{Tag: "starter-yearly", Name: "Starter Yearly", Tier: plandomain.TierStarter, Cycle: plandomain.CycleYearly, AmountCent: 29000, Currency: "USD", TrialDays: 14},
		{Tag: "spark-monthly", Name: "Spark Monthly", Tier: plandomain.TierSpark, Cycle: plandomain.CycleMonthly, AmountCent: 7900, Currency: "USD", TrialDays: 14},
		{Tag: "spark-yearly", Name: "Spark Yearly", Tier: plandomain.TierSpark, Cycle: plandomain.CycleYearly, AmountCent: 79000, Currency: "USD", TrialDays: 14},
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := planrepository.Provide(tx)
		now := time.Now().UTC()
		for _, plan := range plans {
			_, err := repo.FindByTag(ctx, plan.Tag)
			if err == nil {
				continue
			}
			if !errors.Is(err, plandomain.ErrPlanNotFound) {
				return err
			}

			plan.ID = node.Generate()
			plan.CreatedAt = now
			plan.UpdatedAt = now
			if err := repo.Create(ctx, &plan); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureReferenceData seeds a starter set of countries, currencies, and
// languages used by the onboarding form.
func EnsureReferenceData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	countries := []referencedomain.Country{
		{ID: 1, Code: "US", Name: "United States"},
		{ID: 2, Code: "GB", Name: "United Kingdom"},
		{ID: 3, Code: "DE", Name: "Germany"},
		{ID: 4, Code: "FR", Name: "France"},
		{ID: 5, Code: "ES", Name: "Spain"},
		{ID: 6, Code: "IT", Name: "Italy"},
		{ID: 7, Code: "ID", Name: "Indonesia"},
		{ID: 8, Code: "SG", Name: "Singapore"},
	}

	euro := "€"
	dollar := "$"
	pound := "£"
	rupiah := "Rp"
	currencies := []referencedomain.Currency{
		{ID: 1, Code: "USD", Name: "US Dollar", Symbol: &dollar},
		{ID: 2, Code: "EUR", Name: "Euro", Symbol: &euro},
		{ID: 3, Code: "GBP", Name: "Pound Sterling", Symbol: &pound},
		{ID: 4, Code: "IDR", Name: "Indonesian Rupiah", Symbol: &rupiah},
	}

	languages := []referencedomain.Language{
		{ID: 1, Code: "en", Name: "English"},
		{ID: 2, Code: "de", Name: "German"},
		{ID: 3, Code: "fr", Name: "French"},
		{ID: 4, Code: "es", Name: "Spanish"},
		{ID: 5, Code: "id", Name: "Indonesian"},
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, country := range countries {
			country.CreatedAt = now
			if err := ensureRow(tx, &referencedomain.Country{}, country.ID, &country); err != nil {
				return err
			}
		}
		for _, currency := range currencies {
			currency.CreatedAt = now
			if err := ensureRow(tx, &referencedomain.Currency{}, currency.ID, &currency); err != nil {
				return err
			}
		}
		for _, language := range languages {
			language.CreatedAt = now
			if err := ensureRow(tx, &referencedomain.Language{}, language.ID, &language); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureRow(tx *gorm.DB, model any, id int64, row any) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return tx.Create(row).Error
}
