package database

import (
	"encoding/json"
	"log"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/internal/pkg/pricing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedPlans writes the in-code plan catalog into the plans table. It runs
// once at startup so the payment path can assume every catalog plan has a row
// and never has to create one mid-request. Base amounts are the Colombian
// monthly price; per-country pricing stays in pricing.Resolve.
func SeedPlans(db *gorm.DB) error {
	for _, spec := range pricing.Catalog {
		features, err := json.Marshal(spec.Features)
		if err != nil {
			return err
		}

		var baseAmount int64
		currency := "COP"
		if pp, err := pricing.Resolve(pricing.DefaultCountry, spec.Name); err == nil {
			baseAmount = pp.Monthly
			currency = pp.Currency
		}

		plan := models.Plan{
			Name:         spec.Name,
			DisplayName:  spec.DisplayName,
			Description:  spec.Description,
			BaseAmount:   baseAmount,
			Currency:     currency,
			BillingCycle: models.BillingCycleMonthly,
			FeaturesJSON: string(features),
			IsActive:     true,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name",
				"description",
				"base_amount",
				"currency",
				"features_json",
				"is_active",
				"updated_at",
			}),
		}).Create(&plan).Error; err != nil {
			return err
		}
	}

	log.Printf("Seeded %d plans from catalog", len(pricing.Catalog))
	return nil
}
