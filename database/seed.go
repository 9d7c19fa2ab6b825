package database

import (
	"fmt"
	"time"

	"github.com/agriintel/agri-intel/database/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed loads a small demo data set of regions, crops, markets, farmers,
// prices and supply records. It does nothing when regions already exist.
func Seed(conn *gorm.DB, now time.Time) error {
	var count int64
	if err := conn.Model(&model.Region{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return conn.Transaction(func(tx *gorm.DB) error {
		regions := []*model.Region{
			{Name: "Rajshahi", ClimateRisk: model.RiskHigh},
			{Name: "Bogura", ClimateRisk: model.RiskMedium},
			{Name: "Dhaka", ClimateRisk: model.RiskLow},
		}
		if err := tx.Create(&regions).Error; err != nil {
			return fmt.Errorf("seed regions: %w", err)
		}

		crops := []*model.Crop{
			{Name: "Rice", Category: "Grain"},
			{Name: "Potato", Category: "Vegetable"},
			{Name: "Mango", Category: "Fruit"},
		}
		if err := tx.Create(&crops).Error; err != nil {
			return fmt.Errorf("seed crops: %w", err)
		}

		markets := []*model.Market{
			{Name: "Shaheb Bazar", RegionId: regions[0].Id},
			{Name: "Mohasthan Haat", RegionId: regions[1].Id},
			{Name: "Kawran Bazar", RegionId: regions[2].Id},
		}
		if err := tx.Omit(clause.Associations).Create(&markets).Error; err != nil {
			return fmt.Errorf("seed markets: %w", err)
		}

		farmers := []*model.Farmer{
			{Name: "Karim", FarmerCode: "123456", RegionId: regions[0].Id},
			{Name: "Rahima", FarmerCode: "654321", RegionId: regions[1].Id},
			{Name: "Jamal", FarmerCode: "112233", RegionId: regions[0].Id},
		}
		if err := tx.Omit(clause.Associations).Create(&farmers).Error; err != nil {
			return fmt.Errorf("seed farmers: %w", err)
		}

		base := map[int]int64{crops[0].Id: 42, crops[1].Id: 18, crops[2].Id: 95}
		var prices []*model.Price
		for month := 0; month < 4; month++ {
			at := now.AddDate(0, -month, 0)
			for _, crop := range crops {
				for i, market := range markets {
					p := base[crop.Id] + int64(i*3) - int64(month)
					prices = append(prices, &model.Price{
						CropId:     crop.Id,
						MarketId:   market.Id,
						Price:      decimal.NewFromInt(p),
						RecordedAt: at,
					})
				}
			}
		}
		if err := tx.Omit(clause.Associations).Create(&prices).Error; err != nil {
			return fmt.Errorf("seed prices: %w", err)
		}

		supply := []*model.SupplyRecord{
			{FarmerId: farmers[0].Id, CropId: crops[0].Id, MarketId: markets[0].Id, Quantity: decimal.NewFromInt(500), PricePerUnit: decimal.NewFromInt(41)},
			{FarmerId: farmers[0].Id, CropId: crops[2].Id, MarketId: markets[2].Id, Quantity: decimal.NewFromInt(120), PricePerUnit: decimal.NewFromInt(99)},
			{FarmerId: farmers[1].Id, CropId: crops[1].Id, MarketId: markets[1].Id, Quantity: decimal.NewFromInt(800), PricePerUnit: decimal.NewFromInt(20)},
			{FarmerId: farmers[2].Id, CropId: crops[0].Id, MarketId: markets[0].Id, Quantity: decimal.NewFromInt(150), PricePerUnit: decimal.NewFromInt(43)},
			{FarmerId: farmers[1].Id, CropId: crops[0].Id, MarketId: markets[2].Id, Quantity: decimal.NewFromInt(100), PricePerUnit: decimal.NewFromInt(44)},
		}
		for _, s := range supply {
			s.SuppliedAt = now
		}
		if err := tx.Omit(clause.Associations).Create(&supply).Error; err != nil {
			return fmt.Errorf("seed supply records: %w", err)
		}
		return nil
	})
}
