package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/agriintel/agri-intel/config"
	"github.com/agriintel/agri-intel/database"
	"github.com/agriintel/agri-intel/database/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// fixedNow is the clock used by every sqlite backed test.
var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db      *gorm.DB
	regions map[string]*model.Region
	crops   map[string]*model.Crop
	markets map[string]*model.Market
	farmers map[string]*model.Farmer
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Type:   config.DatabaseTypeSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	conn, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// newFixture loads two regions, two crops, three markets and three farmers.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:      openTestDB(t),
		regions: map[string]*model.Region{},
		crops:   map[string]*model.Crop{},
		markets: map[string]*model.Market{},
		farmers: map[string]*model.Farmer{},
	}
	for _, r := range []*model.Region{
		{Name: "North", ClimateRisk: model.RiskHigh},
		{Name: "South", ClimateRisk: model.RiskLow},
	} {
		f.create(t, r)
		f.regions[r.Name] = r
	}
	for _, c := range []*model.Crop{{Name: "Rice", Category: "Grain"}, {Name: "Potato", Category: "Vegetable"}} {
		f.create(t, c)
		f.crops[c.Name] = c
	}
	for _, m := range []*model.Market{
		{Name: "Alpha", RegionId: f.regions["North"].Id},
		{Name: "Beta", RegionId: f.regions["North"].Id},
		{Name: "Gamma", RegionId: f.regions["South"].Id},
	} {
		f.create(t, m)
		f.markets[m.Name] = m
	}
	for _, fm := range []*model.Farmer{
		{Name: "Karim", FarmerCode: "123456", RegionId: f.regions["North"].Id},
		{Name: "Rahima", FarmerCode: "654321", RegionId: f.regions["South"].Id},
		{Name: "Jamal", FarmerCode: "112233", RegionId: f.regions["North"].Id},
	} {
		f.create(t, fm)
		f.farmers[fm.Name] = fm
	}
	return f
}

func (f *fixture) create(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, f.db.Omit(clause.Associations).Create(v).Error)
}

func (f *fixture) price(t *testing.T, crop, market string, price int64, at time.Time) {
	f.create(t, &model.Price{
		CropId:     f.crops[crop].Id,
		MarketId:   f.markets[market].Id,
		Price:      decimal.NewFromInt(price),
		RecordedAt: at,
	})
}

func (f *fixture) supply(t *testing.T, farmer, crop, market string, qty int64) {
	f.create(t, &model.SupplyRecord{
		FarmerId:     f.farmers[farmer].Id,
		CropId:       f.crops[crop].Id,
		MarketId:     f.markets[market].Id,
		Quantity:     decimal.NewFromInt(qty),
		PricePerUnit: decimal.NewFromInt(10),
		SuppliedAt:   fixedNow,
	})
}
