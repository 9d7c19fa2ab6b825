package service

import (
	"context"
	"testing"
	"time"

	"github.com/agriintel/agri-intel/database/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newReportFixture(t *testing.T) (*fixture, *ReportService) {
	t.Helper()
	f := newFixture(t)
	day := 24 * time.Hour

	f.price(t, "Rice", "Alpha", 30, time.Date(2024, 4, 10, 8, 0, 0, 0, time.UTC))
	f.price(t, "Rice", "Gamma", 20, fixedNow.Add(-60*day))
	f.price(t, "Rice", "Alpha", 34, time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC))
	f.price(t, "Rice", "Beta", 36, time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC))
	f.price(t, "Rice", "Alpha", 40, fixedNow.Add(-2*day))
	f.price(t, "Rice", "Beta", 46, fixedNow.Add(-3*day))
	f.price(t, "Rice", "Gamma", 38, fixedNow.Add(-1*day))
	f.price(t, "Potato", "Alpha", 18, fixedNow.Add(-1*day))
	f.price(t, "Potato", "Gamma", 18, fixedNow.Add(-1*day))

	f.supply(t, "Karim", "Rice", "Alpha", 500)
	f.supply(t, "Jamal", "Rice", "Alpha", 100)
	f.supply(t, "Karim", "Potato", "Beta", 50)
	f.supply(t, "Rahima", "Potato", "Gamma", 300)

	svc := NewReportService(f.db)
	svc.now = func() time.Time { return fixedNow }
	return f, svc
}

func TestSummary(t *testing.T) {
	_, svc := newReportFixture(t)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, sum.Regions)
	assert.EqualValues(t, 2, sum.Crops)
	assert.EqualValues(t, 3, sum.Markets)
	assert.EqualValues(t, 3, sum.Farmers)
	assert.EqualValues(t, 4, sum.SupplyRecords)
	assert.InDelta(t, 280.0/9.0, sum.AveragePrice, 0.001)
}

func TestPriceGap(t *testing.T) {
	_, svc := newReportFixture(t)

	rows, err := svc.PriceGap(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, PriceGapRow{Crop: "Rice", HighPrice: 46, HighMarket: "Beta", LowPrice: 38, LowMarket: "Gamma", Gap: 8}, rows[0])
	assert.Equal(t, "Potato", rows[1].Crop)
	assert.Zero(t, rows[1].Gap)
}

func TestMarketSaturation(t *testing.T) {
	f, svc := newReportFixture(t)
	f.create(t, &model.Market{Name: "Delta", RegionId: f.regions["South"].Id})

	rows, err := svc.MarketSaturation(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, SaturationRow{Market: "Alpha", Region: "North", Farmers: 2, Records: 2, TotalQuantity: 600}, rows[0])
	assert.Equal(t, "Gamma", rows[1].Market)
	assert.Equal(t, "Beta", rows[2].Market)
	assert.Equal(t, SaturationRow{Market: "Delta", Region: "South"}, rows[3])

	north, err := svc.MarketSaturation(context.Background(), f.regions["North"].Id)
	require.NoError(t, err)
	require.Len(t, north, 2)
	assert.Equal(t, "Alpha", north[0].Market)
	assert.Equal(t, "Beta", north[1].Market)
}

func TestPriceTrend(t *testing.T) {
	f, svc := newReportFixture(t)
	rice := f.crops["Rice"].Id

	rows, err := svc.PriceTrend(context.Background(), rice, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "2024-04", rows[0].Period)
	assert.InDelta(t, 25, rows[0].AvgPrice, 0.001)
	assert.EqualValues(t, 20, rows[0].MinPrice)
	assert.EqualValues(t, 30, rows[0].MaxPrice)
	assert.EqualValues(t, 2, rows[0].Samples)

	assert.Equal(t, "2024-05", rows[1].Period)
	assert.InDelta(t, 35, rows[1].AvgPrice, 0.001)

	assert.Equal(t, "2024-06", rows[2].Period)
	assert.InDelta(t, 124.0/3.0, rows[2].AvgPrice, 0.001)
	assert.EqualValues(t, 3, rows[2].Samples)

	rows, err = svc.PriceTrend(context.Background(), rice, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-05", rows[0].Period)
}

func TestOversupply(t *testing.T) {
	_, svc := newReportFixture(t)

	rows, err := svc.Oversupply(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Potato", rows[0].Crop)
	assert.Equal(t, "Gamma", rows[0].Market)
	assert.InDelta(t, 300, rows[0].TotalQuantity, 0.001)
	assert.InDelta(t, 175, rows[0].CropAverage, 0.001)

	rows, err = svc.Oversupply(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestClimateRisk(t *testing.T) {
	_, svc := newReportFixture(t)

	rows, err := svc.ClimateRisk(context.Background(), model.RiskHigh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ClimateRiskRow{Region: "North", Risk: "high", Crop: "Rice", Farmers: 2, TotalQuantity: 600}, rows[0])
	assert.Equal(t, ClimateRiskRow{Region: "North", Risk: "high", Crop: "Potato", Farmers: 1, TotalQuantity: 50}, rows[1])

	rows, err = svc.ClimateRisk(context.Background(), model.RiskMedium)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTopFarmers(t *testing.T) {
	_, svc := newReportFixture(t)

	rows, err := svc.TopFarmers(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, TopFarmerRow{FarmerRank: 1, Farmer: "Karim", Region: "North", TotalQuantity: 550}, rows[0])
	assert.Equal(t, TopFarmerRow{FarmerRank: 2, Farmer: "Rahima", Region: "South", TotalQuantity: 300}, rows[1])
	assert.Equal(t, TopFarmerRow{FarmerRank: 3, Farmer: "Jamal", Region: "North", TotalQuantity: 100}, rows[2])

	rows, err = svc.TopFarmers(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRunValidatesParams(t *testing.T) {
	_, svc := newReportFixture(t)
	ctx := context.Background()

	tests := []struct {
		report string
		params ReportParams
		field  string
	}{
		{"price-trend", ReportParams{}, "crop_id"},
		{"price-trend", ReportParams{"crop_id": "abc"}, "crop_id"},
		{"price-trend", ReportParams{"crop_id": "1", "months": "99"}, "months"},
		{"price-gap", ReportParams{"days": "0"}, "days"},
		{"climate-risk", ReportParams{"level": "extreme"}, "level"},
		{"top-farmers", ReportParams{"limit": "1000"}, "limit"},
		{"oversupply", ReportParams{"factor": "0.5"}, "factor"},
		{"oversupply", ReportParams{"factor": "NaN"}, "factor"},
		{"oversupply", ReportParams{"factor": "+Inf"}, "factor"},
		{"market-saturation", ReportParams{"region_id": "-1"}, "region_id"},
	}
	for _, tt := range tests {
		t.Run(tt.report+"/"+tt.field, func(t *testing.T) {
			report := FindReport(tt.report)
			require.NotNil(t, report)
			table, errs, err := svc.Run(ctx, report, tt.params)
			require.NoError(t, err)
			assert.Nil(t, table)
			assert.True(t, errs.Has(tt.field), "errors: %v", errs)
		})
	}
}

func TestRunBuildsTable(t *testing.T) {
	_, svc := newReportFixture(t)

	table, errs, err := svc.Run(context.Background(), FindReport("top-farmers"), ReportParams{"limit": "1"})
	require.NoError(t, err)
	assert.False(t, errs.Any())
	assert.Equal(t, []string{"Rank", "Farmer", "Region", "Total quantity"}, table.Columns)
	assert.Equal(t, [][]string{{"1", "Karim", "North", "550.00"}}, table.Rows)

	assert.Nil(t, FindReport("weather"))
}

func TestPriceTrendPostgresBucket(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{})
	require.NoError(t, err)
	svc := NewReportService(conn)
	svc.now = func() time.Time { return fixedNow }

	rows := sqlmock.NewRows([]string{"period", "avg_price", "min_price", "max_price", "samples"}).
		AddRow("2024-06", 41.5, 38.0, 46.0, 3)
	mock.ExpectQuery(`SELECT to_char\(p.recorded_at, 'YYYY-MM'\) AS period`).
		WithArgs(7, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(rows)

	trend, err := svc.PriceTrend(context.Background(), 7, 1)
	require.NoError(t, err)
	require.Len(t, trend, 1)
	assert.Equal(t, "2024-06", trend[0].Period)
	assert.NoError(t, mock.ExpectationsWereMet())
}
