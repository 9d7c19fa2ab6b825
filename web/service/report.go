package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agriintel/agri-intel/database"
	"github.com/agriintel/agri-intel/database/model"
	"github.com/agriintel/agri-intel/web/entity"

	"gorm.io/gorm"
)

// Summary is the dashboard headline numbers.
type Summary struct {
	Regions       int64   `json:"regions"`
	Crops         int64   `json:"crops"`
	Markets       int64   `json:"markets"`
	Farmers       int64   `json:"farmers"`
	SupplyRecords int64   `json:"supplyRecords"`
	AveragePrice  float64 `json:"averagePrice"`
}

type PriceGapRow struct {
	Crop       string  `json:"crop"`
	HighPrice  float64 `json:"highPrice"`
	HighMarket string  `json:"highMarket"`
	LowPrice   float64 `json:"lowPrice"`
	LowMarket  string  `json:"lowMarket"`
	Gap        float64 `json:"gap"`
}

type SaturationRow struct {
	Market        string  `json:"market"`
	Region        string  `json:"region"`
	Farmers       int64   `json:"farmers"`
	Records       int64   `json:"records"`
	TotalQuantity float64 `json:"totalQuantity"`
}

type TrendRow struct {
	Period   string  `json:"period"`
	AvgPrice float64 `json:"avgPrice"`
	MinPrice float64 `json:"minPrice"`
	MaxPrice float64 `json:"maxPrice"`
	Samples  int64   `json:"samples"`
}

type OversupplyRow struct {
	Crop          string  `json:"crop"`
	Market        string  `json:"market"`
	TotalQuantity float64 `json:"totalQuantity"`
	CropAverage   float64 `json:"cropAverage"`
}

type ClimateRiskRow struct {
	Region        string  `json:"region"`
	Risk          string  `json:"risk"`
	Crop          string  `json:"crop"`
	Farmers       int64   `json:"farmers"`
	TotalQuantity float64 `json:"totalQuantity"`
}

type TopFarmerRow struct {
	FarmerRank    int64   `json:"rank"`
	Farmer        string  `json:"farmer"`
	Region        string  `json:"region"`
	TotalQuantity float64 `json:"totalQuantity"`
}

// ReportService runs the aggregation queries behind the dashboard pages.
// Each report is a single parameterised query.
type ReportService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ReportService) Summary(ctx context.Context) (*Summary, error) {
	db := s.db.WithContext(ctx)
	sum := &Summary{}
	counts := []struct {
		model any
		dest  *int64
	}{
		{&model.Region{}, &sum.Regions},
		{&model.Crop{}, &sum.Crops},
		{&model.Market{}, &sum.Markets},
		{&model.Farmer{}, &sum.Farmers},
		{&model.SupplyRecord{}, &sum.SupplyRecords},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("summary count %T: %w", c.model, err)
		}
	}
	if err := db.Raw("SELECT COALESCE(AVG(price), 0) FROM prices").Row().Scan(&sum.AveragePrice); err != nil {
		return nil, fmt.Errorf("summary average price: %w", err)
	}
	return sum, nil
}

// PriceGap pairs, for every crop, its highest and lowest price of the last
// days days with the markets that reported them.
func (s *ReportService) PriceGap(ctx context.Context, days int) ([]PriceGapRow, error) {
	const q = `
SELECT c.name AS crop,
       hi.price AS high_price, mh.name AS high_market,
       lo.price AS low_price, ml.name AS low_market,
       hi.price - lo.price AS gap
FROM crops c
JOIN prices hi ON hi.crop_id = c.id
JOIN prices lo ON lo.crop_id = c.id
JOIN markets mh ON mh.id = hi.market_id
JOIN markets ml ON ml.id = lo.market_id
WHERE hi.id = (SELECT p.id FROM prices p WHERE p.crop_id = c.id AND p.recorded_at >= @since ORDER BY p.price DESC, p.id LIMIT 1)
  AND lo.id = (SELECT p.id FROM prices p WHERE p.crop_id = c.id AND p.recorded_at >= @since ORDER BY p.price ASC, p.id LIMIT 1)
ORDER BY gap DESC, c.name`

	since := s.now().AddDate(0, 0, -days)
	var rows []PriceGapRow
	err := s.db.WithContext(ctx).Raw(q, map[string]any{"since": since}).Scan(&rows).Error
	return rows, wrap("price gap", err)
}

// MarketSaturation counts supplying farmers and volume per market. A
// regionId of 0 means all regions.
func (s *ReportService) MarketSaturation(ctx context.Context, regionId int) ([]SaturationRow, error) {
	q := `
SELECT m.name AS market, r.name AS region,
       COUNT(DISTINCT s.farmer_id) AS farmers,
       COUNT(s.id) AS records,
       COALESCE(SUM(s.quantity), 0) AS total_quantity
FROM markets m
JOIN regions r ON r.id = m.region_id
LEFT JOIN supply_records s ON s.market_id = m.id`
	args := map[string]any{}
	if regionId > 0 {
		q += "\nWHERE m.region_id = @region"
		args["region"] = regionId
	}
	q += `
GROUP BY m.id, m.name, r.name
ORDER BY total_quantity DESC, m.name`

	var rows []SaturationRow
	err := s.db.WithContext(ctx).Raw(q, args).Scan(&rows).Error
	return rows, wrap("market saturation", err)
}

// PriceTrend buckets the prices of cropId by calendar month over the last
// months months, oldest first.
func (s *ReportService) PriceTrend(ctx context.Context, cropId int, months int) ([]TrendRow, error) {
	bucket := "strftime('%Y-%m', p.recorded_at)"
	if !database.IsSQLite(s.db) {
		bucket = "to_char(p.recorded_at, 'YYYY-MM')"
	}
	q := `
SELECT ` + bucket + ` AS period,
       AVG(p.price) AS avg_price,
       MIN(p.price) AS min_price,
       MAX(p.price) AS max_price,
       COUNT(*) AS samples
FROM prices p
WHERE p.crop_id = @crop AND p.recorded_at >= @since
GROUP BY ` + bucket + `
ORDER BY period`

	now := s.now()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	var rows []TrendRow
	err := s.db.WithContext(ctx).Raw(q, map[string]any{"crop": cropId, "since": since}).Scan(&rows).Error
	return rows, wrap("price trend", err)
}

// Oversupply lists crop/market pairs whose supplied volume exceeds factor
// times the crop's average volume per market.
func (s *ReportService) Oversupply(ctx context.Context, factor float64) ([]OversupplyRow, error) {
	const avg = `(SELECT SUM(s2.quantity) * 1.0 / COUNT(DISTINCT s2.market_id) FROM supply_records s2 WHERE s2.crop_id = s.crop_id)`
	const q = `
SELECT c.name AS crop, m.name AS market,
       SUM(s.quantity) AS total_quantity,
       ` + avg + ` AS crop_average
FROM supply_records s
JOIN crops c ON c.id = s.crop_id
JOIN markets m ON m.id = s.market_id
GROUP BY s.crop_id, s.market_id, c.name, m.name
HAVING SUM(s.quantity) > @factor * ` + avg + `
ORDER BY c.name, total_quantity DESC`

	var rows []OversupplyRow
	err := s.db.WithContext(ctx).Raw(q, map[string]any{"factor": factor}).Scan(&rows).Error
	return rows, wrap("oversupply", err)
}

// ClimateRisk lists what farmers in regions of the given risk level supply.
func (s *ReportService) ClimateRisk(ctx context.Context, level string) ([]ClimateRiskRow, error) {
	const q = `
SELECT r.name AS region, r.climate_risk AS risk, c.name AS crop,
       COUNT(DISTINCT f.id) AS farmers,
       SUM(s.quantity) AS total_quantity
FROM regions r
JOIN farmers f ON f.region_id = r.id
JOIN supply_records s ON s.farmer_id = f.id
JOIN crops c ON c.id = s.crop_id
WHERE r.climate_risk = @level
GROUP BY r.id, r.name, r.climate_risk, c.id, c.name
ORDER BY total_quantity DESC, r.name, c.name`

	var rows []ClimateRiskRow
	err := s.db.WithContext(ctx).Raw(q, map[string]any{"level": level}).Scan(&rows).Error
	return rows, wrap("climate risk", err)
}

// TopFarmers ranks farmers by total supplied quantity. Ties share a rank.
func (s *ReportService) TopFarmers(ctx context.Context, limit int) ([]TopFarmerRow, error) {
	const q = `
SELECT (SELECT COUNT(*) FROM (SELECT SUM(s2.quantity) AS total FROM supply_records s2 GROUP BY s2.farmer_id) o
        WHERE o.total > t.total) + 1 AS farmer_rank,
       f.name AS farmer, r.name AS region,
       t.total AS total_quantity
FROM (SELECT s.farmer_id AS farmer_id, SUM(s.quantity) AS total FROM supply_records s GROUP BY s.farmer_id) t
JOIN farmers f ON f.id = t.farmer_id
JOIN regions r ON r.id = f.region_id
ORDER BY farmer_rank, f.name
LIMIT @limit`

	var rows []TopFarmerRow
	err := s.db.WithContext(ctx).Raw(q, map[string]any{"limit": limit}).Scan(&rows).Error
	return rows, wrap("top farmers", err)
}

func wrap(report string, err error) error {
	if err != nil {
		return fmt.Errorf("%s report: %w", report, err)
	}
	return nil
}

// ReportParams are the raw query parameters of a report page.
type ReportParams map[string]string

func (p ReportParams) intParam(errs entity.FieldErrors, name string, def, min, max int) int {
	raw := strings.TrimSpace(p[name])
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		errs.Add(name, fmt.Sprintf("Must be a whole number between %d and %d.", min, max))
		return def
	}
	return n
}

// Report describes one report page.
type Report struct {
	Name     string
	TitleKey string
	Columns  []string
	Params   []string
	run      func(ctx context.Context, s *ReportService, p ReportParams, errs entity.FieldErrors) ([][]string, error)
}

// Reports lists every report in menu order.
var Reports = []*Report{
	{
		Name:     "price-gap",
		TitleKey: "pages.reports.priceGap",
		Columns:  []string{"Crop", "Highest", "Market", "Lowest", "Market", "Gap"},
		Params:   []string{"days"},
		run: func(ctx context.Context, s *ReportService, p ReportParams, errs entity.FieldErrors) ([][]string, error) {
			days := p.intParam(errs, "days", 30, 1, 365)
			if errs.Any() {
				return nil, nil
			}
			rows, err := s.PriceGap(ctx, days)
			return cells(rows, func(r PriceGapRow) []string {
				return []string{r.Crop, money(r.HighPrice), r.HighMarket, money(r.LowPrice), r.LowMarket, money(r.Gap)}
			}), err
		},
	},
	{
		Name:     "market-saturation",
		TitleKey: "pages.reports.marketSaturation",
		Columns:  []string{"Market", "Region", "Farmers", "Records", "Total quantity"},
		Params:   []string{"region_id"},
		run: func(ctx context.Context, s *ReportService, p ReportParams, errs entity.FieldErrors) ([][]string, error) {
			region := p.intParam(errs, "region_id", 0, 0, 1<<31-1)
			if errs.Any() {
				return nil, nil
			}
			rows, err := s.MarketSaturation(ctx, region)
			return cells(rows, func(r SaturationRow) []string {
				return []string{r.Market, r.Region, count(r.Farmers), count(r.Records), money(r.TotalQuantity)}
			}), err
		},
	},
	{
		Name:     "price-trend",
		TitleKey: "pages.reports.priceTrend",
		Columns:  []string{"Month", "Average", "Lowest", "Highest", "Samples"},
		Params:   []string{"crop_id", "months"},
		run: func(ctx context.Context, s *ReportService, p ReportParams, errs entity.FieldErrors) ([][]string, error) {
			if strings.TrimSpace(p["crop_id"]) == "" {
				errs.Add("crop_id", "Please choose a crop.")
			}
			crop := p.intParam(errs, "crop_id", 0, 1, 1<<31-1)
			months := p.intParam(errs, "months", 6, 1, 24)
			if errs.Any() {
				return nil, nil
			}
			rows, err := s.PriceTrend(ctx, crop, months)
			return cells(rows, func(r TrendRow) []string {
				return []string{r.Period, money(r.AvgPrice), money(r.MinPrice), money(r.MaxPrice), count(r.Samples)}
			}), err
		},
	},
	{
		Name:     "oversupply",
		TitleKey: "pages.reports.oversupply",
		Columns:  []string{"Crop", "Market", "Supplied", "Crop average"},
		Params:   []string{"factor"},
		run: func(ctx context.Context, s *ReportService, p ReportParams, errs entity.FieldErrors) ([][]string, error) {
			factor := 1.0
			if raw := strings.TrimSpace(p["factor"]); raw != "" {
				f, err := strconv.ParseFloat(raw, 64)
				if err != nil || !(f >= 1 && f <= 10) {
					errs.Add("factor", "Must be a number between 1 and 10.")
				} else {
					factor = f
				}
			}
			if errs.Any() {
				return nil, nil
			}
			rows, err := s.Oversupply(ctx, factor)
			return cells(rows, func(r OversupplyRow) []string {
				return []string{r.Crop, r.Market, money(r.TotalQuantity), money(r.CropAverage)}
			}), err
		},
	},
	{
		Name:     "climate-risk",
		TitleKey: "pages.reports.climateRisk",
		Columns:  []string{"Region", "Risk", "Crop", "Farmers", "Total quantity"},
		Params:   []string{"level"},
		run: func(ctx context.Context, s *ReportService, p ReportParams, errs entity.FieldErrors) ([][]string, error) {
			level := strings.ToLower(strings.TrimSpace(p["level"]))
			switch level {
			case "":
				level = model.RiskHigh
			case model.RiskLow, model.RiskMedium, model.RiskHigh:
			default:
				errs.Add("level", "Must be one of low, medium or high.")
				return nil, nil
			}
			rows, err := s.ClimateRisk(ctx, level)
			return cells(rows, func(r ClimateRiskRow) []string {
				return []string{r.Region, r.Risk, r.Crop, count(r.Farmers), money(r.TotalQuantity)}
			}), err
		},
	},
	{
		Name:     "top-farmers",
		TitleKey: "pages.reports.topFarmers",
		Columns:  []string{"Rank", "Farmer", "Region", "Total quantity"},
		Params:   []string{"limit"},
		run: func(ctx context.Context, s *ReportService, p ReportParams, errs entity.FieldErrors) ([][]string, error) {
			limit := p.intParam(errs, "limit", 10, 1, 100)
			if errs.Any() {
				return nil, nil
			}
			rows, err := s.TopFarmers(ctx, limit)
			return cells(rows, func(r TopFarmerRow) []string {
				return []string{count(r.FarmerRank), r.Farmer, r.Region, money(r.TotalQuantity)}
			}), err
		},
	},
}

// FindReport returns the report called name, or nil.
func FindReport(name string) *Report {
	for _, r := range Reports {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Run validates params and executes report. Invalid parameters come back as
// field errors with a nil table.
func (s *ReportService) Run(ctx context.Context, report *Report, params ReportParams) (*entity.Table, entity.FieldErrors, error) {
	errs := entity.FieldErrors{}
	rows, err := report.run(ctx, s, params, errs)
	if err != nil {
		return nil, nil, err
	}
	if errs.Any() {
		return nil, errs, nil
	}
	return &entity.Table{Columns: report.Columns, Rows: rows}, errs, nil
}

func cells[T any](rows []T, fn func(T) []string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fn(r))
	}
	return out
}
