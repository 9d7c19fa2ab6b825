package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/agriintel/agri-intel/database/model"
	"github.com/agriintel/agri-intel/web/entity"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SupplyForm is the raw farmer supply submission.
type SupplyForm struct {
	CropId       string `form:"crop_id" validate:"required,number"`
	MarketId     string `form:"market_id" validate:"required,number"`
	Quantity     string `form:"quantity" validate:"required,numeric"`
	PricePerUnit string `form:"price_per_unit" validate:"required,numeric"`
}

// SupplyEntry is a supply record as listed on the farmer page.
type SupplyEntry struct {
	Crop         string
	Market       string
	Quantity     decimal.Decimal
	PricePerUnit decimal.Decimal
	SuppliedAt   time.Time
}

var supplyValidate = newFormValidator()

// newFormValidator reports struct field errors under their form names.
func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(tag string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "number":
		return "Please choose a valid option."
	case "numeric":
		return "Must be a number."
	}
	return "Invalid value."
}

// SupplyService records what verified farmers bring to market.
type SupplyService struct {
	db      *gorm.DB
	catalog *CatalogService
	now     func() time.Time
}

func NewSupplyService(db *gorm.DB) *SupplyService {
	return &SupplyService{
		db:      db,
		catalog: NewCatalogService(db),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates form and stores a supply record for farmerId.
func (s *SupplyService) Submit(ctx context.Context, farmerId int, form SupplyForm) (entity.FieldErrors, error) {
	errs := entity.FieldErrors{}
	if farmerId <= 0 {
		return nil, fmt.Errorf("submit supply: invalid farmer id %d", farmerId)
	}

	form.CropId = strings.TrimSpace(form.CropId)
	form.MarketId = strings.TrimSpace(form.MarketId)
	form.Quantity = strings.TrimSpace(form.Quantity)
	form.PricePerUnit = strings.TrimSpace(form.PricePerUnit)

	if err := supplyValidate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		for _, fe := range verrs {
			errs.Add(fe.Field(), validationMessage(fe.Tag()))
		}
	}

	rec := &model.SupplyRecord{FarmerId: farmerId}
	if !errs.Has("quantity") {
		rec.Quantity = parsePositive(errs, "quantity", form.Quantity)
	}
	if !errs.Has("price_per_unit") {
		rec.PricePerUnit = parsePositive(errs, "price_per_unit", form.PricePerUnit)
	}
	if !errs.Has("crop_id") {
		rec.CropId, _ = strconv.Atoi(form.CropId)
		ok, err := s.catalog.exists(ctx, &model.Crop{}, rec.CropId)
		if err != nil {
			return nil, err
		}
		if !ok {
			errs.Add("crop_id", "Unknown crop.")
		}
	}
	if !errs.Has("market_id") {
		rec.MarketId, _ = strconv.Atoi(form.MarketId)
		ok, err := s.catalog.exists(ctx, &model.Market{}, rec.MarketId)
		if err != nil {
			return nil, err
		}
		if !ok {
			errs.Add("market_id", "Unknown market.")
		}
	}
	if errs.Any() {
		return errs, nil
	}

	rec.SuppliedAt = s.now()
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("insert supply record: %w", err)
	}
	return errs, nil
}

func parsePositive(errs entity.FieldErrors, field, raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		errs.Add(field, validationMessage("numeric"))
		return decimal.Zero
	}
	d = d.Round(2)
	if !d.IsPositive() {
		errs.Add(field, "Must be greater than zero.")
		return decimal.Zero
	}
	return d
}

// Recent returns the latest supply records of farmerId, newest first.
func (s *SupplyService) Recent(ctx context.Context, farmerId int, limit int) ([]SupplyEntry, error) {
	var rows []SupplyEntry
	err := s.db.WithContext(ctx).
		Table("supply_records AS s").
		Select("c.name AS crop, m.name AS market, s.quantity AS quantity, s.price_per_unit AS price_per_unit, s.supplied_at AS supplied_at").
		Joins("JOIN crops c ON c.id = s.crop_id").
		Joins("JOIN markets m ON m.id = s.market_id").
		Where("s.farmer_id = ?", farmerId).
		Order("s.supplied_at DESC, s.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Options lists the crops and markets offered by the supply form.
func (s *SupplyService) Options(ctx context.Context) (crops, markets []entity.Option, err error) {
	if crops, err = s.catalog.Crops(ctx); err != nil {
		return nil, nil, err
	}
	if markets, err = s.catalog.Markets(ctx); err != nil {
		return nil, nil, err
	}
	return crops, markets, nil
}
