package service

import (
	"context"

	"github.com/agriintel/agri-intel/database/model"
	"github.com/agriintel/agri-intel/web/entity"

	"gorm.io/gorm"
)

// CatalogService lists the reference data used to fill select boxes.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) Crops(ctx context.Context) ([]entity.Option, error) {
	var crops []model.Crop
	if err := s.db.WithContext(ctx).Order("name").Find(&crops).Error; err != nil {
		return nil, err
	}
	opts := make([]entity.Option, 0, len(crops))
	for _, c := range crops {
		opts = append(opts, entity.Option{Value: c.Id, Label: c.Name})
	}
	return opts, nil
}

func (s *CatalogService) Markets(ctx context.Context) ([]entity.Option, error) {
	type row struct {
		Id     int
		Name   string
		Region string
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Table("markets AS m").
		Select("m.id AS id, m.name AS name, r.name AS region").
		Joins("JOIN regions r ON r.id = m.region_id").
		Order("m.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	opts := make([]entity.Option, 0, len(rows))
	for _, r := range rows {
		opts = append(opts, entity.Option{Value: r.Id, Label: r.Name + " (" + r.Region + ")"})
	}
	return opts, nil
}

func (s *CatalogService) Regions(ctx context.Context) ([]entity.Option, error) {
	var regions []model.Region
	if err := s.db.WithContext(ctx).Order("name").Find(&regions).Error; err != nil {
		return nil, err
	}
	opts := make([]entity.Option, 0, len(regions))
	for _, r := range regions {
		opts = append(opts, entity.Option{Value: r.Id, Label: r.Name})
	}
	return opts, nil
}

func (s *CatalogService) exists(ctx context.Context, m any, id int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(m).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
