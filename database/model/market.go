package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Climate risk levels of a region.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

type Region struct {
	Id          int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"size:100;uniqueIndex;not null"`
	ClimateRisk string `json:"climateRisk" gorm:"size:10;not null;default:low"`
}

type Crop struct {
	Id       int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name     string `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Category string `json:"category" gorm:"size:50"`
}

type Market struct {
	Id       int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name     string `json:"name" gorm:"size:100;not null"`
	RegionId int    `json:"regionId" gorm:"index;not null"`
	Region   Region `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
}

// Farmer is identified on the farmer portal by its six digit code.
type Farmer struct {
	Id         int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name       string `json:"name" gorm:"size:100;not null"`
	FarmerCode string `json:"farmerCode" gorm:"size:6;uniqueIndex;not null"`
	RegionId   int    `json:"regionId" gorm:"index;not null"`
	Region     Region `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
}

// FarmerRecord is the read-only view of a farmer handed out by code lookup.
type FarmerRecord struct {
	Id     int    `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Region string `json:"region"`
}

// Price is a market price observation for a crop.
type Price struct {
	Id         int             `json:"id" gorm:"primaryKey;autoIncrement"`
	CropId     int             `json:"cropId" gorm:"index;not null"`
	Crop       Crop            `json:"-"`
	MarketId   int             `json:"marketId" gorm:"index;not null"`
	Market     Market          `json:"-"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	RecordedAt time.Time       `json:"recordedAt" gorm:"index;not null"`
}

// SupplyRecord is a quantity of a crop a farmer brought to a market.
type SupplyRecord struct {
	Id           int             `json:"id" gorm:"primaryKey;autoIncrement"`
	FarmerId     int             `json:"farmerId" gorm:"index;not null"`
	Farmer       Farmer          `json:"-"`
	CropId       int             `json:"cropId" gorm:"index;not null"`
	Crop         Crop            `json:"-"`
	MarketId     int             `json:"marketId" gorm:"index;not null"`
	Market       Market          `json:"-"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal(12,2);not null"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit" gorm:"type:decimal(12,2);not null"`
	SuppliedAt   time.Time       `json:"suppliedAt" gorm:"index;not null"`
}
