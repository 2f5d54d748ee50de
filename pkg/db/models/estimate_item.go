package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EstimateItem represents a single priced line inside an estimate. TotalPrice
// is always quantity times unit price; it is recomputed on every write, not
// only on insert. The labor/material/equipment columns are an informational
// breakdown and are not validated to sum to TotalPrice.
type EstimateItem struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	EstimateID    uuid.UUID        `gorm:"column:estimate_id;type:uuid;not null;index"`
	Category      string           `gorm:"column:category;not null"`
	Name          string           `gorm:"column:name;not null"`
	Description   *string          `gorm:"column:description"`
	Unit          string           `gorm:"column:unit;not null"`
	Quantity      decimal.Decimal  `gorm:"column:quantity;type:numeric(14,3);not null"`
	UnitPrice     decimal.Decimal  `gorm:"column:unit_price;type:numeric(14,2);not null"`
	TotalPrice    decimal.Decimal  `gorm:"column:total_price;type:numeric(14,2);not null"`
	LaborCost     *decimal.Decimal `gorm:"column:labor_cost;type:numeric(14,2)"`
	MaterialCost  *decimal.Decimal `gorm:"column:material_cost;type:numeric(14,2)"`
	EquipmentCost *decimal.Decimal `gorm:"column:equipment_cost;type:numeric(14,2)"`
	GOSTCode      *string          `gorm:"column:gost_code"`
	SortOrder     int              `gorm:"column:sort_order;not null;default:0"`
	Notes         *string          `gorm:"column:notes"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *EstimateItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
