package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/pkg/enums"
)

// WarehouseItem represents a stocked material or tool.
type WarehouseItem struct {
	ID              uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	Name            string                    `gorm:"column:name;not null"`
	Description     *string                   `gorm:"column:description"`
	Article         *string                   `gorm:"column:article"`
	Category        string                    `gorm:"column:category;not null"`
	Unit            string                    `gorm:"column:unit;not null"`
	CurrentQuantity decimal.Decimal           `gorm:"column:current_quantity;type:numeric(14,3);not null"`
	MinQuantity     decimal.Decimal           `gorm:"column:min_quantity;type:numeric(14,3);not null"`
	UnitPrice       decimal.Decimal           `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Location        *string                   `gorm:"column:location"`
	Status          enums.WarehouseItemStatus `gorm:"column:status;not null;default:active"`
	Notes           *string                   `gorm:"column:notes"`
	CreatedAt       time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *WarehouseItem) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
