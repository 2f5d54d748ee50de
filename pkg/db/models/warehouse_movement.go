package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/pkg/enums"
)

// WarehouseMovement records a stock change against a warehouse item.
type WarehouseMovement struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ItemID    uuid.UUID          `gorm:"column:item_id;type:uuid;not null;index"`
	Type      enums.MovementType `gorm:"column:type;not null"`
	Quantity  decimal.Decimal    `gorm:"column:quantity;type:numeric(14,3);not null"`
	UnitPrice decimal.Decimal    `gorm:"column:unit_price;type:numeric(14,2);not null"`
	TotalCost decimal.Decimal    `gorm:"column:total_cost;type:numeric(14,2);not null"`
	ProjectID *uuid.UUID         `gorm:"column:project_id;type:uuid"`
	Reason    *string            `gorm:"column:reason"`
	CreatedBy uuid.UUID          `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (m *WarehouseMovement) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
