package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/pkg/enums"
)

// Estimate represents a project cost estimate. TotalCost and FinalAmount are
// derived columns: they are recomputed from the item rows and the markup
// percentages whenever either side changes, never written directly by callers.
type Estimate struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ProjectID     uuid.UUID            `gorm:"column:project_id;type:uuid;not null;index"`
	Name          string               `gorm:"column:name;not null"`
	Type          enums.EstimateType   `gorm:"column:type;not null;default:preliminary"`
	Status        enums.EstimateStatus `gorm:"column:status;not null;default:draft"`
	ProfitMargin  decimal.Decimal      `gorm:"column:profit_margin;type:numeric(5,2);not null"`
	OverheadCosts decimal.Decimal      `gorm:"column:overhead_costs;type:numeric(5,2);not null"`
	VATRate       decimal.Decimal      `gorm:"column:vat_rate;type:numeric(5,2);not null"`
	TotalCost     decimal.Decimal      `gorm:"column:total_cost;type:numeric(14,2);not null"`
	FinalAmount   decimal.Decimal      `gorm:"column:final_amount;type:numeric(14,2);not null"`
	ValidUntil    *time.Time           `gorm:"column:valid_until"`
	Notes         *string              `gorm:"column:notes"`
	CreatedBy     uuid.UUID            `gorm:"column:created_by;type:uuid;not null"`
	ApprovedBy    *uuid.UUID           `gorm:"column:approved_by;type:uuid"`
	ApprovedAt    *time.Time           `gorm:"column:approved_at"`
	Items         []EstimateItem       `gorm:"foreignKey:EstimateID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *Estimate) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
