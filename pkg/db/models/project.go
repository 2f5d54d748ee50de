package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/pkg/enums"
)

// Project represents a construction project.
type Project struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name             string              `gorm:"column:name;not null"`
	Description      *string             `gorm:"column:description"`
	ClientID         *uuid.UUID          `gorm:"column:client_id;type:uuid"`
	Type             enums.ProjectType   `gorm:"column:type;not null"`
	Status           enums.ProjectStatus `gorm:"column:status;not null;default:planning"`
	Priority         enums.Priority      `gorm:"column:priority;not null;default:normal"`
	StartDate        *time.Time          `gorm:"column:start_date"`
	PlannedEndDate   *time.Time          `gorm:"column:planned_end_date"`
	ActualEndDate    *time.Time          `gorm:"column:actual_end_date"`
	Budget           decimal.Decimal     `gorm:"column:budget;type:numeric(14,2);not null"`
	ActualCost       decimal.Decimal     `gorm:"column:actual_cost;type:numeric(14,2);not null"`
	Address          *string             `gorm:"column:address"`
	TotalArea        *decimal.Decimal    `gorm:"column:total_area;type:numeric(10,2)"`
	BuildingFloors   *int                `gorm:"column:building_floors"`
	Progress         decimal.Decimal     `gorm:"column:progress;type:numeric(5,2);not null"`
	ProjectManagerID *uuid.UUID          `gorm:"column:project_manager_id;type:uuid"`
	SiteManagerID    *uuid.UUID          `gorm:"column:site_manager_id;type:uuid"`
	ForemanID        *uuid.UUID          `gorm:"column:foreman_id;type:uuid"`
	Notes            *string             `gorm:"column:notes"`
	CreatedBy        uuid.UUID           `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Project) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
