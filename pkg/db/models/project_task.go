package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/pkg/enums"
)

// ProjectTask represents a unit of work inside a project schedule.
type ProjectTask struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ProjectID      uuid.UUID        `gorm:"column:project_id;type:uuid;not null;index"`
	Name           string           `gorm:"column:name;not null"`
	Description    *string          `gorm:"column:description"`
	Type           *string          `gorm:"column:type"`
	Status         enums.TaskStatus `gorm:"column:status;not null;default:pending"`
	Priority       enums.Priority   `gorm:"column:priority;not null;default:normal"`
	AssignedTo     *uuid.UUID       `gorm:"column:assigned_to;type:uuid"`
	ContractorID   *uuid.UUID       `gorm:"column:contractor_id;type:uuid"`
	StartDate      *time.Time       `gorm:"column:start_date"`
	EndDate        *time.Time       `gorm:"column:end_date"`
	EstimatedHours *decimal.Decimal `gorm:"column:estimated_hours;type:numeric(8,2)"`
	ActualHours    *decimal.Decimal `gorm:"column:actual_hours;type:numeric(8,2)"`
	Progress       decimal.Decimal  `gorm:"column:progress;type:numeric(5,2);not null"`
	Dependencies   *string          `gorm:"column:dependencies"`
	Notes          *string          `gorm:"column:notes"`
	CreatedBy      uuid.UUID        `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *ProjectTask) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
