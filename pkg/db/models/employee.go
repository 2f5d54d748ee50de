package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/pkg/enums"
)

// Employee represents a staff member on the payroll.
type Employee struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID          *uuid.UUID           `gorm:"column:user_id;type:uuid"`
	FirstName       string               `gorm:"column:first_name;not null"`
	LastName        string               `gorm:"column:last_name;not null"`
	MiddleName      *string              `gorm:"column:middle_name"`
	Position        string               `gorm:"column:position;not null"`
	Department      string               `gorm:"column:department;not null"`
	Phone           string               `gorm:"column:phone;not null"`
	Email           *string              `gorm:"column:email"`
	HireDate        time.Time            `gorm:"column:hire_date;not null"`
	TerminationDate *time.Time           `gorm:"column:termination_date"`
	Salary          *decimal.Decimal     `gorm:"column:salary;type:numeric(12,2)"`
	Status          enums.EmployeeStatus `gorm:"column:status;not null;default:active"`
	Notes           *string              `gorm:"column:notes"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *Employee) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
