package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/pkg/enums"
)

// Client represents a customer organization or individual.
type Client struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Type          enums.ClientType   `gorm:"column:type;not null"`
	Name          string             `gorm:"column:name;not null"`
	LegalName     *string            `gorm:"column:legal_name"`
	INN           *string            `gorm:"column:inn"`
	KPP           *string            `gorm:"column:kpp"`
	OGRN          *string            `gorm:"column:ogrn"`
	Address       *string            `gorm:"column:address"`
	LegalAddress  *string            `gorm:"column:legal_address"`
	Phone         *string            `gorm:"column:phone"`
	Email         *string            `gorm:"column:email"`
	ContactPerson *string            `gorm:"column:contact_person"`
	ContactPhone  *string            `gorm:"column:contact_phone"`
	ContactEmail  *string            `gorm:"column:contact_email"`
	BankName      *string            `gorm:"column:bank_name"`
	BankAccount   *string            `gorm:"column:bank_account"`
	BankBIK       *string            `gorm:"column:bank_bik"`
	Status        enums.ClientStatus `gorm:"column:status;not null;default:potential"`
	Source        *string            `gorm:"column:source"`
	Notes         *string            `gorm:"column:notes"`
	CreatedBy     uuid.UUID          `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Client) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
