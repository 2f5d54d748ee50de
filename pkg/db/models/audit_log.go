package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records a mutation performed through the API. OldValues and
// NewValues hold JSON snapshots of the affected row.
type AuditLog struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	Action    string     `gorm:"column:action;not null"`
	TableName string     `gorm:"column:table_name;not null"`
	RecordID  *string    `gorm:"column:record_id"`
	OldValues *string    `gorm:"column:old_values;type:text"`
	NewValues *string    `gorm:"column:new_values;type:text"`
	IPAddress *string    `gorm:"column:ip_address"`
	UserAgent *string    `gorm:"column:user_agent"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
