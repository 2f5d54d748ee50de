package warehouse

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stroytech/stroycrm-backend/pkg/enums"
)

// ActorContext identifies who performed a mutation, for audit records.
type ActorContext struct {
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
}

// ItemFilters describe the inputs supported by the stock item list.
type ItemFilters struct {
	Status   *enums.WarehouseItemStatus
	Category string
	Query    string
	LowStock bool
}

// CreateItemInput carries the fields for a new stock position.
type CreateItemInput struct {
	Name            string
	Description     *string
	Article         *string
	Category        string
	Unit            string
	CurrentQuantity *decimal.Decimal
	MinQuantity     *decimal.Decimal
	UnitPrice       *decimal.Decimal
	Location        *string
	Notes           *string
	Actor           ActorContext
}

// UpdateItemInput carries a partial stock item update. Nil fields are
// untouched. current_quantity is never updated directly; stock changes go
// through movements.
type UpdateItemInput struct {
	ItemID      uuid.UUID
	Name        *string
	Description *string
	Article     *string
	Category    *string
	Unit        *string
	MinQuantity *decimal.Decimal
	UnitPrice   *decimal.Decimal
	Location    *string
	Status      *enums.WarehouseItemStatus
	Notes       *string
	Actor       ActorContext
}

// MovementInput records a stock change against an item.
type MovementInput struct {
	ItemID    uuid.UUID
	Type      enums.MovementType
	Quantity  decimal.Decimal
	UnitPrice *decimal.Decimal
	ProjectID *uuid.UUID
	Reason    *string
	Actor     ActorContext
}
