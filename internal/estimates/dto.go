package estimates

import (
	"time"

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

// Filters describe the inputs supported by the estimate list.
type Filters struct {
	Status *enums.EstimateStatus
	Type   *enums.EstimateType
	Query  string
}

// CreateInput carries the fields for a new estimate. Markup pointers left
// nil fall back to the standard 20/15/20 defaults.
type CreateInput struct {
	ProjectID     uuid.UUID
	Name          string
	Type          enums.EstimateType
	ProfitMargin  *decimal.Decimal
	OverheadCosts *decimal.Decimal
	VATRate       *decimal.Decimal
	ValidUntil    *time.Time
	Notes         *string
	Actor         ActorContext
}

// UpdateInput carries a partial estimate update. Nil fields are untouched.
// Changing any markup percentage triggers recalculation of the derived
// fields in the same transaction.
type UpdateInput struct {
	EstimateID    uuid.UUID
	Name          *string
	Type          *enums.EstimateType
	Status        *enums.EstimateStatus
	ProfitMargin  *decimal.Decimal
	OverheadCosts *decimal.Decimal
	VATRate       *decimal.Decimal
	ValidUntil    *time.Time
	Notes         *string
	Actor         ActorContext
}

// AddItemInput carries the fields for a new line item.
type AddItemInput struct {
	EstimateID    uuid.UUID
	Category      string
	Name          string
	Description   *string
	Unit          string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	LaborCost     *decimal.Decimal
	MaterialCost  *decimal.Decimal
	EquipmentCost *decimal.Decimal
	GOSTCode      *string
	SortOrder     *int
	Notes         *string
	Actor         ActorContext
}

// UpdateItemInput carries a partial line item update. Nil fields are
// untouched; a change to quantity or unit price re-derives total_price.
type UpdateItemInput struct {
	EstimateID    uuid.UUID
	ItemID        uuid.UUID
	Category      *string
	Name          *string
	Description   *string
	Unit          *string
	Quantity      *decimal.Decimal
	UnitPrice     *decimal.Decimal
	LaborCost     *decimal.Decimal
	MaterialCost  *decimal.Decimal
	EquipmentCost *decimal.Decimal
	GOSTCode      *string
	SortOrder     *int
	Notes         *string
	Actor         ActorContext
}

// DeleteItemInput identifies the line item to remove.
type DeleteItemInput struct {
	EstimateID uuid.UUID
	ItemID     uuid.UUID
	Actor      ActorContext
}
