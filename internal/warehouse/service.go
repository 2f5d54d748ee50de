package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/internal/audit"
	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines warehouse operations. Stock levels change only through
// movements; each movement and its quantity adjustment run in one
// transaction holding the item row.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*models.WarehouseItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.WarehouseItem, error)
	ListItems(ctx context.Context, params pagination.Params, filters ItemFilters) ([]models.WarehouseItem, int64, error)
	UpdateItem(ctx context.Context, input UpdateItemInput) (*models.WarehouseItem, error)

	RecordMovement(ctx context.Context, input MovementInput) (*models.WarehouseMovement, error)
	ListMovements(ctx context.Context, itemID uuid.UUID, params pagination.Params) ([]models.WarehouseMovement, int64, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	auditor audit.Recorder
}

// NewService builds a warehouse service. The audit recorder may be nil.
func NewService(repo Repository, tx txRunner, auditor audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("warehouse repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, auditor: auditor}, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.WarehouseItem, error) {
	name := strings.TrimSpace(input.Name)
	category := strings.TrimSpace(input.Category)
	unit := strings.TrimSpace(input.Unit)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}
	if category == "" || unit == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category and unit required")
	}

	item := &models.WarehouseItem{
		Name:            name,
		Description:     input.Description,
		Article:         input.Article,
		Category:        category,
		Unit:            unit,
		CurrentQuantity: decimal.Zero,
		MinQuantity:     decimal.Zero,
		UnitPrice:       decimal.Zero,
		Location:        input.Location,
		Status:          enums.WarehouseItemStatusActive,
		Notes:           input.Notes,
	}
	if input.CurrentQuantity != nil {
		if input.CurrentQuantity.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "current quantity must not be negative")
		}
		item.CurrentQuantity = *input.CurrentQuantity
	}
	if input.MinQuantity != nil {
		if input.MinQuantity.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min quantity must not be negative")
		}
		item.MinQuantity = *input.MinQuantity
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
		}
		item.UnitPrice = *input.UnitPrice
	}

	created, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create warehouse item")
	}

	s.record(ctx, input.Actor, "CREATE", "warehouse_items", created.ID.String(), nil, created)
	return created, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*models.WarehouseItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.repo.FindItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse item")
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, params pagination.Params, filters ItemFilters) ([]models.WarehouseItem, int64, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid item status")
	}
	items, total, err := s.repo.ListItems(ctx, pagination.Normalize(params), filters)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list warehouse items")
	}
	return items, total, nil
}

func (s *service) UpdateItem(ctx context.Context, input UpdateItemInput) (*models.WarehouseItem, error) {
	before, err := s.GetItem(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
		}
		fields["name"] = name
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category required")
		}
		fields["category"] = category
	}
	if input.Unit != nil {
		unit := strings.TrimSpace(*input.Unit)
		if unit == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit required")
		}
		fields["unit"] = unit
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item status")
		}
		fields["status"] = *input.Status
	}
	if input.MinQuantity != nil {
		if input.MinQuantity.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min quantity must not be negative")
		}
		fields["min_quantity"] = *input.MinQuantity
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
		}
		fields["unit_price"] = *input.UnitPrice
	}
	applyOptional(fields, map[string]*string{
		"description": input.Description,
		"article":     input.Article,
		"location":    input.Location,
		"notes":       input.Notes,
	})

	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	if err := s.repo.UpdateItemFields(ctx, input.ItemID, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update warehouse item")
	}

	after, err := s.GetItem(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}

	s.record(ctx, input.Actor, "UPDATE", "warehouse_items", input.ItemID.String(), before, after)
	return after, nil
}

func (s *service) RecordMovement(ctx context.Context, input MovementInput) (*models.WarehouseMovement, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UnitPrice != nil && input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}

	var movement *models.WarehouseMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItemForUpdate(ctx, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "warehouse item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse item")
		}

		next := nextQuantity(item.CurrentQuantity, input.Type, input.Quantity)
		if next.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock")
		}

		unitPrice := item.UnitPrice
		if input.UnitPrice != nil {
			unitPrice = *input.UnitPrice
		}
		movement = &models.WarehouseMovement{
			ItemID:    item.ID,
			Type:      input.Type,
			Quantity:  input.Quantity,
			UnitPrice: unitPrice,
			TotalCost: input.Quantity.Mul(unitPrice).Round(2),
			ProjectID: input.ProjectID,
			Reason:    input.Reason,
			CreatedBy: input.Actor.UserID,
		}
		if _, err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create movement")
		}
		err = repo.UpdateItemFields(ctx, item.ID, map[string]any{"current_quantity": next})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock level")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, input.Actor, "CREATE", "warehouse_movements", movement.ID.String(), nil, movement)
	return movement, nil
}

func (s *service) ListMovements(ctx context.Context, itemID uuid.UUID, params pagination.Params) ([]models.WarehouseMovement, int64, error) {
	if itemID == uuid.Nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, 0, err
	}
	movements, total, err := s.repo.ListMovements(ctx, itemID, pagination.Normalize(params))
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	return movements, total, nil
}

// nextQuantity applies a movement to the current stock level. Receipts
// add; issues, write-offs and transfers subtract.
func nextQuantity(current decimal.Decimal, movementType enums.MovementType, quantity decimal.Decimal) decimal.Decimal {
	if movementType == enums.MovementTypeReceipt {
		return current.Add(quantity)
	}
	return current.Sub(quantity)
}

func (s *service) record(ctx context.Context, actor ActorContext, action, table, recordID string, oldValues, newValues any) {
	if s.auditor == nil {
		return
	}
	entry := audit.Entry{
		Action:    action,
		TableName: table,
		RecordID:  recordID,
		OldValues: oldValues,
		NewValues: newValues,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	}
	if actor.UserID != uuid.Nil {
		userID := actor.UserID
		entry.UserID = &userID
	}
	s.auditor.Record(ctx, entry)
}

func applyOptional(fields map[string]any, updates map[string]*string) {
	for column, value := range updates {
		if value != nil {
			fields[column] = *value
		}
	}
}
