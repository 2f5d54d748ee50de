package warehouse

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

// Repository provides durable access to warehouse items and movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateItem(ctx context.Context, item *models.WarehouseItem) (*models.WarehouseItem, error)
	FindItem(ctx context.Context, id uuid.UUID) (*models.WarehouseItem, error)
	FindItemForUpdate(ctx context.Context, id uuid.UUID) (*models.WarehouseItem, error)
	ListItems(ctx context.Context, params pagination.Params, filters ItemFilters) ([]models.WarehouseItem, int64, error)
	UpdateItemFields(ctx context.Context, id uuid.UUID, fields map[string]any) error

	CreateMovement(ctx context.Context, movement *models.WarehouseMovement) (*models.WarehouseMovement, error)
	ListMovements(ctx context.Context, itemID uuid.UUID, params pagination.Params) ([]models.WarehouseMovement, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a warehouse repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateItem(ctx context.Context, item *models.WarehouseItem) (*models.WarehouseItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) FindItem(ctx context.Context, id uuid.UUID) (*models.WarehouseItem, error) {
	var item models.WarehouseItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemForUpdate loads the item row under a FOR UPDATE lock so that
// concurrent movements serialize on the stock level. SQLite has no row
// locks; its single-writer transaction model already provides the same
// guarantee, so the clause is skipped there.
func (r *repository) FindItemForUpdate(ctx context.Context, id uuid.UUID) (*models.WarehouseItem, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item models.WarehouseItem
	if err := query.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, params pagination.Params, filters ItemFilters) ([]models.WarehouseItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WarehouseItem{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("name LIKE ? OR description LIKE ? OR article LIKE ?", pattern, pattern, pattern)
	}
	if filters.LowStock {
		query = query.Where("current_quantity < min_quantity")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.WarehouseItem
	err := query.
		Order("name ASC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) UpdateItemFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.WarehouseItem{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.WarehouseMovement) (*models.WarehouseMovement, error) {
	if err := r.db.WithContext(ctx).Create(movement).Error; err != nil {
		return nil, err
	}
	return movement, nil
}

func (r *repository) ListMovements(ctx context.Context, itemID uuid.UUID, params pagination.Params) ([]models.WarehouseMovement, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.WarehouseMovement{}).
		Where("item_id = ?", itemID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movements []models.WarehouseMovement
	err := query.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&movements).Error
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}
