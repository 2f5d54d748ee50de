package estimates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

// Repository provides durable access to estimates and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, estimate *models.Estimate) (*models.Estimate, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, params pagination.Params, filters Filters) ([]models.Estimate, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error

	CreateItem(ctx context.Context, item *models.EstimateItem) (*models.EstimateItem, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.EstimateItem, error)
	ListItems(ctx context.Context, estimateID uuid.UUID) ([]models.EstimateItem, error)
	UpdateItemFields(ctx context.Context, itemID uuid.UUID, fields map[string]any) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an estimates repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, estimate *models.Estimate) (*models.Estimate, error) {
	if err := r.db.WithContext(ctx).Create(estimate).Error; err != nil {
		return nil, err
	}
	return estimate, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	var estimate models.Estimate
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&estimate).Error
	if err != nil {
		return nil, err
	}
	return &estimate, nil
}

// FindByIDForUpdate loads the estimate row under a row-level lock so that
// concurrent item mutations on the same estimate serialize. SQLite has no
// row locks; its single-writer transaction model already provides the same
// guarantee, so the clause is skipped there.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var estimate models.Estimate
	if err := query.Where("id = ?", id).First(&estimate).Error; err != nil {
		return nil, err
	}
	return &estimate, nil
}

func (r *repository) ListByProject(ctx context.Context, projectID uuid.UUID, params pagination.Params, filters Filters) ([]models.Estimate, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Estimate{}).
		Where("project_id = ?", projectID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("name LIKE ?", pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var estimates []models.Estimate
	err := query.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&estimates).Error
	if err != nil {
		return nil, 0, err
	}
	return estimates, total, nil
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Estimate{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repository) CreateItem(ctx context.Context, item *models.EstimateItem) (*models.EstimateItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.EstimateItem, error) {
	var item models.EstimateItem
	err := r.db.WithContext(ctx).
		Where("id = ?", itemID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, estimateID uuid.UUID) ([]models.EstimateItem, error) {
	var items []models.EstimateItem
	err := r.db.WithContext(ctx).
		Where("estimate_id = ?", estimateID).
		Order("sort_order ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateItemFields(ctx context.Context, itemID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.EstimateItem{}).
		Where("id = ?", itemID).
		Updates(fields).Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", itemID).
		Delete(&models.EstimateItem{}).Error
}
