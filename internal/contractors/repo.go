package contractors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

// Repository provides durable access to contractors.
type Repository interface {
	Create(ctx context.Context, contractor *models.Contractor) (*models.Contractor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Contractor, error)
	List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Contractor, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a contractors repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, contractor *models.Contractor) (*models.Contractor, error) {
	if err := r.db.WithContext(ctx).Create(contractor).Error; err != nil {
		return nil, err
	}
	return contractor, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Contractor, error) {
	var contractor models.Contractor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&contractor).Error; err != nil {
		return nil, err
	}
	return &contractor, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Contractor, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Contractor{})

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Specialization != "" {
		query = query.Where("specialization LIKE ?", "%"+filters.Specialization+"%")
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("name LIKE ? OR legal_name LIKE ? OR contact_person LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contractors []models.Contractor
	err := query.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&contractors).Error
	if err != nil {
		return nil, 0, err
	}
	return contractors, total, nil
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Contractor{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Contractor{}).Error
}
