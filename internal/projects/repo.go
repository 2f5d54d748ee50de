package projects

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

// Repository provides durable access to projects and their tasks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, project *models.Project) (*models.Project, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, params pagination.Params, filters Filters, scope ActorContext) ([]models.Project, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateTask(ctx context.Context, task *models.ProjectTask) (*models.ProjectTask, error)
	FindTask(ctx context.Context, taskID uuid.UUID) (*models.ProjectTask, error)
	ListTasks(ctx context.Context, projectID uuid.UUID) ([]models.ProjectTask, error)
	UpdateTaskFields(ctx context.Context, taskID uuid.UUID, fields map[string]any) error
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
	AverageTaskProgress(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a projects repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List scopes visibility by role: directors and office roles see every
// project, field managers only the ones they are assigned to.
func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters, scope ActorContext) ([]models.Project, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Project{})

	switch scope.Role {
	case enums.UserRoleProjectManager:
		query = query.Where("project_manager_id = ?", scope.UserID)
	case enums.UserRoleSiteManager:
		query = query.Where("site_manager_id = ?", scope.UserID)
	case enums.UserRoleForeman:
		query = query.Where("foreman_id = ?", scope.UserID)
	}

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("name LIKE ? OR address LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	err := query.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Project{}).Error
}

func (r *repository) CreateTask(ctx context.Context, task *models.ProjectTask) (*models.ProjectTask, error) {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

func (r *repository) FindTask(ctx context.Context, taskID uuid.UUID) (*models.ProjectTask, error) {
	var task models.ProjectTask
	if err := r.db.WithContext(ctx).Where("id = ?", taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *repository) ListTasks(ctx context.Context, projectID uuid.UUID) ([]models.ProjectTask, error) {
	var tasks []models.ProjectTask
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *repository) UpdateTaskFields(ctx context.Context, taskID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ProjectTask{}).
		Where("id = ?", taskID).
		Updates(fields).Error
}

func (r *repository) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", taskID).
		Delete(&models.ProjectTask{}).Error
}

// AverageTaskProgress returns the mean progress over the project's tasks,
// zero when the project has none.
func (r *repository) AverageTaskProgress(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Average *float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.ProjectTask{}).
		Select("AVG(progress) AS average").
		Where("project_id = ?", projectID).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	if result.Average == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromFloat(*result.Average).Round(2), nil
}
