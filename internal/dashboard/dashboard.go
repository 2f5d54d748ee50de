package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
)

// Stats is the aggregate snapshot behind the dashboard screen.
type Stats struct {
	ActiveProjects     int64           `json:"active_projects"`
	CompletedProjects  int64           `json:"completed_projects"`
	TotalClients       int64           `json:"total_clients"`
	ActiveClients      int64           `json:"active_clients"`
	ActiveEmployees    int64           `json:"active_employees"`
	Contractors        int64           `json:"contractors"`
	PendingTasks       int64           `json:"pending_tasks"`
	LowStockItems      int64           `json:"low_stock_items"`
	ApprovedEstimates  int64           `json:"approved_estimates"`
	ApprovedAmount     decimal.Decimal `json:"approved_amount"`
	TotalProjectBudget decimal.Decimal `json:"total_project_budget"`
}

// Service assembles dashboard statistics.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	db *gorm.DB
}

// NewService builds a dashboard service bound to the provided DB.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	return &service{db: db}, nil
}

// Stats runs the aggregate queries sequentially. The numbers feed a
// summary screen; cross-query consistency is not required.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ApprovedAmount:     decimal.Zero,
		TotalProjectBudget: decimal.Zero,
	}

	counts := []struct {
		dest  *int64
		model any
		where []any
	}{
		{&stats.ActiveProjects, &models.Project{}, []any{"status = ?", enums.ProjectStatusConstruction}},
		{&stats.CompletedProjects, &models.Project{}, []any{"status = ?", enums.ProjectStatusCompleted}},
		{&stats.TotalClients, &models.Client{}, nil},
		{&stats.ActiveClients, &models.Client{}, []any{"status = ?", enums.ClientStatusActive}},
		{&stats.ActiveEmployees, &models.Employee{}, []any{"status = ?", enums.EmployeeStatusActive}},
		{&stats.Contractors, &models.Contractor{}, nil},
		{&stats.PendingTasks, &models.ProjectTask{}, []any{"status IN ?", []enums.TaskStatus{enums.TaskStatusPending, enums.TaskStatusInProgress}}},
		{&stats.LowStockItems, &models.WarehouseItem{}, []any{"current_quantity < min_quantity"}},
		{&stats.ApprovedEstimates, &models.Estimate{}, []any{"status = ?", enums.EstimateStatusApproved}},
	}
	for _, c := range counts {
		query := s.db.WithContext(ctx).Model(c.model)
		if len(c.where) > 0 {
			query = query.Where(c.where[0], c.where[1:]...)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count dashboard rows")
		}
	}

	amount, err := s.sum(ctx, &models.Estimate{}, "final_amount", "status = ?", enums.EstimateStatusApproved)
	if err != nil {
		return nil, err
	}
	stats.ApprovedAmount = amount

	budget, err := s.sum(ctx, &models.Project{}, "budget", "status NOT IN ?", []enums.ProjectStatus{enums.ProjectStatusCanceled})
	if err != nil {
		return nil, err
	}
	stats.TotalProjectBudget = budget

	return stats, nil
}

func (s *service) sum(ctx context.Context, model any, column string, where string, args ...any) (decimal.Decimal, error) {
	var result struct {
		Total *float64
	}
	err := s.db.WithContext(ctx).
		Model(model).
		Select(fmt.Sprintf("SUM(%s) AS total", column)).
		Where(where, args...).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum dashboard amounts")
	}
	if result.Total == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromFloat(*result.Total).Round(2), nil
}
