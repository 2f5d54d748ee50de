package projects

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

// Service defines project and task operations. Task writes that touch
// progress re-average the parent project's progress in the same
// transaction.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, params pagination.Params, filters Filters, actor ActorContext) ([]models.Project, int64, error)
	Update(ctx context.Context, input UpdateInput) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID, actor ActorContext) error

	ProjectExists(ctx context.Context, id uuid.UUID) (bool, error)

	CreateTask(ctx context.Context, input CreateTaskInput) (*models.ProjectTask, error)
	ListTasks(ctx context.Context, projectID uuid.UUID) ([]models.ProjectTask, error)
	UpdateTask(ctx context.Context, input UpdateTaskInput) (*models.ProjectTask, error)
	DeleteTask(ctx context.Context, projectID, taskID uuid.UUID, actor ActorContext) error
}

type service struct {
	repo    Repository
	tx      txRunner
	auditor audit.Recorder
}

// NewService builds a projects service. The audit recorder may be nil.
func NewService(repo Repository, tx txRunner, auditor audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("projects repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		auditor: auditor,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project name required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid project type")
	}

	project := &models.Project{
		Name:             name,
		Description:      input.Description,
		ClientID:         input.ClientID,
		Type:             input.Type,
		Status:           enums.ProjectStatusPlanning,
		Priority:         enums.PriorityNormal,
		StartDate:        input.StartDate,
		PlannedEndDate:   input.PlannedEndDate,
		Budget:           decimal.Zero,
		ActualCost:       decimal.Zero,
		Address:          input.Address,
		TotalArea:        input.TotalArea,
		BuildingFloors:   input.BuildingFloors,
		Progress:         decimal.Zero,
		ProjectManagerID: input.ProjectManagerID,
		SiteManagerID:    input.SiteManagerID,
		ForemanID:        input.ForemanID,
		Notes:            input.Notes,
		CreatedBy:        input.Actor.UserID,
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid project status")
		}
		project.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
		}
		project.Priority = *input.Priority
	}
	if input.Budget != nil {
		if input.Budget.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget must not be negative")
		}
		project.Budget = *input.Budget
	}

	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create project")
	}

	s.record(ctx, input.Actor, "CREATE", "projects", created.ID.String(), nil, created)
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project")
	}
	return project, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters, actor ActorContext) ([]models.Project, int64, error) {
	projects, total, err := s.repo.List(ctx, pagination.Normalize(params), filters, actor)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list projects")
	}
	return projects, total, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Project, error) {
	if input.ProjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}

	project, err := s.Get(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	snapshot := *project

	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "project name required")
		}
		fields["name"] = name
		project.Name = name
	}
	if input.Description != nil {
		fields["description"] = *input.Description
		project.Description = input.Description
	}
	if input.ClientID != nil {
		fields["client_id"] = *input.ClientID
		project.ClientID = input.ClientID
	}
	if input.Type != nil {
		if !input.Type.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid project type")
		}
		fields["type"] = *input.Type
		project.Type = *input.Type
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid project status")
		}
		fields["status"] = *input.Status
		project.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
		}
		fields["priority"] = *input.Priority
		project.Priority = *input.Priority
	}
	if input.StartDate != nil {
		fields["start_date"] = *input.StartDate
		project.StartDate = input.StartDate
	}
	if input.PlannedEndDate != nil {
		fields["planned_end_date"] = *input.PlannedEndDate
		project.PlannedEndDate = input.PlannedEndDate
	}
	if input.ActualEndDate != nil {
		fields["actual_end_date"] = *input.ActualEndDate
		project.ActualEndDate = input.ActualEndDate
	}
	if input.Budget != nil {
		if input.Budget.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget must not be negative")
		}
		fields["budget"] = *input.Budget
		project.Budget = *input.Budget
	}
	if input.ActualCost != nil {
		if input.ActualCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "actual cost must not be negative")
		}
		fields["actual_cost"] = *input.ActualCost
		project.ActualCost = *input.ActualCost
	}
	if input.Address != nil {
		fields["address"] = *input.Address
		project.Address = input.Address
	}
	if input.TotalArea != nil {
		fields["total_area"] = *input.TotalArea
		project.TotalArea = input.TotalArea
	}
	if input.BuildingFloors != nil {
		fields["building_floors"] = *input.BuildingFloors
		project.BuildingFloors = input.BuildingFloors
	}
	if input.ProjectManagerID != nil {
		fields["project_manager_id"] = *input.ProjectManagerID
		project.ProjectManagerID = input.ProjectManagerID
	}
	if input.SiteManagerID != nil {
		fields["site_manager_id"] = *input.SiteManagerID
		project.SiteManagerID = input.SiteManagerID
	}
	if input.ForemanID != nil {
		fields["foreman_id"] = *input.ForemanID
		project.ForemanID = input.ForemanID
	}
	if input.Notes != nil {
		fields["notes"] = *input.Notes
		project.Notes = input.Notes
	}

	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	if err := s.repo.UpdateFields(ctx, project.ID, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update project")
	}

	s.record(ctx, input.Actor, "UPDATE", "projects", project.ID.String(), &snapshot, project)
	return project, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, actor ActorContext) error {
	project, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete project")
	}
	s.record(ctx, actor, "DELETE", "projects", id.String(), project, nil)
	return nil
}

// ProjectExists reports whether a project row is present. Other verticals
// use it to validate parent references.
func (s *service) ProjectExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	return s.repo.Exists(ctx, id)
}

func (s *service) CreateTask(ctx context.Context, input CreateTaskInput) (*models.ProjectTask, error) {
	if input.ProjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task name required")
	}

	task := &models.ProjectTask{
		ProjectID:      input.ProjectID,
		Name:           name,
		Description:    input.Description,
		Type:           input.Type,
		Status:         enums.TaskStatusPending,
		Priority:       enums.PriorityNormal,
		AssignedTo:     input.AssignedTo,
		ContractorID:   input.ContractorID,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		EstimatedHours: input.EstimatedHours,
		Progress:       decimal.Zero,
		Dependencies:   input.Dependencies,
		Notes:          input.Notes,
		CreatedBy:      input.Actor.UserID,
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid task status")
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
		}
		task.Priority = *input.Priority
	}
	if input.Progress != nil {
		if err := validateProgress(*input.Progress); err != nil {
			return nil, err
		}
		task.Progress = *input.Progress
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, input.ProjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project")
		}
		if _, err := repo.CreateTask(ctx, task); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create task")
		}
		return s.reaverageProgress(ctx, repo, input.ProjectID)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, input.Actor, "CREATE", "project_tasks", task.ID.String(), nil, task)
	return task, nil
}

func (s *service) ListTasks(ctx context.Context, projectID uuid.UUID) ([]models.ProjectTask, error) {
	if projectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	if _, err := s.repo.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project")
	}
	tasks, err := s.repo.ListTasks(ctx, projectID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tasks")
	}
	return tasks, nil
}

// UpdateTask applies a partial task update. ProjectID may be zero when the
// caller addresses the task directly; when set it must match the task's
// parent.
func (s *service) UpdateTask(ctx context.Context, input UpdateTaskInput) (*models.ProjectTask, error) {
	if input.TaskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id required")
	}

	var before, after *models.ProjectTask
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		task, err := repo.FindTask(ctx, input.TaskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
		}
		if input.ProjectID != uuid.Nil && task.ProjectID != input.ProjectID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
		}
		snapshot := *task
		before = &snapshot

		fields := map[string]any{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "task name required")
			}
			fields["name"] = name
			task.Name = name
		}
		if input.Description != nil {
			fields["description"] = *input.Description
			task.Description = input.Description
		}
		if input.Type != nil {
			fields["type"] = *input.Type
			task.Type = input.Type
		}
		if input.Status != nil {
			if !input.Status.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid task status")
			}
			fields["status"] = *input.Status
			task.Status = *input.Status
		}
		if input.Priority != nil {
			if !input.Priority.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
			}
			fields["priority"] = *input.Priority
			task.Priority = *input.Priority
		}
		if input.AssignedTo != nil {
			fields["assigned_to"] = *input.AssignedTo
			task.AssignedTo = input.AssignedTo
		}
		if input.ContractorID != nil {
			fields["contractor_id"] = *input.ContractorID
			task.ContractorID = input.ContractorID
		}
		if input.StartDate != nil {
			fields["start_date"] = *input.StartDate
			task.StartDate = input.StartDate
		}
		if input.EndDate != nil {
			fields["end_date"] = *input.EndDate
			task.EndDate = input.EndDate
		}
		if input.EstimatedHours != nil {
			fields["estimated_hours"] = *input.EstimatedHours
			task.EstimatedHours = input.EstimatedHours
		}
		if input.ActualHours != nil {
			fields["actual_hours"] = *input.ActualHours
			task.ActualHours = input.ActualHours
		}
		if input.Dependencies != nil {
			fields["dependencies"] = *input.Dependencies
			task.Dependencies = input.Dependencies
		}
		if input.Notes != nil {
			fields["notes"] = *input.Notes
			task.Notes = input.Notes
		}

		progressChanged := false
		if input.Progress != nil {
			if err := validateProgress(*input.Progress); err != nil {
				return err
			}
			fields["progress"] = *input.Progress
			task.Progress = *input.Progress
			progressChanged = true
		}

		if len(fields) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
		}
		if err := repo.UpdateTaskFields(ctx, task.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update task")
		}
		if progressChanged {
			if err := s.reaverageProgress(ctx, repo, task.ProjectID); err != nil {
				return err
			}
		}
		after = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, input.Actor, "UPDATE", "project_tasks", input.TaskID.String(), before, after)
	return after, nil
}

func (s *service) DeleteTask(ctx context.Context, projectID, taskID uuid.UUID, actor ActorContext) error {
	if projectID == uuid.Nil || taskID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "project id and task id required")
	}

	var removed *models.ProjectTask
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		task, err := repo.FindTask(ctx, taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
		}
		if task.ProjectID != projectID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
		}
		removed = task

		if err := repo.DeleteTask(ctx, taskID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete task")
		}
		return s.reaverageProgress(ctx, repo, projectID)
	})
	if err != nil {
		return err
	}

	s.record(ctx, actor, "DELETE", "project_tasks", taskID.String(), removed, nil)
	return nil
}

// reaverageProgress folds per-task progress back into the project row. A
// project with no tasks reports zero progress.
func (s *service) reaverageProgress(ctx context.Context, repo Repository, projectID uuid.UUID) error {
	average, err := repo.AverageTaskProgress(ctx, projectID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "average task progress")
	}
	err = repo.UpdateFields(ctx, projectID, map[string]any{"progress": average})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write project progress")
	}
	return nil
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

func validateProgress(value decimal.Decimal) error {
	if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "progress must be between 0 and 100")
	}
	return nil
}
