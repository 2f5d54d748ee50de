package projects

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stroytech/stroycrm-backend/api/middleware"
	"github.com/stroytech/stroycrm-backend/api/responses"
	"github.com/stroytech/stroycrm-backend/api/validators"
	"github.com/stroytech/stroycrm-backend/internal/audit"
	internalprojects "github.com/stroytech/stroycrm-backend/internal/projects"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/logger"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

type createRequest struct {
	Name             string           `json:"name" validate:"required,max=255"`
	Description      *string          `json:"description"`
	ClientID         *uuid.UUID       `json:"client_id"`
	Type             string           `json:"type" validate:"required"`
	Status           *string          `json:"status"`
	Priority         *string          `json:"priority"`
	StartDate        *time.Time       `json:"start_date"`
	PlannedEndDate   *time.Time       `json:"planned_end_date"`
	Budget           *decimal.Decimal `json:"budget"`
	Address          *string          `json:"address"`
	TotalArea        *decimal.Decimal `json:"total_area"`
	BuildingFloors   *int             `json:"building_floors"`
	ProjectManagerID *uuid.UUID       `json:"project_manager_id"`
	SiteManagerID    *uuid.UUID       `json:"site_manager_id"`
	ForemanID        *uuid.UUID       `json:"foreman_id"`
	Notes            *string          `json:"notes"`
}

type updateRequest struct {
	Name             *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description      *string          `json:"description"`
	ClientID         *uuid.UUID       `json:"client_id"`
	Type             *string          `json:"type"`
	Status           *string          `json:"status"`
	Priority         *string          `json:"priority"`
	StartDate        *time.Time       `json:"start_date"`
	PlannedEndDate   *time.Time       `json:"planned_end_date"`
	ActualEndDate    *time.Time       `json:"actual_end_date"`
	Budget           *decimal.Decimal `json:"budget"`
	ActualCost       *decimal.Decimal `json:"actual_cost"`
	Address          *string          `json:"address"`
	TotalArea        *decimal.Decimal `json:"total_area"`
	BuildingFloors   *int             `json:"building_floors"`
	ProjectManagerID *uuid.UUID       `json:"project_manager_id"`
	SiteManagerID    *uuid.UUID       `json:"site_manager_id"`
	ForemanID        *uuid.UUID       `json:"foreman_id"`
	Notes            *string          `json:"notes"`
}

type createTaskRequest struct {
	Name           string           `json:"name" validate:"required,max=255"`
	Description    *string          `json:"description"`
	Type           *string          `json:"type"`
	Status         *string          `json:"status"`
	Priority       *string          `json:"priority"`
	AssignedTo     *uuid.UUID       `json:"assigned_to"`
	ContractorID   *uuid.UUID       `json:"contractor_id"`
	StartDate      *time.Time       `json:"start_date"`
	EndDate        *time.Time       `json:"end_date"`
	EstimatedHours *decimal.Decimal `json:"estimated_hours"`
	Progress       *decimal.Decimal `json:"progress"`
	Dependencies   *string          `json:"dependencies"`
	Notes          *string          `json:"notes"`
}

type updateTaskRequest struct {
	Name           *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description    *string          `json:"description"`
	Type           *string          `json:"type"`
	Status         *string          `json:"status"`
	Priority       *string          `json:"priority"`
	AssignedTo     *uuid.UUID       `json:"assigned_to"`
	ContractorID   *uuid.UUID       `json:"contractor_id"`
	StartDate      *time.Time       `json:"start_date"`
	EndDate        *time.Time       `json:"end_date"`
	EstimatedHours *decimal.Decimal `json:"estimated_hours"`
	ActualHours    *decimal.Decimal `json:"actual_hours"`
	Progress       *decimal.Decimal `json:"progress"`
	Dependencies   *string          `json:"dependencies"`
	Notes          *string          `json:"notes"`
}

// List returns the projects visible to the actor's role.
func List(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, total, err := svc.List(r.Context(), params, filters, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list, params, total)
	}
}

// Create registers a new project.
func Create(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		var req createRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		projectType, err := enums.ParseProjectType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse project type"))
			return
		}
		input := internalprojects.CreateInput{
			Name:             req.Name,
			Description:      req.Description,
			ClientID:         req.ClientID,
			Type:             projectType,
			StartDate:        req.StartDate,
			PlannedEndDate:   req.PlannedEndDate,
			Budget:           req.Budget,
			Address:          req.Address,
			TotalArea:        req.TotalArea,
			BuildingFloors:   req.BuildingFloors,
			ProjectManagerID: req.ProjectManagerID,
			SiteManagerID:    req.SiteManagerID,
			ForemanID:        req.ForemanID,
			Notes:            req.Notes,
		}
		if req.Status != nil {
			parsed, err := enums.ParseProjectStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse project status"))
				return
			}
			input.Status = &parsed
		}
		if req.Priority != nil {
			parsed, err := enums.ParsePriority(*req.Priority)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse priority"))
				return
			}
			input.Priority = &parsed
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Actor = actor

		project, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, project)
	}
}

// Detail returns one project by id.
func Detail(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		projectID, err := validators.ParseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project, err := svc.Get(r.Context(), projectID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	}
}

// Update applies a partial project update.
func Update(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		projectID, err := validators.ParseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalprojects.UpdateInput{
			ProjectID:        projectID,
			Name:             req.Name,
			Description:      req.Description,
			ClientID:         req.ClientID,
			StartDate:        req.StartDate,
			PlannedEndDate:   req.PlannedEndDate,
			ActualEndDate:    req.ActualEndDate,
			Budget:           req.Budget,
			ActualCost:       req.ActualCost,
			Address:          req.Address,
			TotalArea:        req.TotalArea,
			BuildingFloors:   req.BuildingFloors,
			ProjectManagerID: req.ProjectManagerID,
			SiteManagerID:    req.SiteManagerID,
			ForemanID:        req.ForemanID,
			Notes:            req.Notes,
		}
		if req.Type != nil {
			parsed, err := enums.ParseProjectType(*req.Type)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse project type"))
				return
			}
			input.Type = &parsed
		}
		if req.Status != nil {
			parsed, err := enums.ParseProjectStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse project status"))
				return
			}
			input.Status = &parsed
		}
		if req.Priority != nil {
			parsed, err := enums.ParsePriority(*req.Priority)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse priority"))
				return
			}
			input.Priority = &parsed
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Actor = actor

		project, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	}
}

// ListTasks returns a project's schedule.
func ListTasks(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		projectID, err := validators.ParseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tasks, err := svc.ListTasks(r.Context(), projectID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tasks)
	}
}

// CreateTask appends a task to the project schedule.
func CreateTask(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		projectID, err := validators.ParseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createTaskRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalprojects.CreateTaskInput{
			ProjectID:      projectID,
			Name:           req.Name,
			Description:    req.Description,
			Type:           req.Type,
			AssignedTo:     req.AssignedTo,
			ContractorID:   req.ContractorID,
			StartDate:      req.StartDate,
			EndDate:        req.EndDate,
			EstimatedHours: req.EstimatedHours,
			Progress:       req.Progress,
			Dependencies:   req.Dependencies,
			Notes:          req.Notes,
		}
		if req.Status != nil {
			parsed, err := enums.ParseTaskStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse task status"))
				return
			}
			input.Status = &parsed
		}
		if req.Priority != nil {
			parsed, err := enums.ParsePriority(*req.Priority)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse priority"))
				return
			}
			input.Priority = &parsed
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Actor = actor

		task, err := svc.CreateTask(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, task)
	}
}

// UpdateTask applies a partial task update and re-averages the parent
// project's progress when the task progress changes.
func UpdateTask(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		taskID, err := validators.ParseUUIDParam(r, "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateTaskRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalprojects.UpdateTaskInput{
			TaskID:         taskID,
			Name:           req.Name,
			Description:    req.Description,
			Type:           req.Type,
			AssignedTo:     req.AssignedTo,
			ContractorID:   req.ContractorID,
			StartDate:      req.StartDate,
			EndDate:        req.EndDate,
			EstimatedHours: req.EstimatedHours,
			ActualHours:    req.ActualHours,
			Progress:       req.Progress,
			Dependencies:   req.Dependencies,
			Notes:          req.Notes,
		}
		if req.Status != nil {
			parsed, err := enums.ParseTaskStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse task status"))
				return
			}
			input.Status = &parsed
		}
		if req.Priority != nil {
			parsed, err := enums.ParsePriority(*req.Priority)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse priority"))
				return
			}
			input.Priority = &parsed
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Actor = actor

		task, err := svc.UpdateTask(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, task)
	}
}

// Delete removes a project together with its tasks and estimates.
func Delete(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		projectID, err := validators.ParseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), projectID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// DeleteTask removes a task and re-averages the parent project's progress.
func DeleteTask(svc internalprojects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "projects service unavailable"))
			return
		}

		projectID, err := validators.ParseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		taskID, err := validators.ParseUUIDParam(r, "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteTask(r.Context(), projectID, taskID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func buildFilters(r *http.Request) (internalprojects.Filters, error) {
	filters := internalprojects.Filters{
		Query: validators.SanitizeString(r.URL.Query().Get("search"), 255),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, err := enums.ParseProjectStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse project status")
		}
		filters.Status = &parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		parsed, err := enums.ParseProjectType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse project type")
		}
		filters.Type = &parsed
	}
	return filters, nil
}

func actorContext(r *http.Request) (internalprojects.ActorContext, error) {
	raw := middleware.UserIDFromContext(r.Context())
	userID, err := uuid.Parse(raw)
	if err != nil {
		return internalprojects.ActorContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	ip, userAgent := audit.RequestMeta(r)
	return internalprojects.ActorContext{
		UserID:    userID,
		Role:      enums.UserRole(middleware.RoleFromContext(r.Context())),
		IPAddress: ip,
		UserAgent: userAgent,
	}, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Normalize(pagination.Params{Page: page, Limit: limit}), nil
}
