package employees

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
	internalemployees "github.com/stroytech/stroycrm-backend/internal/employees"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/logger"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

type createRequest struct {
	UserID     *uuid.UUID       `json:"user_id"`
	FirstName  string           `json:"first_name" validate:"required,max=100"`
	LastName   string           `json:"last_name" validate:"required,max=100"`
	MiddleName *string          `json:"middle_name" validate:"omitempty,max=100"`
	Position   string           `json:"position" validate:"required,max=150"`
	Department string           `json:"department" validate:"required,max=150"`
	Phone      string           `json:"phone" validate:"required,max=32"`
	Email      *string          `json:"email" validate:"omitempty,email"`
	HireDate   time.Time        `json:"hire_date" validate:"required"`
	Salary     *decimal.Decimal `json:"salary"`
	Status     *string          `json:"status"`
	Notes      *string          `json:"notes"`
}

type updateRequest struct {
	FirstName       *string          `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName        *string          `json:"last_name" validate:"omitempty,min=1,max=100"`
	MiddleName      *string          `json:"middle_name" validate:"omitempty,max=100"`
	Position        *string          `json:"position" validate:"omitempty,min=1,max=150"`
	Department      *string          `json:"department" validate:"omitempty,min=1,max=150"`
	Phone           *string          `json:"phone" validate:"omitempty,min=1,max=32"`
	Email           *string          `json:"email" validate:"omitempty,email"`
	HireDate        *time.Time       `json:"hire_date"`
	TerminationDate *time.Time       `json:"termination_date"`
	Salary          *decimal.Decimal `json:"salary"`
	Status          *string          `json:"status"`
	Notes           *string          `json:"notes"`
}

// List returns an employee page filtered by status, department and name search.
func List(svc internalemployees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "employees service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := internalemployees.Filters{
			Department: strings.TrimSpace(r.URL.Query().Get("department")),
			Query:      validators.SanitizeString(r.URL.Query().Get("search"), 255),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseEmployeeStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse status filter"))
				return
			}
			filters.Status = &status
		}

		list, total, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list, params, total)
	}
}

// Create registers a new employee.
func Create(svc internalemployees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "employees service unavailable"))
			return
		}

		var req createRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalemployees.CreateInput{
			UserID:     req.UserID,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			MiddleName: req.MiddleName,
			Position:   req.Position,
			Department: req.Department,
			Phone:      req.Phone,
			Email:      req.Email,
			HireDate:   req.HireDate,
			Salary:     req.Salary,
			Notes:      req.Notes,
			Actor:      actor,
		}
		if req.Status != nil {
			status, err := enums.ParseEmployeeStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse employee status"))
				return
			}
			input.Status = &status
		}

		employee, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, employee)
	}
}

// Detail returns one employee by id.
func Detail(svc internalemployees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "employees service unavailable"))
			return
		}

		employeeID, err := validators.ParseUUIDParam(r, "employeeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		employee, err := svc.Get(r.Context(), employeeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, employee)
	}
}

// Update applies a partial employee update. Setting status to "terminated"
// stamps the termination date.
func Update(svc internalemployees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "employees service unavailable"))
			return
		}

		employeeID, err := validators.ParseUUIDParam(r, "employeeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalemployees.UpdateInput{
			EmployeeID:      employeeID,
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			MiddleName:      req.MiddleName,
			Position:        req.Position,
			Department:      req.Department,
			Phone:           req.Phone,
			Email:           req.Email,
			HireDate:        req.HireDate,
			TerminationDate: req.TerminationDate,
			Salary:          req.Salary,
			Notes:           req.Notes,
			Actor:           actor,
		}
		if req.Status != nil {
			status, err := enums.ParseEmployeeStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse employee status"))
				return
			}
			input.Status = &status
		}

		employee, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, employee)
	}
}

func actorContext(r *http.Request) (internalemployees.ActorContext, error) {
	raw := middleware.UserIDFromContext(r.Context())
	userID, err := uuid.Parse(raw)
	if err != nil {
		return internalemployees.ActorContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	ip, userAgent := audit.RequestMeta(r)
	return internalemployees.ActorContext{
		UserID:    userID,
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
