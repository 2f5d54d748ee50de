package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/internal/audit"
	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

// Service defines employee-level operations. Employees are never deleted;
// termination is a status change that stamps termination_date.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Employee, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Employee, int64, error)
	Update(ctx context.Context, input UpdateInput) (*models.Employee, error)
}

type service struct {
	repo    Repository
	auditor audit.Recorder
}

// NewService builds an employees service. The audit recorder may be nil.
func NewService(repo Repository, auditor audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("employees repository required")
	}
	return &service{repo: repo, auditor: auditor}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Employee, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	position := strings.TrimSpace(input.Position)
	department := strings.TrimSpace(input.Department)
	phone := strings.TrimSpace(input.Phone)
	if firstName == "" || lastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name and last name required")
	}
	if position == "" || department == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "position and department required")
	}
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone required")
	}
	if input.HireDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hire date required")
	}
	if input.Salary != nil && input.Salary.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "salary must not be negative")
	}

	status := enums.EmployeeStatusActive
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid employee status")
		}
		status = *input.Status
	}

	employee := &models.Employee{
		UserID:     input.UserID,
		FirstName:  firstName,
		LastName:   lastName,
		MiddleName: input.MiddleName,
		Position:   position,
		Department: department,
		Phone:      phone,
		Email:      input.Email,
		HireDate:   input.HireDate,
		Salary:     input.Salary,
		Status:     status,
		Notes:      input.Notes,
	}

	created, err := s.repo.Create(ctx, employee)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create employee")
	}

	s.record(ctx, input.Actor, "CREATE", created.ID.String(), nil, created)
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load employee")
	}
	return employee, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Employee, int64, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid employee status")
	}
	employees, total, err := s.repo.List(ctx, pagination.Normalize(params), filters)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list employees")
	}
	return employees, total, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Employee, error) {
	before, err := s.Get(ctx, input.EmployeeID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.FirstName != nil {
		firstName := strings.TrimSpace(*input.FirstName)
		if firstName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name required")
		}
		fields["first_name"] = firstName
	}
	if input.LastName != nil {
		lastName := strings.TrimSpace(*input.LastName)
		if lastName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name required")
		}
		fields["last_name"] = lastName
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid employee status")
		}
		fields["status"] = *input.Status
		if *input.Status == enums.EmployeeStatusTerminated && before.Status != enums.EmployeeStatusTerminated {
			date := terminationDate(input)
			fields["termination_date"] = date
		}
	}
	if input.Salary != nil {
		if input.Salary.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "salary must not be negative")
		}
		fields["salary"] = *input.Salary
	}
	if input.HireDate != nil {
		fields["hire_date"] = *input.HireDate
	}
	if input.TerminationDate != nil {
		fields["termination_date"] = *input.TerminationDate
	}
	applyOptional(fields, map[string]*string{
		"middle_name": input.MiddleName,
		"position":    input.Position,
		"department":  input.Department,
		"phone":       input.Phone,
		"email":       input.Email,
		"notes":       input.Notes,
	})

	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	if err := s.repo.UpdateFields(ctx, input.EmployeeID, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update employee")
	}

	after, err := s.Get(ctx, input.EmployeeID)
	if err != nil {
		return nil, err
	}

	s.record(ctx, input.Actor, "UPDATE", input.EmployeeID.String(), before, after)
	return after, nil
}

func (s *service) record(ctx context.Context, actor ActorContext, action, recordID string, oldValues, newValues any) {
	if s.auditor == nil {
		return
	}
	entry := audit.Entry{
		Action:    action,
		TableName: "employees",
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

// terminationDate stamps the moment of termination unless the caller
// supplied an explicit date.
func terminationDate(input UpdateInput) time.Time {
	if input.TerminationDate != nil {
		return *input.TerminationDate
	}
	return time.Now().UTC()
}

func applyOptional(fields map[string]any, updates map[string]*string) {
	for column, value := range updates {
		if value != nil {
			fields[column] = *value
		}
	}
}
