package projects

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stroytech/stroycrm-backend/pkg/enums"
)

// ActorContext identifies who performed a mutation, for audit records and
// role-scoped visibility.
type ActorContext struct {
	UserID    uuid.UUID
	Role      enums.UserRole
	IPAddress string
	UserAgent string
}

// Filters describe the inputs supported by the project list.
type Filters struct {
	Status *enums.ProjectStatus
	Type   *enums.ProjectType
	Query  string
}

// CreateInput carries the fields for a new project.
type CreateInput struct {
	Name             string
	Description      *string
	ClientID         *uuid.UUID
	Type             enums.ProjectType
	Status           *enums.ProjectStatus
	Priority         *enums.Priority
	StartDate        *time.Time
	PlannedEndDate   *time.Time
	Budget           *decimal.Decimal
	Address          *string
	TotalArea        *decimal.Decimal
	BuildingFloors   *int
	ProjectManagerID *uuid.UUID
	SiteManagerID    *uuid.UUID
	ForemanID        *uuid.UUID
	Notes            *string
	Actor            ActorContext
}

// UpdateInput carries a partial project update. Nil fields are untouched.
type UpdateInput struct {
	ProjectID        uuid.UUID
	Name             *string
	Description      *string
	ClientID         *uuid.UUID
	Type             *enums.ProjectType
	Status           *enums.ProjectStatus
	Priority         *enums.Priority
	StartDate        *time.Time
	PlannedEndDate   *time.Time
	ActualEndDate    *time.Time
	Budget           *decimal.Decimal
	ActualCost       *decimal.Decimal
	Address          *string
	TotalArea        *decimal.Decimal
	BuildingFloors   *int
	ProjectManagerID *uuid.UUID
	SiteManagerID    *uuid.UUID
	ForemanID        *uuid.UUID
	Notes            *string
	Actor            ActorContext
}

// CreateTaskInput carries the fields for a new project task.
type CreateTaskInput struct {
	ProjectID      uuid.UUID
	Name           string
	Description    *string
	Type           *string
	Status         *enums.TaskStatus
	Priority       *enums.Priority
	AssignedTo     *uuid.UUID
	ContractorID   *uuid.UUID
	StartDate      *time.Time
	EndDate        *time.Time
	EstimatedHours *decimal.Decimal
	Progress       *decimal.Decimal
	Dependencies   *string
	Notes          *string
	Actor          ActorContext
}

// UpdateTaskInput carries a partial task update. Nil fields are untouched;
// a progress change re-averages the parent project's progress.
type UpdateTaskInput struct {
	ProjectID      uuid.UUID
	TaskID         uuid.UUID
	Name           *string
	Description    *string
	Type           *string
	Status         *enums.TaskStatus
	Priority       *enums.Priority
	AssignedTo     *uuid.UUID
	ContractorID   *uuid.UUID
	StartDate      *time.Time
	EndDate        *time.Time
	EstimatedHours *decimal.Decimal
	ActualHours    *decimal.Decimal
	Progress       *decimal.Decimal
	Dependencies   *string
	Notes          *string
	Actor          ActorContext
}
