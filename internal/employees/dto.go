package employees

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stroytech/stroycrm-backend/pkg/enums"
)

// ActorContext identifies who performed a mutation, for audit records.
type ActorContext struct {
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
}

// Filters describe the inputs supported by the employee list.
type Filters struct {
	Status     *enums.EmployeeStatus
	Department string
	Query      string
}

// CreateInput carries the fields for a new employee.
type CreateInput struct {
	UserID     *uuid.UUID
	FirstName  string
	LastName   string
	MiddleName *string
	Position   string
	Department string
	Phone      string
	Email      *string
	HireDate   time.Time
	Salary     *decimal.Decimal
	Status     *enums.EmployeeStatus
	Notes      *string
	Actor      ActorContext
}

// UpdateInput carries a partial employee update. Nil fields are untouched.
type UpdateInput struct {
	EmployeeID      uuid.UUID
	FirstName       *string
	LastName        *string
	MiddleName      *string
	Position        *string
	Department      *string
	Phone           *string
	Email           *string
	HireDate        *time.Time
	TerminationDate *time.Time
	Salary          *decimal.Decimal
	Status          *enums.EmployeeStatus
	Notes           *string
	Actor           ActorContext
}
