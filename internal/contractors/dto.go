package contractors

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contractor statuses accepted over the API.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusBlacklist = "blacklist"
)

// ActorContext identifies who performed a mutation, for audit records.
type ActorContext struct {
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
}

// Filters describe the inputs supported by the contractor list.
type Filters struct {
	Status         string
	Specialization string
	Query          string
}

// CreateInput carries the fields for a new contractor.
type CreateInput struct {
	Name           string
	LegalName      *string
	INN            *string
	KPP            *string
	OGRN           *string
	Address        *string
	Phone          *string
	Email          *string
	ContactPerson  *string
	ContactPhone   *string
	ContactEmail   *string
	BankName       *string
	BankAccount    *string
	BankBIK        *string
	Specialization *string
	Rating         *decimal.Decimal
	Status         *string
	Notes          *string
	Actor          ActorContext
}

// UpdateInput carries a partial contractor update. Nil fields are untouched.
type UpdateInput struct {
	ContractorID   uuid.UUID
	Name           *string
	LegalName      *string
	INN            *string
	KPP            *string
	OGRN           *string
	Address        *string
	Phone          *string
	Email          *string
	ContactPerson  *string
	ContactPhone   *string
	ContactEmail   *string
	BankName       *string
	BankAccount    *string
	BankBIK        *string
	Specialization *string
	Rating         *decimal.Decimal
	Status         *string
	Notes          *string
	Actor          ActorContext
}
