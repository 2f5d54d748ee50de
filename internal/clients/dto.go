package clients

import (
	"github.com/google/uuid"

	"github.com/stroytech/stroycrm-backend/pkg/enums"
)

// ActorContext identifies who performed a mutation, for audit records.
type ActorContext struct {
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
}

// Filters describe the inputs supported by the client list.
type Filters struct {
	Type   *enums.ClientType
	Status *enums.ClientStatus
	Query  string
}

// CreateInput carries the fields for a new client.
type CreateInput struct {
	Type          enums.ClientType
	Name          string
	LegalName     *string
	INN           *string
	KPP           *string
	OGRN          *string
	Address       *string
	LegalAddress  *string
	Phone         *string
	Email         *string
	ContactPerson *string
	ContactPhone  *string
	ContactEmail  *string
	BankName      *string
	BankAccount   *string
	BankBIK       *string
	Status        *enums.ClientStatus
	Source        *string
	Notes         *string
	Actor         ActorContext
}

// UpdateInput carries a partial client update. Nil fields are untouched.
type UpdateInput struct {
	ClientID      uuid.UUID
	Type          *enums.ClientType
	Name          *string
	LegalName     *string
	INN           *string
	KPP           *string
	OGRN          *string
	Address       *string
	LegalAddress  *string
	Phone         *string
	Email         *string
	ContactPerson *string
	ContactPhone  *string
	ContactEmail  *string
	BankName      *string
	BankAccount   *string
	BankBIK       *string
	Status        *enums.ClientStatus
	Source        *string
	Notes         *string
	Actor         ActorContext
}
