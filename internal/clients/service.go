package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/internal/audit"
	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

// Service defines client-level operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Client, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Client, int64, error)
	Update(ctx context.Context, input UpdateInput) (*models.Client, error)
	Delete(ctx context.Context, id uuid.UUID, actor ActorContext) error
}

type service struct {
	repo    Repository
	auditor audit.Recorder
}

// NewService builds a clients service. The audit recorder may be nil.
func NewService(repo Repository, auditor audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("clients repository required")
	}
	return &service{repo: repo, auditor: auditor}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid client type")
	}
	status := enums.ClientStatusPotential
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid client status")
		}
		status = *input.Status
	}

	client := &models.Client{
		Type:          input.Type,
		Name:          name,
		LegalName:     input.LegalName,
		INN:           input.INN,
		KPP:           input.KPP,
		OGRN:          input.OGRN,
		Address:       input.Address,
		LegalAddress:  input.LegalAddress,
		Phone:         input.Phone,
		Email:         input.Email,
		ContactPerson: input.ContactPerson,
		ContactPhone:  input.ContactPhone,
		ContactEmail:  input.ContactEmail,
		BankName:      input.BankName,
		BankAccount:   input.BankAccount,
		BankBIK:       input.BankBIK,
		Status:        status,
		Source:        input.Source,
		Notes:         input.Notes,
		CreatedBy:     input.Actor.UserID,
	}

	created, err := s.repo.Create(ctx, client)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create client")
	}

	s.record(ctx, input.Actor, "CREATE", created.ID.String(), nil, created)
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
	}
	return client, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Client, int64, error) {
	clients, total, err := s.repo.List(ctx, pagination.Normalize(params), filters)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clients")
	}
	return clients, total, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Client, error) {
	before, err := s.Get(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Type != nil {
		if !input.Type.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid client type")
		}
		fields["type"] = *input.Type
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name required")
		}
		fields["name"] = name
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid client status")
		}
		fields["status"] = *input.Status
	}
	applyOptional(fields, map[string]*string{
		"legal_name":     input.LegalName,
		"inn":            input.INN,
		"kpp":            input.KPP,
		"ogrn":           input.OGRN,
		"address":        input.Address,
		"legal_address":  input.LegalAddress,
		"phone":          input.Phone,
		"email":          input.Email,
		"contact_person": input.ContactPerson,
		"contact_phone":  input.ContactPhone,
		"contact_email":  input.ContactEmail,
		"bank_name":      input.BankName,
		"bank_account":   input.BankAccount,
		"bank_bik":       input.BankBIK,
		"source":         input.Source,
		"notes":          input.Notes,
	})

	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	if err := s.repo.UpdateFields(ctx, input.ClientID, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update client")
	}

	after, err := s.Get(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}

	s.record(ctx, input.Actor, "UPDATE", input.ClientID.String(), before, after)
	return after, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, actor ActorContext) error {
	removed, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete client")
	}

	s.record(ctx, actor, "DELETE", id.String(), removed, nil)
	return nil
}

func (s *service) record(ctx context.Context, actor ActorContext, action, recordID string, oldValues, newValues any) {
	if s.auditor == nil {
		return
	}
	entry := audit.Entry{
		Action:    action,
		TableName: "clients",
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

func applyOptional(fields map[string]any, updates map[string]*string) {
	for column, value := range updates {
		if value != nil {
			fields[column] = *value
		}
	}
}
