package contractors

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
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

var maxRating = decimal.NewFromInt(5)

// Service defines contractor-level operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Contractor, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Contractor, error)
	List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Contractor, int64, error)
	Update(ctx context.Context, input UpdateInput) (*models.Contractor, error)
	Delete(ctx context.Context, id uuid.UUID, actor ActorContext) error
}

type service struct {
	repo    Repository
	auditor audit.Recorder
}

// NewService builds a contractors service. The audit recorder may be nil.
func NewService(repo Repository, auditor audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("contractors repository required")
	}
	return &service{repo: repo, auditor: auditor}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Contractor, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contractor name required")
	}

	status := StatusActive
	if input.Status != nil {
		if err := validateStatus(*input.Status); err != nil {
			return nil, err
		}
		status = *input.Status
	}
	rating := decimal.Zero
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		rating = *input.Rating
	}

	contractor := &models.Contractor{
		Name:           name,
		LegalName:      input.LegalName,
		INN:            input.INN,
		KPP:            input.KPP,
		OGRN:           input.OGRN,
		Address:        input.Address,
		Phone:          input.Phone,
		Email:          input.Email,
		ContactPerson:  input.ContactPerson,
		ContactPhone:   input.ContactPhone,
		ContactEmail:   input.ContactEmail,
		BankName:       input.BankName,
		BankAccount:    input.BankAccount,
		BankBIK:        input.BankBIK,
		Specialization: input.Specialization,
		Rating:         rating,
		Status:         status,
		Notes:          input.Notes,
		CreatedBy:      input.Actor.UserID,
	}

	created, err := s.repo.Create(ctx, contractor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create contractor")
	}

	s.record(ctx, input.Actor, "CREATE", created.ID.String(), nil, created)
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Contractor, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contractor id required")
	}
	contractor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contractor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contractor")
	}
	return contractor, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Contractor, int64, error) {
	if filters.Status != "" {
		if err := validateStatus(filters.Status); err != nil {
			return nil, 0, err
		}
	}
	contractors, total, err := s.repo.List(ctx, pagination.Normalize(params), filters)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contractors")
	}
	return contractors, total, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Contractor, error) {
	before, err := s.Get(ctx, input.ContractorID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "contractor name required")
		}
		fields["name"] = name
	}
	if input.Status != nil {
		if err := validateStatus(*input.Status); err != nil {
			return nil, err
		}
		fields["status"] = *input.Status
	}
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		fields["rating"] = *input.Rating
	}
	applyOptional(fields, map[string]*string{
		"legal_name":     input.LegalName,
		"inn":            input.INN,
		"kpp":            input.KPP,
		"ogrn":           input.OGRN,
		"address":        input.Address,
		"phone":          input.Phone,
		"email":          input.Email,
		"contact_person": input.ContactPerson,
		"contact_phone":  input.ContactPhone,
		"contact_email":  input.ContactEmail,
		"bank_name":      input.BankName,
		"bank_account":   input.BankAccount,
		"bank_bik":       input.BankBIK,
		"specialization": input.Specialization,
		"notes":          input.Notes,
	})

	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	if err := s.repo.UpdateFields(ctx, input.ContractorID, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update contractor")
	}

	after, err := s.Get(ctx, input.ContractorID)
	if err != nil {
		return nil, err
	}

	s.record(ctx, input.Actor, "UPDATE", input.ContractorID.String(), before, after)
	return after, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, actor ActorContext) error {
	removed, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete contractor")
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
		TableName: "contractors",
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

func validateStatus(status string) error {
	switch status {
	case StatusActive, StatusInactive, StatusBlacklist:
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid contractor status")
	}
}

func validateRating(rating decimal.Decimal) error {
	if rating.IsNegative() || rating.GreaterThan(maxRating) {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 0 and 5")
	}
	return nil
}

func applyOptional(fields map[string]any, updates map[string]*string) {
	for column, value := range updates {
		if value != nil {
			fields[column] = *value
		}
	}
}
