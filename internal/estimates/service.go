package estimates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/internal/audit"
	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

// Standard markup defaults applied when an estimate is created without
// explicit percentages.
var (
	DefaultProfitMargin  = decimal.NewFromInt(20)
	DefaultOverheadCosts = decimal.NewFromInt(15)
	DefaultVATRate       = decimal.NewFromInt(20)
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProjectChecker verifies that the parent project of a new estimate exists.
type ProjectChecker interface {
	ProjectExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service defines estimate-level operations. Every mutation that can
// invalidate the derived totals runs item write and recalculation inside
// one transaction holding the estimate row.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Estimate, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, params pagination.Params, filters Filters) ([]models.Estimate, int64, error)
	Update(ctx context.Context, input UpdateInput) (*models.Estimate, error)

	AddItem(ctx context.Context, input AddItemInput) (*models.EstimateItem, error)
	UpdateItem(ctx context.Context, input UpdateItemInput) (*models.EstimateItem, error)
	DeleteItem(ctx context.Context, input DeleteItemInput) error
	ListItems(ctx context.Context, estimateID uuid.UUID) ([]models.EstimateItem, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	projects ProjectChecker
	auditor  audit.Recorder
}

// NewService builds an estimates service. The audit recorder may be nil;
// audit is best-effort and never fails the business operation.
func NewService(repo Repository, tx txRunner, projects ProjectChecker, auditor audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("estimates repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if projects == nil {
		return nil, fmt.Errorf("project checker required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		projects: projects,
		auditor:  auditor,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Estimate, error) {
	if input.ProjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimate name required")
	}
	estimateType := input.Type
	if estimateType == "" {
		estimateType = enums.EstimateTypePreliminary
	}
	if !estimateType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid estimate type")
	}

	profit, err := markupOrDefault(input.ProfitMargin, DefaultProfitMargin, "profit_margin")
	if err != nil {
		return nil, err
	}
	overhead, err := markupOrDefault(input.OverheadCosts, DefaultOverheadCosts, "overhead_costs")
	if err != nil {
		return nil, err
	}
	vat, err := markupOrDefault(input.VATRate, DefaultVATRate, "vat_rate")
	if err != nil {
		return nil, err
	}

	exists, err := s.projects.ProjectExists(ctx, input.ProjectID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check project")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
	}

	estimate := &models.Estimate{
		ProjectID:     input.ProjectID,
		Name:          name,
		Type:          estimateType,
		Status:        enums.EstimateStatusDraft,
		ProfitMargin:  profit,
		OverheadCosts: overhead,
		VATRate:       vat,
		TotalCost:     decimal.Zero,
		FinalAmount:   decimal.Zero,
		ValidUntil:    input.ValidUntil,
		Notes:         input.Notes,
		CreatedBy:     input.Actor.UserID,
	}

	created, err := s.repo.Create(ctx, estimate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create estimate")
	}

	s.record(ctx, input.Actor, "CREATE", created.ID.String(), nil, created)
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimate id required")
	}
	estimate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load estimate")
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load estimate items")
	}
	estimate.Items = items
	return estimate, nil
}

func (s *service) ListByProject(ctx context.Context, projectID uuid.UUID, params pagination.Params, filters Filters) ([]models.Estimate, int64, error) {
	if projectID == uuid.Nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	estimates, total, err := s.repo.ListByProject(ctx, projectID, pagination.Normalize(params), filters)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list estimates")
	}
	return estimates, total, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Estimate, error) {
	if input.EstimateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimate id required")
	}

	var before, after *models.Estimate
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		estimate, err := repo.FindByIDForUpdate(ctx, input.EstimateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load estimate")
		}
		snapshot := *estimate
		before = &snapshot

		fields := map[string]any{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "estimate name required")
			}
			fields["name"] = name
			estimate.Name = name
		}
		if input.Type != nil {
			if !input.Type.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid estimate type")
			}
			fields["type"] = *input.Type
			estimate.Type = *input.Type
		}
		if input.Status != nil {
			if !input.Status.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid estimate status")
			}
			fields["status"] = *input.Status
			if *input.Status == enums.EstimateStatusApproved && estimate.Status != enums.EstimateStatusApproved {
				now := time.Now().UTC()
				actor := input.Actor.UserID
				fields["approved_by"] = actor
				fields["approved_at"] = now
				estimate.ApprovedBy = &actor
				estimate.ApprovedAt = &now
			}
			estimate.Status = *input.Status
		}
		if input.ValidUntil != nil {
			fields["valid_until"] = *input.ValidUntil
			estimate.ValidUntil = input.ValidUntil
		}
		if input.Notes != nil {
			fields["notes"] = *input.Notes
			estimate.Notes = input.Notes
		}

		markupChanged := false
		if input.ProfitMargin != nil {
			if err := validateMarkup(*input.ProfitMargin, "profit_margin"); err != nil {
				return err
			}
			fields["profit_margin"] = *input.ProfitMargin
			estimate.ProfitMargin = *input.ProfitMargin
			markupChanged = true
		}
		if input.OverheadCosts != nil {
			if err := validateMarkup(*input.OverheadCosts, "overhead_costs"); err != nil {
				return err
			}
			fields["overhead_costs"] = *input.OverheadCosts
			estimate.OverheadCosts = *input.OverheadCosts
			markupChanged = true
		}
		if input.VATRate != nil {
			if err := validateMarkup(*input.VATRate, "vat_rate"); err != nil {
				return err
			}
			fields["vat_rate"] = *input.VATRate
			estimate.VATRate = *input.VATRate
			markupChanged = true
		}

		if len(fields) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
		}
		if err := repo.UpdateFields(ctx, estimate.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update estimate")
		}
		if markupChanged {
			if err := s.recalculate(ctx, repo, estimate); err != nil {
				return err
			}
		}
		after = estimate
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, input.Actor, "UPDATE", input.EstimateID.String(), before, after)
	return after, nil
}

func (s *service) AddItem(ctx context.Context, input AddItemInput) (*models.EstimateItem, error) {
	if input.EstimateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimate id required")
	}
	if err := validateItemRequired(input.Category, input.Name, input.Unit); err != nil {
		return nil, err
	}
	if err := validateAmount(input.Quantity, "quantity"); err != nil {
		return nil, err
	}
	if err := validateAmount(input.UnitPrice, "unit_price"); err != nil {
		return nil, err
	}

	item := &models.EstimateItem{
		EstimateID:    input.EstimateID,
		Category:      strings.TrimSpace(input.Category),
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Unit:          strings.TrimSpace(input.Unit),
		Quantity:      input.Quantity,
		UnitPrice:     input.UnitPrice,
		TotalPrice:    ItemTotal(input.Quantity, input.UnitPrice),
		LaborCost:     input.LaborCost,
		MaterialCost:  input.MaterialCost,
		EquipmentCost: input.EquipmentCost,
		GOSTCode:      input.GOSTCode,
		Notes:         input.Notes,
	}
	if input.SortOrder != nil {
		item.SortOrder = *input.SortOrder
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		estimate, err := repo.FindByIDForUpdate(ctx, input.EstimateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load estimate")
		}
		if _, err := repo.CreateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create estimate item")
		}
		return s.recalculate(ctx, repo, estimate)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, input.Actor, "CREATE", item.ID.String(), nil, item)
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, input UpdateItemInput) (*models.EstimateItem, error) {
	if input.EstimateID == uuid.Nil || input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimate id and item id required")
	}

	var before, after *models.EstimateItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		estimate, err := repo.FindByIDForUpdate(ctx, input.EstimateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load estimate")
		}

		item, err := repo.FindItem(ctx, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "estimate item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load estimate item")
		}
		if item.EstimateID != estimate.ID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "estimate item not found")
		}
		snapshot := *item
		before = &snapshot

		fields := map[string]any{}
		if input.Category != nil {
			category := strings.TrimSpace(*input.Category)
			if category == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "category required")
			}
			fields["category"] = category
			item.Category = category
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "item name required")
			}
			fields["name"] = name
			item.Name = name
		}
		if input.Description != nil {
			fields["description"] = *input.Description
			item.Description = input.Description
		}
		if input.Unit != nil {
			unit := strings.TrimSpace(*input.Unit)
			if unit == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "unit required")
			}
			fields["unit"] = unit
			item.Unit = unit
		}

		priceChanged := false
		if input.Quantity != nil {
			if err := validateAmount(*input.Quantity, "quantity"); err != nil {
				return err
			}
			fields["quantity"] = *input.Quantity
			item.Quantity = *input.Quantity
			priceChanged = true
		}
		if input.UnitPrice != nil {
			if err := validateAmount(*input.UnitPrice, "unit_price"); err != nil {
				return err
			}
			fields["unit_price"] = *input.UnitPrice
			item.UnitPrice = *input.UnitPrice
			priceChanged = true
		}
		if priceChanged {
			item.TotalPrice = ItemTotal(item.Quantity, item.UnitPrice)
			fields["total_price"] = item.TotalPrice
		}

		if input.LaborCost != nil {
			fields["labor_cost"] = *input.LaborCost
			item.LaborCost = input.LaborCost
		}
		if input.MaterialCost != nil {
			fields["material_cost"] = *input.MaterialCost
			item.MaterialCost = input.MaterialCost
		}
		if input.EquipmentCost != nil {
			fields["equipment_cost"] = *input.EquipmentCost
			item.EquipmentCost = input.EquipmentCost
		}
		if input.GOSTCode != nil {
			fields["gost_code"] = *input.GOSTCode
			item.GOSTCode = input.GOSTCode
		}
		if input.SortOrder != nil {
			fields["sort_order"] = *input.SortOrder
			item.SortOrder = *input.SortOrder
		}
		if input.Notes != nil {
			fields["notes"] = *input.Notes
			item.Notes = input.Notes
		}

		if len(fields) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
		}
		if err := repo.UpdateItemFields(ctx, item.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update estimate item")
		}
		if priceChanged {
			if err := s.recalculate(ctx, repo, estimate); err != nil {
				return err
			}
		}
		after = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, input.Actor, "UPDATE", input.ItemID.String(), before, after)
	return after, nil
}

func (s *service) DeleteItem(ctx context.Context, input DeleteItemInput) error {
	if input.EstimateID == uuid.Nil || input.ItemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "estimate id and item id required")
	}

	var removed *models.EstimateItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		estimate, err := repo.FindByIDForUpdate(ctx, input.EstimateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load estimate")
		}

		item, err := repo.FindItem(ctx, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "estimate item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load estimate item")
		}
		if item.EstimateID != estimate.ID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "estimate item not found")
		}
		removed = item

		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete estimate item")
		}
		return s.recalculate(ctx, repo, estimate)
	})
	if err != nil {
		return err
	}

	s.record(ctx, input.Actor, "DELETE", input.ItemID.String(), removed, nil)
	return nil
}

func (s *service) ListItems(ctx context.Context, estimateID uuid.UUID) ([]models.EstimateItem, error) {
	if estimateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimate id required")
	}
	if _, err := s.repo.FindByID(ctx, estimateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load estimate")
	}
	items, err := s.repo.ListItems(ctx, estimateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list estimate items")
	}
	return items, nil
}

// recalculate re-derives total_cost and final_amount from the current item
// rows and the estimate's markup percentages. Callers must hold the
// estimate row (FindByIDForUpdate) in the same transaction.
func (s *service) recalculate(ctx context.Context, repo Repository, estimate *models.Estimate) error {
	items, err := repo.ListItems(ctx, estimate.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read items for recalculation")
	}
	totals := ComputeTotals(items, estimate.ProfitMargin, estimate.OverheadCosts, estimate.VATRate)
	err = repo.UpdateFields(ctx, estimate.ID, map[string]any{
		"total_cost":   totals.TotalCost,
		"final_amount": totals.FinalAmount,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write derived totals")
	}
	estimate.TotalCost = totals.TotalCost
	estimate.FinalAmount = totals.FinalAmount
	return nil
}

func (s *service) record(ctx context.Context, actor ActorContext, action, recordID string, oldValues, newValues any) {
	if s.auditor == nil {
		return
	}
	entry := audit.Entry{
		Action:    action,
		TableName: tableForAction(oldValues, newValues),
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

func tableForAction(oldValues, newValues any) string {
	switch newValues.(type) {
	case *models.EstimateItem:
		return "estimate_items"
	case *models.Estimate:
		return "estimates"
	}
	switch oldValues.(type) {
	case *models.EstimateItem:
		return "estimate_items"
	}
	return "estimates"
}

func markupOrDefault(value *decimal.Decimal, fallback decimal.Decimal, field string) (decimal.Decimal, error) {
	if value == nil {
		return fallback, nil
	}
	if err := validateMarkup(*value, field); err != nil {
		return decimal.Zero, err
	}
	return *value, nil
}

func validateMarkup(value decimal.Decimal, field string) error {
	if value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" must be non-negative")
	}
	return nil
}

func validateAmount(value decimal.Decimal, field string) error {
	if value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" must be non-negative")
	}
	return nil
}

func validateItemRequired(category, name, unit string) error {
	if strings.TrimSpace(category) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category required")
	}
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}
	if strings.TrimSpace(unit) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit required")
	}
	return nil
}
