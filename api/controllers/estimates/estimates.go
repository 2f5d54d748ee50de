package estimates

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
	internalestimates "github.com/stroytech/stroycrm-backend/internal/estimates"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/logger"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

type createRequest struct {
	Name          string           `json:"name" validate:"required,max=255"`
	Type          string           `json:"type" validate:"required"`
	ProfitMargin  *decimal.Decimal `json:"profit_margin"`
	OverheadCosts *decimal.Decimal `json:"overhead_costs"`
	VATRate       *decimal.Decimal `json:"vat_rate"`
	ValidUntil    *time.Time       `json:"valid_until"`
	Notes         *string          `json:"notes"`
}

type updateRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Type          *string          `json:"type"`
	Status        *string          `json:"status"`
	ProfitMargin  *decimal.Decimal `json:"profit_margin"`
	OverheadCosts *decimal.Decimal `json:"overhead_costs"`
	VATRate       *decimal.Decimal `json:"vat_rate"`
	ValidUntil    *time.Time       `json:"valid_until"`
	Notes         *string          `json:"notes"`
}

type addItemRequest struct {
	Category      string           `json:"category" validate:"required,max=150"`
	Name          string           `json:"name" validate:"required,max=255"`
	Description   *string          `json:"description"`
	Unit          string           `json:"unit" validate:"required,max=32"`
	Quantity      decimal.Decimal  `json:"quantity" validate:"required"`
	UnitPrice     decimal.Decimal  `json:"unit_price" validate:"required"`
	LaborCost     *decimal.Decimal `json:"labor_cost"`
	MaterialCost  *decimal.Decimal `json:"material_cost"`
	EquipmentCost *decimal.Decimal `json:"equipment_cost"`
	GOSTCode      *string          `json:"gost_code" validate:"omitempty,max=100"`
	SortOrder     *int             `json:"sort_order"`
	Notes         *string          `json:"notes"`
}

type updateItemRequest struct {
	Category      *string          `json:"category" validate:"omitempty,min=1,max=150"`
	Name          *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string          `json:"description"`
	Unit          *string          `json:"unit" validate:"omitempty,min=1,max=32"`
	Quantity      *decimal.Decimal `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	LaborCost     *decimal.Decimal `json:"labor_cost"`
	MaterialCost  *decimal.Decimal `json:"material_cost"`
	EquipmentCost *decimal.Decimal `json:"equipment_cost"`
	GOSTCode      *string          `json:"gost_code" validate:"omitempty,max=100"`
	SortOrder     *int             `json:"sort_order"`
	Notes         *string          `json:"notes"`
}

// ListByProject returns a project's estimates filtered by status, type and
// free-text search.
func ListByProject(svc internalestimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "estimates service unavailable"))
			return
		}

		projectID, err := validators.ParseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := internalestimates.Filters{
			Query: validators.SanitizeString(r.URL.Query().Get("search"), 255),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseEstimateStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			estimateType, err := enums.ParseEstimateType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse type filter"))
				return
			}
			filters.Type = &estimateType
		}

		list, total, err := svc.ListByProject(r.Context(), projectID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list, params, total)
	}
}

// Create opens a new estimate under a project. Markup percentages left out of
// the request fall back to the standard defaults.
func Create(svc internalestimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "estimates service unavailable"))
			return
		}

		projectID, err := validators.ParseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estimateType, err := enums.ParseEstimateType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse estimate type"))
			return
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estimate, err := svc.Create(r.Context(), internalestimates.CreateInput{
			ProjectID:     projectID,
			Name:          req.Name,
			Type:          estimateType,
			ProfitMargin:  req.ProfitMargin,
			OverheadCosts: req.OverheadCosts,
			VATRate:       req.VATRate,
			ValidUntil:    req.ValidUntil,
			Notes:         req.Notes,
			Actor:         actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, estimate)
	}
}

// Detail returns one estimate by id.
func Detail(svc internalestimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "estimates service unavailable"))
			return
		}

		estimateID, err := validators.ParseUUIDParam(r, "estimateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estimate, err := svc.Get(r.Context(), estimateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, estimate)
	}
}

// Update applies a partial estimate update. Touching any markup percentage
// recomputes the derived totals before the response is written.
func Update(svc internalestimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "estimates service unavailable"))
			return
		}

		estimateID, err := validators.ParseUUIDParam(r, "estimateId")
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

		input := internalestimates.UpdateInput{
			EstimateID:    estimateID,
			Name:          req.Name,
			ProfitMargin:  req.ProfitMargin,
			OverheadCosts: req.OverheadCosts,
			VATRate:       req.VATRate,
			ValidUntil:    req.ValidUntil,
			Notes:         req.Notes,
			Actor:         actor,
		}
		if req.Type != nil {
			estimateType, err := enums.ParseEstimateType(*req.Type)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse estimate type"))
				return
			}
			input.Type = &estimateType
		}
		if req.Status != nil {
			status, err := enums.ParseEstimateStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse estimate status"))
				return
			}
			input.Status = &status
		}

		estimate, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, estimate)
	}
}

// ListItems returns an estimate's line items in display order.
func ListItems(svc internalestimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "estimates service unavailable"))
			return
		}

		estimateID, err := validators.ParseUUIDParam(r, "estimateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListItems(r.Context(), estimateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// AddItem appends a line item and returns it with the estimate totals already
// recalculated.
func AddItem(svc internalestimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "estimates service unavailable"))
			return
		}

		estimateID, err := validators.ParseUUIDParam(r, "estimateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), internalestimates.AddItemInput{
			EstimateID:    estimateID,
			Category:      req.Category,
			Name:          req.Name,
			Description:   req.Description,
			Unit:          req.Unit,
			Quantity:      req.Quantity,
			UnitPrice:     req.UnitPrice,
			LaborCost:     req.LaborCost,
			MaterialCost:  req.MaterialCost,
			EquipmentCost: req.EquipmentCost,
			GOSTCode:      req.GOSTCode,
			SortOrder:     req.SortOrder,
			Notes:         req.Notes,
			Actor:         actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// UpdateItem applies a partial line item update and recalculates the estimate.
func UpdateItem(svc internalestimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "estimates service unavailable"))
			return
		}

		estimateID, err := validators.ParseUUIDParam(r, "estimateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), internalestimates.UpdateItemInput{
			EstimateID:    estimateID,
			ItemID:        itemID,
			Category:      req.Category,
			Name:          req.Name,
			Description:   req.Description,
			Unit:          req.Unit,
			Quantity:      req.Quantity,
			UnitPrice:     req.UnitPrice,
			LaborCost:     req.LaborCost,
			MaterialCost:  req.MaterialCost,
			EquipmentCost: req.EquipmentCost,
			GOSTCode:      req.GOSTCode,
			SortOrder:     req.SortOrder,
			Notes:         req.Notes,
			Actor:         actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// DeleteItem removes a line item and recalculates the estimate.
func DeleteItem(svc internalestimates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "estimates service unavailable"))
			return
		}

		estimateID, err := validators.ParseUUIDParam(r, "estimateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteItem(r.Context(), internalestimates.DeleteItemInput{
			EstimateID: estimateID,
			ItemID:     itemID,
			Actor:      actor,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func actorContext(r *http.Request) (internalestimates.ActorContext, error) {
	raw := middleware.UserIDFromContext(r.Context())
	userID, err := uuid.Parse(raw)
	if err != nil {
		return internalestimates.ActorContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	ip, userAgent := audit.RequestMeta(r)
	return internalestimates.ActorContext{
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
