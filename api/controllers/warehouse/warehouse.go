package warehouse

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stroytech/stroycrm-backend/api/middleware"
	"github.com/stroytech/stroycrm-backend/api/responses"
	"github.com/stroytech/stroycrm-backend/api/validators"
	"github.com/stroytech/stroycrm-backend/internal/audit"
	internalwarehouse "github.com/stroytech/stroycrm-backend/internal/warehouse"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/logger"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

type createItemRequest struct {
	Name            string           `json:"name" validate:"required,max=255"`
	Description     *string          `json:"description"`
	Article         *string          `json:"article" validate:"omitempty,max=100"`
	Category        string           `json:"category" validate:"required,max=150"`
	Unit            string           `json:"unit" validate:"required,max=32"`
	CurrentQuantity *decimal.Decimal `json:"current_quantity"`
	MinQuantity     *decimal.Decimal `json:"min_quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	Location        *string          `json:"location" validate:"omitempty,max=255"`
	Notes           *string          `json:"notes"`
}

type updateItemRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	Article     *string          `json:"article" validate:"omitempty,max=100"`
	Category    *string          `json:"category" validate:"omitempty,min=1,max=150"`
	Unit        *string          `json:"unit" validate:"omitempty,min=1,max=32"`
	MinQuantity *decimal.Decimal `json:"min_quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Location    *string          `json:"location" validate:"omitempty,max=255"`
	Status      *string          `json:"status"`
	Notes       *string          `json:"notes"`
}

type movementRequest struct {
	Type      string           `json:"type" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity" validate:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	ProjectID *uuid.UUID       `json:"project_id"`
	Reason    *string          `json:"reason" validate:"omitempty,max=500"`
}

// ListItems returns a stock item page. The low_stock flag narrows the page to
// items below their minimum quantity.
func ListItems(svc internalwarehouse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := internalwarehouse.ItemFilters{
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			Query:    validators.SanitizeString(r.URL.Query().Get("search"), 255),
			LowStock: r.URL.Query().Get("low_stock") == "true",
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseWarehouseItemStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse status filter"))
				return
			}
			filters.Status = &status
		}

		list, total, err := svc.ListItems(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list, params, total)
	}
}

// CreateItem registers a new stock position.
func CreateItem(svc internalwarehouse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		var req createItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), internalwarehouse.CreateItemInput{
			Name:            req.Name,
			Description:     req.Description,
			Article:         req.Article,
			Category:        req.Category,
			Unit:            req.Unit,
			CurrentQuantity: req.CurrentQuantity,
			MinQuantity:     req.MinQuantity,
			UnitPrice:       req.UnitPrice,
			Location:        req.Location,
			Notes:           req.Notes,
			Actor:           actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// ItemDetail returns one stock item by id.
func ItemDetail(svc internalwarehouse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// UpdateItem applies a partial item update. Stock levels are adjusted through
// movements, not through this handler.
func UpdateItem(svc internalwarehouse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
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

		input := internalwarehouse.UpdateItemInput{
			ItemID:      itemID,
			Name:        req.Name,
			Description: req.Description,
			Article:     req.Article,
			Category:    req.Category,
			Unit:        req.Unit,
			MinQuantity: req.MinQuantity,
			UnitPrice:   req.UnitPrice,
			Location:    req.Location,
			Notes:       req.Notes,
			Actor:       actor,
		}
		if req.Status != nil {
			status, err := enums.ParseWarehouseItemStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse item status"))
				return
			}
			input.Status = &status
		}

		item, err := svc.UpdateItem(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// CreateMovement records a receipt, issue, write-off or transfer against an
// item and adjusts its stock level.
func CreateMovement(svc internalwarehouse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req movementRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movementType, err := enums.ParseMovementType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse movement type"))
			return
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.RecordMovement(r.Context(), internalwarehouse.MovementInput{
			ItemID:    itemID,
			Type:      movementType,
			Quantity:  req.Quantity,
			UnitPrice: req.UnitPrice,
			ProjectID: req.ProjectID,
			Reason:    req.Reason,
			Actor:     actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

// ListMovements returns an item's movement history, newest first.
func ListMovements(svc internalwarehouse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, total, err := svc.ListMovements(r.Context(), itemID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list, params, total)
	}
}

func actorContext(r *http.Request) (internalwarehouse.ActorContext, error) {
	raw := middleware.UserIDFromContext(r.Context())
	userID, err := uuid.Parse(raw)
	if err != nil {
		return internalwarehouse.ActorContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	ip, userAgent := audit.RequestMeta(r)
	return internalwarehouse.ActorContext{
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
