package clients

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/stroytech/stroycrm-backend/api/middleware"
	"github.com/stroytech/stroycrm-backend/api/responses"
	"github.com/stroytech/stroycrm-backend/api/validators"
	"github.com/stroytech/stroycrm-backend/internal/audit"
	internalclients "github.com/stroytech/stroycrm-backend/internal/clients"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/logger"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

type createRequest struct {
	Type          string  `json:"type" validate:"required"`
	Name          string  `json:"name" validate:"required,max=255"`
	LegalName     *string `json:"legal_name"`
	INN           *string `json:"inn"`
	KPP           *string `json:"kpp"`
	OGRN          *string `json:"ogrn"`
	Address       *string `json:"address"`
	LegalAddress  *string `json:"legal_address"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" validate:"omitempty,email"`
	ContactPerson *string `json:"contact_person"`
	ContactPhone  *string `json:"contact_phone"`
	ContactEmail  *string `json:"contact_email" validate:"omitempty,email"`
	BankName      *string `json:"bank_name"`
	BankAccount   *string `json:"bank_account"`
	BankBIK       *string `json:"bank_bik"`
	Status        *string `json:"status"`
	Source        *string `json:"source"`
	Notes         *string `json:"notes"`
}

type updateRequest struct {
	Type          *string `json:"type"`
	Name          *string `json:"name" validate:"omitempty,min=1,max=255"`
	LegalName     *string `json:"legal_name"`
	INN           *string `json:"inn"`
	KPP           *string `json:"kpp"`
	OGRN          *string `json:"ogrn"`
	Address       *string `json:"address"`
	LegalAddress  *string `json:"legal_address"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" validate:"omitempty,email"`
	ContactPerson *string `json:"contact_person"`
	ContactPhone  *string `json:"contact_phone"`
	ContactEmail  *string `json:"contact_email" validate:"omitempty,email"`
	BankName      *string `json:"bank_name"`
	BankAccount   *string `json:"bank_account"`
	BankBIK       *string `json:"bank_bik"`
	Status        *string `json:"status"`
	Source        *string `json:"source"`
	Notes         *string `json:"notes"`
}

// List returns a client page filtered by type, status and free-text search.
func List(svc internalclients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "clients service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, total, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list, params, total)
	}
}

// Create registers a new client.
func Create(svc internalclients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "clients service unavailable"))
			return
		}

		var req createRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clientType, err := enums.ParseClientType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse client type"))
			return
		}
		var status *enums.ClientStatus
		if req.Status != nil {
			parsed, err := enums.ParseClientStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse client status"))
				return
			}
			status = &parsed
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Create(r.Context(), internalclients.CreateInput{
			Type:          clientType,
			Name:          req.Name,
			LegalName:     req.LegalName,
			INN:           req.INN,
			KPP:           req.KPP,
			OGRN:          req.OGRN,
			Address:       req.Address,
			LegalAddress:  req.LegalAddress,
			Phone:         req.Phone,
			Email:         req.Email,
			ContactPerson: req.ContactPerson,
			ContactPhone:  req.ContactPhone,
			ContactEmail:  req.ContactEmail,
			BankName:      req.BankName,
			BankAccount:   req.BankAccount,
			BankBIK:       req.BankBIK,
			Status:        status,
			Source:        req.Source,
			Notes:         req.Notes,
			Actor:         actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, client)
	}
}

// Detail returns one client by id.
func Detail(svc internalclients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "clients service unavailable"))
			return
		}

		clientID, err := validators.ParseUUIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		client, err := svc.Get(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

// Update applies a partial client update.
func Update(svc internalclients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "clients service unavailable"))
			return
		}

		clientID, err := validators.ParseUUIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalclients.UpdateInput{
			ClientID:      clientID,
			Name:          req.Name,
			LegalName:     req.LegalName,
			INN:           req.INN,
			KPP:           req.KPP,
			OGRN:          req.OGRN,
			Address:       req.Address,
			LegalAddress:  req.LegalAddress,
			Phone:         req.Phone,
			Email:         req.Email,
			ContactPerson: req.ContactPerson,
			ContactPhone:  req.ContactPhone,
			ContactEmail:  req.ContactEmail,
			BankName:      req.BankName,
			BankAccount:   req.BankAccount,
			BankBIK:       req.BankBIK,
			Source:        req.Source,
			Notes:         req.Notes,
		}
		if req.Type != nil {
			parsed, err := enums.ParseClientType(*req.Type)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse client type"))
				return
			}
			input.Type = &parsed
		}
		if req.Status != nil {
			parsed, err := enums.ParseClientStatus(*req.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse client status"))
				return
			}
			input.Status = &parsed
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Actor = actor

		client, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

// Delete removes a client.
func Delete(svc internalclients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "clients service unavailable"))
			return
		}

		clientID, err := validators.ParseUUIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), clientID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func buildFilters(r *http.Request) (internalclients.Filters, error) {
	filters := internalclients.Filters{
		Query: validators.SanitizeString(r.URL.Query().Get("search"), 255),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		parsed, err := enums.ParseClientType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse client type")
		}
		filters.Type = &parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, err := enums.ParseClientStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse client status")
		}
		filters.Status = &parsed
	}
	return filters, nil
}

func actorContext(r *http.Request) (internalclients.ActorContext, error) {
	raw := middleware.UserIDFromContext(r.Context())
	userID, err := uuid.Parse(raw)
	if err != nil {
		return internalclients.ActorContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	ip, userAgent := audit.RequestMeta(r)
	return internalclients.ActorContext{
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
