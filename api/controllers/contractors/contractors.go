package contractors

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stroytech/stroycrm-backend/api/middleware"
	"github.com/stroytech/stroycrm-backend/api/responses"
	"github.com/stroytech/stroycrm-backend/api/validators"
	"github.com/stroytech/stroycrm-backend/internal/audit"
	internalcontractors "github.com/stroytech/stroycrm-backend/internal/contractors"
	pkgerrors "github.com/stroytech/stroycrm-backend/pkg/errors"
	"github.com/stroytech/stroycrm-backend/pkg/logger"
	"github.com/stroytech/stroycrm-backend/pkg/pagination"
)

type createRequest struct {
	Name           string           `json:"name" validate:"required,max=255"`
	LegalName      *string          `json:"legal_name"`
	INN            *string          `json:"inn"`
	KPP            *string          `json:"kpp"`
	OGRN           *string          `json:"ogrn"`
	Address        *string          `json:"address"`
	Phone          *string          `json:"phone"`
	Email          *string          `json:"email" validate:"omitempty,email"`
	ContactPerson  *string          `json:"contact_person"`
	ContactPhone   *string          `json:"contact_phone"`
	ContactEmail   *string          `json:"contact_email" validate:"omitempty,email"`
	BankName       *string          `json:"bank_name"`
	BankAccount    *string          `json:"bank_account"`
	BankBIK        *string          `json:"bank_bik"`
	Specialization *string          `json:"specialization"`
	Rating         *decimal.Decimal `json:"rating"`
	Status         *string          `json:"status"`
	Notes          *string          `json:"notes"`
}

type updateRequest struct {
	Name           *string          `json:"name" validate:"omitempty,min=1,max=255"`
	LegalName      *string          `json:"legal_name"`
	INN            *string          `json:"inn"`
	KPP            *string          `json:"kpp"`
	OGRN           *string          `json:"ogrn"`
	Address        *string          `json:"address"`
	Phone          *string          `json:"phone"`
	Email          *string          `json:"email" validate:"omitempty,email"`
	ContactPerson  *string          `json:"contact_person"`
	ContactPhone   *string          `json:"contact_phone"`
	ContactEmail   *string          `json:"contact_email" validate:"omitempty,email"`
	BankName       *string          `json:"bank_name"`
	BankAccount    *string          `json:"bank_account"`
	BankBIK        *string          `json:"bank_bik"`
	Specialization *string          `json:"specialization"`
	Rating         *decimal.Decimal `json:"rating"`
	Status         *string          `json:"status"`
	Notes          *string          `json:"notes"`
}

// List returns a contractor page filtered by status, specialization and
// free-text search.
func List(svc internalcontractors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contractors service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := internalcontractors.Filters{
			Status:         strings.TrimSpace(r.URL.Query().Get("status")),
			Specialization: strings.TrimSpace(r.URL.Query().Get("specialization")),
			Query:          validators.SanitizeString(r.URL.Query().Get("search"), 255),
		}

		list, total, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list, params, total)
	}
}

// Create registers a new contractor.
func Create(svc internalcontractors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contractors service unavailable"))
			return
		}

		var req createRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		contractor, err := svc.Create(r.Context(), internalcontractors.CreateInput{
			Name:           req.Name,
			LegalName:      req.LegalName,
			INN:            req.INN,
			KPP:            req.KPP,
			OGRN:           req.OGRN,
			Address:        req.Address,
			Phone:          req.Phone,
			Email:          req.Email,
			ContactPerson:  req.ContactPerson,
			ContactPhone:   req.ContactPhone,
			ContactEmail:   req.ContactEmail,
			BankName:       req.BankName,
			BankAccount:    req.BankAccount,
			BankBIK:        req.BankBIK,
			Specialization: req.Specialization,
			Rating:         req.Rating,
			Status:         req.Status,
			Notes:          req.Notes,
			Actor:          actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, contractor)
	}
}

// Detail returns one contractor by id.
func Detail(svc internalcontractors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contractors service unavailable"))
			return
		}

		contractorID, err := validators.ParseUUIDParam(r, "contractorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		contractor, err := svc.Get(r.Context(), contractorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, contractor)
	}
}

// Update applies a partial contractor update.
func Update(svc internalcontractors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contractors service unavailable"))
			return
		}

		contractorID, err := validators.ParseUUIDParam(r, "contractorId")
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

		contractor, err := svc.Update(r.Context(), internalcontractors.UpdateInput{
			ContractorID:   contractorID,
			Name:           req.Name,
			LegalName:      req.LegalName,
			INN:            req.INN,
			KPP:            req.KPP,
			OGRN:           req.OGRN,
			Address:        req.Address,
			Phone:          req.Phone,
			Email:          req.Email,
			ContactPerson:  req.ContactPerson,
			ContactPhone:   req.ContactPhone,
			ContactEmail:   req.ContactEmail,
			BankName:       req.BankName,
			BankAccount:    req.BankAccount,
			BankBIK:        req.BankBIK,
			Specialization: req.Specialization,
			Rating:         req.Rating,
			Status:         req.Status,
			Notes:          req.Notes,
			Actor:          actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, contractor)
	}
}

// Delete removes a contractor.
func Delete(svc internalcontractors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contractors service unavailable"))
			return
		}

		contractorID, err := validators.ParseUUIDParam(r, "contractorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), contractorID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func actorContext(r *http.Request) (internalcontractors.ActorContext, error) {
	raw := middleware.UserIDFromContext(r.Context())
	userID, err := uuid.Parse(raw)
	if err != nil {
		return internalcontractors.ActorContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	ip, userAgent := audit.RequestMeta(r)
	return internalcontractors.ActorContext{
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
