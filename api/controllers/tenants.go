package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/api/responses"
	"github.com/tiredist/tiredist-backend/api/validators"
	tenantssvc "github.com/tiredist/tiredist-backend/internal/tenants"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
)

// StorefrontConfig returns the resolved tenant's public branding. It runs
// behind the host resolver, so the tenant in context is already validated.
func StorefrontConfig(svc tenantssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tenant, err := svc.GetByID(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tenant)
	}
}

// TenantProfile returns the authenticated tenant's own record.
func TenantProfile(svc tenantssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tenant, err := svc.GetByID(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tenant)
	}
}

type updateTenantRequest struct {
	Name           *string          `json:"name,omitempty"`
	Margin         *decimal.Decimal `json:"margin,omitempty"`
	CustomDomain   *string          `json:"custom_domain,omitempty"`
	LogoURL        *string          `json:"logo_url,omitempty"`
	PrimaryColor   *string          `json:"primary_color,omitempty"`
	SecondaryColor *string          `json:"secondary_color,omitempty"`
	ContactEmail   *string          `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone   *string          `json:"contact_phone,omitempty"`
	IsActive       *bool            `json:"is_active,omitempty"`
}

// TenantUpdate mutates the authenticated tenant's branding and margin.
func TenantUpdate(svc tenantssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateTenantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tenant, err := svc.Update(r.Context(), tenantID, tenantssvc.UpdateTenantInput{
			Name:           payload.Name,
			Margin:         payload.Margin,
			CustomDomain:   payload.CustomDomain,
			LogoURL:        payload.LogoURL,
			PrimaryColor:   payload.PrimaryColor,
			SecondaryColor: payload.SecondaryColor,
			ContactEmail:   payload.ContactEmail,
			ContactPhone:   payload.ContactPhone,
			IsActive:       payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tenant)
	}
}

// AdminListResellers lists every reseller tenant on the platform.
func AdminListResellers(svc tenantssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		resellers, err := svc.ListResellers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resellers)
	}
}

type createResellerRequest struct {
	Slug         string          `json:"slug" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Margin       decimal.Decimal `json:"margin"`
	CustomDomain *string         `json:"custom_domain,omitempty"`
	ContactEmail *string         `json:"contact_email,omitempty" validate:"omitempty,email"`
	AdminEmail   string          `json:"admin_email" validate:"required,email"`
	AdminName    string          `json:"admin_name" validate:"required"`
	LogoURL      *string         `json:"logo_url,omitempty"`
	PrimaryColor *string         `json:"primary_color,omitempty"`
	Currency     string          `json:"currency,omitempty"`
	Language     string          `json:"language,omitempty"`
}

// AdminCreateReseller onboards a reseller storefront: tenant row, admin
// account with a generated password, and a full catalog copy.
func AdminCreateReseller(svc tenantssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		var payload createResellerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateReseller(r.Context(), tenantssvc.CreateResellerInput{
			Slug:         payload.Slug,
			Name:         payload.Name,
			Margin:       payload.Margin,
			CustomDomain: payload.CustomDomain,
			ContactEmail: payload.ContactEmail,
			AdminEmail:   payload.AdminEmail,
			AdminName:    payload.AdminName,
			LogoURL:      payload.LogoURL,
			PrimaryColor: payload.PrimaryColor,
			Currency:     payload.Currency,
			Language:     payload.Language,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AdminUpdateTenant mutates any tenant by id.
func AdminUpdateTenant(svc tenantssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		tenantID, err := pathUUID(r, "tenantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateTenantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tenant, err := svc.Update(r.Context(), tenantID, tenantssvc.UpdateTenantInput{
			Name:           payload.Name,
			Margin:         payload.Margin,
			CustomDomain:   payload.CustomDomain,
			LogoURL:        payload.LogoURL,
			PrimaryColor:   payload.PrimaryColor,
			SecondaryColor: payload.SecondaryColor,
			ContactEmail:   payload.ContactEmail,
			ContactPhone:   payload.ContactPhone,
			IsActive:       payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tenant)
	}
}
