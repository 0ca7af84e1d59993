package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tiredist/tiredist-backend/api/responses"
	"github.com/tiredist/tiredist-backend/api/validators"
	retreadssvc "github.com/tiredist/tiredist-backend/internal/retreads"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
)

// RetreadCreate records one reconditioning cycle and applies the eco-score
// decay to the tire.
func RetreadCreate(svc retreadssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "retread service unavailable"))
			return
		}

		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload retreadssvc.CreateRetreadInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		retread, err := svc.Create(r.Context(), tenantID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, retread)
	}
}

// RetreadList pages through the tenant's retread ledger.
func RetreadList(svc retreadssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "retread service unavailable"))
			return
		}

		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := retreadssvc.ListRetreadsQuery{}
		if raw := strings.TrimSpace(r.URL.Query().Get("casing_id")); raw != "" {
			query.CasingID = &raw
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("grade")); raw != "" {
			grade, parseErr := enums.ParseRetreadGrade(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid grade"))
				return
			}
			query.Grade = &grade
		}
		if query.Page, err = pageParams(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), tenantID, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// RetreadAnalytics aggregates the tenant's ledger. The optional from/to
// query parameters are RFC 3339 timestamps bounding the window.
func RetreadAnalytics(svc retreadssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "retread service unavailable"))
			return
		}

		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := retreadssvc.AnalyticsQuery{}
		if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
			ts, parseErr := time.Parse(time.RFC3339, raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid from date"))
				return
			}
			query.From = &ts
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
			ts, parseErr := time.Parse(time.RFC3339, raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid to date"))
				return
			}
			query.To = &ts
		}

		analytics, err := svc.Analytics(r.Context(), tenantID, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, analytics)
	}
}

// RetreadCasingHistory returns a casing's full ledger with stats.
func RetreadCasingHistory(svc retreadssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "retread service unavailable"))
			return
		}

		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		casingID := strings.TrimSpace(chi.URLParam(r, "casingId"))
		if casingID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing casingId"))
			return
		}

		history, err := svc.CasingHistory(r.Context(), tenantID, casingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}

type generateQRRequest struct {
	CasingID string    `json:"casing_id" validate:"required"`
	TireID   uuid.UUID `json:"tire_id" validate:"required"`
}

// RetreadGenerateQR builds the printable QR label for a casing.
func RetreadGenerateQR(svc retreadssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "retread service unavailable"))
			return
		}

		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload generateQRRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GenerateQR(r.Context(), tenantID, payload.CasingID, payload.TireID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type scanQRRequest struct {
	Data string `json:"data" validate:"required"`
}

// RetreadScanQR decodes a scanned label and returns the casing's ledger.
// Field technicians scan casings that may belong to any tenant, so the
// endpoint is public and unscoped.
func RetreadScanQR(svc retreadssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "retread service unavailable"))
			return
		}

		var payload scanQRRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ScanQR(r.Context(), payload.Data)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
