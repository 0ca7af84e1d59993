package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/api/responses"
	catalogsvc "github.com/tiredist/tiredist-backend/internal/catalog"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
)

// StorefrontCatalog lists the resolved tenant's visible catalog with final
// prices computed at the tenant's margin.
func StorefrontCatalog(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query, err := browseQueryFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.Browse(r.Context(), tenantID, *query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// StorefrontCatalogItem returns one visible catalog row with its final price.
func StorefrontCatalogItem(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tireID, err := pathUUID(r, "tireId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), tenantID, tireID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func browseQueryFromRequest(r *http.Request) (*catalogsvc.BrowseQuery, error) {
	q := r.URL.Query()
	query := catalogsvc.BrowseQuery{Search: strings.TrimSpace(q.Get("search"))}

	var err error
	if query.BrandID, err = queryUUID(r, "brand_id"); err != nil {
		return nil, err
	}
	if query.CategoryID, err = queryUUID(r, "category_id"); err != nil {
		return nil, err
	}
	if raw := strings.TrimSpace(q.Get("vehicle_type")); raw != "" {
		vt, parseErr := enums.ParseVehicleType(raw)
		if parseErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid vehicle type")
		}
		query.VehicleType = &vt
	}
	if raw := strings.TrimSpace(q.Get("season")); raw != "" {
		season, parseErr := enums.ParseSeason(raw)
		if parseErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid season")
		}
		query.Season = &season
	}
	if query.MinPrice, err = queryDecimal(r, "min_price"); err != nil {
		return nil, err
	}
	if query.MaxPrice, err = queryDecimal(r, "max_price"); err != nil {
		return nil, err
	}
	if raw := strings.TrimSpace(q.Get("sort")); raw != "" {
		sort, parseErr := enums.ParseCatalogSort(raw)
		if parseErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid sort")
		}
		query.Sort = sort
	}
	if query.Page, err = pageParams(r); err != nil {
		return nil, err
	}
	return &query, nil
}

func queryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return &value, nil
}
