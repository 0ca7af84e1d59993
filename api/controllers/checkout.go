package controllers

import (
	"net/http"

	"github.com/tiredist/tiredist-backend/api/responses"
	"github.com/tiredist/tiredist-backend/api/validators"
	checkoutsvc "github.com/tiredist/tiredist-backend/internal/checkout"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
)

// StorefrontCheckout opens a hosted Stripe Checkout Session for the cart.
// The order itself is created later by the webhook, so this endpoint only
// validates the cart and prices it.
func StorefrontCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutsvc.CheckoutInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateSession(r.Context(), tenantID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
