package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/internal/catalog"
	"github.com/tiredist/tiredist-backend/pkg/db/models"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
)

var cents = decimal.NewFromInt(100)

type tenantFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type tireFinder interface {
	FindByIDForTenant(ctx context.Context, tenantID, tireID uuid.UUID) (*models.Tire, error)
}

// CheckoutLineInput is one cart line in the storefront checkout request.
type CheckoutLineInput struct {
	TireID   uuid.UUID `json:"tire_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

// CheckoutInput captures the storefront checkout request.
type CheckoutInput struct {
	CustomerEmail string              `json:"customer_email" validate:"required,email"`
	CustomerName  string              `json:"customer_name" validate:"required"`
	SuccessURL    string              `json:"success_url" validate:"required,url"`
	CancelURL     string              `json:"cancel_url" validate:"required,url"`
	Items         []CheckoutLineInput `json:"items" validate:"required,min=1,dive"`
}

// CheckoutResult points the storefront at the hosted payment page.
type CheckoutResult struct {
	SessionID string          `json:"session_id"`
	URL       string          `json:"url"`
	Total     decimal.Decimal `json:"total"`
}

// Service builds Stripe Checkout Sessions priced at storefront final prices.
type Service interface {
	CreateSession(ctx context.Context, tenantID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
}

type service struct {
	tenants tenantFinder
	tires   tireFinder
	stripe  StripeCheckoutClient
	logg    *logger.Logger
}

// NewService builds the checkout service.
func NewService(tenants tenantFinder, tires tireFinder, stripeClient StripeCheckoutClient, logg *logger.Logger) (Service, error) {
	if tenants == nil {
		return nil, fmt.Errorf("tenant finder required")
	}
	if tires == nil {
		return nil, fmt.Errorf("tire finder required")
	}
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	return &service{tenants: tenants, tires: tires, stripe: stripeClient, logg: logg}, nil
}

// CreateSession prices every line at the storefront final price and opens a
// Stripe Checkout Session. The priced cart and tenant id travel in session
// metadata; the webhook rebuilds the order from there.
func (s *service) CreateSession(ctx context.Context, tenantID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout needs at least one item")
	}

	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "storefront not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant")
	}
	if !tenant.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "storefront not found")
	}

	currency := strings.ToLower(tenant.Currency)
	if currency == "" {
		currency = "eur"
	}

	cart := make([]CartLine, 0, len(input.Items))
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.Items))
	for _, line := range input.Items {
		tire, err := s.tires.FindByIDForTenant(ctx, tenantID, line.TireID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tire not found").
					WithDetails(map[string]string{"tire_id": line.TireID.String()})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tire")
		}
		if !tire.Visible || tire.StockQty < line.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]string{"tire_id": line.TireID.String()})
		}

		unit := catalog.FinalPrice(tire.BasePrice, catalog.EffectiveMargin(tenant.Margin, tire.Margin))
		cart = append(cart, CartLine{TireID: line.TireID, Quantity: line.Quantity, UnitPrice: unit})
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(line.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(unit.Mul(cents).IntPart()),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(tire.Name),
				},
			},
		})
	}

	encodedCart, err := EncodeCartMetadata(cart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(input.SuccessURL),
		CancelURL:     stripe.String(input.CancelURL),
		CustomerEmail: stripe.String(strings.ToLower(strings.TrimSpace(input.CustomerEmail))),
		LineItems:     lineItems,
		Metadata: map[string]string{
			MetadataTenantID:     tenantID.String(),
			MetadataCustomerName: strings.TrimSpace(input.CustomerName),
			MetadataItems:        encodedCart,
		},
	}

	session, err := s.stripe.CreateSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}

	return &CheckoutResult{
		SessionID: session.ID,
		URL:       session.URL,
		Total:     CartTotal(cart),
	}, nil
}
