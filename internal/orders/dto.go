package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

// OrderLineInput is one cart line on order creation.
type OrderLineInput struct {
	TireID   uuid.UUID `json:"tire_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput captures a direct order for the resolved storefront.
type CreateOrderInput struct {
	CustomerEmail string           `json:"customer_email" validate:"required,email"`
	CustomerName  string           `json:"customer_name" validate:"required"`
	Items         []OrderLineInput `json:"items" validate:"required,min=1,dive"`
}

// OrderItemDTO is a priced line on an order.
type OrderItemDTO struct {
	TireID    uuid.UUID       `json:"tire_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderDTO is the order shape returned to controllers.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	TenantID        uuid.UUID         `json:"tenant_id"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerName    string            `json:"customer_name"`
	Total           decimal.Decimal   `json:"total"`
	Status          enums.OrderStatus `json:"status"`
	StripeSessionID *string           `json:"stripe_session_id,omitempty"`
	Items           []OrderItemDTO    `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ListOrdersQuery filters the tenant's order listing.
type ListOrdersQuery struct {
	Status *enums.OrderStatus
	Page   pagination.Params
}

func toDTO(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			TireID:    item.TireID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return &OrderDTO{
		ID:              o.ID,
		TenantID:        o.TenantID,
		CustomerEmail:   o.CustomerEmail,
		CustomerName:    o.CustomerName,
		Total:           o.Total,
		Status:          o.Status,
		StripeSessionID: o.StripeSessionID,
		Items:           items,
		CreatedAt:       o.CreatedAt,
	}
}
