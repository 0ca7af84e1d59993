package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/internal/catalog"
	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
	"github.com/tiredist/tiredist-backend/pkg/outbox"
	"github.com/tiredist/tiredist-backend/pkg/outbox/payloads"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

type orderRepository interface {
	CreateTx(tx *gorm.DB, order *models.Order) error
	FindForTenant(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, tenantID uuid.UUID, q ListOrdersQuery) ([]models.Order, int64, error)
	UpdateStatusTx(tx *gorm.DB, orderID uuid.UUID, status string) error
	DecrementStockTx(tx *gorm.DB, tenantID, tireID uuid.UUID, quantity int) (bool, error)
}

type tenantFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type tireFinder interface {
	FindByIDForTenant(ctx context.Context, tenantID, tireID uuid.UUID) (*models.Tire, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes order operations for storefront and back-office routes.
type Service interface {
	Create(ctx context.Context, tenantID uuid.UUID, input CreateOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, tenantID uuid.UUID, q ListOrdersQuery) ([]OrderDTO, pagination.Page, error)
	UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error)
}

type service struct {
	repo    orderRepository
	tenants tenantFinder
	tires   tireFinder
	tx      txRunner
	events  eventEmitter
	logg    *logger.Logger
}

// NewService builds the order service.
func NewService(repo orderRepository, tenants tenantFinder, tires tireFinder, tx txRunner, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tenants == nil {
		return nil, fmt.Errorf("tenant finder required")
	}
	if tires == nil {
		return nil, fmt.Errorf("tire finder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{repo: repo, tenants: tenants, tires: tires, tx: tx, events: events, logg: logg}, nil
}

// Create prices every line at the storefront final price, snapshots the unit
// prices, decrements stock, and records the order.created outbox event in the
// same transaction.
func (s *service) Create(ctx context.Context, tenantID uuid.UUID, input CreateOrderInput) (*OrderDTO, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
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

	order := &models.Order{
		TenantID:      tenantID,
		CustomerEmail: input.CustomerEmail,
		CustomerName:  input.CustomerName,
		Status:        enums.OrderStatusPending,
	}

	total := decimal.Zero
	for _, line := range input.Items {
		tire, err := s.tires.FindByIDForTenant(ctx, tenantID, line.TireID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tire not found").
					WithDetails(map[string]string{"tire_id": line.TireID.String()})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tire")
		}
		if !tire.Visible {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tire not found").
				WithDetails(map[string]string{"tire_id": line.TireID.String()})
		}

		unit := catalog.FinalPrice(tire.BasePrice, catalog.EffectiveMargin(tenant.Margin, tire.Margin))
		order.Items = append(order.Items, models.OrderItem{
			TireID:    line.TireID,
			Quantity:  line.Quantity,
			UnitPrice: unit,
		})
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	order.Total = total

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, line := range input.Items {
			ok, err := s.repo.DecrementStockTx(tx, tenantID, line.TireID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
					WithDetails(map[string]string{"tire_id": line.TireID.String()})
			}
		}
		if err := s.repo.CreateTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				TenantID:      tenantID,
				CustomerEmail: order.CustomerEmail,
				Total:         order.Total,
				ItemCount:     len(order.Items),
			},
		})
	})
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	return toDTO(order), nil
}

func (s *service) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, orderNotFoundOrDependency(err)
	}
	return toDTO(order), nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, q ListOrdersQuery) ([]OrderDTO, pagination.Page, error) {
	rows, total, err := s.repo.List(ctx, tenantID, q)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, pagination.NewPage(q.Page, total), nil
}

// UpdateStatus applies one step of the transition table. Illegal moves,
// including any move out of delivered or cancelled, fail with STATE_CONFLICT
// and change nothing.
func (s *service) UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.repo.FindForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, orderNotFoundOrDependency(err)
	}

	if !order.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}

	from := order.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpdateStatusTx(tx, orderID, string(target)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Version:       1,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:  orderID,
				TenantID: tenantID,
				From:     from,
				To:       target,
			},
		})
	})
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	order.Status = target
	return toDTO(order), nil
}

func orderNotFoundOrDependency(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
