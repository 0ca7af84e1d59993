package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/internal/checkout"
	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
	"github.com/tiredist/tiredist-backend/pkg/outbox"
	"github.com/tiredist/tiredist-backend/pkg/outbox/payloads"
)

type orderRepository interface {
	FindByStripeSession(ctx context.Context, sessionID string) (*models.Order, error)
	CreateTx(tx *gorm.DB, order *models.Order) error
	UpdateStatusTx(tx *gorm.DB, orderID uuid.UUID, status string) error
}

type loyaltyAwarder interface {
	AwardForPurchase(ctx context.Context, tenantID uuid.UUID, email string, total decimal.Decimal) (int, error)
}

type sessionResolver interface {
	FindSessionIDByPaymentIntent(ctx context.Context, paymentIntentID string) (string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams collects the webhook service collaborators.
type ServiceParams struct {
	OrderRepo         orderRepository
	Loyalty           loyaltyAwarder
	Stripe            sessionResolver
	TransactionRunner txRunner
	Events            eventEmitter
	Logger            *logger.Logger
}

// Service applies Stripe payment lifecycle events to orders.
type Service struct {
	orders  orderRepository
	loyalty loyaltyAwarder
	stripe  sessionResolver
	tx      txRunner
	events  eventEmitter
	logg    *logger.Logger
}

// NewService builds the webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.OrderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repo required")
	}
	if params.Loyalty == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service required")
	}
	if params.Stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event emitter required")
	}
	return &Service{
		orders:  params.OrderRepo,
		loyalty: params.Loyalty,
		stripe:  params.Stripe,
		tx:      params.TransactionRunner,
		events:  params.Events,
		logg:    params.Logger,
	}, nil
}

// HandleEvent routes a verified Stripe event. Unknown event types are
// acknowledged without action.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
		}
		return s.handleSessionCompleted(ctx, &session)
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
		}
		return s.handlePaymentOutcome(ctx, intent.ID, enums.OrderStatusProcessing)
	case stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
		}
		return s.handlePaymentOutcome(ctx, intent.ID, enums.OrderStatusCancelled)
	default:
		return nil
	}
}

// handleSessionCompleted creates the pending order for a completed checkout
// session. A session id already on file means a redelivered event; that is a
// no-op, not an error.
func (s *Service) handleSessionCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	if session.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id missing")
	}

	if _, err := s.orders.FindByStripeSession(ctx, session.ID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up order")
	}

	tenantID, err := uuid.Parse(session.Metadata[checkout.MetadataTenantID])
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id missing from session metadata")
	}
	lines, err := checkout.DecodeCartMetadata(session.Metadata[checkout.MetadataItems])
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode session cart")
	}

	email := session.CustomerEmail
	if email == "" && session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}

	total := checkout.CartTotal(lines)
	if session.AmountTotal > 0 {
		total = decimal.NewFromInt(session.AmountTotal).Div(decimal.NewFromInt(100))
	}

	sessionID := session.ID
	order := &models.Order{
		TenantID:        tenantID,
		CustomerEmail:   email,
		CustomerName:    session.Metadata[checkout.MetadataCustomerName],
		Total:           total,
		Status:          enums.OrderStatusPending,
		StripeSessionID: &sessionID,
	}
	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			TireID:    line.TireID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.CreateTx(tx, order); err != nil {
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
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		return s.moveOrder(ctx, order, enums.OrderStatusProcessing)
	}
	return nil
}

// handlePaymentOutcome resolves the checkout session behind a payment intent
// and moves the order accordingly. Orders already past pending are left
// alone; failures only cancel orders that never started processing.
func (s *Service) handlePaymentOutcome(ctx context.Context, paymentIntentID string, target enums.OrderStatus) error {
	if paymentIntentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}

	sessionID, err := s.stripe.FindSessionIDByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve checkout session")
	}
	if sessionID == "" {
		// payment intent not created by checkout, nothing to do
		return nil
	}

	order, err := s.orders.FindByStripeSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up order")
	}

	if order.Status != enums.OrderStatusPending {
		return nil
	}
	return s.moveOrder(ctx, order, target)
}

func (s *Service) moveOrder(ctx context.Context, order *models.Order, target enums.OrderStatus) error {
	if !order.Status.CanTransitionTo(target) {
		return nil
	}
	from := order.Status

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.UpdateStatusTx(tx, order.ID, string(target)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:  order.ID,
				TenantID: order.TenantID,
				From:     from,
				To:       target,
			},
		})
	})
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = target

	if target == enums.OrderStatusProcessing {
		points, err := s.loyalty.AwardForPurchase(ctx, order.TenantID, order.CustomerEmail, order.Total)
		if err != nil && s.logg != nil {
			s.logg.Error(ctx, "loyalty award failed", err)
		} else if points > 0 && s.logg != nil {
			s.logg.Info(ctx, "loyalty points awarded")
		}
	}
	return nil
}
