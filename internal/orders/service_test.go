package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/outbox"
)

type fakeOrderRepo struct {
	orders map[uuid.UUID]*models.Order
	stock  map[uuid.UUID]int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{}, stock: map[uuid.UUID]int{}}
}

func (f *fakeOrderRepo) CreateTx(_ *gorm.DB, order *models.Order) error {
	order.ID = uuid.New()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) FindForTenant(_ context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	if o, ok := f.orders[orderID]; ok && o.TenantID == tenantID {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) List(_ context.Context, tenantID uuid.UUID, _ ListOrdersQuery) ([]models.Order, int64, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.TenantID == tenantID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) UpdateStatusTx(_ *gorm.DB, orderID uuid.UUID, status string) error {
	if o, ok := f.orders[orderID]; ok {
		o.Status = enums.OrderStatus(status)
	}
	return nil
}

func (f *fakeOrderRepo) DecrementStockTx(_ *gorm.DB, _ uuid.UUID, tireID uuid.UUID, quantity int) (bool, error) {
	if f.stock[tireID] < quantity {
		return false, nil
	}
	f.stock[tireID] -= quantity
	return true, nil
}

type fakeTenantFinder struct {
	tenants map[uuid.UUID]*models.Tenant
}

func (f *fakeTenantFinder) FindByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	if t, ok := f.tenants[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeTireFinder struct {
	tires map[uuid.UUID]*models.Tire
}

func (f *fakeTireFinder) FindByIDForTenant(_ context.Context, tenantID, tireID uuid.UUID) (*models.Tire, error) {
	if t, ok := f.tires[tireID]; ok && t.TenantID == tenantID {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeTx struct{}

func (fakeTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func orderFixture() (*fakeOrderRepo, *fakeTenantFinder, *fakeTireFinder, *fakeEmitter, uuid.UUID, uuid.UUID) {
	tenantID := uuid.New()
	tireID := uuid.New()

	repo := newFakeOrderRepo()
	repo.stock[tireID] = 10

	tenants := &fakeTenantFinder{tenants: map[uuid.UUID]*models.Tenant{
		tenantID: {ID: tenantID, Type: enums.TenantTypeReseller, Margin: dec("0.20"), IsActive: true},
	}}
	tires := &fakeTireFinder{tires: map[uuid.UUID]*models.Tire{
		tireID: {ID: tireID, TenantID: tenantID, SKU: "MIC-X", BasePrice: dec("100"), StockQty: 10, Visible: true},
	}}
	return repo, tenants, tires, &fakeEmitter{}, tenantID, tireID
}

func TestCreateOrderSnapshotsFinalPrices(t *testing.T) {
	repo, tenants, tires, emitter, tenantID, tireID := orderFixture()
	svc, err := NewService(repo, tenants, tires, fakeTx{}, emitter, nil)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	dto, err := svc.Create(context.Background(), tenantID, CreateOrderInput{
		CustomerEmail: "joao@example.pt",
		CustomerName:  "Joao",
		Items:         []OrderLineInput{{TireID: tireID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if dto.Status != enums.OrderStatusPending {
		t.Fatalf("new order status = %s, want pending", dto.Status)
	}
	if want := dec("120"); !dto.Items[0].UnitPrice.Equal(want) {
		t.Fatalf("unit price = %s, want %s", dto.Items[0].UnitPrice, want)
	}
	if want := dec("240"); !dto.Total.Equal(want) {
		t.Fatalf("total = %s, want %s", dto.Total, want)
	}
	if repo.stock[tireID] != 8 {
		t.Fatalf("stock = %d, want 8", repo.stock[tireID])
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("order.created not emitted: %+v", emitter.events)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	repo, tenants, tires, emitter, tenantID, tireID := orderFixture()
	svc, _ := NewService(repo, tenants, tires, fakeTx{}, emitter, nil)

	_, err := svc.Create(context.Background(), tenantID, CreateOrderInput{
		CustomerEmail: "joao@example.pt",
		CustomerName:  "Joao",
		Items:         []OrderLineInput{{TireID: tireID, Quantity: 11}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if len(emitter.events) != 0 {
		t.Fatal("no event may be emitted for a failed order")
	}
}

func TestUpdateStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from    enums.OrderStatus
		to      enums.OrderStatus
		allowed bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusProcessing, true},
		{enums.OrderStatusPending, enums.OrderStatusCancelled, true},
		{enums.OrderStatusPending, enums.OrderStatusShipped, false},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped, true},
		{enums.OrderStatusProcessing, enums.OrderStatusCancelled, true},
		{enums.OrderStatusProcessing, enums.OrderStatusDelivered, false},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered, true},
		{enums.OrderStatusShipped, enums.OrderStatusCancelled, false},
		{enums.OrderStatusDelivered, enums.OrderStatusPending, false},
		{enums.OrderStatusCancelled, enums.OrderStatusProcessing, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			repo, tenants, tires, emitter, tenantID, _ := orderFixture()
			svc, _ := NewService(repo, tenants, tires, fakeTx{}, emitter, nil)

			order := &models.Order{ID: uuid.New(), TenantID: tenantID, Status: tc.from}
			repo.orders[order.ID] = order

			dto, err := svc.UpdateStatus(context.Background(), tenantID, order.ID, tc.to)
			if tc.allowed {
				if err != nil {
					t.Fatalf("expected transition %s -> %s to pass: %v", tc.from, tc.to, err)
				}
				if dto.Status != tc.to {
					t.Fatalf("status = %s, want %s", dto.Status, tc.to)
				}
				if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventOrderStatusChanged {
					t.Fatalf("order.status_changed not emitted: %+v", emitter.events)
				}
				return
			}

			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
				t.Fatalf("expected STATE_CONFLICT for %s -> %s, got %v", tc.from, tc.to, err)
			}
			if repo.orders[order.ID].Status != tc.from {
				t.Fatal("illegal transition must not change the row")
			}
		})
	}
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	repo, tenants, tires, emitter, tenantID, _ := orderFixture()
	svc, _ := NewService(repo, tenants, tires, fakeTx{}, emitter, nil)

	_, err := svc.UpdateStatus(context.Background(), tenantID, uuid.New(), enums.OrderStatusProcessing)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
