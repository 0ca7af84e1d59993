package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/outbox"
)

type recordKey struct {
	tenantID uuid.UUID
	tireID   uuid.UUID
}

type fakeInventoryRepo struct {
	tires   map[uuid.UUID]*models.Tire
	records map[recordKey]int
	upserts int
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{
		tires:   map[uuid.UUID]*models.Tire{},
		records: map[recordKey]int{},
	}
}

func (f *fakeInventoryRepo) FindTireForTenant(_ context.Context, tenantID, tireID uuid.UUID) (*models.Tire, error) {
	t, ok := f.tires[tireID]
	if !ok || t.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakeInventoryRepo) UpsertRecord(_ context.Context, tenantID, tireID uuid.UUID, quantity int) error {
	f.records[recordKey{tenantID, tireID}] = quantity
	f.upserts++
	return nil
}

func (f *fakeInventoryRepo) SetTireStock(_ context.Context, tenantID, tireID uuid.UUID, quantity int) error {
	if t, ok := f.tires[tireID]; ok && t.TenantID == tenantID {
		t.StockQty = quantity
	}
	return nil
}

func (f *fakeInventoryRepo) SetTireStockBySKU(_ context.Context, tenantID uuid.UUID, sku string, quantity int) (int64, error) {
	var rows int64
	for _, t := range f.tires {
		if t.TenantID == tenantID && t.SKU == sku {
			t.StockQty = quantity
			rows++
		}
	}
	return rows, nil
}

type fakeTenantReader struct {
	tenants  map[uuid.UUID]*models.Tenant
	children map[uuid.UUID][]models.Tenant
}

func (f *fakeTenantReader) FindByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	if t, ok := f.tenants[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTenantReader) ListChildren(_ context.Context, parentID uuid.UUID) ([]models.Tenant, error) {
	return f.children[parentID], nil
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

func syncFixture() (*fakeInventoryRepo, *fakeTenantReader, *fakeEmitter, uuid.UUID, uuid.UUID, []uuid.UUID) {
	distributorID := uuid.New()
	childA := models.Tenant{ID: uuid.New(), Type: enums.TenantTypeReseller, ParentID: &distributorID}
	childB := models.Tenant{ID: uuid.New(), Type: enums.TenantTypeReseller, ParentID: &distributorID}

	tireID := uuid.New()
	repo := newFakeInventoryRepo()
	repo.tires[tireID] = &models.Tire{ID: tireID, TenantID: distributorID, SKU: "MIC-X", StockQty: 5}

	tenants := &fakeTenantReader{
		tenants: map[uuid.UUID]*models.Tenant{
			distributorID: {ID: distributorID, Type: enums.TenantTypeDistributor},
			childA.ID:     &childA,
			childB.ID:     &childB,
		},
		children: map[uuid.UUID][]models.Tenant{distributorID: {childA, childB}},
	}
	return repo, tenants, &fakeEmitter{}, distributorID, tireID, []uuid.UUID{childA.ID, childB.ID}
}

func TestSyncStockFansOutToAllChildren(t *testing.T) {
	repo, tenants, emitter, distributorID, tireID, childIDs := syncFixture()
	svc, err := NewService(repo, tenants, fakeTx{}, emitter, nil)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	result, err := svc.SyncStock(context.Background(), distributorID, tireID, 50)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	if result.TenantsTotal != 3 || result.RowsUpserted != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got := repo.records[recordKey{distributorID, tireID}]; got != 50 {
		t.Fatalf("distributor inventory = %d, want 50", got)
	}
	for _, childID := range childIDs {
		if got := repo.records[recordKey{childID, tireID}]; got != 50 {
			t.Fatalf("child %s inventory = %d, want 50", childID, got)
		}
	}
	if repo.tires[tireID].StockQty != 50 {
		t.Fatalf("distributor tire stock = %d, want 50", repo.tires[tireID].StockQty)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventStockSynced {
		t.Fatalf("stock.synced not emitted: %+v", emitter.events)
	}
}

func TestSyncStockIsIdempotent(t *testing.T) {
	repo, tenants, emitter, distributorID, tireID, _ := syncFixture()
	svc, _ := NewService(repo, tenants, fakeTx{}, emitter, nil)

	if _, err := svc.SyncStock(context.Background(), distributorID, tireID, 50); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	after := make(map[recordKey]int, len(repo.records))
	for k, v := range repo.records {
		after[k] = v
	}

	if _, err := svc.SyncStock(context.Background(), distributorID, tireID, 50); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if len(repo.records) != len(after) {
		t.Fatalf("second sync changed row count: %d vs %d", len(repo.records), len(after))
	}
	for k, v := range after {
		if repo.records[k] != v {
			t.Fatalf("second sync changed quantity for %v: %d vs %d", k, repo.records[k], v)
		}
	}
}

func TestSyncStockMissingTireIsNotFound(t *testing.T) {
	repo, tenants, emitter, distributorID, _, _ := syncFixture()
	svc, _ := NewService(repo, tenants, fakeTx{}, emitter, nil)

	_, err := svc.SyncStock(context.Background(), distributorID, uuid.New(), 10)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestSyncStockRejectsResellerTenant(t *testing.T) {
	repo, tenants, emitter, _, tireID, childIDs := syncFixture()
	svc, _ := NewService(repo, tenants, fakeTx{}, emitter, nil)

	_, err := svc.SyncStock(context.Background(), childIDs[0], tireID, 10)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestSyncResellerMatchesBySKU(t *testing.T) {
	repo, tenants, emitter, _, tireID, childIDs := syncFixture()
	repo.tires[tireID].StockQty = 37

	// reseller copy shares the SKU but has its own row id
	copyID := uuid.New()
	repo.tires[copyID] = &models.Tire{ID: copyID, TenantID: childIDs[0], SKU: "MIC-X", StockQty: 2}

	svc, _ := NewService(repo, tenants, fakeTx{}, emitter, nil)
	result, err := svc.SyncReseller(context.Background(), childIDs[0], tireID)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	if result.RowsUpserted != 1 || result.Quantity != 37 {
		t.Fatalf("unexpected result %+v", result)
	}
	if repo.tires[copyID].StockQty != 37 {
		t.Fatalf("copy stock = %d, want 37", repo.tires[copyID].StockQty)
	}
	if repo.tires[tireID].StockQty != 37 {
		t.Fatal("distributor row must not change on single sync")
	}
}
