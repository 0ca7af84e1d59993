package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
	"github.com/tiredist/tiredist-backend/pkg/outbox"
	"github.com/tiredist/tiredist-backend/pkg/outbox/payloads"
)

type inventoryRepository interface {
	FindTireForTenant(ctx context.Context, tenantID, tireID uuid.UUID) (*models.Tire, error)
	UpsertRecord(ctx context.Context, tenantID, tireID uuid.UUID, quantity int) error
	SetTireStock(ctx context.Context, tenantID, tireID uuid.UUID, quantity int) error
	SetTireStockBySKU(ctx context.Context, tenantID uuid.UUID, sku string, quantity int) (int64, error)
}

type tenantReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.Tenant, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// SyncResult reports a completed propagation.
type SyncResult struct {
	TireID       uuid.UUID `json:"tire_id"`
	SKU          string    `json:"sku"`
	Quantity     int       `json:"quantity"`
	TenantsTotal int       `json:"tenants_total"`
	RowsUpserted int       `json:"rows_upserted"`
	SyncedAt     time.Time `json:"synced_at"`
}

// Service exposes the stock propagation contracts.
type Service interface {
	// SyncStock is the full sync: overwrite the distributor's stock for a
	// tire, then fan the same quantity out to every child tenant. The loop is
	// sequential and unwrapped; a crash partway leaves earlier children
	// updated and later ones stale until the next sync.
	SyncStock(ctx context.Context, distributorID, tireID uuid.UUID, quantity int) (*SyncResult, error)
	// SyncReseller is the single sync: read the distributor's current stock
	// for a tire and overwrite the reseller's copy rows matched by SKU.
	SyncReseller(ctx context.Context, resellerID, tireID uuid.UUID) (*SyncResult, error)
}

type service struct {
	repo    inventoryRepository
	tenants tenantReader
	tx      txRunner
	events  eventEmitter
	logg    *logger.Logger
}

// NewService builds the propagation service.
func NewService(repo inventoryRepository, tenants tenantReader, tx txRunner, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tenants == nil {
		return nil, fmt.Errorf("tenant reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{repo: repo, tenants: tenants, tx: tx, events: events, logg: logg}, nil
}

func (s *service) SyncStock(ctx context.Context, distributorID, tireID uuid.UUID, quantity int) (*SyncResult, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be >= 0")
	}

	distributor, err := s.tenants.FindByID(ctx, distributorID)
	if err != nil {
		return nil, tenantNotFoundOrDependency(err)
	}
	if distributor.Type != enums.TenantTypeDistributor {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full sync requires a distributor tenant")
	}

	tire, err := s.repo.FindTireForTenant(ctx, distributorID, tireID)
	if err != nil {
		return nil, tireNotFoundOrDependency(err)
	}

	if err := s.repo.SetTireStock(ctx, distributorID, tireID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update distributor stock")
	}
	if err := s.repo.UpsertRecord(ctx, distributorID, tireID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert distributor inventory")
	}

	children, err := s.tenants.ListChildren(ctx, distributorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list child tenants")
	}

	// fan-out, not fan-in: children never write back to the distributor
	upserted := 1
	for i := range children {
		if err := s.repo.UpsertRecord(ctx, children[i].ID, tireID, quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert child inventory")
		}
		upserted++
	}

	result := &SyncResult{
		TireID:       tireID,
		SKU:          tire.SKU,
		Quantity:     quantity,
		TenantsTotal: len(children) + 1,
		RowsUpserted: upserted,
		SyncedAt:     time.Now().UTC(),
	}
	s.emitSynced(ctx, distributorID, result)
	return result, nil
}

func (s *service) SyncReseller(ctx context.Context, resellerID, tireID uuid.UUID) (*SyncResult, error) {
	reseller, err := s.tenants.FindByID(ctx, resellerID)
	if err != nil {
		return nil, tenantNotFoundOrDependency(err)
	}
	if reseller.Type != enums.TenantTypeReseller || reseller.ParentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "single sync requires a reseller tenant")
	}

	tire, err := s.repo.FindTireForTenant(ctx, *reseller.ParentID, tireID)
	if err != nil {
		return nil, tireNotFoundOrDependency(err)
	}

	rows, err := s.repo.SetTireStockBySKU(ctx, resellerID, tire.SKU, tire.StockQty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reseller stock")
	}

	result := &SyncResult{
		TireID:       tireID,
		SKU:          tire.SKU,
		Quantity:     tire.StockQty,
		TenantsTotal: 1,
		RowsUpserted: int(rows),
		SyncedAt:     time.Now().UTC(),
	}
	s.emitSynced(ctx, resellerID, result)
	return result, nil
}

// emitSynced records the stock.synced outbox event in its own short
// transaction. The fan-out itself is deliberately unwrapped, so a failure
// here only loses the notification, never the writes.
func (s *service) emitSynced(ctx context.Context, tenantID uuid.UUID, result *SyncResult) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockSynced,
			AggregateType: enums.AggregateTire,
			AggregateID:   result.TireID,
			Version:       1,
			Data: payloads.StockSyncedEvent{
				TenantID:     tenantID,
				TireID:       &result.TireID,
				SKU:          result.SKU,
				TenantsTotal: result.TenantsTotal,
				RowsUpserted: result.RowsUpserted,
				SyncedAt:     result.SyncedAt,
			},
		})
	})
	if err != nil && s.logg != nil {
		s.logg.Warn(ctx, "stock.synced event not recorded")
	}
}

func tenantNotFoundOrDependency(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant")
}

func tireNotFoundOrDependency(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tire not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tire")
}
