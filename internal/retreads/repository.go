package retreads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
)

// Repository handles retread ledger persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to retread operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// tireScope limits tire lookups to rows the tenant owns or distributes.
func tireScope(tenantID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(qb *gorm.DB) *gorm.DB {
		return qb.Where("tenant_id = ? OR parent_tenant_id = ?", tenantID, tenantID)
	}
}

// FindTireInScope loads a tire the tenant can record retreads against.
func (r *Repository) FindTireInScope(ctx context.Context, tenantID, tireID uuid.UUID) (*models.Tire, error) {
	var tire models.Tire
	err := r.db.WithContext(ctx).
		Scopes(tireScope(tenantID)).
		Where("id = ?", tireID).
		First(&tire).Error
	if err != nil {
		return nil, err
	}
	return &tire, nil
}

// FindTireByID loads a tire without tenant scoping, for public label scans.
func (r *Repository) FindTireByID(ctx context.Context, tireID uuid.UUID) (*models.Tire, error) {
	var tire models.Tire
	err := r.db.WithContext(ctx).
		Preload("Brand").
		Preload("Category").
		Where("id = ?", tireID).
		First(&tire).Error
	if err != nil {
		return nil, err
	}
	return &tire, nil
}

// CreateTx persists one retread cycle inside the transaction.
func (r *Repository) CreateTx(tx *gorm.DB, retread *models.Retread) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if retread == nil {
		return fmt.Errorf("retread is required")
	}
	return tx.Create(retread).Error
}

// UpdateTireEcoScoreTx writes the decayed eco score back to the tire.
func (r *Repository) UpdateTireEcoScoreTx(tx *gorm.DB, tireID uuid.UUID, score decimal.Decimal) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Model(&models.Tire{}).
		Where("id = ?", tireID).
		Update("eco_score", score).Error
}

// ListCasingCycles returns a casing's cycles in order, scoped to tires the
// tenant can see.
func (r *Repository) ListCasingCycles(ctx context.Context, tenantID uuid.UUID, casingID string) ([]models.Retread, error) {
	var rows []models.Retread
	err := r.db.WithContext(ctx).
		Joins("JOIN tires ON tires.id = retreads.tire_id").
		Where("retreads.casing_id = ?", casingID).
		Where("tires.tenant_id = ? OR tires.parent_tenant_id = ?", tenantID, tenantID).
		Order("retreads.cycle_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCasingCyclesAny returns a casing's cycles without tenant scoping.
func (r *Repository) ListCasingCyclesAny(ctx context.Context, casingID string) ([]models.Retread, error) {
	var rows []models.Retread
	err := r.db.WithContext(ctx).
		Where("casing_id = ?", casingID).
		Order("cycle_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListForAnalytics returns the cycle rows feeding the analytics aggregation,
// scoped to tires the tenant can see and optionally bounded by created_at.
func (r *Repository) ListForAnalytics(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]AnalyticsRow, error) {
	qb := r.db.WithContext(ctx).Model(&models.Retread{}).
		Select("retreads.grade, retreads.cycle_number, retreads.quality_score, COALESCE(brands.name, '') AS brand_name").
		Joins("JOIN tires ON tires.id = retreads.tire_id").
		Joins("LEFT JOIN brands ON brands.id = tires.brand_id").
		Where("tires.tenant_id = ? OR tires.parent_tenant_id = ?", tenantID, tenantID)
	if from != nil {
		qb = qb.Where("retreads.created_at >= ?", *from)
	}
	if to != nil {
		qb = qb.Where("retreads.created_at <= ?", *to)
	}

	var rows []AnalyticsRow
	if err := qb.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns a page of the tenant's ledger, newest first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, q ListRetreadsQuery) ([]models.Retread, int64, error) {
	build := func() *gorm.DB {
		qb := r.db.WithContext(ctx).Model(&models.Retread{}).
			Joins("JOIN tires ON tires.id = retreads.tire_id").
			Where("tires.tenant_id = ? OR tires.parent_tenant_id = ?", tenantID, tenantID)
		if q.CasingID != nil {
			qb = qb.Where("retreads.casing_id = ?", *q.CasingID)
		}
		if q.Grade != nil {
			qb = qb.Where("retreads.grade = ?", *q.Grade)
		}
		return qb
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := q.Page.Normalize()
	var rows []models.Retread
	err := build().
		Order("retreads.created_at DESC").
		Limit(page.Limit).
		Offset(q.Page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
