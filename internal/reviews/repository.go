package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
)

// Repository handles review persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to review operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new review.
func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	if review == nil {
		return fmt.Errorf("review is required")
	}
	return r.db.WithContext(ctx).Create(review).Error
}

// FindForTenant loads one review scoped to the tenant.
func (r *Repository) FindForTenant(ctx context.Context, tenantID, reviewID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, reviewID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListApproved returns a page of a tire's approved reviews, newest first.
func (r *Repository) ListApproved(ctx context.Context, tenantID uuid.UUID, q ListReviewsQuery) ([]models.Review, int64, error) {
	build := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Review{}).
			Where("tenant_id = ? AND tire_id = ? AND approved", tenantID, q.TireID)
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := q.Page.Normalize()
	var rows []models.Review
	err := build().
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(q.Page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListPending returns the tenant's unmoderated reviews, oldest first.
func (r *Repository) ListPending(ctx context.Context, tenantID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND NOT approved", tenantID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AvgApprovedRating computes the mean rating over a tire's approved reviews.
func (r *Repository) AvgApprovedRating(ctx context.Context, tenantID, tireID uuid.UUID) (float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("AVG(rating)").
		Where("tenant_id = ? AND tire_id = ? AND approved", tenantID, tireID).
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// SetApproved flips the moderation flag.
func (r *Repository) SetApproved(ctx context.Context, reviewID uuid.UUID, approved bool) error {
	return r.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ?", reviewID).
		Update("approved", approved).Error
}
