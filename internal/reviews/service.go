package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	FindForTenant(ctx context.Context, tenantID, reviewID uuid.UUID) (*models.Review, error)
	ListApproved(ctx context.Context, tenantID uuid.UUID, q ListReviewsQuery) ([]models.Review, int64, error)
	ListPending(ctx context.Context, tenantID uuid.UUID) ([]models.Review, error)
	AvgApprovedRating(ctx context.Context, tenantID, tireID uuid.UUID) (float64, error)
	SetApproved(ctx context.Context, reviewID uuid.UUID, approved bool) error
}

type tireFinder interface {
	FindByIDForTenant(ctx context.Context, tenantID, tireID uuid.UUID) (*models.Tire, error)
}

// Service handles storefront reviews and their moderation.
type Service interface {
	Create(ctx context.Context, tenantID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error)
	ListApproved(ctx context.Context, tenantID uuid.UUID, q ListReviewsQuery) (*ReviewPage, error)
	ListPending(ctx context.Context, tenantID uuid.UUID) ([]ReviewDTO, error)
	Approve(ctx context.Context, tenantID, reviewID uuid.UUID) (*ReviewDTO, error)
}

type service struct {
	repo  reviewRepository
	tires tireFinder
	logg  *logger.Logger
}

// NewService builds the review service.
func NewService(repo reviewRepository, tires tireFinder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if tires == nil {
		return nil, fmt.Errorf("tire finder required")
	}
	return &service{repo: repo, tires: tires, logg: logg}, nil
}

// Create stores a storefront submission. Reviews go live only after
// moderation, so they start unapproved and unverified.
func (s *service) Create(ctx context.Context, tenantID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error) {
	name := strings.TrimSpace(input.CustomerName)
	email := strings.ToLower(strings.TrimSpace(input.CustomerEmail))
	if name == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name and email are required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	if _, err := s.tires.FindByIDForTenant(ctx, tenantID, input.TireID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tire not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tire")
	}

	review := &models.Review{
		TenantID:      tenantID,
		TireID:        input.TireID,
		CustomerName:  name,
		CustomerEmail: email,
		Rating:        input.Rating,
		Title:         input.Title,
		Comment:       input.Comment,
		Verified:      false,
		Approved:      false,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}

	dto := toDTO(*review, false)
	return &dto, nil
}

// ListApproved is the public listing: approved reviews only, with the tire's
// average rating rounded to one decimal.
func (s *service) ListApproved(ctx context.Context, tenantID uuid.UUID, q ListReviewsQuery) (*ReviewPage, error) {
	rows, total, err := s.repo.ListApproved(ctx, tenantID, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	avg, err := s.repo.AvgApprovedRating(ctx, tenantID, q.TireID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "average rating")
	}

	page := &ReviewPage{
		Items:     make([]ReviewDTO, 0, len(rows)),
		AvgRating: math.Round(avg*10) / 10,
		Page:      pagination.NewPage(q.Page, total),
	}
	for _, row := range rows {
		page.Items = append(page.Items, toDTO(row, false))
	}
	return page, nil
}

// ListPending returns the moderation queue with customer emails visible.
func (s *service) ListPending(ctx context.Context, tenantID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := s.repo.ListPending(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row, true))
	}
	return out, nil
}

// Approve publishes a review. Approving twice is a no-op.
func (s *service) Approve(ctx context.Context, tenantID, reviewID uuid.UUID) (*ReviewDTO, error) {
	review, err := s.repo.FindForTenant(ctx, tenantID, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}

	if !review.Approved {
		if err := s.repo.SetApproved(ctx, review.ID, true); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve review")
		}
		review.Approved = true
	}

	dto := toDTO(*review, true)
	return &dto, nil
}
