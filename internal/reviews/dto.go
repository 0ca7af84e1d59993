package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

// CreateReviewInput is the storefront review submission.
type CreateReviewInput struct {
	TireID        uuid.UUID `json:"tire_id" validate:"required"`
	CustomerName  string    `json:"customer_name" validate:"required"`
	CustomerEmail string    `json:"customer_email" validate:"required,email"`
	Rating        int       `json:"rating" validate:"required,gte=1,lte=5"`
	Title         *string   `json:"title,omitempty"`
	Comment       *string   `json:"comment,omitempty"`
}

// ReviewDTO is the API shape of a review.
type ReviewDTO struct {
	ID            uuid.UUID `json:"id"`
	TireID        uuid.UUID `json:"tire_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	Rating        int       `json:"rating"`
	Title         *string   `json:"title,omitempty"`
	Comment       *string   `json:"comment,omitempty"`
	Verified      bool      `json:"verified"`
	Approved      bool      `json:"approved"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReviewPage is one page of reviews plus the aggregate rating.
type ReviewPage struct {
	Items     []ReviewDTO     `json:"items"`
	AvgRating float64         `json:"avg_rating"`
	Page      pagination.Page `json:"pagination"`
}

// ListReviewsQuery scopes a review listing to one tire.
type ListReviewsQuery struct {
	TireID uuid.UUID
	Page   pagination.Params
}

func toDTO(r models.Review, includeEmail bool) ReviewDTO {
	dto := ReviewDTO{
		ID:           r.ID,
		TireID:       r.TireID,
		CustomerName: r.CustomerName,
		Rating:       r.Rating,
		Title:        r.Title,
		Comment:      r.Comment,
		Verified:     r.Verified,
		Approved:     r.Approved,
		CreatedAt:    r.CreatedAt,
	}
	if includeEmail {
		dto.CustomerEmail = r.CustomerEmail
	}
	return dto
}
