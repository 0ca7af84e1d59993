package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

func errCode(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return ""
}

type fakeReviewRepo struct {
	reviews map[uuid.UUID]*models.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: map[uuid.UUID]*models.Review{}}
}

func (f *fakeReviewRepo) Create(_ context.Context, review *models.Review) error {
	review.ID = uuid.New()
	f.reviews[review.ID] = review
	return nil
}

func (f *fakeReviewRepo) FindForTenant(_ context.Context, tenantID, reviewID uuid.UUID) (*models.Review, error) {
	if review, ok := f.reviews[reviewID]; ok && review.TenantID == tenantID {
		return review, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeReviewRepo) ListApproved(_ context.Context, tenantID uuid.UUID, q ListReviewsQuery) ([]models.Review, int64, error) {
	var rows []models.Review
	for _, review := range f.reviews {
		if review.TenantID == tenantID && review.TireID == q.TireID && review.Approved {
			rows = append(rows, *review)
		}
	}
	return rows, int64(len(rows)), nil
}

func (f *fakeReviewRepo) ListPending(_ context.Context, tenantID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	for _, review := range f.reviews {
		if review.TenantID == tenantID && !review.Approved {
			rows = append(rows, *review)
		}
	}
	return rows, nil
}

func (f *fakeReviewRepo) AvgApprovedRating(_ context.Context, tenantID, tireID uuid.UUID) (float64, error) {
	sum, count := 0, 0
	for _, review := range f.reviews {
		if review.TenantID == tenantID && review.TireID == tireID && review.Approved {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return float64(sum) / float64(count), nil
}

func (f *fakeReviewRepo) SetApproved(_ context.Context, reviewID uuid.UUID, approved bool) error {
	if review, ok := f.reviews[reviewID]; ok {
		review.Approved = approved
	}
	return nil
}

type fakeTireFinder struct {
	tires map[uuid.UUID]uuid.UUID // tire -> tenant
}

func (f *fakeTireFinder) FindByIDForTenant(_ context.Context, tenantID, tireID uuid.UUID) (*models.Tire, error) {
	if owner, ok := f.tires[tireID]; ok && owner == tenantID {
		return &models.Tire{ID: tireID, TenantID: tenantID}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func reviewFixture(t *testing.T) (*fakeReviewRepo, Service, uuid.UUID, uuid.UUID) {
	t.Helper()
	repo := newFakeReviewRepo()
	tenantID := uuid.New()
	tireID := uuid.New()
	tires := &fakeTireFinder{tires: map[uuid.UUID]uuid.UUID{tireID: tenantID}}

	svc, err := NewService(repo, tires, nil)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return repo, svc, tenantID, tireID
}

func TestCreateReviewStartsUnapproved(t *testing.T) {
	_, svc, tenantID, tireID := reviewFixture(t)

	dto, err := svc.Create(context.Background(), tenantID, CreateReviewInput{
		TireID:        tireID,
		CustomerName:  "Rui",
		CustomerEmail: "Rui@Example.PT",
		Rating:        4,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Approved || dto.Verified {
		t.Fatalf("new review must be unapproved and unverified: %+v", dto)
	}
	if dto.CustomerEmail != "" {
		t.Fatal("public dto must not leak the customer email")
	}
}

func TestCreateReviewValidation(t *testing.T) {
	_, svc, tenantID, tireID := reviewFixture(t)

	cases := map[string]CreateReviewInput{
		"rating low":   {TireID: tireID, CustomerName: "R", CustomerEmail: "r@x.pt", Rating: 0},
		"rating high":  {TireID: tireID, CustomerName: "R", CustomerEmail: "r@x.pt", Rating: 6},
		"missing name": {TireID: tireID, CustomerEmail: "r@x.pt", Rating: 3},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tenantID, input); errCode(err) != pkgerrors.CodeValidation {
				t.Fatalf("code = %s, want VALIDATION", errCode(err))
			}
		})
	}

	if _, err := svc.Create(context.Background(), tenantID, CreateReviewInput{
		TireID: uuid.New(), CustomerName: "R", CustomerEmail: "r@x.pt", Rating: 3,
	}); errCode(err) != pkgerrors.CodeNotFound {
		t.Fatal("unknown tire must be NOT_FOUND")
	}
}

func TestListApprovedHidesPendingAndAverages(t *testing.T) {
	repo, svc, tenantID, tireID := reviewFixture(t)

	seed := func(rating int, approved bool) {
		id := uuid.New()
		repo.reviews[id] = &models.Review{
			ID: id, TenantID: tenantID, TireID: tireID,
			CustomerName: "C", CustomerEmail: "c@x.pt",
			Rating: rating, Approved: approved,
		}
	}
	seed(5, true)
	seed(4, true)
	seed(1, false)

	page, err := svc.ListApproved(context.Background(), tenantID, ListReviewsQuery{
		TireID: tireID,
		Page:   pagination.Params{Page: 1, Limit: 10},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2 (pending hidden)", len(page.Items))
	}
	if page.AvgRating != 4.5 {
		t.Fatalf("avg = %v, want 4.5", page.AvgRating)
	}
	for _, item := range page.Items {
		if !item.Approved {
			t.Fatal("pending review leaked into public listing")
		}
	}
}

func TestAvgRatingRoundsToOneDecimal(t *testing.T) {
	repo, svc, tenantID, tireID := reviewFixture(t)

	for _, rating := range []int{5, 4, 4} {
		id := uuid.New()
		repo.reviews[id] = &models.Review{
			ID: id, TenantID: tenantID, TireID: tireID,
			CustomerName: "C", CustomerEmail: "c@x.pt",
			Rating: rating, Approved: true,
		}
	}

	page, err := svc.ListApproved(context.Background(), tenantID, ListReviewsQuery{TireID: tireID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// 13/3 = 4.333... rounds to 4.3
	if page.AvgRating != 4.3 {
		t.Fatalf("avg = %v, want 4.3", page.AvgRating)
	}
}

func TestApprovePublishesReview(t *testing.T) {
	repo, svc, tenantID, tireID := reviewFixture(t)

	dto, err := svc.Create(context.Background(), tenantID, CreateReviewInput{
		TireID: tireID, CustomerName: "Rui", CustomerEmail: "rui@x.pt", Rating: 5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	approved, err := svc.Approve(context.Background(), tenantID, dto.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.Approved || !repo.reviews[dto.ID].Approved {
		t.Fatal("review not approved")
	}
	if approved.CustomerEmail == "" {
		t.Fatal("moderation view must include the email")
	}

	// idempotent
	if _, err := svc.Approve(context.Background(), tenantID, dto.ID); err != nil {
		t.Fatalf("second approve: %v", err)
	}

	if _, err := svc.Approve(context.Background(), uuid.New(), dto.ID); errCode(err) != pkgerrors.CodeNotFound {
		t.Fatal("foreign tenant approve must be NOT_FOUND")
	}
}
