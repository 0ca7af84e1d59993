package loyalty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/config"
	"github.com/tiredist/tiredist-backend/pkg/db"
	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
)

type loyaltyRepository interface {
	FindProgramByTenant(ctx context.Context, tenantID uuid.UUID) (*models.LoyaltyProgram, error)
	CreateProgram(ctx context.Context, program *models.LoyaltyProgram) error
	FindCustomer(ctx context.Context, programID uuid.UUID, email string) (*models.LoyaltyCustomer, error)
	CreateCustomer(ctx context.Context, customer *models.LoyaltyCustomer) error
	UpdateCustomer(ctx context.Context, customer *models.LoyaltyCustomer) error
}

// EnrollInput captures a storefront loyalty signup.
type EnrollInput struct {
	Email    string     `json:"email" validate:"required,email"`
	Name     string     `json:"name" validate:"required"`
	Phone    *string    `json:"phone"`
	Birthday *time.Time `json:"birthday"`
}

// CustomerDTO is the member shape returned to controllers.
type CustomerDTO struct {
	ID              uuid.UUID         `json:"id"`
	Email           string            `json:"email"`
	Name            string            `json:"name"`
	TotalPoints     int               `json:"total_points"`
	UsedPoints      int               `json:"used_points"`
	AvailablePoints int               `json:"available_points"`
	CurrentTier     enums.LoyaltyTier `json:"current_tier"`
}

// Service exposes loyalty operations.
type Service interface {
	// EnsureProgram returns the tenant's program, creating it with the
	// configured defaults on first use.
	EnsureProgram(ctx context.Context, tenantID uuid.UUID) (*models.LoyaltyProgram, error)
	Enroll(ctx context.Context, tenantID uuid.UUID, input EnrollInput) (*CustomerDTO, error)
	GetCustomer(ctx context.Context, tenantID uuid.UUID, email string) (*CustomerDTO, error)
	// AwardForPurchase credits floor(total * pointsPerEuro) points to an
	// enrolled member and recomputes the tier. Unenrolled emails and tenants
	// without a program earn nothing; the purchase itself must not fail.
	AwardForPurchase(ctx context.Context, tenantID uuid.UUID, email string, total decimal.Decimal) (int, error)
	Redeem(ctx context.Context, tenantID uuid.UUID, email string, points int) (*CustomerDTO, error)
	AwardReferral(ctx context.Context, tenantID uuid.UUID, referrerEmail string) (*CustomerDTO, error)
}

type service struct {
	repo loyaltyRepository
	cfg  config.LoyaltyConfig
	logg *logger.Logger
}

// NewService builds the loyalty service.
func NewService(repo loyaltyRepository, cfg config.LoyaltyConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	return &service{repo: repo, cfg: cfg, logg: logg}, nil
}

func (s *service) EnsureProgram(ctx context.Context, tenantID uuid.UUID) (*models.LoyaltyProgram, error) {
	program, err := s.repo.FindProgramByTenant(ctx, tenantID)
	if err == nil {
		return program, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load program")
	}

	program = &models.LoyaltyProgram{
		TenantID:        tenantID,
		Name:            "Loyalty Program",
		PointsPerEuro:   decimal.NewFromInt(int64(s.cfg.PointsPerEuro)),
		EuroPerPoint:    decimal.NewFromFloat(s.cfg.EuroPerPoint),
		BronzeThreshold: 0,
		SilverThreshold: s.cfg.SilverThreshold,
		GoldThreshold:   s.cfg.GoldThreshold,
		BirthdayBonus:   s.cfg.BirthdayBonus,
		ReferralBonus:   s.cfg.ReferralBonus,
		IsActive:        true,
	}
	if err := s.repo.CreateProgram(ctx, program); err != nil {
		if db.IsUniqueViolation(err, "") {
			// lost the race, someone else created it
			return s.repo.FindProgramByTenant(ctx, tenantID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create program")
	}
	return program, nil
}

func (s *service) Enroll(ctx context.Context, tenantID uuid.UUID, input EnrollInput) (*CustomerDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	program, err := s.EnsureProgram(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	customer := &models.LoyaltyCustomer{
		ProgramID:   program.ID,
		Email:       email,
		Name:        strings.TrimSpace(input.Name),
		Phone:       input.Phone,
		Birthday:    input.Birthday,
		CurrentTier: enums.LoyaltyTierBronze,
	}
	if err := s.repo.CreateCustomer(ctx, customer); err != nil {
		if db.IsUniqueViolation(err, "idx_loyalty_program_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already enrolled")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enroll customer")
	}
	return toCustomerDTO(customer), nil
}

func (s *service) GetCustomer(ctx context.Context, tenantID uuid.UUID, email string) (*CustomerDTO, error) {
	program, err := s.repo.FindProgramByTenant(ctx, tenantID)
	if err != nil {
		return nil, memberNotFoundOrDependency(err)
	}
	customer, err := s.repo.FindCustomer(ctx, program.ID, email)
	if err != nil {
		return nil, memberNotFoundOrDependency(err)
	}
	return toCustomerDTO(customer), nil
}

func (s *service) AwardForPurchase(ctx context.Context, tenantID uuid.UUID, email string, total decimal.Decimal) (int, error) {
	program, err := s.repo.FindProgramByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load program")
	}
	if !program.IsActive {
		return 0, nil
	}

	customer, err := s.repo.FindCustomer(ctx, program.ID, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	points := PointsForPurchase(program, total)
	if points == 0 {
		return 0, nil
	}
	if err := s.credit(ctx, program, customer, points); err != nil {
		return 0, err
	}
	return points, nil
}

func (s *service) Redeem(ctx context.Context, tenantID uuid.UUID, email string, points int) (*CustomerDTO, error) {
	if points <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}

	program, err := s.repo.FindProgramByTenant(ctx, tenantID)
	if err != nil {
		return nil, memberNotFoundOrDependency(err)
	}
	customer, err := s.repo.FindCustomer(ctx, program.ID, email)
	if err != nil {
		return nil, memberNotFoundOrDependency(err)
	}

	if points > customer.AvailablePoints {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "not enough points").
			WithDetails(map[string]int{"available": customer.AvailablePoints})
	}

	customer.UsedPoints += points
	customer.AvailablePoints -= points
	if err := s.repo.UpdateCustomer(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return toCustomerDTO(customer), nil
}

func (s *service) AwardReferral(ctx context.Context, tenantID uuid.UUID, referrerEmail string) (*CustomerDTO, error) {
	program, err := s.repo.FindProgramByTenant(ctx, tenantID)
	if err != nil {
		return nil, memberNotFoundOrDependency(err)
	}
	customer, err := s.repo.FindCustomer(ctx, program.ID, referrerEmail)
	if err != nil {
		return nil, memberNotFoundOrDependency(err)
	}
	if err := s.credit(ctx, program, customer, program.ReferralBonus); err != nil {
		return nil, err
	}
	return toCustomerDTO(customer), nil
}

func (s *service) credit(ctx context.Context, program *models.LoyaltyProgram, customer *models.LoyaltyCustomer, points int) error {
	customer.TotalPoints += points
	customer.AvailablePoints += points
	customer.CurrentTier = TierFor(program, customer.TotalPoints)
	if err := s.repo.UpdateCustomer(ctx, customer); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return nil
}

func toCustomerDTO(c *models.LoyaltyCustomer) *CustomerDTO {
	return &CustomerDTO{
		ID:              c.ID,
		Email:           c.Email,
		Name:            c.Name,
		TotalPoints:     c.TotalPoints,
		UsedPoints:      c.UsedPoints,
		AvailablePoints: c.AvailablePoints,
		CurrentTier:     c.CurrentTier,
	}
}

func memberNotFoundOrDependency(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "loyalty member not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loyalty data")
}
