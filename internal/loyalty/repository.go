package loyalty

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
)

// Repository handles loyalty persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to loyalty operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindProgramByTenant loads the tenant's program.
func (r *Repository) FindProgramByTenant(ctx context.Context, tenantID uuid.UUID) (*models.LoyaltyProgram, error) {
	var program models.LoyaltyProgram
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&program).Error
	if err != nil {
		return nil, err
	}
	return &program, nil
}

// CreateProgram persists a new program.
func (r *Repository) CreateProgram(ctx context.Context, program *models.LoyaltyProgram) error {
	if program == nil {
		return fmt.Errorf("program is required")
	}
	return r.db.WithContext(ctx).Create(program).Error
}

// FindCustomer loads a member by program and normalized email.
func (r *Repository) FindCustomer(ctx context.Context, programID uuid.UUID, email string) (*models.LoyaltyCustomer, error) {
	var customer models.LoyaltyCustomer
	err := r.db.WithContext(ctx).
		Where("program_id = ? AND email = ?", programID, strings.ToLower(strings.TrimSpace(email))).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateCustomer persists a new member.
func (r *Repository) CreateCustomer(ctx context.Context, customer *models.LoyaltyCustomer) error {
	if customer == nil {
		return fmt.Errorf("customer is required")
	}
	return r.db.WithContext(ctx).Create(customer).Error
}

// UpdateCustomer saves the member's point balances and tier.
func (r *Repository) UpdateCustomer(ctx context.Context, customer *models.LoyaltyCustomer) error {
	if customer == nil {
		return fmt.Errorf("customer is required")
	}
	return r.db.WithContext(ctx).Save(customer).Error
}
