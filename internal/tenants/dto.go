package tenants

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
)

// TenantDTO is the public shape returned to controllers.
type TenantDTO struct {
	ID             uuid.UUID        `json:"id"`
	Slug           string           `json:"slug"`
	CustomDomain   *string          `json:"custom_domain,omitempty"`
	Name           string           `json:"name"`
	Type           enums.TenantType `json:"type"`
	ParentID       *uuid.UUID       `json:"parent_id,omitempty"`
	Margin         decimal.Decimal  `json:"margin"`
	IsActive       bool             `json:"is_active"`
	LogoURL        *string          `json:"logo_url,omitempty"`
	PrimaryColor   *string          `json:"primary_color,omitempty"`
	SecondaryColor *string          `json:"secondary_color,omitempty"`
	ContactEmail   *string          `json:"contact_email,omitempty"`
	Currency       string           `json:"currency"`
	Language       string           `json:"language"`
	CreatedAt      time.Time        `json:"created_at"`
}

// ResolvedTenant is the minimal identity handed to the host middleware.
type ResolvedTenant struct {
	ID   uuid.UUID        `json:"id"`
	Type enums.TenantType `json:"type"`
	Slug string           `json:"slug"`
}

// CreateResellerInput captures the onboarding request for a new storefront.
type CreateResellerInput struct {
	Slug         string
	Name         string
	Margin       decimal.Decimal
	CustomDomain *string
	ContactEmail *string
	AdminEmail   string
	AdminName    string
	LogoURL      *string
	PrimaryColor *string
	Currency     string
	Language     string
}

// CreateResellerResult reports the onboarded tenant plus the generated
// admin credentials and how much catalog was copied.
type CreateResellerResult struct {
	Tenant       TenantDTO `json:"tenant"`
	AdminEmail   string    `json:"admin_email"`
	TempPassword string    `json:"temp_password"`
	TiresCopied  int       `json:"tires_copied"`
}

// UpdateTenantInput captures the mutable tenant fields.
type UpdateTenantInput struct {
	Name           *string
	Margin         *decimal.Decimal
	CustomDomain   *string
	LogoURL        *string
	PrimaryColor   *string
	SecondaryColor *string
	ContactEmail   *string
	ContactPhone   *string
	IsActive       *bool
}

func toDTO(t *models.Tenant) *TenantDTO {
	if t == nil {
		return nil
	}
	return &TenantDTO{
		ID:             t.ID,
		Slug:           t.Slug,
		CustomDomain:   t.CustomDomain,
		Name:           t.Name,
		Type:           t.Type,
		ParentID:       t.ParentID,
		Margin:         t.Margin,
		IsActive:       t.IsActive,
		LogoURL:        t.LogoURL,
		PrimaryColor:   t.PrimaryColor,
		SecondaryColor: t.SecondaryColor,
		ContactEmail:   t.ContactEmail,
		Currency:       t.Currency,
		Language:       t.Language,
		CreatedAt:      t.CreatedAt,
	}
}
