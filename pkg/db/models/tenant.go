package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/pkg/enums"
)

// Tenant represents one storefront: the root distributor or a branded reseller.
// Resellers always carry a ParentID pointing at the distributor.
type Tenant struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug         string           `gorm:"column:slug;not null;uniqueIndex"`
	CustomDomain *string          `gorm:"column:custom_domain;uniqueIndex"`
	Name         string           `gorm:"column:name;not null"`
	Type         enums.TenantType `gorm:"column:type;type:tenant_type;not null"`
	ParentID     *uuid.UUID       `gorm:"column:parent_id;type:uuid"`
	Margin       decimal.Decimal  `gorm:"column:margin;type:numeric(6,4);not null;default:0"`
	IsActive     bool             `gorm:"column:is_active;not null;default:true"`

	LogoURL        *string `gorm:"column:logo_url"`
	PrimaryColor   *string `gorm:"column:primary_color"`
	SecondaryColor *string `gorm:"column:secondary_color"`

	ContactEmail *string `gorm:"column:contact_email"`
	ContactPhone *string `gorm:"column:contact_phone"`
	Address      *string `gorm:"column:address"`
	City         *string `gorm:"column:city"`
	Country      *string `gorm:"column:country"`

	Currency     string  `gorm:"column:currency;not null;default:'EUR'"`
	Language     string  `gorm:"column:language;not null;default:'pt'"`
	StripeAcctID *string `gorm:"column:stripe_acct_id"`

	Parent    *Tenant   `gorm:"foreignKey:ParentID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
