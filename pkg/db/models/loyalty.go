package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/pkg/enums"
)

// LoyaltyProgram holds a tenant's earn/redeem rules. One program per tenant.
type LoyaltyProgram struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex"`
	Name     string    `gorm:"column:name;not null"`

	PointsPerEuro decimal.Decimal `gorm:"column:points_per_euro;type:numeric(8,2);not null;default:1"`
	EuroPerPoint  decimal.Decimal `gorm:"column:euro_per_point;type:numeric(8,4);not null;default:0.01"`

	BronzeThreshold int `gorm:"column:bronze_threshold;not null;default:0"`
	SilverThreshold int `gorm:"column:silver_threshold;not null;default:1000"`
	GoldThreshold   int `gorm:"column:gold_threshold;not null;default:5000"`

	BirthdayBonus int  `gorm:"column:birthday_bonus;not null;default:100"`
	ReferralBonus int  `gorm:"column:referral_bonus;not null;default:500"`
	IsActive      bool `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// LoyaltyCustomer is a member of a tenant's program, keyed by email within it.
type LoyaltyCustomer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProgramID uuid.UUID `gorm:"column:program_id;type:uuid;not null;uniqueIndex:idx_loyalty_program_email"`
	Email     string    `gorm:"column:email;not null;uniqueIndex:idx_loyalty_program_email"`
	Name      string    `gorm:"column:name;not null"`
	Phone     *string   `gorm:"column:phone"`
	Birthday  *time.Time `gorm:"column:birthday"`

	TotalPoints     int               `gorm:"column:total_points;not null;default:0"`
	UsedPoints      int               `gorm:"column:used_points;not null;default:0"`
	AvailablePoints int               `gorm:"column:available_points;not null;default:0"`
	CurrentTier     enums.LoyaltyTier `gorm:"column:current_tier;type:loyalty_tier;not null;default:'BRONZE'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
