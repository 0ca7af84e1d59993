package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a customer rating of a tire. New reviews start unapproved and
// unverified; only approved reviews are listed publicly.
type Review struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID      uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`
	TireID        uuid.UUID `gorm:"column:tire_id;type:uuid;not null;index"`
	CustomerName  string    `gorm:"column:customer_name;not null"`
	CustomerEmail string    `gorm:"column:customer_email;not null"`
	Rating        int       `gorm:"column:rating;not null"`
	Title         *string   `gorm:"column:title"`
	Comment       *string   `gorm:"column:comment"`
	Verified      bool      `gorm:"column:verified;not null;default:false"`
	Approved      bool      `gorm:"column:approved;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
