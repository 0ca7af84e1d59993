package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/pkg/enums"
)

// Retread records one retread cycle of a casing. The (casing_id, cycle_number)
// pair is unique so the same cycle cannot be recorded twice.
type Retread struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TireID       uuid.UUID          `gorm:"column:tire_id;type:uuid;not null;index"`
	CasingID     string             `gorm:"column:casing_id;not null;uniqueIndex:idx_retreads_casing_cycle"`
	CycleNumber  int                `gorm:"column:cycle_number;not null;uniqueIndex:idx_retreads_casing_cycle"`
	Grade        enums.RetreadGrade `gorm:"column:grade;type:retread_grade;not null"`
	QualityScore *decimal.Decimal   `gorm:"column:quality_score;type:numeric(5,2)"`
	ExpectedKM   *int               `gorm:"column:expected_km"`
	ProcessedBy  *string            `gorm:"column:processed_by"`
	ProcessedAt  time.Time          `gorm:"column:processed_at;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}
