package retreads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

// CreateRetreadInput records one reconditioning cycle of a casing.
type CreateRetreadInput struct {
	TireID       uuid.UUID        `json:"tire_id" validate:"required"`
	CasingID     string           `json:"casing_id" validate:"required"`
	CycleNumber  int              `json:"cycle_number" validate:"required,gte=1,lte=10"`
	Grade        string           `json:"grade" validate:"required"`
	QualityScore *decimal.Decimal `json:"quality_score,omitempty"`
	ExpectedKM   *int             `json:"expected_km,omitempty"`
	ProcessedBy  *string          `json:"processed_by,omitempty"`
}

// RetreadDTO is the API shape of a recorded cycle.
type RetreadDTO struct {
	ID           uuid.UUID          `json:"id"`
	TireID       uuid.UUID          `json:"tire_id"`
	CasingID     string             `json:"casing_id"`
	CycleNumber  int                `json:"cycle_number"`
	Grade        enums.RetreadGrade `json:"grade"`
	QualityScore *decimal.Decimal   `json:"quality_score,omitempty"`
	ExpectedKM   *int               `json:"expected_km,omitempty"`
	ProcessedBy  *string            `json:"processed_by,omitempty"`
	ProcessedAt  time.Time          `json:"processed_at"`
}

// ListRetreadsQuery filters the tenant's retread ledger.
type ListRetreadsQuery struct {
	CasingID *string
	Grade    *enums.RetreadGrade
	Page     pagination.Params
}

// RetreadPage is one page of ledger rows.
type RetreadPage struct {
	Items []RetreadDTO    `json:"items"`
	Page  pagination.Page `json:"pagination"`
}

// CasingStats summarizes a casing's recorded cycles.
type CasingStats struct {
	TotalCycles       int                        `json:"total_cycles"`
	AvgQualityScore   decimal.Decimal            `json:"avg_quality_score"`
	GradeDistribution map[enums.RetreadGrade]int `json:"grade_distribution"`
}

// CasingHistory is the full ledger view of one casing.
type CasingHistory struct {
	CasingID      string       `json:"casing_id"`
	Cycles        []RetreadDTO `json:"cycles"`
	Stats         CasingStats  `json:"statistics"`
	IsRetreadable bool         `json:"is_retreadable"`
}

// AnalyticsQuery bounds the analytics window. Nil bounds are open ended.
type AnalyticsQuery struct {
	From *time.Time
	To   *time.Time
}

// AnalyticsRow pairs one recorded cycle with its tire's brand name.
type AnalyticsRow struct {
	Grade        enums.RetreadGrade `gorm:"column:grade"`
	CycleNumber  int                `gorm:"column:cycle_number"`
	QualityScore *decimal.Decimal   `gorm:"column:quality_score"`
	BrandName    string             `gorm:"column:brand_name"`
}

// RetreadAnalytics summarizes the tenant's ledger over a date window.
type RetreadAnalytics struct {
	TotalRetreads     int                        `json:"total_retreads"`
	GradeDistribution map[enums.RetreadGrade]int `json:"grade_distribution"`
	BrandDistribution map[string]int             `json:"brand_distribution"`
	CycleDistribution map[int]int                `json:"cycle_distribution"`
	AvgQualityScore   decimal.Decimal            `json:"avg_quality_score"`
	SuccessRate       decimal.Decimal            `json:"success_rate"`
}

// QRPayload is the data encoded into a casing's QR label.
type QRPayload struct {
	CasingID    string     `json:"casingId"`
	TireID      uuid.UUID  `json:"tireId"`
	SKU         string     `json:"sku"`
	BrandID     *uuid.UUID `json:"brand,omitempty"`
	Size        string     `json:"size"`
	MaxRetreads int        `json:"maxRetreads"`
	Created     time.Time  `json:"created"`
}

// QRCodeResult carries the encoded payload plus a render URL.
type QRCodeResult struct {
	Data     string `json:"qr_data"`
	ImageURL string `json:"qr_code_url"`
	CasingID string `json:"casing_id"`
}

// ScanResult is what a scanned casing label resolves to.
type ScanResult struct {
	CasingID  string       `json:"casing_id"`
	Tire      *models.Tire `json:"tire,omitempty"`
	Cycles    []RetreadDTO `json:"retreads"`
	ScannedAt time.Time    `json:"scanned_at"`
}

func toDTO(r models.Retread) RetreadDTO {
	return RetreadDTO{
		ID:           r.ID,
		TireID:       r.TireID,
		CasingID:     r.CasingID,
		CycleNumber:  r.CycleNumber,
		Grade:        r.Grade,
		QualityScore: r.QualityScore,
		ExpectedKM:   r.ExpectedKM,
		ProcessedBy:  r.ProcessedBy,
		ProcessedAt:  r.ProcessedAt,
	}
}

func toDTOs(rows []models.Retread) []RetreadDTO {
	out := make([]RetreadDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDTO(r))
	}
	return out
}
