package retreads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/db"
	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
	"github.com/tiredist/tiredist-backend/pkg/outbox"
	"github.com/tiredist/tiredist-backend/pkg/outbox/payloads"
	"github.com/tiredist/tiredist-backend/pkg/pagination"
)

type retreadRepository interface {
	FindTireInScope(ctx context.Context, tenantID, tireID uuid.UUID) (*models.Tire, error)
	FindTireByID(ctx context.Context, tireID uuid.UUID) (*models.Tire, error)
	CreateTx(tx *gorm.DB, retread *models.Retread) error
	UpdateTireEcoScoreTx(tx *gorm.DB, tireID uuid.UUID, score decimal.Decimal) error
	ListCasingCycles(ctx context.Context, tenantID uuid.UUID, casingID string) ([]models.Retread, error)
	ListCasingCyclesAny(ctx context.Context, casingID string) ([]models.Retread, error)
	List(ctx context.Context, tenantID uuid.UUID, q ListRetreadsQuery) ([]models.Retread, int64, error)
	ListForAnalytics(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]AnalyticsRow, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the retread ledger: recorded cycles, casing history and QR
// labels for physical casings.
type Service interface {
	Create(ctx context.Context, tenantID uuid.UUID, input CreateRetreadInput) (*RetreadDTO, error)
	CasingHistory(ctx context.Context, tenantID uuid.UUID, casingID string) (*CasingHistory, error)
	List(ctx context.Context, tenantID uuid.UUID, q ListRetreadsQuery) (*RetreadPage, error)
	Analytics(ctx context.Context, tenantID uuid.UUID, q AnalyticsQuery) (*RetreadAnalytics, error)
	GenerateQR(ctx context.Context, tenantID uuid.UUID, casingID string, tireID uuid.UUID) (*QRCodeResult, error)
	ScanQR(ctx context.Context, data string) (*ScanResult, error)
}

type service struct {
	repo   retreadRepository
	tx     txRunner
	events eventEmitter
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the retread ledger service.
func NewService(repo retreadRepository, tx txRunner, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("retread repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{repo: repo, tx: tx, events: events, logg: logg, now: time.Now}, nil
}

// Create records one cycle and decays the tire's eco score by the grade
// factor. The (casing, cycle) pair is unique so redelivered submissions
// surface as CONFLICT.
func (s *service) Create(ctx context.Context, tenantID uuid.UUID, input CreateRetreadInput) (*RetreadDTO, error) {
	casingID := strings.TrimSpace(input.CasingID)
	if casingID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "casing id is required")
	}
	if input.CycleNumber < 1 || input.CycleNumber > 10 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cycle number must be between 1 and 10")
	}
	grade, err := enums.ParseRetreadGrade(input.Grade)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown retread grade").
			WithDetails(map[string]string{"grade": input.Grade})
	}
	if input.QualityScore != nil &&
		(input.QualityScore.IsNegative() || input.QualityScore.GreaterThan(decimal.NewFromInt(1))) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quality score must be between 0 and 1")
	}
	if input.ExpectedKM != nil && *input.ExpectedKM < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expected km must not be negative")
	}

	tire, err := s.repo.FindTireInScope(ctx, tenantID, input.TireID)
	if err != nil {
		return nil, tireNotFoundOrDependency(err)
	}
	if !tire.Retreadable {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tire is not retreadable").
			WithDetails(map[string]string{"tire_id": tire.ID.String()})
	}

	// Every accepted cycle degrades the casing; there is no recovery and no
	// lower bound other than zero.
	factor := decimal.NewFromFloat(grade.EcoScoreFactor())
	newScore := tire.EcoScore.Mul(factor).Round(3)
	if newScore.IsNegative() {
		newScore = decimal.Zero
	}

	retread := &models.Retread{
		TireID:       tire.ID,
		CasingID:     casingID,
		CycleNumber:  input.CycleNumber,
		Grade:        grade,
		QualityScore: input.QualityScore,
		ExpectedKM:   input.ExpectedKM,
		ProcessedBy:  input.ProcessedBy,
		ProcessedAt:  s.now().UTC(),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, retread); err != nil {
			if db.IsUniqueViolation(err, "idx_retreads_casing_cycle") {
				return pkgerrors.New(pkgerrors.CodeConflict, "retread cycle already recorded").
					WithDetails(map[string]string{
						"casing_id":    casingID,
						"cycle_number": fmt.Sprintf("%d", input.CycleNumber),
					})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create retread")
		}
		if err := s.repo.UpdateTireEcoScoreTx(tx, tire.ID, newScore); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update eco score")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRetreadRecorded,
			AggregateType: enums.AggregateRetread,
			AggregateID:   retread.ID,
			Version:       1,
			Data: payloads.RetreadRecordedEvent{
				RetreadID:   retread.ID,
				TireID:      tire.ID,
				CasingID:    casingID,
				CycleNumber: input.CycleNumber,
				Grade:       grade,
				EcoScore:    newScore,
			},
		})
	})
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record retread")
	}

	dto := toDTO(*retread)
	return &dto, nil
}

// CasingHistory returns the ordered cycles plus derived statistics.
func (s *service) CasingHistory(ctx context.Context, tenantID uuid.UUID, casingID string) (*CasingHistory, error) {
	casingID = strings.TrimSpace(casingID)
	if casingID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "casing id is required")
	}

	rows, err := s.repo.ListCasingCycles(ctx, tenantID, casingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load casing history")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "casing not found").
			WithDetails(map[string]string{"casing_id": casingID})
	}

	tire, err := s.repo.FindTireInScope(ctx, tenantID, rows[0].TireID)
	if err != nil {
		return nil, tireNotFoundOrDependency(err)
	}

	return &CasingHistory{
		CasingID:      casingID,
		Cycles:        toDTOs(rows),
		Stats:         casingStats(rows),
		IsRetreadable: len(rows) < tire.MaxRetreads,
	}, nil
}

// List returns a page of the tenant's retread ledger.
func (s *service) List(ctx context.Context, tenantID uuid.UUID, q ListRetreadsQuery) (*RetreadPage, error) {
	if q.Grade != nil && !q.Grade.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown retread grade")
	}

	rows, total, err := s.repo.List(ctx, tenantID, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list retreads")
	}
	return &RetreadPage{
		Items: toDTOs(rows),
		Page:  pagination.NewPage(q.Page, total),
	}, nil
}

// Analytics aggregates the tenant's recorded cycles over an optional date
// window: grade, brand and cycle-number distributions, the average quality
// score and the share of A or B cycles as a percentage. Cycles without a
// quality score still count toward the average's denominator.
func (s *service) Analytics(ctx context.Context, tenantID uuid.UUID, q AnalyticsQuery) (*RetreadAnalytics, error) {
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}

	rows, err := s.repo.ListForAnalytics(ctx, tenantID, q.From, q.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load retread analytics")
	}

	analytics := &RetreadAnalytics{
		TotalRetreads:     len(rows),
		GradeDistribution: map[enums.RetreadGrade]int{},
		BrandDistribution: map[string]int{},
		CycleDistribution: map[int]int{},
		AvgQualityScore:   decimal.Zero,
		SuccessRate:       decimal.Zero,
	}
	if len(rows) == 0 {
		return analytics, nil
	}

	sum := decimal.Zero
	for _, row := range rows {
		analytics.GradeDistribution[row.Grade]++
		analytics.CycleDistribution[row.CycleNumber]++
		if row.BrandName != "" {
			analytics.BrandDistribution[row.BrandName]++
		}
		if row.QualityScore != nil {
			sum = sum.Add(*row.QualityScore)
		}
	}

	total := decimal.NewFromInt(int64(len(rows)))
	analytics.AvgQualityScore = sum.Div(total).Round(2)
	passed := analytics.GradeDistribution[enums.RetreadGradeA] + analytics.GradeDistribution[enums.RetreadGradeB]
	analytics.SuccessRate = decimal.NewFromInt(int64(passed)).
		Div(total).
		Mul(decimal.NewFromInt(100)).
		Round(0)
	return analytics, nil
}

// GenerateQR builds the printable label payload for a casing.
func (s *service) GenerateQR(ctx context.Context, tenantID uuid.UUID, casingID string, tireID uuid.UUID) (*QRCodeResult, error) {
	casingID = strings.TrimSpace(casingID)
	if casingID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "casing id is required")
	}

	tire, err := s.repo.FindTireInScope(ctx, tenantID, tireID)
	if err != nil {
		return nil, tireNotFoundOrDependency(err)
	}

	data, err := EncodeQRPayload(QRPayload{
		CasingID:    casingID,
		TireID:      tire.ID,
		SKU:         tire.SKU,
		BrandID:     tire.BrandID,
		Size:        sizeLabel(tire),
		MaxRetreads: tire.MaxRetreads,
		Created:     s.now().UTC(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode qr payload")
	}

	return &QRCodeResult{
		Data:     data,
		ImageURL: renderURL(data),
		CasingID: casingID,
	}, nil
}

// ScanQR resolves a scanned label back to its tire and cycle history. Labels
// are scanned in the field, so this is not tenant scoped.
func (s *service) ScanQR(ctx context.Context, data string) (*ScanResult, error) {
	payload, err := DecodeQRPayload(data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid qr code data")
	}

	rows, err := s.repo.ListCasingCyclesAny(ctx, payload.CasingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load casing history")
	}

	tire, err := s.repo.FindTireByID(ctx, payload.TireID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tire")
	}

	return &ScanResult{
		CasingID:  payload.CasingID,
		Tire:      tire,
		Cycles:    toDTOs(rows),
		ScannedAt: s.now().UTC(),
	}, nil
}

// casingStats aggregates cycle counts, the average quality score and the
// grade distribution. Cycles without a quality score still count toward the
// average's denominator.
func casingStats(rows []models.Retread) CasingStats {
	dist := make(map[enums.RetreadGrade]int, 4)
	sum := decimal.Zero
	for _, r := range rows {
		dist[r.Grade]++
		if r.QualityScore != nil {
			sum = sum.Add(*r.QualityScore)
		}
	}
	avg := decimal.Zero
	if len(rows) > 0 {
		avg = sum.Div(decimal.NewFromInt(int64(len(rows)))).Round(2)
	}
	return CasingStats{
		TotalCycles:       len(rows),
		AvgQualityScore:   avg,
		GradeDistribution: dist,
	}
}

func tireNotFoundOrDependency(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tire not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tire")
}
