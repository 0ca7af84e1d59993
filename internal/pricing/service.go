package pricing

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/pkg/config"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
	"github.com/tiredist/tiredist-backend/pkg/openai"
)

const systemPrompt = "You are a pricing assistant for a tire distributor. " +
	"Answer with a single number, the recommended price in euros."

var numberPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// SuggestionInput carries the pricing signals for one tire.
type SuggestionInput struct {
	BasePrice       decimal.Decimal  `json:"base_price" validate:"required"`
	CompetitorPrice *decimal.Decimal `json:"competitor_price,omitempty"`
	StockAgeDays    int              `json:"stock_age_days" validate:"gte=0"`
	MinMarginPct    decimal.Decimal  `json:"min_margin_pct"`
	Demand          float64          `json:"demand" validate:"gte=0,lte=1"`
}

// Suggestion is the priced outcome. Source tells callers whether the model
// answered or the static fallback kicked in.
type Suggestion struct {
	Price      decimal.Decimal `json:"price"`
	FloorPrice decimal.Decimal `json:"floor_price"`
	Source     string          `json:"source"`
}

const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// Service suggests tire prices with an LLM, bounded below by the margin
// floor.
type Service interface {
	Suggest(ctx context.Context, input SuggestionInput) (*Suggestion, error)
}

type service struct {
	completer openai.ChatCompleter
	cfg       config.CatalogConfig
	logg      *logger.Logger
}

// NewService builds the pricing service.
func NewService(completer openai.ChatCompleter, cfg config.CatalogConfig, logg *logger.Logger) (Service, error) {
	if completer == nil {
		return nil, fmt.Errorf("chat completer required")
	}
	return &service{completer: completer, cfg: cfg, logg: logg}, nil
}

// Suggest asks the model for an optimal price. The answer is clamped to the
// margin floor; any model failure falls back to the configured static margin.
func (s *service) Suggest(ctx context.Context, input SuggestionInput) (*Suggestion, error) {
	if !input.BasePrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
	}
	if input.StockAgeDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock age must not be negative")
	}
	if input.Demand < 0 || input.Demand > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "demand score must be between 0 and 1")
	}
	if input.MinMarginPct.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum margin must not be negative")
	}

	floor := input.BasePrice.
		Mul(decimal.NewFromInt(1).Add(input.MinMarginPct.Div(decimal.NewFromInt(100)))).
		Round(2)

	answer, err := s.completer.Complete(ctx, systemPrompt, buildPrompt(input))
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "ai pricing call failed", err)
		}
		return s.fallback(input, floor), nil
	}

	price, ok := parsePrice(answer)
	if !ok || !price.IsPositive() {
		if s.logg != nil {
			s.logg.Warn(ctx, "ai pricing answer not numeric")
		}
		return s.fallback(input, floor), nil
	}

	if price.LessThan(floor) {
		price = floor
	}
	return &Suggestion{Price: price.Round(2), FloorPrice: floor, Source: SourceModel}, nil
}

func (s *service) fallback(input SuggestionInput, floor decimal.Decimal) *Suggestion {
	margin := decimal.NewFromFloat(s.cfg.FallbackMargin)
	price := input.BasePrice.Mul(decimal.NewFromInt(1).Add(margin)).Round(2)
	if price.LessThan(floor) {
		price = floor
	}
	return &Suggestion{Price: price, FloorPrice: floor, Source: SourceFallback}
}

func buildPrompt(input SuggestionInput) string {
	competitor := "unknown"
	if input.CompetitorPrice != nil {
		competitor = input.CompetitorPrice.StringFixed(2)
	}
	var b strings.Builder
	b.WriteString("Calculate optimal tire price:\n")
	fmt.Fprintf(&b, "- Base price: EUR %s\n", input.BasePrice.StringFixed(2))
	fmt.Fprintf(&b, "- Competitor price: EUR %s\n", competitor)
	fmt.Fprintf(&b, "- Stock age (days): %d\n", input.StockAgeDays)
	fmt.Fprintf(&b, "- Minimum margin: %s%%\n", input.MinMarginPct.String())
	fmt.Fprintf(&b, "- Demand score (0-1): %.2f\n", input.Demand)
	b.WriteString("\nReturn only the optimal price as a number.")
	return b.String()
}

// parsePrice pulls the first number out of the model's answer. Models
// occasionally wrap the number in prose or a currency sign.
func parsePrice(answer string) (decimal.Decimal, bool) {
	match := numberPattern.FindString(answer)
	if match == "" {
		return decimal.Zero, false
	}
	match = strings.ReplaceAll(match, ",", ".")
	price, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}
