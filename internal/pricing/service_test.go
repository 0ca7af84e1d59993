package pricing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/pkg/config"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func errCode(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return ""
}

type fakeCompleter struct {
	answer     string
	err        error
	lastPrompt string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.lastPrompt = user
	return f.answer, f.err
}

var testCatalogConfig = config.CatalogConfig{DefaultMargin: 0.20, FallbackMargin: 0.18}

func pricingService(t *testing.T, completer *fakeCompleter) Service {
	t.Helper()
	svc, err := NewService(completer, testCatalogConfig, nil)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

func TestSuggestUsesModelAnswer(t *testing.T) {
	completer := &fakeCompleter{answer: "137.50"}
	svc := pricingService(t, completer)

	got, err := svc.Suggest(context.Background(), SuggestionInput{
		BasePrice:    dec(t, "100"),
		MinMarginPct: dec(t, "15"),
		StockAgeDays: 30,
		Demand:       0.7,
	})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if got.Source != SourceModel {
		t.Fatalf("source = %s, want model", got.Source)
	}
	if want := dec(t, "137.50"); !got.Price.Equal(want) {
		t.Fatalf("price = %s, want %s", got.Price, want)
	}
	if !strings.Contains(completer.lastPrompt, "Stock age (days): 30") {
		t.Fatalf("prompt missing stock age: %s", completer.lastPrompt)
	}
}

func TestSuggestClampsToMarginFloor(t *testing.T) {
	svc := pricingService(t, &fakeCompleter{answer: "101"})

	got, err := svc.Suggest(context.Background(), SuggestionInput{
		BasePrice:    dec(t, "100"),
		MinMarginPct: dec(t, "15"),
	})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	// model answered below base*(1+15%) so the floor wins
	if want := dec(t, "115.00"); !got.Price.Equal(want) {
		t.Fatalf("price = %s, want %s", got.Price, want)
	}
	if got.Source != SourceModel {
		t.Fatalf("clamped answers still count as model output, got %s", got.Source)
	}
}

func TestSuggestFallsBackOnAPIError(t *testing.T) {
	svc := pricingService(t, &fakeCompleter{err: errors.New("rate limited")})

	got, err := svc.Suggest(context.Background(), SuggestionInput{
		BasePrice:    dec(t, "100"),
		MinMarginPct: dec(t, "10"),
	})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if got.Source != SourceFallback {
		t.Fatalf("source = %s, want fallback", got.Source)
	}
	if want := dec(t, "118.00"); !got.Price.Equal(want) {
		t.Fatalf("price = %s, want %s", got.Price, want)
	}
}

func TestSuggestFallsBackOnGarbageAnswer(t *testing.T) {
	for _, answer := range []string{"", "I cannot answer that", "-12"} {
		svc := pricingService(t, &fakeCompleter{answer: answer})
		got, err := svc.Suggest(context.Background(), SuggestionInput{
			BasePrice: dec(t, "50"),
		})
		if err != nil {
			t.Fatalf("answer %q: %v", answer, err)
		}
		if got.Source != SourceFallback {
			t.Fatalf("answer %q: source = %s, want fallback", answer, got.Source)
		}
		if want := dec(t, "59.00"); !got.Price.Equal(want) {
			t.Fatalf("answer %q: price = %s, want %s", answer, got.Price, want)
		}
	}
}

func TestSuggestParsesProseAnswers(t *testing.T) {
	svc := pricingService(t, &fakeCompleter{answer: "The optimal price is 129,90 euros."})

	got, err := svc.Suggest(context.Background(), SuggestionInput{BasePrice: dec(t, "100")})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if want := dec(t, "129.90"); !got.Price.Equal(want) {
		t.Fatalf("price = %s, want %s", got.Price, want)
	}
}

func TestSuggestValidation(t *testing.T) {
	svc := pricingService(t, &fakeCompleter{answer: "120"})

	cases := map[string]SuggestionInput{
		"zero base":       {BasePrice: decimal.Zero},
		"negative margin": {BasePrice: dec(t, "100"), MinMarginPct: dec(t, "-1")},
		"demand high":     {BasePrice: dec(t, "100"), Demand: 1.1},
		"negative age":    {BasePrice: dec(t, "100"), StockAgeDays: -1},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Suggest(context.Background(), input); errCode(err) != pkgerrors.CodeValidation {
				t.Fatalf("code = %s, want VALIDATION", errCode(err))
			}
		})
	}
}
