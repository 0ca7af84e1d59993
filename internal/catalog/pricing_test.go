package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestFinalPrice(t *testing.T) {
	cases := []struct {
		base   string
		margin string
		want   string
	}{
		{"100", "0.20", "120"},
		{"100", "0", "100"},
		{"59.99", "0.25", "74.99"},
		{"33.33", "0.15", "38.33"},
		{"0.01", "0.50", "0.02"},
	}
	for _, tc := range cases {
		got := FinalPrice(dec(tc.base), dec(tc.margin))
		if !got.Equal(dec(tc.want)) {
			t.Errorf("FinalPrice(%s, %s) = %s, want %s", tc.base, tc.margin, got, tc.want)
		}
	}
}

func TestEffectiveMarginOverrideWins(t *testing.T) {
	tenantMargin := dec("0.20")
	override := dec("0.35")

	if got := EffectiveMargin(tenantMargin, nil); !got.Equal(tenantMargin) {
		t.Fatalf("expected tenant margin, got %s", got)
	}
	if got := EffectiveMargin(tenantMargin, &override); !got.Equal(override) {
		t.Fatalf("expected override, got %s", got)
	}
}

func TestPriceBoundsRoundTrip(t *testing.T) {
	// a tire passing a [min,max] final-price filter must display a final
	// price inside that range
	margin := dec("0.23")
	min := dec("50")
	max := dec("90")

	minBase := ToBasePriceBound(min, margin)
	maxBase := ToBasePriceBound(max, margin)

	for _, base := range []string{"40.65", "55.00", "73.17"} {
		b := dec(base)
		if b.LessThan(minBase) || b.GreaterThan(maxBase) {
			continue
		}
		final := FinalPrice(b, margin)
		if final.LessThan(min.Sub(dec("0.01"))) || final.GreaterThan(max.Add(dec("0.01"))) {
			t.Errorf("base %s passed bounds but final %s is outside [%s, %s]", base, final, min, max)
		}
	}
}
