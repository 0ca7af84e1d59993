package catalog

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// EffectiveMargin returns the per-tire override when present, the tenant
// margin otherwise.
func EffectiveMargin(tenantMargin decimal.Decimal, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	return tenantMargin
}

// FinalPrice computes basePrice * (1 + margin) rounded half-up to cents.
func FinalPrice(basePrice, margin decimal.Decimal) decimal.Decimal {
	return basePrice.Mul(one.Add(margin)).Round(2)
}

// ToBasePriceBound converts a consumer-facing price bound into base-price
// space so filtering can run against the stored base_price column.
func ToBasePriceBound(bound, margin decimal.Decimal) decimal.Decimal {
	return bound.Div(one.Add(margin))
}
