package loyalty

import (
	"github.com/shopspring/decimal"

	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
)

// TierFor computes the tier from cumulative total points. Spending points
// never demotes a member.
func TierFor(program *models.LoyaltyProgram, totalPoints int) enums.LoyaltyTier {
	switch {
	case totalPoints >= program.GoldThreshold:
		return enums.LoyaltyTierGold
	case totalPoints >= program.SilverThreshold:
		return enums.LoyaltyTierSilver
	default:
		return enums.LoyaltyTierBronze
	}
}

// PointsForPurchase converts an order total into earned points, rounding
// down to whole points.
func PointsForPurchase(program *models.LoyaltyProgram, total decimal.Decimal) int {
	if total.IsNegative() {
		return 0
	}
	return int(total.Mul(program.PointsPerEuro).Floor().IntPart())
}
