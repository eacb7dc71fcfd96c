package loyalty

// Tiers in ascending order.
const (
	TierBronze  = "bronze"
	TierSilver  = "silver"
	TierGold    = "gold"
	TierDiamond = "diamond"
)

// TierFor derives the tier from cumulative points earned. The tier is tied
// to lifetime earnings, not the available balance, so redeeming or expiring
// points never lowers it.
func TierFor(pointsEarned int64) string {
	switch {
	case pointsEarned >= 10000:
		return TierDiamond
	case pointsEarned >= 5000:
		return TierGold
	case pointsEarned >= 1000:
		return TierSilver
	default:
		return TierBronze
	}
}
