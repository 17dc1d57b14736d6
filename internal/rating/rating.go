// Package rating converts a finished session into stars, a rank label and a
// result message. All functions are pure and total for total >= 1.
package rating

// Rank labels from worst to best; index corresponds to the (possibly
// combo-upgraded) star count.
var rankLabels = [...]string{"C", "B", "A", "S", "SS", "SSS"}

// Stars maps the fraction of correct answers to a 0-5 star rating.
func Stars(correct, total int) int {
	if total < 1 {
		return 0
	}
	frac := float64(correct) / float64(total)
	switch {
	case frac >= 0.95:
		return 5
	case frac >= 0.80:
		return 4
	case frac >= 0.60:
		return 3
	case frac >= 0.45:
		return 2
	case frac >= 0.30:
		return 1
	default:
		return 0
	}
}

// Rank returns the rank label for a star count, upgraded by one step when
// the best combo reaches comboBonus, clamped to the valid range.
func Rank(stars, bestCombo, comboBonus int) string {
	idx := stars
	if comboBonus > 0 && bestCombo >= comboBonus {
		idx++
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(rankLabels) {
		idx = len(rankLabels) - 1
	}
	return rankLabels[idx]
}

// Message picks the result screen message for a percentage in [0, 100].
func Message(percent float64) string {
	switch {
	case percent >= 95:
		return "パーフェクト級！漢字マスター！"
	case percent >= 80:
		return "すごい！あと少しで完璧！"
	case percent >= 60:
		return "なかなかの腕前！"
	case percent >= 30:
		return "まだまだこれから！"
	default:
		return "復習してリベンジしよう！"
	}
}
