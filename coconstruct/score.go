package coconstruct

import "github.com/revelaction/dialmark/candidate"

// Score adds up the evidence of a pair whose B has n non-punctuation
// tokens.
func Score(f candidate.Flags, n int) int {
	score := 0
	if f.Has(candidate.OrphanTail) {
		score += 35
	}
	if f.Has(candidate.Truncation) {
		score += 30
	}
	if f.Has(candidate.TrailingConnector) {
		score += 12
	}

	score += lengthBonus(n)

	if f.Has(candidate.LexicalOverlap) {
		score += 12
	}
	if f.Has(candidate.BBackchannelLike) {
		score -= 35
	}
	if f.Has(candidate.BQuestionLike) {
		score -= 25
	}

	return candidate.Clamp(score)
}

func lengthBonus(n int) int {
	switch {
	case n <= 3:
		return 12
	case n <= 6:
		return 8
	case n <= 10:
		return 3
	}
	return -10
}
