package backchannel

import "github.com/revelaction/dialmark/candidate"

// Confidence derives the categorical confidence of a candidate from its
// flags and the number of non-punctuation tokens of B.
func Confidence(f candidate.Flags, n int) candidate.Confidence {
	c := candidate.Low
	switch {
	case f.Has(candidate.ImmediateContinuation):
		c = candidate.High
	case f.Has(candidate.WindowedContinuation):
		c = candidate.Medium
	}

	if f.Has(candidate.BAfterQuestion) {
		c = c.Downgrade()
	}

	if f.Count(candidate.Warnings) >= 2 || n > 5 {
		c = candidate.Low
	}

	return c
}

// Score derives the 0-100 score of a candidate. It moves with Confidence:
// continuation raises both, warnings and length lower both.
func Score(f candidate.Flags, n int) int {
	score := 35
	switch {
	case f.Has(candidate.ImmediateContinuation):
		score = 85
	case f.Has(candidate.WindowedContinuation):
		score = 70
	}

	score += lengthBonus(n)
	score -= 15 * f.Count(candidate.Warnings)

	// an answer to A's question rather than a backchannel
	if f.Has(candidate.BAfterQuestion) && f.Has(candidate.BHasContent) {
		score -= 40
	}

	return candidate.Clamp(score)
}

func lengthBonus(n int) int {
	switch n {
	case 1:
		return 10
	case 2:
		return 5
	case 3:
		return 0
	case 4:
		return -15
	case 5:
		return -25
	}
	return -50
}
