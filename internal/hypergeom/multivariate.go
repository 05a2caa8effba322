package hypergeom

import (
	"fmt"
	"math"
)

// Joint computes P(X1 >= needed[0] AND X2 >= needed[1] AND ...) where the Xi
// count how many cards of each bucket appear in drawn cards, jointly
// multivariate-hypergeometric over the deck. Cards outside every bucket form
// an implicit "other" bucket of deckSize - sum(cardCounts).
//
// Only the feasible joint outcome space is enumerated, bounded by
// prod(min(cardCounts[i], drawn)+1) terms.
func Joint(deckSize int, cardCounts []int, drawn int, needed []int) (float64, error) {
	if deckSize <= 0 {
		return 0, fmt.Errorf("%w: deck size must be positive, got %d", ErrInvalidParameter, deckSize)
	}
	if drawn < 0 || drawn > deckSize {
		return 0, fmt.Errorf("%w: cards drawn (%d) out of range for deck size %d", ErrInvalidParameter, drawn, deckSize)
	}
	if len(cardCounts) != len(needed) {
		return 0, fmt.Errorf("%w: %d card counts but %d thresholds", ErrInvalidParameter, len(cardCounts), len(needed))
	}

	interest := 0
	for i, count := range cardCounts {
		if count < 0 {
			return 0, fmt.Errorf("%w: card count %d is negative", ErrInvalidParameter, i)
		}
		if needed[i] < 0 {
			return 0, fmt.Errorf("%w: threshold %d is negative", ErrInvalidParameter, i)
		}
		interest += count
	}
	if interest > deckSize {
		return 0, fmt.Errorf("%w: card counts total %d exceeds deck size %d", ErrInvalidParameter, interest, deckSize)
	}

	other := deckSize - interest
	logTotal := logChoose(deckSize, drawn)

	total := 0.0
	var walk func(bucket, remaining int, logAcc float64)
	walk = func(bucket, remaining int, logAcc float64) {
		if bucket == len(cardCounts) {
			if remaining > other {
				return
			}
			total += math.Exp(logAcc + logChoose(other, remaining) - logTotal)
			return
		}
		hi := cardCounts[bucket]
		if hi > remaining {
			hi = remaining
		}
		for x := needed[bucket]; x <= hi; x++ {
			walk(bucket+1, remaining-x, logAcc+logChoose(cardCounts[bucket], x))
		}
	}
	walk(0, drawn, 0)

	if math.IsNaN(total) || math.IsInf(total, 0) || total > 1+1e-6 {
		return 0, fmt.Errorf("%w: joint probability %v", ErrNumericOverflow, total)
	}
	return clamp01(total), nil
}
