// Package hypergeom computes exact draw probabilities for decks of cards.
//
// Everything here is closed form: drawing without replacement follows the
// hypergeometric distribution, and combinations are evaluated in log space so
// deck sizes in the hundreds stay well inside float64 range.
package hypergeom

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter marks caller errors: out-of-range or inconsistent
// request values. These are pure functions of the input and never retryable.
var ErrInvalidParameter = errors.New("invalid parameter")

// ErrNumericOverflow marks a computation that escaped [0, 1] or produced
// NaN/Inf. Log-space evaluation should prevent it; it is detected rather than
// silently returned.
var ErrNumericOverflow = errors.New("numeric overflow")

// Result holds the answers for a single hypergeometric query.
type Result struct {
	Exactly      float64
	AtLeast      float64
	AtMost       float64
	Distribution map[int]float64
}

// Draw answers "drawing n cards from a deck of N containing K copies, what is
// the chance of seeing exactly/at least/at most s copies?". The distribution
// covers every feasible success count.
//
// successes beyond min(copies, drawn) is not an error: Exactly and AtLeast are
// 0 and AtMost is 1.
func Draw(deckSize, copies, drawn, successes int) (Result, error) {
	if err := validateDraw(deckSize, copies, drawn); err != nil {
		return Result{}, err
	}
	if successes < 0 {
		return Result{}, fmt.Errorf("%w: successes must be non-negative, got %d", ErrInvalidParameter, successes)
	}

	lo := feasibleMin(deckSize, copies, drawn)
	hi := feasibleMax(copies, drawn)

	dist := make(map[int]float64, hi-lo+1)
	total := 0.0
	for k := lo; k <= hi; k++ {
		p := pmf(deckSize, copies, drawn, k)
		dist[k] = p
		total += p
	}
	if math.IsNaN(total) || math.IsInf(total, 0) || total > 1+1e-6 {
		return Result{}, fmt.Errorf("%w: distribution sums to %v", ErrNumericOverflow, total)
	}

	res := Result{Distribution: dist}
	for k, p := range dist {
		if k == successes {
			res.Exactly = p
		}
		if k >= successes {
			res.AtLeast += p
		}
		if k <= successes {
			res.AtMost += p
		}
	}
	if successes > hi {
		res.AtMost = 1.0
	}
	res.AtLeast = clamp01(res.AtLeast)
	res.AtMost = clamp01(res.AtMost)
	return res, nil
}

// Mean returns the expected number of copies drawn, n·K/N.
func Mean(deckSize, copies, drawn int) (float64, error) {
	if err := validateDraw(deckSize, copies, drawn); err != nil {
		return 0, err
	}
	return float64(drawn) * float64(copies) / float64(deckSize), nil
}

// Variance returns the variance of the number of copies drawn.
func Variance(deckSize, copies, drawn int) (float64, error) {
	if err := validateDraw(deckSize, copies, drawn); err != nil {
		return 0, err
	}
	n, k, nn := float64(drawn), float64(copies), float64(deckSize)
	if nn <= 1 {
		return 0, nil
	}
	return n * (k / nn) * (1 - k/nn) * (nn - n) / (nn - 1), nil
}

// StdDev returns the standard deviation of the number of copies drawn.
func StdDev(deckSize, copies, drawn int) (float64, error) {
	v, err := Variance(deckSize, copies, drawn)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}

// ByTurn returns the probability of having seen at least need copies by the
// given turn. On the play the opening hand plus turn-1 draws are visible; on
// the draw one extra card is. Cards seen are clamped to the deck size.
func ByTurn(deckSize, copies, handSize, turn, need int, onPlay bool) (float64, error) {
	if turn < 0 {
		return 0, fmt.Errorf("%w: turn must be non-negative, got %d", ErrInvalidParameter, turn)
	}
	if handSize < 0 {
		return 0, fmt.Errorf("%w: hand size must be non-negative, got %d", ErrInvalidParameter, handSize)
	}
	seen := handSize + turn
	if onPlay && turn > 0 {
		seen--
	}
	if seen > deckSize {
		seen = deckSize
	}
	res, err := Draw(deckSize, copies, seen, need)
	if err != nil {
		return 0, err
	}
	return res.AtLeast, nil
}

// MulliganImpact reports how mulliganing to a smaller hand changes the chance
// of seeing at least one copy.
type MulliganImpact struct {
	Keep     float64 // saw it in the original hand
	Mulligan float64 // saw it in the mulligan hand alone
	Either   float64 // saw it in at least one of the two
}

// Mulligan computes MulliganImpact for an opening hand of handSize cards and a
// mulligan to mulliganTo cards. The two hands are drawn from independent
// shuffles, so the combined chance is 1 - (1-p1)(1-p2).
func Mulligan(deckSize, copies, handSize, mulliganTo int) (MulliganImpact, error) {
	keep, err := Draw(deckSize, copies, handSize, 1)
	if err != nil {
		return MulliganImpact{}, err
	}
	mull, err := Draw(deckSize, copies, mulliganTo, 1)
	if err != nil {
		return MulliganImpact{}, err
	}
	return MulliganImpact{
		Keep:     keep.AtLeast,
		Mulligan: mull.AtLeast,
		Either:   1 - (1-keep.AtLeast)*(1-mull.AtLeast),
	}, nil
}

// CopiesResult is the outcome of an OptimalCopies sweep.
type CopiesResult struct {
	Copies      int
	Probability float64
}

// OptimalCopies scans copies=1..deckSize and returns the first copy count for
// which the chance of drawing at least one copy in drawn cards meets the
// target. When no count reaches the target the maximum is returned with its
// probability. This replaces the per-copy-count request loop the consumer
// would otherwise issue.
func OptimalCopies(deckSize, drawn int, target float64) (CopiesResult, error) {
	if target < 0 || target > 1 {
		return CopiesResult{}, fmt.Errorf("%w: target probability must be in [0,1], got %v", ErrInvalidParameter, target)
	}
	if deckSize <= 0 {
		return CopiesResult{}, fmt.Errorf("%w: deck size must be positive, got %d", ErrInvalidParameter, deckSize)
	}

	var last CopiesResult
	for copies := 1; copies <= deckSize; copies++ {
		res, err := Draw(deckSize, copies, drawn, 1)
		if err != nil {
			return CopiesResult{}, err
		}
		last = CopiesResult{Copies: copies, Probability: res.AtLeast}
		if res.AtLeast >= target {
			return last, nil
		}
	}
	return last, nil
}

func validateDraw(deckSize, copies, drawn int) error {
	switch {
	case deckSize <= 0:
		return fmt.Errorf("%w: deck size must be positive, got %d", ErrInvalidParameter, deckSize)
	case copies < 0:
		return fmt.Errorf("%w: copies must be non-negative, got %d", ErrInvalidParameter, copies)
	case copies > deckSize:
		return fmt.Errorf("%w: copies (%d) exceed deck size (%d)", ErrInvalidParameter, copies, deckSize)
	case drawn < 0:
		return fmt.Errorf("%w: cards drawn must be non-negative, got %d", ErrInvalidParameter, drawn)
	case drawn > deckSize:
		return fmt.Errorf("%w: cards drawn (%d) exceed deck size (%d)", ErrInvalidParameter, drawn, deckSize)
	}
	return nil
}

// pmf is P(X = k) for X ~ Hypergeometric(N, K, n), zero outside the feasible
// range.
func pmf(deckSize, copies, drawn, k int) float64 {
	if k < 0 || k > copies || drawn-k < 0 || drawn-k > deckSize-copies {
		return 0
	}
	logp := logChoose(copies, k) + logChoose(deckSize-copies, drawn-k) - logChoose(deckSize, drawn)
	return math.Exp(logp)
}

// logChoose is ln C(n, k) via the log-gamma function.
func logChoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	a, _ := math.Lgamma(float64(n) + 1)
	b, _ := math.Lgamma(float64(k) + 1)
	c, _ := math.Lgamma(float64(n-k) + 1)
	return a - b - c
}

func feasibleMin(deckSize, copies, drawn int) int {
	lo := drawn - (deckSize - copies)
	if lo < 0 {
		lo = 0
	}
	return lo
}

func feasibleMax(copies, drawn int) int {
	if copies < drawn {
		return copies
	}
	return drawn
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
