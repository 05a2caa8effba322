package simulator

import (
	"errors"
	"fmt"

	"github.com/lox/decksim/internal/deck"
	"github.com/lox/decksim/internal/statistics"
)

// ErrInvalidParameter marks malformed requests. Validation runs before any
// iteration, so a failed request never leaves partial aggregate state behind.
var ErrInvalidParameter = errors.New("invalid parameter")

const (
	// DefaultHandSize is the opening hand size when the request leaves it unset.
	DefaultHandSize = 7
	// MaxMulligans caps the London mulligan loop.
	MaxMulligans = 3
	// MaxIterations bounds a single request.
	MaxIterations = 1_000_000
)

// Criteria is the success condition evaluated against all cards seen so far.
// Fields are explicit rather than an open-ended map so that every combination
// has defined behaviour.
type Criteria struct {
	MinLands *int
	MaxLands *int
	AnyOf    []string
	AllOf    []string
	NoneOf   []string
}

// IsZero reports whether no condition is set.
func (c Criteria) IsZero() bool {
	return c.MinLands == nil && c.MaxLands == nil &&
		len(c.AnyOf) == 0 && len(c.AllOf) == 0 && len(c.NoneOf) == 0
}

// names returns every card name the criteria reference.
func (c Criteria) names() []string {
	names := make([]string, 0, len(c.AnyOf)+len(c.AllOf)+len(c.NoneOf))
	names = append(names, c.AnyOf...)
	names = append(names, c.AllOf...)
	names = append(names, c.NoneOf...)
	return names
}

// satisfied evaluates the criteria against the accumulated game state.
func (c Criteria) satisfied(lands int, seen map[string]bool) bool {
	if c.MinLands != nil && lands < *c.MinLands {
		return false
	}
	if c.MaxLands != nil && lands > *c.MaxLands {
		return false
	}
	if len(c.AnyOf) > 0 {
		found := false
		for _, name := range c.AnyOf {
			if seen[name] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, name := range c.AllOf {
		if !seen[name] {
			return false
		}
	}
	for _, name := range c.NoneOf {
		if seen[name] {
			return false
		}
	}
	return true
}

// Request describes one simulation run. The deck is read, never mutated.
type Request struct {
	Deck        deck.Composition
	Iterations  int
	MaxTurn     int
	Criteria    Criteria
	UseMulligan bool
	HandSize    int // 0 means DefaultHandSize
	OnPlay      bool
	Seed        *int64 // nil means derive from the clock
	Workers     int    // 0 means the simulator default
}

func (r Request) handSize() int {
	if r.HandSize == 0 {
		return DefaultHandSize
	}
	return r.HandSize
}

// cardsSeen is the number of cards a full-length iteration reveals.
func (r Request) cardsSeen() int {
	seen := r.handSize() + r.MaxTurn
	if !r.OnPlay && r.MaxTurn >= 1 {
		seen++ // extra draw on turn one when on the draw
	}
	return seen
}

func (r Request) validate() error {
	if err := r.Deck.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if r.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidParameter, r.Iterations)
	}
	if r.Iterations > MaxIterations {
		return fmt.Errorf("%w: iterations %d exceed the limit of %d", ErrInvalidParameter, r.Iterations, MaxIterations)
	}
	if r.MaxTurn < 0 {
		return fmt.Errorf("%w: max turn must be non-negative, got %d", ErrInvalidParameter, r.MaxTurn)
	}
	if r.HandSize < 0 {
		return fmt.Errorf("%w: hand size must be non-negative, got %d", ErrInvalidParameter, r.HandSize)
	}
	deckSize := r.Deck.Size()
	if r.handSize() > deckSize {
		return fmt.Errorf("%w: hand size %d exceeds deck size %d", ErrInvalidParameter, r.handSize(), deckSize)
	}
	if r.cardsSeen() > deckSize {
		return fmt.Errorf("%w: %d turns would draw %d cards from a %d card deck",
			ErrInvalidParameter, r.MaxTurn, r.cardsSeen(), deckSize)
	}
	if r.Criteria.IsZero() {
		return fmt.Errorf("%w: criteria must set at least one condition", ErrInvalidParameter)
	}
	if r.Criteria.MinLands != nil && *r.Criteria.MinLands < 0 {
		return fmt.Errorf("%w: min lands must be non-negative", ErrInvalidParameter)
	}
	if r.Criteria.MaxLands != nil && *r.Criteria.MaxLands < 0 {
		return fmt.Errorf("%w: max lands must be non-negative", ErrInvalidParameter)
	}
	if r.Criteria.MinLands != nil && r.Criteria.MaxLands != nil && *r.Criteria.MinLands > *r.Criteria.MaxLands {
		return fmt.Errorf("%w: min lands %d exceeds max lands %d",
			ErrInvalidParameter, *r.Criteria.MinLands, *r.Criteria.MaxLands)
	}
	// A named card that is not in the deck at all is almost certainly a
	// caller mistake; report it rather than silently never (or always)
	// matching.
	for _, name := range r.Criteria.names() {
		if r.Deck.Copies(name) == 0 {
			return fmt.Errorf("%w: criteria reference %q which is not in the deck", ErrInvalidParameter, name)
		}
	}
	return nil
}

// Result is the aggregate outcome of a simulation run. When the run was
// cancelled, Interrupted is set and Iterations reflects the work actually
// completed rather than the request.
type Result struct {
	Requested           int
	Iterations          int
	Successes           int
	SuccessPercentage   float64
	AverageTurn         *float64 // nil when there were no successes
	TurnDistribution    map[int]int
	CardFrequencyInWins map[string]float64
	MulliganStats       map[int]int
	ConfidenceLevel     float64
	ConfidenceInterval  statistics.Interval
	Interrupted         bool
	Seed                int64
}
