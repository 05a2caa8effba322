// Package simulator estimates, by repeated independent trials, how often and
// how fast a deck satisfies a success criterion over the opening turns of a
// game, under a configurable mulligan rule.
package simulator

import (
	"context"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/decksim/internal/deck"
	"github.com/lox/decksim/internal/randutil"
	"github.com/lox/decksim/internal/statistics"
)

const (
	// maxWorkers caps the worker pool; past this the merge overhead outweighs
	// the gain for typical iteration counts.
	maxWorkers = 8
	// progressEvery is how many iterations a worker completes between
	// progress reports.
	progressEvery = 1000
)

// ProgressFunc receives periodic totals while a run is in flight. It may be
// called from several workers concurrently and must be safe for that.
type ProgressFunc func(completed, successes int)

// Config holds simulator-level configuration shared across runs.
type Config struct {
	Logger   *log.Logger
	Workers  int
	Progress ProgressFunc
}

// Simulator runs Monte-Carlo deck simulations.
type Simulator struct {
	config Config
}

// New creates a simulator with the given configuration.
func New(config Config) *Simulator {
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	return &Simulator{config: config}
}

// Run validates the request and executes it, partitioning iterations across
// workers. Each iteration owns its own shuffled library and RNG substream
// keyed by (seed, iteration index), so the worker count never changes the
// outcome.
//
// Cancelling the context stops issuing iterations; the aggregates over the
// iterations completed so far are returned with Interrupted set, not an
// error.
func (s *Simulator) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	workers := s.workers(req)

	s.config.Logger.Debug("starting simulation",
		"iterations", req.Iterations,
		"max_turn", req.MaxTurn,
		"deck_size", req.Deck.Size(),
		"mulligan", req.UseMulligan,
		"seed", seed,
		"workers", workers)

	parts := make([]*aggregate, workers)
	var completed, succeeded atomic.Int64

	g, _ := errgroup.WithContext(ctx)
	base := req.Iterations / workers
	rem := req.Iterations % workers
	start := 0
	for w := 0; w < workers; w++ {
		count := base
		if w < rem {
			count++
		}
		lo, hi := start, start+count
		start = hi

		agg := newAggregate()
		parts[w] = agg
		g.Go(func() error {
			sinceReport, successesSince := 0, 0
			for idx := lo; idx < hi; idx++ {
				if ctx.Err() != nil {
					break
				}
				out := runIteration(req, seed, idx)
				agg.add(out)

				sinceReport++
				if out.success {
					successesSince++
				}
				if s.config.Progress != nil && sinceReport >= progressEvery {
					c := completed.Add(int64(sinceReport))
					sc := succeeded.Add(int64(successesSince))
					s.config.Progress(int(c), int(sc))
					sinceReport, successesSince = 0, 0
				}
			}
			if s.config.Progress != nil && sinceReport > 0 {
				c := completed.Add(int64(sinceReport))
				sc := succeeded.Add(int64(successesSince))
				s.config.Progress(int(c), int(sc))
			}
			return nil
		})
	}
	_ = g.Wait() // workers only stop early, they never fail

	merged := newAggregate()
	for _, part := range parts {
		merged.merge(part)
	}

	res := merged.result(req, seed)
	s.config.Logger.Debug("simulation finished",
		"iterations", res.Iterations,
		"successes", res.Successes,
		"interrupted", res.Interrupted)
	return res, nil
}

func (s *Simulator) workers(req Request) int {
	workers := req.Workers
	if workers <= 0 {
		workers = s.config.Workers
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if workers > req.Iterations {
		workers = req.Iterations
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// iterationOutcome is the result of a single simulated game.
type iterationOutcome struct {
	success   bool
	turn      int
	mulligans int
	seen      map[string]bool
}

// runIteration plays out one game: shuffle, mulligan, then draw through the
// turns until the criteria hold or MaxTurn is exhausted. The outcome is a
// pure function of (req, seed, idx).
func runIteration(req Request, seed int64, idx int) iterationOutcome {
	rng := randutil.Substream(seed, idx)
	handSize := req.handSize()

	lib := deck.NewLibrary(req.Deck)
	lib.Shuffle(rng)
	hand := lib.DrawN(handSize)

	mulligans := 0
	if req.UseMulligan {
		// London mulligan: each attempt redraws a full hand from a fresh
		// shuffle; the kept hand then bottoms one card per mulligan taken.
		for mulligans < MaxMulligans && !keepHand(hand, req.Criteria) {
			mulligans++
			lib = deck.NewLibrary(req.Deck)
			lib.Shuffle(rng)
			hand = lib.DrawN(handSize)
		}
		if mulligans > 0 {
			var bottomed []deck.Card
			hand, bottomed = bottomCards(hand, mulligans, req.Criteria)
			lib.Bottom(bottomed...)
		}
	}

	seen := make(map[string]bool, handSize+req.MaxTurn+1)
	lands := 0
	track := func(c deck.Card) {
		seen[c.Name] = true
		if c.IsLand() {
			lands++
		}
	}
	for _, c := range hand {
		track(c)
	}

	// Turn 0 is the kept opening hand.
	if req.Criteria.satisfied(lands, seen) {
		return iterationOutcome{success: true, turn: 0, mulligans: mulligans, seen: seen}
	}
	for turn := 1; turn <= req.MaxTurn; turn++ {
		draws := 1
		if turn == 1 && !req.OnPlay {
			draws = 2
		}
		for i := 0; i < draws; i++ {
			card, ok := lib.Draw()
			if !ok {
				break // ruled out by validation
			}
			track(card)
		}
		if req.Criteria.satisfied(lands, seen) {
			return iterationOutcome{success: true, turn: turn, mulligans: mulligans, seen: seen}
		}
	}
	return iterationOutcome{mulligans: mulligans, seen: seen}
}

// aggregate accumulates per-worker partial results. All fields are integer
// counts, so merging is associative and commutative and the partition cannot
// affect the final numbers.
type aggregate struct {
	iterations int
	successes  int
	turnSum    int
	turnDist   map[int]int
	mullDist   map[int]int
	winCards   map[string]int
}

func newAggregate() *aggregate {
	return &aggregate{
		turnDist: make(map[int]int),
		mullDist: make(map[int]int),
		winCards: make(map[string]int),
	}
}

func (a *aggregate) add(out iterationOutcome) {
	a.iterations++
	a.mullDist[out.mulligans]++
	if !out.success {
		return
	}
	a.successes++
	a.turnSum += out.turn
	a.turnDist[out.turn]++
	for name := range out.seen {
		a.winCards[name]++
	}
}

func (a *aggregate) merge(b *aggregate) {
	a.iterations += b.iterations
	a.successes += b.successes
	a.turnSum += b.turnSum
	statistics.MergeCounts(a.turnDist, b.turnDist)
	statistics.MergeCounts(a.mullDist, b.mullDist)
	statistics.MergeCounts(a.winCards, b.winCards)
}

func (a *aggregate) result(req Request, seed int64) Result {
	res := Result{
		Requested:           req.Iterations,
		Iterations:          a.iterations,
		Successes:           a.successes,
		TurnDistribution:    a.turnDist,
		CardFrequencyInWins: make(map[string]float64, len(a.winCards)),
		MulliganStats:       a.mullDist,
		ConfidenceLevel:     0.95,
		Interrupted:         a.iterations < req.Iterations,
		Seed:                seed,
	}
	if a.iterations > 0 {
		res.SuccessPercentage = 100 * float64(a.successes) / float64(a.iterations)
	}
	if a.successes > 0 {
		avg := float64(a.turnSum) / float64(a.successes)
		res.AverageTurn = &avg
		for name, count := range a.winCards {
			res.CardFrequencyInWins[name] = float64(count) / float64(a.successes)
		}
	}
	res.ConfidenceInterval = statistics.Proportion{Successes: a.successes, Trials: a.iterations}.Wilson()
	return res
}
