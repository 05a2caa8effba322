// Package statistics provides the small amount of shared statistical
// machinery the simulator needs: confidence intervals for Bernoulli
// proportions and associative merges for count histograms.
package statistics

import "math"

// z95 is the two-sided standard normal quantile for 95% confidence.
const z95 = 1.959963984540054

// Proportion is an observed success count out of a number of trials.
type Proportion struct {
	Successes int
	Trials    int
}

// Interval is a confidence interval for a proportion, clipped to [0, 1].
type Interval struct {
	Lower float64
	Upper float64
}

// P returns the point estimate successes/trials, 0 for no trials.
func (p Proportion) P() float64 {
	if p.Trials == 0 {
		return 0
	}
	return float64(p.Successes) / float64(p.Trials)
}

// Wald returns the normal-approximation interval p ± z·sqrt(p(1-p)/n) at 95%
// confidence. It degenerates at extreme p̂ or tiny n; prefer Wilson there.
func (p Proportion) Wald() Interval {
	if p.Trials == 0 {
		return Interval{}
	}
	est := p.P()
	margin := z95 * math.Sqrt(est*(1-est)/float64(p.Trials))
	return Interval{
		Lower: clip01(est - margin),
		Upper: clip01(est + margin),
	}
}

// Wilson returns the Wilson score interval at 95% confidence. Unlike Wald it
// behaves sensibly for small trial counts and proportions near 0 or 1.
func (p Proportion) Wilson() Interval {
	if p.Trials == 0 {
		return Interval{}
	}
	n := float64(p.Trials)
	est := p.P()
	z2 := z95 * z95

	denom := 1 + z2/n
	center := (est + z2/(2*n)) / denom
	margin := z95 * math.Sqrt((est*(1-est)+z2/(4*n))/n) / denom
	return Interval{
		Lower: clip01(center - margin),
		Upper: clip01(center + margin),
	}
}

// Contains reports whether the interval covers the given value.
func (i Interval) Contains(v float64) bool {
	return v >= i.Lower && v <= i.Upper
}

// MergeCounts adds src's counts into dst. The merge is associative and
// commutative, so partial histograms from parallel workers can be combined in
// any order.
func MergeCounts[K comparable](dst, src map[K]int) {
	for k, v := range src {
		dst[k] += v
	}
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
