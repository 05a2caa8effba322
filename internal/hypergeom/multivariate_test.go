package hypergeom

import (
	"errors"
	"math"
	"testing"
)

func TestJoint_TwoSingletons(t *testing.T) {
	// Two singleton combo pieces in a 99 card deck, 10 cards seen. The closed
	// form is (10*9)/(99*98).
	p, err := Joint(99, []int{1, 1}, 10, []int{1, 1})
	if err != nil {
		t.Fatalf("Joint() error: %v", err)
	}
	want := (10.0 * 9.0) / (99.0 * 98.0)
	if !almostEqual(p, want, tolerance) {
		t.Errorf("Joint = %v, want %v", p, want)
	}

	// Needing both pieces must be strictly harder than needing either alone.
	single, err := Draw(99, 1, 10, 1)
	if err != nil {
		t.Fatalf("Draw() error: %v", err)
	}
	if !(p > 0 && p < single.AtLeast) {
		t.Errorf("Joint = %v, want strictly between 0 and %v", p, single.AtLeast)
	}
}

func TestJoint_SingleBucketMatchesDraw(t *testing.T) {
	// With one bucket, Joint degenerates to the single-card AtLeast.
	p, err := Joint(60, []int{4}, 7, []int{1})
	if err != nil {
		t.Fatalf("Joint() error: %v", err)
	}
	res, err := Draw(60, 4, 7, 1)
	if err != nil {
		t.Fatalf("Draw() error: %v", err)
	}
	if !almostEqual(p, res.AtLeast, tolerance) {
		t.Errorf("Joint single bucket = %v, Draw.AtLeast = %v", p, res.AtLeast)
	}
}

func TestJoint_NoThresholdsIsCertain(t *testing.T) {
	p, err := Joint(60, []int{4, 4}, 7, []int{0, 0})
	if err != nil {
		t.Fatalf("Joint() error: %v", err)
	}
	if !almostEqual(p, 1.0, tolerance) {
		t.Errorf("Joint with zero thresholds = %v, want 1", p)
	}
}

func TestJoint_ImpossibleThreshold(t *testing.T) {
	// Needing more copies than exist is a zero-probability outcome, not an
	// error.
	p, err := Joint(60, []int{2, 4}, 7, []int{3, 1})
	if err != nil {
		t.Fatalf("Joint() error: %v", err)
	}
	if p != 0 {
		t.Errorf("Joint impossible threshold = %v, want 0", p)
	}

	// More required cards than cards drawn.
	p, err = Joint(60, []int{4, 4, 4}, 2, []int{1, 1, 1})
	if err != nil {
		t.Fatalf("Joint() error: %v", err)
	}
	if p != 0 {
		t.Errorf("Joint with drawn < total needed = %v, want 0", p)
	}
}

func TestJoint_LandsAndSpells(t *testing.T) {
	// Buckets covering the whole deck: 24 lands and 36 spells, wanting at
	// least 2 of each in the opening hand.
	p, err := Joint(60, []int{24, 36}, 7, []int{2, 2})
	if err != nil {
		t.Fatalf("Joint() error: %v", err)
	}
	if p <= 0 || p >= 1 {
		t.Fatalf("Joint = %v, want in (0, 1)", p)
	}

	// Cross-check by summing the land distribution over 2..5 lands (2+ lands
	// with 2+ spells in a 7 card hand means 2..5 lands).
	res, err := Draw(60, 24, 7, 0)
	if err != nil {
		t.Fatalf("Draw() error: %v", err)
	}
	want := 0.0
	for k := 2; k <= 5; k++ {
		want += res.Distribution[k]
	}
	if !almostEqual(p, want, 1e-9) {
		t.Errorf("Joint = %v, marginal cross-check = %v", p, want)
	}
}

func TestJoint_InvalidParameters(t *testing.T) {
	tests := []struct {
		name     string
		deckSize int
		counts   []int
		drawn    int
		needed   []int
	}{
		{"zero deck", 0, []int{1}, 1, []int{1}},
		{"counts exceed deck", 10, []int{6, 6}, 3, []int{1, 1}},
		{"length mismatch", 60, []int{4, 4}, 7, []int{1}},
		{"negative count", 60, []int{-1}, 7, []int{1}},
		{"negative threshold", 60, []int{4}, 7, []int{-1}},
		{"drawn exceeds deck", 60, []int{4}, 61, []int{1}},
		{"negative drawn", 60, []int{4}, -1, []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Joint(tt.deckSize, tt.counts, tt.drawn, tt.needed)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("Joint() error = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestJoint_StaysFinite(t *testing.T) {
	p, err := Joint(300, []int{40, 60, 30}, 50, []int{1, 2, 1})
	if err != nil {
		t.Fatalf("Joint() error: %v", err)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
		t.Errorf("Joint = %v, want a probability", p)
	}
}
