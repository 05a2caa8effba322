package simulator

import "github.com/lox/decksim/internal/deck"

// Default land bounds for the keep heuristic when the criteria leave them
// unset.
const (
	defaultKeepMinLands = 2
	defaultKeepMaxLands = 5
)

// keepHand is the default mulligan policy. A hand is kept when its land count
// sits inside the criteria's land bounds, or when it holds at least one land
// together with a card the criteria name.
func keepHand(hand []deck.Card, c Criteria) bool {
	minLands := defaultKeepMinLands
	if c.MinLands != nil {
		minLands = *c.MinLands
	}
	maxLands := defaultKeepMaxLands
	if c.MaxLands != nil {
		maxLands = *c.MaxLands
	}

	lands := 0
	for _, card := range hand {
		if card.IsLand() {
			lands++
		}
	}
	if lands >= minLands && lands <= maxLands {
		return true
	}

	if lands >= 1 {
		wanted := make(map[string]bool, len(c.AnyOf)+len(c.AllOf))
		for _, name := range c.AnyOf {
			wanted[name] = true
		}
		for _, name := range c.AllOf {
			wanted[name] = true
		}
		for _, card := range hand {
			if wanted[card.Name] {
				return true
			}
		}
	}
	return false
}

// bottomCards removes n cards from the hand under London mulligan rules,
// returning the kept hand and the bottomed cards. The policy keeps cards the
// criteria name, then enough lands to stay at the keep minimum, and bottoms
// spare spells before spare lands. Bottoming uses no randomness.
func bottomCards(hand []deck.Card, n int, c Criteria) (kept, bottomed []deck.Card) {
	if n <= 0 {
		return hand, nil
	}
	if n >= len(hand) {
		return nil, hand
	}

	wanted := make(map[string]bool, len(c.AnyOf)+len(c.AllOf))
	for _, name := range c.AnyOf {
		wanted[name] = true
	}
	for _, name := range c.AllOf {
		wanted[name] = true
	}
	minLands := defaultKeepMinLands
	if c.MinLands != nil {
		minLands = *c.MinLands
	}

	kept = append([]deck.Card(nil), hand...)
	for len(bottomed) < n {
		lands := 0
		for _, card := range kept {
			if card.IsLand() {
				lands++
			}
		}

		idx := -1
		// Spare spell first, then spare land, then whatever is last.
		for i := len(kept) - 1; i >= 0; i-- {
			if !kept[i].IsLand() && !wanted[kept[i].Name] {
				idx = i
				break
			}
		}
		if idx < 0 && lands > minLands {
			for i := len(kept) - 1; i >= 0; i-- {
				if kept[i].IsLand() {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			idx = len(kept) - 1
		}

		bottomed = append(bottomed, kept[idx])
		kept = append(kept[:idx], kept[idx+1:]...)
	}
	return kept, bottomed
}
