package deck

import (
	"fmt"
	rand "math/rand/v2"
)

// Group is one named card together with its copy count.
type Group struct {
	Card  Card
	Count int
}

// Composition is an ordered collection of card groups describing a deck.
// The engine never mutates a Composition; per-game state lives in Library.
type Composition []Group

// Size returns the total number of physical cards in the deck.
func (c Composition) Size() int {
	total := 0
	for _, g := range c {
		total += g.Count
	}
	return total
}

// Copies returns the number of physical copies of the named card.
func (c Composition) Copies(name string) int {
	total := 0
	for _, g := range c {
		if g.Card.Name == name {
			total += g.Count
		}
	}
	return total
}

// Lands returns the total number of land cards in the deck.
func (c Composition) Lands() int {
	total := 0
	for _, g := range c {
		if g.Card.IsLand() {
			total += g.Count
		}
	}
	return total
}

// Validate checks that every group has a name and a non-negative count and
// that the deck is not empty.
func (c Composition) Validate() error {
	for i, g := range c {
		if g.Card.Name == "" {
			return fmt.Errorf("group %d has no card name", i)
		}
		if g.Count < 0 {
			return fmt.Errorf("card %q has negative count %d", g.Card.Name, g.Count)
		}
	}
	if c.Size() == 0 {
		return fmt.Errorf("deck has no cards")
	}
	return nil
}

// Library is the mutable per-game multiset of physical cards. Each simulation
// iteration owns its own Library, so no locking is required.
type Library struct {
	cards []Card
}

// NewLibrary expands a composition into one token per physical copy.
func NewLibrary(c Composition) *Library {
	lib := &Library{cards: make([]Card, 0, c.Size())}
	for _, g := range c {
		for i := 0; i < g.Count; i++ {
			lib.cards = append(lib.cards, g.Card)
		}
	}
	return lib
}

// Shuffle permutes the library in place using Fisher-Yates, uniform over all
// orderings for a uniform source.
func (l *Library) Shuffle(rng *rand.Rand) {
	for i := len(l.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		l.cards[i], l.cards[j] = l.cards[j], l.cards[i]
	}
}

// Draw removes and returns the top card.
func (l *Library) Draw() (Card, bool) {
	if len(l.cards) == 0 {
		return Card{}, false
	}
	card := l.cards[0]
	l.cards = l.cards[1:]
	return card, true
}

// DrawN draws up to n cards from the top.
func (l *Library) DrawN(n int) []Card {
	if n > len(l.cards) {
		n = len(l.cards)
	}
	cards := make([]Card, n)
	for i := 0; i < n; i++ {
		cards[i], _ = l.Draw()
	}
	return cards
}

// Bottom places cards on the bottom of the library in the given order.
func (l *Library) Bottom(cards ...Card) {
	l.cards = append(l.cards, cards...)
}

// Remaining returns the number of cards left.
func (l *Library) Remaining() int {
	return len(l.cards)
}
