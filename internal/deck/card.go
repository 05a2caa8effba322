package deck

import "strings"

// Card represents one trading card. Cards are compared by name; a deck holds
// several physical copies of the same Card value.
type Card struct {
	Name      string
	ManaValue int
	Types     []string
	Land      bool
}

// IsLand reports whether the card counts as a land for criteria purposes.
// The explicit flag wins; otherwise the type line is consulted.
func (c Card) IsLand() bool {
	if c.Land {
		return true
	}
	return c.HasType("Land")
}

// HasType reports whether the card's type line contains the given type,
// case-insensitively.
func (c Card) HasType(t string) bool {
	for _, ct := range c.Types {
		if strings.EqualFold(ct, t) {
			return true
		}
	}
	return false
}

func (c Card) String() string {
	return c.Name
}
