package main

import (
	"fmt"

	"github.com/lox/decksim/internal/hypergeom"
)

// ComboCmd computes the joint odds of drawing several different cards
type ComboCmd struct {
	DeckSize int   `kong:"default='60',help='Total cards in the deck'"`
	Counts   []int `kong:"required,help='Copies of each card in the deck (repeatable)'"`
	Drawn    int   `kong:"default='7',help='Number of cards drawn'"`
	Need     []int `kong:"required,help='Copies needed of each card (repeatable, same order as --counts)'"`
}

func (c *ComboCmd) Run() error {
	p, err := hypergeom.Joint(c.DeckSize, c.Counts, c.Drawn, c.Need)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", headerStyle.Render(
		fmt.Sprintf("drawing %d from %d cards", c.Drawn, c.DeckSize)))
	for i := range c.Counts {
		fmt.Printf("%s\n", dimStyle.Render(
			fmt.Sprintf("  need %d of a %d-of", c.Need[i], c.Counts[i])))
	}
	fmt.Printf("\n%s %s\n", labelStyle.Render("probability"), percent(p))
	return nil
}
