package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/decksim/internal/hypergeom"
)

var (
	// Style definitions
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// OddsCmd computes exact draw odds for one card in the deck
type OddsCmd struct {
	DeckSize int      `kong:"default='60',help='Total cards in the deck'"`
	Copies   int      `kong:"default='4',help='Copies of the card in the deck'"`
	Drawn    int      `kong:"default='7',help='Number of cards drawn'"`
	Need     int      `kong:"default='1',help='Copies needed among the drawn cards'"`
	Turns    int      `kong:"help='Also show the probability by turn up to this turn'"`
	OnPlay   bool     `kong:"help='Turn table assumes playing first'"`
	Target   *float64 `kong:"help='Scan for the fewest copies reaching this probability'"`
	Mulligan bool     `kong:"help='Show the impact of one mulligan'"`
}

func (c *OddsCmd) Run() error {
	res, err := hypergeom.Draw(c.DeckSize, c.Copies, c.Drawn, c.Need)
	if err != nil {
		return err
	}
	mean, err := hypergeom.Mean(c.DeckSize, c.Copies, c.Drawn)
	if err != nil {
		return err
	}
	stdDev, err := hypergeom.StdDev(c.DeckSize, c.Copies, c.Drawn)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", headerStyle.Render(
		fmt.Sprintf("%d copies in %d cards, drawing %d", c.Copies, c.DeckSize, c.Drawn)))
	fmt.Printf("\n")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render(fmt.Sprintf("exactly %d", c.Need)), percent(res.Exactly))
	fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render(fmt.Sprintf("at least %d", c.Need)), percent(res.AtLeast))
	fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render(fmt.Sprintf("at most %d", c.Need)), percent(res.AtMost))
	fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("mean"), valueStyle.Render(fmt.Sprintf("%.2f", mean)))
	fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("std dev"), valueStyle.Render(fmt.Sprintf("%.2f", stdDev)))
	w.Flush()

	fmt.Printf("\n%s\n", headerStyle.Render("distribution"))
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	counts := make([]int, 0, len(res.Distribution))
	for k := range res.Distribution {
		counts = append(counts, k)
	}
	sort.Ints(counts)
	for _, k := range counts {
		fmt.Fprintf(w, "%s\t%s\n", dimStyle.Render(fmt.Sprintf("%d", k)), percent(res.Distribution[k]))
	}
	w.Flush()

	if c.Turns > 0 {
		if err := c.printTurns(); err != nil {
			return err
		}
	}
	if c.Target != nil {
		opt, err := hypergeom.OptimalCopies(c.DeckSize, c.Drawn, *c.Target)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s %s\n",
			labelStyle.Render(fmt.Sprintf("%d copies", opt.Copies)),
			dimStyle.Render(fmt.Sprintf("reach %s (target %s)", percent(opt.Probability), percent(*c.Target))))
	}
	if c.Mulligan {
		impact, err := hypergeom.Mulligan(c.DeckSize, c.Copies, c.Drawn, c.Drawn-1)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n", headerStyle.Render("mulligan"))
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("keep"), percent(impact.Keep))
		fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("after mulligan"), percent(impact.Mulligan))
		fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("either"), percent(impact.Either))
		w.Flush()
	}
	return nil
}

func (c *OddsCmd) printTurns() error {
	fmt.Printf("\n%s\n", headerStyle.Render("by turn"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", headerStyle.Render("turn"), headerStyle.Render("at least"))
	for turn := 0; turn <= c.Turns; turn++ {
		p, err := hypergeom.ByTurn(c.DeckSize, c.Copies, c.Drawn, turn, c.Need, c.OnPlay)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", dimStyle.Render(fmt.Sprintf("%d", turn)), percent(p))
	}
	return w.Flush()
}

func percent(p float64) string {
	return valueStyle.Render(fmt.Sprintf("%.2f%%", p*100))
}
