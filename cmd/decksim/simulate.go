package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/decksim/cmd/decksim/shared"
	"github.com/lox/decksim/internal/deck"
	"github.com/lox/decksim/internal/simulator"
)

// SimulateCmd runs a Monte Carlo simulation described by an HCL scenario file
type SimulateCmd struct {
	Scenario   string `kong:"arg,help='Path to the scenario HCL file'"`
	Iterations int    `kong:"help='Override the iteration count from the scenario'"`
	Seed       *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	Workers    int    `kong:"help='Worker count, defaults to the CPU count'"`
	Debug      bool   `kong:"help='Enable debug logging'"`
	Quiet      bool   `kong:"short='q',help='Suppress the progress dots'"`
}

type scenarioFile struct {
	Deck       scenarioDeck        `hcl:"deck,block"`
	Criteria   scenarioCriteria    `hcl:"criteria,block"`
	Simulation *scenarioSimulation `hcl:"simulation,block"`
}

type scenarioDeck struct {
	Cards []scenarioCard `hcl:"card,block"`
}

type scenarioCard struct {
	Name      string   `hcl:"name,label"`
	Count     int      `hcl:"count"`
	ManaValue int      `hcl:"mana_value,optional"`
	Types     []string `hcl:"types,optional"`
	Land      bool     `hcl:"land,optional"`
}

type scenarioCriteria struct {
	MinLands *int     `hcl:"min_lands,optional"`
	MaxLands *int     `hcl:"max_lands,optional"`
	AnyOf    []string `hcl:"any_of,optional"`
	AllOf    []string `hcl:"all_of,optional"`
	NoneOf   []string `hcl:"none_of,optional"`
}

type scenarioSimulation struct {
	Iterations int  `hcl:"iterations,optional"`
	MaxTurn    int  `hcl:"max_turn,optional"`
	Mulligan   bool `hcl:"mulligan,optional"`
	OnPlay     bool `hcl:"on_play,optional"`
	HandSize   int  `hcl:"hand_size,optional"`
}

func loadScenario(filename string) (*scenarioFile, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scenario: %s", diags.Error())
	}

	var scenario scenarioFile
	diags = gohcl.DecodeBody(file.Body, nil, &scenario)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode scenario: %s", diags.Error())
	}
	if scenario.Simulation == nil {
		scenario.Simulation = &scenarioSimulation{}
	}
	if scenario.Simulation.Iterations == 0 {
		scenario.Simulation.Iterations = 100_000
	}
	if scenario.Simulation.MaxTurn == 0 {
		scenario.Simulation.MaxTurn = 3
	}
	return &scenario, nil
}

func (c *SimulateCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)

	scenario, err := loadScenario(c.Scenario)
	if err != nil {
		return err
	}

	comp := make(deck.Composition, 0, len(scenario.Deck.Cards))
	for _, card := range scenario.Deck.Cards {
		comp = append(comp, deck.Group{
			Card: deck.Card{
				Name:      card.Name,
				ManaValue: card.ManaValue,
				Types:     card.Types,
				Land:      card.Land,
			},
			Count: card.Count,
		})
	}

	req := simulator.Request{
		Deck:       comp,
		Iterations: scenario.Simulation.Iterations,
		MaxTurn:    scenario.Simulation.MaxTurn,
		Criteria: simulator.Criteria{
			MinLands: scenario.Criteria.MinLands,
			MaxLands: scenario.Criteria.MaxLands,
			AnyOf:    scenario.Criteria.AnyOf,
			AllOf:    scenario.Criteria.AllOf,
			NoneOf:   scenario.Criteria.NoneOf,
		},
		UseMulligan: scenario.Simulation.Mulligan,
		HandSize:    scenario.Simulation.HandSize,
		OnPlay:      scenario.Simulation.OnPlay,
		Seed:        c.Seed,
		Workers:     c.Workers,
	}
	if c.Iterations > 0 {
		req.Iterations = c.Iterations
	}

	cfg := simulator.Config{Logger: logger}
	var progress *dotProgress
	if !c.Quiet {
		progress = newDotProgress(req.Iterations)
		cfg.Progress = progress.Update
	}

	ctx := shared.SetupSignalHandlerWithLogger(logger)
	res, err := simulator.New(cfg).Run(ctx, req)
	if err != nil {
		return err
	}
	if progress != nil {
		progress.Finish(res.Iterations)
	}

	printSummary(res, req)
	return nil
}

func printSummary(res simulator.Result, req simulator.Request) {
	fmt.Printf("\n%s\n", headerStyle.Render("results"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("iterations"),
		valueStyle.Render(fmt.Sprintf("%d", res.Iterations)))
	fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("successes"),
		valueStyle.Render(fmt.Sprintf("%d", res.Successes)))
	fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("success rate"),
		valueStyle.Render(fmt.Sprintf("%.2f%%", res.SuccessPercentage)))
	fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("95%% interval"),
		dimStyle.Render(fmt.Sprintf("%.2f%% to %.2f%%",
			res.ConfidenceInterval.Lower*100, res.ConfidenceInterval.Upper*100)))
	if res.AverageTurn != nil {
		fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("average turn"),
			valueStyle.Render(fmt.Sprintf("%.2f", *res.AverageTurn)))
	}
	fmt.Fprintf(w, "%s\t%s\n", labelStyle.Render("seed"),
		dimStyle.Render(fmt.Sprintf("%d", res.Seed)))
	w.Flush()

	if len(res.TurnDistribution) > 0 {
		fmt.Printf("\n%s\n", headerStyle.Render("success by turn"))
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		turns := make([]int, 0, len(res.TurnDistribution))
		for turn := range res.TurnDistribution {
			turns = append(turns, turn)
		}
		sort.Ints(turns)
		for _, turn := range turns {
			count := res.TurnDistribution[turn]
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				dimStyle.Render(fmt.Sprintf("turn %d", turn)),
				valueStyle.Render(fmt.Sprintf("%d", count)),
				dimStyle.Render(fmt.Sprintf("%.2f%%", float64(count)/float64(res.Iterations)*100)))
		}
		w.Flush()
	}

	if req.UseMulligan && len(res.MulliganStats) > 0 {
		fmt.Printf("\n%s\n", headerStyle.Render("mulligans"))
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		taken := make([]int, 0, len(res.MulliganStats))
		for n := range res.MulliganStats {
			taken = append(taken, n)
		}
		sort.Ints(taken)
		for _, n := range taken {
			fmt.Fprintf(w, "%s\t%s\n",
				dimStyle.Render(fmt.Sprintf("%d", n)),
				valueStyle.Render(fmt.Sprintf("%d", res.MulliganStats[n])))
		}
		w.Flush()
	}

	if len(res.CardFrequencyInWins) > 0 {
		fmt.Printf("\n%s\n", headerStyle.Render("card frequency in wins"))
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		names := make([]string, 0, len(res.CardFrequencyInWins))
		for name := range res.CardFrequencyInWins {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			fi, fj := res.CardFrequencyInWins[names[i]], res.CardFrequencyInWins[names[j]]
			if fi != fj {
				return fi > fj
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			fmt.Fprintf(w, "%s\t%s\n",
				labelStyle.Render(name),
				valueStyle.Render(fmt.Sprintf("%.1f%%", res.CardFrequencyInWins[name]*100)))
		}
		w.Flush()
	}

	if res.Interrupted {
		fmt.Printf("\n%s\n", dimStyle.Render(
			fmt.Sprintf("interrupted after %d of %d iterations", res.Iterations, res.Requested)))
	}
}
