// Package main - scenario-runner
// Headless balancing tool: runs one biome for N turns with a fixed seed and
// prints the per-turn ledger, so tuning changes can be compared run to run.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"text/tabwriter"

	"github.com/averdou/broodvale/server/internal/domain/biome"
	"github.com/averdou/broodvale/server/internal/engine"
	"github.com/averdou/broodvale/server/internal/events"
	"github.com/averdou/broodvale/server/internal/platform/config"
	"github.com/averdou/broodvale/server/internal/platform/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional YAML config for simulation tuning")
		tiles      = flag.Int("tiles", 10, "number of resource tiles")
		turns      = flag.Int("turns", 50, "number of turns to simulate")
		rate       = flag.Int("rate", 5, "harvest units requested per turn")
		strategyIn = flag.String("strategy", "realistic", "harvest strategy: preservation|realistic|abusive")
		seed       = flag.Int64("seed", 1, "random seed (runs with the same seed are identical)")
		eggs       = flag.Int("eggs", 0, "eggs seeded at creation")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	strategy, err := biome.ParseStrategy(*strategyIn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	b, err := biome.New("SCENARIO", "Scenario", *tiles, strategy, cfg.Simulation.MaxLushness)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *eggs > 0 {
		b.SeedEggs(*eggs)
	}

	rng := rand.New(rand.NewSource(*seed))
	sim := engine.NewSimulator(cfg.Simulation, rng, events.NewEventLog(nil), logger.NewLogger())

	fmt.Printf("BROODVALE SCENARIO — %d tiles, strategy %s, rate %d, seed %d\n\n", *tiles, strategy, *rate, *seed)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "turn\tbase\tboost\tlushness\tresources\tregen\tharvested\teggs\tegg total")

	for i := 0; i < *turns; i++ {
		rec, err := sim.SimulateTurn(b, *rate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "turn %d: %v\n", i+1, err)
			os.Exit(1)
		}
		fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%d\t%d\n",
			rec.Turn, rec.BaseLushness, rec.LushnessBoost, rec.Lushness,
			rec.ResourceTotal, rec.Regenerated, rec.Harvested, rec.EggsProduced, rec.EggCount)
	}
	w.Flush()

	fmt.Printf("\nSUMMARY\n")
	fmt.Printf("  total harvested: %.2f\n", b.TotalHarvested)
	fmt.Printf("  resources left:  %.2f across %d active tiles\n", b.ResourceTotal(), b.ActiveCount())
	fmt.Printf("  eggs:            %d\n", b.EggCount)
	fmt.Printf("  final lushness:  %.2f (base %.2f + boost %.2f)\n", b.Lushness, b.BaseLushness, b.LushnessBoost)

	if b.ActiveCount() == 0 {
		fmt.Println("  biome fully depleted")
		os.Exit(2)
	}
}
