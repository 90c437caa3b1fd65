package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/daniacca/achemsim/internal/achem"
)

type options struct {
	rulesFile   string
	tablesDir   string
	ticks       int
	width       float64
	height      float64
	cellSize    float64
	dt          float64
	density     float64
	species     string
	seed        string
	snapshotOut string
}

func main() {
	var opts options
	flag.StringVar(&opts.rulesFile, "rules-file", "", "path to rules JSON file")
	flag.StringVar(&opts.tablesDir, "tables-dir", "", "directory with particles.csv, reactions.csv and fissions.csv")
	flag.IntVar(&opts.ticks, "ticks", 1000, "number of ticks to run")
	flag.Float64Var(&opts.width, "width", achem.DefaultWidth, "world width")
	flag.Float64Var(&opts.height, "height", achem.DefaultHeight, "world height")
	flag.Float64Var(&opts.cellSize, "cell-size", achem.DefaultCellSize, "spatial grid cell size")
	flag.Float64Var(&opts.dt, "dt", achem.DefaultTimeStep, "time step per tick")
	flag.Float64Var(&opts.density, "density", achem.DefaultDensity, "initial particles per square unit")
	flag.StringVar(&opts.species, "species", "", "comma separated species to populate with (default: all but energy)")
	flag.StringVar(&opts.seed, "seed", "", "random seed; empty seeds from the clock")
	flag.StringVar(&opts.snapshotOut, "snapshot-out", "", "write the final snapshot here (.msgpack for MessagePack, JSON otherwise)")
	flag.Parse()

	if opts.rulesFile == "" && opts.tablesDir == "" {
		fmt.Fprintf(os.Stderr, "error: one of --rules-file or --tables-dir is required\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	rules, err := loadRules(opts)
	if err != nil {
		return err
	}

	cfg := achem.WorldConfig{
		Width:    opts.width,
		Height:   opts.height,
		CellSize: opts.cellSize,
		TimeStep: opts.dt,
	}
	if opts.seed != "" {
		s, err := strconv.ParseUint(opts.seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed %q: %w", opts.seed, err)
		}
		cfg.Seed = &s
	}

	manager := achem.NewWorldManager()
	world, err := manager.CreateWorld("simulation", cfg, rules)
	if err != nil {
		return fmt.Errorf("creating world: %w", err)
	}

	pop := achem.DefaultPopulationConfig()
	pop.Density = opts.density
	if opts.species != "" {
		for _, s := range strings.Split(opts.species, ",") {
			pop.Species = append(pop.Species, achem.SpeciesName(strings.TrimSpace(s)))
		}
	}
	spawned, err := world.Populate(pop)
	if err != nil {
		return fmt.Errorf("populating world: %w", err)
	}

	before := world.Snapshot()
	stats := world.Step(opts.ticks)
	after := world.Snapshot()

	printSummary(rules.Name, spawned, before, after, stats)

	if opts.snapshotOut != "" {
		if err := writeSnapshot(opts.snapshotOut, after); err != nil {
			return err
		}
		fmt.Printf("Snapshot written to %s\n", opts.snapshotOut)
	}
	return nil
}

func loadRules(opts options) (*achem.Rules, error) {
	if opts.rulesFile != "" {
		rules, err := achem.LoadRulesFile(opts.rulesFile)
		if err != nil {
			return nil, fmt.Errorf("loading rules: %w", err)
		}
		return rules, nil
	}
	rules, err := achem.LoadRulesDir(opts.tablesDir)
	if err != nil {
		return nil, fmt.Errorf("loading rule tables: %w", err)
	}
	return rules, nil
}

func writeSnapshot(path string, snap achem.Snapshot) error {
	var data []byte
	var err error
	if filepath.Ext(path) == ".msgpack" {
		data, err = achem.EncodeSnapshotMsgpack(snap)
	} else {
		data, err = achem.EncodeSnapshotJSON(snap)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func speciesCounts(snap achem.Snapshot) map[achem.SpeciesName]int {
	counts := make(map[achem.SpeciesName]int)
	for _, b := range snap.Bodies {
		if b.Species != "" {
			counts[b.Species]++
		}
	}
	return counts
}

func printSummary(rulesName string, spawned int, before, after achem.Snapshot, stats achem.Stats) {
	fmt.Printf("Simulation finished (rules=%s, ticks=%d, spawned=%d)\n", rulesName, stats.Ticks, spawned)

	counts := speciesCounts(after)
	species := make([]achem.SpeciesName, 0, len(counts))
	for s := range counts {
		species = append(species, s)
	}
	slices.Sort(species)

	fmt.Println("Species counts:")
	for _, s := range species {
		fmt.Printf("  %s: %d\n", s, counts[s])
	}

	fmt.Println("Energy:")
	fmt.Printf("  before: kinetic=%.3f internal=%.3f total=%.3f\n", before.Kinetic, before.Internal, before.Kinetic+before.Internal)
	fmt.Printf("  after:  kinetic=%.3f internal=%.3f total=%.3f\n", after.Kinetic, after.Internal, after.Kinetic+after.Internal)

	fmt.Println("Events:")
	fmt.Printf("  collisions: %d\n", stats.Collisions)
	fmt.Printf("  wall bounces: %d\n", stats.WallBounces)
	fmt.Printf("  reactions: %d\n", stats.Reactions)
	fmt.Printf("  energy fissions: %d\n", stats.EnergyFissions)
	fmt.Printf("  collision fissions: %d\n", stats.CollisionFissions)
}
