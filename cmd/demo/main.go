package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/daniacca/achemsim/internal/achem"
)

// stdoutLogger prints core log lines so the scenarios show reactions and splits.
type stdoutLogger struct{}

func (stdoutLogger) Debugf(format string, v ...any) { fmt.Printf("  debug: "+format+"\n", v...) }
func (stdoutLogger) Infof(format string, v ...any)  { fmt.Printf("  info: "+format+"\n", v...) }
func (stdoutLogger) Warnf(format string, v ...any)  { fmt.Printf("  warn: "+format+"\n", v...) }
func (stdoutLogger) Errorf(format string, v ...any) { fmt.Printf("  error: "+format+"\n", v...) }

type scenario struct {
	name string
	run  func(achem.Logger) error
}

var scenarios = []scenario{
	{"bounce", runBounce},
	{"merge", runMerge},
	{"fission", runFission},
}

func main() {
	only := flag.String("scenario", "", "run a single scenario (bounce, merge, fission)")
	flag.Parse()

	ran := 0
	for _, sc := range scenarios {
		if *only != "" && *only != sc.name {
			continue
		}
		ran++
		fmt.Printf("== %s ==\n", sc.name)
		if err := sc.run(achem.WithPrefix(stdoutLogger{}, sc.name)); err != nil {
			fmt.Fprintf(os.Stderr, "scenario %s failed: %v\n", sc.name, err)
			os.Exit(1)
		}
	}
	if ran == 0 {
		fmt.Fprintf(os.Stderr, "unknown scenario %q\n", *only)
		os.Exit(1)
	}
}

// newWorld creates a seeded 100x100 world.
func newWorld(id achem.WorldID, rules achem.RuleBook, logger achem.Logger) (*achem.World, error) {
	w, err := achem.NewWorld(100, 100, 10, rules)
	if err != nil {
		return nil, err
	}
	w.SetWorldID(id)
	w.SetRandom(achem.NewRandom(1))
	w.SetLogger(logger)
	return w, nil
}

// printEnergy reports totals over admitted bodies. Callers settle the world
// with Simulate(0) first so fresh products are counted.
func printEnergy(label string, w *achem.World) {
	kinetic, internal := w.TotalEnergy()
	p := w.Momentum()
	fmt.Printf("%-7s tick=%-3d bodies=%-2d kinetic=%8.3f internal=%8.3f total=%8.3f momentum=(%.3f, %.3f)\n",
		label, w.Tick(), len(w.Bodies()), kinetic, internal, kinetic+internal, p.X, p.Y)
}
