package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/daniacca/metaspace/internal/space"
)

func main() {
	var (
		configFile = flag.String("config", "", "path to space config JSON file (required)")
		stockFile  = flag.String("stock", "", "path to extra seed stock JSON file (optional)")
		events     = flag.Int("events", 100, "number of discrete events to process")
		duration   = flag.String("duration", "", "virtual duration to simulate (overrides -events, e.g. 10s)")
		verbose    = flag.Bool("v", false, "log every transition and emitted message")
	)
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintf(os.Stderr, "error: -config is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := loadSpaceConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	s, err := space.BuildSpaceFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error building space: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		s.SetLogger(&stderrLogger{})
	}

	runner := space.NewRunner(s)

	if *stockFile != "" {
		seed, err := loadSeedStock(*stockFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading seed stock: %v\n", err)
			os.Exit(1)
		}
		if err := runner.InjectAt(0, space.NewStockMessage("seed", seed)); err != nil {
			fmt.Fprintf(os.Stderr, "error injecting seed stock: %v\n", err)
			os.Exit(1)
		}
	}

	emitted := 0
	runner.OnStep(func(info space.StepInfo) {
		for _, ch := range info.Output.Channels() {
			emitted += len(info.Output[ch])
			if *verbose {
				for _, m := range info.Output[ch] {
					log.Printf("t=%v channel=%d rid=%s direction=%s amount=%d", info.At, ch, m.ReactionID, m.Direction, m.Amount)
				}
			}
		}
	})

	ran := 0
	if *duration != "" {
		until, err := time.ParseDuration(*duration)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error parsing -duration: %v\n", err)
			os.Exit(1)
		}
		ran = runner.RunUntil(until)
	} else {
		ran = runner.Run(*events)
	}

	printSummary(cfg.ID, ran, emitted, runner)
}

func loadSpaceConfig(path string) (space.SpaceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return space.SpaceConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg space.SpaceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return space.SpaceConfig{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	if err := space.ValidateSpaceConfig(cfg); err != nil {
		return space.SpaceConfig{}, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadSeedStock(path string) (space.Stock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed stock file: %w", err)
	}

	var amounts map[string]int
	if err := json.Unmarshal(data, &amounts); err != nil {
		return nil, fmt.Errorf("parsing seed stock JSON: %w", err)
	}

	seed := make(space.Stock, len(amounts))
	for name, amount := range amounts {
		if amount < 0 {
			return nil, fmt.Errorf("seed stock %s has negative amount %d", name, amount)
		}
		seed[space.SpeciesName(name)] = amount
	}
	return seed, nil
}

func printSummary(spaceID string, ran, emitted int, runner *space.Runner) {
	stock := runner.Space().Stock()

	fmt.Printf("Simulation finished (space=%s, events=%d, messages=%d, clock=%v)\n", spaceID, ran, emitted, runner.Clock())
	fmt.Println("Final stock:")

	names := make([]string, 0, len(stock))
	for name := range stock {
		names = append(names, string(name))
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("  %s: %d\n", name, stock[space.SpeciesName(name)])
	}
}

// stderrLogger routes space logs through the standard logger.
type stderrLogger struct{}

func (l *stderrLogger) Debugf(format string, v ...any) { log.Printf("[DEBUG] "+format, v...) }
func (l *stderrLogger) Infof(format string, v ...any)  { log.Printf("[INFO] "+format, v...) }
func (l *stderrLogger) Warnf(format string, v ...any)  { log.Printf("[WARN] "+format, v...) }
func (l *stderrLogger) Errorf(format string, v ...any) { log.Printf("[ERROR] "+format, v...) }
