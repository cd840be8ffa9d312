// Offline scenario runner: prices a set of reference trips against a fixture
// configuration and checks the engine's answers. Useful as a smoke test after
// tariff changes, no database or network required.
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	cfg := loadConfig()

	runner := NewRunner(cfg)
	results := runner.RunAll()

	fmt.Println("\n== Summary ==")
	pass, fail := 0, 0
	for _, r := range results {
		switch r.Status {
		case "PASS":
			pass++
		case "FAIL":
			fail++
		}
	}
	fmt.Printf("PASS=%d FAIL=%d\n", pass, fail)

	if fail > 0 {
		os.Exit(1)
	}
}

type Config struct {
	Runs int
}

func loadConfig() Config {
	var cfg Config
	flag.IntVar(&cfg.Runs, "runs", envOrDefaultInt("ETOILE_BENCH_RUNS", 3), "Repetitions for the determinism check")
	flag.Parse()
	return cfg
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		_, _ = fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			return n
		}
	}
	return def
}
