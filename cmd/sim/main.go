// Command sim runs every TOML scenario file in a directory against an
// in-process cluster, printing each outcome. Adapted from the teacher's
// root main.go, which walked ./input/ for TestCase TOML files and ran each
// in turn.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"dsva-brute/internal/sim"
)

func main() {
	dir := flag.String("dir", "./scenarios", "directory of .toml scenario files")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Fatalf("reading %s: %v", *dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".toml") {
			continue
		}
		path := filepath.Join(*dir, e.Name())

		sc, err := sim.LoadScenario(path)
		if err != nil {
			logger.Printf("%s: %v", path, err)
			continue
		}

		out, err := sim.Run(sc, logger)
		if err != nil {
			logger.Printf("%s: run failed: %v", path, err)
			continue
		}

		logger.Printf("%s: done=%v found=%v solution=%q elapsed=%s timed_out=%v",
			sc.Name, out.Done, out.Found, out.Solution, out.Elapsed, out.TimedOut)
	}
}
