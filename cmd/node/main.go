// Command node runs a single participant in the distributed search: it
// listens for peer connections and drives its role machine from an
// interactive command loop on stdin.
package main

import (
	"flag"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"dsva-brute/internal/config"
	"dsva-brute/internal/node"
	"dsva-brute/internal/search"
)

// normalizeAddr applies §6's CLI-supplied address normalization: a bare
// port number means 127.0.0.1:<port>; anything else is taken as a literal
// host:port and passed through unchanged.
func normalizeAddr(s string) string {
	if s == "" {
		return s
	}
	if !strings.Contains(s, ":") {
		return "127.0.0.1:" + s
	}
	return s
}

func main() {
	var (
		port       = flag.Uint("port", 9000, "local TCP port to listen on")
		configPath = flag.String("config", "", "path to a node.toml config file")
		power      = flag.Uint("power", 0, "local compute power (overrides config if nonzero)")
		friendsCSV = flag.String("friends", "", "comma-separated initial peer addresses (port or host:port)")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)

	cfg := config.DefaultNodeConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}
	if *power != 0 {
		cfg.Power = uint32(*power)
	}

	friends := make([]string, 0, len(cfg.Friends))
	for _, f := range cfg.Friends {
		friends = append(friends, normalizeAddr(f))
	}
	if *friendsCSV != "" {
		for _, f := range strings.Split(*friendsCSV, ",") {
			if f = strings.TrimSpace(f); f != "" {
				friends = append(friends, normalizeAddr(f))
			}
		}
	}

	addr := "127.0.0.1:" + strconv.FormatUint(uint64(*port), 10)

	n := node.NewWithConfig(addr, cfg.Power, friends, logger,
		time.Duration(cfg.ConnectSecs)*time.Second, cfg.FrameMaxBytes)

	if cfg.MeasureFile != "" {
		m, err := search.NewMeasure(cfg.MeasureFile)
		if err != nil {
			logger.Fatalf("opening measure file %s: %v", cfg.MeasureFile, err)
		}
		defer m.Close()
		n.SetMeasure(m)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatalf("listen on %s: %v", addr, err)
	}
	logger.Printf("listening on %s (power=%d)", addr, cfg.Power)

	go func() {
		if err := n.Serve(ln); err != nil {
			logger.Printf("serve: %v", err)
		}
	}()

	node.NewREPL(n, os.Stdin, os.Stdout).Run()
}
