// Command bstd serves the BST compiler over HTTP with a persistent
// compile cache and run log.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"time"

	"git.sr.ht/~sircmpwn/getopt"

	"bstgroovy/internal/build"
	"bstgroovy/internal/cache"
	"bstgroovy/internal/runlog"
	"bstgroovy/internal/server"
)

const usage = `usage: bstd [options]

options:
  -a ADDR      listen address (default localhost:8080)
  -C FILE      compile cache database (default bstd-cache.db)
  -L FILE      run log database (default bstd-runs.db)
  -t DURATION  evict cache entries unread for this long (default 24h)
  -e DURATION  eviction interval (default 10m, 0 disables)
  -n COUNT     rows per eviction pass (default 2000)
  -v           verbose
  -h           help
`

func parseArgs(args []string) (server.Config, string, string, error) {
	cfg := server.Config{
		Addr:       "localhost:8080",
		CacheTTL:   24 * time.Hour,
		EvictEvery: 10 * time.Minute,
	}
	cachePath, logPath := "bstd-cache.db", "bstd-runs.db"

	opts, optind, err := getopt.Getopts(args, "a:C:L:t:e:n:vh")
	if err != nil {
		return cfg, "", "", err
	}
	for _, opt := range opts {
		switch opt.Option {
		case 'a':
			cfg.Addr = opt.Value
		case 'C':
			cachePath = opt.Value
		case 'L':
			logPath = opt.Value
		case 't':
			if cfg.CacheTTL, err = time.ParseDuration(opt.Value); err != nil {
				return cfg, "", "", fmt.Errorf("-t: %w", err)
			}
		case 'e':
			if cfg.EvictEvery, err = time.ParseDuration(opt.Value); err != nil {
				return cfg, "", "", fmt.Errorf("-e: %w", err)
			}
		case 'n':
			if cfg.EvictLimit, err = strconv.Atoi(opt.Value); err != nil {
				return cfg, "", "", fmt.Errorf("-n: %w", err)
			}
		case 'v':
			cfg.Verbose = true
		case 'h':
			return cfg, "", "", errHelp
		}
	}
	if optind < len(args) {
		return cfg, "", "", fmt.Errorf("unexpected argument %q", args[optind])
	}
	return cfg, cachePath, logPath, nil
}

var errHelp = errors.New("help requested")

func main() {
	log.SetPrefix("bstd: ")

	cfg, cachePath, logPath, err := parseArgs(os.Args)
	if err == errHelp {
		fmt.Print(usage)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "bstd: %v\n%s", err, usage)
		os.Exit(2)
	}

	c, err := cache.Open(cachePath)
	if err != nil {
		log.Fatalf("open cache %s: %v", cachePath, err)
	}
	defer c.Close()
	l, err := runlog.Open(logPath)
	if err != nil {
		log.Fatalf("open run log %s: %v", logPath, err)
	}
	defer l.Close()

	s := server.New(cfg, &build.Builder{Cache: c, Log: l, Verbose: cfg.Verbose})
	if err := s.StartEviction(); err != nil {
		log.Fatalf("start eviction: %v", err)
	}
	go func() {
		if err := s.ListenAndServe(); err != nil {
			log.Fatalf("error in ListenAndServe: %v", err)
		}
	}()

	// Make a signal channel. Register SIGINT.
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt)
	<-sigch

	log.Println("Interrupted. Exiting.")
	if err := s.Shutdown(); err != nil {
		log.Println(err)
	}
}
