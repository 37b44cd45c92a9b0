package main

import (
	"strings"
	"testing"
	"time"
)

func TestParseArgs(t *testing.T) {
	cfg, cachePath, logPath, err := parseArgs([]string{"bstd", "-a", ":9000", "-C", "c.db", "-t", "1h", "-e", "0", "-n", "50", "-v"})
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	if cfg.Addr != ":9000" || cachePath != "c.db" || logPath != "bstd-runs.db" {
		t.Errorf("unexpected paths: %+v %s %s", cfg, cachePath, logPath)
	}
	if cfg.CacheTTL != time.Hour || cfg.EvictEvery != 0 || cfg.EvictLimit != 50 || !cfg.Verbose {
		t.Errorf("unexpected config %+v", cfg)
	}

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"bstd", "-t", "soon"}, "-t"},
		{[]string{"bstd", "-n", "many"}, "-n"},
		{[]string{"bstd", "extra"}, "unexpected argument"},
		{[]string{"bstd", "-h"}, "help"},
	}
	for _, tt := range tests {
		_, _, _, err := parseArgs(tt.args)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%v: expected error containing %q, got %v", tt.args, tt.want, err)
		}
	}
}
