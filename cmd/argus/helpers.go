package main

import (
	"fmt"
	"os"

	"argus/internal/brief"
	"argus/internal/config"
	"argus/internal/logging"
	"argus/internal/store"
)

// loadConfig resolves the runtime config: the --config file when given,
// otherwise argus.yaml in the working directory, otherwise defaults. It
// also installs the slog handler from the root flags.
func loadConfig() (*config.Config, error) {
	level, err := logging.ParseLevel(rootFlags.logLevel)
	if err != nil {
		return nil, err
	}
	logging.Setup(level, rootFlags.logFormat, os.Stderr)

	path := rootFlags.configPath
	if path == "" {
		if _, err := os.Stat("argus.yaml"); err == nil {
			path = "argus.yaml"
		}
	}
	if path == "" {
		cfg := config.Default()
		cfg.ApplyEnv()
		return cfg, nil
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the SQLite repository at the configured path.
func openStore(cfg *config.Config) (*store.SqlStore, error) {
	path := cfg.DBPath
	if path == "" {
		path = store.DefaultDBPath
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return st, nil
}

// buildOrchestrator wires the full generation pipeline from config.
func buildOrchestrator(cfg *config.Config, st store.Store) (*brief.Orchestrator, error) {
	gw, err := cfg.Gateway()
	if err != nil {
		return nil, err
	}
	return brief.New(st, gw, brief.WithLogger(logging.New("brief")))
}
