// Package config loads the single JSON configuration file the server reads
// at startup, mirroring main.go's minimal flag-driven startup but backed by
// a file instead of individual flags (the teacher has only one tunable,
// --port; this server has several, so a config file plus one CLI override
// replaces a growing flag list).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ConfigError reports a problem loading or validating the config file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// raw mirrors the on-disk JSON shape; fields are pointers so omitted keys
// can fall back to defaults instead of JSON's int-zero-value.
type raw struct {
	Host                *string `json:"host"`
	Port                *int    `json:"port"`
	BroadcastIntervalMs *int    `json:"broadcastIntervalMs"`
	SimulationTickMs    *int    `json:"simulationTickMs"`
	RespawnDelayMs      *int    `json:"respawnDelayMs"`
	DisconnectGraceMs   *int    `json:"disconnectGraceMs"`
	SpawnClearRadius    *int    `json:"spawnClearRadius"`
	BoardPath           *string `json:"boardPath"`
	LogLevel            *string `json:"logLevel"`
}

// Config is the resolved, defaulted server configuration.
type Config struct {
	Host                string
	Port                int
	BroadcastInterval   time.Duration
	SimulationTick      time.Duration
	RespawnDelay        time.Duration
	DisconnectGrace     time.Duration
	SpawnClearRadius    int
	BoardPath           string
	LogLevel            string
}

// Defaults, per the config field table.
const (
	DefaultHost                = "0.0.0.0"
	DefaultPort                = 8080
	DefaultBroadcastIntervalMs = 250
	DefaultSimulationTickMs    = 50
	DefaultRespawnDelayMs      = 2000
	DefaultDisconnectGraceMs   = 60000
	DefaultSpawnClearRadius    = 3
	DefaultLogLevel            = "info"
)

// Default returns a Config with every field at its documented default and
// an empty board path, which board.Load resolves to board.DefaultPath.
func Default() Config {
	return Config{
		Host:              DefaultHost,
		Port:              DefaultPort,
		BroadcastInterval: DefaultBroadcastIntervalMs * time.Millisecond,
		SimulationTick:    DefaultSimulationTickMs * time.Millisecond,
		RespawnDelay:      DefaultRespawnDelayMs * time.Millisecond,
		DisconnectGrace:   DefaultDisconnectGraceMs * time.Millisecond,
		SpawnClearRadius:  DefaultSpawnClearRadius,
		LogLevel:          DefaultLogLevel,
	}
}

// Load reads and validates a config file at path, applying defaults for any
// field the file omits. An empty path returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigError{Path: path, Err: err}
	}

	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return Config{}, &ConfigError{Path: path, Err: fmt.Errorf("malformed config json: %w", err)}
	}

	if r.Host != nil {
		cfg.Host = *r.Host
	}
	if r.Port != nil {
		cfg.Port = *r.Port
	}
	if r.BroadcastIntervalMs != nil {
		cfg.BroadcastInterval = time.Duration(*r.BroadcastIntervalMs) * time.Millisecond
	}
	if r.SimulationTickMs != nil {
		cfg.SimulationTick = time.Duration(*r.SimulationTickMs) * time.Millisecond
	}
	if r.RespawnDelayMs != nil {
		cfg.RespawnDelay = time.Duration(*r.RespawnDelayMs) * time.Millisecond
	}
	if r.DisconnectGraceMs != nil {
		cfg.DisconnectGrace = time.Duration(*r.DisconnectGraceMs) * time.Millisecond
	}
	if r.SpawnClearRadius != nil {
		cfg.SpawnClearRadius = *r.SpawnClearRadius
	}
	if r.BoardPath != nil {
		cfg.BoardPath = *r.BoardPath
	}
	if r.LogLevel != nil {
		cfg.LogLevel = *r.LogLevel
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, &ConfigError{Path: path, Err: fmt.Errorf("invalid port %d", cfg.Port)}
	}
	if cfg.SpawnClearRadius < 0 {
		return Config{}, &ConfigError{Path: path, Err: fmt.Errorf("spawnClearRadius must be >= 0, got %d", cfg.SpawnClearRadius)}
	}

	return cfg, nil
}
