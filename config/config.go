// Package config loads the node's operational configuration: the
// handful of knobs spec.md leaves to the operator rather than mandating
// (listen address, data directory, peer monitor cadence). Everything
// the specification itself fixes (wire formats, the karma/moderation
// state machines) stays out of this file entirely.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the node's operational configuration.
type Config struct {
	ListenAddress        string        `toml:"ListenAddress"`
	DataDir              string        `toml:"DataDir"`
	LabelsPath           string        `toml:"LabelsPath"`
	PeerMonitorInterval  time.Duration `toml:"PeerMonitorInterval"`
	PeerFailureThreshold uint8         `toml:"PeerFailureThreshold"`
	SyncClientTimeout    time.Duration `toml:"SyncClientTimeout"`
}

const (
	defaultPort                 = "3000"
	defaultDataDir              = "./data"
	defaultLabelsPath           = "./labels.json"
	defaultPeerMonitorInterval  = 120 * time.Second
	defaultPeerFailureThreshold = 5
	defaultSyncClientTimeout    = 15 * time.Second
)

// Load reads the TOML configuration file at path, creating one with
// defaults if it does not exist (mirroring the teacher's auto-bootstrap
// behavior), then applies the PORT environment variable as the
// authoritative listen port per spec.md §6 regardless of what the file
// contains.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		var err error
		cfg, err = createDefault(path)
		if err != nil {
			return nil, err
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
		applyDefaults(cfg)
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.ListenAddress = ":" + port
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":" + defaultPort
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir
	}
	if cfg.LabelsPath == "" {
		cfg.LabelsPath = defaultLabelsPath
	}
	if cfg.PeerMonitorInterval == 0 {
		cfg.PeerMonitorInterval = defaultPeerMonitorInterval
	}
	if cfg.PeerFailureThreshold == 0 {
		cfg.PeerFailureThreshold = defaultPeerFailureThreshold
	}
	if cfg.SyncClientTimeout == 0 {
		cfg.SyncClientTimeout = defaultSyncClientTimeout
	}
}

// createDefault writes and returns a default configuration file at path.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress:        ":" + defaultPort,
		DataDir:              defaultDataDir,
		LabelsPath:           defaultLabelsPath,
		PeerMonitorInterval:  defaultPeerMonitorInterval,
		PeerFailureThreshold: defaultPeerFailureThreshold,
		SyncClientTimeout:    defaultSyncClientTimeout,
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
