package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the iotadmin CLI.
//
// Fields:
//   - ServerURL: base URL of the admin REST API.
//   - RequestTimeout: upper bound for JSON calls; uploads and downloads are
//     not bounded by it.
//   - DatabaseDSN: local SQLite file holding the session token and the
//     firmware cache.
//   - DownloadDir: where downloaded images land when no bucket is set.
//   - DropDir: watched directory acting as the drop zone; empty disables it.
//   - DropSettle: how long a dropped file must be quiet before intake.
//   - LogLevel: debug, info, warn or error.
//   - S3: optional bucket that receives downloads instead of DownloadDir.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	DatabaseDSN    string
	DownloadDir    string
	DropDir        string
	DropSettle     time.Duration
	LogLevel       string
	S3             S3Config
}

type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Prefix       string
}

// Enabled reports whether downloads go to a bucket.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:5000"
	c.RequestTimeout = 30 * time.Second
	c.DatabaseDSN = "iotadmin.db"
	c.DownloadDir = "downloads"
	c.DropDir = ""
	c.DropSettle = 500 * time.Millisecond
	c.LogLevel = "info"
	c.S3 = S3Config{}
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if given) and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
