package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/iotadmin/internal/flagx"
	"github.com/dmitrijs2005/iotadmin/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is a DTO used exclusively for decoding config files. Durations
// use timex.Duration so they can be written as "30s" or as nanoseconds.
type fileConfig struct {
	ServerURL      string         `json:"server_url" yaml:"server_url"`
	RequestTimeout timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	DatabaseDSN    string         `json:"database_dsn" yaml:"database_dsn"`
	DownloadDir    string         `json:"download_dir" yaml:"download_dir"`
	DropDir        string         `json:"drop_dir" yaml:"drop_dir"`
	DropSettle     timex.Duration `json:"drop_settle" yaml:"drop_settle"`
	LogLevel       string         `json:"log_level" yaml:"log_level"`
	S3Bucket       string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3AccessKey    string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey    string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3Prefix       string         `json:"s3_prefix" yaml:"s3_prefix"`
}

// parseFile overlays Config with the values present in the file named by -c
// or -config. Files ending in .yaml or .yml are YAML, anything else is JSON.
// Keys missing from the file keep their current value.
func parseFile(cfg *Config) error {
	path := flagx.ConfigFile(os.Args[1:])
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc fileConfig) apply(cfg *Config) {
	setString(&cfg.ServerURL, fc.ServerURL)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.DownloadDir, fc.DownloadDir)
	setString(&cfg.DropDir, fc.DropDir)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.S3.Bucket, fc.S3Bucket)
	setString(&cfg.S3.Region, fc.S3Region)
	setString(&cfg.S3.BaseEndpoint, fc.S3BaseEndpoint)
	setString(&cfg.S3.AccessKey, fc.S3AccessKey)
	setString(&cfg.S3.SecretKey, fc.S3SecretKey)
	setString(&cfg.S3.Prefix, fc.S3Prefix)

	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.DropSettle.Duration > 0 {
		cfg.DropSettle = fc.DropSettle.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
