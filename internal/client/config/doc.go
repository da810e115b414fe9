// Package config loads runtime configuration for the iotadmin CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config. JSON, or YAML when the
//     name ends in .yaml/.yml.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string     base URL of the admin API
//	-t duration   request timeout for JSON calls
//	-d string     local database file
//	-o string     download directory
//	-w string     drop directory to watch
//	-l string     log level
//
// # File schema
//
// Durations use timex.Duration, so values can be strings like "30s" or
// integer nanoseconds:
//
//	server_url: https://iot.example.org
//	request_timeout: 30s
//	database_dsn: iotadmin.db
//	download_dir: downloads
//	drop_dir: drop
//	drop_settle: 500ms
//	log_level: info
//	s3_bucket: firmware-archive
//	s3_region: eu-central-1
//	s3_base_endpoint: http://localhost:9000
//	s3_access_key: minio
//	s3_secret_key: minio123
//	s3_prefix: operator-a
//
// Bucket settings are file-only; they are not exposed as flags.
package config
