package config

import (
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/iotadmin/internal/flagx"
)

var knownFlags = []string{"-a", "-t", "-d", "-o", "-w", "-l"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     base URL of the admin API
//	-t duration   request timeout for JSON calls, e.g. 15s
//	-d string     local database file
//	-o string     download directory
//	-w string     drop directory to watch
//	-l string     log level
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the admin API")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "local database file")
	fs.StringVar(&cfg.DownloadDir, "o", cfg.DownloadDir, "download directory")
	fs.StringVar(&cfg.DropDir, "w", cfg.DropDir, "drop directory to watch")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
