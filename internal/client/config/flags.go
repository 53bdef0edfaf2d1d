package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/enclavechat/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the remote inference service
//	-m string   model identifier
//	-k string   API key (overrides ENCLAVECHAT_API_KEY)
//	-t int      request timeout in seconds
//	-s int      retention sweep interval in seconds
//	-d string   vault database path
//
// The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other
// components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-m", "-k", "-t", "-s", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the remote inference service")
	fs.StringVar(&cfg.Model, "m", cfg.Model, "model identifier")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "API key")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "vault database path")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	sweepInterval := fs.Int("s", int(cfg.SweepInterval.Seconds()), "retention sweep interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	cfg.SweepInterval = time.Duration(*sweepInterval) * time.Second
}
