package config

import (
	"flag"
	"os"
	"time"

	"github.com/dbarkov/feedline/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-u string   base URL of the backend API
//	-p int      collection page size
//	-d int      search debounce in milliseconds
//	-f string   credential database file
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-p", "-d", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "u", cfg.APIBaseURL, "base URL of the backend API")
	fs.IntVar(&cfg.PageSize, "p", cfg.PageSize, "collection page size")
	debounceMs := fs.Int("d", int(cfg.SearchDebounce.Milliseconds()), "search debounce (in milliseconds)")
	fs.StringVar(&cfg.CredentialDB, "f", cfg.CredentialDB, "credential database file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SearchDebounce = time.Duration(*debounceMs) * time.Millisecond
}
