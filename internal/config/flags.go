package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophdiary/internal/flagx"
)

// parseFlags overlays cfg with -d, -k and -l. Unknown flags in args are
// ignored so the config file flag can share the same argument list.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-d", "-k", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the diary database")
	fs.IntVar(&cfg.KDFIterations, "k", cfg.KDFIterations, "key derivation iterations")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
