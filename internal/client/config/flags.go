package config

import (
	"errors"
	"flag"
	"io"

	"github.com/al0nec0der/MarkPDF/internal/flagx"
)

var clientFlags = []string{
	"-a", "--server", "-f", "--session", "-z", "--scale", "-o", "--timeout",
}

// parseFlags overlays cfg with the client flags found in args. Other
// arguments, subcommands included, are ignored.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	for _, name := range []string{"a", "server"} {
		fs.StringVar(&cfg.ServerURL, name, cfg.ServerURL, "server base URL")
	}
	for _, name := range []string{"f", "session"} {
		fs.StringVar(&cfg.SessionFile, name, cfg.SessionFile, "session file")
	}
	for _, name := range []string{"z", "scale"} {
		fs.Float64Var(&cfg.Scale, name, cfg.Scale, "viewer zoom")
	}
	for _, name := range []string{"o", "timeout"} {
		fs.DurationVar(&cfg.RequestTimeout, name, cfg.RequestTimeout, "request timeout")
	}

	if err := fs.Parse(flagx.FilterArgs(args, clientFlags)); err != nil {
		return err
	}
	if cfg.Scale <= 0 {
		return errors.New("scale must be positive")
	}
	return nil
}
