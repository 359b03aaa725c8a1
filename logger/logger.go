package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger. Unknown levels fall back to info.
func Init(level string, pretty bool) {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// For returns a child of the global logger tagged with component.
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
