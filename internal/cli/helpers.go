package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
)

func createLogger(opts Options) (*slog.Logger, error) {
	if opts.Debug {
		return logging.New(slog.LevelDebug), nil
	}
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
