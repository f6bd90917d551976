package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

func main() {
	logger := setupLogger()

	ctx := context.Background()

	if err := ExecuteWithContext(ctx, logger); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// setupLogger configures zerolog for interactive console use. The
// level is refined later once the config file has been read; commands
// start at Info so config-load problems are still visible.
func setupLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Str("app", "icebergctl").
		Logger().
		Level(zerolog.InfoLevel)
}
