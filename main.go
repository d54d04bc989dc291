package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rprtr258/fswatch/internal/cli"
)

func main() {
	log.Logger = zerolog.New(os.Stderr).With().
		Timestamp().
		Logger().
		Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := cli.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}
