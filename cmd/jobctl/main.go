// jobctl is a command line client for the job marketplace media API.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load(".env.local")

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("jobctl")
		os.Exit(1)
	}
}
