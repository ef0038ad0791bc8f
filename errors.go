/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logDate string = `2006-01-02T15:04:05.000-07:00`

var (
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidField     = errors.New("invalid field")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrUnknownEvent     = errors.New("unknown event")
	ErrTurnMismatch     = errors.New("claimed team does not hold the turn")
	ErrRateLimited      = errors.New("rate limited")
)

func setupLogging(cfg *Config) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: logDate,
	}).With().Timestamp().Logger()

	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
