/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func testConfig() *Config {
	return &Config{
		bind:           "127.0.0.1",
		maxMessageSize: 64 * 1024,
		pingInterval:   54 * time.Second,
		port:           3000,
		sendBuffer:     64,
	}
}
