/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix          = "CODENAMES"
	minRoomIdleTimeout = time.Second
)

type Config struct {
	allowedOrigins  []string
	bind            string
	clientURL       string
	maxMessageSize  int64
	pingInterval    time.Duration
	port            int
	prefix          string
	profile         bool
	rateBurst       int
	rateLimit       float64
	roomIdleTimeout time.Duration
	sendBuffer      int
	tlsCert         string
	tlsKey          string
	trustTurn       bool
	verbose         bool
	version         bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxMessageSize < 1 {
		return fmt.Errorf("invalid max message size (must be positive): %d", c.maxMessageSize)
	}
	if c.pingInterval <= 0 {
		return fmt.Errorf("invalid ping interval (must be positive): %s", c.pingInterval)
	}
	if c.roomIdleTimeout < 0 || (c.roomIdleTimeout > 0 && c.roomIdleTimeout < minRoomIdleTimeout) {
		return fmt.Errorf("invalid room idle timeout (must be 0 or at least %s): %s", minRoomIdleTimeout, c.roomIdleTimeout)
	}
	if c.sendBuffer < 1 {
		return fmt.Errorf("invalid send buffer (must be positive): %d", c.sendBuffer)
	}
	if c.rateLimit < 0 || c.rateBurst < 0 {
		return errors.New("rate limit and burst must not be negative")
	}
	if c.rateLimit > 0 && c.rateBurst == 0 {
		return errors.New("--rate-burst must be at least 1 when --rate-limit is set")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// pongWait is how long a connection may stay silent before it is dropped.
func (c *Config) pongWait() time.Duration {
	return c.pingInterval * 10 / 9
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "codenames",
		Short:         "Real-time room state relay for a two-team word-guessing party game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			setupLogging(cfg)
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringSliceVar(&cfg.allowedOrigins, "allowed-origin", nil, "origin allowed to open websockets, repeatable; any origin if unset (env: CODENAMES_ALLOWED_ORIGIN)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: CODENAMES_BIND)")
	fs.StringVar(&cfg.clientURL, "client-url", "", "base URL of the game client, used for room share codes (env: CODENAMES_CLIENT_URL)")
	fs.Int64Var(&cfg.maxMessageSize, "max-message-size", 64*1024, "maximum inbound websocket message size in bytes (env: CODENAMES_MAX_MESSAGE_SIZE)")
	fs.DurationVar(&cfg.pingInterval, "ping-interval", 54*time.Second, "interval between websocket pings (env: CODENAMES_PING_INTERVAL)")
	fs.IntVarP(&cfg.port, "port", "p", 3000, "port to listen on (env: CODENAMES_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: CODENAMES_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: CODENAMES_PROFILE)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 20, "inbound events a connection may burst (env: CODENAMES_RATE_BURST)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 10, "sustained inbound events per second per connection, 0 disables (env: CODENAMES_RATE_LIMIT)")
	fs.DurationVar(&cfg.roomIdleTimeout, "room-idle-timeout", 0, "remove rooms nobody has joined after this long without activity, 0 disables (env: CODENAMES_ROOM_IDLE_TIMEOUT)")
	fs.IntVar(&cfg.sendBuffer, "send-buffer", 256, "outbound messages queued per connection before it is dropped (env: CODENAMES_SEND_BUFFER)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: CODENAMES_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: CODENAMES_TLS_KEY)")
	fs.BoolVar(&cfg.trustTurn, "trust-turn", false, "flip turns based on the team the client claims instead of the stored turn (env: CODENAMES_TRUST_TURN)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: CODENAMES_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: CODENAMES_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("codenames v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
