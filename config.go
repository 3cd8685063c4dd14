package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/sixdegrees/internal/coordinator"
	"github.com/Seednode/sixdegrees/internal/results"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SIXDEGREES"

type Config struct {
	bind        string
	cacheTTL    time.Duration
	graceWindow time.Duration
	graphSeed   string
	natsSubject string
	natsURL     string
	pairTimeout time.Duration
	port        int
	prefix      string
	profile     bool
	redisAddr   string
	sendBuffer  int
	tlsCert     string
	tlsKey      string
	verbose     bool
	version     bool

	neo4jDatabase string
	neo4jPassword string
	neo4jURI      string
	neo4jUsername string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.graceWindow <= 0 {
		return fmt.Errorf("invalid grace window (must be positive): %s", c.graceWindow)
	}
	if c.pairTimeout <= 0 {
		return fmt.Errorf("invalid pair timeout (must be positive): %s", c.pairTimeout)
	}
	if c.sendBuffer < 1 {
		return fmt.Errorf("invalid send buffer (must be at least 1): %d", c.sendBuffer)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// envName is the prefixed variable viper reads for a flag.
func envName(flag string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// envAliases are unprefixed variables also honored for a flag.
var envAliases = map[string]string{
	"neo4j-uri":      "NEO4J_URI",
	"neo4j-username": "NEO4J_USERNAME",
	"neo4j-password": "NEO4J_PASSWORD",
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "sixdegrees",
		Short:         "Head-to-head races to connect two actors through shared films.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SIXDEGREES_BIND)")
	fs.DurationVar(&cfg.cacheTTL, "cache-ttl", time.Hour, "lifetime of cached graph lookups (env: SIXDEGREES_CACHE_TTL)")
	fs.DurationVar(&cfg.graceWindow, "grace-window", coordinator.DefaultGraceWindow, "time a disconnected player may resume before removal (env: SIXDEGREES_GRACE_WINDOW)")
	fs.StringVar(&cfg.graphSeed, "graph-seed", "", "yaml film list to race on when no neo4j uri is set (env: SIXDEGREES_GRAPH_SEED)")
	fs.StringVar(&cfg.natsSubject, "nats-subject", results.DefaultSubject, "subject race results are published to (env: SIXDEGREES_NATS_SUBJECT)")
	fs.StringVar(&cfg.natsURL, "nats-url", "", "nats server to publish race results to (env: SIXDEGREES_NATS_URL)")
	fs.StringVar(&cfg.neo4jDatabase, "neo4j-database", "neo4j", "neo4j database name (env: SIXDEGREES_NEO4J_DATABASE)")
	fs.StringVar(&cfg.neo4jPassword, "neo4j-password", "", "neo4j password (env: SIXDEGREES_NEO4J_PASSWORD, NEO4J_PASSWORD)")
	fs.StringVar(&cfg.neo4jURI, "neo4j-uri", "", "neo4j connection uri (env: SIXDEGREES_NEO4J_URI, NEO4J_URI)")
	fs.StringVar(&cfg.neo4jUsername, "neo4j-username", "", "neo4j username (env: SIXDEGREES_NEO4J_USERNAME, NEO4J_USERNAME)")
	fs.DurationVar(&cfg.pairTimeout, "pair-timeout", coordinator.DefaultPairTimeout, "time allowed for each graph lookup (env: SIXDEGREES_PAIR_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SIXDEGREES_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SIXDEGREES_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SIXDEGREES_PROFILE)")
	fs.StringVar(&cfg.redisAddr, "redis-addr", "", "redis address for caching graph lookups (env: SIXDEGREES_REDIS_ADDR)")
	fs.IntVar(&cfg.sendBuffer, "send-buffer", 32, "events queued per connection before it is dropped (env: SIXDEGREES_SEND_BUFFER)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SIXDEGREES_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SIXDEGREES_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SIXDEGREES_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SIXDEGREES_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		if alias, ok := envAliases[f.Name]; ok {
			_ = v.BindEnv(f.Name, envName(f.Name), alias)
		} else {
			_ = v.BindEnv(f.Name)
		}
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("sixdegrees v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
