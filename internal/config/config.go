// Package config binds process configuration via envconfig, the way
// scalytics-KafClaw's internal/config/loader.go does — one struct per
// concern, processed once at startup, rather than the teacher's ad hoc
// os.Getenv calls scattered through cmd/server/main.go.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store holds the wide-key store's connection and timing knobs.
type Store struct {
	DSN              string        `envconfig:"DSN" default:"file:eventgraph.db?cache=shared&_fk=1"`
	SlowQueryThreshold time.Duration `envconfig:"SLOW_QUERY_THRESHOLD" default:"500ms"`
	AttemptTimeout     time.Duration `envconfig:"ATTEMPT_TIMEOUT" default:"5s"`
	TotalTimeout       time.Duration `envconfig:"TOTAL_TIMEOUT" default:"10s"`
	MaxRetries         int           `envconfig:"MAX_RETRIES" default:"3"`
}

// InviteCode holds invite-code generation/rate-limit knobs (spec.md §4.10).
type InviteCode struct {
	MaxCollisionRetries int           `envconfig:"MAX_COLLISION_RETRIES" default:"5"`
	RateLimitPerMinute  int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"10"`
	RateLimitBurst      int           `envconfig:"RATE_LIMIT_BURST" default:"20"`
	PreviewWindow       time.Duration `envconfig:"PREVIEW_WINDOW" default:"1m"`
}

// Feed holds the user-wide feed fan-out concurrency knob (spec.md §4.14/§9).
type Feed struct {
	MaxParallelPartitions int `envconfig:"MAX_PARALLEL_PARTITIONS" default:"8"`
	DefaultPageSize       int `envconfig:"DEFAULT_PAGE_SIZE" default:"20"`
	MaxPageSize           int `envconfig:"MAX_PAGE_SIZE" default:"50"`
}

// Config is the root configuration, sectioned per envconfig's prefix
// convention (EVENTGRAPH_STORE_*, EVENTGRAPH_INVITECODE_*, EVENTGRAPH_FEED_*).
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	Store      Store
	InviteCode InviteCode
	Feed       Feed
}

// Load processes environment variables prefixed EVENTGRAPH_ into a Config,
// applying struct-tag defaults for anything unset.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("EVENTGRAPH", &cfg); err != nil {
		return Config{}, err
	}
	if err := envconfig.Process("EVENTGRAPH_STORE", &cfg.Store); err != nil {
		return Config{}, err
	}
	if err := envconfig.Process("EVENTGRAPH_INVITECODE", &cfg.InviteCode); err != nil {
		return Config{}, err
	}
	if err := envconfig.Process("EVENTGRAPH_FEED", &cfg.Feed); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
