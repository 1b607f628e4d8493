// Package config loads gmt settings from the environment and an optional
// config file, in the spirit of twelve-factor CLI tools. Credentials are
// only ever read from the environment (or a local .env file), never from
// the config file.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration for gmt.
type Config struct {
	// BaseURL is the GetMyTime service endpoint.
	BaseURL string `mapstructure:"base_url"`

	// Username and Password authenticate the session. Bound to the
	// GETMYTIME_USERNAME and GETMYTIME_PASSWORD environment variables.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// RequestInterval is the minimum spacing between consecutive remote
	// calls. The service has no documented rate limit; one call per second
	// has proven safe.
	RequestInterval time.Duration `mapstructure:"request_interval"`

	// DisallowedBucket is the catch-all activity that entries must not be
	// filed under without --force.
	DisallowedBucket string `mapstructure:"disallowed_bucket"`

	// HiringBucketHint is the activity substring that exempts entries with
	// interview/presentation comments from the alternate-bucket suggestion.
	HiringBucketHint string `mapstructure:"hiring_bucket_hint"`
}

const (
	// DefaultBaseURL is the production GetMyTime endpoint.
	DefaultBaseURL = "https://app.getmytime.com"
	// DefaultRequestInterval matches the informal one-call-per-second limit.
	DefaultRequestInterval = time.Second
	// DefaultDisallowedBucket is the catch-all activity guarded by the
	// validation pipeline.
	DefaultDisallowedBucket = "Indirect - Admin:Miscellaneous"
	// DefaultHiringBucketHint marks activities that legitimately hold
	// interview and presentation time.
	DefaultHiringBucketHint = "hiring"
)

// Load reads configuration from the environment (GETMYTIME_* variables),
// falling back to a .env file in the working directory when present.
func Load() (Config, error) {
	// Best-effort: a missing .env file is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("getmytime")
	v.AutomaticEnv()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("request_interval", DefaultRequestInterval)
	v.SetDefault("disallowed_bucket", DefaultDisallowedBucket)
	v.SetDefault("hiring_bucket_hint", DefaultHiringBucketHint)

	// Explicit bindings so AutomaticEnv sees keys that are never Set().
	for _, key := range []string{"base_url", "username", "password", "request_interval", "disallowed_bucket", "hiring_bucket_hint"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing configuration: %w", err)
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = DefaultRequestInterval
	}
	return cfg, nil
}

// Validate reports whether the configuration is complete enough to log in.
func (c Config) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("environment variable required: GETMYTIME_USERNAME")
	}
	if c.Password == "" {
		return fmt.Errorf("environment variable required: GETMYTIME_PASSWORD")
	}
	return nil
}
