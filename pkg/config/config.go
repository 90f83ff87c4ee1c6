// Package config loads the search tool's settings from defaults, an optional
// YAML file, CARSEARCH_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sternrassler/carsearch/pkg/client"
	"github.com/Sternrassler/carsearch/pkg/listing"
	"github.com/Sternrassler/carsearch/pkg/logging"
	"github.com/Sternrassler/carsearch/pkg/ratelimit"
	"github.com/Sternrassler/carsearch/pkg/search"
)

// EnvPrefix prefixes every environment override, e.g. CARSEARCH_SEARCH_SORT.
const EnvPrefix = "CARSEARCH"

// DefaultUserAgent identifies the tool to the catalog service.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Settings is the merged configuration of one run.
type Settings struct {
	Search struct {
		Make         string            `mapstructure:"make"`
		Model        string            `mapstructure:"model"`
		Postcode     string            `mapstructure:"postcode"`
		Radius       int               `mapstructure:"radius"`
		Extra        map[string]string `mapstructure:"extra"`
		Sort         string            `mapstructure:"sort"`
		Limit        int               `mapstructure:"limit"`
		MaxAttempts  int               `mapstructure:"max_attempts"`
		ResetResults bool              `mapstructure:"reset_results"`
		Retry        struct {
			InitialBackoff time.Duration `mapstructure:"initial_backoff"`
			MaxBackoff     time.Duration `mapstructure:"max_backoff"`
			Multiplier     float64       `mapstructure:"multiplier"`
		} `mapstructure:"retry"`
	} `mapstructure:"search"`
	Client struct {
		BaseURL           string        `mapstructure:"base_url"`
		Origin            string        `mapstructure:"origin"`
		UserAgent         string        `mapstructure:"user_agent"`
		Timeout           time.Duration `mapstructure:"timeout"`
		RequestsPerSecond float64       `mapstructure:"requests_per_second"`
		ThrottleDelay     time.Duration `mapstructure:"throttle_delay"`
		CooldownDelay     time.Duration `mapstructure:"cooldown_delay"`
	} `mapstructure:"client"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		StateTTL time.Duration `mapstructure:"state_ttl"`
	} `mapstructure:"redis"`
	Log struct {
		Level  string `mapstructure:"level"`
		Pretty bool   `mapstructure:"pretty"`
	} `mapstructure:"log"`
	Output struct {
		CSV string `mapstructure:"csv"`
	} `mapstructure:"output"`
	Metrics struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"metrics"`
}

// New returns a viper instance with every default set and environment
// overrides enabled.
func New() *viper.Viper {
	v := viper.New()

	params := search.DefaultParameters()
	opts := search.DefaultSearchOptions()
	retry := search.DefaultRetryConfig()
	cc := client.DefaultConfig(DefaultUserAgent)
	throttle := ratelimit.DefaultConfig()

	v.SetDefault("search.make", params[search.KeyMake])
	v.SetDefault("search.model", params[search.KeyModel])
	v.SetDefault("search.postcode", params[search.KeyPostcode])
	v.SetDefault("search.radius", 10)
	v.SetDefault("search.extra", map[string]string{})
	v.SetDefault("search.sort", opts.Sort)
	v.SetDefault("search.limit", opts.Limit)
	v.SetDefault("search.max_attempts", opts.MaxAttemptsPerPage)
	v.SetDefault("search.reset_results", opts.ResetResults)
	v.SetDefault("search.retry.initial_backoff", retry.InitialBackoff)
	v.SetDefault("search.retry.max_backoff", retry.MaxBackoff)
	v.SetDefault("search.retry.multiplier", retry.BackoffMultiplier)

	v.SetDefault("client.base_url", search.DefaultBaseURL)
	v.SetDefault("client.origin", listing.DefaultOrigin)
	v.SetDefault("client.user_agent", cc.UserAgent)
	v.SetDefault("client.timeout", cc.Timeout)
	v.SetDefault("client.requests_per_second", cc.RequestsPerSecond)
	v.SetDefault("client.throttle_delay", throttle.ThrottleDelay)
	v.SetDefault("client.cooldown_delay", throttle.CooldownDelay)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.state_ttl", throttle.StateTTL)

	v.SetDefault("log.level", string(logging.LevelInfo))
	v.SetDefault("log.pretty", false)
	v.SetDefault("output.csv", "")
	v.SetDefault("metrics.addr", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if non-empty) into v and decodes the merged settings.
func Load(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects settings the search cannot run with.
func (s *Settings) Validate() error {
	var errs []error

	if _, err := search.SortToken(s.Search.Sort); err != nil {
		errs = append(errs, err)
	}
	if s.Search.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("search.max_attempts must be >= 1 (got %d)", s.Search.MaxAttempts))
	}
	if s.Search.Radius < 0 {
		errs = append(errs, fmt.Errorf("search.radius must be >= 0 (got %d)", s.Search.Radius))
	}
	if s.Client.UserAgent == "" {
		errs = append(errs, fmt.Errorf("client.user_agent is required"))
	}
	if s.Client.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("client.requests_per_second must be >= 0 (got %g)", s.Client.RequestsPerSecond))
	}
	if _, err := logging.ParseLogLevel(s.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Parameters returns the query parameters of the configured search.
func (s *Settings) Parameters() search.Parameters {
	return search.NewParameters(s.Search.Make, s.Search.Model, s.Search.Postcode, s.Search.Radius, s.Search.Extra)
}

// SearchOptions returns the options of the configured search.
func (s *Settings) SearchOptions() search.SearchOptions {
	return search.SearchOptions{
		Sort:               s.Search.Sort,
		Limit:              s.Search.Limit,
		MaxAttemptsPerPage: s.Search.MaxAttempts,
		ResetResults:       s.Search.ResetResults,
	}
}

// ControllerConfig returns the controller configuration.
func (s *Settings) ControllerConfig() search.Config {
	return search.Config{
		BaseURL: s.Client.BaseURL,
		Origin:  s.Client.Origin,
		Retry: search.RetryConfig{
			InitialBackoff:    s.Search.Retry.InitialBackoff,
			MaxBackoff:        s.Search.Retry.MaxBackoff,
			BackoffMultiplier: s.Search.Retry.Multiplier,
		},
	}
}

// ClientConfig returns the HTTP client configuration. The Redis client is
// left for the caller to attach.
func (s *Settings) ClientConfig() client.Config {
	cfg := client.DefaultConfig(s.Client.UserAgent)
	cfg.Timeout = s.Client.Timeout
	cfg.RequestsPerSecond = s.Client.RequestsPerSecond
	cfg.Throttle = ratelimit.Config{
		ThrottleDelay: s.Client.ThrottleDelay,
		CooldownDelay: s.Client.CooldownDelay,
		StateTTL:      s.Redis.StateTTL,
	}
	return cfg
}

// LoggingConfig returns the logger configuration. Settings must have been
// validated.
func (s *Settings) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level, _ = logging.ParseLogLevel(s.Log.Level)
	cfg.Pretty = s.Log.Pretty
	return cfg
}
