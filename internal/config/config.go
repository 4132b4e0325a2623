package config

import (
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/ytdlpd/internal/confnorm"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

// CurrentVersion is the only configuration schema version accepted by Load.
const CurrentVersion = "1.0"

// Config is the daemon configuration file.
type Config struct {
	Version    string           `yaml:"version"`
	Paths      PathsConfig      `yaml:"paths"`
	HTTP       HTTPConfig       `yaml:"http"`
	YtDlp      YtDlpConfig      `yaml:"ytdlp"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Storage    StorageConfig    `yaml:"storage"`
	Watch      WatchConfig      `yaml:"watch"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Notify     NotifyConfig     `yaml:"notify"`
}

// PathsConfig holds the directories the daemon reads from and confines
// yt-dlp output to. Downloads, Archive and Cookies are used verbatim as
// string prefixes by the config normalizer, so they normally end in a slash.
type PathsConfig struct {
	Configs   string `yaml:"configs"`
	Downloads string `yaml:"downloads"`
	Archive   string `yaml:"archive"`
	Cookies   string `yaml:"cookies"`
}

// HTTPConfig represents HTTP server configuration.
type HTTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"` // 0 = unlimited
	ReadTimeout    string `yaml:"read_timeout"`
	WriteTimeout   string `yaml:"write_timeout"`
	IdleTimeout    string `yaml:"idle_timeout"`
	CORS           *bool  `yaml:"cors,omitempty"`
}

// YtDlpConfig controls how the external downloader is launched.
type YtDlpConfig struct {
	Binary            string           `yaml:"binary"`
	Timeout           string           `yaml:"timeout"` // empty = no limit
	MaxRetries        int              `yaml:"max_retries"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay string           `yaml:"retry_initial_delay"`
	RetryMaxDelay     string           `yaml:"retry_max_delay"`
	OutputLimit       int              `yaml:"output_limit"` // bytes kept per stream
}

// NormalizerConfig tunes the config file normalizer.
type NormalizerConfig struct {
	StrictPrefix   bool       `yaml:"strict_prefix"`
	ConfineCookies bool       `yaml:"confine_cookies"`
	LineEnding     LineEnding `yaml:"line_ending"`
}

// StorageConfig controls job history persistence.
type StorageConfig struct {
	EventsDB       string `yaml:"events_db"` // empty disables the event store
	HistorySize    int    `yaml:"history_size"`
	EventRetention string `yaml:"event_retention"`
}

// WatchConfig controls the configs directory watcher.
type WatchConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Debounce string `yaml:"debounce"`
}

// ScheduleConfig holds intervals for periodic maintenance jobs; empty disables a job.
type ScheduleConfig struct {
	ConfigSweep    string `yaml:"config_sweep"`
	RetentionPrune string `yaml:"retention_prune"`
}

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Health  MonitoringHealth  `yaml:"health"`
	Logging MonitoringLogging `yaml:"logging"`
}

type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type MonitoringHealth struct {
	Path string `yaml:"path"`
}

type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// NotifyConfig groups optional lifecycle event sinks.
type NotifyConfig struct {
	NATS NATSConfig `yaml:"nats"`
}

type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	ClientName    string `yaml:"client_name"`
}

// Load reads, normalizes, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	for _, f := range loadEnvFiles() {
		slog.Debug("Loaded environment file", "path", f)
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundError("configuration file not found").
			WithContext("path", configPath).Build()
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).Build()
	}

	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse runs the configuration pipeline on already expanded YAML.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config").Build()
	}

	if cfg.Version != "" && cfg.Version != CurrentVersion {
		return nil, errors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", CurrentVersion).
			Build()
	}

	return finish(&cfg)
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	_ = ApplyDefaults(cfg)
	return cfg
}

func finish(cfg *Config) (*Config, error) {
	res := NormalizeConfig(cfg)
	for _, w := range res.Warnings {
		slog.Warn("config normalization", "warning", w)
	}
	if err := ApplyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Folders returns the folder roots used by the config normalizer.
func (c *Config) Folders() confnorm.Folders {
	return confnorm.Folders{
		Downloads: c.Paths.Downloads,
		Archive:   c.Paths.Archive,
		Cookies:   c.Paths.Cookies,
	}
}

// NewNormalizer builds a config normalizer from the paths and normalizer sections.
func (c *Config) NewNormalizer() *confnorm.Normalizer {
	return confnorm.New(c.Folders(),
		confnorm.WithStrictPrefix(c.Normalizer.StrictPrefix),
		confnorm.WithCookiesConfinement(c.Normalizer.ConfineCookies),
		confnorm.WithLineEnding(c.Normalizer.LineEnding.Separator()),
	)
}

// CORSEnabled reports whether permissive CORS headers are sent. Defaults to true.
func (h HTTPConfig) CORSEnabled() bool {
	return h.CORS == nil || *h.CORS
}

func (h HTTPConfig) ReadTimeoutDuration() time.Duration  { return durationOr(h.ReadTimeout, 30*time.Second) }
func (h HTTPConfig) WriteTimeoutDuration() time.Duration { return durationOr(h.WriteTimeout, 60*time.Second) }
func (h HTTPConfig) IdleTimeoutDuration() time.Duration  { return durationOr(h.IdleTimeout, 120*time.Second) }

// TimeoutDuration returns the per-launch limit, zero when unlimited.
func (y YtDlpConfig) TimeoutDuration() time.Duration          { return durationOr(y.Timeout, 0) }
func (y YtDlpConfig) RetryInitialDelayDuration() time.Duration { return durationOr(y.RetryInitialDelay, 0) }
func (y YtDlpConfig) RetryMaxDelayDuration() time.Duration     { return durationOr(y.RetryMaxDelay, 0) }

func (s StorageConfig) EventRetentionDuration() time.Duration { return durationOr(s.EventRetention, 0) }
func (w WatchConfig) DebounceDuration() time.Duration         { return durationOr(w.Debounce, 500*time.Millisecond) }
func (s ScheduleConfig) ConfigSweepInterval() time.Duration   { return durationOr(s.ConfigSweep, 0) }
func (s ScheduleConfig) RetentionPruneInterval() time.Duration {
	return durationOr(s.RetentionPrune, 0)
}

// durationOr parses s, returning def for empty or unparsable input.
// Validation rejects unparsable values before these accessors are used.
func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
