package config

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

// ValidateConfig checks a defaulted configuration.
func ValidateConfig(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validatePaths,
		validateHTTP,
		validateYtDlp,
		validateDurations,
		validateMonitoring,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, msg string) error {
	return errors.ConfigError(msg).WithContext("field", field).Build()
}

func validatePaths(cfg *Config) error {
	if cfg.Paths.Configs == "" {
		return invalid("paths.configs", "configs directory must be set")
	}
	if cfg.Paths.Downloads == "" {
		return invalid("paths.downloads", "downloads folder must be set")
	}
	if cfg.Paths.Archive == "" {
		return invalid("paths.archive", "archive folder must be set")
	}
	if cfg.Normalizer.ConfineCookies && cfg.Paths.Cookies == "" {
		return invalid("paths.cookies", "cookies folder must be set when normalizer.confine_cookies is enabled")
	}
	return nil
}

func validateHTTP(cfg *Config) error {
	if cfg.HTTP.Port < 1 || cfg.HTTP.Port > 65535 {
		return errors.ConfigError("http.port out of range").
			WithContext("field", "http.port").
			WithContext("value", cfg.HTTP.Port).
			Build()
	}
	return nil
}

func validateYtDlp(cfg *Config) error {
	if strings.TrimSpace(cfg.YtDlp.Binary) == "" {
		return invalid("ytdlp.binary", "yt-dlp binary must be set")
	}
	return nil
}

func validateDurations(cfg *Config) error {
	fields := []struct {
		name  string
		value string
	}{
		{"http.read_timeout", cfg.HTTP.ReadTimeout},
		{"http.write_timeout", cfg.HTTP.WriteTimeout},
		{"http.idle_timeout", cfg.HTTP.IdleTimeout},
		{"ytdlp.timeout", cfg.YtDlp.Timeout},
		{"ytdlp.retry_initial_delay", cfg.YtDlp.RetryInitialDelay},
		{"ytdlp.retry_max_delay", cfg.YtDlp.RetryMaxDelay},
		{"storage.event_retention", cfg.Storage.EventRetention},
		{"watch.debounce", cfg.Watch.Debounce},
		{"schedule.config_sweep", cfg.Schedule.ConfigSweep},
		{"schedule.retention_prune", cfg.Schedule.RetentionPrune},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := time.ParseDuration(f.value)
		if err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid duration").
				WithContext("field", f.name).
				WithContext("value", f.value).
				Build()
		}
		if d < 0 {
			return invalid(f.name, "duration cannot be negative")
		}
	}
	return nil
}

func validateMonitoring(cfg *Config) error {
	if !strings.HasPrefix(cfg.Monitoring.Metrics.Path, "/") {
		return invalid("monitoring.metrics.path", "metrics path must start with /")
	}
	if !strings.HasPrefix(cfg.Monitoring.Health.Path, "/") {
		return invalid("monitoring.health.path", "health path must start with /")
	}
	if cfg.Notify.NATS.Enabled && strings.TrimSpace(cfg.Notify.NATS.URL) == "" {
		return invalid("notify.nats.url", "nats url must be set when nats is enabled")
	}
	return nil
}
