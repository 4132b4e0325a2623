package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.AlreadyExistsError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	example := Config{
		Version: CurrentVersion,
		Paths: PathsConfig{
			Configs:   "./configs",
			Downloads: "/data/downloads/",
			Archive:   "/data/archive/",
			Cookies:   "./cookies/",
		},
		HTTP: HTTPConfig{
			Port:         DefaultPort,
			ReadTimeout:  "30s",
			WriteTimeout: "60s",
			IdleTimeout:  "120s",
		},
		YtDlp: YtDlpConfig{
			Binary:            DefaultBinary,
			Timeout:           "2h",
			RetryBackoff:      RetryBackoffLinear,
			RetryInitialDelay: "5s",
			RetryMaxDelay:     "1m",
			OutputLimit:       DefaultOutputLimit,
		},
		Normalizer: NormalizerConfig{LineEnding: LineEndingLF},
		Storage: StorageConfig{
			EventsDB:       "./ytdlpd-events.db",
			HistorySize:    DefaultHistorySize,
			EventRetention: "720h",
		},
		Watch:    WatchConfig{Enabled: true, Debounce: "500ms"},
		Schedule: ScheduleConfig{ConfigSweep: "1h", RetentionPrune: "6h"},
		Monitoring: MonitoringConfig{
			Metrics: MonitoringMetrics{Enabled: true, Path: "/metrics"},
			Health:  MonitoringHealth{Path: "/health"},
			Logging: MonitoringLogging{Level: LogLevelInfo, Format: LogFormatJSON},
		},
		Notify: NotifyConfig{NATS: NATSConfig{
			URL:           "${NATS_URL}",
			SubjectPrefix: DefaultSubjectPrefix,
		}},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}
