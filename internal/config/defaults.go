package config

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// Default values shared by Init and the default appliers.
const (
	DefaultPort          = 8080
	DefaultBinary        = "yt-dlp"
	DefaultOutputLimit   = 1 << 20
	DefaultHistorySize   = 100
	DefaultSubjectPrefix = "ytdlpd"
	DefaultNATSURL       = "nats://127.0.0.1:4222"
)

type pathsDefaultApplier struct{}

func (pathsDefaultApplier) Domain() string { return "paths" }

func (pathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Paths.Configs == "" {
		cfg.Paths.Configs = "./configs"
	}
	if cfg.Paths.Downloads == "" {
		cfg.Paths.Downloads = "/data/downloads/"
	}
	if cfg.Paths.Archive == "" {
		cfg.Paths.Archive = "/data/archive/"
	}
	if cfg.Paths.Cookies == "" {
		cfg.Paths.Cookies = "./cookies/"
	}
	return nil
}

type httpDefaultApplier struct{}

func (httpDefaultApplier) Domain() string { return "http" }

func (httpDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = DefaultPort
	}
	return nil
}

type ytdlpDefaultApplier struct{}

func (ytdlpDefaultApplier) Domain() string { return "ytdlp" }

func (ytdlpDefaultApplier) ApplyDefaults(cfg *Config) error {
	y := &cfg.YtDlp
	if y.Binary == "" {
		y.Binary = DefaultBinary
	}
	if y.RetryBackoff == "" {
		y.RetryBackoff = RetryBackoffLinear
	}
	if y.RetryInitialDelay == "" {
		y.RetryInitialDelay = "5s"
	}
	if y.RetryMaxDelay == "" {
		y.RetryMaxDelay = "1m"
	}
	if y.OutputLimit == 0 {
		y.OutputLimit = DefaultOutputLimit
	}
	return nil
}

type storageDefaultApplier struct{}

func (storageDefaultApplier) Domain() string { return "storage" }

func (storageDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Storage.HistorySize == 0 {
		cfg.Storage.HistorySize = DefaultHistorySize
	}
	if cfg.Storage.EventRetention == "" {
		cfg.Storage.EventRetention = "720h"
	}
	if cfg.Normalizer.LineEnding == "" {
		cfg.Normalizer.LineEnding = LineEndingLF
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "500ms"
	}
	return nil
}

type monitoringDefaultApplier struct{}

func (monitoringDefaultApplier) Domain() string { return "monitoring" }

func (monitoringDefaultApplier) ApplyDefaults(cfg *Config) error {
	m := &cfg.Monitoring
	if m.Metrics.Path == "" {
		m.Metrics.Path = "/metrics"
	}
	if m.Health.Path == "" {
		m.Health.Path = "/health"
	}
	if m.Logging.Level == "" {
		m.Logging.Level = LogLevelInfo
	}
	if m.Logging.Format == "" {
		m.Logging.Format = LogFormatText
	}
	n := &cfg.Notify.NATS
	if n.URL == "" {
		n.URL = DefaultNATSURL
	}
	if n.SubjectPrefix == "" {
		n.SubjectPrefix = DefaultSubjectPrefix
	}
	if n.ClientName == "" {
		n.ClientName = "ytdlpd"
	}
	return nil
}

var defaultAppliers = []DefaultApplier{
	pathsDefaultApplier{},
	httpDefaultApplier{},
	ytdlpDefaultApplier{},
	storageDefaultApplier{},
	monitoringDefaultApplier{},
}

// ApplyDefaults runs every domain applier in order.
func ApplyDefaults(cfg *Config) error {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	for _, a := range defaultAppliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
